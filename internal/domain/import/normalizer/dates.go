package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrUnknownMonth = errors.New("unknown month")
)

// frenchMonths maps accent-folded, lower-case French month names and their
// usual statement abbreviations to month numbers.
var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"janv":      time.January,
	"fevrier":   time.February,
	"fevr":      time.February,
	"fev":       time.February,
	"mars":      time.March,
	"avril":     time.April,
	"avr":       time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"juil":      time.July,
	"aout":      time.August,
	"septembre": time.September,
	"sept":      time.September,
	"octobre":   time.October,
	"oct":       time.October,
	"novembre":  time.November,
	"nov":       time.November,
	"decembre":  time.December,
	"dec":       time.December,
}

// FrenchMonth resolves a French month name ("août", "Décembre", "févr.").
func FrenchMonth(name string) (time.Month, bool) {
	key := strings.TrimSuffix(strings.ToLower(FoldAccents(strings.TrimSpace(name))), ".")
	m, ok := frenchMonths[key]
	return m, ok
}

// ParseFrenchDate builds an ISO date from day, French month name and year
// tokens. An unrecognised month is rejected, never guessed.
func ParseFrenchDate(day, month, year string) (string, error) {
	m, ok := FrenchMonth(month)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMonth, month)
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return "", fmt.Errorf("%w: day %q", ErrInvalidDate, day)
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return "", fmt.Errorf("%w: year %q", ErrInvalidDate, year)
	}
	return buildDate(y, m, d)
}

var slashDatePattern = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2}|\d{4})$`)

// ParseSlashDate converts DD/MM/YYYY or DD/MM/YY (dots and dashes accepted) to
// YYYY-MM-DD. Two-digit years are in the 2000s.
func ParseSlashDate(s string) (string, error) {
	m := slashDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	return buildDate(year, time.Month(month), day)
}

// FormatSlashDate converts an ISO date back to DD/MM/YYYY.
func FormatSlashDate(iso string) (string, error) {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, iso)
	}
	return t.Format("02/01/2006"), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseDate accepts ISO dates, ISO timestamps (with or without zone) and
// day-first slash dates, returning YYYY-MM-DD. Timestamps keep their own
// calendar day; they are not shifted to another zone.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	if iso, err := ParseSlashDate(s); err == nil {
		return iso, nil
	}
	// "2025-09-02 10:11:12 UTC" and similar vendor suffixes
	if len(s) > 10 && (s[10] == ' ' || s[10] == 'T') {
		if t, err := time.Parse(time.DateOnly, s[:10]); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Period is a statement's declared date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod parses two DD/MM/YYYY bounds.
func NewPeriod(start, end string) (Period, error) {
	s, err := ParseSlashDate(start)
	if err != nil {
		return Period{}, err
	}
	e, err := ParseSlashDate(end)
	if err != nil {
		return Period{}, err
	}
	ps, _ := time.Parse(time.DateOnly, s)
	pe, _ := time.Parse(time.DateOnly, e)
	if pe.Before(ps) {
		return Period{}, fmt.Errorf("%w: period ends before it starts", ErrInvalidDate)
	}
	return Period{Start: ps, End: pe}, nil
}

var partialDatePattern = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})$`)

// ResolvePartialDate anchors a DD/MM token to the statement period: months at
// or after the period's start month take the start year, earlier months take
// the end year.
func ResolvePartialDate(ddmm string, p Period) (string, error) {
	m := partialDatePattern.FindStringSubmatch(strings.TrimSpace(ddmm))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, ddmm)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	year := p.Start.Year()
	if time.Month(month) < p.Start.Month() {
		year = p.End.Year()
	}
	return buildDate(year, time.Month(month), day)
}

// buildDate rejects values time.Date would silently normalise (31/02).
func buildDate(year int, month time.Month, day int) (string, error) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return "", fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return "", fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return t.Format(time.DateOnly), nil
}
