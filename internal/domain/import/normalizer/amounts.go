package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a token cannot be read as an amount.
var ErrInvalidAmount = errors.New("invalid amount")

var amountNoise = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"\u2009", "",
	"'", "",
	"€", "",
	"$", "",
	"£", "",
	"EUR", "",
	"USD", "",
	"GBP", "",
	"CHF", "",
)

// ParseAmount reads a signed amount, detecting the decimal separator.
//
// When both ',' and '.' occur, the last one is the decimal separator. A single
// separator kind followed by exactly three digits, or repeated, is a thousands
// separator ("1.234", "1,234,567"); otherwise it is the decimal point.
// Leading/trailing minus signs and accounting parentheses mark negatives.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = amountNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "−"):
		negative = true
		s = strings.TrimLeft(s, "-−")
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = true
		s = s[:len(s)-1]
	}

	s, err := normalizeSeparators(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", err, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func normalizeSeparators(s string) (string, error) {
	if s == "" {
		return "", ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != ',' && r != '.' {
			return "", ErrInvalidAmount
		}
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), nil
		}
		return strings.ReplaceAll(s, ",", ""), nil
	case lastComma >= 0:
		return resolveSingleSeparator(s, ",")
	case lastDot >= 0:
		return resolveSingleSeparator(s, ".")
	default:
		return s, nil
	}
}

func resolveSingleSeparator(s, sep string) (string, error) {
	count := strings.Count(s, sep)
	idx := strings.LastIndex(s, sep)
	digitsAfter := len(s) - idx - 1

	if count > 1 || (digitsAfter == 3 && idx > 0 && s[:idx] != "0") {
		return strings.ReplaceAll(s, sep, ""), nil
	}
	return strings.Replace(s, sep, ".", 1), nil
}

// ParseStrictAmount is ParseAmount for tokens pulled out of free layout: any
// letter disqualifies the token, so "UNIPESSOAL,LDA" is never read as a number.
func ParseStrictAmount(token string) (decimal.Decimal, error) {
	hasDigit := false
	for _, r := range token {
		if unicode.IsLetter(r) {
			return decimal.Zero, fmt.Errorf("%w: %q contains letters", ErrInvalidAmount, token)
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasDigit {
		return decimal.Zero, fmt.Errorf("%w: %q has no digits", ErrInvalidAmount, token)
	}
	return ParseAmount(token)
}

// ParseDotAmount reads machine-formatted amounts ("-13.48", "1,234.5678")
// where '.' is always the decimal point and ',' only groups thousands.
func ParseDotAmount(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}
