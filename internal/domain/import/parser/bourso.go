package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// boursoAmount accepts grouped thousands ("1 234,56") and the ungrouped form
// flattened PDF text often leaves ("1234,56").
const boursoAmount = `[-+]?(?:\d{1,3}(?:[ .\x{00a0}\x{202f}]\d{3})+|\d+),\d{2}`

var (
	boursoSkip = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^date\s+(d'?\s*)?op[ée]ration`),
		regexp.MustCompile(`(?i)^(date|libell[ée])\s+.*(d[ée]bit|cr[ée]dit|montant)`),
		regexp.MustCompile(`(?i)^page\s+\d+`),
		regexp.MustCompile(`^\d+\s*/\s*\d+$`),
		regexp.MustCompile(`(?i)^(nouveau\s+|ancien\s+)?solde\b`),
		regexp.MustCompile(`(?i)^total\b`),
	}

	boursoAnchor     = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})(\s.*|[^\d\s].*)?$`)
	boursoDateStart  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
	boursoDateAmount = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s*(` + boursoAmount + `)\s*$`)
	boursoTrailing   = regexp.MustCompile(`(?:^|\s)(` + boursoAmount + `)\s*$`)
	boursoOnlyAmount = regexp.MustCompile(`^(` + boursoAmount + `)$`)
	boursoDateSuffix = regexp.MustCompile(`\s*\d{2}/\d{2}/\d{4}\s*$`)
	boursoCurrency   = regexp.MustCompile(`\s*(€|EUR)\s*$`)
	boursoCardTail   = regexp.MustCompile(`CB\*(\d{4})`)

	boursoDetectDate    = regexp.MustCompile(`(?m)^\s*\d{2}/\d{2}/\d{4}\b`)
	boursoDetectKeyword = regexp.MustCompile(`VIR SEPA|PRLV SEPA|VIR INST|CARTE \d{2}/\d{2}`)

	wordVir    = regexp.MustCompile(`\bVIR\b`)
	wordEmis   = regexp.MustCompile(`\bEMIS\b`)
	wordAvoir  = regexp.MustCompile(`\bAVOIR\b`)
	wordDebits = regexp.MustCompile(`\b(CARTE|PRLV|RETRAIT)\b`)
)

// BoursoParser reads Boursorama statements flattened to text, where one
// operation may span several lines and an amount can be glued to the next
// date column.
type BoursoParser struct {
	logger *slog.Logger
}

func NewBoursoParser(logger *slog.Logger) *BoursoParser {
	return &BoursoParser{logger: orDiscard(logger)}
}

func (p *BoursoParser) Provider() transaction.Provider {
	return transaction.ProviderBourso
}

func (p *BoursoParser) CanParse(content string) bool {
	return boursoDetectDate.MatchString(content) && boursoDetectKeyword.MatchString(strings.ToUpper(content))
}

func (p *BoursoParser) Parse(content, defaultCurrency string) transaction.Result {
	if strings.TrimSpace(content) == "" {
		return transaction.Failure(transaction.ErrEmptyInput)
	}

	var state continuation
	for i, line := range splitLines(content) {
		state = step(state, i+1, line)
	}
	state = state.finish()

	if len(state.closed) == 0 && len(state.rejected) == 0 {
		return transaction.Failure(transaction.ErrNoTransactions)
	}

	batch := normalizer.NewBatch(p.Provider(), defaultCurrency, p.logger)
	for _, raw := range state.closed {
		batch.AddRaw(fmt.Sprintf("line %d", raw.StartLine), raw, "")
	}
	for _, r := range state.rejected {
		batch.Errorf(fmt.Sprintf("line %d", r.line), "%s", r.reason)
	}
	return batch.Result()
}

// rejectedLine is a dated line that could not become an operation.
type rejectedLine struct {
	line   int
	reason string
}

// continuation is the accumulator folded over the lines of a statement.
// open is the operation being assembled; closed holds finished ones in order.
type continuation struct {
	open     *transaction.RawTransaction
	closed   []transaction.RawTransaction
	rejected []rejectedLine
}

func (s continuation) reject(lineNo int, format string, args ...any) continuation {
	s.rejected = append(s.rejected, rejectedLine{line: lineNo, reason: fmt.Sprintf(format, args...)})
	return s
}

func (s continuation) finish() continuation {
	if s.open != nil {
		s.closed = append(s.closed, *s.open)
		s.open = nil
	}
	return s
}

// step applies one physical line to the state and returns the next state.
func step(s continuation, lineNo int, line string) continuation {
	line = normalizer.CleanLabel(line)
	if line == "" || isBoursoSkip(line) {
		return s
	}

	if m := boursoAnchor.FindStringSubmatch(line); m != nil {
		rest, amount, found := splitBoursoAmount(strings.TrimSpace(m[2]))
		if rest == "" && found && s.open != nil && !s.open.HasAmount() {
			return s.assign(line, amount)
		}

		date, err := normalizer.ParseSlashDate(m[1])
		if err != nil {
			return s.reject(lineNo, "%v", err)
		}

		s = s.finish()
		raw := transaction.RawTransaction{Date: date, StartLine: lineNo}
		raw.AppendDescription(rest)
		raw.Lines = append(raw.Lines, line)
		s.open = &raw
		if found {
			return s.assign("", amount)
		}
		return s
	}

	text := boursoCurrency.ReplaceAllString(line, "")
	dateAmount := boursoDateAmount.FindStringSubmatch(text)
	if dateAmount != nil && dateAmount[0] != text {
		dateAmount = nil
	}
	switch {
	case dateAmount != nil && (s.open == nil || s.open.HasAmount()):
		return s.reject(lineNo, "amount %s has no open operation", dateAmount[2])
	case dateAmount == nil && boursoDateStart.MatchString(line):
		return s.reject(lineNo, "unrecognised operation %q", line)
	case s.open == nil:
		return s
	}

	if m := boursoOnlyAmount.FindStringSubmatch(text); m != nil {
		if s.open.HasAmount() {
			return s
		}
		return s.assign(line, m[1])
	}
	if dateAmount != nil {
		return s.assign(line, dateAmount[2])
	}

	open := *s.open
	open.AppendDescription(line)
	open.Lines = append(append([]string(nil), open.Lines...), line)
	s.open = &open
	return s
}

// assign sets the amount of the open operation, classifying its direction
// from the description accumulated so far.
func (s continuation) assign(line, token string) continuation {
	amount, err := normalizer.ParseAmount(token)
	if err != nil {
		return s
	}

	open := *s.open
	if line != "" {
		open.Lines = append(append([]string(nil), open.Lines...), line)
	}
	open.SetAmount(amount, boursoIsCredit(open.Text(), token, amount))
	if m := boursoCardTail.FindStringSubmatch(open.Text()); m != nil {
		open.CardLastFour = m[1]
	}
	s.open = &open
	return s
}

// splitBoursoAmount separates the description of an anchor line from its
// amount, which is either glued to a value date or trails the line.
func splitBoursoAmount(rest string) (string, string, bool) {
	rest = boursoCurrency.ReplaceAllString(rest, "")
	if loc := boursoDateAmount.FindStringSubmatchIndex(rest); loc != nil {
		amount := rest[loc[4]:loc[5]]
		return strings.TrimSpace(rest[:loc[0]]), amount, true
	}
	if loc := boursoTrailing.FindStringSubmatchIndex(rest); loc != nil {
		amount := rest[loc[2]:loc[3]]
		desc := boursoDateSuffix.ReplaceAllString(rest[:loc[0]], "")
		return strings.TrimSpace(desc), amount, true
	}
	return strings.TrimSpace(boursoDateSuffix.ReplaceAllString(rest, "")), "", false
}

// boursoIsCredit infers direction. An explicit sign wins; otherwise transfer
// keywords decide. A VIR without EMIS is assumed inbound, which is a
// heuristic and may misclassify.
func boursoIsCredit(description, token string, amount decimal.Decimal) bool {
	token = strings.TrimSpace(token)
	switch {
	case strings.HasPrefix(token, "-") || amount.IsNegative():
		return false
	case strings.HasPrefix(token, "+"):
		return true
	}

	upper := strings.ToUpper(normalizer.FoldAccents(description))
	switch {
	case wordVir.MatchString(upper) && wordEmis.MatchString(upper):
		return false
	case wordAvoir.MatchString(upper):
		return true
	case wordDebits.MatchString(upper):
		return false
	case wordVir.MatchString(upper):
		return true
	default:
		return false
	}
}

func isBoursoSkip(line string) bool {
	for _, re := range boursoSkip {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
