package pdftable

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// ErrPeriodNotFound rejects statements whose partial dates cannot be anchored.
var ErrPeriodNotFound = errors.New("statement period not found")

var (
	dateToken    = regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}(?:[/.-]\d{2,4})?$`)
	partialToken = regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}$`)
	cardTail     = regexp.MustCompile(`CB\*(\d{4})`)
)

// variant describes one bank's statement layout.
type variant struct {
	provider transaction.Provider
	// detect receives the folded, upper-cased document text.
	detect func(text string) bool
	labels map[string][]columnKind
	// fallback is the approximate layout used on pages that print no header.
	fallback columns

	startMarkers []string
	endMarkers   []string

	period         *regexp.Regexp
	periodRequired bool
}

type section int

const (
	sectionBefore section = iota
	sectionInside
	sectionAfter
)

// StatementParser extracts transactions from one bank's PDF statements.
type StatementParser struct {
	v      variant
	logger *slog.Logger
}

func newStatementParser(v variant, logger *slog.Logger) *StatementParser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StatementParser{v: v, logger: logger}
}

// DefaultParsers returns the PDF statement parsers in detection order.
func DefaultParsers(logger *slog.Logger) []*StatementParser {
	return []*StatementParser{
		NewBPIParser(logger),
		NewBoursoramaParser(logger),
	}
}

func (p *StatementParser) Provider() transaction.Provider {
	return p.v.provider
}

func (p *StatementParser) CanParse(doc *Document) bool {
	if doc == nil || len(doc.Pages) == 0 {
		return false
	}
	return p.v.detect(foldUpper(doc.Text()))
}

// Parse walks every page of doc. A statement without a locatable period is
// rejected as a whole when the layout needs it to resolve dates.
func (p *StatementParser) Parse(doc *Document, defaultCurrency string) transaction.Result {
	if doc == nil || len(doc.Pages) == 0 {
		errs := []string{transaction.ErrEmptyInput}
		if doc != nil {
			errs = append(errs, doc.Errors...)
		}
		return transaction.Failure(errs...)
	}

	period, err := p.findPeriod(doc)
	if err != nil {
		p.logger.Warn("statement rejected", "provider", p.v.provider, "error", err)
		return transaction.Failure(append([]string{err.Error()}, doc.Errors...)...)
	}

	w := &walker{v: p.v, period: period}
	for _, page := range doc.Pages {
		w.page(page)
	}
	w.flush()

	batch := normalizer.NewBatch(p.v.provider, defaultCurrency, p.logger)
	for _, e := range doc.Errors {
		batch.Errorf("", "%s", e)
	}
	for _, e := range w.errs {
		batch.Errorf("", "%s", e)
	}
	for _, tx := range w.done {
		batch.AddRaw(tx.location, tx.raw, "")
	}
	if len(w.done) == 0 && len(w.errs) == 0 {
		batch.Errorf("", "%s", transaction.ErrNoTransactions)
	}
	return batch.Result()
}

func (p *StatementParser) findPeriod(doc *Document) (*normalizer.Period, error) {
	if p.v.period == nil {
		return nil, nil
	}
	m := p.v.period.FindStringSubmatch(foldUpper(doc.Text()))
	if m == nil {
		if p.v.periodRequired {
			return nil, ErrPeriodNotFound
		}
		return nil, nil
	}
	period, err := normalizer.NewPeriod(m[1], m[2])
	if err != nil {
		if p.v.periodRequired {
			return nil, fmt.Errorf("%w: %v", ErrPeriodNotFound, err)
		}
		return nil, nil
	}
	return &period, nil
}

type located struct {
	location string
	raw      transaction.RawTransaction
}

// walker carries the section state and the open transaction across pages.
type walker struct {
	v       variant
	period  *normalizer.Period
	section section
	cols    columns

	current  *transaction.RawTransaction
	location string
	done     []located
	errs     []string
}

func (w *walker) page(page Page) {
	if w.section == sectionAfter {
		return
	}

	l := newLayout(page.Items)
	headerY := math.Inf(-1)

	if cols, bottom, ok := findHeader(l, w.v.labels); ok {
		w.cols = cols
		headerY = bottom
		// With start markers only the opening balance opens the section, so
		// summary rows printed under the header stay out.
		if w.section == sectionBefore && len(w.v.startMarkers) == 0 {
			w.section = sectionInside
		}
	} else if w.cols == nil {
		if !hasDateInColumn(l, w.v.fallback) {
			w.errs = append(w.errs, fmt.Sprintf("page %d: column headers not found", page.Number))
			return
		}
		w.cols = w.v.fallback
	}

	for i, r := range l.rows {
		if l.top(r) <= headerY {
			continue
		}
		w.row(page.Number, i+1, l.row(r))
		if w.section == sectionAfter {
			return
		}
	}
}

func hasDateInColumn(l layout, cols columns) bool {
	for _, it := range l.items {
		if cols.kindAt(it.X) == colDate && dateToken.MatchString(strings.TrimSpace(it.Text)) {
			return true
		}
	}
	return false
}

// cells is one table row split by column.
type cells struct {
	date, valueDate string
	description     []string
	debit, credit   []string
	signed          []string
}

func (w *walker) split(items []Item) cells {
	var c cells
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		kind := w.cols.kindAt(it.X)

		// Decoys such as "UNIPESSOAL,LDA" spilling into an amount column
		// stay part of the description.
		if kind.isAmount() && hasLetter(text) {
			kind = colDescription
		}

		switch kind {
		case colDate:
			if c.date == "" && dateToken.MatchString(text) {
				c.date = text
			} else {
				c.description = append(c.description, text)
			}
		case colValueDate:
			if c.valueDate == "" && dateToken.MatchString(text) {
				c.valueDate = text
			} else if !dateToken.MatchString(text) {
				c.description = append(c.description, text)
			}
		case colDebit:
			c.debit = append(c.debit, text)
		case colCredit:
			c.credit = append(c.credit, text)
		case colAmount:
			c.signed = append(c.signed, text)
		case colBalance:
		default:
			c.description = append(c.description, text)
		}
	}
	return c
}

// amount resolves the amount cells of a row. Tokens of one cell are joined
// first, since "1 234,56" is often extracted as two words.
func (c cells) amount() (decimal.Decimal, bool, bool) {
	if d, ok := strictAmount(c.debit); ok && !d.IsZero() {
		return d.Abs(), false, true
	}
	if d, ok := strictAmount(c.credit); ok && !d.IsZero() {
		return d.Abs(), true, true
	}
	if d, ok := strictAmount(c.signed); ok && !d.IsZero() {
		return d.Abs(), d.IsPositive(), true
	}
	return decimal.Zero, false, false
}

func strictAmount(tokens []string) (decimal.Decimal, bool) {
	if len(tokens) == 0 {
		return decimal.Zero, false
	}
	d, err := normalizer.ParseStrictAmount(strings.Join(tokens, ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (w *walker) row(pageNo, rowNo int, items []Item) {
	key := foldUpper(joinItems(items))

	if w.section == sectionInside && containsAny(key, w.v.endMarkers) {
		w.flush()
		w.section = sectionAfter
		return
	}
	if containsAny(key, w.v.startMarkers) {
		w.section = sectionInside
		return
	}
	if w.section != sectionInside {
		return
	}

	location := fmt.Sprintf("page %d row %d", pageNo, rowNo)
	c := w.split(items)
	amount, isCredit, hasAmount := c.amount()

	if c.date != "" {
		w.flush()
		date, err := w.resolve(c.date)
		if err != nil {
			w.errs = append(w.errs, fmt.Sprintf("%s: %v", location, err))
			return
		}
		raw := transaction.RawTransaction{Date: date}
		if c.valueDate != "" {
			raw.ValueDate, _ = w.resolve(c.valueDate)
		}
		w.open(location, raw, items, c.description)
		if hasAmount {
			w.current.SetAmount(amount, isCredit)
		}
		return
	}

	switch {
	case hasAmount && w.current != nil && !w.current.HasAmount():
		w.extend(items, c.description)
		w.current.SetAmount(amount, isCredit)
	case hasAmount && w.current != nil:
		// second physical row of a split operation: same date, own amount
		raw := transaction.RawTransaction{Date: w.current.Date, ValueDate: w.current.ValueDate}
		w.flush()
		w.open(location, raw, items, c.description)
		w.current.SetAmount(amount, isCredit)
	case hasAmount:
		w.errs = append(w.errs, fmt.Sprintf("%s: amount without a transaction date", location))
	case w.current != nil && len(c.description) > 0:
		w.extend(items, c.description)
	}
}

func (w *walker) open(location string, raw transaction.RawTransaction, items []Item, description []string) {
	for _, d := range description {
		raw.AppendDescription(d)
	}
	raw.Lines = append(raw.Lines, joinItems(items))
	w.current = &raw
	w.location = location
}

func (w *walker) extend(items []Item, description []string) {
	for _, d := range description {
		w.current.AppendDescription(d)
	}
	w.current.Lines = append(w.current.Lines, joinItems(items))
}

func (w *walker) flush() {
	if w.current == nil {
		return
	}
	raw := *w.current
	if m := cardTail.FindStringSubmatch(raw.Text()); m != nil {
		raw.CardLastFour = m[1]
	}
	w.done = append(w.done, located{location: w.location, raw: raw})
	w.current = nil
}

// resolve turns a date cell into ISO form. Day/month tokens need the
// statement period to pick the year.
func (w *walker) resolve(token string) (string, error) {
	if !partialToken.MatchString(token) {
		return normalizer.ParseSlashDate(token)
	}
	if w.period == nil {
		return "", fmt.Errorf("%w: %q has no year", ErrPeriodNotFound, token)
	}
	return normalizer.ResolvePartialDate(token, *w.period)
}

func joinItems(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, strings.TrimSpace(it.Text))
	}
	return strings.Join(parts, " ")
}

func foldUpper(s string) string {
	return strings.ToUpper(normalizer.FoldAccents(s))
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
