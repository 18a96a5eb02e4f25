package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

// acceptedStatuses are the settlement states imported from card-program
// exports. Pending, declined and reversed rows are dropped silently.
var acceptedStatuses = map[string]bool{
	"approved": true,
	"cleared":  true,
}

// debitKinds are the transaction kinds that move money out of the card.
// An empty kind counts as a debit; anything else is treated as incoming.
var debitKinds = map[string]bool{
	"":           true,
	"purchase":   true,
	"payment":    true,
	"spend":      true,
	"withdrawal": true,
	"atm":        true,
	"fee":        true,
}

func isAcceptedStatus(status string) bool {
	return acceptedStatuses[strings.ToLower(strings.TrimSpace(status))]
}

func isCreditKind(kind string) bool {
	return !debitKinds[strings.ToLower(strings.TrimSpace(kind))]
}

// table is a CSV export decoded into typed rows with gocsv. lines[i] is the
// 1-based source line of rows[i], raw[i] its original text.
type table[T any] struct {
	config *sniffer.FileConfig
	rows   []T
	lines  []int
	raw    []string
}

// recordReader serves pre-read records to gocsv with the header row replaced
// by normalised keys, so struct tags match "Billing Amount" and
// "billing_amount" alike.
type recordReader struct {
	records [][]string
	pos     int
}

func (r *recordReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}

// readTable sniffs the dialect, checks the required columns and decodes every
// non-blank row into T.
func readTable[T any](content string, required ...string) (*table[T], error) {
	cfg, err := sniffer.DetectConfig(content)
	if err != nil {
		return nil, err
	}
	if missing := cfg.Missing(required...); len(missing) > 0 {
		return nil, ParseError{
			Row:     cfg.SkipLines + 1,
			Column:  strings.Join(missing, ", "),
			Message: "missing required column",
		}
	}

	records, err := cfg.NewReader(content).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, sniffer.ErrNoHeadersFound
	}

	t := &table[T]{config: cfg}
	kept := [][]string{append([]string(nil), cfg.Keys...)}
	for i, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		kept = append(kept, rec)
		t.lines = append(t.lines, cfg.SkipLines+i+2)
		t.raw = append(t.raw, strings.Join(rec, string(cfg.Delimiter)))
	}

	if err := gocsv.UnmarshalCSV(&recordReader{records: kept}, &t.rows); err != nil {
		return nil, fmt.Errorf("decode csv rows: %w", err)
	}
	return t, nil
}

// canRead reports whether content is a CSV whose header carries every key
// and none of the excluded ones.
func canRead(content string, keys []string, excluded ...string) bool {
	cfg, err := sniffer.DetectConfig(content)
	if err != nil {
		return false
	}
	if !cfg.Has(keys...) {
		return false
	}
	return len(excluded) == 0 || len(cfg.Missing(excluded...)) == len(excluded)
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// csvAmount reads a card-program amount. Machine exports use '.' as the
// decimal point ("13.480"); locale exports written with ',' go through the
// separator-detecting parser.
func csvAmount(s string) (decimal.Decimal, error) {
	if strings.Contains(s, ".") && !strings.Contains(s, ",") {
		return normalizer.ParseDotAmount(s)
	}
	return normalizer.ParseAmount(s)
}

// csvCurrency returns the observed currency when it is supported, or "" so
// the batch default applies.
func csvCurrency(code string) string {
	code = money.NormalizeCode(code)
	if money.IsSupported(code) {
		return code
	}
	return ""
}

// cardTail keeps the last four digits of a masked card number.
func cardTail(card string) string {
	var digits []rune
	for _, r := range card {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}
