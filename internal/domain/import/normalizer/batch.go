package normalizer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

// Batch collects the canonical transactions of one document. Every row goes
// through the same cleanup and validation; a rejected row becomes an error
// string and never stops the batch.
type Batch struct {
	provider        transaction.Provider
	defaultCurrency string
	logger          *slog.Logger

	txs  []transaction.ParsedTransaction
	errs []string
}

// NewBatch starts a collector. defaultCurrency fills drafts that carry none;
// an unsupported default falls back to EUR.
func NewBatch(provider transaction.Provider, defaultCurrency string, logger *slog.Logger) *Batch {
	code := money.NormalizeCode(defaultCurrency)
	if !money.IsSupported(code) {
		code = money.EUR
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Batch{
		provider:        provider,
		defaultCurrency: code,
		logger:          logger,
	}
}

// DefaultCurrency returns the currency drafts fall back to.
func (b *Batch) DefaultCurrency() string {
	return b.defaultCurrency
}

// Add normalises and validates a draft. location prefixes any error
// ("line 12", "row 4", "page 2").
func (b *Batch) Add(location string, d transaction.Draft) bool {
	d.Provider = b.provider
	d.Description = CleanLabel(d.Description)
	if d.Currency == "" {
		d.Currency = b.defaultCurrency
	}
	if d.MerchantName == "" {
		d.MerchantName = ExtractMerchant(b.provider, d.Description)
	}
	d.MerchantName = CleanLabel(d.MerchantName)

	tx, err := d.Build()
	if err != nil {
		b.Errorf(location, "%v", err)
		return false
	}
	b.txs = append(b.txs, tx)
	return true
}

// AddRaw finalises a RawTransaction accumulated by a row-oriented parser.
func (b *Batch) AddRaw(location string, raw transaction.RawTransaction, currency string) bool {
	if !raw.HasAmount() {
		b.Errorf(location, "no amount found for %q", raw.Text())
		return false
	}
	amount, isCredit := raw.Amount()
	return b.Add(location, transaction.Draft{
		Date:         raw.Date,
		Description:  raw.Text(),
		Amount:       amount,
		Currency:     currency,
		CardLastFour: raw.CardLastFour,
		IsCredit:     isCredit,
		OriginalLine: strings.Join(raw.Lines, "\n"),
	})
}

// Errorf records a structural error for a location in the document.
func (b *Batch) Errorf(location, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if location != "" {
		msg = location + ": " + msg
	}
	b.logger.Debug("statement row rejected", "provider", b.provider, "error", msg)
	b.errs = append(b.errs, msg)
}

// Len returns the number of accepted transactions.
func (b *Batch) Len() int {
	return len(b.txs)
}

// Result closes the batch.
func (b *Batch) Result() transaction.Result {
	return transaction.NewResult(b.txs, b.errs)
}
