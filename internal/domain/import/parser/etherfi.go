package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

var etherfiRequired = []string{"date", "merchant", "type", "status", "amount", "currency"}

type etherfiRow struct {
	Date            string `csv:"date"`
	Merchant        string `csv:"merchant"`
	Category        string `csv:"category"`
	Type            string `csv:"type"`
	Status          string `csv:"status"`
	Amount          string `csv:"amount"`
	Currency        string `csv:"currency"`
	BillingAmount   string `csv:"billing_amount"`
	BillingCurrency string `csv:"billing_currency"`
	Card            string `csv:"card"`
}

// EtherfiParser maps Ether.fi Cash card CSV exports.
type EtherfiParser struct {
	logger *slog.Logger
}

func NewEtherfiParser(logger *slog.Logger) *EtherfiParser {
	return &EtherfiParser{logger: orDiscard(logger)}
}

func (p *EtherfiParser) Provider() transaction.Provider {
	return transaction.ProviderEtherfi
}

// CanParse requires the Etherfi header set and rejects files carrying
// clearing_date, which belongs to Gnosis Pay.
func (p *EtherfiParser) CanParse(content string) bool {
	return canRead(content, etherfiRequired, "clearing_date")
}

func (p *EtherfiParser) Parse(content, defaultCurrency string) transaction.Result {
	if strings.TrimSpace(content) == "" {
		return transaction.Failure(transaction.ErrEmptyInput)
	}

	t, err := readTable[etherfiRow](content, etherfiRequired...)
	if err != nil {
		p.logger.Warn("etherfi export rejected", "error", err)
		return transaction.Failure(err.Error())
	}

	batch := normalizer.NewBatch(p.Provider(), defaultCurrency, p.logger)
	for i, row := range t.rows {
		if !isAcceptedStatus(row.Status) {
			continue
		}

		date, err := normalizer.ParseDate(row.Date)
		if err != nil {
			batch.Errorf("", "%v", ParseError{Row: t.lines[i], Column: "date", Message: err.Error(), RawData: t.raw[i]})
			continue
		}

		amount, currency, err := settlementAmount(row.BillingAmount, row.BillingCurrency, row.Amount, row.Currency)
		if err != nil {
			batch.Errorf("", "%v", ParseError{Row: t.lines[i], Column: "amount", Message: err.Error(), RawData: t.raw[i]})
			continue
		}

		batch.Add(fmt.Sprintf("row %d", t.lines[i]), transaction.Draft{
			Date:         date,
			Description:  coalesce(row.Merchant, row.Category, row.Type),
			Amount:       amount,
			Currency:     currency,
			MerchantName: strings.TrimSpace(row.Merchant),
			CardLastFour: cardTail(row.Card),
			IsCredit:     isCreditKind(row.Type),
			OriginalLine: t.raw[i],
		})
	}

	return batch.Result()
}
