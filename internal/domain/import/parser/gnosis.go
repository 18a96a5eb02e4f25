package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

var gnosisRequired = []string{"clearing_date", "status", "transaction_amount"}

// gnosisRow is one line of a Gnosis Pay card export.
type gnosisRow struct {
	CreatedAt           string `csv:"created_at"`
	ClearingDate        string `csv:"clearing_date"`
	MerchantName        string `csv:"merchant_name"`
	MerchantCity        string `csv:"merchant_city"`
	Kind                string `csv:"kind"`
	Status              string `csv:"status"`
	TransactionAmount   string `csv:"transaction_amount"`
	TransactionCurrency string `csv:"transaction_currency"`
	BillingAmount       string `csv:"billing_amount"`
	BillingCurrency     string `csv:"billing_currency"`
	Card                string `csv:"card_last_four"`
}

// GnosisPayParser maps Gnosis Pay CSV exports.
type GnosisPayParser struct {
	logger *slog.Logger
}

func NewGnosisPayParser(logger *slog.Logger) *GnosisPayParser {
	return &GnosisPayParser{logger: orDiscard(logger)}
}

func (p *GnosisPayParser) Provider() transaction.Provider {
	return transaction.ProviderGnosisPay
}

func (p *GnosisPayParser) CanParse(content string) bool {
	return canRead(content, gnosisRequired)
}

func (p *GnosisPayParser) Parse(content, defaultCurrency string) transaction.Result {
	if strings.TrimSpace(content) == "" {
		return transaction.Failure(transaction.ErrEmptyInput)
	}

	t, err := readTable[gnosisRow](content, gnosisRequired...)
	if err != nil {
		p.logger.Warn("gnosis pay export rejected", "error", err)
		return transaction.Failure(err.Error())
	}

	batch := normalizer.NewBatch(p.Provider(), defaultCurrency, p.logger)
	for i, row := range t.rows {
		if !isAcceptedStatus(row.Status) {
			continue
		}
		location := fmt.Sprintf("row %d", t.lines[i])

		date, err := normalizer.ParseDate(coalesce(row.CreatedAt, row.ClearingDate))
		if err != nil {
			batch.Errorf("", "%v", ParseError{Row: t.lines[i], Column: "created_at", Message: err.Error(), RawData: t.raw[i]})
			continue
		}

		amount, currency, err := settlementAmount(row.BillingAmount, row.BillingCurrency, row.TransactionAmount, row.TransactionCurrency)
		if err != nil {
			batch.Errorf("", "%v", ParseError{Row: t.lines[i], Column: "transaction_amount", Message: err.Error(), RawData: t.raw[i]})
			continue
		}

		description := coalesce(row.MerchantName, row.Kind)
		if city := strings.TrimSpace(row.MerchantCity); city != "" && row.MerchantName != "" {
			description = description + " " + city
		}

		batch.Add(location, transaction.Draft{
			Date:         date,
			Description:  description,
			Amount:       amount,
			Currency:     currency,
			MerchantName: strings.TrimSpace(row.MerchantName),
			CardLastFour: cardTail(row.Card),
			IsCredit:     isCreditKind(row.Kind),
			OriginalLine: t.raw[i],
		})
	}

	return batch.Result()
}

var errNoAmount = errors.New("no amount")

// settlementAmount prefers the billing (settled) pair and falls back to the
// transaction pair. An unsupported currency is returned empty.
func settlementAmount(billingAmount, billingCurrency, txAmount, txCurrency string) (decimal.Decimal, string, error) {
	if strings.TrimSpace(billingAmount) != "" {
		if d, err := csvAmount(billingAmount); err == nil {
			return d, csvCurrency(billingCurrency), nil
		}
	}
	if strings.TrimSpace(txAmount) == "" {
		return decimal.Zero, "", errNoAmount
	}
	d, err := csvAmount(txAmount)
	if err != nil {
		return decimal.Zero, "", err
	}
	return d, csvCurrency(txCurrency), nil
}
