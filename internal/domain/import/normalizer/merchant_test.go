package normalizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name        string
		provider    transaction.Provider
		description string
		want        string
	}{
		{"quoted segment", transaction.ProviderDeblock, `Paiement Carte "Tesla"`, "Tesla"},
		{"quoted with spaces", transaction.ProviderDeblock, `Prélèvement automatique " DIGI PORTUGAL LDA "`, "DIGI PORTUGAL LDA"},
		{"bourso card", transaction.ProviderBourso, "CARTE 30/08/25 PAYPAL CB*8897", "PAYPAL"},
		{"bourso card with city", transaction.ProviderBourso, "CARTE 12/09/25 FRANPRIX PARIS 11 CB*1234", "FRANPRIX PARIS 11"},
		{"bourso outgoing transfer", transaction.ProviderBourso, "VIR SEPA EMIS VERS JOHN DOE /MOTIF loyer", "JOHN DOE"},
		{"bourso instant transfer", transaction.ProviderBourso, "VIR INST M JANE DOE", "M JANE DOE"},
		{"bourso direct debit", transaction.ProviderBourso, "PRLV SEPA FREE MOBILE 123456789", "FREE MOBILE"},
		{"bourso withdrawal", transaction.ProviderBourso, "RETRAIT DAB 01/09/25 PARIS", LabelCashWithdrawal},
		{"bpi transfer", transaction.ProviderBPI, "TRF P2P 123 DE MARIA SILVA", "MARIA SILVA"},
		{"bpi direct debit", transaction.ProviderBPI, "DD EDP COMERCIAL 0012345678", "EDP COMERCIAL"},
		{"bpi stamp duty", transaction.ProviderBPI, "IMPOSTO DO SELO S/ COMISSAO", LabelStampDuty},
		{"bpi maintenance", transaction.ProviderBPI, "COMISSAO MANUTENCAO CONTA", LabelAccountMaintenance},
		{"fallback skips short and numeric tokens", transaction.ProviderManual, "PAG 12 AMAZON EU SARL LUXEMBOURG 4455", "PAG AMAZON SARL LUXEMBOURG"},
		{"fallback keeps single word", transaction.ProviderEtherfi, "Starbucks", "Starbucks"},
		{"never fails on digits", transaction.ProviderManual, "12 34", "12 34"},
		{"empty", transaction.ProviderBourso, "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMerchant(tt.provider, tt.description))
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "paypal", NormalizeKey("PayPal  "))
	assert.Equal(t, NormalizeKey("Paypal"), NormalizeKey(" \"PayPal\" "))
	assert.Equal(t, "digi portugal lda", NormalizeKey("“DIGI   PORTUGAL\tLDA”"))
	assert.Equal(t, "cafe de flore", NormalizeKey("Cafe  de 'Flore'"))
}

func TestCleanLabelAndHeaders(t *testing.T) {
	assert.Equal(t, "CARTE PAYPAL", CleanLabel("  CARTE   PAYPAL\n"))
	assert.Equal(t, "billing_amount", NormalizeHeader(" Billing Amount "))
	assert.Equal(t, "clearing_date", NormalizeHeader("\uFEFFclearing_date"))
	assert.Equal(t, "libelle", NormalizeHeader("Libellé"))
	assert.Equal(t, "data_mov", NormalizeHeader("Data Mov."))
	assert.Equal(t, "Prelevement", FoldAccents("Prélèvement"))
}

func TestBatch(t *testing.T) {
	t.Run("collects valid rows and reports invalid ones", func(t *testing.T) {
		b := NewBatch(transaction.ProviderBourso, "", nil)
		assert.Equal(t, "EUR", b.DefaultCurrency())

		ok := b.Add("line 1", transaction.Draft{
			Date:        "2025-09-02",
			Description: "  CARTE 30/08/25   PAYPAL CB*8897 ",
			Amount:      decimal.RequireFromString("13.90"),
		})
		require.True(t, ok)

		ok = b.Add("line 4", transaction.Draft{
			Date:        "2025-09-03",
			Description: "VIR SEPA",
			Amount:      decimal.Zero,
		})
		assert.False(t, ok)

		res := b.Result()
		assert.True(t, res.Success)
		require.Len(t, res.Transactions, 1)
		tx := res.Transactions[0]
		assert.Equal(t, "CARTE 30/08/25 PAYPAL CB*8897", tx.Description)
		assert.Equal(t, "PAYPAL", tx.MerchantName)
		assert.Equal(t, "EUR", tx.Currency)
		assert.Equal(t, transaction.ProviderBourso, tx.Provider)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "line 4: invalid amount")
	})

	t.Run("raw transaction without amount is an error", func(t *testing.T) {
		b := NewBatch(transaction.ProviderBourso, "usd", nil)
		raw := transaction.RawTransaction{Date: "2025-09-02"}
		raw.AppendDescription("CARTE LIDL")

		assert.False(t, b.AddRaw("line 7", raw, ""))
		res := b.Result()
		assert.False(t, res.Success)
		assert.Equal(t, []string{`line 7: no amount found for "CARTE LIDL"`}, res.Errors)
	})

	t.Run("unsupported default currency falls back to EUR", func(t *testing.T) {
		b := NewBatch(transaction.ProviderGnosisPay, "BRL", nil)
		assert.Equal(t, "EUR", b.DefaultCurrency())
	})
}
