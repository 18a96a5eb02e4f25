package transaction

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{"deblock", ProviderDeblock, false},
		{"BOURSO", ProviderBourso, false},
		{"gnosis-pay", ProviderGnosisPay, false},
		{" gnosis pay ", ProviderGnosisPay, false},
		{"etherfi", ProviderEtherfi, false},
		{"bpi", ProviderBPI, false},
		{"credit_agricole", ProviderCreditAgricole, false},
		{"revolut", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidProvider))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validDraft() Draft {
	return Draft{
		Date:         "2025-09-02",
		Description:  "CARTE 30/08/25 PAYPAL CB*8897",
		Amount:       decimal.RequireFromString("-13.90"),
		Currency:     "eur",
		MerchantName: " PAYPAL ",
		CardLastFour: "8897",
		Provider:     ProviderBourso,
	}
}

func TestDraft_Build(t *testing.T) {
	t.Run("valid draft becomes canonical", func(t *testing.T) {
		tx, err := validDraft().Build()
		require.NoError(t, err)

		assert.Equal(t, "2025-09-02", tx.Date)
		assert.Equal(t, 13.90, tx.Amount)
		assert.Equal(t, "EUR", tx.Currency)
		assert.Equal(t, "PAYPAL", tx.MerchantName)
		assert.Equal(t, "8897", tx.CardLastFour)
		assert.False(t, tx.IsCredit)
		assert.Equal(t, ProviderBourso, tx.Provider)
	})

	tests := []struct {
		name   string
		mutate func(*Draft)
		field  string
	}{
		{"slash date", func(d *Draft) { d.Date = "02/09/2025" }, "date"},
		{"impossible date", func(d *Draft) { d.Date = "2025-02-30" }, "date"},
		{"blank description", func(d *Draft) { d.Description = "   " }, "description"},
		{"zero amount", func(d *Draft) { d.Amount = decimal.Zero }, "amount"},
		{"amount rounds to zero", func(d *Draft) { d.Amount = decimal.RequireFromString("0.004") }, "amount"},
		{"unsupported currency", func(d *Draft) { d.Currency = "BRL" }, "currency"},
		{"bad card tail", func(d *Draft) { d.CardLastFour = "88a7" }, "cardLastFour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			_, err := d.Build()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRawTransaction_Amount(t *testing.T) {
	var raw RawTransaction
	assert.False(t, raw.HasAmount())

	raw.SetAmount(decimal.RequireFromString("-7.00"), false)
	amount, isCredit := raw.Amount()
	assert.True(t, raw.HasAmount())
	assert.False(t, isCredit)
	assert.True(t, amount.Equal(decimal.RequireFromString("7")))

	raw.SetAmount(decimal.RequireFromString("12.5"), true)
	amount, isCredit = raw.Amount()
	assert.True(t, isCredit)
	assert.Nil(t, raw.Debit)
	assert.True(t, amount.Equal(decimal.RequireFromString("12.5")))

	raw.AppendDescription("  VIR SEPA ")
	raw.AppendDescription("")
	raw.AppendDescription("JOHN DOE")
	assert.Equal(t, "VIR SEPA JOHN DOE", raw.Text())
}

func TestNewResult(t *testing.T) {
	empty := NewResult(nil, nil)
	assert.False(t, empty.Success)
	assert.NotNil(t, empty.Transactions)
	assert.NotNil(t, empty.Errors)

	partial := NewResult([]ParsedTransaction{{Date: "2025-01-01"}}, []string{"row 3: bad amount"})
	assert.True(t, partial.Success)
	assert.Len(t, partial.Errors, 1)

	failed := Failure(ErrEmptyInput)
	assert.False(t, failed.Success)
	assert.Equal(t, []string{ErrEmptyInput}, failed.Errors)
}
