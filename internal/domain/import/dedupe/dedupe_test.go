package dedupe

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

func generateBatch(t *testing.T, seed int64, n int) []transaction.ParsedTransaction {
	t.Helper()
	gen := money.NewTestDataGeneratorWithSeed(seed)

	lines := gen.StatementLines(money.EUR, n)
	txs := make([]transaction.ParsedTransaction, len(lines))
	for i, l := range lines {
		txs[i] = transaction.ParsedTransaction{
			Date:         l.Date,
			Description:  l.Description,
			Amount:       l.Amount.ToFloat64(),
			Currency:     l.Amount.Currency(),
			MerchantName: l.Merchant,
			IsCredit:     l.IsCredit,
			Provider:     transaction.ProviderBourso,
		}
	}
	return txs
}

func fingerprints(txs []transaction.ParsedTransaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = Fingerprint(tx, Options{})
	}
	sort.Strings(out)
	return out
}

func TestFingerprint(t *testing.T) {
	base := transaction.ParsedTransaction{Date: "2025-09-02", Description: "Paypal", Amount: 13.9, Provider: transaction.ProviderBourso}

	assert.Equal(t, "2025-09-02|paypal|13.90", Fingerprint(base, Options{}))
	assert.Equal(t, "2025-09-02|paypal|13.90|bourso", Fingerprint(base, Options{IncludeProvider: true}))

	withMerchant := base
	withMerchant.Description = "CARTE 30/08/25 PAYPAL CB*8897"
	withMerchant.MerchantName = `"PayPal"`
	assert.Equal(t, Fingerprint(base, Options{}), Fingerprint(withMerchant, Options{}))

	otherAmount := base
	otherAmount.Amount = 13.91
	assert.NotEqual(t, Fingerprint(base, Options{}), Fingerprint(otherAmount, Options{}))
}

func TestDedupe(t *testing.T) {
	t.Run("trivial text variants collide with the ledger", func(t *testing.T) {
		existing := []transaction.ParsedTransaction{{Date: "2025-09-02", Description: "Paypal", Amount: 13.90}}
		candidates := []transaction.ParsedTransaction{{Date: "2025-09-02", Description: "PayPal  ", Amount: 13.90}}

		res := Dedupe(candidates, existing, Options{})
		assert.Empty(t, res.Unique)
		assert.Len(t, res.Duplicates, 1)
	})

	t.Run("repeats inside a batch", func(t *testing.T) {
		tx := transaction.ParsedTransaction{Date: "2025-09-03", Description: "LIDL", Amount: 4.2}
		res := Dedupe([]transaction.ParsedTransaction{tx, tx, tx}, nil, Options{})
		assert.Len(t, res.Unique, 1)
		assert.Len(t, res.Duplicates, 2)
	})

	t.Run("provider separates otherwise equal rows when asked", func(t *testing.T) {
		a := transaction.ParsedTransaction{Date: "2025-09-03", Description: "LIDL", Amount: 4.2, Provider: transaction.ProviderBourso}
		b := a
		b.Provider = transaction.ProviderGnosisPay

		assert.Len(t, Dedupe([]transaction.ParsedTransaction{a, b}, nil, Options{}).Unique, 1)
		assert.Len(t, Dedupe([]transaction.ParsedTransaction{a, b}, nil, Options{IncludeProvider: true}).Unique, 2)
	})

	t.Run("idempotent", func(t *testing.T) {
		batch := generateBatch(t, 42, 200)

		first := Dedupe(batch, nil, Options{})
		require.NotEmpty(t, first.Unique)

		second := Dedupe(batch, first.Unique, Options{})
		assert.Empty(t, second.Unique)
		assert.Len(t, second.Duplicates, len(batch))
	})

	t.Run("order independent", func(t *testing.T) {
		batch := generateBatch(t, 7, 150)
		batch = append(batch, batch[:30]...) // overlapping paste
		existing := generateBatch(t, 7, 20)

		want := Dedupe(batch, existing, Options{})

		rng := rand.New(rand.NewSource(99))
		for i := 0; i < 5; i++ {
			shuffled := append([]transaction.ParsedTransaction(nil), batch...)
			rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

			got := Dedupe(shuffled, existing, Options{})
			assert.Equal(t, fingerprints(want.Unique), fingerprints(got.Unique))
			assert.Equal(t, fingerprints(want.Duplicates), fingerprints(got.Duplicates))
		}
	})
}
