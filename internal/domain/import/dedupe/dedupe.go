// Package dedupe drops transactions that are already in the ledger or that
// repeat inside one import batch.
package dedupe

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// Options tunes the fingerprint.
type Options struct {
	// IncludeProvider keeps identical operations from different providers
	// apart, e.g. the same card payment seen on a bank and a card export.
	IncludeProvider bool
}

// Result partitions the candidates of one batch.
type Result struct {
	Unique     []transaction.ParsedTransaction
	Duplicates []transaction.ParsedTransaction
}

// Fingerprint is date|merchant-or-description|amount[|provider]. The label
// goes through normalizer.NormalizeKey so case, whitespace and quote
// variants of one transaction collide.
func Fingerprint(tx transaction.ParsedTransaction, opts Options) string {
	label := tx.MerchantName
	if strings.TrimSpace(label) == "" {
		label = tx.Description
	}

	parts := []string{
		tx.Date,
		normalizer.NormalizeKey(label),
		decimal.NewFromFloat(tx.Amount).Abs().StringFixed(2),
	}
	if opts.IncludeProvider {
		parts = append(parts, string(tx.Provider))
	}
	return strings.Join(parts, "|")
}

// Dedupe classifies candidates against the existing ledger. Accepted
// candidates join the seen set immediately, so repeats inside the batch are
// duplicates too.
func Dedupe(candidates, existing []transaction.ParsedTransaction, opts Options) Result {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, tx := range existing {
		seen[Fingerprint(tx, opts)] = struct{}{}
	}

	res := Result{
		Unique:     make([]transaction.ParsedTransaction, 0, len(candidates)),
		Duplicates: []transaction.ParsedTransaction{},
	}
	for _, tx := range candidates {
		key := Fingerprint(tx, opts)
		if _, dup := seen[key]; dup {
			res.Duplicates = append(res.Duplicates, tx)
			continue
		}
		seen[key] = struct{}{}
		res.Unique = append(res.Unique, tx)
	}
	return res
}
