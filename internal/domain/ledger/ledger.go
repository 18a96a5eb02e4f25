// Package ledger holds the transactions an import appends to, and the
// contract the importer uses to read and extend it.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// CategoryMapper resolves a merchant name or description to a category.
type CategoryMapper func(label string) (category string, ok bool)

// Batch is one import's worth of unique transactions.
type Batch struct {
	ID           uuid.UUID
	Label        string // source label, usually the file name
	Provider     transaction.Provider
	Transactions []transaction.ParsedTransaction
	Mapper       CategoryMapper // optional
}

// Entry is a stored transaction.
type Entry struct {
	ID       uuid.UUID
	BatchID  uuid.UUID
	Label    string
	Category string
	Created  time.Time
	transaction.ParsedTransaction
}

// Reader returns a consistent view of every stored transaction.
type Reader interface {
	Snapshot(ctx context.Context) ([]transaction.ParsedTransaction, error)
}

// Appender stores a batch atomically and returns how many rows were written.
type Appender interface {
	Append(ctx context.Context, batch Batch) (int, error)
}

// Ledger is both halves of the contract.
type Ledger interface {
	Reader
	Appender
}

// categoryLabel is the text handed to the mapper.
func categoryLabel(tx transaction.ParsedTransaction) string {
	if s := strings.TrimSpace(tx.MerchantName); s != "" {
		return s
	}
	return tx.Description
}

// categorize calls the mapper once per transaction, in order.
func categorize(batch Batch) []string {
	out := make([]string, len(batch.Transactions))
	if batch.Mapper == nil {
		return out
	}
	for i, tx := range batch.Transactions {
		if c, ok := batch.Mapper(categoryLabel(tx)); ok {
			out[i] = c
		}
	}
	return out
}
