package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// Memory is a process-local ledger.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewMemory returns an empty ledger, optionally seeded.
func NewMemory(seed ...transaction.ParsedTransaction) *Memory {
	m := &Memory{now: time.Now}
	if len(seed) > 0 {
		_, _ = m.Append(context.Background(), Batch{ID: uuid.New(), Label: "seed", Transactions: seed})
	}
	return m
}

// Snapshot copies the stored transactions under the read lock, so an append
// running concurrently is either fully visible or not at all.
func (m *Memory) Snapshot(ctx context.Context) ([]transaction.ParsedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]transaction.ParsedTransaction, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.ParsedTransaction
	}
	return out, nil
}

// Append stores the batch.
func (m *Memory) Append(ctx context.Context, batch Batch) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(batch.Transactions) == 0 {
		return 0, nil
	}
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}

	categories := categorize(batch)
	created := m.now()
	entries := make([]Entry, len(batch.Transactions))
	for i, tx := range batch.Transactions {
		entries[i] = Entry{
			ID:                uuid.New(),
			BatchID:           batch.ID,
			Label:             batch.Label,
			Category:          categories[i],
			Created:           created,
			ParsedTransaction: tx,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return len(entries), nil
}

// Entries returns a copy of everything stored.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry(nil), m.entries...)
}

// Len reports the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
