package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

const isoDate = "2006-01-02"

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var snapshotTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

var transactionColumns = []string{
	"id", "batch_id", "txn_date", "description", "amount_minor", "currency",
	"merchant_name", "card_last_four", "is_credit", "provider", "category",
	"source_label", "original_line",
}

// Postgres stores the ledger in the ledger_transactions table. Amounts are
// kept in minor units.
type Postgres struct {
	db     DB
	logger *slog.Logger
}

// NewPostgres creates a new Postgres ledger repository.
func NewPostgres(db DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{db: db, logger: logger}
}

// Snapshot reads every transaction inside one repeatable-read transaction.
func (p *Postgres) Snapshot(ctx context.Context) ([]transaction.ParsedTransaction, error) {
	tx, err := p.db.BeginTx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		SELECT txn_date, description, amount_minor, currency,
			COALESCE(merchant_name, ''), COALESCE(card_last_four, ''),
			is_credit, provider
		FROM ledger_transactions
		ORDER BY txn_date, created_at
	`
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []transaction.ParsedTransaction
	for rows.Next() {
		var (
			date     time.Time
			minor    int64
			provider string
			t        transaction.ParsedTransaction
		)
		if err := rows.Scan(&date, &t.Description, &minor, &t.Currency,
			&t.MerchantName, &t.CardLastFour, &t.IsCredit, &provider); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		t.Date = date.Format(isoDate)
		t.Amount = money.New(minor, t.Currency).ToFloat64()
		t.Provider = transaction.Provider(provider)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return out, nil
}

// Append writes the batch header and its rows in a single transaction.
func (p *Postgres) Append(ctx context.Context, batch Batch) (n int, err error) {
	if len(batch.Transactions) == 0 {
		return 0, nil
	}
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}

	rows, err := p.rows(batch)
	if err != nil {
		return 0, err
	}

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO import_batches (id, label, provider, row_count) VALUES ($1, $2, $3, $4)`,
		batch.ID, batch.Label, string(batch.Provider), len(rows))
	if err != nil {
		return 0, fmt.Errorf("insert import batch: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"ledger_transactions"}, transactionColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy ledger rows: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}

	p.logger.Info("ledger batch appended",
		slog.String("batch_id", batch.ID.String()),
		slog.String("provider", string(batch.Provider)),
		slog.Int64("rows", copied))
	return int(copied), nil
}

func (p *Postgres) rows(batch Batch) ([][]any, error) {
	categories := categorize(batch)
	rows := make([][]any, 0, len(batch.Transactions))
	for i, t := range batch.Transactions {
		date, err := time.Parse(isoDate, t.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: invalid date %q: %w", i+1, t.Date, err)
		}
		amount, err := money.NewFromFloat(t.Amount, t.Currency)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}

		provider := t.Provider
		if provider == "" {
			provider = batch.Provider
		}
		rows = append(rows, []any{
			uuid.New(), batch.ID, date, t.Description, amount.Amount(), amount.Currency(),
			nullable(t.MerchantName), nullable(t.CardLastFour), t.IsCredit, string(provider),
			nullable(categories[i]), batch.Label, nullable(t.OriginalLine),
		})
	}
	return rows, nil
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
