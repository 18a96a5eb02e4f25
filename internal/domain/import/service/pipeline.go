package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-import/internal/domain/import/dedupe"
	"github.com/FACorreiaa/statement-import/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/internal/domain/ledger"
	"github.com/FACorreiaa/statement-import/pkg/metrics"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

// parseFunc parses one document with the resolved default currency.
type parseFunc func(ctx context.Context, currency string) (transaction.Provider, transaction.Result)

// importDocument runs archive, parse, dedupe and append for one document.
// seen holds transactions accepted earlier in the same bundle.
func (s *ImportService) importDocument(ctx context.Context, source string, raw []byte, opts ImportOptions, seen []transaction.ParsedTransaction, parse parseFunc) (*ImportResult, error) {
	start := time.Now()

	currency := s.currency
	if opts.DefaultCurrency != "" {
		currency = money.NormalizeCode(opts.DefaultCurrency)
	}
	if !money.IsSupported(currency) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	ctx, span := s.tracer.Start(ctx, "import.document", trace.WithAttributes(
		attribute.String("source", source),
		attribute.String("label", opts.Label),
		attribute.Bool("dry_run", opts.DryRun),
	))
	defer span.End()

	res := &ImportResult{
		BatchID:    uuid.New(),
		Label:      opts.Label,
		Duplicates: []transaction.ParsedTransaction{},
		DryRun:     opts.DryRun,
	}

	switch {
	case opts.archived != nil:
		res.Archive = opts.archived
	case s.archive != nil:
		info, err := s.archive.Store(ctx, res.BatchID, archiveName(opts.Label, source), contentTypes[source], bytes.NewReader(raw))
		if err != nil {
			fail(span, err)
			return nil, fmt.Errorf("archive upload: %w", err)
		}
		res.Archive = info
	}

	res.Provider, res.Result = parse(ctx, currency)
	span.SetAttributes(attribute.String("provider", string(res.Provider)))

	if len(res.Transactions) > 0 {
		if err := s.commit(ctx, res, seen); err != nil {
			fail(span, err)
			return nil, err
		}
	}

	s.record(source, res, time.Since(start))
	return res, nil
}

// commit dedupes res against a ledger snapshot and appends the survivors.
// The lock spans both steps.
func (s *ImportService) commit(ctx context.Context, res *ImportResult, seen []transaction.ParsedTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dctx, span := s.tracer.Start(ctx, "import.dedupe")
	existing, err := s.ledger.Snapshot(dctx)
	if err != nil {
		fail(span, err)
		span.End()
		return fmt.Errorf("ledger snapshot: %w", err)
	}
	existing = append(existing, seen...)

	d := dedupe.Dedupe(res.Transactions, existing, s.dedupeOpts)
	span.SetAttributes(
		attribute.Int("unique", len(d.Unique)),
		attribute.Int("duplicates", len(d.Duplicates)),
	)
	span.End()

	res.Transactions = d.Unique
	res.Duplicates = d.Duplicates
	if res.DryRun || len(d.Unique) == 0 {
		return nil
	}

	actx, span := s.tracer.Start(ctx, "import.append")
	defer span.End()

	n, err := s.ledger.Append(actx, ledger.Batch{
		ID:           res.BatchID,
		Label:        res.Label,
		Provider:     res.Provider,
		Transactions: d.Unique,
		Mapper:       s.mapper,
	})
	if err != nil {
		fail(span, err)
		return fmt.Errorf("ledger append: %w", err)
	}
	res.Appended = n
	return nil
}

func (s *ImportService) record(source string, res *ImportResult, elapsed time.Duration) {
	outcome := metrics.OutcomeSuccess
	switch {
	case !res.Success:
		outcome = metrics.OutcomeFailure
	case len(res.Transactions) == 0:
		outcome = metrics.OutcomeEmpty
	}

	s.metrics.Observe(metrics.Observation{
		Provider:   string(res.Provider),
		Source:     source,
		Outcome:    outcome,
		Unique:     len(res.Transactions),
		Duplicates: len(res.Duplicates),
		Errors:     len(res.Errors),
		Elapsed:    elapsed,
	})

	level := slog.LevelInfo
	if !res.Success {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "statement imported",
		slog.String("batch_id", res.BatchID.String()),
		slog.String("label", res.Label),
		slog.String("source", source),
		slog.String("provider", string(res.Provider)),
		slog.Int("unique", len(res.Transactions)),
		slog.Int("duplicates", len(res.Duplicates)),
		slog.Int("errors", len(res.Errors)),
		slog.Int("appended", res.Appended),
		slog.Bool("dry_run", res.DryRun),
		slog.Duration("elapsed", elapsed))
}

// parseWith picks a parser from reg, explicitly or by detection, and runs it.
// An unknown provider is reported once inside the result.
func parseWith[C any](ctx context.Context, s *ImportService, reg *parser.Registry[C], content C, provider transaction.Provider, currency string) (transaction.Provider, transaction.Result) {
	_, span := s.tracer.Start(ctx, "import.parse")
	defer span.End()

	p, err := pick(reg, content, provider)
	if err != nil {
		fail(span, err)
		return provider, transaction.Failure(err.Error())
	}
	span.SetAttributes(attribute.String("provider", string(p.Provider())))

	res := p.Parse(content, currency)
	span.SetAttributes(
		attribute.Int("transactions", len(res.Transactions)),
		attribute.Int("errors", len(res.Errors)),
	)
	return p.Provider(), res
}

func pick[C any](reg *parser.Registry[C], content C, provider transaction.Provider) (parser.Detector[C], error) {
	if provider == "" {
		return reg.Detect(content)
	}
	p, ok := reg.Lookup(provider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q: no parser registered for this input", provider)
	}
	return p, nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func archiveName(label, source string) string {
	if label != "" {
		return label
	}
	return "upload." + source
}
