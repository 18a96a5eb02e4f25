// Package service provides the import orchestration logic: detect the
// provider, parse, drop duplicates against a ledger snapshot, and hand the
// survivors to the ledger.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-import/internal/domain/import/dedupe"
	"github.com/FACorreiaa/statement-import/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-import/internal/domain/import/pdftable"
	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/internal/domain/ledger"
	"github.com/FACorreiaa/statement-import/pkg/metrics"
	"github.com/FACorreiaa/statement-import/pkg/money"
	"github.com/FACorreiaa/statement-import/pkg/storage"
)

// ErrUnsupportedCurrency is returned for a default currency outside the
// supported set.
var ErrUnsupportedCurrency = errors.New("unsupported default currency")

// Source kinds, used as archive content types and metric labels.
const (
	SourceText = "text"
	SourceCSV  = "csv"
	SourceXLSX = "xlsx"
	SourcePDF  = "pdf"
)

var contentTypes = map[string]string{
	SourceText: "text/plain",
	SourceCSV:  "text/csv",
	SourceXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	SourcePDF:  "application/pdf",
}

// ImportOptions allows callers to override detection and defaults.
type ImportOptions struct {
	Provider        transaction.Provider // skips detection when set
	Label           string               // source label recorded with the batch
	DefaultCurrency string
	DryRun          bool // parse and dedupe only

	archived *storage.FileInfo // set on replay; the document is not stored again
}

// ImportResult is the outcome of importing one document. The embedded Result
// carries the unique transactions; Success still reports whether parsing
// produced anything, so an all-duplicate re-import is a success with no
// transactions.
type ImportResult struct {
	BatchID  uuid.UUID            `json:"batchId"`
	Label    string               `json:"label"`
	Provider transaction.Provider `json:"provider,omitempty"`
	transaction.Result
	Duplicates []transaction.ParsedTransaction `json:"duplicates"`
	Appended   int                             `json:"appended"`
	DryRun     bool                            `json:"dryRun,omitempty"`
	Archive    *storage.FileInfo               `json:"archive,omitempty"`
}

// ImportService orchestrates statement imports against a ledger.
type ImportService struct {
	ledger      ledger.Ledger
	text        *parser.Registry[string]
	pdf         *parser.Registry[*pdftable.Document]
	mapper      ledger.CategoryMapper
	archive     storage.Archive
	metrics     *metrics.ImportMetrics
	dedupeOpts  dedupe.Options
	currency    string
	pdfPassword string
	logger      *slog.Logger
	tracer      trace.Tracer

	// held from snapshot to append so two imports never dedupe against the
	// same stale view
	mu sync.Mutex
}

// NewImportService creates an import service with the default parser sets.
func NewImportService(l ledger.Ledger, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if l == nil {
		l = ledger.NewMemory()
	}
	return &ImportService{
		ledger:   l,
		text:     parser.NewRegistry(parser.DefaultParsers(logger)...),
		pdf:      parser.NewRegistry(pdfDetectors(pdftable.DefaultParsers(logger))...),
		currency: money.EUR,
		logger:   logger,
		tracer:   otel.Tracer("github.com/FACorreiaa/statement-import/internal/domain/import/service"),
	}
}

func pdfDetectors(ps []*pdftable.StatementParser) []parser.Detector[*pdftable.Document] {
	out := make([]parser.Detector[*pdftable.Document], len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// WithTextParsers replaces the text parsers, in detection order.
func (s *ImportService) WithTextParsers(ps ...parser.Parser) *ImportService {
	s.text = parser.NewRegistry(ps...)
	return s
}

// WithPDFParsers replaces the PDF statement parsers, in detection order.
func (s *ImportService) WithPDFParsers(ps ...parser.Detector[*pdftable.Document]) *ImportService {
	s.pdf = parser.NewRegistry(ps...)
	return s
}

// WithCategoryMapper sets the mapper handed to the ledger with each batch.
func (s *ImportService) WithCategoryMapper(m ledger.CategoryMapper) *ImportService {
	s.mapper = m
	return s
}

// WithArchive stores every uploaded document before it is parsed.
func (s *ImportService) WithArchive(a storage.Archive) *ImportService {
	s.archive = a
	return s
}

// WithMetrics records per-document counters.
func (s *ImportService) WithMetrics(m *metrics.ImportMetrics) *ImportService {
	s.metrics = m
	return s
}

// WithDedupeOptions tunes the duplicate fingerprint.
func (s *ImportService) WithDedupeOptions(opts dedupe.Options) *ImportService {
	s.dedupeOpts = opts
	return s
}

// WithDefaultCurrency sets the currency used when a row carries none.
func (s *ImportService) WithDefaultCurrency(code string) *ImportService {
	s.currency = money.NormalizeCode(code)
	return s
}

// WithPDFPassword sets the password tried once on encrypted PDFs.
func (s *ImportService) WithPDFPassword(password string) *ImportService {
	s.pdfPassword = password
	return s
}

// ImportText imports pasted statement text.
func (s *ImportService) ImportText(ctx context.Context, content string, opts ImportOptions) (*ImportResult, error) {
	return s.importText(ctx, SourceText, []byte(content), content, opts, nil)
}

// ImportCSV imports a CSV export. The bytes are BOM-stripped and decoded to
// UTF-8 before detection.
func (s *ImportService) ImportCSV(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	return s.importText(ctx, SourceCSV, data, sniffer.NormalizeBytes(data), opts, nil)
}

// ImportSpreadsheet imports an XLSX export of one of the CSV providers.
func (s *ImportService) ImportSpreadsheet(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	return s.importSpreadsheet(ctx, data, opts, nil)
}

func (s *ImportService) importSpreadsheet(ctx context.Context, data []byte, opts ImportOptions, seen []transaction.ParsedTransaction) (*ImportResult, error) {
	content, convErr := parser.SpreadsheetToCSV(bytes.NewReader(data))
	if convErr != nil {
		return s.importDocument(ctx, SourceXLSX, data, opts, seen, func(context.Context, string) (transaction.Provider, transaction.Result) {
			return opts.Provider, transaction.Failure(fmt.Sprintf("unreadable spreadsheet: %v", convErr))
		})
	}
	return s.importText(ctx, SourceXLSX, data, content, opts, seen)
}

func (s *ImportService) importText(ctx context.Context, source string, raw []byte, content string, opts ImportOptions, seen []transaction.ParsedTransaction) (*ImportResult, error) {
	return s.importDocument(ctx, source, raw, opts, seen, func(ctx context.Context, currency string) (transaction.Provider, transaction.Result) {
		if strings.TrimSpace(content) == "" {
			return opts.Provider, transaction.Failure(transaction.ErrEmptyInput)
		}
		return parseWith(ctx, s, s.text, content, opts.Provider, currency)
	})
}
