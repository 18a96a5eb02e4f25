package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/pkg/storage"
)

// ErrNoArchive is returned by Replay when the service stores no uploads.
var ErrNoArchive = errors.New("no archive configured")

// Replay imports the documents archived under batchID again, oldest first.
// Nothing is archived twice. Rows already in the ledger come back as
// duplicates, so only rows the current parsers newly read are appended.
func (s *ImportService) Replay(ctx context.Context, batchID uuid.UUID, opts ImportOptions) (*BundleResult, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}

	files, err := s.archive.List(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch %s: %w", batchID, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: batch %s", storage.ErrNotFound, batchID)
	}

	out := &BundleResult{Files: make([]FileResult, 0, len(files))}
	var seen []transaction.ParsedTransaction
	for _, info := range files {
		res, err := s.replayFile(ctx, batchID, info, opts, seen)
		if out.add(info.Name, res, err) {
			seen = append(seen, res.Transactions...)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return out, nil
}

func (s *ImportService) replayFile(ctx context.Context, batchID uuid.UUID, info *storage.FileInfo, opts ImportOptions, seen []transaction.ParsedTransaction) (*ImportResult, error) {
	rc, _, err := s.archive.Open(ctx, batchID, info.ID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", info.Name, err)
	}

	opts.archived = info
	if opts.Label == "" {
		opts.Label = info.Name
	}

	switch sourceOf(info.ContentType) {
	case SourceText:
		return s.importText(ctx, SourceText, data, string(data), opts, seen)
	case SourceCSV:
		return s.importText(ctx, SourceCSV, data, sniffer.NormalizeBytes(data), opts, seen)
	case SourceXLSX:
		return s.importSpreadsheet(ctx, data, opts, seen)
	case SourcePDF:
		return s.importPDF(ctx, data, opts, seen)
	default:
		return nil, fmt.Errorf("%s: unsupported content type %q", info.Name, info.ContentType)
	}
}

func sourceOf(contentType string) string {
	for source, ct := range contentTypes {
		if ct == contentType {
			return source
		}
	}
	return ""
}
