package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/pdftable"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// File is one named document of a bundle.
type File struct {
	Name string
	Data []byte
}

// FileResult is the outcome for one file of a bundle. Error is set when the
// file could not be imported at all.
type FileResult struct {
	Name   string        `json:"name"`
	Result *ImportResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BundleResult aggregates a multi-file import.
type BundleResult struct {
	Files      []FileResult `json:"files"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Unique     int          `json:"unique"`
	Duplicates int          `json:"duplicates"`
}

// ImportPDF imports one PDF statement. Table layouts (BPI, Boursorama) are
// tried first; otherwise the extracted rows go through the text parsers.
func (s *ImportService) ImportPDF(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	return s.importPDF(ctx, data, opts, nil)
}

func (s *ImportService) importPDF(ctx context.Context, data []byte, opts ImportOptions, seen []transaction.ParsedTransaction) (*ImportResult, error) {
	return s.importDocument(ctx, SourcePDF, data, opts, seen, func(ctx context.Context, currency string) (transaction.Provider, transaction.Result) {
		if len(data) == 0 {
			return opts.Provider, transaction.Failure(transaction.ErrEmptyInput)
		}

		_, span := s.tracer.Start(ctx, "import.extract")
		doc, err := pdftable.Extract(data, s.pdfPassword)
		if err != nil {
			fail(span, err)
			span.End()
			return opts.Provider, transaction.Failure(err.Error())
		}
		span.End()

		return s.parseDocument(ctx, doc, opts.Provider, currency)
	})
}

func (s *ImportService) parseDocument(ctx context.Context, doc *pdftable.Document, provider transaction.Provider, currency string) (transaction.Provider, transaction.Result) {
	useTable := false
	if provider != "" {
		_, useTable = s.pdf.Lookup(provider)
	} else {
		_, err := s.pdf.Detect(doc)
		useTable = err == nil
	}
	if useTable {
		return parseWith(ctx, s, s.pdf, doc, provider, currency)
	}

	// row-oriented exports: one reconstructed line per table row
	p, res := parseWith(ctx, s, s.text, doc.Text(), provider, currency)
	res.Errors = append(res.Errors, doc.Errors...)
	return p, res
}

// ImportPDFBundle imports files one after another. A file that fails does not
// stop the others; later files are deduped against earlier ones even in a
// dry run.
func (s *ImportService) ImportPDFBundle(ctx context.Context, files []File, opts ImportOptions) *BundleResult {
	out := &BundleResult{Files: make([]FileResult, 0, len(files))}
	var seen []transaction.ParsedTransaction

	for _, f := range files {
		fileOpts := opts
		fileOpts.Label = bundleLabel(opts.Label, f.Name)

		res, err := s.importPDF(ctx, f.Data, fileOpts, seen)
		if out.add(f.Name, res, err) {
			seen = append(seen, res.Transactions...)
		}
	}
	return out
}

// add records one file's outcome and reports whether it succeeded.
func (b *BundleResult) add(name string, res *ImportResult, err error) bool {
	fr := FileResult{Name: name}
	ok := false
	switch {
	case err != nil:
		fr.Error = err.Error()
		b.Failed++
	case !res.Success:
		fr.Result = res
		fr.Error = strings.Join(res.Errors, "; ")
		b.Failed++
	default:
		fr.Result = res
		b.Succeeded++
		b.Unique += len(res.Transactions)
		b.Duplicates += len(res.Duplicates)
		ok = true
	}
	b.Files = append(b.Files, fr)
	return ok
}

// ImportPDFArchive imports every PDF inside a zip archive. A corrupt archive
// is returned as an error; unreadable entries are per-file failures.
func (s *ImportService) ImportPDFArchive(ctx context.Context, data []byte, opts ImportOptions) (*BundleResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var (
		files  []File
		broken []FileResult
	)
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasPrefix(zf.Name, "__MACOSX/") ||
			!strings.EqualFold(path.Ext(zf.Name), ".pdf") {
			continue
		}
		body, err := readZipFile(zf)
		if err != nil {
			broken = append(broken, FileResult{Name: zf.Name, Error: err.Error()})
			continue
		}
		files = append(files, File{Name: zf.Name, Data: body})
	}

	out := s.ImportPDFBundle(ctx, files, opts)
	out.Files = append(out.Files, broken...)
	out.Failed += len(broken)
	return out, nil
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", zf.Name, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", zf.Name, err)
	}
	return body, nil
}

func bundleLabel(label, name string) string {
	if label == "" {
		return name
	}
	return label + "/" + name
}
