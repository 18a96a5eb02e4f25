// Command importer parses bank and broker statements and appends the new
// transactions to the configured ledger.
//
//	importer [-provider p] [-currency EUR] [-label l] [-dry-run] FILE...
//	importer replay [-currency EUR] [-dry-run] BATCH_ID...
//	importer rules list | add [-priority n] PATTERN CATEGORY [NAME] | delete PATTERN
//
// The input kind is chosen by extension: .txt, .csv, .xlsx, .pdf or a .zip of
// PDFs. One JSON result is printed per file, followed by a summary. replay
// re-imports archived uploads; rules manages the category rules kept in
// Postgres.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	importservice "github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/pkg/config"
)

var errUnsupportedFile = errors.New("unsupported file type")

// Summary totals every file of a run.
type Summary struct {
	Files      int `json:"files"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Unique     int `json:"unique"`
	Duplicates int `json:"duplicates"`
	Appended   int `json:"appended"`
}

func (s *Summary) addResult(res *importservice.ImportResult) {
	s.Files++
	if !res.Success {
		s.Failed++
		return
	}
	s.Succeeded++
	s.Unique += len(res.Transactions)
	s.Duplicates += len(res.Duplicates)
	s.Appended += res.Appended
}

func (s *Summary) addBundle(b *importservice.BundleResult) {
	s.Files += len(b.Files)
	s.Succeeded += b.Succeeded
	s.Failed += b.Failed
	s.Unique += b.Unique
	s.Duplicates += b.Duplicates
	for _, f := range b.Files {
		if f.Result != nil && f.Error == "" {
			s.Appended += f.Result.Appended
		}
	}
}

// fileOutput is the JSON line printed for one input file.
type fileOutput struct {
	File   string                      `json:"file"`
	Result *importservice.ImportResult `json:"result,omitempty"`
	Bundle *importservice.BundleResult `json:"bundle,omitempty"`
	Error  string                      `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "replay":
			return runReplay(args[1:], stdout, stderr)
		case "rules":
			return runRules(args[1:], stdout, stderr)
		}
	}
	return runImport(args, stdout, stderr)
}

func runImport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	provider := fs.String("provider", "", "skip detection and use this provider")
	currency := fs.String("currency", "", "default currency for rows without one")
	label := fs.String("label", "", "source label recorded with each batch (defaults to the file name)")
	dryRun := fs.Bool("dry-run", false, "parse and dedupe without writing to the ledger")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: importer [-provider p] [-currency EUR] [-label l] [-dry-run] FILE...")
		return 2
	}

	opts := importservice.ImportOptions{DefaultCurrency: *currency, DryRun: *dryRun}
	if *provider != "" {
		p, err := transaction.ParseProvider(*provider)
		if err != nil {
			fmt.Fprintf(stderr, "provider: %v\n", err)
			return 2
		}
		opts.Provider = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, code := startup(ctx, stderr)
	if deps == nil {
		return code
	}
	defer deps.Close()
	logger := deps.Logger

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	var summary Summary
	for _, path := range fs.Args() {
		fileOpts := opts
		fileOpts.Label = *label
		if fileOpts.Label == "" {
			fileOpts.Label = filepath.Base(path)
		}

		out := importFile(ctx, deps.ImportService, path, fileOpts)
		switch {
		case out.Result != nil:
			summary.addResult(out.Result)
		case out.Bundle != nil:
			summary.addBundle(out.Bundle)
		default:
			summary.Files++
			summary.Failed++
		}
		if err := enc.Encode(out); err != nil {
			logger.Error("failed to write result", slog.Any("error", err))
			return 1
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err := enc.Encode(map[string]Summary{"summary": summary}); err != nil {
		return 1
	}
	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// startup loads the configuration, installs the JSON logger and wires the
// dependencies. On failure it returns a nil Dependencies and the exit code.
func startup(ctx context.Context, stderr io.Writer) (*Dependencies, int) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return nil, 1
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.Observability.LogLevel}))
	slog.SetDefault(logger)

	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", slog.Any("error", err))
		return nil, 1
	}
	return deps, 0
}

// importFile reads path and dispatches it on its extension.
func importFile(ctx context.Context, svc *importservice.ImportService, path string, opts importservice.ImportOptions) fileOutput {
	out := fileOutput{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", "":
		out.Result, err = svc.ImportText(ctx, string(data), opts)
	case ".csv":
		out.Result, err = svc.ImportCSV(ctx, data, opts)
	case ".xlsx":
		out.Result, err = svc.ImportSpreadsheet(ctx, data, opts)
	case ".pdf":
		out.Result, err = svc.ImportPDF(ctx, data, opts)
	case ".zip":
		out.Bundle, err = svc.ImportPDFArchive(ctx, data, opts)
	default:
		err = fmt.Errorf("%w: %q", errUnsupportedFile, ext)
	}
	if err != nil {
		out.Result, out.Bundle = nil, nil
		out.Error = err.Error()
	}
	return out
}
