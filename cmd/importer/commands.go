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
	"syscall"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
	importservice "github.com/FACorreiaa/statement-import/internal/domain/import/service"
)

var errUsage = errors.New("usage")

// batchOutput is the JSON line printed for one replayed batch.
type batchOutput struct {
	Batch  string                      `json:"batch"`
	Bundle *importservice.BundleResult `json:"bundle,omitempty"`
	Error  string                      `json:"error,omitempty"`
}

func runReplay(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("importer replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	currency := fs.String("currency", "", "default currency for rows without one")
	dryRun := fs.Bool("dry-run", false, "parse and dedupe without writing to the ledger")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: importer replay [-currency EUR] [-dry-run] BATCH_ID...")
		return 2
	}

	batches := make([]uuid.UUID, fs.NArg())
	for i, arg := range fs.Args() {
		id, err := uuid.Parse(arg)
		if err != nil {
			fmt.Fprintf(stderr, "batch %q: %v\n", arg, err)
			return 2
		}
		batches[i] = id
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, code := startup(ctx, stderr)
	if deps == nil {
		return code
	}
	defer deps.Close()

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	opts := importservice.ImportOptions{DefaultCurrency: *currency, DryRun: *dryRun}
	var summary Summary
	for _, id := range batches {
		out := batchOutput{Batch: id.String()}
		bundle, err := deps.ImportService.Replay(ctx, id, opts)
		if err != nil {
			out.Error = err.Error()
			summary.Files++
			summary.Failed++
		} else {
			out.Bundle = bundle
			summary.addBundle(bundle)
		}
		if err := enc.Encode(out); err != nil {
			deps.Logger.Error("failed to write result", slog.Any("error", err))
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

func runRules(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, rulesUsage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, code := startup(ctx, stderr)
	if deps == nil {
		return code
	}
	defer deps.Close()

	if deps.DB == nil {
		fmt.Fprintln(stderr, "rules: category rules are stored in Postgres; set LEDGER_BACKEND=postgres")
		return 1
	}

	err := rulesCommand(ctx, categorization.NewRuleStore(deps.DB.Pool), args, stdout)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, rulesUsage)
		return 2
	case err != nil:
		fmt.Fprintf(stderr, "rules: %v\n", err)
		return 1
	}
	return 0
}

const rulesUsage = "usage: importer rules list | add [-priority n] PATTERN CATEGORY [NAME] | delete PATTERN"

// ruleStore is the part of categorization.RuleStore the rules command uses.
type ruleStore interface {
	Save(ctx context.Context, rule categorization.Rule) (*categorization.StoredRule, error)
	List(ctx context.Context) ([]categorization.Rule, error)
	Delete(ctx context.Context, pattern string) error
}

// rulesCommand runs one rules subcommand and prints its result as JSON.
func rulesCommand(ctx context.Context, store ruleStore, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	switch args[0] {
	case "list":
		rules, err := store.List(ctx)
		if err != nil {
			return err
		}
		if rules == nil {
			rules = []categorization.Rule{}
		}
		return enc.Encode(rules)

	case "add":
		fs := flag.NewFlagSet("importer rules add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		priority := fs.Int("priority", 0, "priority among user rules")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		if fs.NArg() < 2 || fs.NArg() > 3 {
			return errUsage
		}
		rule := categorization.Rule{Pattern: fs.Arg(0), Category: fs.Arg(1), Priority: *priority}
		if fs.NArg() == 3 {
			rule.CleanName = fs.Arg(2)
		}
		saved, err := store.Save(ctx, rule)
		if err != nil {
			return err
		}
		return enc.Encode(saved)

	case "delete":
		if len(args) != 2 {
			return errUsage
		}
		if err := store.Delete(ctx, args[1]); err != nil {
			return err
		}
		return enc.Encode(map[string]string{"deleted": args[1]})

	default:
		return errUsage
	}
}
