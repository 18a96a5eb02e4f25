package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
	"github.com/FACorreiaa/statement-import/internal/domain/import/dedupe"
	importservice "github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/internal/domain/ledger"
	"github.com/FACorreiaa/statement-import/pkg/config"
	"github.com/FACorreiaa/statement-import/pkg/db"
	"github.com/FACorreiaa/statement-import/pkg/metrics"
	"github.com/FACorreiaa/statement-import/pkg/storage"
)

// Dependencies holds everything one importer run needs.
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Ledger      ledger.Ledger
	Archive     storage.Archive
	Metrics     *metrics.ImportMetrics
	Categorizer *categorization.Service

	ImportService *importservice.ImportService
}

// InitDependencies wires the ledger backend, the optional archive and
// metrics, and the import service.
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to init ledger: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("dependencies initialized",
		slog.String("ledger", cfg.Database.Backend),
		slog.Bool("archive", deps.Archive != nil),
		slog.Bool("metrics", deps.Metrics != nil))
	return deps, nil
}

func (d *Dependencies) initLedger(ctx context.Context) error {
	if d.Config.Database.Backend != config.LedgerPostgres {
		d.Ledger = ledger.NewMemory()
		return nil
	}

	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Ledger = ledger.NewPostgres(d.DB.Pool, d.Logger)
	d.Logger.Info("postgres ledger ready")
	return nil
}

func (d *Dependencies) initServices(ctx context.Context) error {
	if d.Config.Storage.ArchiveEnabled {
		archive, err := storage.NewLocalArchive(d.Config.Storage.LocalPath)
		if err != nil {
			return err
		}
		d.Archive = archive
	}

	if d.Config.Observability.MetricsEnabled {
		d.Metrics = metrics.New()
	}

	d.Categorizer = categorization.NewDefaultService(d.Logger)
	if d.DB != nil {
		n, err := d.Categorizer.LoadRules(ctx, categorization.NewRuleStore(d.DB.Pool))
		if err != nil {
			return fmt.Errorf("failed to load category rules: %w", err)
		}
		d.Logger.Debug("user category rules loaded", slog.Int("count", n))
	}

	d.ImportService = importservice.NewImportService(d.Ledger, d.Logger).
		WithCategoryMapper(d.Categorizer.Mapper()).
		WithMetrics(d.Metrics).
		WithDefaultCurrency(d.Config.Import.DefaultCurrency).
		WithPDFPassword(d.Config.Import.PDFPassword).
		WithDedupeOptions(dedupe.Options{IncludeProvider: d.Config.Import.FingerprintProvider})
	if d.Archive != nil {
		d.ImportService.WithArchive(d.Archive)
	}
	return nil
}

// Close records user rule hits, flushes the metrics textfile and releases
// the pool.
func (d *Dependencies) Close() {
	if d.DB != nil && d.Categorizer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		n, err := d.Categorizer.FlushMatches(ctx, categorization.NewRuleStore(d.DB.Pool))
		cancel()
		if err != nil {
			d.Logger.Warn("failed to record category rule matches", slog.Any("error", err))
		}
		d.Logger.Debug("category rule matches recorded", slog.Int("patterns", n))
	}
	if path := d.Config.Observability.MetricsTextfile; path != "" {
		if err := d.Metrics.WriteTextfile(path); err != nil {
			d.Logger.Warn("failed to write metrics textfile", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
