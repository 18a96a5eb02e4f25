package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/FACorreiaa/statement-import/pkg/money"
)

// Ledger backends.
const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Import        ImportConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

type ImportConfig struct {
	DefaultCurrency     string
	FingerprintProvider bool
	PDFPassword         string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Backend  string
}

type StorageConfig struct {
	ArchiveEnabled bool
	LocalPath      string
}

type ObservabilityConfig struct {
	MetricsEnabled  bool
	MetricsTextfile string
	LogLevel        slog.Level
}

// Load reads configuration from environment variables. Variables already set
// in the environment win over a .env file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Import: ImportConfig{
			DefaultCurrency:     money.NormalizeCode(getEnv("IMPORT_DEFAULT_CURRENCY", money.EUR)),
			FingerprintProvider: getEnvAsBool("IMPORT_FINGERPRINT_PROVIDER", false),
			PDFPassword:         os.Getenv("IMPORT_PDF_PASSWORD"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "statements"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			Backend:  strings.ToLower(getEnv("LEDGER_BACKEND", LedgerMemory)),
		},
		Storage: StorageConfig{
			ArchiveEnabled: getEnvAsBool("ARCHIVE_ENABLED", false),
			LocalPath:      getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:  getEnvAsBool("METRICS_ENABLED", true),
			MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
			LogLevel:        getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		},
	}

	if !money.IsSupported(cfg.Import.DefaultCurrency) {
		return nil, fmt.Errorf("IMPORT_DEFAULT_CURRENCY %q is not supported (want one of %s)",
			cfg.Import.DefaultCurrency, strings.Join(money.Supported(), ", "))
	}

	switch cfg.Database.Backend {
	case LedgerMemory, LedgerPostgres:
	default:
		return nil, fmt.Errorf("LEDGER_BACKEND %q is not one of %s, %s",
			cfg.Database.Backend, LedgerMemory, LedgerPostgres)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(key))); err == nil {
		return level
	}
	return defaultValue
}
