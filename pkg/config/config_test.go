package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("IMPORT_DEFAULT_CURRENCY", "")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("POSTGRES_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.Import.DefaultCurrency)
	assert.Equal(t, LedgerMemory, cfg.Database.Backend)
	assert.Equal(t, slog.LevelInfo, cfg.Observability.LogLevel)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("IMPORT_DEFAULT_CURRENCY", "usd")
	t.Setenv("IMPORT_FINGERPRINT_PROVIDER", "true")
	t.Setenv("LEDGER_BACKEND", "Postgres")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POSTGRES_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Import.DefaultCurrency)
	assert.True(t, cfg.Import.FingerprintProvider)
	assert.Equal(t, LedgerPostgres, cfg.Database.Backend)
	assert.Equal(t, slog.LevelDebug, cfg.Observability.LogLevel)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unsupported currency", map[string]string{"IMPORT_DEFAULT_CURRENCY": "BRL"}, "IMPORT_DEFAULT_CURRENCY"},
		{"unknown backend", map[string]string{"LEDGER_BACKEND": "sqlite"}, "LEDGER_BACKEND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("IMPORT_DEFAULT_CURRENCY", "")
			t.Setenv("LEDGER_BACKEND", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "statements", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=statements sslmode=disable", c.DSN())
}
