package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConfig(t *testing.T) {
	t.Run("comma separated card export", func(t *testing.T) {
		content := "created_at,clearing_date,merchant_name,kind,status,transaction_amount,transaction_currency\n" +
			"2025-09-02T10:00:00Z,2025-09-03,LIDL,Payment,Approved,13.48,EUR\n"

		cfg, err := DetectConfig(content)
		require.NoError(t, err)
		assert.Equal(t, ',', cfg.Delimiter)
		assert.Equal(t, 0, cfg.SkipLines)
		assert.True(t, cfg.Has("clearing_date", "transaction_amount"))
		assert.Equal(t, []string{"billing_amount"}, cfg.Missing("status", "billing_amount"))
		assert.Len(t, cfg.Fingerprint, 64)
	})

	t.Run("semicolon export with preamble and display headers", func(t *testing.T) {
		content := "Export generated 2025-09-30\n" +
			"\n" +
			"Date;Merchant;Category;Type;Status;Amount;Currency;Billing Amount;Billing Currency;Card\n" +
			"2025-09-02;Starbucks;Food;Purchase;Cleared;4,50;EUR;4,50;EUR;1234\n"

		cfg, err := DetectConfig(content)
		require.NoError(t, err)
		assert.Equal(t, ';', cfg.Delimiter)
		assert.Equal(t, 2, cfg.SkipLines)
		assert.Equal(t, "Billing Amount", cfg.Headers[7])
		assert.Equal(t, "billing_amount", cfg.Keys[7])
		assert.Equal(t, 7, cfg.Index()["billing_amount"])
	})

	t.Run("fingerprint ignores label formatting", func(t *testing.T) {
		a, err := DetectConfig("Date,Billing Amount\n2025-01-01,1\n")
		require.NoError(t, err)
		b, err := DetectConfig("date;billing-amount\n2025-01-01;1\n")
		require.NoError(t, err)
		assert.Equal(t, a.Fingerprint, b.Fingerprint)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := DetectConfig("  \n ")
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("single column text has no header", func(t *testing.T) {
		_, err := DetectConfig("02/09/2025 CARTE PAYPAL\n13 90\n")
		assert.ErrorIs(t, err, ErrNoHeadersFound)
	})
}

func TestFileConfig_NewReader(t *testing.T) {
	content := "Statement\n\uFEFFdate;amount\n2025-09-02; 4.50\n"
	cfg, err := DetectConfig(content)
	require.NoError(t, err)

	records, err := cfg.NewReader(content).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"date", "amount"}, {"2025-09-02", "4.50"}}, records)
}

func TestNormalizeBytes(t *testing.T) {
	t.Run("strips BOM", func(t *testing.T) {
		assert.Equal(t, "date,amount", NormalizeBytes([]byte("\xEF\xBB\xBFdate,amount")))
	})

	t.Run("decodes windows-1252", func(t *testing.T) {
		// "Libellé;Débit €" in cp1252
		raw := []byte{'L', 'i', 'b', 'e', 'l', 'l', 0xE9, ';', 'D', 0xE9, 'b', 'i', 't', ' ', 0x80}
		assert.Equal(t, "Libellé;Débit €", NormalizeBytes(raw))
	})

	t.Run("keeps valid UTF-8", func(t *testing.T) {
		assert.Equal(t, "Crédit", NormalizeBytes([]byte("Crédit")))
	})
}
