package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

func newWorkbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestSpreadsheetToCSV(t *testing.T) {
	t.Run("gnosis export through detection", func(t *testing.T) {
		buf := newWorkbook(t, "Transactions", [][]any{
			{"created_at", "clearing_date", "merchant_name", "kind", "status", "transaction_amount", "transaction_currency"},
			{"2025-09-02", "2025-09-03", "LIDL", "Payment", "Approved", "13.48", "EUR"},
		})

		content, err := SpreadsheetToCSV(buf)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(content, "created_at,clearing_date"))

		p, err := NewRegistry(DefaultParsers(nil)...).Detect(content)
		require.NoError(t, err)
		assert.Equal(t, transaction.ProviderGnosisPay, p.Provider())

		res := p.Parse(content, "EUR")
		require.Len(t, res.Transactions, 1)
		assert.Equal(t, 13.48, res.Transactions[0].Amount)
	})

	t.Run("ragged rows are padded", func(t *testing.T) {
		buf := newWorkbook(t, "Sheet1", [][]any{
			{"date", "amount", "note"},
			{"2025-09-02", "1.00"},
		})

		content, err := SpreadsheetToCSV(buf)
		require.NoError(t, err)
		assert.Equal(t, "date,amount,note\n2025-09-02,1.00,\n", content)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := SpreadsheetToCSV(strings.NewReader("plain text"))
		assert.Error(t, err)
	})
}

func TestFindTransactionSheet(t *testing.T) {
	assert.Equal(t, "Movimentos", findTransactionSheet([]string{"Resumo", "Movimentos"}))
	assert.Equal(t, "Summary", findTransactionSheet([]string{"Summary", "Other"}))
	assert.Equal(t, "", findTransactionSheet(nil))
}
