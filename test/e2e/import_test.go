// Package e2etest runs whole import flows against an in-memory ledger.
package e2etest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
	"github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
	"github.com/FACorreiaa/statement-import/internal/domain/ledger"
)

// testDataDir holds optional real statements; tests over it skip when empty.
const testDataDir = "testdata"

const (
	gnosisCSV = "created_at,clearing_date,merchant_name,kind,status,transaction_amount,transaction_currency,billing_amount,billing_currency\n" +
		"2025-09-02T10:15:00Z,2025-09-03,LIDL,Payment,Approved,13.48,EUR,,\n" +
		"2025-09-05T19:40:00Z,2025-09-06,STARBUCKS,Payment,Approved,4.50,EUR,,\n"

	boursoText = "02/09/2025 CARTE 30/08/25 PAYPAL CB*8897\n13,90\n"
)

func newImporter(t *testing.T) (*service.ImportService, *ledger.Memory) {
	t.Helper()
	l := ledger.NewMemory()
	svc := service.NewImportService(l, nil).
		WithCategoryMapper(categorization.NewDefaultService(nil).Mapper())
	return svc, l
}

func gnosisWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, line := range strings.Split(strings.TrimSpace(gnosisCSV), "\n") {
		cells := strings.Split(line, ",")
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestGnosisPay_CSVThenSpreadsheet(t *testing.T) {
	ctx := context.Background()
	svc, l := newImporter(t)

	first, err := svc.ImportCSV(ctx, []byte(gnosisCSV), service.ImportOptions{Label: "gnosis.csv"})
	require.NoError(t, err)
	assert.Equal(t, transaction.ProviderGnosisPay, first.Provider)
	assert.Len(t, first.Transactions, 2)
	assert.Equal(t, 2, first.Appended)

	// the same export downloaded as a workbook adds nothing
	second, err := svc.ImportSpreadsheet(ctx, gnosisWorkbook(t), service.ImportOptions{Label: "gnosis.xlsx"})
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Empty(t, second.Transactions)
	assert.Len(t, second.Duplicates, 2)
	assert.Equal(t, 2, l.Len())

	var categories []string
	for _, e := range l.Entries() {
		categories = append(categories, e.Category)
	}
	assert.ElementsMatch(t, []string{categorization.CategoryGroceries, categorization.CategoryRestaurants}, categories)
}

func TestBoursorama_PasteTwice(t *testing.T) {
	ctx := context.Background()
	svc, l := newImporter(t)

	for i := 0; i < 2; i++ {
		res, err := svc.ImportText(ctx, boursoText, service.ImportOptions{Label: "paste"})
		require.NoError(t, err)
		assert.Equal(t, transaction.ProviderBourso, res.Provider)
	}

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-09-02", entries[0].Date)
	assert.Equal(t, 13.9, entries[0].Amount)
	assert.Equal(t, "8897", entries[0].CardLastFour)
	assert.False(t, entries[0].IsCredit)
}

func TestRealStatements(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(testDataDir, "*"))
	require.NoError(t, err)
	if len(paths) == 0 {
		t.Skipf("no statements in %s (drop exported files there to run this test)", testDataDir)
	}

	ctx := context.Background()
	svc, _ := newImporter(t)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := os.ReadFile(path)
			require.NoError(t, err)

			opts := service.ImportOptions{Label: filepath.Base(path), DryRun: true}
			var res *service.ImportResult
			switch strings.ToLower(filepath.Ext(path)) {
			case ".csv":
				res, err = svc.ImportCSV(ctx, data, opts)
			case ".xlsx":
				res, err = svc.ImportSpreadsheet(ctx, data, opts)
			case ".pdf":
				res, err = svc.ImportPDF(ctx, data, opts)
			case ".txt":
				res, err = svc.ImportText(ctx, string(data), opts)
			default:
				t.Skipf("unsupported extension %s", filepath.Ext(path))
			}
			require.NoError(t, err)
			assert.True(t, res.Success, "errors: %v", res.Errors)

			for _, tx := range res.Transactions {
				assert.Greater(t, tx.Amount, 0.0)
				assert.Len(t, tx.Date, len("2006-01-02"))
			}
			t.Logf("%s: provider=%s unique=%d errors=%d", path, res.Provider, len(res.Transactions), len(res.Errors))
		})
	}
}
