package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned for workbooks without a usable sheet.
var ErrNoSheet = errors.New("no suitable sheet found")

// SpreadsheetToCSV renders the transaction sheet of an XLSX export as
// comma-separated text so it can go through detection like any CSV upload.
// Leading and trailing empty rows are dropped; ragged rows are padded to the
// widest row.
func SpreadsheetToCSV(reader io.Reader) (string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := findTransactionSheet(f.GetSheetList())
	if sheetName == "" {
		return "", ErrNoSheet
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range trimEmptyRows(rows) {
		record := make([]string, width)
		for i, cell := range row {
			record[i] = strings.TrimSpace(cell)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// findTransactionSheet finds the best sheet for transaction data
func findTransactionSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}

	preferredNames := []string{
		"transactions", "movimentos", "extrato", "operations",
		"statement", "data", "sheet1",
	}

	for _, preferred := range preferredNames {
		for _, sheet := range sheets {
			if strings.EqualFold(strings.TrimSpace(sheet), preferred) {
				return sheet
			}
		}
	}

	return sheets[0]
}

func trimEmptyRows(rows [][]string) [][]string {
	for len(rows) > 0 && isBlankRecord(rows[0]) {
		rows = rows[1:]
	}
	for len(rows) > 0 && isBlankRecord(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}
