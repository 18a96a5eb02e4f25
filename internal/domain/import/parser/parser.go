// Package parser turns provider exports (pasted statement text and card-program
// CSV files) into canonical transactions. Each provider is a Parser; a Registry
// holds them in detection order.
package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// Detector is the capability every provider parser exposes over content C:
// plain text for pasted statements and CSVs, a laid-out document for PDFs.
//
// CanParse must be a low false-positive predicate: rejecting ambiguous input
// is fine, claiming another provider's export is not. Parse never returns a
// Go error; row and document problems are reported inside the Result.
type Detector[C any] interface {
	Provider() transaction.Provider
	CanParse(content C) bool
	Parse(content C, defaultCurrency string) transaction.Result
}

// Parser is a Detector over text content.
type Parser = Detector[string]

// ParseError represents a parsing error for a specific row
type ParseError struct {
	Row     int
	Column  string
	Message string
	RawData string
}

func (e ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// DefaultParsers returns the text parsers in detection order. CSV parsers
// keyed on literal header tokens come before free-text parsers whose detection
// relies on keyword co-occurrence.
func DefaultParsers(logger *slog.Logger) []Parser {
	return []Parser{
		NewGnosisPayParser(logger),
		NewEtherfiParser(logger),
		NewDeblockParser(logger),
		NewBoursoParser(logger),
	}
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// coalesce returns the first non-empty trimmed value
func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// splitLines splits on any newline convention, keeping empty lines so line
// numbers in errors match the source.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}
