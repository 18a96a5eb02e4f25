package pdftable

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

var bpiWord = regexp.MustCompile(`\bBPI\b`)

// NewBPIParser reads Banco BPI account statements. Operation dates are
// printed as DD/MM, so the "De DD/MM/YYYY a DD/MM/YYYY" period is mandatory.
func NewBPIParser(logger *slog.Logger) *StatementParser {
	return newStatementParser(variant{
		provider: transaction.ProviderBPI,
		detect: func(text string) bool {
			return bpiWord.MatchString(text) &&
				(strings.Contains(text, "DESCRITIVO") || strings.Contains(text, "DATA VALOR"))
		},
		labels: map[string][]columnKind{
			"DATA":       {colDate, colValueDate},
			"VALOR":      {colValueDate},
			"DESCRITIVO": {colDescription},
			"DESCRICAO":  {colDescription},
			"DEBITO":     {colDebit},
			"CREDITO":    {colCredit},
			"MONTANTE":   {colAmount},
			"SALDO":      {colBalance},
		},
		fallback: columns{
			{kind: colDate, min: math.Inf(-1), max: 80},
			{kind: colValueDate, min: 80, max: 140},
			{kind: colDescription, min: 140, max: 380},
			{kind: colDebit, min: 380, max: 450},
			{kind: colCredit, min: 450, max: 520},
			{kind: colBalance, min: 520, max: math.Inf(1)},
		},
		startMarkers:   []string{"SALDO INICIAL", "SALDO ANTERIOR"},
		endMarkers:     []string{"SALDO FINAL"},
		period:         regexp.MustCompile(`\bDE\s+(\d{2}/\d{2}/\d{4})\s+A\s+(\d{2}/\d{2}/\d{4})`),
		periodRequired: true,
	}, logger)
}
