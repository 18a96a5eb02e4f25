package pdftable

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// NewBoursoramaParser reads Boursorama (BoursoBank) PDF statements. Dates are
// printed in full, so the "du ... au ..." period is optional.
func NewBoursoramaParser(logger *slog.Logger) *StatementParser {
	return newStatementParser(variant{
		provider: transaction.ProviderBourso,
		detect: func(text string) bool {
			return (strings.Contains(text, "BOURSORAMA") || strings.Contains(text, "BOURSOBANK")) &&
				strings.Contains(text, "LIBELLE")
		},
		labels: map[string][]columnKind{
			"DATE":    {colDate},
			"LIBELLE": {colDescription},
			"VALEUR":  {colValueDate},
			"DEBIT":   {colDebit},
			"CREDIT":  {colCredit},
			"MONTANT": {colAmount},
		},
		fallback: columns{
			{kind: colDate, min: math.Inf(-1), max: 100},
			{kind: colDescription, min: 100, max: 350},
			{kind: colValueDate, min: 350, max: 410},
			{kind: colDebit, min: 410, max: 480},
			{kind: colCredit, min: 480, max: math.Inf(1)},
		},
		startMarkers: []string{"SOLDE AU", "ANCIEN SOLDE", "SOLDE PRECEDENT"},
		endMarkers:   []string{"NOUVEAU SOLDE", "TOTAL DES OPERATIONS"},
		period:       regexp.MustCompile(`\bDU\s+(\d{2}/\d{2}/\d{4})\s+AU\s+(\d{2}/\d{2}/\d{4})`),
	}, logger)
}
