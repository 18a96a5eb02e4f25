// Package normalizer holds the pure helpers every statement parser shares:
// date, amount and label normalisation, merchant extraction and the batch
// collector that validates rows into canonical transactions.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// Fixed labels for bank-generated fee and tax lines.
const (
	LabelStampDuty          = "Stamp duty"
	LabelAccountMaintenance = "Account maintenance fee"
	LabelCashWithdrawal     = "Cash withdrawal"
)

var (
	quotedPattern = regexp.MustCompile(`["“«]\s*([^"“”«»]+?)\s*["”»]`)

	// French retail banks (Boursorama, Crédit Agricole)
	cardPattern       = regexp.MustCompile(`(?i)^(?:PAIEMENT\s+)?(?:CARTE|CB)\s+(?:X\d{4}\s+)?\d{2}/\d{2}(?:/\d{2,4})?\s+(.+?)(?:\s*CB\*\d{4})?$`)
	transferPattern   = regexp.MustCompile(`(?i)^VIR(?:EMENT)?(?:\s+(?:SEPA|INST|INSTANTANE))*(?:\s+(?:EMIS|RECU))?\s+(?:(?:VERS|DE|POUR|/FRM|/TO)\s+)?(.+)$`)
	debitOrderPattern = regexp.MustCompile(`(?i)^PRLV(?:\s+SEPA)?\s+(.+)$`)
	withdrawalPattern = regexp.MustCompile(`(?i)^RETRAIT\b`)
	cardTailPattern   = regexp.MustCompile(`\s*CB\*\d{4}\b`)

	// Portuguese banks (BPI)
	bpiTransferPattern    = regexp.MustCompile(`(?i)\bTRF\b.*?\bDE\s+(.+)$`)
	bpiDirectDebitPattern = regexp.MustCompile(`(?i)^DD\s+(.+?)\s+\S*\d{5,}\S*$`)
	stampDutyPattern      = regexp.MustCompile(`(?i)IMPOSTO\s+(?:DO\s+)?SELO|\bIMP\.?\s*SELO\b`)
	maintenancePattern    = regexp.MustCompile(`(?i)MANUTEN[CÇ][AÃ]O|COMISS[AÃ]O\s+(?:DE\s+)?(?:CONTA|GEST)`)

	// trailing noise shared by every family
	referenceSuffix = regexp.MustCompile(`\s+\d{4,}$`)
	dateSuffix      = regexp.MustCompile(`\s+\d{1,2}/\d{1,2}(?:/\d{2,4})?$`)
	detailSuffix    = regexp.MustCompile(`(?i)\s*(?:/MOTIF|/REF|/ID|\sREF[:.]|\s/).*$`)
)

// ExtractMerchant derives a human-readable counterparty from a description.
// It never fails: the worst case is a rough guess built from the first words.
func ExtractMerchant(provider transaction.Provider, description string) string {
	description = CleanLabel(description)
	if description == "" {
		return ""
	}

	if m := quotedPattern.FindStringSubmatch(description); m != nil {
		if name := CleanLabel(m[1]); name != "" {
			return name
		}
	}

	var name string
	switch provider {
	case transaction.ProviderBourso, transaction.ProviderCreditAgricole:
		name = frenchBankMerchant(description)
	case transaction.ProviderBPI:
		name = portugueseBankMerchant(description)
	}
	if name != "" {
		return name
	}

	return fallbackMerchant(description)
}

func frenchBankMerchant(description string) string {
	if m := cardPattern.FindStringSubmatch(description); m != nil {
		return trimNoise(cardTailPattern.ReplaceAllString(m[1], ""))
	}
	if m := transferPattern.FindStringSubmatch(description); m != nil {
		return trimNoise(m[1])
	}
	if m := debitOrderPattern.FindStringSubmatch(description); m != nil {
		return trimNoise(m[1])
	}
	if withdrawalPattern.MatchString(description) {
		return LabelCashWithdrawal
	}
	return ""
}

func portugueseBankMerchant(description string) string {
	switch {
	case stampDutyPattern.MatchString(description):
		return LabelStampDuty
	case maintenancePattern.MatchString(description):
		return LabelAccountMaintenance
	}
	if m := bpiTransferPattern.FindStringSubmatch(description); m != nil {
		return trimNoise(m[1])
	}
	if m := bpiDirectDebitPattern.FindStringSubmatch(description); m != nil {
		return trimNoise(m[1])
	}
	return ""
}

// trimNoise removes references, trailing dates and transfer details.
func trimNoise(s string) string {
	s = detailSuffix.ReplaceAllString(s, "")
	s = referenceSuffix.ReplaceAllString(s, "")
	s = dateSuffix.ReplaceAllString(s, "")
	return CleanLabel(s)
}

// fallbackMerchant keeps the first four words longer than two characters,
// skipping numbers and dates.
func fallbackMerchant(description string) string {
	var picked []string
	for _, tok := range strings.Fields(description) {
		if utf8.RuneCountInString(tok) <= 2 || !hasLetter(tok) {
			continue
		}
		picked = append(picked, tok)
		if len(picked) == 4 {
			break
		}
	}
	if len(picked) == 0 {
		return description
	}
	return strings.Join(picked, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
