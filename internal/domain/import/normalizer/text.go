package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents strips combining marks: "Prélèvement" becomes "Prelevement".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CleanLabel trims a description and collapses internal whitespace runs
// (including non-breaking spaces) to a single space.
func CleanLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var quoteChars = "\"'`‘’“”«»"

// NormalizeKey produces the comparison form of a description or merchant:
// lower-cased, quote characters removed, whitespace collapsed. Fingerprints
// depend on every caller using this exact function.
func NormalizeKey(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteChars, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return CleanLabel(s)
}

// NormalizeHeader turns a column label into a lookup key:
// "Billing Amount" and "billing-amount" both become "billing_amount".
func NormalizeHeader(h string) string {
	h = strings.ToLower(FoldAccents(CleanLabel(strings.TrimPrefix(h, "\uFEFF"))))
	h = strings.Trim(h, "\"' ")
	return strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(h)
}
