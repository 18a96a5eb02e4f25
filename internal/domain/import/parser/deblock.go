package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// deblockEntry matches one operation of a copy-pasted Deblock statement:
//
//	1 octobre 2025 29 septembre 2025 Paiement Carte "Tesla" 12,00
//
// Pasting usually drops the separators, so every gap between tokens is
// optional and a match never depends on line boundaries.
var deblockEntry = regexp.MustCompile(`(?i)` +
	`(\d{1,2})\s*(\p{L}+\.?)\s+(\d{4})` + // operation date
	`\s*(\d{1,2})\s*(\p{L}+\.?)\s+(\d{4})` + // value date
	`\s*(Pr[ée]l[èe]vement(?:\s+automatique)?|Paiement\s+Carte|Virement|Cashback)` +
	`\s*(?:"([^"]*)"|([^"\d]*?))` +
	`\s*(-?\d{1,3}(?:[ \x{00a0}\x{202f}]?\d{3})*,\d{2})`)

// deblockDates finds the operation/value date pair that opens every entry,
// whatever follows it.
var deblockDates = regexp.MustCompile(`(?i)` +
	`(\d{1,2})\s*(\p{L}+\.?)\s+(\d{4})` +
	`\s*(\d{1,2})\s*(\p{L}+\.?)\s+(\d{4})`)

// DeblockParser reads the free-running French text of a Deblock statement.
type DeblockParser struct {
	logger *slog.Logger
}

func NewDeblockParser(logger *slog.Logger) *DeblockParser {
	return &DeblockParser{logger: orDiscard(logger)}
}

func (p *DeblockParser) Provider() transaction.Provider {
	return transaction.ProviderDeblock
}

func (p *DeblockParser) CanParse(content string) bool {
	return deblockEntry.MatchString(content)
}

func (p *DeblockParser) Parse(content, defaultCurrency string) transaction.Result {
	if strings.TrimSpace(content) == "" {
		return transaction.Failure(transaction.ErrEmptyInput)
	}

	batch := normalizer.NewBatch(p.Provider(), defaultCurrency, p.logger)
	matches := deblockEntry.FindAllStringSubmatch(content, -1)
	unmatched := unmatchedEntries(content, deblockEntry.FindAllStringIndex(content, -1))
	if len(matches) == 0 && len(unmatched) == 0 {
		return transaction.Failure(transaction.ErrNoTransactions)
	}

	for i, m := range matches {
		location := fmt.Sprintf("entry %d", i+1)

		date, err := normalizer.ParseFrenchDate(m[1], m[2], m[3])
		if err != nil {
			batch.Errorf(location, "%v", err)
			continue
		}

		amount, err := normalizer.ParseAmount(m[10])
		if err != nil {
			batch.Errorf(location, "%v", err)
			continue
		}

		keyword := normalizer.CleanLabel(m[7])
		quoted := normalizer.CleanLabel(m[8])
		loose := normalizer.CleanLabel(m[9])

		description := keyword
		merchant := ""
		switch {
		case quoted != "":
			description = fmt.Sprintf("%s %q", keyword, quoted)
			merchant = quoted
		case loose != "":
			description = keyword + " " + loose
			merchant = loose
		}

		batch.Add(location, transaction.Draft{
			Date:         date,
			Description:  description,
			Amount:       amount,
			MerchantName: merchant,
			IsCredit:     deblockIsCredit(keyword, quoted != ""),
			OriginalLine: m[0],
		})
	}

	for _, text := range unmatched {
		batch.Errorf("", "unrecognised operation %q", text)
	}

	return batch.Result()
}

// unmatchedEntries returns the text of every dated entry no operation match
// covers, cut at the next date pair and capped at 80 runes.
func unmatchedEntries(content string, spans [][]int) []string {
	covered := func(pos int) bool {
		for _, sp := range spans {
			if pos >= sp[0] && pos < sp[1] {
				return true
			}
		}
		return false
	}

	pairs := deblockDates.FindAllStringSubmatchIndex(content, -1)
	var out []string
	for i, loc := range pairs {
		if covered(loc[1] - 1) {
			continue
		}
		if _, err := normalizer.ParseFrenchDate(content[loc[2]:loc[3]], content[loc[4]:loc[5]], content[loc[6]:loc[7]]); err != nil {
			continue
		}
		end := len(content)
		if i+1 < len(pairs) {
			end = pairs[i+1][0]
		}
		text := []rune(normalizer.CleanLabel(content[loc[0]:end]))
		if len(text) > 80 {
			text = text[:80]
		}
		out = append(out, string(text))
	}
	return out
}

// deblockIsCredit classifies by operation keyword. A Virement without a quoted
// counterparty is assumed inbound; this is a heuristic and can misclassify an
// outgoing transfer exported without a beneficiary.
func deblockIsCredit(keyword string, hasQuotedMerchant bool) bool {
	k := strings.ToLower(normalizer.FoldAccents(keyword))
	switch {
	case strings.HasPrefix(k, "cashback"):
		return true
	case strings.HasPrefix(k, "virement"):
		return !hasQuotedMerchant
	default:
		return false
	}
}
