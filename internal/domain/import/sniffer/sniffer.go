// Package sniffer provides automatic detection of CSV/TSV export formats.
// It normalises the raw bytes, identifies the delimiter and header row, and
// fingerprints the header set so a provider can be recognised.
package sniffer

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
)

// Header keywords seen in card-program and bank exports (multi-language)
var headerKeywords = []string{
	// card programs
	"created_at", "clearing_date", "merchant", "merchant_name", "kind", "status",
	"transaction_amount", "transaction_currency", "billing_amount", "billing_currency", "card",
	// English
	"date", "description", "amount", "currency", "type", "category", "debit", "credit", "balance",
	// French / Portuguese
	"libelle", "montant", "debit", "credit", "descricao", "valor", "saldo", "data_mov",
}

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrNoHeadersFound = errors.New("could not find data headers")
)

// FileConfig holds the detected configuration for a CSV/TSV export
type FileConfig struct {
	Delimiter   rune     // The field delimiter (';', ',', '\t', '|')
	SkipLines   int      // Number of preamble lines before the header
	Headers     []string // Header labels as written in the file
	Keys        []string // Normalised header keys ("billing_amount")
	Fingerprint string   // SHA256 of the normalised header set
}

// NormalizeBytes strips a UTF-8 BOM and decodes non-UTF-8 exports as
// Windows-1252, the encoding spreadsheet tools use for Western European CSVs.
func NormalizeBytes(data []byte) string {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		decoded, _ = charmap.ISO8859_1.NewDecoder().Bytes(data)
	}
	return string(decoded)
}

// DetectConfig analyzes CSV/TSV content and returns its configuration.
func DetectConfig(content string) (*FileConfig, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(content, "\n")
	delimiter, skipLines, err := findHeaderRow(lines)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(cleanLine(lines[skipLines], skipLines == 0)))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		keys[i] = normalizer.NormalizeHeader(h)
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skipLines,
		Headers:     headers,
		Keys:        keys,
		Fingerprint: generateFingerprint(keys),
	}, nil
}

// Index maps each normalised header key to its first column.
func (c *FileConfig) Index() map[string]int {
	idx := make(map[string]int, len(c.Keys))
	for i, k := range c.Keys {
		if _, dup := idx[k]; !dup && k != "" {
			idx[k] = i
		}
	}
	return idx
}

// Has reports whether every key is present in the header.
func (c *FileConfig) Has(keys ...string) bool {
	idx := c.Index()
	for _, k := range keys {
		if _, ok := idx[k]; !ok {
			return false
		}
	}
	return true
}

// Missing lists the keys absent from the header.
func (c *FileConfig) Missing(keys ...string) []string {
	idx := c.Index()
	var missing []string
	for _, k := range keys {
		if _, ok := idx[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// NewReader returns a csv.Reader positioned on the header row.
func (c *FileConfig) NewReader(content string) *csv.Reader {
	lines := strings.Split(content, "\n")
	if c.SkipLines < len(lines) {
		lines = lines[c.SkipLines:]
	}
	if len(lines) > 0 {
		lines[0] = cleanLine(lines[0], true)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = c.Delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Variable field count
	return reader
}

// findHeaderRow locates the header row and its delimiter
func findHeaderRow(lines []string) (rune, int, error) {
	// Best candidate among lines with no keywords (fallback)
	fallbackIndex := -1
	fallbackDelimiter := rune(0)
	fallbackCount := 0

	// Best candidate among lines WITH keywords (preferred)
	keywordIndex := -1
	keywordDelimiter := rune(0)
	bestScore := 0

	for i, line := range lines {
		if i > 20 { // Don't search more than 20 lines
			break
		}

		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue // a header needs at least two columns
		}

		keywordMatches := 0
		for _, cell := range strings.Split(line, string(delimiter)) {
			key := normalizer.NormalizeHeader(cell)
			for _, kw := range headerKeywords {
				if key == kw {
					keywordMatches++
					break
				}
			}
		}

		if keywordMatches > 0 {
			// Real headers have many columns and many known labels
			score := count*10 + keywordMatches*15
			if keywordIndex == -1 || score > bestScore {
				bestScore = score
				keywordDelimiter = delimiter
				keywordIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if keywordIndex >= 0 {
		return keywordDelimiter, keywordIndex, nil
	}
	if fallbackIndex >= 0 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// generateFingerprint creates a stable hash from normalised header keys
func generateFingerprint(keys []string) string {
	var normalized []string
	for _, k := range keys {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, k)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
