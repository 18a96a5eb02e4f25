package categorization

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// minSearchTokenLen drops short query words (CB, VIR, city codes) that would
// fuzzy-match unrelated merchants.
const minSearchTokenLen = 5

// searchDocument is one rule as indexed.
type searchDocument struct {
	Pattern     string  `json:"pattern"`
	CleanName   string  `json:"clean_name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Priority    float64 `json:"priority"`
}

// SearchResult is one search hit.
type SearchResult struct {
	MatchResult
	Score float64
}

// SearchIndex is an in-memory full-text index over the rules. It catches
// misspelt merchant words inside longer labels, which the whole-string fuzzy
// score misses ("CARTE NETFLX AMSTERDAM").
type SearchIndex struct {
	index bleve.Index
	docs  map[string]MatchResult
	mu    sync.RWMutex
}

// NewSearchIndex builds an index over rules.
func NewSearchIndex(rules []Rule) (*SearchIndex, error) {
	si := &SearchIndex{}
	if err := si.Build(rules); err != nil {
		return nil, err
	}
	return si, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("pattern", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("clean_name", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("priority", bleve.NewNumericFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// Build replaces the index with a fresh one over rules.
func (si *SearchIndex) Build(rules []Rule) error {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	docs := make(map[string]MatchResult, len(rules))
	batch := index.NewBatch()
	for i, rule := range rules {
		p := normalizePattern(rule.Pattern)
		if p == "" || rule.Category == "" {
			continue
		}
		priority := rule.Priority
		if rule.User {
			priority += userPriorityBoost
		}

		id := strconv.Itoa(i)
		docs[id] = MatchResult{
			Pattern:   p,
			Category:  rule.Category,
			CleanName: rule.CleanName,
			Priority:  priority,
			IsUser:    rule.User,
		}
		doc := searchDocument{
			Pattern:     p,
			CleanName:   rule.CleanName,
			Description: strings.TrimSpace(p + " " + rule.CleanName),
			Category:    rule.Category,
			Priority:    float64(priority),
		}
		if err := batch.Index(id, doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("failed to index rule %q: %w", rule.Pattern, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to execute batch index: %w", err)
	}

	si.mu.Lock()
	old := si.index
	si.index, si.docs = index, docs
	si.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search runs a typo-tolerant match of the long words of label. Hits come
// back best first.
func (si *SearchIndex) Search(label string, limit int) ([]SearchResult, error) {
	q := searchTerms(label)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	si.mu.RLock()
	defer si.mu.RUnlock()
	if si.index == nil {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(q)
	matchQuery.SetFuzziness(1)

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	res, err := si.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if m, ok := si.docs[hit.ID]; ok {
			out = append(out, SearchResult{MatchResult: m, Score: hit.Score})
		}
	}
	return out, nil
}

// Close releases the index.
func (si *SearchIndex) Close() error {
	si.mu.Lock()
	defer si.mu.Unlock()
	if si.index == nil {
		return nil
	}
	err := si.index.Close()
	si.index = nil
	return err
}

// searchTerms keeps the letter-only words of label long enough to search on.
func searchTerms(label string) string {
	words := strings.FieldsFunc(normalizePattern(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	kept := words[:0]
	for _, w := range words {
		if len(w) >= minSearchTokenLen {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
