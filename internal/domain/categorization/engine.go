package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
)

// userPriorityBoost lifts runtime rules above every seeded rule.
const userPriorityBoost = 1000

// MatchResult is one rule hit for a description.
type MatchResult struct {
	Pattern   string // normalized pattern that matched
	Category  string
	CleanName string
	Priority  int // effective priority, user rules boosted
	IsUser    bool
}

// Engine provides O(n) multi-pattern matching using Aho-Corasick.
// The automaton is built once and shared by concurrent readers; Build swaps it
// under the write lock.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string        // unique patterns, same order as the matcher
	metadata [][]MatchResult // every rule registered under a pattern
	mu       sync.RWMutex
}

// NewEngine builds an engine over rules.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	e.Build(rules)
	return e
}

// normalizePattern upper-cases, folds accents and drops % wildcards.
func normalizePattern(p string) string {
	return strings.ToUpper(normalizer.FoldAccents(strings.TrimSpace(strings.Trim(p, "%"))))
}

// Build replaces the automaton. Rules sharing a pattern are kept together so
// the priority decides between them at match time.
func (e *Engine) Build(rules []Rule) {
	patternToIndex := make(map[string]int, len(rules))
	patterns := make([]string, 0, len(rules))
	metadata := make([][]MatchResult, 0, len(rules))

	for _, rule := range rules {
		p := normalizePattern(rule.Pattern)
		if p == "" || rule.Category == "" {
			continue
		}

		priority := rule.Priority
		if rule.User {
			priority += userPriorityBoost
		}
		result := MatchResult{
			Pattern:   p,
			Category:  rule.Category,
			CleanName: rule.CleanName,
			Priority:  priority,
			IsUser:    rule.User,
		}

		if idx, ok := patternToIndex[p]; ok {
			metadata[idx] = append(metadata[idx], result)
			continue
		}
		patternToIndex[p] = len(patterns)
		patterns = append(patterns, p)
		metadata = append(metadata, []MatchResult{result})
	}

	var matcher *ahocorasick.Matcher
	if len(patterns) > 0 {
		matcher = ahocorasick.NewStringMatcher(patterns)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.matcher = matcher
	e.patterns = patterns
	e.metadata = metadata
}

// Match returns the best hit for description or nil. Ties on priority go to
// the longer pattern; under one pattern the later rule wins.
func (e *Engine) Match(description string) *MatchResult {
	var best *MatchResult
	for _, m := range e.MatchAll(description) {
		if best == nil || better(m, *best) {
			c := m
			best = &c
		}
	}
	return best
}

func better(a, b MatchResult) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return len(a.Pattern) >= len(b.Pattern)
}

// MatchAll returns every rule whose pattern occurs in description.
func (e *Engine) MatchAll(description string) []MatchResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil
	}

	input := normalizePattern(description)
	hits := e.matcher.Match([]byte(input))
	if len(hits) == 0 {
		return nil
	}

	results := make([]MatchResult, 0, len(hits))
	for _, idx := range hits {
		if idx >= 0 && idx < len(e.metadata) {
			results = append(results, e.metadata[idx]...)
		}
	}
	return results
}

// PatternCount returns the number of unique patterns.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

// IsEmpty reports whether the engine has no patterns.
func (e *Engine) IsEmpty() bool {
	return e.PatternCount() == 0
}
