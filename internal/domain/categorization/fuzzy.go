package categorization

import (
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultFuzzyThreshold is the minimum score for a fuzzy hit to count.
const DefaultFuzzyThreshold = 80

// FuzzyMatchResult represents a fuzzy match with its similarity score
type FuzzyMatchResult struct {
	MatchResult
	Score    int // 0-100, higher is closer
	Distance int // Levenshtein distance
}

// FuzzyMatcher catches merchant spellings the exact automaton misses, like
// "STARBACKS" for "STARBUCKS".
type FuzzyMatcher struct {
	patterns []MatchResult
	mu       sync.RWMutex
}

// NewFuzzyMatcher creates a new fuzzy matcher from rules
func NewFuzzyMatcher(rules []Rule) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	fm.Build(rules)
	return fm
}

// Build replaces the pattern list.
func (fm *FuzzyMatcher) Build(rules []Rule) {
	patterns := make([]MatchResult, 0, len(rules))
	for _, rule := range rules {
		p := normalizePattern(rule.Pattern)
		if p == "" || rule.Category == "" {
			continue
		}
		priority := rule.Priority
		if rule.User {
			priority += userPriorityBoost
		}
		patterns = append(patterns, MatchResult{
			Pattern:   p,
			Category:  rule.Category,
			CleanName: rule.CleanName,
			Priority:  priority,
			IsUser:    rule.User,
		})
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.patterns = patterns
}

// Match finds the best fuzzy match for the given description.
// Returns nil if no match meets the minimum threshold.
func (fm *FuzzyMatcher) Match(description string, threshold int) *FuzzyMatchResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 {
		return nil
	}

	input := normalizePattern(description)
	if input == "" {
		return nil
	}

	var best *FuzzyMatchResult
	for _, p := range fm.patterns {
		score := fuzzyScore(input, p.Pattern)
		if score < threshold {
			continue
		}
		if best != nil && (score < best.Score || (score == best.Score && p.Priority <= best.Priority)) {
			continue
		}
		best = &FuzzyMatchResult{
			MatchResult: p,
			Score:       score,
			Distance:    fuzzy.LevenshteinDistance(input, p.Pattern),
		}
	}
	return best
}

// PatternCount returns the number of patterns in the matcher
func (fm *FuzzyMatcher) PatternCount() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return len(fm.patterns)
}

// fuzzyScore rates s1 against s2 from 0 to 100, taking the better of an edit
// distance ratio and a subsequence rank.
func fuzzyScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}

	longer, shorter := s1, s2
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	if len(longer) == 0 {
		return 0
	}
	if len(shorter) > 0 && strings.Contains(longer, shorter) {
		return 75 + (25 * len(shorter) / len(longer))
	}

	distance := fuzzy.LevenshteinDistance(s1, s2)
	editScore := 100 * (len(longer) - distance) / len(longer)

	// RankMatch is the distance when shorter is a subsequence of longer.
	rankScore := 0
	if rank := fuzzy.RankMatch(shorter, longer); rank >= 0 && rank < len(longer) {
		rankScore = 60 - (rank * 40 / len(longer))
	}

	return max(editScore, rankScore)
}
