package categorization

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzyMatcher_Match(t *testing.T) {
	matcher := NewFuzzyMatcher([]Rule{
		{Pattern: "STARBUCKS", Category: CategoryRestaurants, CleanName: "Starbucks"},
		{Pattern: "AMAZON", Category: CategoryShopping, CleanName: "Amazon"},
	})

	t.Run("exact match", func(t *testing.T) {
		result := matcher.Match("STARBUCKS", 70)
		require.NotNil(t, result)
		assert.Equal(t, "Starbucks", result.CleanName)
		assert.Equal(t, 100, result.Score)
		assert.Equal(t, 0, result.Distance)
	})

	t.Run("variation with store number", func(t *testing.T) {
		result := matcher.Match("STARBUCKS 001 LONDON", 70)
		require.NotNil(t, result)
		assert.Equal(t, "Starbucks", result.CleanName)
		assert.GreaterOrEqual(t, result.Score, 70)
	})

	t.Run("typo", func(t *testing.T) {
		result := matcher.Match("STARBACKS", DefaultFuzzyThreshold)
		require.NotNil(t, result)
		assert.Equal(t, "Starbucks", result.CleanName)
		assert.Equal(t, 1, result.Distance)
	})

	t.Run("no match below threshold", func(t *testing.T) {
		assert.Nil(t, matcher.Match("COMPLETELY DIFFERENT", 70))
	})

	t.Run("blank input", func(t *testing.T) {
		assert.Nil(t, matcher.Match("  ", 0))
	})

	t.Run("case insensitive", func(t *testing.T) {
		result := matcher.Match("starbucks coffee", 70)
		require.NotNil(t, result)
		assert.Equal(t, CategoryRestaurants, result.Category)
	})
}

func TestFuzzyMatcher_Priority(t *testing.T) {
	matcher := NewFuzzyMatcher([]Rule{
		{Pattern: "UBER", Category: CategoryTransport, CleanName: "Uber (seed)"},
		{Pattern: "UBER", Category: "travel", CleanName: "Uber (user)", User: true},
	})
	assert.Equal(t, 2, matcher.PatternCount())

	result := matcher.Match("UBER", 50)
	require.NotNil(t, result)
	assert.Equal(t, "Uber (user)", result.CleanName)
}

func TestFuzzyScore(t *testing.T) {
	tests := []struct {
		s1, s2 string
		min    int
		max    int
	}{
		{"NETFLIX", "NETFLIX", 100, 100},
		{"NETFLX", "NETFLIX", 85, 85},
		{"STARBUCKS COFFEE", "STARBUCKS", 89, 89},
		{"EDF", "EDP", 0, 79},
		{"ZZZ QWERTY", "AMAZON", 0, 20},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s~%s", tc.s1, tc.s2), func(t *testing.T) {
			score := fuzzyScore(tc.s1, tc.s2)
			assert.GreaterOrEqual(t, score, tc.min)
			assert.LessOrEqual(t, score, tc.max)
		})
	}
}

func BenchmarkFuzzyMatch(b *testing.B) {
	rules := make([]Rule, 1000)
	for i := range rules {
		rules[i] = Rule{Pattern: fmt.Sprintf("MERCHANT %d", i), Category: CategoryShopping}
	}
	matcher := NewFuzzyMatcher(rules)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = matcher.Match("MERCHANT 5OO", DefaultFuzzyThreshold)
	}
}
