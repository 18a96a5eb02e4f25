package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIndex_Search(t *testing.T) {
	si, err := NewSearchIndex(DefaultRules())
	require.NoError(t, err)
	defer si.Close()

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"typo inside a longer label", "CARTE 12/03 NETFLX AMSTERDAM", CategorySubscriptions},
		{"exact word", "PRLV SEPA VODAFONE PORTUGAL", CategoryTelecom},
		{"accented word", "Prélèvement MERCADOMA", CategoryGroceries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := si.Search(tt.label, 3)
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			assert.Equal(t, tt.want, hits[0].Category)
			assert.Positive(t, hits[0].Score)
		})
	}
}

func TestSearchIndex_NoHit(t *testing.T) {
	si, err := NewSearchIndex(DefaultRules())
	require.NoError(t, err)
	defer si.Close()

	hits, err := si.Search("ZZZ QWERTY", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// only short words: nothing to search on
	hits, err = si.Search("CB VIR 1234", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	si, err := NewSearchIndex(nil)
	require.NoError(t, err)
	defer si.Close()

	hits, err := si.Search("BOULANGERIE PAUL", 1)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, si.Build([]Rule{{Pattern: "BOULANGERIE", Category: CategoryGroceries, User: true}}))
	hits, err = si.Search("BOULANGRIE PAUL", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.True(t, hits[0].IsUser)
}

func TestSearchTerms(t *testing.T) {
	assert.Equal(t, "CARTE NETFLX AMSTERDAM", searchTerms("CARTE 12/03 NETFLX AMSTERDAM CB*8897"))
	assert.Equal(t, "", searchTerms("CB 12,90"))
}

func TestService_SearchFallback(t *testing.T) {
	svc := NewDefaultService(nil)

	got, ok := svc.Categorize("CARTE 12/03 NETFLX AMSTERDAM")
	require.True(t, ok)
	assert.Equal(t, CategorySubscriptions, got.Category)
	assert.True(t, got.Fuzzy)

	_, ok = NewService(DefaultRules(), -1, nil).Categorize("CARTE 12/03 NETFLX AMSTERDAM")
	assert.False(t, ok)
}
