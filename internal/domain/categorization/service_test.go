package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Categorize(t *testing.T) {
	svc := NewDefaultService(nil)

	tests := []struct {
		name      string
		label     string
		want      string
		wantFuzzy bool
		wantOK    bool
	}{
		{name: "exact rule", label: "CARTE 30/08/25 PAYPAL CB*8897", want: CategoryShopping, wantOK: true},
		{name: "quoted merchant", label: "DIGI PORTUGAL LDA", want: CategoryTelecom, wantOK: true},
		{name: "misspelt merchant", label: "Netflx", want: CategorySubscriptions, wantFuzzy: true, wantOK: true},
		{name: "unknown", label: "ZZZ QWERTY", wantOK: false},
		{name: "blank", label: "   ", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := svc.Categorize(tc.label)
			require.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got.Category)
			assert.Equal(t, tc.wantFuzzy, got.Fuzzy)
		})
	}
}

func TestService_FuzzyDisabled(t *testing.T) {
	svc := NewService(DefaultRules(), -1, nil)

	_, ok := svc.Categorize("Netflx")
	assert.False(t, ok)

	got, ok := svc.Categorize("NETFLIX.COM")
	require.True(t, ok)
	assert.Equal(t, CategorySubscriptions, got.Category)
}

func TestService_AddRule(t *testing.T) {
	svc := NewDefaultService(nil)

	svc.AddRule(Rule{Pattern: "PAYPAL", Category: "online", CleanName: "PayPal"})

	got, ok := svc.Categorize("PAYPAL *STEAM")
	require.True(t, ok)
	assert.Equal(t, "online", got.Category)

	svc.AddRule(Rule{Pattern: "BOULANGERIE", Category: CategoryGroceries})
	got, ok = svc.Categorize("BOULANGERIE PAUL")
	require.True(t, ok)
	assert.Equal(t, CategoryGroceries, got.Category)
}

func TestService_Mapper(t *testing.T) {
	mapper := NewDefaultService(nil).Mapper()

	category, ok := mapper("FREE MOBILE")
	require.True(t, ok)
	assert.Equal(t, CategoryTelecom, category)

	category, ok = mapper("ZZZ QWERTY")
	assert.False(t, ok)
	assert.Empty(t, category)
}
