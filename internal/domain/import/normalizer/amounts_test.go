package normalizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"7,00", "7"},
		{"13,90", "13.9"},
		{"13.48", "13.48"},
		{"-13.48", "-13.48"},
		{"1 234,56", "1234.56"},
		{"1 234,56", "1234.56"},
		{"1 234,56 €", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234", "1234"},
		{"1,234,567", "1234567"},
		{"0,500", "0.5"},
		{"12,5", "12.5"},
		{"+42,10", "42.1"},
		{"42,10-", "-42.1"},
		{"(42.10)", "-42.1"},
		{"−5,00", "-5"},
		{"EUR 19.99", "19.99"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}

	for _, bad := range []string{"", "abc", "12,3x", "--"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseAmount(bad)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParseStrictAmount(t *testing.T) {
	got, err := ParseStrictAmount("1.250,00")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1250)))

	for _, decoy := range []string{"UNIPESSOAL,LDA", "LDA,12", "A1,00", ",", "-"} {
		t.Run(decoy, func(t *testing.T) {
			_, err := ParseStrictAmount(decoy)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParseDotAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"13.48", "13.48"},
		{"-0.123", "-0.123"},
		{"1,234.5", "1234.5"},
		{"100", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDotAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)))
		})
	}

	_, err := ParseDotAmount("")
	assert.Error(t, err)
}
