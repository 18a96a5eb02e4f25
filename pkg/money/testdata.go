package money

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator generates realistic statement data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// StatementLine is a generated statement entry, already in canonical units.
type StatementLine struct {
	Date        string
	Description string
	Merchant    string
	Amount      *Money
	IsCredit    bool
}

// StatementLine generates a single random statement entry dated within the last year.
func (g *TestDataGenerator) StatementLine(currency string) StatementLine {
	isCredit := g.faker.Number(0, 4) == 0
	merchant := g.Merchant()

	description := "CARTE " + merchant
	if isCredit {
		description = "VIR SEPA " + g.faker.Name()
		merchant = ""
	}

	return StatementLine{
		Date:        g.Date().Format(time.DateOnly),
		Description: description,
		Merchant:    merchant,
		Amount:      g.RandomAmount(currency, 1, 50000),
		IsCredit:    isCredit,
	}
}

// StatementLines generates count random statement entries.
func (g *TestDataGenerator) StatementLines(currency string, count int) []StatementLine {
	lines := make([]StatementLine, count)
	for i := range lines {
		lines[i] = g.StatementLine(currency)
	}
	return lines
}

// RandomAmount generates a random positive Money value within a minor-unit range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, currency)
}

// Date returns a random calendar day within the last year.
func (g *TestDataGenerator) Date() time.Time {
	now := time.Now().UTC()
	return g.faker.DateRange(now.AddDate(-1, 0, 0), now).Truncate(24 * time.Hour)
}

// Currency returns a random supported currency code.
func (g *TestDataGenerator) Currency() string {
	return supported[g.faker.Number(0, len(supported)-1)]
}

var merchants = []string{
	"Amazon", "Lidl", "Carrefour", "Monoprix", "Starbucks",
	"McDonald's", "Uber", "Bolt", "Netflix", "Spotify",
	"Apple", "Google", "PayPal", "Franprix", "SNCF",
	"Pingo Doce", "Continente", "Galp", "Ryanair", "IKEA",
	"Decathlon", "Fnac", "Zara", "Glovo", "Free Mobile",
}

// Merchant returns a random merchant name.
func (g *TestDataGenerator) Merchant() string {
	return merchants[g.faker.Number(0, len(merchants)-1)]
}
