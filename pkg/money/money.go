// Package money provides the closed set of currencies statements are imported in
// and exact conversions between decimal amounts and ISO-4217 minor units.
package money

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Supported currency codes (ISO-4217)
const (
	EUR = "EUR" // Euro
	USD = "USD" // US Dollar
	GBP = "GBP" // British Pound
	CHF = "CHF" // Swiss Franc
)

// supported is the closed currency set a canonical transaction may carry.
var supported = []string{EUR, USD, GBP, CHF}

// Supported returns the supported currency codes in display order.
func Supported() []string {
	return slices.Clone(supported)
}

// IsSupported reports whether code belongs to the supported set.
// The comparison is case-insensitive and ignores surrounding whitespace.
func IsSupported(code string) bool {
	return slices.Contains(supported, NormalizeCode(code))
}

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Money represents a monetary value with currency.
// It wraps go-money for minor-unit storage and shopspring/decimal for conversions.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units (cents) and a currency code.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{m: money.New(amountMinor, NormalizeCode(currencyCode))}
}

// NewFromDecimal creates Money from a decimal amount, rounding half away from
// zero to the currency's fraction digits.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) (*Money, error) {
	code := NormalizeCode(currencyCode)
	currency := money.GetCurrency(code)
	if currency == nil {
		return nil, fmt.Errorf("unknown currency %q", currencyCode)
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()

	return New(minor, code), nil
}

// NewFromFloat creates Money from a canonical float amount.
func NewFromFloat(amount float64, currencyCode string) (*Money, error) {
	return NewFromDecimal(decimal.NewFromFloat(amount), currencyCode)
}

// Amount returns the amount in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return nil
	}
	return &Money{m: m.m.Absolute()}
}

// Negate returns the negated value
func (m *Money) Negate() *Money {
	if m == nil || m.m == nil {
		return nil
	}
	return &Money{m: m.m.Negative()}
}

// Equals reports whether both values carry the same currency and amount.
func (m *Money) Equals(other *Money) bool {
	if m == nil || other == nil || m.m == nil || other.m == nil {
		return m.IsZero() && other.IsZero()
	}
	eq, err := m.m.Equals(other.m)
	return err == nil && eq
}

// ToDecimal converts the minor-unit amount back to a decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// ToFloat64 returns the amount as a float rounded to the currency fraction.
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// Display returns the formatted amount with currency symbol, e.g. "€13.90".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// String implements fmt.Stringer as "<amount> <code>".
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0"
	}
	return m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction)) + " " + m.Currency()
}
