// Package transaction defines the canonical statement transaction, the closed
// provider enumeration and the validation every parsed row passes through.
package transaction

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/pkg/money"
)

// Provider identifies the institution and export format a statement comes from.
type Provider string

const (
	ProviderDeblock        Provider = "deblock"
	ProviderBourso         Provider = "bourso"
	ProviderGnosisPay      Provider = "gnosis_pay"
	ProviderEtherfi        Provider = "etherfi"
	ProviderBPI            Provider = "bpi"
	ProviderCreditAgricole Provider = "credit_agricole"
	ProviderManual         Provider = "manual"
	ProviderInvoice        Provider = "invoice"
)

var allProviders = []Provider{
	ProviderDeblock,
	ProviderBourso,
	ProviderGnosisPay,
	ProviderEtherfi,
	ProviderBPI,
	ProviderCreditAgricole,
	ProviderManual,
	ProviderInvoice,
}

// ErrInvalidProvider is returned when a provider name is not in the enumeration.
var ErrInvalidProvider = errors.New("invalid provider")

// Providers returns every known provider.
func Providers() []Provider {
	out := make([]Provider, len(allProviders))
	copy(out, allProviders)
	return out
}

// ParseProvider resolves a provider name case-insensitively.
// Dashes and spaces are accepted in place of underscores ("gnosis-pay").
func ParseProvider(name string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for _, p := range allProviders {
		if string(p) == key {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidProvider, name)
}

func (p Provider) String() string {
	return string(p)
}

// ParsedTransaction is the canonical, validated transaction record.
// Amount is always a magnitude; direction lives exclusively in IsCredit.
type ParsedTransaction struct {
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency"`
	MerchantName string   `json:"merchantName,omitempty"`
	CardLastFour string   `json:"cardLastFour,omitempty"`
	IsCredit     bool     `json:"isCredit"`
	OriginalLine string   `json:"originalLine,omitempty"`
	Provider     Provider `json:"provider,omitempty"`
}

// RawTransaction is the provider-specific record a parser accumulates while
// walking its input. Dates are already ISO formatted when set.
type RawTransaction struct {
	Date         string
	ValueDate    string
	Description  []string
	Debit        *decimal.Decimal
	Credit       *decimal.Decimal
	CardLastFour string
	Lines        []string
	StartLine    int
}

// AppendDescription adds a non-blank fragment to the running description.
func (r *RawTransaction) AppendDescription(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	r.Description = append(r.Description, fragment)
}

// HasAmount reports whether a debit or credit amount has been assigned.
func (r RawTransaction) HasAmount() bool {
	return r.Debit != nil || r.Credit != nil
}

// SetAmount stores the magnitude of amount on the debit or credit side.
func (r *RawTransaction) SetAmount(amount decimal.Decimal, isCredit bool) {
	abs := amount.Abs()
	if isCredit {
		r.Credit, r.Debit = &abs, nil
		return
	}
	r.Debit, r.Credit = &abs, nil
}

// Amount returns the assigned magnitude and its direction.
func (r RawTransaction) Amount() (decimal.Decimal, bool) {
	switch {
	case r.Credit != nil:
		return *r.Credit, true
	case r.Debit != nil:
		return *r.Debit, false
	default:
		return decimal.Zero, false
	}
}

// Text joins the accumulated description fragments.
func (r RawTransaction) Text() string {
	return strings.Join(r.Description, " ")
}

// Draft holds the fields of a transaction before validation.
type Draft struct {
	Date         string
	Description  string
	Amount       decimal.Decimal
	Currency     string
	MerchantName string
	CardLastFour string
	IsCredit     bool
	OriginalLine string
	Provider     Provider
}

// ValidationError describes why a draft was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	cardTailPattern = regexp.MustCompile(`^\d{4}$`)
)

// Build validates the draft and produces the canonical record.
// The amount is rounded to two decimals before the magnitude is taken, so a
// value that rounds to zero is rejected.
func (d Draft) Build() (ParsedTransaction, error) {
	if !isoDatePattern.MatchString(d.Date) {
		return ParsedTransaction{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", d.Date)}
	}
	if _, err := time.Parse(time.DateOnly, d.Date); err != nil {
		return ParsedTransaction{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a calendar date", d.Date)}
	}

	description := strings.TrimSpace(d.Description)
	if description == "" {
		return ParsedTransaction{}, &ValidationError{Field: "description", Reason: "is empty"}
	}

	amount := d.Amount.Round(2).Abs()
	if amount.IsZero() {
		return ParsedTransaction{}, &ValidationError{Field: "amount", Reason: "must be non-zero"}
	}

	currency := money.NormalizeCode(d.Currency)
	if !money.IsSupported(currency) {
		return ParsedTransaction{}, &ValidationError{Field: "currency", Reason: fmt.Sprintf("%q is not supported", d.Currency)}
	}

	if d.CardLastFour != "" && !cardTailPattern.MatchString(d.CardLastFour) {
		return ParsedTransaction{}, &ValidationError{Field: "cardLastFour", Reason: fmt.Sprintf("%q is not four digits", d.CardLastFour)}
	}

	return ParsedTransaction{
		Date:         d.Date,
		Description:  description,
		Amount:       amount.InexactFloat64(),
		Currency:     currency,
		MerchantName: strings.TrimSpace(d.MerchantName),
		CardLastFour: d.CardLastFour,
		IsCredit:     d.IsCredit,
		OriginalLine: d.OriginalLine,
		Provider:     d.Provider,
	}, nil
}
