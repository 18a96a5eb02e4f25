package parser

import (
	"errors"

	"github.com/FACorreiaa/statement-import/internal/domain/import/transaction"
)

// ErrUnknownProvider is returned when no registered parser claims the content.
var ErrUnknownProvider = errors.New("unknown provider: no parser recognised the content")

// Registry holds parsers in an explicit detection order fixed at construction.
type Registry[C any] struct {
	parsers []Detector[C]
}

// NewRegistry creates a registry that tries parsers in the given order.
func NewRegistry[C any](parsers ...Detector[C]) *Registry[C] {
	return &Registry[C]{parsers: append([]Detector[C](nil), parsers...)}
}

// Detect returns the first parser whose CanParse accepts the content.
// It never falls back to a default parser.
func (r *Registry[C]) Detect(content C) (Detector[C], error) {
	for _, p := range r.parsers {
		if p.CanParse(content) {
			return p, nil
		}
	}
	return nil, ErrUnknownProvider
}

// Lookup returns the parser registered for provider.
func (r *Registry[C]) Lookup(provider transaction.Provider) (Detector[C], bool) {
	for _, p := range r.parsers {
		if p.Provider() == provider {
			return p, true
		}
	}
	return nil, false
}

// Providers lists the registered providers in detection order.
func (r *Registry[C]) Providers() []transaction.Provider {
	out := make([]transaction.Provider, len(r.parsers))
	for i, p := range r.parsers {
		out[i] = p.Provider()
	}
	return out
}
