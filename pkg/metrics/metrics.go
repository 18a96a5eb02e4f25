// Package metrics exposes Prometheus counters for statement imports.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeEmpty   = "empty"
)

// ImportMetrics groups the importer's collectors on a private registry.
// A nil *ImportMetrics is valid and records nothing.
type ImportMetrics struct {
	Registry     *prometheus.Registry
	Imports      *prometheus.CounterVec
	Transactions *prometheus.CounterVec
	Duplicates   *prometheus.CounterVec
	ParseErrors  *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
}

// Observation is the summary of one imported document.
type Observation struct {
	Provider   string
	Source     string // text, csv, xlsx, pdf
	Outcome    string
	Unique     int
	Duplicates int
	Errors     int
	Elapsed    time.Duration
}

// New registers the collectors on a fresh registry.
func New() *ImportMetrics {
	m := &ImportMetrics{
		Registry: prometheus.NewRegistry(),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "documents_total",
			Help:      "Imported documents by provider and outcome.",
		}, []string{"provider", "outcome"}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "transactions_total",
			Help:      "Unique transactions handed to the ledger.",
		}, []string{"provider"}),
		Duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "duplicates_total",
			Help:      "Transactions dropped as duplicates.",
		}, []string{"provider"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "parse_errors_total",
			Help:      "Row and document errors reported by parsers.",
		}, []string{"provider"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statement_import",
			Name:      "duration_seconds",
			Help:      "Time spent parsing and deduplicating one document.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"source"}),
	}
	m.Registry.MustRegister(m.Imports, m.Transactions, m.Duplicates, m.ParseErrors, m.Duration)
	return m
}

// Observe records one document.
func (m *ImportMetrics) Observe(o Observation) {
	if m == nil {
		return
	}
	provider := o.Provider
	if provider == "" {
		provider = "unknown"
	}

	m.Imports.WithLabelValues(provider, o.Outcome).Inc()
	m.Transactions.WithLabelValues(provider).Add(float64(o.Unique))
	m.Duplicates.WithLabelValues(provider).Add(float64(o.Duplicates))
	m.ParseErrors.WithLabelValues(provider).Add(float64(o.Errors))
	m.Duration.WithLabelValues(o.Source).Observe(o.Elapsed.Seconds())
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *ImportMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
