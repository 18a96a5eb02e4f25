package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.Observe(Observation{Provider: "bourso", Source: "pdf", Outcome: OutcomeSuccess, Unique: 5, Duplicates: 2, Errors: 1, Elapsed: 20 * time.Millisecond})
	m.Observe(Observation{Provider: "bourso", Source: "text", Outcome: OutcomeSuccess, Unique: 1})
	m.Observe(Observation{Source: "text", Outcome: OutcomeFailure, Errors: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Imports.WithLabelValues("bourso", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("unknown", OutcomeFailure)))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.Transactions.WithLabelValues("bourso")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Duplicates.WithLabelValues("bourso")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestNilMetrics(t *testing.T) {
	var m *ImportMetrics
	assert.NotPanics(t, func() { m.Observe(Observation{Provider: "bpi"}) })
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(Observation{Provider: "gnosis_pay", Source: "csv", Outcome: OutcomeSuccess, Unique: 3})

	path := filepath.Join(t.TempDir(), "import.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `statement_import_transactions_total{provider="gnosis_pay"} 3`))
}
