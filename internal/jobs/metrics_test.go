package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("ledger:integrity").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("ledger:integrity").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:integrity", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:integrity", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("ledger:integrity")))
}

func TestAddUnbalanced(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddUnbalanced(0)
	m.AddUnbalanced(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.unbalanced))

	var nilMetrics *Metrics
	nilMetrics.AddUnbalanced(1)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
