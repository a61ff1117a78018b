package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLookup("ok", time.Millisecond)
		m.IncrementRisk("CLEAR")
		m.ObserveBatch(3, time.Second)
		m.IncrementEventsDropped()
	})
}

func TestIncrementRisk(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementRisk("CRITICAL")
	m.IncrementRisk("CRITICAL")
	m.IncrementRisk("UNKNOWN")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RiskOutcome.WithLabelValues("CRITICAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RiskOutcome.WithLabelValues("UNKNOWN")))
}
