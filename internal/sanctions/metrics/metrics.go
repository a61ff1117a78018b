package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for sanctions screening.
type Metrics struct {
	// Provider lookup latency by outcome ("ok" or a failure category)
	LookupLatency *prometheus.HistogramVec

	// Screening verdicts by risk level
	RiskOutcome *prometheus.CounterVec

	// Names per bulk request
	BatchSize prometheus.Histogram

	// Full bulk evaluation latency
	BatchLatency prometheus.Histogram

	// Events dropped by the publisher
	EventsDropped prometheus.Counter
}

// New registers sanctions metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers sanctions metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sdnguard",
			Subsystem: "watchlist",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of sanctions provider lookups by outcome",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		RiskOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdnguard",
			Subsystem: "screening",
			Name:      "risk_outcomes_total",
			Help:      "Total screening verdicts by risk level",
		}, []string{"risk_level"}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sdnguard",
			Subsystem: "screening",
			Name:      "batch_size",
			Help:      "Number of names per bulk screening request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),

		BatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sdnguard",
			Subsystem: "screening",
			Name:      "batch_duration_seconds",
			Help:      "Duration of bulk screening including all provider lookups",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sdnguard",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Screening events that could not be published",
		}),
	}
}

// ObserveLookup records one provider lookup.
func (m *Metrics) ObserveLookup(outcome string, d time.Duration) {
	if m != nil {
		m.LookupLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementRisk records one screening verdict.
func (m *Metrics) IncrementRisk(level string) {
	if m != nil {
		m.RiskOutcome.WithLabelValues(level).Inc()
	}
}

// ObserveBatch records the size and duration of a bulk screening.
func (m *Metrics) ObserveBatch(size int, d time.Duration) {
	if m != nil {
		m.BatchSize.Observe(float64(size))
		m.BatchLatency.Observe(d.Seconds())
	}
}

// IncrementEventsDropped counts an event the publisher gave up on.
func (m *Metrics) IncrementEventsDropped() {
	if m != nil {
		m.EventsDropped.Inc()
	}
}
