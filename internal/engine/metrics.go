package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's Prometheus collectors.
type Metrics struct {
	Statements    *prometheus.CounterVec
	ScopeRewrites *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sqlguard",
				Name:      "statements_total",
				Help:      "Statements executed through the interceptor chain, by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		ScopeRewrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sqlguard",
				Name:      "scope_rewrites_total",
				Help:      "Statements narrowed by a data scope filter.",
			},
			[]string{"kind"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sqlguard",
				Name:      "statement_duration_seconds",
				Help:      "Time spent intercepting and executing a statement.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Statements, m.ScopeRewrites, m.Duration)
	}
	return m
}
