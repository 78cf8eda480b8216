// Package metrics provides Prometheus metrics for the lab dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeCompleted  = "completed"
	OutcomeErrored    = "errored"
	OutcomeSuperseded = "superseded"
	OutcomeSent       = "sent"
	OutcomeFailed     = "failed"
	OutcomeRejected   = "rejected"
)

var (
	// SearchesTotal counts search queries by whether anything matched.
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labdash",
			Name:      "searches_total",
			Help:      "Total number of search queries",
		},
		[]string{"matched"},
	)

	// AIRunsTotal counts AI suggestion runs by outcome.
	AIRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labdash",
			Name:      "ai_runs_total",
			Help:      "Total number of AI suggestion runs",
		},
		[]string{"outcome"},
	)

	// AIRunDuration measures how long a run took to reach a terminal frame.
	AIRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "labdash",
			Name:      "ai_run_duration_seconds",
			Help:      "Duration of AI suggestion runs in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	// EmailsTotal counts collaboration email attempts by outcome.
	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labdash",
			Name:      "emails_total",
			Help:      "Total number of collaboration email attempts",
		},
		[]string{"outcome"},
	)

	// ActiveSessions tracks open dashboard sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "labdash",
			Name:      "active_sessions",
			Help:      "Number of open dashboard sessions",
		},
	)
)

// RecordSearch records a search query.
func RecordSearch(matches int) {
	matched := "false"
	if matches > 0 {
		matched = "true"
	}
	SearchesTotal.WithLabelValues(matched).Inc()
}

// RecordAIRun records the end of an AI run.
func RecordAIRun(outcome string, duration float64) {
	AIRunsTotal.WithLabelValues(outcome).Inc()
	AIRunDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordEmail records a send attempt.
func RecordEmail(outcome string) {
	EmailsTotal.WithLabelValues(outcome).Inc()
}
