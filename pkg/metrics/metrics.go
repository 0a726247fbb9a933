package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "snaptext"

var (
	// runsTotal counts completed pipeline runs by classified outcome.
	// Labels:
	//   - outcome: text, no_text, provider_error, transport_error,
	//     acquire_error, unexpected_error
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of image-to-text pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// runDuration measures end-to-end pipeline run time, from processing
	// notice to final reply.
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end duration of one pipeline run in seconds",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 7, 10, 15, 20, 30, 45, 60},
		},
	)

	// membershipDecisions counts membership gate outcomes.
	// Labels:
	//   - decision: allowed, denied
	membershipDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "membership",
			Name:      "decisions_total",
			Help:      "Total number of membership gate decisions",
		},
		[]string{"decision"},
	)
)

const (
	decisionAllowed = "allowed"
	decisionDenied  = "denied"
)

// RecordRun records one finished pipeline run.
func RecordRun(outcome string, durationSeconds float64) {
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(durationSeconds)
}

// RecordMembership records one membership gate decision.
func RecordMembership(allowed bool) {
	decision := decisionAllowed
	if !allowed {
		decision = decisionDenied
	}
	membershipDecisions.WithLabelValues(decision).Inc()
}
