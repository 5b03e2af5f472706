// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Daily run metrics
var (
	// RunsTotal counts orchestrator runs by outcome (completed, failed, rejected).
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmind_runs_total",
			Help: "Daily runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks how long completed runs take.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockmind_run_duration_seconds",
			Help:    "Duration of completed daily runs in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	// TagAssessmentsTotal counts per-tag attempts by outcome (created, failed).
	TagAssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmind_tag_assessments_total",
			Help: "Per-tag assessment attempts by outcome",
		},
		[]string{"outcome"},
	)

	// DigestsTotal counts digest deliveries by outcome (sent, failed).
	DigestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmind_digests_total",
			Help: "Digest email deliveries by outcome",
		},
		[]string{"outcome"},
	)
)

// Generation metrics
var (
	// GenerationDuration tracks provider latency by request format.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockmind_generation_duration_seconds",
			Help:    "Text generation call duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"format"},
	)

	// GenerationErrorsTotal counts failed generation calls by format.
	GenerationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockmind_generation_errors_total",
			Help: "Failed text generation calls by format",
		},
		[]string{"format"},
	)

	// CircuitBreakerState tracks breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockmind_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)
