// Package observability provides Prometheus metrics for monitoring
// verification runs in serve mode.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ScenariosTotal counts scenario executions by scenario name and outcome.
	ScenariosTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probelauf_scenarios_total",
			Help: "Scenario executions",
		},
		[]string{"scenario", "status"},
	)

	// ScenarioDuration records scenario duration in seconds by scenario name.
	ScenarioDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "probelauf_scenario_duration_seconds",
			Help:    "Scenario duration",
			Buckets: LLMBuckets,
		},
		[]string{"scenario"},
	)

	// FragmentsTotal counts streamed text fragments received.
	FragmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "probelauf_fragments_total",
			Help: "Streamed fragments received",
		},
	)

	// RunsTotal counts full verification runs by overall outcome.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probelauf_runs_total",
			Help: "Verification runs",
		},
		[]string{"status"},
	)

	// LastRunSuccess reports whether the most recent run passed (1) or failed (0).
	LastRunSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "probelauf_last_run_success",
			Help: "Whether the last run passed",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ScenariosTotal,
		ScenarioDuration,
		FragmentsTotal,
		RunsTotal,
		LastRunSuccess,
	)
}
