// Package metrics holds the engine's Prometheus collectors. Registered via
// promauto on the default registry; exposed by the ops server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provcore_reconcile_outcomes_total",
		Help: "Deposit reconciliation results by outcome",
	}, []string{"outcome"})

	JobPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provcore_job_passes_total",
		Help: "Periodic job passes by result",
	}, []string{"job", "result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provcore_job_pass_duration_seconds",
		Help:    "Periodic job pass duration",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"job"})

	ExternalRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provcore_external_runs_total",
		Help: "External provisioning/management runs by result",
	}, []string{"script", "result"})

	LockRegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "provcore_lock_registry_entries",
		Help: "Entries currently held in the order lock registry",
	})
)
