package reporter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reporter_results_total",
		Help: "The total number of host results ingested",
	}, []string{"category", "status"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reporter_runs_total",
		Help: "The total number of runner invocations",
	}, []string{"kind", "outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reporter_run_duration_seconds",
		Help:    "The duration of runner invocations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

// observeResult counts one ingested host result.
func observeResult(category Category, status Status) {
	resultsTotal.WithLabelValues(string(category), string(status)).Inc()
}

// observeRun records one runner invocation and its duration.
func observeRun(kind string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	runsTotal.WithLabelValues(kind, outcome).Inc()
	runDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
