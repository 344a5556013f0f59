package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Filter engine Prometheus metrics.
var (
	FilterEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glossameta",
			Name:      "filter_evaluations_total",
			Help:      "Total number of selection evaluations",
		},
		[]string{"operation", "status"},
	)

	FilterEvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "glossameta",
			Name:      "filter_evaluation_duration_seconds",
			Help:      "Selection evaluation duration in seconds",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		},
		[]string{"operation"},
	)

	FilterResultRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "glossameta",
			Name:      "filter_result_records",
			Help:      "Number of records matched by an evaluation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	IndexRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glossameta",
			Name:      "index_records",
			Help:      "Number of records in the loaded index",
		},
	)

	IndexReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glossameta",
			Name:      "index_reloads_total",
			Help:      "Dataset reloads by outcome",
		},
		[]string{"status"}, // "ok" / "error"
	)

	SessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "glossameta",
			Name:      "sessions_created_total",
			Help:      "Total number of filter sessions created",
		},
	)
)

var registerFilterOnce sync.Once

// RegisterFilterMetrics registers the filter engine metrics. Safe to call more than once.
func RegisterFilterMetrics() {
	registerFilterOnce.Do(func() {
		prometheus.MustRegister(
			FilterEvaluationsTotal,
			FilterEvaluationDuration,
			FilterResultRecords,
			IndexRecords,
			IndexReloadsTotal,
			SessionsCreatedTotal,
		)
	})
}
