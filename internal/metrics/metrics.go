package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sync and reconcile Prometheus metrics.
var (
	SyncActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syncdex",
			Name:      "sync_actions_total",
			Help:      "Total number of lifecycle-event sync outcomes",
		},
		[]string{"index", "action", "outcome"}, // outcome: "written" / "skipped" / "deduped" / "failed"
	)

	ReconcileDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syncdex",
			Name:      "reconcile_documents_total",
			Help:      "Total documents processed by populate and prune",
		},
		[]string{"index", "operation", "outcome"},
	)

	RemoteCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "syncdex",
			Name:      "remote_call_duration_seconds",
			Help:      "Search engine call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syncdex",
			Name:      "queries_total",
			Help:      "Total executed search and count queries",
		},
		[]string{"index", "kind", "saved"},
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers Prometheus sync metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(SyncActionsTotal)
	prometheus.MustRegister(ReconcileDocumentsTotal)
	prometheus.MustRegister(RemoteCallDuration)
	prometheus.MustRegister(QueriesTotal)
	syncMetricsRegistered = true
}
