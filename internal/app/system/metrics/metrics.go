// Package metrics holds the process-wide Prometheus collectors and the
// /metrics handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BriefWrites counts embedded brief writes by pass ("refresh",
	// "reconcile", "contributor") and outcome ("ok", "failed").
	BriefWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preemhub_brief_writes_total",
		Help: "Descendant brief writes by pass and outcome",
	}, []string{"pass", "outcome"})

	// TreeAssemblyDuration tracks tree assembly latency by root kind.
	TreeAssemblyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "preemhub_tree_assembly_duration_seconds",
		Help:    "Tree assembly duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"kind"})

	// TreeAssemblyErrors counts failed assemblies by root kind.
	TreeAssemblyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preemhub_tree_assembly_errors_total",
		Help: "Failed tree assemblies by root kind",
	}, []string{"kind"})

	// LedgerOps counts ledger operations by op and result.
	LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preemhub_ledger_operations_total",
		Help: "Ledger operations by operation and result",
	}, []string{"op", "result"})

	// StatusTransitions counts preem status changes by target status.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preemhub_preem_status_transitions_total",
		Help: "Preem status transitions by target status",
	}, []string{"to"})

	// URLRewrites counts rewrite middleware decisions ("rewritten",
	// "passthrough").
	URLRewrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preemhub_url_rewrites_total",
		Help: "URL rewrite decisions by result",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
