// Package metrics declares the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gastos"

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route, method and status.",
}, []string{"route", "method", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})

// ─── Config ─────────────────────────────────────────────────────────────────

var ConfigMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "config",
	Name:      "mutations_total",
	Help:      "Config mutations by operation and result.",
}, []string{"operation", "result"})

var SelectionsReconciled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "config",
	Name:      "selections_reconciled_total",
	Help:      "Loads where stale cash-flow selections were repaired and persisted.",
})

// ─── Sync ───────────────────────────────────────────────────────────────────

var SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "sync",
	Name:      "runs_total",
	Help:      "Workbook synchronizations by month mode and result.",
}, []string{"month_mode", "result"})

var SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "sync",
	Name:      "duration_seconds",
	Help:      "Workbook synchronization latency.",
	Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
})

var LastSyncTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "sync",
	Name:      "last_success_timestamp_seconds",
	Help:      "Unix time of the last successful synchronization.",
})

// ─── Variable expenses ──────────────────────────────────────────────────────

var VariableExpenses = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "variables",
	Name:      "processed_total",
	Help:      "Variable expenses by state transition.",
}, []string{"state"})

var PendingVariables = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "variables",
	Name:      "pending",
	Help:      "Variable expenses waiting to be written to the workbook.",
})

// ObserveHTTP records one request.
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
