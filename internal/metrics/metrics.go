// Package metrics exposes the process's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransactionsTotal counts executor operations by kind and outcome.
	// op is one of transfer, withdraw, deposit; status is ok or the failed
	// invariant (invalid_amount, holder_not_found, account_not_found,
	// insufficient_funds, persistence, error).
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minibank_transactions_total",
		Help: "Ledger operations processed, by operation and outcome.",
	}, []string{"op", "status"})

	// SnapshotWritesTotal counts snapshot persists by outcome.
	SnapshotWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minibank_snapshot_writes_total",
		Help: "Snapshot writes attempted, by outcome.",
	}, []string{"status"})

	// RequestsTotal counts HTTP requests by method and response class.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minibank_http_requests_total",
		Help: "HTTP requests served, by method and status class.",
	}, []string{"method", "class"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
