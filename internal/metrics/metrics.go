// Package metrics exposes Prometheus instrumentation for the checkout and
// order-fulfillment paths.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	checkoutsTotal         *prometheus.CounterVec
	checkoutDuration       prometheus.Histogram
	orderTransitionsTotal  *prometheus.CounterVec
	stockConflictsTotal    prometheus.Counter
	idempotentReplaysTotal prometheus.Counter
)

// Register initializes the collectors on the given registerer and returns the
// handler for /metrics. Safe to call more than once; registration happens on
// the first call.
func Register(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	registerOnce.Do(func() {
		checkoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout attempts by outcome",
		}, []string{"outcome"}) // outcome: success|insufficient_stock|invalid|error

		checkoutDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of the checkout transaction",
			Buckets: prometheus.DefBuckets,
		})

		orderTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status transitions by target status and result",
		}, []string{"status", "result"}) // result: applied|rejected|conflict

		stockConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_decrement_conflicts_total",
			Help: "Conditional stock decrements lost to a concurrent checkout",
		})

		idempotentReplaysTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkout_idempotent_replays_total",
			Help: "Checkout requests answered from an existing order via idempotency key",
		})

		reg.MustRegister(checkoutsTotal, checkoutDuration, orderTransitionsTotal, stockConflictsTotal, idempotentReplaysTotal)
	})

	return promhttp.Handler()
}

func ObserveCheckout(outcome string, seconds float64) {
	if checkoutsTotal == nil {
		return
	}
	checkoutsTotal.WithLabelValues(outcome).Inc()
	checkoutDuration.Observe(seconds)
}

func ObserveTransition(status, result string) {
	if orderTransitionsTotal == nil {
		return
	}
	orderTransitionsTotal.WithLabelValues(status, result).Inc()
}

func ObserveStockConflict() {
	if stockConflictsTotal != nil {
		stockConflictsTotal.Inc()
	}
}

func ObserveIdempotentReplay() {
	if idempotentReplaysTotal != nil {
		idempotentReplaysTotal.Inc()
	}
}
