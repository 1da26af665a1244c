// Package metrics provides Prometheus instrumentation for the ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SettlementsTotal counts committed settlements by game and outcome.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_settlements_total",
		Help: "Total number of committed settlements",
	}, []string{"game", "outcome"})

	// SettlementFailures counts rejected settlements by failure reason.
	SettlementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_settlement_failures_total",
		Help: "Settlements rejected before commit",
	}, []string{"reason"})

	// DepositsTotal counts committed deposits.
	DepositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_deposits_total",
		Help: "Total number of committed deposits",
	})

	// RakebackPaid accumulates rakeback paid out through claims, in dollars.
	RakebackPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_rakeback_paid_dollars_total",
		Help: "Cumulative rakeback paid out through claims",
	})

	// WageredTotal accumulates wagering volume across all accounts, in dollars.
	WageredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_wagered_dollars_total",
		Help: "Cumulative wagering volume",
	})

	// FeedSubscribers tracks active account change feed subscriptions.
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_feed_subscribers",
		Help: "Number of active change feed subscriptions",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
