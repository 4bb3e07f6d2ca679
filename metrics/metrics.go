// Package metrics provides Prometheus instrumentation for the bot.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the bot's metrics. Build one per process.
type Collector struct {
	SnapshotsFetched   prometheus.Counter
	SnapshotFailures   prometheus.Counter
	MakerOrdersPlaced  prometheus.Counter
	MakerOrderFailures prometheus.Counter
	ReplenishPasses    prometheus.Counter
	TradeAttempts      prometheus.Counter
	TradesExecuted     *prometheus.CounterVec
	Kicks              prometheus.Counter
	MarketFailures     prometheus.Counter
	LoopIterations     prometheus.Counter
	DriftBps           *prometheus.GaugeVec
	FairMid            *prometheus.GaugeVec
	SnapshotLatency    prometheus.Histogram
}

// New registers the collectors with reg; a nil reg uses the default
// registerer (the normal case outside tests).
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		SnapshotsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_snapshots_fetched_total",
			Help: "Snapshot fetches that succeeded",
		}),
		SnapshotFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_snapshot_failures_total",
			Help: "Snapshot fetches that failed",
		}),
		MakerOrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_maker_orders_placed_total",
			Help: "Maker orders accepted by the venue",
		}),
		MakerOrderFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_maker_order_failures_total",
			Help: "Maker orders the venue rejected or that errored",
		}),
		ReplenishPasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_replenish_passes_total",
			Help: "Book replenishment passes run",
		}),
		TradeAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_trade_attempts_total",
			Help: "Taker attempts, successful or not",
		}),
		TradesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_trades_executed_total",
			Help: "Executions by path",
		}, []string{"path"}),
		Kicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_kicks_total",
			Help: "Forced aggressive orders after zero-trade iterations",
		}),
		MarketFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_market_failures_total",
			Help: "Markets whose iteration aborted on an error",
		}),
		LoopIterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulse_loop_iterations_total",
			Help: "Completed driver loop iterations",
		}),
		DriftBps: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulse_drift_bps",
			Help: "Current drift per market in basis points",
		}, []string{"market"}),
		FairMid: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulse_fair_mid",
			Help: "Last fair mid per market",
		}, []string{"market"}),
		SnapshotLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_snapshot_latency_seconds",
			Help:    "Latency of snapshot fetches",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// MarketLabel renders a market index as a metric label.
func MarketLabel(index int) string {
	return strconv.Itoa(index)
}

// StartServer exposes /metrics on addr; empty addr disables it.
func StartServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
