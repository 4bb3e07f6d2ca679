// Package runner drives the whole bot: one pass over all eligible
// markets per interval, strictly sequential, with per-tier failure
// isolation so a bad order, market or iteration never stops the loop.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-pulse-go/gateway"
	"market-pulse-go/infrastructure/logger"
	"market-pulse-go/internal/liquidity"
	"market-pulse-go/internal/pricing"
	"market-pulse-go/internal/trade"
	"market-pulse-go/metrics"
	"market-pulse-go/report"
)

// Venue is the slice of the gateway the driver itself needs.
type Venue interface {
	FetchSnapshot(ctx context.Context) (*gateway.Snapshot, error)
}

// Tunables are the knobs safe to swap between iterations, fed by the
// config hot-reload watcher.
type Tunables struct {
	Interval    time.Duration
	MarketDelay time.Duration
	TradesMin   int
	TradesMax   int
	MinResting  int
}

// historyCap bounds the per-market execution price history kept for the
// sparkline.
const historyCap = 64

// Runner owns the drift map, the role-rotation cursor and the execution
// price history. All of them are mutated only between awaited steps of
// the single driver goroutine.
type Runner struct {
	Venue   Venue
	Makers  *liquidity.Engine
	Trades  *trade.Engine
	Drift   *pricing.DriftBook
	Log     *logger.Logger
	Metrics *metrics.Collector
	Rng     pricing.Rand

	Interval    time.Duration
	MarketDelay time.Duration
	ChartWidth  int
	Loops       int         // 0 runs forever
	Markets     map[int]bool // allow-list by index; empty allows all

	// OnIteration runs after every completed loop, e.g. watchdog pings.
	OnIteration func(loop int)

	// Sleep is the suspension point between markets and loops.
	Sleep func(ctx context.Context, d time.Duration)

	cursor  int
	history map[int][]float64

	mu      sync.Mutex
	pending *Tunables
}

// ApplyTunables stages new tunables; the loop picks them up at the top of
// its next iteration. Safe to call from the watcher goroutine.
func (r *Runner) ApplyTunables(t Tunables) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = &t
}

func (r *Runner) absorbTunables() {
	r.mu.Lock()
	t := r.pending
	r.pending = nil
	r.mu.Unlock()
	if t == nil {
		return
	}
	if t.Interval > 0 {
		r.Interval = t.Interval
	}
	if t.MarketDelay > 0 {
		r.MarketDelay = t.MarketDelay
	}
	if t.TradesMin > 0 {
		r.Trades.TradesMin = t.TradesMin
	}
	if t.TradesMax > 0 {
		r.Trades.TradesMax = t.TradesMax
	}
	if t.MinResting > 0 {
		r.Makers.MinResting = t.MinResting
	}
	if r.Log != nil {
		r.Log.Info("tunables applied")
	}
}

// Run loops until the context ends or the loop budget is spent. A failed
// iteration is logged and retried after the normal interval.
func (r *Runner) Run(ctx context.Context) error {
	if r.history == nil {
		r.history = make(map[int][]float64)
	}
	for loop := 0; r.Loops == 0 || loop < r.Loops; loop++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.absorbTunables()
		if err := r.iterate(ctx, loop); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if r.Log != nil {
				r.Log.LogError(err, map[string]interface{}{"loop": loop})
			}
		}
		if r.Metrics != nil {
			r.Metrics.LoopIterations.Inc()
		}
		if r.OnIteration != nil {
			r.OnIteration(loop)
		}
		r.sleep(ctx, r.Interval)
	}
	return nil
}

// iterate is the loop tier: fetch one snapshot, then step every eligible
// market in order, isolating each market's failure.
func (r *Runner) iterate(ctx context.Context, loop int) error {
	start := time.Now()
	snap, err := r.Venue.FetchSnapshot(ctx)
	if r.Metrics != nil {
		r.Metrics.SnapshotLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if r.Metrics != nil {
			r.Metrics.SnapshotFailures.Inc()
		}
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	if r.Metrics != nil {
		r.Metrics.SnapshotsFetched.Inc()
	}
	if snap.Warning != "" && r.Log != nil {
		r.Log.Warn("venue warning: " + snap.Warning)
	}

	eligible := 0
	for _, m := range snap.Markets {
		if len(r.Markets) > 0 && !r.Markets[m.Index] {
			continue
		}
		eligible++
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.stepMarket(ctx, m); err != nil {
			// Market tier: log and move on to the next market.
			if r.Metrics != nil {
				r.Metrics.MarketFailures.Inc()
			}
			if r.Log != nil {
				r.Log.LogError(err, map[string]interface{}{
					"loop": loop, "market": m.Index,
					"pair": m.BaseSymbol + "/" + m.QuoteSymbol,
				})
			}
		}
		r.sleep(ctx, r.MarketDelay)
	}
	if eligible == 0 && r.Log != nil {
		r.Log.Warn("no eligible markets in snapshot")
	}
	return nil
}

// stepMarket processes one market: advance the drift, seed the maker
// ladder, replenish thin sides, then run the trade attempt loop.
func (r *Runner) stepMarket(ctx context.Context, m gateway.MarketView) error {
	drift := r.Drift.Update(m.Index, r.Rng)
	ref := pricing.NewRef(m, drift)
	if r.Metrics != nil {
		label := metrics.MarketLabel(m.Index)
		r.Metrics.DriftBps.WithLabelValues(label).Set(drift)
		r.Metrics.FairMid.WithLabelValues(label).Set(ref.FairMid)
	}

	makers := r.Makers.SeedLadder(ctx, m, ref, &r.cursor)
	m = r.Makers.Replenish(ctx, m, ref, &r.cursor)
	out := r.Trades.Run(ctx, m, &ref, &r.cursor)

	r.record(m.Index, out.Prices)
	if r.Log != nil {
		r.Log.Info(fmt.Sprintf(
			"%s/%s fair=%s drift=%+.0fbps makers=%d trades=%d/%d attempts=%d kicked=%t %s",
			m.BaseSymbol, m.QuoteSymbol,
			report.FormatPriceAdaptive(ref.FairMid),
			r.Drift.Get(m.Index),
			makers, out.Trades, out.Target, out.Attempts, out.Kicked,
			report.Sparkline(r.history[m.Index], r.ChartWidth),
		))
	}
	return ctx.Err()
}

func (r *Runner) record(market int, prices []float64) {
	h := append(r.history[market], prices...)
	if len(h) > historyCap {
		h = h[len(h)-historyCap:]
	}
	r.history[market] = h
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(ctx, d)
		return
	}
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
