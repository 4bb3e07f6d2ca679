package trade

import (
	"context"
	"math"

	"market-pulse-go/gateway"
	"market-pulse-go/infrastructure/logger"
	"market-pulse-go/internal/liquidity"
	"market-pulse-go/internal/pricing"
	"market-pulse-go/internal/roles"
	"market-pulse-go/metrics"
)

// Venue is the slice of the gateway the selector needs.
type Venue interface {
	FetchSnapshot(ctx context.Context) (*gateway.Snapshot, error)
	TriggerOrder(ctx context.Context, req gateway.TriggerOrderRequest) (*gateway.OrderResult, error)
	ExecuteOrder(ctx context.Context, req gateway.ExecuteOrderRequest) (*gateway.OrderResult, error)
}

// Engine runs the per-market trade attempt loop. Trades are best-effort:
// the loop stops at the target count or when the attempt budget is spent,
// and a zero-trade market gets kicked.
type Engine struct {
	Venue   Venue
	Makers  *liquidity.Engine
	Drift   *pricing.DriftBook
	Log     *logger.Logger
	Metrics *metrics.Collector
	Rng     pricing.Rand

	TradesMin  int
	TradesMax  int
	PickWindow int
	RoleSlots  int
}

// Outcome summarizes one market's trade phase for reporting.
type Outcome struct {
	Target   int
	Trades   int
	Attempts int
	Kicked   bool
	Prices   []float64
}

// Run executes the attempt loop of one market iteration. ref is repriced
// in place whenever the drift moves.
func (e *Engine) Run(ctx context.Context, m gateway.MarketView, ref *pricing.Ref, cursor *int) Outcome {
	lo, hi := e.TradesMin, e.TradesMax
	if hi < lo {
		hi = lo
	}
	target := lo + e.Rng.Intn(hi-lo+1)
	budget := 9 * target
	if budget < 14 {
		budget = 14
	}

	out := Outcome{Target: target}
	misses := 0
	for attempt := 0; attempt < budget && out.Trades < target; attempt++ {
		out.Attempts++
		if e.Metrics != nil {
			e.Metrics.TradeAttempts.Inc()
		}
		if attempt%2 == 0 {
			if fresh, ok := e.refresh(ctx, m.Index); ok {
				m = fresh
			}
		}

		buys, sells := liquidity.RestingCounts(m)
		if buys < e.Makers.MinResting/2 || sells < e.Makers.MinResting/2 {
			e.Makers.ReplenishPass(ctx, m, *ref, cursor)
		}

		price, side, executed := e.takeFromBook(ctx, m, *ref, cursor)
		if !executed {
			price, side, executed = e.fireAggressive(ctx, m, *ref, cursor, e.biasedSide(m.Index), "aggressive")
		}

		if executed {
			out.Trades++
			out.Prices = append(out.Prices, price)
			drift := e.Drift.Nudge(m.Index, side, e.Rng)
			ref.Reprice(drift)
			continue
		}

		misses++
		if misses%4 == 0 {
			// Keep depth from draining while attempts keep missing.
			side := gateway.SideBuy
			if e.Rng.Float64() < 0.5 {
				side = gateway.SideSell
			}
			e.Makers.PlaceMaker(ctx, m, *ref, side, 1+e.Rng.Intn(2), cursor)
		}
		ref.Reprice(e.Drift.Get(m.Index))
	}

	if out.Trades == 0 {
		out.Kicked = true
		if e.Metrics != nil {
			e.Metrics.Kicks.Inc()
		}
		for _, side := range []gateway.Side{gateway.SideBuy, gateway.SideSell} {
			if price, s, ok := e.fireAggressive(ctx, m, *ref, cursor, side, "kick"); ok {
				out.Trades++
				out.Prices = append(out.Prices, price)
				drift := e.Drift.Nudge(m.Index, s, e.Rng)
				ref.Reprice(drift)
			}
		}
	}
	return out
}

// takeFromBook tries to execute against a resting order picked by the
// weighted window around a randomized target price. Venue errors (stale
// order, liquidity mismatch) mean "no execution this attempt".
func (e *Engine) takeFromBook(ctx context.Context, m gateway.MarketView, ref pricing.Ref, cursor *int) (float64, gateway.Side, bool) {
	candidates := BoundedCandidates(m, ref.Bounds)
	if len(candidates) == 0 {
		return 0, "", false
	}
	target := ref.FairMid * (1 + pricing.Uniform(e.Rng, -240, 240)/10000)
	pick, ok := SelectByWeightedWindow(candidates, target, e.PickWindow, e.Rng)
	if !ok {
		return 0, "", false
	}

	amount := pricing.ScaleAmount(ref.AmountBase, pricing.Uniform(e.Rng, 0.45, 1.6))
	remaining := int64(math.Floor(gateway.ParseDecimal(pick.RemainingBase)))
	if remaining >= 1 && amount > remaining {
		amount = remaining
	}
	side := pick.Side.Opposite()
	role := roles.Pick(m.Balances, side, amount, pick.Price(), *cursor, e.RoleSlots)
	*cursor++

	res, err := e.Venue.ExecuteOrder(ctx, gateway.ExecuteOrderRequest{
		Market:     m.Index,
		OrderID:    pick.ID,
		AmountBase: amount,
		ActorRole:  role,
	})
	if err != nil || !res.OK || !res.Executed {
		if e.Log != nil && err != nil {
			e.Log.LogOrder("take_missed", map[string]interface{}{
				"market": m.Index, "orderId": pick.ID, "error": err.Error(),
			})
		}
		return 0, "", false
	}

	price := res.RealizedPrice()
	if price <= 0 {
		price = pick.Price()
	}
	if e.Metrics != nil {
		e.Metrics.TradesExecuted.WithLabelValues("book").Inc()
	}
	if e.Log != nil {
		e.Log.LogTrade("take_executed", map[string]interface{}{
			"market": m.Index, "orderId": pick.ID, "side": side,
			"amount": amount, "price": price, "role": role,
		})
	}
	return price, side, true
}

// fireAggressive submits a trigger/market order. Buys carry a generous
// quote ceiling derived from the dearest reference price in sight.
func (e *Engine) fireAggressive(ctx context.Context, m gateway.MarketView, ref pricing.Ref, cursor *int, side gateway.Side, path string) (float64, gateway.Side, bool) {
	amount := pricing.ScaleAmount(ref.AmountBase, pricing.Uniform(e.Rng, 0.65, 1.9))
	role := roles.Pick(m.Balances, side, amount, ref.FairMid, *cursor, e.RoleSlots)
	*cursor++

	req := gateway.TriggerOrderRequest{
		Market:     m.Index,
		Side:       side,
		AmountBase: amount,
		ActorRole:  role,
	}
	if side == gateway.SideBuy {
		maxQuoteRef := ref.FairMid
		if ref.Mid > maxQuoteRef {
			maxQuoteRef = ref.Mid
		}
		if ask := gateway.ParseDecimal(m.BestAsk); ask > maxQuoteRef {
			maxQuoteRef = ask
		}
		req.MaxQuote = int64(math.Ceil(maxQuoteRef * float64(amount) * 2.8))
	}

	res, err := e.Venue.TriggerOrder(ctx, req)
	if err != nil || !res.OK || !res.Executed {
		if e.Log != nil && err != nil {
			e.Log.LogOrder("trigger_missed", map[string]interface{}{
				"market": m.Index, "side": side, "path": path, "error": err.Error(),
			})
		}
		return 0, "", false
	}

	price := res.RealizedPrice()
	if price <= 0 {
		price = ref.FairMid
	}
	if e.Metrics != nil {
		e.Metrics.TradesExecuted.WithLabelValues(path).Inc()
	}
	if e.Log != nil {
		e.Log.LogTrade("trigger_executed", map[string]interface{}{
			"market": m.Index, "side": side, "path": path,
			"amount": amount, "price": price, "role": role,
		})
	}
	return price, side, true
}

// biasedSide leans 60/40 toward the drift's sign: upward drift buys more.
func (e *Engine) biasedSide(market int) gateway.Side {
	buyChance := 0.4
	if e.Drift.Get(market) >= 0 {
		buyChance = 0.6
	}
	if e.Rng.Float64() < buyChance {
		return gateway.SideBuy
	}
	return gateway.SideSell
}

func (e *Engine) refresh(ctx context.Context, index int) (gateway.MarketView, bool) {
	snap, err := e.Venue.FetchSnapshot(ctx)
	if err != nil {
		if e.Log != nil {
			e.Log.LogError(err, map[string]interface{}{"market": index, "op": "refresh"})
		}
		return gateway.MarketView{}, false
	}
	return snap.Market(index)
}
