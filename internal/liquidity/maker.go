// Package liquidity keeps both sides of a market's book populated with
// ladder-style maker orders.
package liquidity

import (
	"context"
	"time"

	"market-pulse-go/gateway"
	"market-pulse-go/infrastructure/logger"
	"market-pulse-go/internal/pricing"
	"market-pulse-go/internal/roles"
	"market-pulse-go/metrics"
)

// Venue is the slice of the gateway the maintainer needs.
type Venue interface {
	FetchSnapshot(ctx context.Context) (*gateway.Snapshot, error)
	SubmitLimitOrder(ctx context.Context, req gateway.LimitOrderRequest) (*gateway.OrderResult, error)
}

// levelStepBps is the extra offset added per ladder level.
const levelStepBps = 18

// Engine places maker orders and runs replenishment passes. Placement
// failures are counted, never propagated; a thin book after all passes is
// accepted.
type Engine struct {
	Venue   Venue
	Log     *logger.Logger
	Metrics *metrics.Collector
	Rng     pricing.Rand

	OffsetBps  float64
	Levels     int
	MinResting int
	MaxPasses  int
	RoleSlots  int
	Delay      time.Duration

	// Sleep is the suspension point between passes; tests replace it.
	Sleep func(ctx context.Context, d time.Duration)
}

// PlaceMaker submits one resting order at the given ladder level.
// Returns whether the venue accepted it.
func (e *Engine) PlaceMaker(ctx context.Context, m gateway.MarketView, ref pricing.Ref, side gateway.Side, level int, cursor *int) bool {
	if level < 1 {
		level = 1
	}
	offset := (e.OffsetBps + float64(level-1)*levelStepBps) / 10000
	price := ref.FairMid * (1 + offset)
	if side == gateway.SideBuy {
		price = ref.FairMid * (1 - offset)
	}
	price = ref.Bounds.Clamp(price)

	amount := pricing.ScaleAmount(ref.AmountBase, pricing.Uniform(e.Rng, 0.7, 1.45))
	role := roles.Pick(m.Balances, side, amount, price, *cursor, e.RoleSlots)
	*cursor++

	res, err := e.Venue.SubmitLimitOrder(ctx, gateway.LimitOrderRequest{
		Market:            m.Index,
		Side:              side,
		AmountBase:        amount,
		PriceQuotePerBase: gateway.FormatDecimal(price),
		ActorRole:         role,
	})
	if err != nil || !res.OK {
		if e.Metrics != nil {
			e.Metrics.MakerOrderFailures.Inc()
		}
		if e.Log != nil {
			fields := map[string]interface{}{
				"market": m.Index, "side": side, "level": level, "price": price,
			}
			if err != nil {
				fields["error"] = err.Error()
			} else {
				fields["error"] = res.Error
			}
			e.Log.LogOrder("maker_rejected", fields)
		}
		return false
	}
	if e.Metrics != nil {
		e.Metrics.MakerOrdersPlaced.Inc()
	}
	if e.Log != nil {
		e.Log.LogOrder("maker_placed", map[string]interface{}{
			"market": m.Index, "side": side, "level": level,
			"price": price, "amount": amount, "role": role, "orderId": res.OrderID,
		})
	}
	return true
}

// SeedLadder places one buy and one sell per level, walking outward from
// the fair mid. Returns the number of accepted orders.
func (e *Engine) SeedLadder(ctx context.Context, m gateway.MarketView, ref pricing.Ref, cursor *int) int {
	placed := 0
	for level := 1; level <= e.Levels; level++ {
		if e.PlaceMaker(ctx, m, ref, gateway.SideBuy, level, cursor) {
			placed++
		}
		if e.PlaceMaker(ctx, m, ref, gateway.SideSell, level, cursor) {
			placed++
		}
	}
	return placed
}

// RestingCounts returns the per-side live order counts, maxed with the
// aggregated depth counts when depth is present. The two sources are not
// reconciled; the result is a heuristic upper bound.
func RestingCounts(m gateway.MarketView) (buys, sells int) {
	for _, o := range m.Orders {
		if !o.Live() {
			continue
		}
		if o.Side == gateway.SideBuy {
			buys++
		} else {
			sells++
		}
	}
	if m.Depth != nil {
		depthBuys, depthSells := 0, 0
		for _, lvl := range m.Depth.Bids {
			depthBuys += lvl.Orders
		}
		for _, lvl := range m.Depth.Asks {
			depthSells += lvl.Orders
		}
		if depthBuys > buys {
			buys = depthBuys
		}
		if depthSells > sells {
			sells = depthSells
		}
	}
	return buys, sells
}

// ReplenishPass tops up each side toward MinResting once. The ladder
// level climbs every two placed orders. Returns how many orders were
// attempted per side.
func (e *Engine) ReplenishPass(ctx context.Context, m gateway.MarketView, ref pricing.Ref, cursor *int) (buyOrders, sellOrders int) {
	buys, sells := RestingCounts(m)
	missBuy := e.MinResting - buys
	if missBuy < 0 {
		missBuy = 0
	}
	missSell := e.MinResting - sells
	if missSell < 0 {
		missSell = 0
	}

	placed := 0
	level := 1
	for i := 0; i < missBuy; i++ {
		e.PlaceMaker(ctx, m, ref, gateway.SideBuy, level, cursor)
		placed++
		if placed%2 == 0 {
			level++
		}
	}
	for i := 0; i < missSell; i++ {
		e.PlaceMaker(ctx, m, ref, gateway.SideSell, level, cursor)
		placed++
		if placed%2 == 0 {
			level++
		}
	}
	if e.Metrics != nil && placed > 0 {
		e.Metrics.ReplenishPasses.Inc()
	}
	return missBuy, missSell
}

// Replenish runs bounded passes until both sides meet MinResting or the
// pass budget is spent. Best-effort: a still-thin book is not an error.
// Returns the freshest market view it holds.
func (e *Engine) Replenish(ctx context.Context, m gateway.MarketView, ref pricing.Ref, cursor *int) gateway.MarketView {
	for pass := 0; pass < e.MaxPasses; pass++ {
		buys, sells := RestingCounts(m)
		if buys >= e.MinResting && sells >= e.MinResting {
			break
		}
		e.ReplenishPass(ctx, m, ref, cursor)
		e.sleep(ctx, e.Delay)
		if fresh, ok := e.refresh(ctx, m.Index); ok {
			m = fresh
		}
	}
	return m
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

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(ctx, d)
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
