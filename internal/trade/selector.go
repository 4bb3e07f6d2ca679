// Package trade picks and executes realistic taker trades against the
// book, falling back to aggressive orders and, ultimately, a kick.
package trade

import (
	"math"
	"sort"

	"market-pulse-go/gateway"
	"market-pulse-go/internal/pricing"
)

// SelectByWeightedWindow ranks candidates by distance to the target price
// and draws one from the closest window with linearly decreasing weights:
// rank 0 carries weight w, rank w-1 carries weight 1. Close-to-target
// orders are favored without the pick being deterministic.
func SelectByWeightedWindow(candidates []gateway.OrderView, target float64, window int, rng pricing.Rand) (gateway.OrderView, bool) {
	if len(candidates) == 0 {
		return gateway.OrderView{}, false
	}
	if window < 1 {
		window = 1
	}

	ranked := make([]gateway.OrderView, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Price()-target) < math.Abs(ranked[j].Price()-target)
	})

	w := window
	if len(ranked) < w {
		w = len(ranked)
	}
	total := w * (w + 1) / 2
	draw := rng.Intn(total)
	for rank := 0; rank < w; rank++ {
		weight := w - rank
		if draw < weight {
			return ranked[rank], true
		}
		draw -= weight
	}
	return ranked[w-1], true
}

// BoundedCandidates filters the market's live orders to those priced
// inside the iteration's admissible band.
func BoundedCandidates(m gateway.MarketView, bounds pricing.Bounds) []gateway.OrderView {
	var out []gateway.OrderView
	for _, o := range m.Orders {
		if !o.Live() {
			continue
		}
		if bounds.Contains(o.Price()) {
			out = append(out, o)
		}
	}
	return out
}
