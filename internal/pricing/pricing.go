// Package pricing derives the reference prices the bot quotes around:
// a mid price from the snapshot (or static fallbacks), an admissible
// price band, a per-market drift state, and heuristic trade sizes.
package pricing

import (
	"math"
	"strings"

	"market-pulse-go/gateway"
)

// Rand is the random source injected into every stochastic step so tests
// can supply a deterministic sequence. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Uniform draws from U(lo, hi).
func Uniform(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// fallbackMids keys are BASE/QUOTE, upper case. Used when the venue
// reports no usable book for a market.
var fallbackMids = map[string]float64{
	"VARA/USDC": 0.001165,
	"VARA/USDT": 0.001165,
	"BTC/USDC":  64000,
	"ETH/USDC":  3100,
	"USDT/USDC": 1,
}

// EstimateMid returns a strictly positive reference mid for the market.
// With a sane two-sided book it is the bid/ask average; otherwise a
// static fallback keyed by symbol pair, defaulting to 1.
func EstimateMid(m gateway.MarketView) float64 {
	bid := gateway.ParseDecimal(m.BestBid)
	ask := gateway.ParseDecimal(m.BestAsk)
	if bid > 0 && ask >= bid {
		return (bid + ask) / 2
	}
	key := strings.ToUpper(m.BaseSymbol + "/" + m.QuoteSymbol)
	if mid, ok := fallbackMids[key]; ok {
		return mid
	}
	return 1
}

// Bounds is the admissible price band for one iteration. Every maker and
// taker price is clamped into it, which keeps a briefly empty book from
// producing runaway orders.
type Bounds struct {
	Low  float64
	High float64
}

const boundsFloor = 1e-9

// BoundsFor computes the band [mid*0.35, mid*2.6] around a reference mid.
func BoundsFor(mid float64) Bounds {
	low := mid * 0.35
	if low < boundsFloor {
		low = boundsFloor
	}
	high := mid * 2.6
	if high < boundsFloor {
		high = boundsFloor
	}
	return Bounds{Low: low, High: high}
}

// Clamp forces v into the band.
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Low {
		return b.Low
	}
	if v > b.High {
		return b.High
	}
	return v
}

// Contains reports whether v lies inside the band.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// FairMid applies the drift (in bps) to the mid and clamps into bounds.
func FairMid(mid, driftBps float64, b Bounds) float64 {
	return b.Clamp(mid * (1 + driftBps/10000))
}

// ScaleAmount jitters a base amount by a draw factor, never below 1.
func ScaleAmount(base int64, factor float64) int64 {
	amount := int64(math.Round(float64(base) * factor))
	if amount < 1 {
		amount = 1
	}
	return amount
}

// PickAmountBase returns a typical trade size in base units, inversely
// tiered by price so notional stays roughly comparable across markets.
func PickAmountBase(mid float64) int64 {
	switch {
	case mid >= 1000:
		return 1
	case mid >= 100:
		return 2
	case mid >= 1:
		return 10
	case mid >= 0.01:
		return 50
	default:
		return 250
	}
}
