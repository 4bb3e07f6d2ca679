package pricing

import "market-pulse-go/gateway"

// DriftBook holds the per-market drift state, a signed bps offset in
// [-MaxBps, MaxBps]. It lives for the process lifetime only and is owned
// by the driver loop; there is no concurrent access.
type DriftBook struct {
	StepBps  float64
	MaxBps   float64
	byMarket map[int]float64
}

func NewDriftBook(stepBps, maxBps float64) *DriftBook {
	if stepBps <= 0 {
		stepBps = 35
	}
	if maxBps <= 0 {
		maxBps = 400
	}
	return &DriftBook{
		StepBps:  stepBps,
		MaxBps:   maxBps,
		byMarket: make(map[int]float64),
	}
}

// Get returns the current drift for a market, zero if never touched.
func (d *DriftBook) Get(market int) float64 {
	return d.byMarket[market]
}

// Update advances the mean-reverting random walk once and returns the new
// drift. The -0.16x term decays toward zero, the uniform terms inject
// noise, and a 20% chance of a large jump simulates a regime shift.
func (d *DriftBook) Update(market int, rng Rand) float64 {
	prev := d.byMarket[market]
	next := prev - prev*0.16 +
		Uniform(rng, -d.StepBps, d.StepBps) +
		0.4*Uniform(rng, -d.StepBps, d.StepBps)
	if rng.Float64() < 0.2 {
		next += Uniform(rng, -120, 120)
	}
	next = d.clamp(next)
	d.byMarket[market] = next
	return next
}

// Nudge models price impact after a successful execution: buys push the
// drift up by U(8,30) bps, sells push it down.
func (d *DriftBook) Nudge(market int, side gateway.Side, rng Rand) float64 {
	delta := Uniform(rng, 8, 30)
	if side == gateway.SideSell {
		delta = -delta
	}
	next := d.clamp(d.byMarket[market] + delta)
	d.byMarket[market] = next
	return next
}

func (d *DriftBook) clamp(v float64) float64 {
	if v > d.MaxBps {
		return d.MaxBps
	}
	if v < -d.MaxBps {
		return -d.MaxBps
	}
	return v
}
