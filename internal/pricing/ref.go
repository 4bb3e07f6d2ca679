package pricing

import "market-pulse-go/gateway"

// Ref bundles the reference prices one market iteration quotes against.
// FairMid is the only field that moves within an iteration; it is
// recomputed whenever the drift changes.
type Ref struct {
	Mid        float64
	Bounds     Bounds
	FairMid    float64
	AmountBase int64
}

// NewRef derives the iteration references from a market view and its
// current drift.
func NewRef(m gateway.MarketView, driftBps float64) Ref {
	mid := EstimateMid(m)
	bounds := BoundsFor(mid)
	return Ref{
		Mid:        mid,
		Bounds:     bounds,
		FairMid:    FairMid(mid, driftBps, bounds),
		AmountBase: PickAmountBase(mid),
	}
}

// Reprice recomputes FairMid for an updated drift.
func (r *Ref) Reprice(driftBps float64) {
	r.FairMid = FairMid(r.Mid, driftBps, r.Bounds)
}
