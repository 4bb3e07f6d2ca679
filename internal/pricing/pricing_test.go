package pricing

import (
	"math/rand"
	"testing"

	"market-pulse-go/gateway"
)

func TestEstimateMid(t *testing.T) {
	tests := []struct {
		name   string
		market gateway.MarketView
		want   float64
	}{
		{
			name:   "two sided book",
			market: gateway.MarketView{BestBid: "100", BestAsk: "102"},
			want:   101,
		},
		{
			name:   "empty book falls back by symbol pair",
			market: gateway.MarketView{BestBid: "0", BestAsk: "0", BaseSymbol: "VARA", QuoteSymbol: "USDC"},
			want:   0.001165,
		},
		{
			name:   "fallback lookup is case insensitive",
			market: gateway.MarketView{BaseSymbol: "vara", QuoteSymbol: "usdc"},
			want:   0.001165,
		},
		{
			name:   "crossed quotes ignored",
			market: gateway.MarketView{BestBid: "102", BestAsk: "100", BaseSymbol: "BTC", QuoteSymbol: "USDC"},
			want:   64000,
		},
		{
			name:   "unknown pair defaults to 1",
			market: gateway.MarketView{BaseSymbol: "FOO", QuoteSymbol: "BAR"},
			want:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateMid(tt.market); got != tt.want {
				t.Fatalf("EstimateMid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundsFor(t *testing.T) {
	b := BoundsFor(100)
	if b.Low != 35 || b.High != 260 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	if b.Clamp(10) != 35 || b.Clamp(1000) != 260 || b.Clamp(120) != 120 {
		t.Fatalf("clamp misbehaves: %+v", b)
	}
	// Zero mid still yields a tiny positive band.
	z := BoundsFor(0)
	if z.Low <= 0 || z.High <= 0 {
		t.Fatalf("bounds must stay positive: %+v", z)
	}
}

func TestFairMidStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	book := NewDriftBook(35, 400)
	for i := 0; i < 5000; i++ {
		mid := Uniform(rng, 0.0001, 50000)
		drift := book.Update(1, rng)
		b := BoundsFor(mid)
		fair := FairMid(mid, drift, b)
		if !b.Contains(fair) {
			t.Fatalf("fair mid %v escaped bounds %+v (mid %v drift %v)", fair, b, mid, drift)
		}
	}
}

func TestDriftUpdateClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	book := NewDriftBook(120, 200)
	for i := 0; i < 10000; i++ {
		v := book.Update(9, rng)
		if v > 200 || v < -200 {
			t.Fatalf("drift %v escaped [-200, 200] at iteration %d", v, i)
		}
	}
}

func TestDriftNudgeDirection(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	book := NewDriftBook(35, 400)

	before := book.Get(2)
	after := book.Nudge(2, gateway.SideBuy, rng)
	if after <= before {
		t.Fatalf("buy nudge should raise drift: %v -> %v", before, after)
	}
	delta := after - before
	if delta < 8 || delta > 30 {
		t.Fatalf("buy nudge %v outside [8, 30]", delta)
	}

	before = after
	after = book.Nudge(2, gateway.SideSell, rng)
	if after >= before {
		t.Fatalf("sell nudge should lower drift: %v -> %v", before, after)
	}
}

func TestDriftNudgeClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	book := NewDriftBook(35, 50)
	for i := 0; i < 100; i++ {
		if v := book.Nudge(1, gateway.SideBuy, rng); v > 50 {
			t.Fatalf("nudge escaped clamp: %v", v)
		}
	}
	if book.Get(1) != 50 {
		t.Fatalf("repeated buy nudges should pin drift at max, got %v", book.Get(1))
	}
}

func TestPickAmountBase(t *testing.T) {
	tests := []struct {
		mid  float64
		want int64
	}{
		{50000, 1},
		{1000, 1},
		{999.99, 2},
		{100, 2},
		{5, 10},
		{1, 10},
		{0.5, 50},
		{0.01, 50},
		{0.001165, 250},
	}
	for _, tt := range tests {
		if got := PickAmountBase(tt.mid); got != tt.want {
			t.Fatalf("PickAmountBase(%v) = %d, want %d", tt.mid, got, tt.want)
		}
	}
}
