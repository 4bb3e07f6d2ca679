package trade

import (
	"math/rand"
	"testing"

	"market-pulse-go/gateway"
	"market-pulse-go/internal/pricing"
)

func order(id string, price string) gateway.OrderView {
	return gateway.OrderView{ID: id, Side: gateway.SideSell, PriceQuotePerBase: price, RemainingBase: "100"}
}

func TestSelectByWeightedWindowEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, ok := SelectByWeightedWindow(nil, 1, 5, rng); ok {
		t.Fatalf("empty input must return no pick")
	}
}

func TestSelectByWeightedWindowSingle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	only := order("a", "1.0")
	for i := 0; i < 100; i++ {
		pick, ok := SelectByWeightedWindow([]gateway.OrderView{only}, 5, 5, rng)
		if !ok || pick.ID != "a" {
			t.Fatalf("single-element input must always return it, got %+v ok=%v", pick, ok)
		}
	}
}

func TestSelectByWeightedWindowFavorsCloser(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	candidates := []gateway.OrderView{
		order("near", "1.00"),
		order("mid", "1.10"),
		order("far", "1.30"),
	}
	counts := map[string]int{}
	for i := 0; i < 20000; i++ {
		pick, ok := SelectByWeightedWindow(candidates, 1.0, 3, rng)
		if !ok {
			t.Fatalf("pick failed")
		}
		counts[pick.ID]++
	}
	if counts["near"] < counts["mid"] || counts["mid"] < counts["far"] {
		t.Fatalf("closer candidates should win more draws: %v", counts)
	}
	if counts["far"] == 0 {
		t.Fatalf("selection must not be deterministic: %v", counts)
	}
}

func TestSelectByWeightedWindowRespectsWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	candidates := []gateway.OrderView{
		order("a", "1.00"),
		order("b", "1.01"),
		order("c", "5.00"),
	}
	for i := 0; i < 5000; i++ {
		pick, _ := SelectByWeightedWindow(candidates, 1.0, 2, rng)
		if pick.ID == "c" {
			t.Fatalf("candidate outside window was drawn")
		}
	}
}

func TestBoundedCandidates(t *testing.T) {
	m := gateway.MarketView{Orders: []gateway.OrderView{
		order("in", "1.0"),
		order("out-high", "100"),
		order("out-low", "0.001"),
		{ID: "dead", Side: gateway.SideBuy, PriceQuotePerBase: "1.0", RemainingBase: "0"},
	}}
	got := BoundedCandidates(m, pricing.Bounds{Low: 0.5, High: 2})
	if len(got) != 1 || got[0].ID != "in" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}
