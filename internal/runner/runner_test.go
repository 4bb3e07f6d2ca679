package runner

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"market-pulse-go/gateway"
	"market-pulse-go/infrastructure/logger"
	"market-pulse-go/internal/liquidity"
	"market-pulse-go/internal/pricing"
	"market-pulse-go/internal/trade"
)

// venueRecorder is a scripted venue server for the empty-book scenario.
type venueRecorder struct {
	mu     sync.Mutex
	paths  []string
	limits []gateway.LimitOrderRequest
}

func (v *venueRecorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.mu.Lock()
		v.paths = append(v.paths, r.URL.Path)
		v.mu.Unlock()

		switch r.URL.Path {
		case "/api/snapshot":
			json.NewEncoder(w).Encode(gateway.Snapshot{
				UpdatedAt: "2024-01-01T00:00:00Z",
				Markets: []gateway.MarketView{{
					Index:       7,
					BaseSymbol:  "VARA",
					QuoteSymbol: "USDC",
					BestBid:     "0",
					BestAsk:     "0",
				}},
			})
		case "/api/submit-limit-order":
			var req gateway.LimitOrderRequest
			json.NewDecoder(r.Body).Decode(&req)
			v.mu.Lock()
			v.limits = append(v.limits, req)
			v.mu.Unlock()
			json.NewEncoder(w).Encode(gateway.OrderResult{OK: true, OrderID: "x"})
		case "/api/trigger-order":
			json.NewEncoder(w).Encode(gateway.OrderResult{
				OK: true, Executed: true, BaseDelta: "250", QuoteDelta: "-0.29",
			})
		case "/api/execute-order":
			json.NewEncoder(w).Encode(gateway.OrderResult{OK: false, Error: "no such order"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (v *venueRecorder) firstOrderPaths(n int) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for _, p := range v.paths {
		if p == "/api/snapshot" {
			continue
		}
		out = append(out, p)
		if len(out) == n {
			break
		}
	}
	return out
}

func newRunner(baseURL string) *Runner {
	rng := rand.New(rand.NewSource(11))
	drift := pricing.NewDriftBook(35, 400)
	client := &gateway.VenueClient{BaseURL: baseURL, HTTPClient: gateway.NewDefaultHTTPClient()}
	noSleep := func(context.Context, time.Duration) {}
	makers := &liquidity.Engine{
		Venue:      client,
		Log:        logger.Nop(),
		Rng:        rng,
		OffsetBps:  25,
		Levels:     4,
		MinResting: 0, // empty venue never fills; keep the test bounded
		MaxPasses:  2,
		RoleSlots:  4,
		Sleep:      noSleep,
	}
	trades := &trade.Engine{
		Venue:      client,
		Makers:     makers,
		Drift:      drift,
		Log:        logger.Nop(),
		Rng:        rng,
		TradesMin:  1,
		TradesMax:  1,
		PickWindow: 5,
		RoleSlots:  4,
	}
	return &Runner{
		Venue:      client,
		Makers:     makers,
		Trades:     trades,
		Drift:      drift,
		Log:        logger.Nop(),
		Rng:        rng,
		ChartWidth: 12,
		Loops:      1,
		Sleep:      noSleep,
	}
}

func TestRunnerEmptyBookScenario(t *testing.T) {
	rec := &venueRecorder{}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	r := newRunner(ts.URL)
	err := r.Run(context.Background())
	require.NoError(t, err)

	// The full maker ladder (4 levels x 2 sides) precedes any trade attempt.
	first := rec.firstOrderPaths(8)
	require.Len(t, first, 8)
	for _, p := range first {
		require.Equal(t, "/api/submit-limit-order", p)
	}

	// Fallback mid 0.001165 puts the amount in the 250 tier; maker sizes
	// are jittered by U(0.7, 1.45).
	require.NotEmpty(t, rec.limits)
	for _, req := range rec.limits {
		require.GreaterOrEqual(t, req.AmountBase, int64(175))
		require.LessOrEqual(t, req.AmountBase, int64(363))
		price := gateway.ParseDecimal(req.PriceQuotePerBase)
		bounds := pricing.BoundsFor(0.001165)
		require.True(t, bounds.Contains(price), "maker price %v outside bounds", price)
	}
}

func TestRunnerHonorsAllowList(t *testing.T) {
	rec := &venueRecorder{}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	r := newRunner(ts.URL)
	r.Markets = map[int]bool{3: true} // snapshot only has market 7
	require.NoError(t, r.Run(context.Background()))
	require.Empty(t, rec.limits, "filtered market must not be touched")
}

func TestRunnerLoopBudget(t *testing.T) {
	rec := &venueRecorder{}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	r := newRunner(ts.URL)
	r.Loops = 3
	require.NoError(t, r.Run(context.Background()))

	rec.mu.Lock()
	snapshots := 0
	for _, p := range rec.paths {
		if p == "/api/snapshot" {
			snapshots++
		}
	}
	rec.mu.Unlock()
	// One top-level fetch per loop plus the in-market refreshes.
	require.GreaterOrEqual(t, snapshots, 3)
}

func TestRunnerSurvivesVenueOutage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	r := newRunner(ts.URL)
	r.Loops = 2
	// The loop tier logs the failure and keeps going; Run still returns nil.
	require.NoError(t, r.Run(context.Background()))
}

func TestRunnerAppliesTunables(t *testing.T) {
	rec := &venueRecorder{}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	r := newRunner(ts.URL)
	r.ApplyTunables(Tunables{TradesMin: 3, TradesMax: 5, MinResting: 9})
	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, 3, r.Trades.TradesMin)
	require.Equal(t, 5, r.Trades.TradesMax)
	require.Equal(t, 9, r.Makers.MinResting)
}
