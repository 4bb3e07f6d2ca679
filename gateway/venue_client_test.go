package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVenueClientFetchSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/snapshot" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{
			"updatedAt": "2024-01-01T00:00:00Z",
			"markets": [{
				"index": 3,
				"baseSymbol": "VARA",
				"quoteSymbol": "USDC",
				"bestBid": "0.0011",
				"bestAsk": "0.0013",
				"orders": [{"id":"o1","side":"Buy","owner":"a","priceQuotePerBase":"0.0011","remainingBase":"120","reservedQuote":"0.14"}],
				"balances": [{"role":"quote-maker-0","address":"0xabc","base":"10","quote":"500"}],
				"recentActions": []
			}]
		}`)
	}))
	defer ts.Close()

	cli := &VenueClient{BaseURL: ts.URL, HTTPClient: ts.Client()}
	snap, err := cli.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	if len(snap.Markets) != 1 {
		t.Fatalf("want 1 market, got %d", len(snap.Markets))
	}
	m := snap.Markets[0]
	if m.Index != 3 || m.BaseSymbol != "VARA" {
		t.Fatalf("unexpected market: %+v", m)
	}
	if !m.Orders[0].Live() {
		t.Fatalf("order with remaining 120 should be live")
	}
}

func TestVenueClientSubmitLimitOrder(t *testing.T) {
	var got LimitOrderRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/submit-limit-order" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		io.WriteString(w, `{"ok":true,"orderId":"42"}`)
	}))
	defer ts.Close()

	cli := &VenueClient{BaseURL: ts.URL, HTTPClient: ts.Client()}
	res, err := cli.SubmitLimitOrder(context.Background(), LimitOrderRequest{
		Market:            1,
		Side:              SideSell,
		AmountBase:        50,
		PriceQuotePerBase: "0.00125",
		ActorRole:         "base-maker-2",
	})
	if err != nil {
		t.Fatalf("submit err: %v", err)
	}
	if !res.OK || res.OrderID != "42" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.Side != SideSell || got.AmountBase != 50 || got.ActorRole != "base-maker-2" {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestVenueClientAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"ok":false,"error":"stale order"}`)
	}))
	defer ts.Close()

	cli := &VenueClient{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, err := cli.ExecuteOrder(context.Background(), ExecuteOrderRequest{Market: 1, OrderID: "o9", ActorRole: "quote-maker-0"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", apiErr.Status)
	}
}

func TestOrderResultRealizedPrice(t *testing.T) {
	res := OrderResult{BaseDelta: "-100", QuoteDelta: "0.125"}
	if p := res.RealizedPrice(); p != 0.00125 {
		t.Fatalf("realized price = %v, want 0.00125", p)
	}
	if p := (OrderResult{}).RealizedPrice(); p != 0 {
		t.Fatalf("empty deltas should yield 0, got %v", p)
	}
}
