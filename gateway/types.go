package gateway

import "strconv"

// Side of an order as the venue spells it.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Opposite returns the taking side for a resting order side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Snapshot is the venue's point-in-time view. It is never mutated locally;
// the bot re-fetches it before decisions that depend on book state.
type Snapshot struct {
	UpdatedAt string       `json:"updatedAt"`
	Markets   []MarketView `json:"markets"`
	Warning   string       `json:"warning,omitempty"`
}

// MarketView describes one market inside a snapshot.
type MarketView struct {
	Index         int           `json:"index"`
	BaseSymbol    string        `json:"baseSymbol"`
	QuoteSymbol   string        `json:"quoteSymbol"`
	BestBid       string        `json:"bestBid"`
	BestAsk       string        `json:"bestAsk"`
	Orders        []OrderView   `json:"orders"`
	Depth         *DepthView    `json:"depth,omitempty"`
	Balances      []BalanceView `json:"balances"`
	RecentActions []ActionView  `json:"recentActions"`
}

// Market looks up a market view by its stable index.
func (s *Snapshot) Market(index int) (MarketView, bool) {
	for _, m := range s.Markets {
		if m.Index == index {
			return m, true
		}
	}
	return MarketView{}, false
}

// DepthView aggregates resting liquidity per price level.
type DepthView struct {
	Bids []DepthLevel `json:"bids"`
	Asks []DepthLevel `json:"asks"`
}

type DepthLevel struct {
	PriceQuotePerBase string `json:"priceQuotePerBase"`
	SizeBase          string `json:"sizeBase"`
	TotalBase         string `json:"totalBase"`
	Orders            int    `json:"orders"`
}

// OrderView is a resting order on the book.
type OrderView struct {
	ID                string `json:"id"`
	Side              Side   `json:"side"`
	Owner             string `json:"owner"`
	PriceQuotePerBase string `json:"priceQuotePerBase"`
	RemainingBase     string `json:"remainingBase"`
	ReservedQuote     string `json:"reservedQuote"`
}

// Live reports whether the order still has fillable size.
func (o OrderView) Live() bool {
	return ParseDecimal(o.RemainingBase) >= 1
}

// Price returns the order's price as a float, 0 when unparseable.
func (o OrderView) Price() float64 {
	return ParseDecimal(o.PriceQuotePerBase)
}

// BalanceView holds available balances for one logical actor role.
type BalanceView struct {
	Role    string `json:"role"`
	Address string `json:"address"`
	Base    string `json:"base"`
	Quote   string `json:"quote"`
}

// ActionView is one entry of the venue's append-only activity log.
type ActionView struct {
	Ts                   string `json:"ts"`
	Kind                 string `json:"kind"`
	Status               string `json:"status"`
	Side                 Side   `json:"side"`
	AmountBase           string `json:"amountBase"`
	BaseDelta            string `json:"baseDelta,omitempty"`
	QuoteDelta           string `json:"quoteDelta,omitempty"`
	ExecutionPriceApprox string `json:"executionPriceApprox,omitempty"`
}

// LimitOrderRequest is the body of POST /api/submit-limit-order.
type LimitOrderRequest struct {
	Market            int    `json:"market"`
	Side              Side   `json:"side"`
	AmountBase        int64  `json:"amountBase"`
	PriceQuotePerBase string `json:"priceQuotePerBase"`
	ActorRole         string `json:"actorRole"`
}

// TriggerOrderRequest is the body of POST /api/trigger-order.
// MaxQuote bounds the quote spend for aggressive buys; zero means unset.
type TriggerOrderRequest struct {
	Market     int    `json:"market"`
	Side       Side   `json:"side"`
	AmountBase int64  `json:"amountBase"`
	MaxQuote   int64  `json:"maxQuote,omitempty"`
	ActorRole  string `json:"actorRole"`
}

// ExecuteOrderRequest is the body of POST /api/execute-order.
type ExecuteOrderRequest struct {
	Market     int    `json:"market"`
	OrderID    string `json:"orderId"`
	AmountBase int64  `json:"amountBase,omitempty"`
	ActorRole  string `json:"actorRole"`
}

// OrderResult is the shared response shape of the three order endpoints.
type OrderResult struct {
	OK               bool   `json:"ok"`
	Executed         bool   `json:"executed,omitempty"`
	OrderID          string `json:"orderId,omitempty"`
	SelectedAffected int    `json:"selectedAffected,omitempty"`
	BaseDelta        string `json:"baseDelta,omitempty"`
	QuoteDelta       string `json:"quoteDelta,omitempty"`
	Error            string `json:"error,omitempty"`
}

// RealizedPrice derives the executed price from the returned deltas.
// Returns 0 when the deltas are absent or unusable.
func (r OrderResult) RealizedPrice() float64 {
	base := ParseDecimal(r.BaseDelta)
	quote := ParseDecimal(r.QuoteDelta)
	if base < 0 {
		base = -base
	}
	if quote < 0 {
		quote = -quote
	}
	if base <= 0 || quote <= 0 {
		return 0
	}
	return quote / base
}

// ParseDecimal converts a venue decimal string to a float64. Empty or
// malformed input yields 0; display-grade precision is all the bot needs.
func ParseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatDecimal renders a price for a request body.
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
