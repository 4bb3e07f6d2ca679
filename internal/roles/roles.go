// Package roles picks which logical actor funds an order. Roles are the
// only actor identity the bot knows; it never manages keys.
package roles

import (
	"fmt"
	"sort"
	"strings"

	"market-pulse-go/gateway"
)

const (
	buyPrefix  = "quote-maker-"
	sellPrefix = "base-maker-"
)

// Pick selects an actor role for one order. It prefers side-prefixed
// roles with enough balance, ranks candidates by the relevant balance
// descending, and rotates through the top slots by cursor so the richest
// actor is not hammered on every order. With no balance rows at all it
// falls back to a synthetic slot role.
func Pick(balances []gateway.BalanceView, side gateway.Side, amountBase int64, price float64, cursor, slots int) string {
	if slots <= 0 {
		slots = 1
	}
	prefix := buyPrefix
	if side == gateway.SideSell {
		prefix = sellPrefix
	}
	if len(balances) == 0 {
		return fmt.Sprintf("%s%d", prefix, abs(cursor)%slots)
	}

	required := float64(amountBase)
	if side == gateway.SideBuy {
		required = price * float64(amountBase) * 1.25
	}

	filtered := make([]gateway.BalanceView, 0, len(balances))
	for _, b := range balances {
		if strings.HasPrefix(b.Role, prefix) {
			filtered = append(filtered, b)
		}
	}
	if len(filtered) == 0 {
		filtered = balances
	}

	funded := make([]gateway.BalanceView, 0, len(filtered))
	for _, b := range filtered {
		if relevant(b, side) >= required {
			funded = append(funded, b)
		}
	}
	if len(funded) == 0 {
		funded = filtered
	}

	ranked := make([]gateway.BalanceView, len(funded))
	copy(ranked, funded)
	sort.SliceStable(ranked, func(i, j int) bool {
		return relevant(ranked[i], side) > relevant(ranked[j], side)
	})

	window := slots
	if len(ranked) < window {
		window = len(ranked)
	}
	return ranked[abs(cursor)%window].Role
}

func relevant(b gateway.BalanceView, side gateway.Side) float64 {
	if side == gateway.SideBuy {
		return gateway.ParseDecimal(b.Quote)
	}
	return gateway.ParseDecimal(b.Base)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
