// Package report renders prices and recent-execution sparklines for the
// per-market summary lines. Display-grade only, never settlement math.
package report

import (
	"math"
	"strconv"
	"strings"
)

// FormatPriceAdaptive renders a price with precision tiered to its
// magnitude. Non-finite or non-positive input renders as "0".
func FormatPriceAdaptive(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return "0"
	}
	switch {
	case v >= 1000:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case v >= 1:
		return trimZeros(strconv.FormatFloat(v, 'f', 6, 64))
	case v >= 0.01:
		return trimZeros(strconv.FormatFloat(v, 'f', 8, 64))
	case v >= 0.0001:
		return trimZeros(strconv.FormatFloat(v, 'f', 10, 64))
	default:
		// 10 significant digits for the dust tier.
		decimals := 9 - int(math.Floor(math.Log10(v)))
		if decimals > 30 {
			decimals = 30
		}
		return trimZeros(strconv.FormatFloat(v, 'f', decimals, 64))
	}
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
