package report

import "strings"

var sparkRamp = []rune("▁▂▃▄▅▆▇█")

// middle glyph used for flat input
const sparkFlat = 3

// Sparkline maps the last width values linearly onto an 8-level glyph
// ramp between the slice's own min and max. Flat input repeats the middle
// glyph; empty input yields a dash placeholder capped at 12 characters.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		width = 1
	}
	if len(values) == 0 {
		n := width
		if n > 12 {
			n = 12
		}
		return strings.Repeat("-", n)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var sb strings.Builder
	if hi == lo {
		for range values {
			sb.WriteRune(sparkRamp[sparkFlat])
		}
		return sb.String()
	}
	scale := float64(len(sparkRamp)-1) / (hi - lo)
	for _, v := range values {
		idx := int((v-lo)*scale + 0.5)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkRamp) {
			idx = len(sparkRamp) - 1
		}
		sb.WriteRune(sparkRamp[idx])
	}
	return sb.String()
}
