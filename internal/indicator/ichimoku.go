package indicator

import "ta-enginev1/internal/model"

// Ichimoku returns the Ichimoku lines applicable to the latest bar using
// conv/base/span window lengths (classically 9/26/52). The senkou spans are
// projected base bars forward, so the values reported for the latest bar
// come from windows ending base bars back; the chikou span is the close from
// base bars back. Each line is nil until its window plus shift fits the
// series.
func Ichimoku(highs, lows, closes []float64, conv, base, span int) *model.IchimokuResult {
	res := &model.IchimokuResult{}
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n {
		return res
	}

	last := n - 1
	if n >= conv {
		res.TenkanSen = fptr(midpoint(highs, lows, conv, last))
	}
	if n >= base {
		res.KijunSen = fptr(midpoint(highs, lows, base, last))
	}

	shifted := last - base
	if n >= 2*base {
		a := (midpoint(highs, lows, conv, shifted) + midpoint(highs, lows, base, shifted)) / 2
		res.SenkouSpanA = fptr(a)
	}
	if n >= span+base {
		res.SenkouSpanB = fptr(midpoint(highs, lows, span, shifted))
	}
	if n >= base+1 {
		res.ChikouSpan = fptr(closes[n-base-1])
	}
	return res
}

// midpoint returns the mean of the highest high and lowest low over the
// period-sized window ending at index end.
func midpoint(highs, lows []float64, period, end int) float64 {
	from := end - period + 1
	return (highest(highs[from:end+1]) + lowest(lows[from:end+1])) / 2
}
