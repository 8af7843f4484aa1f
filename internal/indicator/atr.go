package indicator

import "math"

// ATR returns Wilder's average true range at the latest bar. True range is
// the largest of high−low, |high−prevClose| and |low−prevClose|; it needs the
// prior close, so the boolean is false until period+1 bars are available.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0, false
	}

	tr := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr = append(tr, math.Max(hl, math.Max(hc, lc)))
	}

	atr := mean(tr[:period])
	p := float64(period)
	for i := period; i < len(tr); i++ {
		atr = (atr*(p-1) + tr[i]) / p
	}
	return atr, true
}
