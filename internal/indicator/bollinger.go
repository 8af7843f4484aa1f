package indicator

import "ta-enginev1/internal/model"

// Bollinger returns the Bollinger bands at the latest bar. The middle band is
// the period SMA of the close; upper and lower sit dev population standard
// deviations away. %B places the close within the band (0.5 when the band has
// zero width) and width is the band spread relative to the middle.
func Bollinger(closes []float64, period int, dev float64) *model.BollingerResult {
	res := &model.BollingerResult{}
	if period <= 0 || len(closes) < period {
		return res
	}

	window := closes[len(closes)-period:]
	mid := mean(window)
	sd := stddev(window)
	upper := mid + dev*sd
	lower := mid - dev*sd
	price := closes[len(closes)-1]

	pctB := 0.5
	if upper != lower {
		pctB = (price - lower) / (upper - lower)
	}
	width := 0.0
	if mid != 0 {
		width = (upper - lower) / mid
	}

	res.UpperBand = fptr(upper)
	res.MiddleBand = fptr(mid)
	res.LowerBand = fptr(lower)
	res.Width = fptr(width)
	res.PercentB = fptr(pctB)
	return res
}
