package indicator

import "ta-enginev1/internal/model"

// MACD returns the moving average convergence divergence at the latest bar:
// line = EMA(fast) − EMA(slow), signal = EMA(smooth) of the line, histogram =
// line − signal. The line needs slow closes; signal and histogram need
// slow+smooth−1.
func MACD(closes []float64, fast, slow, smooth int) *model.MACDResult {
	res := &model.MACDResult{}
	if len(closes) < slow {
		return res
	}

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	res.MACDLine = fptr(line[len(line)-1])

	if len(closes) < slow+smooth-1 {
		return res
	}
	signal := emaSeries(line, smooth)
	s := signal[len(signal)-1]
	res.SignalLine = fptr(s)
	res.Histogram = fptr(line[len(line)-1] - s)
	return res
}
