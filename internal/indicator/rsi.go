package indicator

// RSI returns the relative strength index at the latest bar using Wilder's
// smoothing. The first averages are an SMA seed over the initial period
// deltas; later bars feed the recursive form. When the average loss is zero
// the index saturates at 100. The boolean is false until period+1 closes are
// available.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p

	// Wilder's smoothing: avg = (prevAvg * (period-1) + delta) / period
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		return 100.0, true
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), true
}
