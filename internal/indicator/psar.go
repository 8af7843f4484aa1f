package indicator

import (
	"math"

	"ta-enginev1/internal/model"
)

// ParabolicSAR returns the stop-and-reverse value for the latest bar along
// with the trend it is riding. The SAR chases price by an acceleration
// factor that starts at step, grows by step on every new extreme in the
// trend direction and is capped at maxStep; price crossing the SAR flips the
// trend, moves the SAR to the prior extreme and restarts the factor. The
// first two bars seed the series with their closes.
func ParabolicSAR(highs, lows, closes []float64, step, maxStep float64) *model.PSARResult {
	res := &model.PSARResult{}
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n {
		return res
	}

	sar := make([]float64, n)
	copy(sar, closes)
	upTrend := true
	af := step
	upHigh := highs[0]
	downLow := lows[0]

	for i := 2; i < n; i++ {
		reversal := false
		if upTrend {
			sar[i] = sar[i-1] + af*(upHigh-sar[i-1])
			if lows[i] < sar[i] {
				reversal = true
				sar[i] = upHigh
				downLow = lows[i]
				af = step
			} else {
				if highs[i] > upHigh {
					upHigh = highs[i]
					af = math.Min(af+step, maxStep)
				}
				// SAR never rises above the prior two lows.
				if lows[i-2] < sar[i] {
					sar[i] = lows[i-2]
				} else if lows[i-1] < sar[i] {
					sar[i] = lows[i-1]
				}
			}
		} else {
			sar[i] = sar[i-1] - af*(sar[i-1]-downLow)
			if highs[i] > sar[i] {
				reversal = true
				sar[i] = downLow
				upHigh = highs[i]
				af = step
			} else {
				if lows[i] < downLow {
					downLow = lows[i]
					af = math.Min(af+step, maxStep)
				}
				// SAR never falls below the prior two highs.
				if highs[i-2] > sar[i] {
					sar[i] = highs[i-2]
				} else if highs[i-1] > sar[i] {
					sar[i] = highs[i-1]
				}
			}
		}
		upTrend = upTrend != reversal
	}

	res.PSARValue = fptr(sar[n-1])
	if upTrend {
		res.Trend = model.SARUptrend
	} else {
		res.Trend = model.SARDowntrend
	}
	return res
}
