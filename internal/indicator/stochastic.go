package indicator

import "ta-enginev1/internal/model"

// Stochastic returns the stochastic oscillator at the latest bar. %K scales
// the close's position inside the trailing kPeriod high/low range to 0..100
// (50 when the range is zero); %D is the dPeriod SMA of %K and needs
// kPeriod+dPeriod−1 bars.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) *model.StochResult {
	res := &model.StochResult{}
	n := len(closes)
	if kPeriod <= 0 || n < kPeriod || len(highs) != n || len(lows) != n {
		return res
	}

	k := make([]float64, 0, n-kPeriod+1)
	for i := kPeriod - 1; i < n; i++ {
		hh := highest(highs[i-kPeriod+1 : i+1])
		ll := lowest(lows[i-kPeriod+1 : i+1])
		v := 50.0
		if hh != ll {
			v = 100.0 * (closes[i] - ll) / (hh - ll)
		}
		k = append(k, v)
	}

	res.KValue = fptr(k[len(k)-1])
	if d, ok := SMA(k, dPeriod); ok {
		res.DValue = fptr(d)
	}
	return res
}
