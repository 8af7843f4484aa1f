// Package indicator implements batch technical indicator math over price
// series. Every function takes the full history oldest-first and returns the
// value(s) applicable to the latest bar. Scalar indicators report a second
// boolean that stays false while the series is shorter than the required
// window; composite results carry nil fields for the lines that are not yet
// available.
package indicator

import "math"

// fptr returns a pointer to v for optional result fields.
func fptr(v float64) *float64 { return &v }

// mean returns the arithmetic mean of vals. Caller guarantees len > 0.
func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev returns the population standard deviation of vals.
func stddev(vals []float64) float64 {
	m := mean(vals)
	ss := 0.0
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// highest returns the maximum of vals. Caller guarantees len > 0.
func highest(vals []float64) float64 {
	h := vals[0]
	for _, v := range vals[1:] {
		if v > h {
			h = v
		}
	}
	return h
}

// lowest returns the minimum of vals. Caller guarantees len > 0.
func lowest(vals []float64) float64 {
	l := vals[0]
	for _, v := range vals[1:] {
		if v < l {
			l = v
		}
	}
	return l
}

// RollingMean returns the period-sized moving average of vals, one entry per
// full window, oldest first (len(vals)−period+1 entries). Returns nil when
// vals is shorter than period.
func RollingMean(vals []float64, period int) []float64 {
	if period <= 0 || len(vals) < period {
		return nil
	}
	out := make([]float64, 0, len(vals)-period+1)
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= period {
			sum -= vals[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}
