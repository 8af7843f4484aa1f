package indicator

// emaSeries computes the exponential moving average across the whole series
// with multiplier 2/(period+1). The recursion is seeded with the first value,
// so every entry is defined; availability gating is the caller's concern.
func emaSeries(vals []float64, period int) []float64 {
	if len(vals) == 0 {
		return nil
	}
	mult := 2.0 / float64(period+1)
	out := make([]float64, len(vals))
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = vals[i]*mult + out[i-1]*(1-mult)
	}
	return out
}

// EMA returns the exponential moving average at the latest bar. The recursion
// runs over the full series; the boolean is false until at least period
// entries are available.
func EMA(vals []float64, period int) (float64, bool) {
	if period <= 0 || len(vals) < period {
		return 0, false
	}
	s := emaSeries(vals, period)
	return s[len(s)-1], true
}
