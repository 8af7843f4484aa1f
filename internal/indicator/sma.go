package indicator

// SMA returns the simple moving average of the trailing period values.
// The boolean is false when vals holds fewer than period entries.
func SMA(vals []float64, period int) (float64, bool) {
	if period <= 0 || len(vals) < period {
		return 0, false
	}
	return mean(vals[len(vals)-period:]), true
}
