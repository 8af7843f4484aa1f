package indicator

import "ta-enginev1/internal/model"

// Fibonacci returns retracement prices over the trailing period bars (the
// whole series when it is shorter). Levels run from the window low (0%) to
// the window high (100%) at the classic ratios. Returns nil on an empty
// series.
func Fibonacci(highs, lows []float64, period int) *model.FibonacciLevels {
	n := len(highs)
	if n == 0 || len(lows) != n {
		return nil
	}

	from := 0
	if n > period {
		from = n - period
	}
	hi := highest(highs[from:])
	lo := lowest(lows[from:])
	diff := hi - lo

	return &model.FibonacciLevels{
		P0:   lo,
		P236: lo + 0.236*diff,
		P382: lo + 0.382*diff,
		P50:  lo + 0.5*diff,
		P618: lo + 0.618*diff,
		P786: lo + 0.786*diff,
		P100: hi,
	}
}
