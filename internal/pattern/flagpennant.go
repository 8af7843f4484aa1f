package pattern

import (
	"math"

	"ta-enginev1/internal/model"
)

const (
	// poleBars is the span the pole move is measured over.
	poleBars = 20
	// poleMinMove is the least relative move that counts as a pole.
	poleMinMove = 0.05
	// consolidationMax caps the trailing range as a fraction of the pole.
	consolidationMax = 0.5
	// parallelTolerance is the slope difference under which the trend lines
	// count as parallel.
	parallelTolerance = 0.001
)

// FlagPennant checks the last poleBars closes for a strong directional move
// and the trailing window bars for a tight consolidation, then classifies
// the consolidation by the regression slopes of its highs and lows:
// converging slopes give a pennant, near-parallel counter-trend slopes a
// flag. Runs on raw bars, not the smoothed series.
func FlagPennant(highs, lows, closes []float64, window int) model.PatternMatch {
	n := len(closes)
	if n < poleBars || window <= 0 || n < window || len(highs) != n || len(lows) != n {
		return model.PatternMatch{}
	}

	base := closes[n-poleBars]
	if base == 0 {
		return model.PatternMatch{}
	}
	change := (closes[n-1] - base) / base
	if math.Abs(change) < poleMinMove {
		return model.PatternMatch{}
	}
	bullish := change > 0

	hi := maxOf(highs[n-window:])
	lo := minOf(lows[n-window:])
	if lo == 0 {
		return model.PatternMatch{}
	}
	if (hi-lo)/lo >= consolidationMax*math.Abs(change) {
		return model.PatternMatch{}
	}

	highSlope := slope(highs[n-window:])
	lowSlope := slope(lows[n-window:])

	dir := model.Bearish
	if bullish {
		dir = model.Bullish
	}
	if (bullish && highSlope < 0 && lowSlope > 0) || (!bullish && highSlope > 0 && lowSlope < 0) {
		return model.PatternMatch{Detected: true, PatternType: model.PatternPennant, Direction: dir}
	}
	if math.Abs(highSlope-lowSlope) < parallelTolerance &&
		((bullish && highSlope < 0) || (!bullish && highSlope > 0)) {
		return model.PatternMatch{Detected: true, PatternType: model.PatternFlag, Direction: dir}
	}

	return model.PatternMatch{}
}

// slope returns the least-squares slope of ys against x = 0..len-1.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	xMean := (n - 1) / 2
	yMean := 0.0
	for _, y := range ys {
		yMean += y
	}
	yMean /= n

	num, den := 0.0, 0.0
	for i, y := range ys {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
