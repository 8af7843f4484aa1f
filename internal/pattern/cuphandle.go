package pattern

import (
	"math"

	"ta-enginev1/internal/model"
)

const (
	// cupMinBars is the least raw history the cup shape needs.
	cupMinBars = 60
	// lipTolerance bounds how far the recovery peak may sit from the first
	// lip, as a fraction of the lip's value.
	lipTolerance = 0.05
	// handleMaxDepth caps the handle dip as a fraction of the cup depth.
	handleMaxDepth = 0.3
)

// CupAndHandle looks for a peak, a following trough (the cup bottom), a
// recovery peak near the first lip, then a shallow dip (the handle) with the
// latest smoothed close breaking out above the lip. The handle must leave a
// few bars of room before the end of the series.
func CupAndHandle(rawBars int, smooth []float64, peaks, troughs []model.Extremum) model.PatternMatch {
	if rawBars < cupMinBars || len(peaks) < 2 || len(troughs) < 1 {
		return model.PatternMatch{}
	}

	for i := 0; i+1 < len(peaks); i++ {
		p1 := peaks[i]
		cupBottom, ok := firstAfter(troughs, p1.Index)
		if !ok {
			continue
		}
		p2, ok := firstAfter(peaks, cupBottom.Index)
		if !ok {
			continue
		}
		if math.Abs(p1.Value-p2.Value) > lipTolerance*p1.Value {
			continue
		}
		handleBottom, ok := firstAfter(troughs, p2.Index)
		if !ok {
			continue
		}
		if p2.Value-handleBottom.Value >= handleMaxDepth*(p1.Value-cupBottom.Value) {
			continue
		}
		if handleBottom.Index >= len(smooth)-5 {
			continue
		}
		if smooth[len(smooth)-1] <= p2.Value {
			continue
		}
		return model.PatternMatch{
			Detected:    true,
			PatternType: model.PatternCupAndHandle,
			KeyPoints:   []model.Extremum{p1, cupBottom, p2, handleBottom},
		}
	}

	return model.PatternMatch{}
}
