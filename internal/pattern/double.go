package pattern

import (
	"math"

	"ta-enginev1/internal/model"
)

// DoubleTopBottom scans consecutive peak pairs for a double top (values
// within threshold of the first, at least one trough strictly between), then
// trough pairs for a double bottom. The first qualifying pair wins; the
// reference level is the mean of the two matched extrema.
func DoubleTopBottom(peaks, troughs []model.Extremum, threshold float64) model.PatternMatch {
	for i := 0; i+1 < len(peaks); i++ {
		a, b := peaks[i], peaks[i+1]
		if math.Abs(a.Value-b.Value) >= threshold*a.Value {
			continue
		}
		mid, ok := firstBetween(troughs, a.Index, b.Index)
		if !ok {
			continue
		}
		level := (a.Value + b.Value) / 2
		return model.PatternMatch{
			Detected:       true,
			PatternType:    model.PatternDoubleTop,
			KeyPoints:      []model.Extremum{a, mid, b},
			ReferenceLevel: &level,
		}
	}

	for i := 0; i+1 < len(troughs); i++ {
		a, b := troughs[i], troughs[i+1]
		if math.Abs(a.Value-b.Value) >= threshold*a.Value {
			continue
		}
		mid, ok := firstBetween(peaks, a.Index, b.Index)
		if !ok {
			continue
		}
		level := (a.Value + b.Value) / 2
		return model.PatternMatch{
			Detected:       true,
			PatternType:    model.PatternDoubleBottom,
			KeyPoints:      []model.Extremum{a, mid, b},
			ReferenceLevel: &level,
		}
	}

	return model.PatternMatch{}
}
