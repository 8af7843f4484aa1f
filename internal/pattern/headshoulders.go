package pattern

import (
	"math"

	"ta-enginev1/internal/model"
)

// necklineTolerance bounds how far apart the two neckline extrema may sit,
// as a fraction of the first one's value.
const necklineTolerance = 0.03

// HeadAndShoulders scans consecutive peak triples for the standard form
// (middle peak above both shoulders, one trough strictly between each pair,
// troughs on a shared neckline), then trough triples for the inverse form.
// The first qualifying triple wins. Fewer than three peaks or two troughs
// means neither form can complete.
func HeadAndShoulders(peaks, troughs []model.Extremum) model.PatternMatch {
	if len(peaks) < 3 || len(troughs) < 2 {
		return model.PatternMatch{}
	}

	for i := 0; i+2 < len(peaks); i++ {
		p1, p2, p3 := peaks[i], peaks[i+1], peaks[i+2]
		if !(p2.Value > p1.Value && p2.Value > p3.Value) {
			continue
		}
		t1, ok := firstBetween(troughs, p1.Index, p2.Index)
		if !ok {
			continue
		}
		t2, ok := firstBetween(troughs, p2.Index, p3.Index)
		if !ok {
			continue
		}
		if math.Abs(t1.Value-t2.Value) >= necklineTolerance*t1.Value {
			continue
		}
		neck := (t1.Value + t2.Value) / 2
		return model.PatternMatch{
			Detected:       true,
			PatternType:    model.PatternHeadAndShoulders,
			KeyPoints:      []model.Extremum{p1, t1, p2, t2, p3},
			ReferenceLevel: &neck,
		}
	}

	for i := 0; i+2 < len(troughs); i++ {
		t1, t2, t3 := troughs[i], troughs[i+1], troughs[i+2]
		if !(t2.Value < t1.Value && t2.Value < t3.Value) {
			continue
		}
		p1, ok := firstBetween(peaks, t1.Index, t2.Index)
		if !ok {
			continue
		}
		p2, ok := firstBetween(peaks, t2.Index, t3.Index)
		if !ok {
			continue
		}
		if math.Abs(p1.Value-p2.Value) >= necklineTolerance*p1.Value {
			continue
		}
		neck := (p1.Value + p2.Value) / 2
		return model.PatternMatch{
			Detected:       true,
			PatternType:    model.PatternInverseHeadAndShoulders,
			KeyPoints:      []model.Extremum{t1, p1, t2, p2, t3},
			ReferenceLevel: &neck,
		}
	}

	return model.PatternMatch{}
}
