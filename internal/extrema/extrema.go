// Package extrema locates local peaks and troughs in numeric series using a
// centered comparison window.
package extrema

import "ta-enginev1/internal/model"

// Find returns the peaks and troughs of vals, ordered by index. Index i
// qualifies as a peak when vals[i] equals the maximum over the window
// [i−window, i+window] and as a trough for the minimum; ties all qualify.
// Series that cannot fit one full window (len ≤ 2*window) return empty
// lists, never an error.
func Find(vals []float64, window int) (peaks, troughs []model.Extremum) {
	peaks = []model.Extremum{}
	troughs = []model.Extremum{}
	if window <= 0 || len(vals) <= 2*window {
		return peaks, troughs
	}

	for i := window; i < len(vals)-window; i++ {
		hi, lo := vals[i-window], vals[i-window]
		for _, v := range vals[i-window : i+window+1] {
			if v > hi {
				hi = v
			}
			if v < lo {
				lo = v
			}
		}
		if vals[i] == hi {
			peaks = append(peaks, model.Extremum{Index: i, Value: vals[i], Kind: model.Peak})
		}
		if vals[i] == lo {
			troughs = append(troughs, model.Extremum{Index: i, Value: vals[i], Kind: model.Trough})
		}
	}
	return peaks, troughs
}
