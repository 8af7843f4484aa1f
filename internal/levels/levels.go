// Package levels derives horizontal support and resistance prices from bar
// extremes and thins out clusters of nearby values.
package levels

import (
	"math"
	"sort"

	"ta-enginev1/internal/extrema"
)

// Config tunes the extremum window and the cluster threshold.
type Config struct {
	Window    int     // extremum comparison half-window
	Threshold float64 // minimum relative distance between retained levels
}

// DefaultConfig returns the standard daily-bar tuning.
func DefaultConfig() Config {
	return Config{Window: 10, Threshold: 0.01}
}

// SupportResistance returns support levels from trough lows and resistance
// levels from peak highs, thinned by Filter and sorted ascending. Both
// slices are empty, never nil, when nothing qualifies.
func SupportResistance(highs, lows []float64, cfg Config) (support, resistance []float64) {
	peaks, _ := extrema.Find(highs, cfg.Window)
	_, troughs := extrema.Find(lows, cfg.Window)

	resistance = make([]float64, 0, len(peaks))
	for _, p := range peaks {
		resistance = append(resistance, p.Value)
	}
	support = make([]float64, 0, len(troughs))
	for _, t := range troughs {
		support = append(support, t.Value)
	}

	support = Filter(support, cfg.Threshold)
	resistance = Filter(resistance, cfg.Threshold)
	sort.Float64s(support)
	sort.Float64s(resistance)
	return support, resistance
}

// Filter drops levels sitting within threshold (relative to the retained
// level) of an already retained one, keeping the first-encountered value per
// cluster. Order is preserved; the result is never nil.
func Filter(values []float64, threshold float64) []float64 {
	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		keep := true
		for _, kept := range filtered {
			if math.Abs(v-kept)/kept <= threshold {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
