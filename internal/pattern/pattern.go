// Package pattern detects classical chart patterns (head & shoulders, double
// tops/bottoms, cup & handle, flags and pennants) on one instrument's bars.
// Detection runs family by family over a smoothed close series with shared
// peak/trough lists; each family returns its first qualifying match or a zero
// result, never an error.
package pattern

import (
	"ta-enginev1/internal/extrema"
	"ta-enginev1/internal/indicator"
	"ta-enginev1/internal/model"
)

// Family keys used in the report and the detection summary.
const (
	KeyHeadAndShoulders = "head_and_shoulders"
	KeyDoublePattern    = "double_pattern"
	KeyCupAndHandle     = "cup_and_handle"
	KeyFlagPennant      = "flag_pennant"
)

// Config tunes the shared smoothing and extremum windows plus the level
// similarity threshold for double tops/bottoms.
type Config struct {
	SmoothPeriod int     // close smoothing window
	Window       int     // extremum comparison half-window
	FlagWindow   int     // consolidation bars for flag/pennant
	Threshold    float64 // level similarity for double tops/bottoms
}

// DefaultConfig returns the standard daily-bar tuning.
func DefaultConfig() Config {
	return Config{SmoothPeriod: 5, Window: 20, FlagWindow: 10, Threshold: 0.03}
}

// DetectAll runs every pattern family over one instrument's bars and fills
// the summary. The close series is smoothed once and its extrema shared by
// the detectors; a panic inside one detector downgrades that family to "not
// detected" without touching the others.
func DetectAll(highs, lows, closes []float64, cfg Config) model.PatternSet {
	smooth := indicator.RollingMean(closes, cfg.SmoothPeriod)
	peaks, troughs := extrema.Find(smooth, cfg.Window)

	set := model.PatternSet{
		HeadAndShoulders: run(func() model.PatternMatch {
			return HeadAndShoulders(peaks, troughs)
		}),
		DoublePattern: run(func() model.PatternMatch {
			return DoubleTopBottom(peaks, troughs, cfg.Threshold)
		}),
		CupAndHandle: run(func() model.PatternMatch {
			return CupAndHandle(len(closes), smooth, peaks, troughs)
		}),
		FlagPennant: run(func() model.PatternMatch {
			return FlagPennant(highs, lows, closes, cfg.FlagWindow)
		}),
	}

	names := make([]string, 0, 4)
	if set.HeadAndShoulders.Detected {
		names = append(names, KeyHeadAndShoulders)
	}
	if set.DoublePattern.Detected {
		names = append(names, KeyDoublePattern)
	}
	if set.CupAndHandle.Detected {
		names = append(names, KeyCupAndHandle)
	}
	if set.FlagPennant.Detected {
		names = append(names, KeyFlagPennant)
	}
	set.Summary = model.PatternSummary{DetectedCount: len(names), DetectedPatterns: names}
	return set
}

// run downgrades a detector panic to a zero match.
func run(fn func() model.PatternMatch) (m model.PatternMatch) {
	defer func() {
		if recover() != nil {
			m = model.PatternMatch{}
		}
	}()
	return fn()
}

// firstBetween returns the first extremum with lo < Index < hi.
func firstBetween(list []model.Extremum, lo, hi int) (model.Extremum, bool) {
	for _, e := range list {
		if e.Index > lo && e.Index < hi {
			return e, true
		}
	}
	return model.Extremum{}, false
}

// firstAfter returns the first extremum with Index > after.
func firstAfter(list []model.Extremum, after int) (model.Extremum, bool) {
	for _, e := range list {
		if e.Index > after {
			return e, true
		}
	}
	return model.Extremum{}, false
}
