package model

// ExtremumKind distinguishes local maxima from local minima.
type ExtremumKind string

const (
	Peak   ExtremumKind = "Peak"
	Trough ExtremumKind = "Trough"
)

// Extremum is a local maximum or minimum in a numeric series.
// Index addresses the series the extremum was extracted from (for chart
// patterns that is the smoothed close series, not the raw bars).
type Extremum struct {
	Index int          `json:"index"`
	Value float64      `json:"value"`
	Kind  ExtremumKind `json:"kind"`
}

// Direction labels which way a detected pattern resolves.
type Direction string

const (
	Bullish Direction = "Bullish"
	Bearish Direction = "Bearish"
)

// PatternMatch is the outcome of one pattern family's detection.
// A zero PatternMatch means "not detected". KeyPoints are ordered by index;
// ReferenceLevel carries the neckline (head & shoulders) or the shared
// peak/trough level (double patterns) where the family defines one.
type PatternMatch struct {
	Detected       bool       `json:"detected"`
	PatternType    string     `json:"pattern_type,omitempty"`
	Direction      Direction  `json:"direction,omitempty"`
	KeyPoints      []Extremum `json:"key_points,omitempty"`
	ReferenceLevel *float64   `json:"reference_level,omitempty"`
}

// Pattern type names reported in PatternMatch.PatternType.
const (
	PatternHeadAndShoulders        = "head_and_shoulders"
	PatternInverseHeadAndShoulders = "inverse_head_and_shoulders"
	PatternDoubleTop               = "double_top"
	PatternDoubleBottom            = "double_bottom"
	PatternCupAndHandle            = "cup_and_handle"
	PatternFlag                    = "flag"
	PatternPennant                 = "pennant"
)

// PatternSet holds one detection result per pattern family plus a summary.
// Family keys are fixed; at most one match per family per analysis run.
type PatternSet struct {
	HeadAndShoulders PatternMatch   `json:"head_and_shoulders"`
	DoublePattern    PatternMatch   `json:"double_pattern"`
	CupAndHandle     PatternMatch   `json:"cup_and_handle"`
	FlagPennant      PatternMatch   `json:"flag_pennant"`
	Summary          PatternSummary `json:"summary"`
}

// PatternSummary counts the detected families.
type PatternSummary struct {
	DetectedCount    int      `json:"detected_count"`
	DetectedPatterns []string `json:"detected_patterns"`
}
