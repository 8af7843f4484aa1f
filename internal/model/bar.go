package model

import (
	"encoding/json"
	"time"
)

// Bar is one OHLCV observation for a single instrument.
// Bars are immutable once constructed; a series is ordered by Timestamp.
type Bar struct {
	Timestamp time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// JSON returns the JSON-encoded bar (errors ignored; Bar always marshals).
func (b *Bar) JSON() []byte {
	buf, _ := json.Marshal(b)
	return buf
}

// Closes extracts the close series from bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}

// Highs extracts the high series from bars.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].High
	}
	return out
}

// Lows extracts the low series from bars.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Low
	}
	return out
}
