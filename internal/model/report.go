package model

import (
	"encoding/json"
	"time"
)

// Report is the full result of one analysis run for one instrument.
// Field names follow the report contract consumed by dashboards and the API;
// do not rename JSON keys.
type Report struct {
	Symbol            string       `json:"symbol"`
	AnalysisDate      time.Time    `json:"analysis_date"`
	Indicators        IndicatorSet `json:"indicators"`
	Patterns          *PatternSet  `json:"patterns,omitempty"`
	SupportResistance *LevelSet    `json:"support_resistance,omitempty"`
	Signals           SignalSet    `json:"signals"`
}

// JSON returns the JSON-encoded report.
func (r *Report) JSON() []byte {
	buf, _ := json.Marshal(r)
	return buf
}

// IndicatorSet holds the latest value(s) of each computed indicator.
// A nil block means the indicator was not requested; a nil field inside a
// block means the series was shorter than the indicator's window.
type IndicatorSet struct {
	SMA        *SMAResult       `json:"sma,omitempty"`
	EMA        *EMAResult       `json:"ema,omitempty"`
	RSI        *RSIResult       `json:"rsi,omitempty"`
	MACD       *MACDResult      `json:"macd,omitempty"`
	Bollinger  *BollingerResult `json:"bollinger,omitempty"`
	Ichimoku   *IchimokuResult  `json:"ichimoku,omitempty"`
	ATR        *ATRResult       `json:"atr,omitempty"`
	Stochastic *StochResult     `json:"stochastic,omitempty"`
	PSAR       *PSARResult      `json:"psar,omitempty"`
	Fibonacci  *FibonacciLevels `json:"fibonacci,omitempty"`
}

// SMAResult holds simple moving averages of the close.
type SMAResult struct {
	SMA20  *float64 `json:"sma_20"`
	SMA50  *float64 `json:"sma_50"`
	SMA200 *float64 `json:"sma_200"`
}

// EMAResult holds exponential moving averages of the close.
type EMAResult struct {
	EMA12 *float64 `json:"ema_12"`
	EMA26 *float64 `json:"ema_26"`
	EMA50 *float64 `json:"ema_50"`
}

// RSIResult holds the 14-period relative strength index.
type RSIResult struct {
	RSI14 *float64 `json:"rsi_14"`
}

// MACDResult holds the MACD line, its signal line, and the histogram.
// The line needs the slow EMA window; signal and histogram additionally need
// the smoothing window on top of it.
type MACDResult struct {
	MACDLine   *float64 `json:"macd_line"`
	SignalLine *float64 `json:"signal_line"`
	Histogram  *float64 `json:"histogram"`
}

// BollingerResult holds the 20-period, 2-sigma Bollinger bands plus the
// derived %B and bandwidth readings.
type BollingerResult struct {
	UpperBand  *float64 `json:"upper_band"`
	MiddleBand *float64 `json:"middle_band"`
	LowerBand  *float64 `json:"lower_band"`
	Width      *float64 `json:"width"`
	PercentB   *float64 `json:"percent_b"`
}

// IchimokuResult holds the Ichimoku lines applicable to the latest bar.
// Senkou spans are the cloud boundaries projected 26 bars forward, i.e. the
// values computed from windows ending 26 bars back; chikou is the close from
// 26 bars back.
type IchimokuResult struct {
	TenkanSen   *float64 `json:"tenkan_sen"`
	KijunSen    *float64 `json:"kijun_sen"`
	SenkouSpanA *float64 `json:"senkou_span_a"`
	SenkouSpanB *float64 `json:"senkou_span_b"`
	ChikouSpan  *float64 `json:"chikou_span"`
}

// ATRResult holds the 14-period average true range.
type ATRResult struct {
	ATR14 *float64 `json:"atr_14"`
}

// StochResult holds the stochastic oscillator %K and its %D smoothing.
type StochResult struct {
	KValue *float64 `json:"k_value"`
	DValue *float64 `json:"d_value"`
}

// SARTrend labels the parabolic SAR trend direction.
type SARTrend string

const (
	SARUptrend   SARTrend = "Uptrend"
	SARDowntrend SARTrend = "Downtrend"
)

// PSARResult holds the parabolic SAR stop value and current trend.
type PSARResult struct {
	PSARValue *float64 `json:"psar_value"`
	Trend     SARTrend `json:"trend,omitempty"`
}

// FibonacciLevels holds retracement prices over the trailing swing window.
// JSON keys are the percentage labels the report contract uses.
type FibonacciLevels struct {
	P0   float64 `json:"0%"`
	P236 float64 `json:"23.6%"`
	P382 float64 `json:"38.2%"`
	P50  float64 `json:"50%"`
	P618 float64 `json:"61.8%"`
	P786 float64 `json:"78.6%"`
	P100 float64 `json:"100%"`
}

// LevelSet holds filtered horizontal support and resistance prices,
// sorted ascending.
type LevelSet struct {
	SupportLevels    []float64 `json:"support_levels"`
	ResistanceLevels []float64 `json:"resistance_levels"`
}
