package model

import "time"

// IndicatorName enumerates the computable indicator groups a request may ask
// for. Unknown names in a request are ignored.
type IndicatorName string

const (
	IndSMA               IndicatorName = "sma"
	IndEMA               IndicatorName = "ema"
	IndRSI               IndicatorName = "rsi"
	IndMACD              IndicatorName = "macd"
	IndBollinger         IndicatorName = "bollinger"
	IndIchimoku          IndicatorName = "ichimoku"
	IndATR               IndicatorName = "atr"
	IndStochastic        IndicatorName = "stochastic"
	IndPSAR              IndicatorName = "psar"
	IndFibonacci         IndicatorName = "fibonacci"
	IndSupportResistance IndicatorName = "support_resistance"
	IndPatterns          IndicatorName = "patterns"
)

// DefaultIndicators returns the full indicator selection.
func DefaultIndicators() []IndicatorName {
	return []IndicatorName{
		IndSMA, IndEMA, IndRSI, IndMACD, IndBollinger, IndIchimoku,
		IndATR, IndStochastic, IndPSAR, IndFibonacci,
		IndSupportResistance, IndPatterns,
	}
}

// Request describes one analysis run: which instrument the bars belong to,
// which indicator groups to compute, and (for collaborators that fetch data)
// how many days of history to use. An empty Indicators slice selects the
// default (everything).
type Request struct {
	Symbol     string          `json:"symbol"`
	Indicators []IndicatorName `json:"indicators,omitempty"`
	PeriodDays int             `json:"period,omitempty"`
	Interval   string          `json:"interval,omitempty"`

	// AsOf stamps the report. Left zero, the engine uses the last bar's
	// timestamp so identical inputs keep producing identical reports.
	AsOf time.Time `json:"-"`
}

// Wants reports whether the request selects the named indicator group.
func (r *Request) Wants(name IndicatorName) bool {
	if len(r.Indicators) == 0 {
		return true
	}
	for _, n := range r.Indicators {
		if n == name {
			return true
		}
	}
	return false
}
