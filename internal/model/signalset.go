package model

// Signal is the five-level categorical verdict derived from an indicator.
// The string values are part of the report contract; downstream consumers
// match on them.
type Signal string

const (
	StrongBuy  Signal = "StrongBuy"
	Buy        Signal = "Buy"
	Neutral    Signal = "Neutral"
	Sell       Signal = "Sell"
	StrongSell Signal = "StrongSell"
)

// IsBullish reports whether the signal votes on the buy side.
func (s Signal) IsBullish() bool { return s == Buy || s == StrongBuy }

// IsBearish reports whether the signal votes on the sell side.
func (s Signal) IsBearish() bool { return s == Sell || s == StrongSell }

// Trend labels the moving-average trend reading.
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
	TrendMixed   Trend = "Mixed"
)

// SignalSet holds the per-indicator signal blocks and the fused overall
// verdict. A nil block means the underlying indicator values were not
// available (or not requested); it contributes no vote to the overall tally.
type SignalSet struct {
	MovingAverages *MASignal       `json:"moving_averages,omitempty"`
	RSI            *RSISignal      `json:"rsi,omitempty"`
	MACD           *MACDSignal     `json:"macd,omitempty"`
	Bollinger      *BollingerSignal `json:"bollinger,omitempty"`
	Stochastic     *StochSignal    `json:"stochastic,omitempty"`
	Ichimoku       *IchimokuSignal `json:"ichimoku,omitempty"`
	PSAR           *PSARSignal     `json:"psar,omitempty"`
	Overall        OverallSignal   `json:"overall"`
}

// MASignal carries crossover flags and the price-vs-MA trend.
type MASignal struct {
	GoldenCross         bool  `json:"golden_cross"`
	DeathCross          bool  `json:"death_cross"`
	EMACrossoverBullish bool  `json:"ema_crossover_bullish"`
	EMACrossoverBearish bool  `json:"ema_crossover_bearish"`
	PriceAboveMA50      bool  `json:"price_above_ma50"`
	PriceAboveMA200     bool  `json:"price_above_ma200"`
	Trend               Trend `json:"trend"`
}

// RSISignal carries the RSI reading and its overbought/oversold verdict.
type RSISignal struct {
	Value      float64 `json:"value"`
	Overbought bool    `json:"overbought"`
	Oversold   bool    `json:"oversold"`
	Signal     Signal  `json:"signal"`
}

// MACDSignal carries the line-vs-signal relation and crossover flags.
type MACDSignal struct {
	HistogramPositive bool   `json:"histogram_positive"`
	MACDAboveSignal   bool   `json:"macd_above_signal"`
	CrossoverBullish  bool   `json:"crossover_bullish"`
	CrossoverBearish  bool   `json:"crossover_bearish"`
	Signal            Signal `json:"signal"`
}

// BollingerSignal carries the band-breach flags and %B.
type BollingerSignal struct {
	PriceAboveUpper bool    `json:"price_above_upper"`
	PriceBelowLower bool    `json:"price_below_lower"`
	PercentB        float64 `json:"percent_b"`
	Signal          Signal  `json:"signal"`
}

// StochSignal carries the %K/%D relation and overbought/oversold flags.
type StochSignal struct {
	Overbought       bool   `json:"overbought"`
	Oversold         bool   `json:"oversold"`
	KAboveD          bool   `json:"k_above_d"`
	CrossoverBullish bool   `json:"crossover_bullish"`
	CrossoverBearish bool   `json:"crossover_bearish"`
	Signal           Signal `json:"signal"`
}

// IchimokuSignal carries the price-vs-cloud position flags.
type IchimokuSignal struct {
	PriceAboveCloud  bool   `json:"price_above_cloud"`
	PriceBelowCloud  bool   `json:"price_below_cloud"`
	PriceInCloud     bool   `json:"price_in_cloud"`
	BullishCloud     bool   `json:"bullish_cloud"`
	TenkanAboveKijun bool   `json:"tenkan_above_kijun"`
	Signal           Signal `json:"signal"`
}

// PSARSignal carries the SAR trend and price position.
type PSARSignal struct {
	Trend          SARTrend `json:"trend"`
	PriceAbovePSAR bool     `json:"price_above_psar"`
	Signal         Signal   `json:"signal"`
}

// OverallSignal is the fused verdict across all evaluated indicators.
// Confidence is max(bullish,bearish)/max(1,bullish+bearish), in [0,1].
type OverallSignal struct {
	Signal       Signal  `json:"signal"`
	BullishCount int     `json:"bullish_count"`
	BearishCount int     `json:"bearish_count"`
	Confidence   float64 `json:"confidence"`
}
