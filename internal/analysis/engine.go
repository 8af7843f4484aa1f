// Package analysis runs the full technical-analysis pipeline for one
// instrument: indicator math, chart pattern detection, support/resistance
// levels and the fused trade signal, assembled into a single report.
//
// The engine holds only configuration. Analyze is a pure function of the bar
// series and the request; the same inputs always produce the same report, and
// concurrent calls for different instruments need no coordination.
package analysis

import (
	"ta-enginev1/internal/indicator"
	"ta-enginev1/internal/levels"
	"ta-enginev1/internal/model"
	"ta-enginev1/internal/pattern"
	"ta-enginev1/internal/signal"
)

// Indicator windows are fixed by the report contract; the output keys name
// them (sma_20, rsi_14, atr_14, ...).
const (
	smaShort = 20
	smaMid   = 50
	smaLong  = 200

	emaFast = 12
	emaSlow = 26
	emaLong = 50

	rsiPeriod = 14

	macdFast   = 12
	macdSlow   = 26
	macdSmooth = 9

	bbPeriod = 20
	bbDev    = 2.0

	atrPeriod = 14

	stochK = 14
	stochD = 3

	sarStep = 0.02
	sarMax  = 0.2

	ichConv = 9
	ichBase = 26
	ichSpan = 52
)

// Options tunes the configurable pipeline stages. Indicator windows are part
// of the report contract and stay fixed.
type Options struct {
	// FibPeriod is the trailing swing window for fibonacci levels.
	FibPeriod int
	// Pattern configures smoothing and extremum detection for the
	// pattern detectors.
	Pattern pattern.Config
	// Levels configures the support/resistance locator.
	Levels levels.Config
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		FibPeriod: 120,
		Pattern:   pattern.DefaultConfig(),
		Levels:    levels.DefaultConfig(),
	}
}

// Engine computes analysis reports.
type Engine struct {
	opts Options
}

// NewEngine builds an engine, filling zero-valued options from the defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.FibPeriod <= 0 {
		opts.FibPeriod = def.FibPeriod
	}
	if opts.Pattern.SmoothPeriod <= 0 {
		opts.Pattern = def.Pattern
	}
	if opts.Levels.Window <= 0 {
		opts.Levels = def.Levels
	}
	return &Engine{opts: opts}
}

// Analyze computes every requested indicator group over the bar series and
// assembles the report. Bars must be ordered oldest first. A series shorter
// than an indicator's window leaves that indicator's fields nil; it never
// fails the call.
func (e *Engine) Analyze(bars []model.Bar, req model.Request) model.Report {
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}

	rep := model.Report{
		Symbol:       req.Symbol,
		AnalysisDate: req.AsOf,
	}
	if rep.AnalysisDate.IsZero() && len(bars) > 0 {
		rep.AnalysisDate = bars[len(bars)-1].Timestamp
	}

	if req.Wants(model.IndSMA) {
		rep.Indicators.SMA = smaBlock(closes)
	}
	if req.Wants(model.IndEMA) {
		rep.Indicators.EMA = emaBlock(closes)
	}
	if req.Wants(model.IndRSI) {
		rep.Indicators.RSI = rsiBlock(closes)
	}
	if req.Wants(model.IndMACD) {
		rep.Indicators.MACD = indicator.MACD(closes, macdFast, macdSlow, macdSmooth)
	}
	if req.Wants(model.IndBollinger) {
		rep.Indicators.Bollinger = indicator.Bollinger(closes, bbPeriod, bbDev)
	}
	if req.Wants(model.IndIchimoku) {
		rep.Indicators.Ichimoku = indicator.Ichimoku(highs, lows, closes, ichConv, ichBase, ichSpan)
	}
	if req.Wants(model.IndATR) {
		rep.Indicators.ATR = atrBlock(highs, lows, closes)
	}
	if req.Wants(model.IndStochastic) {
		rep.Indicators.Stochastic = indicator.Stochastic(highs, lows, closes, stochK, stochD)
	}
	if req.Wants(model.IndPSAR) {
		rep.Indicators.PSAR = indicator.ParabolicSAR(highs, lows, closes, sarStep, sarMax)
	}
	if req.Wants(model.IndFibonacci) {
		rep.Indicators.Fibonacci = indicator.Fibonacci(highs, lows, e.opts.FibPeriod)
	}

	if req.Wants(model.IndPatterns) {
		set := pattern.DetectAll(highs, lows, closes, e.opts.Pattern)
		rep.Patterns = &set
	}
	if req.Wants(model.IndSupportResistance) {
		support, resistance := levels.SupportResistance(highs, lows, e.opts.Levels)
		rep.SupportResistance = &model.LevelSet{
			SupportLevels:    support,
			ResistanceLevels: resistance,
		}
	}

	var price float64
	if len(closes) > 0 {
		price = closes[len(closes)-1]
	}
	rep.Signals = signal.Evaluate(price, rep.Indicators)

	return rep
}

func smaBlock(closes []float64) *model.SMAResult {
	out := &model.SMAResult{}
	if v, ok := indicator.SMA(closes, smaShort); ok {
		out.SMA20 = &v
	}
	if v, ok := indicator.SMA(closes, smaMid); ok {
		out.SMA50 = &v
	}
	if v, ok := indicator.SMA(closes, smaLong); ok {
		out.SMA200 = &v
	}
	return out
}

func emaBlock(closes []float64) *model.EMAResult {
	out := &model.EMAResult{}
	if v, ok := indicator.EMA(closes, emaFast); ok {
		out.EMA12 = &v
	}
	if v, ok := indicator.EMA(closes, emaSlow); ok {
		out.EMA26 = &v
	}
	if v, ok := indicator.EMA(closes, emaLong); ok {
		out.EMA50 = &v
	}
	return out
}

func rsiBlock(closes []float64) *model.RSIResult {
	out := &model.RSIResult{}
	if v, ok := indicator.RSI(closes, rsiPeriod); ok {
		out.RSI14 = &v
	}
	return out
}

func atrBlock(highs, lows, closes []float64) *model.ATRResult {
	out := &model.ATRResult{}
	if v, ok := indicator.ATR(highs, lows, closes, atrPeriod); ok {
		out.ATR14 = &v
	}
	return out
}
