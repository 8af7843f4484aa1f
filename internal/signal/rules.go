package signal

import "ta-enginev1/internal/model"

const (
	rsiOverbought   = 70.0
	rsiOversold     = 30.0
	stochOverbought = 80.0
	stochOversold   = 20.0
)

// MovingAverages derives the crossover flags and the price-vs-MA trend. It
// needs the 50/200 SMAs and 12/26 EMAs; with any of them unavailable the
// whole block is skipped.
func MovingAverages(price float64, sma *model.SMAResult, ema *model.EMAResult) *model.MASignal {
	if sma == nil || ema == nil || sma.SMA50 == nil || sma.SMA200 == nil ||
		ema.EMA12 == nil || ema.EMA26 == nil {
		return nil
	}
	sma50, sma200 := *sma.SMA50, *sma.SMA200
	ema12, ema26 := *ema.EMA12, *ema.EMA26

	above50 := price > sma50
	above200 := price > sma200
	trend := model.TrendMixed
	switch {
	case above50 && above200:
		trend = model.TrendBullish
	case !above50 && !above200:
		trend = model.TrendBearish
	}

	// A cross counts as "just happened" while the fast average is still
	// within 1% of the slow one.
	return &model.MASignal{
		GoldenCross:         sma50 > sma200 && sma50 < sma200*1.01,
		DeathCross:          sma50 < sma200 && sma50 > sma200*0.99,
		EMACrossoverBullish: ema12 > ema26 && ema12 < ema26*1.01,
		EMACrossoverBearish: ema12 < ema26 && ema12 > ema26*0.99,
		PriceAboveMA50:      above50,
		PriceAboveMA200:     above200,
		Trend:               trend,
	}
}

// RSI maps the 14-period reading to an overbought/oversold verdict.
func RSI(r *model.RSIResult) *model.RSISignal {
	if r == nil || r.RSI14 == nil {
		return nil
	}
	v := *r.RSI14
	sig := model.Neutral
	switch {
	case v > rsiOverbought:
		sig = model.Sell
	case v < rsiOversold:
		sig = model.Buy
	}
	return &model.RSISignal{
		Value:      v,
		Overbought: v > rsiOverbought,
		Oversold:   v < rsiOversold,
		Signal:     sig,
	}
}

// MACD votes by the line-vs-signal relation; the crossover flags fire while
// the line is within 10% of the signal line.
func MACD(m *model.MACDResult) *model.MACDSignal {
	if m == nil || m.MACDLine == nil || m.SignalLine == nil || m.Histogram == nil {
		return nil
	}
	line, sig, hist := *m.MACDLine, *m.SignalLine, *m.Histogram
	verdict := model.Sell
	if line > sig {
		verdict = model.Buy
	}
	return &model.MACDSignal{
		HistogramPositive: hist > 0,
		MACDAboveSignal:   line > sig,
		CrossoverBullish:  line > sig && line < sig*1.1,
		CrossoverBearish:  line < sig && line > sig*0.9,
		Signal:            verdict,
	}
}

// Bollinger votes by band breach.
func Bollinger(price float64, b *model.BollingerResult) *model.BollingerSignal {
	if b == nil || b.UpperBand == nil || b.LowerBand == nil || b.PercentB == nil {
		return nil
	}
	upper, lower := *b.UpperBand, *b.LowerBand
	sig := model.Neutral
	switch {
	case price > upper:
		sig = model.Sell
	case price < lower:
		sig = model.Buy
	}
	return &model.BollingerSignal{
		PriceAboveUpper: price > upper,
		PriceBelowLower: price < lower,
		PercentB:        *b.PercentB,
		Signal:          sig,
	}
}

// Stochastic votes by the %K overbought/oversold bands; the crossover flags
// fire while %K is within 10% of %D.
func Stochastic(s *model.StochResult) *model.StochSignal {
	if s == nil || s.KValue == nil || s.DValue == nil {
		return nil
	}
	k, d := *s.KValue, *s.DValue
	sig := model.Neutral
	switch {
	case k > stochOverbought:
		sig = model.Sell
	case k < stochOversold:
		sig = model.Buy
	}
	return &model.StochSignal{
		Overbought:       k > stochOverbought,
		Oversold:         k < stochOversold,
		KAboveD:          k > d,
		CrossoverBullish: k > d && k < d*1.1,
		CrossoverBearish: k < d && k > d*0.9,
		Signal:           sig,
	}
}

// Ichimoku grades price against the cloud. StrongBuy needs price above the
// cloud with the conversion line leading and a bullish cloud; each weaker
// grade relaxes one leg. The sell side mirrors with strict inversions, so a
// flat conversion-vs-base reading inside the cloud stays Neutral.
func Ichimoku(price float64, ic *model.IchimokuResult) *model.IchimokuSignal {
	if ic == nil || ic.TenkanSen == nil || ic.KijunSen == nil ||
		ic.SenkouSpanA == nil || ic.SenkouSpanB == nil {
		return nil
	}
	tenkan, kijun := *ic.TenkanSen, *ic.KijunSen
	spanA, spanB := *ic.SenkouSpanA, *ic.SenkouSpanB

	top, bottom := spanA, spanB
	if spanB > spanA {
		top, bottom = spanB, spanA
	}
	above := price > top
	below := price < bottom
	bullishCloud := spanA > spanB
	tkAbove := tenkan > kijun
	tkBelow := tenkan < kijun

	var sig model.Signal
	switch {
	case above && tkAbove && bullishCloud:
		sig = model.StrongBuy
	case above || (tkAbove && bullishCloud):
		sig = model.Buy
	case below && tkBelow && !bullishCloud:
		sig = model.StrongSell
	case below || (tkBelow && !bullishCloud):
		sig = model.Sell
	default:
		sig = model.Neutral
	}

	return &model.IchimokuSignal{
		PriceAboveCloud:  above,
		PriceBelowCloud:  below,
		PriceInCloud:     !above && !below,
		BullishCloud:     bullishCloud,
		TenkanAboveKijun: tkAbove,
		Signal:           sig,
	}
}

// PSAR votes by which side of the stop price sits on.
func PSAR(price float64, p *model.PSARResult) *model.PSARSignal {
	if p == nil || p.PSARValue == nil {
		return nil
	}
	sar := *p.PSARValue
	sig := model.Sell
	if price > sar {
		sig = model.Buy
	}
	return &model.PSARSignal{
		Trend:          p.Trend,
		PriceAbovePSAR: price > sar,
		Signal:         sig,
	}
}
