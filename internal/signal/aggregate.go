package signal

import "ta-enginev1/internal/model"

// Aggregate tallies the per-indicator votes and fuses the overall verdict.
// The moving-average block votes through its trend label, the ichimoku block
// through its bullish/bearish grade, the rest through their Buy/Sell
// category; nil blocks abstain. Two aligned votes in the majority make a
// Buy/Sell, four or more a Strong one.
func Aggregate(set *model.SignalSet) model.OverallSignal {
	bullish, bearish := 0, 0

	if ma := set.MovingAverages; ma != nil {
		switch ma.Trend {
		case model.TrendBullish:
			bullish++
		case model.TrendBearish:
			bearish++
		}
	}

	vote := func(s model.Signal) {
		switch {
		case s.IsBullish():
			bullish++
		case s.IsBearish():
			bearish++
		}
	}
	if set.RSI != nil {
		vote(set.RSI.Signal)
	}
	if set.MACD != nil {
		vote(set.MACD.Signal)
	}
	if set.Bollinger != nil {
		vote(set.Bollinger.Signal)
	}
	if set.Stochastic != nil {
		vote(set.Stochastic.Signal)
	}
	if set.Ichimoku != nil {
		vote(set.Ichimoku.Signal)
	}
	if set.PSAR != nil {
		vote(set.PSAR.Signal)
	}

	overall := model.Neutral
	switch {
	case bullish > bearish && bullish >= 4:
		overall = model.StrongBuy
	case bullish > bearish && bullish >= 2:
		overall = model.Buy
	case bearish > bullish && bearish >= 4:
		overall = model.StrongSell
	case bearish > bullish && bearish >= 2:
		overall = model.Sell
	}

	major := bullish
	if bearish > major {
		major = bearish
	}
	total := bullish + bearish
	if total < 1 {
		total = 1
	}

	return model.OverallSignal{
		Signal:       overall,
		BullishCount: bullish,
		BearishCount: bearish,
		Confidence:   float64(major) / float64(total),
	}
}
