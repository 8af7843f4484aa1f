// Package signal maps indicator readings to categorical trade signals and
// fuses them into one overall verdict. Every rule is a pure function of the
// computed indicator values; a rule whose inputs are missing returns nil and
// casts no vote.
package signal

import "ta-enginev1/internal/model"

// Evaluate derives every per-indicator signal block available from the
// computed indicators and fuses the overall verdict. price is the latest
// close.
func Evaluate(price float64, ind model.IndicatorSet) model.SignalSet {
	set := model.SignalSet{
		MovingAverages: MovingAverages(price, ind.SMA, ind.EMA),
		RSI:            RSI(ind.RSI),
		MACD:           MACD(ind.MACD),
		Bollinger:      Bollinger(price, ind.Bollinger),
		Stochastic:     Stochastic(ind.Stochastic),
		Ichimoku:       Ichimoku(price, ind.Ichimoku),
		PSAR:           PSAR(price, ind.PSAR),
	}
	set.Overall = Aggregate(&set)
	return set
}
