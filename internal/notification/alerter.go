package notification

import (
	"context"
	"fmt"
	"log"

	"ta-enginev1/internal/model"
)

const defaultMinConfidence = 0.6

// Alerter inspects finished reports and pushes alerts for strong overall
// verdicts and detected chart patterns.
type Alerter struct {
	minConfidence float64
	notifiers     []Notifier
}

// NewAlerter builds an alerter fanning out to the given backends. Strong
// verdicts below minConfidence are suppressed; pass 0 for the default.
func NewAlerter(minConfidence float64, notifiers ...Notifier) *Alerter {
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}
	return &Alerter{minConfidence: minConfidence, notifiers: notifiers}
}

// Evaluate derives alerts from one report and sends them on every backend.
// Delivery failures are logged, not returned; alerting never fails the
// analysis loop.
func (a *Alerter) Evaluate(ctx context.Context, rep *model.Report) {
	for _, alert := range a.derive(rep) {
		for _, n := range a.notifiers {
			if err := n.Send(ctx, alert); err != nil {
				log.Printf("[notify] send failed: %v", err)
			}
		}
	}
}

func (a *Alerter) derive(rep *model.Report) []Alert {
	var alerts []Alert

	o := rep.Signals.Overall
	if (o.Signal == model.StrongBuy || o.Signal == model.StrongSell) && o.Confidence >= a.minConfidence {
		alerts = append(alerts, Alert{
			Level:  AlertCritical,
			Symbol: rep.Symbol,
			Title:  string(o.Signal) + " signal",
			Message: fmt.Sprintf("%d bullish vs %d bearish indicators, confidence %.0f%%",
				o.BullishCount, o.BearishCount, o.Confidence*100),
		})
	}

	if rep.Patterns == nil {
		return alerts
	}
	for _, m := range []model.PatternMatch{
		rep.Patterns.HeadAndShoulders,
		rep.Patterns.DoublePattern,
		rep.Patterns.CupAndHandle,
		rep.Patterns.FlagPennant,
	} {
		if !m.Detected {
			continue
		}
		msg := "pattern detected"
		if m.Direction != "" {
			msg = string(m.Direction) + " pattern detected"
		}
		alerts = append(alerts, Alert{
			Level:   AlertInfo,
			Symbol:  rep.Symbol,
			Title:   m.PatternType,
			Message: msg,
		})
	}
	return alerts
}
