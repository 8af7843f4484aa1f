// Package notification delivers analysis alerts (strong verdicts, detected
// chart patterns) to external channels: Telegram, generic webhooks, or the
// process log.
package notification

import (
	"context"
	"log/slog"

	"ta-enginev1/internal/logger"
)

// AlertLevel ranks how urgent an alert is.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is one deliverable notification: a short title plus detail,
// tagged with the symbol that produced it.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Symbol  string     `json:"symbol"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is implemented by every delivery backend.
type Notifier interface {
	// Send delivers one alert, returning the delivery error if any.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier emits alerts as structured log records, carrying the analysis
// trace ID when the context has one.
type LogNotifier struct{}

// NewLogNotifier returns the backend that writes alerts to the process log.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	attrs := []any{
		slog.String("symbol", alert.Symbol),
		slog.String("level", string(alert.Level)),
		slog.String("title", alert.Title),
	}
	attrs = append(attrs, logger.LogWithTrace(ctx)...)
	slog.Info(alert.Message, attrs...)
	return nil
}
