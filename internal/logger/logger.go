// Package logger configures log/slog for the long-running daemons: JSON
// records on stdout tagged with the service name, plus helpers that thread
// a per-run trace ID through context so one analysis sweep can be followed
// across the engine, stores and gateway.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// traceKey is the context key for the per-run trace ID.
type traceKey struct{}

// Init builds the JSON logger for a service and installs it as the slog
// default, so package-level slog calls emit structured records too.
func Init(service string, level slog.Level) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	l = l.With(slog.String("service", service))
	slog.SetDefault(l)
	return l
}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceID returns the trace ID carried by ctx, or "" when unset.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// GenerateTraceID derives the trace ID for one analysis run: the symbol
// plus the run timestamp in nanoseconds.
func GenerateTraceID(symbol string, ts time.Time) string {
	return symbol + "-" + strconv.FormatInt(ts.UnixNano(), 10)
}

// LogWithTrace converts the context trace ID into slog attributes:
// slog.Info("msg", logger.LogWithTrace(ctx)...).
func LogWithTrace(ctx context.Context) []any {
	id := TraceID(ctx)
	if id == "" {
		return nil
	}
	return []any{slog.String("trace_id", id)}
}
