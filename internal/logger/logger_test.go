package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInitSetsDefault(t *testing.T) {
	l := Init("unit-test", slog.LevelWarn)
	if l == nil {
		t.Fatal("nil logger")
	}
	if slog.Default() != l {
		t.Error("Init should install the returned logger as the default")
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("unset trace id: got %q", got)
	}
	ctx := WithTraceID(context.Background(), "abc-1")
	if got := TraceID(ctx); got != "abc-1" {
		t.Errorf("got %q, want abc-1", got)
	}
}

func TestGenerateTraceID(t *testing.T) {
	ts := time.Date(2026, 2, 3, 9, 30, 0, 987654321, time.UTC)
	id := GenerateTraceID("INFY", ts)
	if !strings.HasPrefix(id, "INFY-") {
		t.Errorf("id %q should carry the symbol prefix", id)
	}
	if !strings.HasSuffix(id, "987654321") {
		t.Errorf("id %q should end with the nano timestamp", id)
	}
}

func TestLogWithTraceAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithTraceID(context.Background(), "RELIANCE-42")
	l.Info("sweep done", LogWithTrace(ctx)...)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["trace_id"] != "RELIANCE-42" {
		t.Errorf("trace_id = %v, want RELIANCE-42", rec["trace_id"])
	}
}

func TestLogWithTraceEmptyContext(t *testing.T) {
	if attrs := LogWithTrace(context.Background()); attrs != nil {
		t.Errorf("expected nil attrs, got %v", attrs)
	}
}
