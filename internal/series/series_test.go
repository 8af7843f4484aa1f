package series

import (
	"errors"
	"testing"
	"time"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func rec(date string, o, h, l, c, v float64) Record {
	return Record{
		"date": date, "open": o, "high": h, "low": l, "close": c, "volume": v,
	}
}

// ────────────────────────────────────────────────────────────
// Required columns
// ────────────────────────────────────────────────────────────

func TestFromRecords_AllColumnsPresent(t *testing.T) {
	bars, err := FromRecords([]Record{
		rec("2026-01-05", 100, 101, 99, 100.5, 1200),
		rec("2026-01-06", 100.5, 102, 100, 101.5, 900),
	})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Close != 100.5 || bars[1].Close != 101.5 {
		t.Errorf("closes: got %.2f, %.2f", bars[0].Close, bars[1].Close)
	}
}

func TestFromRecords_MissingColumn(t *testing.T) {
	rows := []Record{{
		"date": "2026-01-05", "open": 100.0, "high": 101.0, "low": 99.0, "close": 100.5,
		// no volume
	}}
	_, err := FromRecords(rows)
	if err == nil {
		t.Fatal("expected error for missing volume column")
	}
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %T", err)
	}
	if mfe.Field != "volume" {
		t.Errorf("missing field: got %q, want %q", mfe.Field, "volume")
	}
	want := "required column volume not found in data"
	if mfe.Error() != want {
		t.Errorf("error text: got %q, want %q", mfe.Error(), want)
	}
}

func TestFromRecords_CaseInsensitiveHeaders(t *testing.T) {
	rows := []Record{{
		"Date": "2026-01-05", "Open": 100.0, "HIGH": 101.0, "Low": 99.0, "Close": 100.5, "Volume": 1200.0,
	}}
	bars, err := FromRecords(rows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if bars[0].High != 101.0 {
		t.Errorf("high: got %.2f, want 101.00", bars[0].High)
	}
}

func TestFromRecords_NumericStrings(t *testing.T) {
	rows := []Record{{
		"date": "2026-01-05", "open": "100", "high": "101.25", "low": "99", "close": "100.5", "volume": "1200",
	}}
	bars, err := FromRecords(rows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if bars[0].High != 101.25 || bars[0].Volume != 1200 {
		t.Errorf("coerced values: high=%.2f volume=%.0f", bars[0].High, bars[0].Volume)
	}
}

// ────────────────────────────────────────────────────────────
// Timestamp handling
// ────────────────────────────────────────────────────────────

func TestFromRecords_SortsByTimestamp(t *testing.T) {
	bars, err := FromRecords([]Record{
		rec("2026-01-07", 3, 3, 3, 3, 1),
		rec("2026-01-05", 1, 1, 1, 1, 1),
		rec("2026-01-06", 2, 2, 2, 2, 1),
	})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	for i, want := range []float64{1, 2, 3} {
		if bars[i].Close != want {
			t.Errorf("bar %d: close=%.0f, want %.0f", i, bars[i].Close, want)
		}
	}
}

func TestFromRecords_TimestampLayouts(t *testing.T) {
	rows := []Record{
		{"timestamp": "2026-01-05T09:15:00+05:30", "open": 1.0, "high": 1.0, "low": 1.0, "close": 1.0, "volume": 1.0},
		{"time": "2026-01-06 09:15:00", "open": 2.0, "high": 2.0, "low": 2.0, "close": 2.0, "volume": 1.0},
		{"date": "2026-01-07", "open": 3.0, "high": 3.0, "low": 3.0, "close": 3.0, "volume": 1.0},
	}
	bars, err := FromRecords(rows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			t.Errorf("bars not ordered at %d: %v < %v", i, bars[i].Timestamp, bars[i-1].Timestamp)
		}
	}
}

func TestFromRecords_EpochSeconds(t *testing.T) {
	ts := time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC)
	rows := []Record{{
		"timestamp": float64(ts.Unix()), "open": 1.0, "high": 1.0, "low": 1.0, "close": 1.0, "volume": 1.0,
	}}
	bars, err := FromRecords(rows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if !bars[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %v, want %v", bars[0].Timestamp, ts)
	}
}

func TestFromRecords_MissingDateKeepsOrder(t *testing.T) {
	// No recognizable timestamp column: input order is preserved.
	rows := []Record{
		{"open": 2.0, "high": 2.0, "low": 2.0, "close": 2.0, "volume": 1.0},
		{"open": 1.0, "high": 1.0, "low": 1.0, "close": 1.0, "volume": 1.0},
	}
	bars, err := FromRecords(rows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if bars[0].Close != 2.0 || bars[1].Close != 1.0 {
		t.Errorf("order changed: %.0f, %.0f", bars[0].Close, bars[1].Close)
	}
}

func TestFromRecords_Empty(t *testing.T) {
	bars, err := FromRecords(nil)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("got %d bars, want 0", len(bars))
	}
}
