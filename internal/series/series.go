// Package series validates and normalizes raw bar-like records into a typed,
// time-sorted Bar sequence. It is the only boundary where input shape is
// checked; everything downstream assumes well-formed bars.
package series

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ta-enginev1/internal/model"
)

// Record is one raw bar-like row as delivered by a feed, a CSV loader, or an
// API request body. Keys are matched case-insensitively.
type Record map[string]any

// MissingFieldError reports a required OHLCV field that is absent (or not
// numeric) after case-insensitive resolution. It is fatal for the whole call.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required column %s not found in data", e.Field)
}

// required price/volume fields; date is optional and only drives ordering.
var required = []string{"open", "high", "low", "close", "volume"}

// dateKeys are the accepted names for the bar timestamp, tried in order.
var dateKeys = []string{"date", "timestamp", "time"}

// timeLayouts accepted for string-typed timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FromRecords validates raw records and returns a time-sorted Bar sequence.
// Field names resolve case-insensitively ("Close", "close", "CLOSE" all
// match). A record missing any of open/high/low/close/volume fails the whole
// call with *MissingFieldError. No numeric sanity checking is performed
// beyond presence: negative prices and zero volumes pass through.
func FromRecords(recs []Record) ([]model.Bar, error) {
	bars := make([]model.Bar, 0, len(recs))
	for _, rec := range recs {
		folded := foldKeys(rec)

		var vals [5]float64
		for i, field := range required {
			raw, ok := folded[field]
			if !ok {
				return nil, &MissingFieldError{Field: field}
			}
			v, ok := toFloat(raw)
			if !ok {
				return nil, &MissingFieldError{Field: field}
			}
			vals[i] = v
		}

		b := model.Bar{
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		}
		for _, k := range dateKeys {
			if raw, ok := folded[k]; ok {
				b.Timestamp = toTime(raw)
				break
			}
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

// foldKeys lower-cases record keys. First writer wins so an exact-case field
// is not clobbered by a differently-cased duplicate.
func foldKeys(rec Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, exists := out[lk]; !exists {
			out[lk] = v
		}
	}
	return out
}

// toFloat coerces the numeric representations that JSON decoding and CSV
// parsing produce.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toTime coerces a timestamp value. Unparseable values yield the zero time,
// which keeps the record's original position after the stable sort.
func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	case float64:
		return time.Unix(int64(t), 0).UTC()
	case int64:
		return time.Unix(t, 0).UTC()
	case int:
		return time.Unix(int64(t), 0).UTC()
	}
	return time.Time{}
}
