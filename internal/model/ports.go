package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the analysis service from concrete storage
// implementations (Redis, SQLite). Each implementation satisfies one or more
// of these interfaces.

// BarWriter persists bar history.
type BarWriter interface {
	// WriteBars upserts a batch of bars for one instrument and interval.
	WriteBars(symbol, interval string, bars []Bar) error

	// Close releases underlying resources.
	Close() error
}

// BarReader loads bar history for analysis.
type BarReader interface {
	// ReadBars returns bars for an instrument and interval with timestamps
	// in [from, to], ordered ascending.
	ReadBars(symbol, interval string, from, to time.Time) ([]Bar, error)

	// LatestBarTime returns the newest stored bar timestamp, or the zero
	// time when no bars exist.
	LatestBarTime(symbol, interval string) (time.Time, error)

	// Close releases underlying resources.
	Close() error
}

// ReportWriter persists finished analysis reports.
type ReportWriter interface {
	// SaveReport persists one report.
	SaveReport(rep *Report) error

	// Close releases underlying resources.
	Close() error
}

// ReportReader loads persisted reports.
type ReportReader interface {
	// LatestReport returns the most recent report for a symbol.
	// Returns nil, nil when none exists.
	LatestReport(symbol string) (*Report, error)

	// Close releases underlying resources.
	Close() error
}

// ReportCache is a TTL'd cache plus publish fan-out for fresh reports.
type ReportCache interface {
	// CacheReport stores the report under the symbol with the cache TTL and
	// publishes it for live subscribers.
	CacheReport(ctx context.Context, rep *Report) error

	// CachedReport returns the cached report for a symbol, or nil, nil on a
	// cache miss.
	CachedReport(ctx context.Context, symbol string) (*Report, error)

	// Close releases underlying resources.
	Close() error
}
