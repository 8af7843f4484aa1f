// Package sqlite persists bar history and analysis reports.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ta-enginev1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reports kept per symbol before pruning.
const reportHistory = 30

// Config configures the SQLite store.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/analysis.db"
}

// Store is a SQLite-backed bar and report store. It satisfies the
// model.BarWriter, model.BarReader, model.ReportWriter and
// model.ReportReader ports.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database, enabling WAL mode and creating the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol   TEXT NOT NULL,
			interval TEXT NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL NOT NULL,
			high     REAL NOT NULL,
			low      REAL NOT NULL,
			close    REAL NOT NULL,
			volume   REAL,
			PRIMARY KEY (symbol, interval, ts)
		);

		CREATE TABLE IF NOT EXISTS reports (
			symbol     TEXT    NOT NULL,
			created_at INTEGER NOT NULL,
			data       TEXT    NOT NULL,
			PRIMARY KEY (symbol, created_at)
		);
	`)
	return err
}

// WriteBars upserts a batch of bars for one instrument and interval in a
// single transaction.
func (s *Store) WriteBars(symbol, interval string, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	start := time.Now()
	for _, b := range bars {
		_, err := stmt.Exec(symbol, interval, b.Timestamp.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("[sqlite] committed %d bars for %s/%s in %v", len(bars), symbol, interval, time.Since(start))
	return nil
}

// ReadBars returns bars for an instrument and interval with timestamps in
// [from, to], ordered ascending.
func (s *Store) ReadBars(symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	rows, err := s.db.Query(`
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, symbol, interval, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var tsUnix int64
		if err := rows.Scan(&tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bar: %w", err)
		}
		b.Timestamp = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestBarTime returns the newest stored bar timestamp for an instrument,
// or the zero time when no bars exist.
func (s *Store) LatestBarTime(symbol, interval string) (time.Time, error) {
	var ts sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(ts) FROM bars WHERE symbol = ? AND interval = ?`,
		symbol, interval,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// SaveReport persists one report keyed by symbol and analysis date, pruning
// history beyond the retained window. Re-analyzing the same bar series
// replaces the stored row rather than duplicating it.
func (s *Store) SaveReport(rep *model.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO reports (symbol, created_at, data) VALUES (?, ?, ?)`,
		rep.Symbol, rep.AnalysisDate.Unix(), string(data),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert report: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM reports
		WHERE symbol = ? AND created_at NOT IN (
			SELECT created_at FROM reports WHERE symbol = ?
			ORDER BY created_at DESC LIMIT ?
		)`, rep.Symbol, rep.Symbol, reportHistory)
	if err != nil {
		log.Printf("[sqlite] prune reports warning: %v", err)
	}

	return nil
}

// LatestReport returns the most recent stored report for a symbol, or
// nil, nil when none exists.
func (s *Store) LatestReport(symbol string) (*model.Report, error) {
	var data string
	err := s.db.QueryRow(`
		SELECT data FROM reports
		WHERE symbol = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, symbol).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read report: %w", err)
	}

	var rep model.Report
	if err := json.Unmarshal([]byte(data), &rep); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &rep, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
