package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	requested_at    INTEGER NOT NULL,
	tickers         TEXT    NOT NULL,
	start_date      TEXT    NOT NULL,
	end_date        TEXT    NOT NULL,
	equal_sharpe    REAL    NOT NULL,
	optimal_sharpe  REAL    NOT NULL,
	optimizer_error TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_requested_at ON runs (requested_at DESC);
`

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath and
// applies the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying runs schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun logs a completed report run and fills in run.ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if run.RequestedAt.IsZero() {
		run.RequestedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (requested_at, tickers, start_date, end_date, equal_sharpe, optimal_sharpe, optimizer_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RequestedAt.UnixMilli(),
		strings.Join(run.Tickers, ","),
		run.Start.Format("2006-01-02"),
		run.End.Format("2006-01-02"),
		run.EqualSharpe,
		run.OptimalSharpe,
		run.OptimizerError,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	run.ID = id
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, requested_at, tickers, start_date, end_date, equal_sharpe, optimal_sharpe, optimizer_error
		 FROM runs ORDER BY requested_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r          RunRecord
			requested  int64
			tickers    string
			start, end string
		)
		if err := rows.Scan(&r.ID, &requested, &tickers, &start, &end, &r.EqualSharpe, &r.OptimalSharpe, &r.OptimizerError); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.RequestedAt = time.UnixMilli(requested).UTC()
		if tickers != "" {
			r.Tickers = strings.Split(tickers, ",")
		}
		r.Start, _ = time.Parse("2006-01-02", start)
		r.End, _ = time.Parse("2006-01-02", end)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
