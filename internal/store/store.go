// Package store provides local persistence: a Parquet bar cache that fronts
// the market-data provider, and a SQLite log of report runs.
package store

import (
	"context"
	"time"

	"folio/internal/domain"
)

// BarStore caches and retrieves daily bar data.
type BarStore interface {
	// WriteBars persists a batch of bars.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct cached symbols.
	ListSymbols(ctx context.Context) ([]string, error)
}

// RunRecord is one logged report run.
type RunRecord struct {
	ID             int64     `json:"id"`
	RequestedAt    time.Time `json:"requested_at"`
	Tickers        []string  `json:"tickers"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	EqualSharpe    float64   `json:"equal_sharpe"`
	OptimalSharpe  float64   `json:"optimal_sharpe"`
	OptimizerError string    `json:"optimizer_error,omitempty"`
}

// RunStore records report runs and lists recent ones.
type RunStore interface {
	// SaveRun logs a completed report run and fills in its ID.
	SaveRun(ctx context.Context, run *RunRecord) error

	// RecentRuns returns the most recent runs, newest first, up to limit.
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
