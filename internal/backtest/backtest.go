// Package backtest replays portfolio strategies over historical price
// tables. Two modes are supported: a fixed-weight buy-and-hold replay, and
// a rolling replay that re-optimizes weights each day on a trailing window.
package backtest

import (
	"errors"
	"time"

	"folio/internal/analytics"
	"folio/internal/domain"
	"folio/internal/timeseries"
)

// ErrNoData indicates the price table is too short to produce any portfolio
// return observation.
var ErrNoData = errors.New("backtest: not enough price history")

// FixedWeight replays the price history holding the given weights for the
// whole range, with no lookahead and no rebalancing. The resulting return
// series has one observation fewer than the price table has rows.
func FixedWeight(prices *timeseries.Table, weights domain.Weights) (*domain.BacktestResult, error) {
	if prices.NRows() < 2 {
		return nil, ErrNoData
	}

	returns := prices.Returns()
	series := analytics.PortfolioReturns(returns, weights)

	return &domain.BacktestResult{
		Dates:   returns.Dates,
		Returns: series,
		Stats:   analytics.Stats(series),
	}, nil
}

// RollingOptimized replays the price history re-optimizing a max-Sharpe
// portfolio every day on the trailing window of observations, then applying
// the solved weights to the following day's returns. Days whose trailing
// solve fails are skipped and counted rather than failing the whole replay.
// The per-day weight paths are returned alongside the result for display.
func RollingOptimized(prices *timeseries.Table, window int, riskFree float64) (*domain.BacktestResult, []WeightPoint, error) {
	if prices.NRows() <= window {
		return nil, nil, ErrNoData
	}

	returns := prices.Returns()

	var (
		dates   []time.Time
		series  []float64
		path    []WeightPoint
		skipped int
	)

	for i := window; i < prices.NRows(); i++ {
		trailing := prices.Slice(i-window, i)

		w, err := analytics.MaxSharpe(trailing, riskFree)
		if err != nil {
			skipped++
			continue
		}

		// Row i of the price table is row i-1 of the return table.
		var r float64
		for j, sym := range returns.Symbols {
			r += w[sym] * returns.Values[i-1][j]
		}

		dates = append(dates, returns.Dates[i-1])
		series = append(series, r)
		path = append(path, WeightPoint{Date: prices.Dates[i-1], Weights: w})
	}

	if len(series) == 0 {
		return nil, nil, ErrNoData
	}

	return &domain.BacktestResult{
		Dates:       dates,
		Returns:     series,
		Stats:       analytics.Stats(series),
		SkippedDays: skipped,
	}, path, nil
}

// WeightPoint is the optimized weight set in force on a given date.
type WeightPoint struct {
	Date    time.Time      `json:"date"`
	Weights domain.Weights `json:"weights"`
}
