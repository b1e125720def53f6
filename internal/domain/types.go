// Package domain defines the core types shared across the folio service:
// daily bars, portfolio weights, and backtest results.
package domain

import (
	"sort"
	"time"
)

// Bar is one daily OHLCV bar for a symbol. Close is the adjusted close
// (splits and dividends applied by the provider).
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Weights maps symbol to allocation fraction. A valid weight set is
// non-negative and sums to 1.
type Weights map[string]float64

// Sum returns the total allocation of the weight set.
func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Symbols returns the symbols of the weight set in sorted order.
func (w Weights) Symbols() []string {
	syms := make([]string, 0, len(w))
	for s := range w {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// SeriesStats is the summary produced for a single daily return series,
// either one ticker or one portfolio.
type SeriesStats struct {
	NDays          int     `json:"n_days"`
	CumReturn      float64 `json:"cum_return"`
	AvgDailyReturn float64 `json:"avg_daily_return"`
	Stdev          float64 `json:"stdev"`
	AnnVolatility  float64 `json:"ann_volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
}

// BacktestResult is a portfolio return series with its summary statistics.
type BacktestResult struct {
	Dates   []time.Time `json:"dates"`
	Returns []float64   `json:"returns"`
	Stats   SeriesStats `json:"stats"`

	// SkippedDays counts trailing-window re-optimizations that failed and
	// were skipped. Zero for fixed-weight runs.
	SkippedDays int `json:"skipped_days,omitempty"`
}
