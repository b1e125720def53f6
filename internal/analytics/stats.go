// Package analytics implements the pure computation layer: descriptive
// statistics over daily return series, portfolio weight construction, and
// the max-Sharpe mean-variance optimizer.
package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"folio/internal/domain"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// Stats summarizes a daily return series. It is deterministic and has no
// side effects; an empty series yields a zero-valued summary.
func Stats(returns []float64) domain.SeriesStats {
	n := len(returns)
	if n == 0 {
		return domain.SeriesStats{}
	}

	mean := stat.Mean(returns, nil)
	stdev := stat.StdDev(returns, nil)
	if math.IsNaN(stdev) {
		stdev = 0 // single observation
	}
	annVol := stdev * math.Sqrt(TradingDaysPerYear)

	var sharpe float64
	if annVol > 0 {
		sharpe = mean * TradingDaysPerYear / annVol
	}

	return domain.SeriesStats{
		NDays:          n,
		CumReturn:      floats.Sum(returns),
		AvgDailyReturn: mean,
		Stdev:          stdev,
		AnnVolatility:  annVol,
		SharpeRatio:    sharpe,
		MaxDrawdown:    MaxDrawdown(returns),
	}
}

// MaxDrawdown computes the maximum peak-to-trough loss of the compounded
// return series, reported as a non-positive fraction. The first compounded
// point is excluded from the watermark, matching the convention that the
// series starts at its own high.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	cum := 1.0
	var (
		watermark float64
		worst     float64
	)
	for i, r := range returns {
		cum *= 1 + r
		if i == 0 {
			continue
		}
		if cum > watermark {
			watermark = cum
		}
		if watermark > 0 {
			if dd := 1 - cum/watermark; dd > worst {
				worst = dd
			}
		}
	}
	return -worst
}
