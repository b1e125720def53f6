package httpapi

import (
	"time"

	"folio/internal/domain"
	"folio/internal/report"
)

// SeriesJSON is a date-indexed set of named series, the wire shape for
// price and return tables.
type SeriesJSON struct {
	Dates  []string             `json:"dates"`
	Series map[string][]float64 `json:"series"`
}

// TickerStatsJSON pairs a ticker with its return summary.
type TickerStatsJSON struct {
	Ticker string             `json:"ticker"`
	Stats  domain.SeriesStats `json:"stats"`
}

// PortfolioJSON is one portfolio variant: weights, backtest series, and
// summary statistics.
type PortfolioJSON struct {
	Name    string             `json:"name"`
	Weights domain.Weights     `json:"weights"`
	Dates   []string           `json:"dates"`
	Returns []float64          `json:"returns"`
	Stats   domain.SeriesStats `json:"stats"`
}

// WeightPointJSON is the optimized weight set in force on one date.
type WeightPointJSON struct {
	Date    string         `json:"date"`
	Weights domain.Weights `json:"weights"`
}

// ReportResponse is the render-ready bundle returned by GET /api/report.
type ReportResponse struct {
	Tickers        []string          `json:"tickers"`
	Start          string            `json:"start"`
	End            string            `json:"end"`
	Prices         SeriesJSON        `json:"prices"`
	CumReturns     SeriesJSON        `json:"cum_returns"`
	TickerStats    []TickerStatsJSON `json:"ticker_stats"`
	Portfolios     []PortfolioJSON   `json:"portfolios"`
	WeightPath     []WeightPointJSON `json:"weight_path,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
	OptimizerError string            `json:"optimizer_error,omitempty"`
}

const dateLayout = "2006-01-02"

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}

func seriesJSON(dates []time.Time, symbols []string, values [][]float64) SeriesJSON {
	series := make(map[string][]float64, len(symbols))
	for j, sym := range symbols {
		col := make([]float64, len(values))
		for i, row := range values {
			col[i] = row[j]
		}
		series[sym] = col
	}
	return SeriesJSON{Dates: formatDates(dates), Series: series}
}

func portfolioJSON(p *report.Portfolio) PortfolioJSON {
	return PortfolioJSON{
		Name:    p.Name,
		Weights: p.Weights,
		Dates:   formatDates(p.Backtest.Dates),
		Returns: p.Backtest.Returns,
		Stats:   p.Backtest.Stats,
	}
}

// convertReport maps a pipeline report onto the wire types.
func convertReport(rep *report.Report) ReportResponse {
	resp := ReportResponse{
		Tickers:        rep.Tickers,
		Start:          rep.Start.Format(dateLayout),
		End:            rep.End.Format(dateLayout),
		Prices:         seriesJSON(rep.Prices.Dates, rep.Prices.Symbols, rep.Prices.Values),
		CumReturns:     seriesJSON(rep.CumReturns.Dates, rep.CumReturns.Symbols, rep.CumReturns.Values),
		Warnings:       rep.Warnings,
		OptimizerError: rep.OptimizerErr,
	}

	for _, ts := range rep.TickerStats {
		resp.TickerStats = append(resp.TickerStats, TickerStatsJSON{Ticker: ts.Ticker, Stats: ts.Stats})
	}

	resp.Portfolios = append(resp.Portfolios, portfolioJSON(rep.EqualWeight))
	if rep.Optimal != nil {
		resp.Portfolios = append(resp.Portfolios, portfolioJSON(rep.Optimal))
	}
	if rep.Rolling != nil {
		resp.Portfolios = append(resp.Portfolios, portfolioJSON(rep.Rolling))
	}

	for _, wp := range rep.WeightPath {
		resp.WeightPath = append(resp.WeightPath, WeightPointJSON{
			Date:    wp.Date.Format(dateLayout),
			Weights: wp.Weights,
		})
	}

	return resp
}

// RunsResponse is the payload of GET /api/runs.
type RunsResponse struct {
	Runs []RunJSON `json:"runs"`
}

// RunJSON is one logged report run.
type RunJSON struct {
	ID             int64    `json:"id"`
	RequestedAt    string   `json:"requested_at"`
	Tickers        []string `json:"tickers"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	EqualSharpe    float64  `json:"equal_sharpe"`
	OptimalSharpe  float64  `json:"optimal_sharpe"`
	OptimizerError string   `json:"optimizer_error,omitempty"`
}
