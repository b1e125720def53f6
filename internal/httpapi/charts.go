package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/vicanso/go-charts/v2"

	"folio/internal/report"
	"folio/internal/timeseries"
)

// Chart kinds served by GET /api/report/chart/{kind}.
const (
	chartPrice     = "price"
	chartCumReturn = "cumreturn"
	chartPortfolio = "portfolio"
	chartWeights   = "weights"
)

var errChartNoData = errors.New("no data for this chart")

func validChartKind(kind string) bool {
	switch kind {
	case chartPrice, chartCumReturn, chartPortfolio, chartWeights:
		return true
	}
	return false
}

// renderChart renders one report chart as a PNG.
func renderChart(rep *report.Report, kind string) ([]byte, error) {
	switch kind {
	case chartPrice:
		return renderTable(rep.Prices, "Adjusted Close")
	case chartCumReturn:
		return renderTable(rep.CumReturns, "Cumulative Daily Return")
	case chartPortfolio:
		return renderPortfolios(rep)
	case chartWeights:
		return renderWeights(rep)
	}
	return nil, fmt.Errorf("unknown chart kind: %s", kind)
}

func renderTable(t *timeseries.Table, title string) ([]byte, error) {
	if t == nil || t.NRows() == 0 {
		return nil, errChartNoData
	}

	values := make([][]float64, len(t.Symbols))
	for j := range t.Symbols {
		values[j] = t.Column(t.Symbols[j])
	}
	return renderLines(values, t.Symbols, t.Dates, title)
}

// renderPortfolios plots the growth of $1 for every backtested portfolio
// variant on a single chart.
func renderPortfolios(rep *report.Report) ([]byte, error) {
	variants := []*report.Portfolio{rep.EqualWeight}
	if rep.Optimal != nil {
		variants = append(variants, rep.Optimal)
	}
	if rep.Rolling != nil {
		variants = append(variants, rep.Rolling)
	}

	var (
		values [][]float64
		names  []string
		dates  []time.Time
	)
	for _, p := range variants {
		if p == nil || p.Backtest == nil || len(p.Backtest.Returns) == 0 {
			continue
		}
		values = append(values, growthOf1(p.Backtest.Returns))
		names = append(names, p.Name)
		if len(p.Backtest.Dates) > len(dates) {
			dates = p.Backtest.Dates
		}
	}
	if len(values) == 0 {
		return nil, errChartNoData
	}

	// Series of different lengths share one axis; pad the shorter ones on
	// the left so the rightmost dates line up.
	for i := range values {
		if pad := len(dates) - len(values[i]); pad > 0 {
			padded := make([]float64, len(dates))
			for j := 0; j < pad; j++ {
				padded[j] = charts.GetNullValue()
			}
			copy(padded[pad:], values[i])
			values[i] = padded
		}
	}

	return renderLines(values, names, dates, "Portfolio Growth of $1")
}

// renderWeights plots the rolling optimized weight of each ticker over time.
// It needs the weight path, so it is only available on rebalance requests.
func renderWeights(rep *report.Report) ([]byte, error) {
	if len(rep.WeightPath) == 0 {
		return nil, errChartNoData
	}

	dates := make([]time.Time, len(rep.WeightPath))
	values := make([][]float64, len(rep.Tickers))
	for j := range rep.Tickers {
		values[j] = make([]float64, len(rep.WeightPath))
	}
	for i, wp := range rep.WeightPath {
		dates[i] = wp.Date
		for j, sym := range rep.Tickers {
			values[j][i] = wp.Weights[sym]
		}
	}

	return renderLines(values, rep.Tickers, dates, "Optimized Weights")
}

func renderLines(values [][]float64, names []string, dates []time.Time, title string) ([]byte, error) {
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.Format("Jan 02 '06")
	}

	split := 6
	if len(labels) <= 30 {
		split = len(labels) / 3
		if split < 3 {
			split = 3
		}
	}

	p, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: split,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering %s chart: %w", title, err)
	}
	return p.Bytes()
}

func growthOf1(returns []float64) []float64 {
	out := make([]float64, len(returns))
	v := 1.0
	for i, r := range returns {
		v *= 1 + r
		out[i] = v
	}
	return out
}
