// Package report runs the full analytics pipeline for one request: fetch
// prices, derive returns and statistics, build the equal-weight and
// max-Sharpe portfolios, and backtest both. One call produces one
// render-ready bundle; nothing is carried over between requests.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"folio/internal/analytics"
	"folio/internal/backtest"
	"folio/internal/domain"
	"folio/internal/market"
	"folio/internal/store"
	"folio/internal/timeseries"
)

// Request failure modes surfaced to the caller before any fetch occurs.
var (
	ErrNoTickers = errors.New("report: no tickers given")
	ErrBadRange  = errors.New("report: end date must be after start date")
	ErrNoData    = errors.New("report: no usable price history for any ticker")
)

// Request describes one report run.
type Request struct {
	Tickers []string
	Start   time.Time
	End     time.Time

	// Rebalance additionally runs the rolling daily re-optimization
	// backtest with its weight path.
	Rebalance bool
}

// Options are the pipeline knobs, normally taken from config.Analytics.
type Options struct {
	DefaultTickers []string
	LookbackDays   int
	WindowDays     int
	PadDays        int
	RiskFreeRate   float64
}

// TickerStats pairs a ticker with its return summary.
type TickerStats struct {
	Ticker string             `json:"ticker"`
	Stats  domain.SeriesStats `json:"stats"`
}

// Portfolio is one portfolio variant in a report.
type Portfolio struct {
	Name     string                 `json:"name"`
	Weights  domain.Weights         `json:"weights"`
	Backtest *domain.BacktestResult `json:"backtest"`
}

// Report is the render-ready bundle for one request.
type Report struct {
	Tickers []string
	Start   time.Time
	End     time.Time

	Prices     *timeseries.Table // adjusted closes, requested range
	CumReturns *timeseries.Table // cumulative daily returns, requested range

	TickerStats []TickerStats
	EqualWeight *Portfolio
	Optimal     *Portfolio // nil when the optimizer failed

	// Rolling results are present only when Request.Rebalance was set and
	// enough history existed.
	Rolling    *Portfolio
	WeightPath []backtest.WeightPoint

	Warnings     []string
	OptimizerErr string
}

// Builder runs report requests against a price source.
type Builder struct {
	source *market.Source
	runs   store.RunStore // nil disables run logging
	opts   Options
	log    *slog.Logger
}

// NewBuilder creates a Builder. runs may be nil to disable run logging.
func NewBuilder(source *market.Source, runs store.RunStore, opts Options, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 252
	}
	if opts.PadDays <= 0 {
		opts.PadDays = 365
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 2 * 365
	}
	return &Builder{source: source, runs: runs, opts: opts, log: log}
}

// Options returns the pipeline options, including the default ticker list.
func (b *Builder) Options() Options { return b.opts }

// DefaultRequest is the request run when the caller supplies no input: the
// default ticker list over the default lookback window.
func (b *Builder) DefaultRequest() Request {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	return Request{
		Tickers: append([]string(nil), b.opts.DefaultTickers...),
		Start:   end.AddDate(0, 0, -b.opts.LookbackDays),
		End:     end,
	}
}

// Build validates the request and runs the whole pipeline. Per-ticker fetch
// problems and optimizer failures degrade the report rather than failing
// it; only input errors and a total lack of data are fatal.
func (b *Builder) Build(ctx context.Context, req Request) (*Report, error) {
	tickers := market.NormalizeSymbols(req.Tickers)
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}

	start, end := req.Start, req.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -b.opts.LookbackDays)
	}
	if !end.After(start) {
		return nil, ErrBadRange
	}

	// The fetch reaches back past the requested start so the optimizer has
	// a trailing window of history before the first displayed day.
	fetchStart := start.AddDate(0, 0, -b.opts.PadDays)

	res, err := b.source.DailyAdjClose(ctx, tickers, fetchStart, end)
	if err != nil {
		if errors.Is(err, market.ErrNoSymbols) {
			return nil, ErrNoTickers
		}
		return nil, err
	}

	rep := &Report{Start: start, End: end}
	for _, d := range res.Dropped {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("ticker %s dropped: %s", d.Symbol, d.Reason))
	}

	full := res.Prices.DropIncomplete()
	if len(full.Symbols) == 0 || full.NRows() < 2 {
		return nil, ErrNoData
	}
	rep.Tickers = full.Symbols

	display := full.From(start)
	if display.NRows() < 2 {
		return nil, ErrNoData
	}

	rep.Prices = display
	displayReturns := display.Returns()
	rep.CumReturns = displayReturns.CumulativeSum()

	for _, sym := range displayReturns.Symbols {
		rep.TickerStats = append(rep.TickerStats, TickerStats{
			Ticker: sym,
			Stats:  analytics.Stats(displayReturns.Column(sym)),
		})
	}

	// Equal-weight portfolio is always produced.
	eqw := analytics.EqualWeights(full.Symbols)
	eqBt, err := backtest.FixedWeight(display, eqw)
	if err != nil {
		return nil, fmt.Errorf("equal-weight backtest: %w", err)
	}
	rep.EqualWeight = &Portfolio{Name: "Equal Weight", Weights: eqw, Backtest: eqBt}

	// Optimal portfolio: weights solved on the trailing window that ends
	// where the displayed range begins, then held fixed. A failed solve is
	// reported but does not fail the run.
	b.buildOptimal(rep, full, display)

	if req.Rebalance {
		b.buildRolling(rep, full, start)
	}

	b.logRun(ctx, rep)

	return rep, nil
}

// buildOptimal solves max-Sharpe on the history preceding the displayed
// range and backtests the fixed result over the displayed range.
func (b *Builder) buildOptimal(rep *Report, full, display *timeseries.Table) {
	i0 := full.NRows() - display.NRows() // first displayed row in full
	lo := i0 - b.opts.WindowDays
	if lo < 0 {
		lo = 0
	}
	trailing := full.Slice(lo, i0)
	if trailing.NRows() < 2 {
		// Not enough pre-range history; solve in-sample as a fallback.
		trailing = display
	}

	w, err := analytics.MaxSharpe(trailing, b.opts.RiskFreeRate)
	if err != nil {
		rep.OptimizerErr = err.Error()
		b.log.Warn("optimizer failed", "err", err, "tickers", len(full.Symbols))
		return
	}

	bt, err := backtest.FixedWeight(display, w)
	if err != nil {
		rep.OptimizerErr = err.Error()
		return
	}
	rep.Optimal = &Portfolio{Name: "Optimal", Weights: w, Backtest: bt}
}

// buildRolling runs the daily re-optimization replay over the full history
// and trims the result to the displayed range.
func (b *Builder) buildRolling(rep *Report, full *timeseries.Table, start time.Time) {
	res, path, err := backtest.RollingOptimized(full, b.opts.WindowDays, b.opts.RiskFreeRate)
	if err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("rolling backtest unavailable: %v", err))
		return
	}

	// The return series and the weight path are parallel; trim both at the
	// same index so each kept return keeps the weights that produced it.
	cut := 0
	for cut < len(res.Dates) && res.Dates[cut].Before(start) {
		cut++
	}
	series := res.Returns[cut:]
	if len(series) == 0 {
		rep.Warnings = append(rep.Warnings, "rolling backtest produced no observations in the requested range")
		return
	}
	if res.SkippedDays > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("rolling backtest skipped %d infeasible days", res.SkippedDays))
	}

	trimmed := &domain.BacktestResult{
		Dates:       res.Dates[cut:],
		Returns:     series,
		Stats:       analytics.Stats(series),
		SkippedDays: res.SkippedDays,
	}
	trimmedPath := path[cut:]

	rep.Rolling = &Portfolio{
		Name:     "Optimal (daily rebalance)",
		Weights:  trimmedPath[len(trimmedPath)-1].Weights,
		Backtest: trimmed,
	}
	rep.WeightPath = trimmedPath
}

// logRun records the run in the run store, if one is configured.
func (b *Builder) logRun(ctx context.Context, rep *Report) {
	if b.runs == nil {
		return
	}

	run := &store.RunRecord{
		Tickers:        rep.Tickers,
		Start:          rep.Start,
		End:            rep.End,
		EqualSharpe:    rep.EqualWeight.Backtest.Stats.SharpeRatio,
		OptimizerError: rep.OptimizerErr,
	}
	if rep.Optimal != nil {
		run.OptimalSharpe = rep.Optimal.Backtest.Stats.SharpeRatio
	}

	if err := b.runs.SaveRun(ctx, run); err != nil {
		b.log.Warn("saving run record", "err", err)
	}
}
