package report

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"folio/internal/domain"
	"folio/internal/market"
	"folio/internal/store"
)

// syntheticFetcher serves deterministic daily bars for a fixed symbol set.
type syntheticFetcher struct {
	symbols map[string]struct {
		base  float64
		drift float64
	}
	calls int
}

func newSyntheticFetcher() *syntheticFetcher {
	return &syntheticFetcher{symbols: map[string]struct {
		base  float64
		drift float64
	}{
		"AAA": {base: 100, drift: 0.0015},
		"BBB": {base: 50, drift: 0.0008},
		"CCC": {base: 200, drift: -0.0005},
	}}
}

func (f *syntheticFetcher) FetchBars(_ context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	f.calls++
	var bars []domain.Bar
	for _, sym := range symbols {
		spec, ok := f.symbols[sym]
		if !ok {
			continue
		}
		price := spec.base
		i := 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			noise := 0.006 * math.Sin(float64(i)*(1.3+float64(sym[0]-'A')))
			price *= 1 + spec.drift + noise
			bars = append(bars, domain.Bar{Symbol: sym, Timestamp: d, Close: price})
			i++
		}
	}
	return bars, nil
}

func testBuilder(t *testing.T, fetcher market.BarFetcher) *Builder {
	t.Helper()
	return NewBuilder(market.NewSource(fetcher), nil, Options{
		DefaultTickers: []string{"AAA", "BBB", "CCC"},
		LookbackDays:   365,
		WindowDays:     60,
		PadDays:        120,
	}, nil)
}

func testRequest() Request {
	return Request{
		Tickers: []string{"AAA", "BBB", "CCC"},
		Start:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildRejectsEmptyTickers(t *testing.T) {
	fetcher := newSyntheticFetcher()
	b := testBuilder(t, fetcher)

	req := testRequest()
	req.Tickers = []string{"  ", ""}
	_, err := b.Build(context.Background(), req)
	if !errors.Is(err, ErrNoTickers) {
		t.Fatalf("error = %v, want ErrNoTickers", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times before validation, want 0", fetcher.calls)
	}
}

func TestBuildRejectsBadRange(t *testing.T) {
	b := testBuilder(t, newSyntheticFetcher())

	req := testRequest()
	req.Start, req.End = req.End, req.Start
	if _, err := b.Build(context.Background(), req); !errors.Is(err, ErrBadRange) {
		t.Fatalf("error = %v, want ErrBadRange", err)
	}
}

func TestBuildFullReport(t *testing.T) {
	b := testBuilder(t, newSyntheticFetcher())

	rep, err := b.Build(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(rep.Tickers) != 3 {
		t.Fatalf("Tickers = %v, want 3 symbols", rep.Tickers)
	}
	if rep.Prices.NRows() < 2 {
		t.Fatalf("price table has %d rows", rep.Prices.NRows())
	}
	if rep.Prices.Dates[0].Before(rep.Start) {
		t.Errorf("displayed prices start %v before requested start %v", rep.Prices.Dates[0], rep.Start)
	}
	if got, want := rep.CumReturns.NRows(), rep.Prices.NRows()-1; got != want {
		t.Errorf("cumulative return rows = %d, want %d", got, want)
	}
	if len(rep.TickerStats) != 3 {
		t.Errorf("TickerStats = %d entries, want 3", len(rep.TickerStats))
	}

	// Equal-weight portfolio invariants.
	eq := rep.EqualWeight
	if eq == nil {
		t.Fatal("EqualWeight missing")
	}
	if math.Abs(eq.Weights.Sum()-1.0) > 1e-12 {
		t.Errorf("equal weights sum = %v, want 1.0", eq.Weights.Sum())
	}
	for sym, w := range eq.Weights {
		if math.Abs(w-1.0/3.0) > 1e-12 {
			t.Errorf("equal weight[%s] = %v, want 1/3", sym, w)
		}
	}
	if got, want := len(eq.Backtest.Returns), rep.Prices.NRows()-1; got != want {
		t.Errorf("equal backtest length = %d, want price rows − 1 = %d", got, want)
	}

	// Optimal portfolio invariants (feasible with this synthetic data).
	if rep.OptimizerErr != "" {
		t.Fatalf("unexpected optimizer error: %s", rep.OptimizerErr)
	}
	opt := rep.Optimal
	if opt == nil {
		t.Fatal("Optimal missing")
	}
	if math.Abs(opt.Weights.Sum()-1.0) > 1e-9 {
		t.Errorf("optimal weights sum = %v, want 1.0", opt.Weights.Sum())
	}
	for sym, w := range opt.Weights {
		if w < 0 {
			t.Errorf("optimal weight[%s] = %v, want non-negative", sym, w)
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	b := testBuilder(t, newSyntheticFetcher())
	ctx := context.Background()

	first, err := b.Build(ctx, testRequest())
	if err != nil {
		t.Fatalf("Build (first): %v", err)
	}
	second, err := b.Build(ctx, testRequest())
	if err != nil {
		t.Fatalf("Build (second): %v", err)
	}

	for i := range first.TickerStats {
		if first.TickerStats[i] != second.TickerStats[i] {
			t.Errorf("ticker stats differ between identical runs: %+v vs %+v",
				first.TickerStats[i], second.TickerStats[i])
		}
	}
	if first.EqualWeight.Backtest.Stats != second.EqualWeight.Backtest.Stats {
		t.Errorf("equal-weight backtest stats differ between identical runs")
	}
}

func TestBuildDropsUnknownTickerWithWarning(t *testing.T) {
	b := testBuilder(t, newSyntheticFetcher())

	req := testRequest()
	req.Tickers = append(req.Tickers, "NOPE")
	rep, err := b.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(rep.Warnings) == 0 {
		t.Fatal("expected a warning for the dropped ticker")
	}
	for _, sym := range rep.Tickers {
		if sym == "NOPE" {
			t.Error("dropped ticker still present in report")
		}
	}
}

func TestBuildOptimizerFailureKeepsEqualWeight(t *testing.T) {
	// Single price column duplicated: singular covariance, optimizer must
	// fail while the equal-weight side of the report survives.
	fetcher := &twinFetcher{}
	b := testBuilder(t, fetcher)

	rep, err := b.Build(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if rep.OptimizerErr == "" {
		t.Error("expected an optimizer error for perfectly correlated assets")
	}
	if rep.Optimal != nil {
		t.Error("Optimal should be nil when the optimizer fails")
	}
	if rep.EqualWeight == nil || len(rep.EqualWeight.Backtest.Returns) == 0 {
		t.Error("equal-weight results must survive an optimizer failure")
	}
}

func TestBuildRollingBacktest(t *testing.T) {
	b := testBuilder(t, newSyntheticFetcher())

	req := testRequest()
	req.Rebalance = true
	rep, err := b.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if rep.Rolling == nil {
		t.Fatalf("Rolling missing; warnings: %v", rep.Warnings)
	}
	if len(rep.WeightPath) != len(rep.Rolling.Backtest.Returns) {
		t.Errorf("weight path length %d != rolling series length %d",
			len(rep.WeightPath), len(rep.Rolling.Backtest.Returns))
	}
	for _, wp := range rep.WeightPath {
		if math.Abs(wp.Weights.Sum()-1.0) > 1e-9 {
			t.Errorf("weights at %v sum to %v, want 1.0", wp.Date, wp.Weights.Sum())
		}
	}
}

func TestBuildLogsRun(t *testing.T) {
	runs := &memRunStore{}
	b := NewBuilder(market.NewSource(newSyntheticFetcher()), runs, Options{
		WindowDays: 60, PadDays: 120, LookbackDays: 365,
	}, nil)

	if _, err := b.Build(context.Background(), testRequest()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(runs.saved) != 1 {
		t.Fatalf("saved %d runs, want 1", len(runs.saved))
	}
	if len(runs.saved[0].Tickers) != 3 {
		t.Errorf("run tickers = %v, want 3", runs.saved[0].Tickers)
	}
}

// twinFetcher serves two perfectly correlated symbols plus a third missing
// one, to exercise the optimizer failure path.
type twinFetcher struct{}

func (f *twinFetcher) FetchBars(_ context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	price := 100.0
	i := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		price *= 1 + 0.01*math.Sin(float64(i)*1.3)
		for _, sym := range symbols {
			bars = append(bars, domain.Bar{Symbol: sym, Timestamp: d, Close: price})
		}
		i++
	}
	return bars, nil
}

// memRunStore is an in-memory RunStore for pipeline tests.
type memRunStore struct {
	saved []store.RunRecord
}

func (m *memRunStore) SaveRun(_ context.Context, run *store.RunRecord) error {
	run.ID = int64(len(m.saved) + 1)
	m.saved = append(m.saved, *run)
	return nil
}

func (m *memRunStore) RecentRuns(_ context.Context, limit int) ([]store.RunRecord, error) {
	out := append([]store.RunRecord(nil), m.saved...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
