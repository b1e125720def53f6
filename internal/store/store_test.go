package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"folio/internal/domain"
)

func TestParquetStoreBarPath(t *testing.T) {
	ps := NewParquetStore("/data")

	got := ps.barPath("aapl", 2024)
	want := filepath.Join("/data", "daily", "AAPL", "2024.parquet")
	if got != want {
		t.Errorf("barPath:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := []domain.Bar{
		{
			Symbol:    "AAPL",
			Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open:      185.0, High: 186.5, Low: 184.0, Close: 185.5,
			Volume: 50000000, TradeCount: 500000, VWAP: 185.25,
		},
		{
			Symbol:    "AAPL",
			Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Open:      185.5, High: 187.0, Low: 185.0, Close: 186.0,
			Volume: 45000000, TradeCount: 450000, VWAP: 185.75,
		},
	}

	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadBars(ctx, "AAPL", start, end)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}
	if got[0].Close != 185.5 || got[1].Close != 186.0 {
		t.Errorf("closes = %v, %v; want 185.5, 186.0", got[0].Close, got[1].Close)
	}
}

func TestParquetStoreMergeReplacesDuplicates(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first := []domain.Bar{{Symbol: "MSFT", Timestamp: ts, Close: 403.0}}
	if err := ps.WriteBars(ctx, first); err != nil {
		t.Fatalf("WriteBars (first): %v", err)
	}

	// Same timestamp must replace, plus a new bar that must merge in.
	second := []domain.Bar{
		{Symbol: "MSFT", Timestamp: ts, Close: 404.0},
		{Symbol: "MSFT", Timestamp: ts.AddDate(0, 0, 3), Close: 408.0},
	}
	if err := ps.WriteBars(ctx, second); err != nil {
		t.Fatalf("WriteBars (second): %v", err)
	}

	got, err := ps.ReadBars(ctx, "MSFT", ts.AddDate(0, 0, -1), ts.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}
	if got[0].Close != 404.0 {
		t.Errorf("duplicate bar Close = %v, want replaced value 404.0", got[0].Close)
	}
}

func TestParquetStoreListSymbols(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185.5},
		{Symbol: "NVDA", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 495.2},
	}
	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	symbols, err := ps.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "NVDA" {
		t.Errorf("ListSymbols = %v, want [AAPL NVDA]", symbols)
	}
}

func TestSQLiteStoreSaveAndListRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "folio.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		run := &RunRecord{
			RequestedAt:   base.Add(time.Duration(i) * time.Minute),
			Tickers:       []string{"AAPL", "NVDA"},
			Start:         time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			End:           time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC),
			EqualSharpe:   0.8,
			OptimalSharpe: 1.1 + float64(i),
		}
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		if run.ID == 0 {
			t.Error("SaveRun did not assign an ID")
		}
	}

	runs, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns returned %d runs, want 2", len(runs))
	}
	if !runs[0].RequestedAt.After(runs[1].RequestedAt) {
		t.Errorf("runs not newest first: %v then %v", runs[0].RequestedAt, runs[1].RequestedAt)
	}
	if runs[0].OptimalSharpe != 3.1 {
		t.Errorf("latest OptimalSharpe = %v, want 3.1", runs[0].OptimalSharpe)
	}
	if len(runs[0].Tickers) != 2 || runs[0].Tickers[0] != "AAPL" {
		t.Errorf("tickers round-trip failed: %v", runs[0].Tickers)
	}
}
