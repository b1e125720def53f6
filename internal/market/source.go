// Package market retrieves daily adjusted-close price history. Bars come
// from a BarFetcher (the Alpaca client, optionally fronted by the local
// Parquet cache) and are pivoted into the date-by-symbol table the
// analytics pipeline consumes.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/internal/domain"
	"folio/internal/timeseries"
)

// ErrNoSymbols indicates an empty symbol list; nothing is fetched.
var ErrNoSymbols = errors.New("market: no symbols requested")

// BarFetcher retrieves daily bars for a set of symbols. Symbols the
// provider does not know are simply absent from the result.
type BarFetcher interface {
	FetchBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error)
}

// Dropped names a symbol excluded from a result and why.
type Dropped struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Result is a fetched price table plus the symbols that had to be dropped.
type Result struct {
	Prices  *timeseries.Table
	Dropped []Dropped
}

// Source turns fetched bars into analysis-ready price tables.
type Source struct {
	fetcher BarFetcher
}

// NewSource creates a Source reading bars from the given fetcher.
func NewSource(fetcher BarFetcher) *Source {
	return &Source{fetcher: fetcher}
}

// DailyAdjClose fetches the adjusted close table for the symbols over
// [start, end]. Symbols without any provider data are dropped from the
// table and reported in Result.Dropped; the request only fails as a whole
// when the provider itself is unreachable or no symbol yields data.
func (s *Source) DailyAdjClose(ctx context.Context, symbols []string, start, end time.Time) (*Result, error) {
	symbols = NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	bars, err := s.fetcher.FetchBars(ctx, symbols, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching bars: %w", err)
	}

	return buildResult(symbols, bars), nil
}

// NormalizeSymbols uppercases, trims, and deduplicates while preserving the
// caller's order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// buildResult pivots bars into a table over the symbols that produced data,
// dropping the rest with a reason.
func buildResult(symbols []string, bars []domain.Bar) *Result {
	have := make(map[string]bool, len(symbols))
	for _, b := range bars {
		have[strings.ToUpper(b.Symbol)] = true
	}

	var (
		kept    []string
		dropped []Dropped
	)
	for _, sym := range symbols {
		if have[sym] {
			kept = append(kept, sym)
		} else {
			dropped = append(dropped, Dropped{Symbol: sym, Reason: "no data from provider"})
		}
	}

	builder := timeseries.NewBuilder(kept)
	for _, b := range bars {
		builder.Set(b.Timestamp, strings.ToUpper(b.Symbol), b.Close)
	}

	return &Result{Prices: builder.Build(), Dropped: dropped}
}
