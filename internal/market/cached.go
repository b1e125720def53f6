package market

import (
	"context"
	"log/slog"
	"time"

	"folio/internal/domain"
	"folio/internal/store"
)

// Compile-time interface check.
var _ BarFetcher = (*CachedFetcher)(nil)

// coverageSlack allows a cached range to start or end a few days short of
// the requested range: weekends and holidays have no bars, so exact
// endpoint matches are not expected.
const coverageSlack = 5 * 24 * time.Hour

// CachedFetcher fronts a BarFetcher with the local Parquet bar cache.
// Symbols whose cached range covers the request are served from disk; the
// rest are fetched upstream in one call and written back.
type CachedFetcher struct {
	upstream BarFetcher
	cache    store.BarStore
	log      *slog.Logger
}

// NewCachedFetcher creates a CachedFetcher over the given upstream and cache.
func NewCachedFetcher(upstream BarFetcher, cache store.BarStore, log *slog.Logger) *CachedFetcher {
	if log == nil {
		log = slog.Default()
	}
	return &CachedFetcher{upstream: upstream, cache: cache, log: log}
}

// FetchBars serves covered symbols from the cache and fetches the rest
// upstream. A cache read failure for one symbol degrades to an upstream
// fetch for that symbol rather than failing the request.
func (f *CachedFetcher) FetchBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	var (
		bars   []domain.Bar
		misses []string
	)

	for _, sym := range symbols {
		cached, err := f.cache.ReadBars(ctx, sym, start, end)
		if err != nil {
			f.log.Warn("bar cache read failed", "symbol", sym, "err", err)
			misses = append(misses, sym)
			continue
		}
		if !covers(cached, start, end) {
			misses = append(misses, sym)
			continue
		}
		bars = append(bars, cached...)
	}

	if len(misses) == 0 {
		return bars, nil
	}

	fetched, err := f.upstream.FetchBars(ctx, misses, start, end)
	if err != nil {
		return nil, err
	}

	if len(fetched) > 0 {
		if werr := f.cache.WriteBars(ctx, fetched); werr != nil {
			f.log.Warn("bar cache write failed", "symbols", len(misses), "err", werr)
		}
	}

	f.log.Debug("bar fetch",
		"requested", len(symbols),
		"cache_hits", len(symbols)-len(misses),
		"upstream", len(misses),
	)

	return append(bars, fetched...), nil
}

// covers reports whether the cached bars span the requested range, within
// the weekend/holiday slack.
func covers(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	first, last := bars[0].Timestamp, bars[0].Timestamp
	for _, b := range bars[1:] {
		if b.Timestamp.Before(first) {
			first = b.Timestamp
		}
		if b.Timestamp.After(last) {
			last = b.Timestamp
		}
	}
	return !first.After(start.Add(coverageSlack)) && !last.Before(end.Add(-coverageSlack))
}
