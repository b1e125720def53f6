package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"folio/internal/domain"
	"folio/internal/util"
)

// Compile-time interface check.
var _ BarFetcher = (*AlpacaFetcher)(nil)

// AlpacaFetcher fetches daily bars from the Alpaca market-data API. All
// requests ask for split- and dividend-adjusted prices, so Bar.Close is the
// adjusted close.
type AlpacaFetcher struct {
	client      *marketdata.Client
	feed        string
	limiter     *util.RateLimiter
	maxAttempts int
	retryDelay  time.Duration
}

// NewAlpacaFetcher creates an AlpacaFetcher with the given credentials.
// dataURL and feed may be empty to use the Alpaca defaults.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL, feed string, ratePerMin int) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaFetcher{
		client:      marketdata.NewClient(opts),
		feed:        feed,
		limiter:     util.NewRateLimiter(ratePerMin),
		maxAttempts: 3,
		retryDelay:  500 * time.Millisecond,
	}
}

// FetchBars fetches adjusted daily bars for all symbols in one multi-bar
// request, retried with backoff on provider failure.
func (f *AlpacaFetcher) FetchBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
	}
	if f.feed != "" {
		req.Feed = marketdata.Feed(f.feed)
	}

	var multiBars map[string][]marketdata.Bar
	err := util.Retry(ctx, f.maxAttempts, f.retryDelay, func() error {
		var ferr error
		multiBars, ferr = f.client.GetMultiBars(symbols, req)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
