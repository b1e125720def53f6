package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/internal/config"
	"folio/internal/httpapi"
	"folio/internal/market"
	"folio/internal/report"
	"folio/internal/store"
	"folio/internal/util"
)

func main() {
	cfgPath := "config/folio.yaml"
	if p := os.Getenv("FOLIO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("alpaca credentials missing: set APCA_API_KEY_ID and APCA_API_SECRET_KEY or fill in the config file")
	}

	var fetcher market.BarFetcher = market.NewAlpacaFetcher(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		cfg.Alpaca.Feed,
		cfg.Alpaca.RateLimitPerMin,
	)
	if cfg.Storage.NoCache {
		logger.Info("bar cache disabled")
	} else {
		fetcher = market.NewCachedFetcher(fetcher, store.NewParquetStore(cfg.Storage.DataDir), logger)
	}

	var runs store.RunStore
	if cfg.Storage.SQLitePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening run log: %v", err)
		}
		defer db.Close()
		runs = db
	}

	builder := report.NewBuilder(market.NewSource(fetcher), runs, report.Options{
		DefaultTickers: cfg.Analytics.DefaultTickers,
		LookbackDays:   cfg.Analytics.LookbackDays,
		WindowDays:     cfg.Analytics.WindowDays,
		PadDays:        cfg.Analytics.PadDays,
		RiskFreeRate:   cfg.Analytics.RiskFreeRate,
	}, logger)

	srv := httpapi.NewServer(builder, runs, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("folio server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
