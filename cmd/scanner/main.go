package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"strategy-scanner/internal/logger"
	"strategy-scanner/internal/scanner"
	"strategy-scanner/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}
	if !cfg.Enabled {
		logger.Warn(ctx, "Scanner disabled by config, exiting")
		return
	}

	market, err := initializeMarketData(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Market data init failed", err)
		os.Exit(1)
	}
	trades, err := initializeTradeStore(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Trade store init failed", err)
		os.Exit(1)
	}
	watch, err := initializeWatchlist(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Watchlist init failed", err)
		os.Exit(1)
	}

	scn, err := initializeScanner(cfg, scanner.Deps{
		Market:    market,
		Trades:    trades,
		Watchlist: watch,
		Notifier:  initializeNotifier(ctx, cfg),
		Analyst:   initializeAnalyst(ctx, cfg),
		Engine:    newEngine(cfg),
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Scanner init failed", err)
		os.Exit(1)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := os.Getenv("METRICS_ADDR")
		if addr == "" {
			addr = ":9100"
		}
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Warn(ctx, "Metrics endpoint stopped", "error", err)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Scanner started", "poll_seconds", cfg.PollSeconds, "timeframes", cfg.Scan.Timeframes)
	if err := scn.Scan(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Scan cycle error", err)
	}

	for {
		select {
		case <-tick.C:
			if err := scn.Scan(ctx); err != nil {
				logger.ErrorWithErr(ctx, "Scan cycle error", err)
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			shutdownCtx, sCancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := trace.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Tracer shutdown failed", "error", err)
			}
			sCancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
