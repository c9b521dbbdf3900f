package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"strategy-scanner/internal/analyst"
	"strategy-scanner/internal/engine"
	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/logger"
	"strategy-scanner/internal/marketdata"
	"strategy-scanner/internal/notify"
	"strategy-scanner/internal/risk"
	"strategy-scanner/internal/scanner"
	"strategy-scanner/internal/scanner/scannerobs"
	"strategy-scanner/internal/store"
	"strategy-scanner/internal/trace"
	"strategy-scanner/internal/tradestore"
	"strategy-scanner/internal/watchlist"
)

func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("SCANNER_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

func initializeMarketData(ctx context.Context, cfg *store.Config) (interfaces.MarketData, error) {
	if cfg.DataSource == "CLICKHOUSE" {
		src, err := marketdata.NewClickHouseSource(marketdata.ClickHouseConfig{
			Host:     cfg.ClickHouse.Host,
			Port:     cfg.ClickHouse.Port,
			Database: cfg.ClickHouse.Database,
			User:     cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
			Table:    cfg.ClickHouse.Table,
		})
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "Using ClickHouse candle data", "host", cfg.ClickHouse.Host, "table", cfg.ClickHouse.Table)
		return src, nil
	}
	logger.Info(ctx, "Using STATIC synthetic candle data")
	return marketdata.NewStaticSource(), nil
}

func initializeTradeStore(ctx context.Context, cfg *store.Config) (interfaces.TradeStore, error) {
	if cfg.Redis.Addr != "" {
		ts, err := tradestore.NewRedisStore(tradestore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "Using Redis trade store", "addr", cfg.Redis.Addr)
		return ts, nil
	}
	logger.Warn(ctx, "No Redis configured - trades held in memory only")
	return tradestore.NewMemoryStore(), nil
}

func initializeWatchlist(ctx context.Context, cfg *store.Config) (interfaces.Watchlist, error) {
	if cfg.Watchlist.Mode == "REDIS" {
		wl, err := watchlist.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "Using Redis watchlist", "source", cfg.Watchlist.Source)
		return wl, nil
	}
	strategyJSON := []byte(os.Getenv("SCANNER_STRATEGY_JSON"))
	return watchlist.NewStatic(cfg.Watchlist.Static, strategyJSON), nil
}

func initializeNotifier(ctx context.Context, cfg *store.Config) interfaces.Notifier {
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic != "" {
		logger.Info(ctx, "Using Kafka notifier", "topic", cfg.Kafka.Topic)
		return notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	logger.Warn(ctx, "No notifier configured - notifications are log-only")
	return notify.NewNoop()
}

func initializeAnalyst(ctx context.Context, cfg *store.Config) interfaces.Analyst {
	if cfg.Analyst.Provider == "OPENAI" {
		return analyst.NewOpenAI(cfg)
	}
	logger.Warn(ctx, "No analyst provider configured - trades created without commentary")
	return analyst.NewNoop()
}

func initializeScanner(cfg *store.Config, deps scanner.Deps) (interfaces.Scanner, error) {
	timeframes, err := scanner.ParseTimeframes(cfg.Scan.Timeframes)
	if err != nil {
		return nil, err
	}
	s := scanner.New(scanner.Config{
		Timeframes:       timeframes,
		MaxRetries:       cfg.Scan.MaxRetries,
		Parallelism:      cfg.Scan.Parallelism,
		TradesTable:      cfg.Scan.TradesTable,
		FailureThreshold: cfg.Scan.FailureThreshold,
		ShutdownTimeout:  time.Duration(cfg.Scan.ShutdownSeconds) * time.Second,
		WatchlistSource:  cfg.Watchlist.Source,
	}, deps)
	return scannerobs.Wrap(s), nil
}

func newEngine(cfg *store.Config) *engine.Engine {
	return engine.New(risk.Params{
		ATRPeriod:     cfg.Risk.ATRPeriod,
		SwingLookback: cfg.Risk.SwingLookback,
		ATRBuffer:     cfg.Risk.ATRBuffer,
		RewardRisk:    cfg.Risk.RewardRisk,
	})
}
