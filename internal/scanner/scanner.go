// Package scanner drives the scan cycle: it fans out over watchlist
// symbols and configured timeframes, monitors open trades, evaluates
// strategies and manages the resulting trade lifecycle.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"strategy-scanner/internal/cache"
	"strategy-scanner/internal/engine"
	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/logger"
	"strategy-scanner/internal/metrics"
	"strategy-scanner/internal/strategy"
	"strategy-scanner/internal/trace"
	"strategy-scanner/internal/types"
)

type Config struct {
	Timeframes       []TimeframeSpec
	MaxRetries       int
	Parallelism      int
	TradesTable      string
	FailureThreshold int
	ShutdownTimeout  time.Duration
	WatchlistSource  string
}

type Deps struct {
	Market    interfaces.MarketData
	Trades    interfaces.TradeStore
	Watchlist interfaces.Watchlist
	Notifier  interfaces.Notifier
	Analyst   interfaces.Analyst
	Engine    *engine.Engine
}

type Scanner struct {
	cfg      Config
	market   interfaces.MarketData
	trades   interfaces.TradeStore
	watch    interfaces.Watchlist
	notifier interfaces.Notifier
	analyst  interfaces.Analyst
	engine   *engine.Engine
	cache    *cache.StrategyCache
	failures *failureCounters
}

var _ interfaces.Scanner = (*Scanner)(nil)

func New(cfg Config, deps Deps) *Scanner {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Scanner{
		cfg:      cfg,
		market:   deps.Market,
		trades:   deps.Trades,
		watch:    deps.Watchlist,
		notifier: deps.Notifier,
		analyst:  deps.Analyst,
		engine:   deps.Engine,
		cache:    cache.New(),
		failures: newFailureCounters(),
	}
}

// Scan runs one full cycle. Failures local to one strategy, symbol or
// timeframe never prevent processing of siblings; the cycle always runs to
// completion.
func (s *Scanner) Scan(ctx context.Context) error {
	entries, err := s.watch.Entries(ctx, s.cfg.WatchlistSource)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}
	if len(entries) == 0 {
		logger.Warn(ctx, "Watchlist is empty, nothing to scan", "source", s.cfg.WatchlistSource)
		return nil
	}

	pool := newWorkerPool(s.cfg.Parallelism)
	for _, tf := range s.cfg.Timeframes {
		for _, entry := range entries {
			tf, entry := tf, entry
			pool.submit(func() { s.scanPair(ctx, entry, tf) })
		}
	}
	pool.shutdown(ctx, s.cfg.ShutdownTimeout)
	return nil
}

// scanPair executes the fetch-and-process pipeline for one symbol and
// timeframe, retrying the fetch up to the configured bound. Terminal
// failures feed the per-source consecutive-failure counter; any success
// resets it.
func (s *Scanner) scanPair(ctx context.Context, entry types.WatchlistEntry, tf TimeframeSpec) {
	ctx, span := trace.StartSpan(ctx, "scanner.pass")
	defer span.End()
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			metrics.FetchRetries.Inc()
		}
		candles, err := s.market.Candles(ctx, entry.Symbol, tf.Code, tf.Count, false)
		if err != nil {
			lastErr = err
			logger.Warn(ctx, "Candle fetch failed", "symbol", entry.Symbol, "timeframe", tf.Code, "attempt", attempt, "error", err)
			continue
		}
		s.failures.reset(s.market.Source())
		if len(candles) == 0 {
			logger.Debug(ctx, "No candle data, skipping pass", "symbol", entry.Symbol, "timeframe", tf.Code)
			metrics.ScanPasses.WithLabelValues(tf.Code, "empty").Inc()
			return
		}
		s.process(ctx, entry, tf, candles)
		metrics.ScanPasses.WithLabelValues(tf.Code, "ok").Inc()
		return
	}

	metrics.ScanPasses.WithLabelValues(tf.Code, "fetch_failed").Inc()
	n := s.failures.inc(s.market.Source())
	if n >= s.cfg.FailureThreshold {
		logger.Error(ctx, "Data source failing persistently",
			"source", s.market.Source(), "consecutive_failures", n, "symbol", entry.Symbol, "timeframe", tf.Code, "error", lastErr)
		return
	}
	logger.Warn(ctx, "Candle fetch exhausted retries",
		"source", s.market.Source(), "consecutive_failures", n, "symbol", entry.Symbol, "timeframe", tf.Code, "error", lastErr)
}

// process runs one pass: monitor open trades first, then evaluate every
// strategy, then act on the single best-scored signal.
func (s *Scanner) process(ctx context.Context, entry types.WatchlistEntry, tf TimeframeSpec, candles []types.Candle) {
	ltp := candles[len(candles)-1].Close
	s.monitor(ctx, entry.Symbol, ltp)

	configs, err := s.cache.Get(entry.Symbol, entry.StrategyJSON)
	if err != nil {
		logger.ErrorWithErr(ctx, "Strategy config parse failed", err, "symbol", entry.Symbol)
		return
	}
	if len(configs) == 0 {
		return
	}

	var best *types.Signal
	var bestCfg *strategy.StrategyConfig
	for _, cfg := range configs {
		sig, err := s.engine.Evaluate(ctx, cfg, candles, entry.Symbol, tf.Code)
		if err != nil {
			logger.ErrorWithErr(ctx, "Strategy evaluation failed", err, "symbol", entry.Symbol, "strategy", cfg.Name, "timeframe", tf.Code)
			continue
		}
		if sig == nil {
			continue
		}
		metrics.SignalsEmitted.WithLabelValues(string(sig.Side)).Inc()
		// highest score wins; first-seen wins ties
		if best == nil || sig.Score > best.Score {
			best, bestCfg = sig, cfg
		}
	}
	if best == nil {
		return
	}
	s.act(ctx, best)
	s.saveBestStrategy(ctx, entry.Symbol, bestCfg)
}

// monitor updates price and PnL on every open trade for the symbol and
// auto-closes those whose target or stop has been crossed. Failures are
// logged and never stop the pass.
func (s *Scanner) monitor(ctx context.Context, symbol string, ltp float64) {
	open, err := s.trades.OpenTrades(ctx, s.cfg.TradesTable, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Trade monitoring failed", err, "symbol", symbol)
		return
	}
	for _, t := range open {
		pnl := unrealizedPnL(t, ltp)
		if err := s.trades.UpdateLastPrice(ctx, s.cfg.TradesTable, t.TradeID, ltp, pnl); err != nil {
			logger.Warn(ctx, "Failed to update last price", "trade_id", t.TradeID, "error", err)
		}
		exit, reason, hit := exitLevel(t, ltp)
		if !hit {
			continue
		}
		realized := realizedPnL(t, exit)
		if err := s.trades.CloseTrade(ctx, s.cfg.TradesTable, t.TradeID, exit, time.Now().Unix(), realized); err != nil {
			logger.ErrorWithErr(ctx, "Failed to close trade", err, "trade_id", t.TradeID, "reason", reason)
			continue
		}
		metrics.TradesClosed.WithLabelValues(reason).Inc()
		logger.Info(ctx, "Trade auto-closed", "trade_id", t.TradeID, "symbol", symbol, "reason", reason, "exit", exit, "pnl", realized)
		s.notify(ctx, fmt.Sprintf("Closed %s %s @ %.2f (%s), pnl %.2f", t.Side, t.Symbol, exit, reason, realized))
	}
}

func (s *Scanner) act(ctx context.Context, sig *types.Signal) {
	if sig.Side == types.SideBuy {
		s.actBuy(ctx, sig)
		return
	}
	s.actSell(ctx, sig)
}

// actBuy opens a new trade for the signal, or appends the signal message as
// a comment when a trade is already open for (symbol, side, timeframe).
func (s *Scanner) actBuy(ctx context.Context, sig *types.Signal) {
	open, err := s.trades.OpenTradesBy(ctx, s.cfg.TradesTable, sig.Symbol, sig.Timeframe, types.SideBuy)
	if err != nil {
		logger.ErrorWithErr(ctx, "Open-trade lookup failed", err, "symbol", sig.Symbol)
		return
	}
	if len(open) > 0 {
		if err := s.trades.AppendComment(ctx, s.cfg.TradesTable, open[0].TradeID, sig.Message()); err != nil {
			logger.Warn(ctx, "Failed to append signal comment", "trade_id", open[0].TradeID, "error", err)
			return
		}
		logger.Info(ctx, "Signal appended to existing trade", "trade_id", open[0].TradeID, "symbol", sig.Symbol, "timeframe", sig.Timeframe)
		return
	}

	t := &types.Trade{
		TradeID:    uuid.NewString(),
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		Timeframe:  sig.Timeframe,
		EntryPrice: sig.EntryPrice,
		StopLoss:   sig.StopLoss,
		Target:     sig.Target,
		Quantity:   1,
		EntryTs:    time.Now().Unix(),
		LTP:        sig.EntryPrice,
		Status:     types.StatusOpen,
	}
	if analysis, err := s.analyst.Analyze(ctx, sig.Message()); err != nil {
		logger.Warn(ctx, "Qualitative analysis unavailable", "symbol", sig.Symbol, "error", err)
	} else {
		t.Analysis = analysis
	}
	if err := s.trades.Insert(ctx, s.cfg.TradesTable, t); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist new trade", err, "symbol", sig.Symbol)
		return
	}
	metrics.TradesOpened.Inc()
	logger.Info(ctx, "Trade opened", "trade_id", t.TradeID, "symbol", t.Symbol, "timeframe", t.Timeframe, "entry", t.EntryPrice, "stop", t.StopLoss, "target", t.Target)
	s.notify(ctx, sig.Message())
}

// actSell closes the first matching open long at the signal's entry price.
// With nothing open an exit signal is a no-op.
func (s *Scanner) actSell(ctx context.Context, sig *types.Signal) {
	open, err := s.trades.OpenTradesBy(ctx, s.cfg.TradesTable, sig.Symbol, sig.Timeframe, types.SideBuy)
	if err != nil {
		logger.ErrorWithErr(ctx, "Open-trade lookup failed", err, "symbol", sig.Symbol)
		return
	}
	if len(open) == 0 {
		logger.Debug(ctx, "Exit signal with no open trade, ignoring", "symbol", sig.Symbol, "timeframe", sig.Timeframe)
		return
	}
	t := open[0]
	realized := realizedPnL(t, sig.EntryPrice)
	if err := s.trades.CloseTrade(ctx, s.cfg.TradesTable, t.TradeID, sig.EntryPrice, time.Now().Unix(), realized); err != nil {
		logger.ErrorWithErr(ctx, "Failed to close trade on exit signal", err, "trade_id", t.TradeID)
		return
	}
	metrics.TradesClosed.WithLabelValues("exit_signal").Inc()
	logger.Info(ctx, "Trade closed on exit signal", "trade_id", t.TradeID, "symbol", t.Symbol, "exit", sig.EntryPrice, "pnl", realized)
	s.notify(ctx, fmt.Sprintf("Exited %s %s @ %.2f, pnl %.2f", t.Side, t.Symbol, sig.EntryPrice, realized))
}

func (s *Scanner) saveBestStrategy(ctx context.Context, symbol string, cfg *strategy.StrategyConfig) {
	if cfg == nil {
		return
	}
	blob, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.watch.SaveStrategy(ctx, s.cfg.WatchlistSource, symbol, blob); err != nil {
		logger.Debug(ctx, "Best strategy not persisted", "symbol", symbol, "error", err)
	}
}

func (s *Scanner) notify(ctx context.Context, msg string) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		logger.Warn(ctx, "Notification delivery failed", "error", err)
	}
}

// exitLevel reports whether the last traded price has crossed the trade's
// target or stop, direction-aware per side, and at which level the trade
// closes. NaN levels never trigger.
func exitLevel(t *types.Trade, ltp float64) (level float64, reason string, hit bool) {
	if t.Side == types.SideBuy {
		if !math.IsNaN(t.Target) && t.Target > 0 && ltp >= t.Target {
			return t.Target, "target", true
		}
		if !math.IsNaN(t.StopLoss) && t.StopLoss > 0 && ltp <= t.StopLoss {
			return t.StopLoss, "stop", true
		}
		return 0, "", false
	}
	if !math.IsNaN(t.Target) && t.Target > 0 && ltp <= t.Target {
		return t.Target, "target", true
	}
	if !math.IsNaN(t.StopLoss) && t.StopLoss > 0 && ltp >= t.StopLoss {
		return t.StopLoss, "stop", true
	}
	return 0, "", false
}

func unrealizedPnL(t *types.Trade, ltp float64) float64 {
	if t.Side == types.SideSell {
		return (t.EntryPrice - ltp) * t.Quantity
	}
	return (ltp - t.EntryPrice) * t.Quantity
}

func realizedPnL(t *types.Trade, exit float64) float64 {
	if t.Side == types.SideSell {
		return (t.EntryPrice - exit) * t.Quantity
	}
	return (exit - t.EntryPrice) * t.Quantity
}
