// Package engine evaluates compiled strategies against fresh bar series and
// emits trade signals.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"strategy-scanner/internal/logger"
	"strategy-scanner/internal/risk"
	"strategy-scanner/internal/series"
	"strategy-scanner/internal/strategy"
	"strategy-scanner/internal/types"
)

type Engine struct {
	calc *risk.Calculator
}

func New(p risk.Params) *Engine {
	return &Engine{calc: risk.NewCalculator(p)}
}

// Evaluate runs one strategy against one candle set and returns a signal
// when the entry or exit predicate fires on the latest bar, nil otherwise.
// Any panic during compilation or evaluation is converted into an error so
// a single broken strategy never aborts its siblings.
func (e *Engine) Evaluate(ctx context.Context, cfg *strategy.StrategyConfig, candles []types.Candle, symbol, timeframe string) (sig *types.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = fmt.Errorf("strategy evaluation failed: %v", r)
		}
	}()

	if len(candles) == 0 {
		return nil, nil
	}
	s, err := series.Build(candles, timeframe)
	if err != nil {
		return nil, fmt.Errorf("strategy evaluation failed: %w", err)
	}
	if s.Len() == 0 {
		return nil, nil
	}

	st, cerr := strategy.Compile(cfg, s)
	if cerr != nil {
		logger.Warn(ctx, "Some rule groups failed to compile", "symbol", symbol, "strategy", cfg.Name, "error", cerr)
	}

	last := s.LastIndex()
	entryPrice := s.Close(last)

	switch {
	case st.Entry(last):
		stop, target := e.calc.Levels(s, types.SideBuy, entryPrice)
		if g, ok := firstGroup(cfg, "BUY"); ok {
			stop, target = e.calc.OverrideLevels(g, types.SideBuy, entryPrice, e.calc.ATR(s), stop, target)
		}
		return e.buildSignal(cfg, s, symbol, timeframe, types.SideBuy, entryPrice, stop, target), nil
	case st.Exit(last):
		stop, target := e.calc.Levels(s, types.SideSell, entryPrice)
		return e.buildSignal(cfg, s, symbol, timeframe, types.SideSell, entryPrice, stop, target), nil
	}
	return nil, nil
}

func firstGroup(cfg *strategy.StrategyConfig, action string) (strategy.RuleGroup, bool) {
	for _, g := range cfg.Rules {
		if g.Action == action {
			return g, true
		}
	}
	return strategy.RuleGroup{}, false
}

func (e *Engine) buildSignal(cfg *strategy.StrategyConfig, s *series.Series, symbol, timeframe string, side types.Side, entry, stop, target float64) *types.Signal {
	atr := e.calc.ATR(s)
	last := s.LastIndex()
	barRange := s.High(last) - s.Low(last)

	sig := &types.Signal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entry,
		StopLoss:   stop,
		Target:     target,
		Timeframe:  timeframe,
		Confidence: confidence(entry, stop, target, atr, barRange),
		Score:      score(entry, stop, target),
		Ts:         barTimestamp(s, last),
		Strategy:   cfg.Name,
	}
	if entry != 0 && !math.IsNaN(stop) {
		sig.StopLossPercent = math.Abs(entry-stop) / entry * 100.0
	}
	if entry != 0 && !math.IsNaN(target) {
		sig.TargetPercent = math.Abs(target-entry) / entry * 100.0
	}
	return sig
}

func barTimestamp(s *series.Series, i int) int64 {
	if i >= 0 && i < s.Len() {
		return s.EndTime(i)
	}
	return time.Now().Unix()
}

// confidence starts at 0.5 and is adjusted by the reward:risk ratio and by
// how tight the latest bar is relative to ATR, clamped to [0,1]. Adjustments
// whose inputs are unavailable (zero or NaN) are skipped.
func confidence(entry, stop, target, atr, barRange float64) float64 {
	c := 0.5
	rr := rewardRisk(entry, stop, target)
	if !math.IsNaN(rr) {
		if rr >= 2 {
			c += 0.2
		} else if rr < 1 {
			c -= 0.2
		}
	}
	if !math.IsNaN(atr) && atr > 0 {
		if barRange < 1.2*atr {
			c += 0.1
		} else {
			c -= 0.1
		}
	}
	return math.Max(0, math.Min(1, c))
}

// score maps reward:risk onto [0,1], saturating at 5:1. Unresolvable levels
// score zero.
func score(entry, stop, target float64) float64 {
	rr := rewardRisk(entry, stop, target)
	if math.IsNaN(rr) {
		return 0
	}
	return math.Min(1, rr/5.0)
}

func rewardRisk(entry, stop, target float64) float64 {
	riskDist := math.Abs(entry - stop)
	rewardDist := math.Abs(target - entry)
	if math.IsNaN(riskDist) || math.IsNaN(rewardDist) || riskDist == 0 {
		return math.NaN()
	}
	return rewardDist / riskDist
}
