// Package risk computes protective stop and profit-target levels from
// volatility and swing structure.
package risk

import (
	"math"

	"strategy-scanner/internal/series"
	"strategy-scanner/internal/strategy"
	"strategy-scanner/internal/ta"
	"strategy-scanner/internal/types"
)

type Params struct {
	ATRPeriod     int
	SwingLookback int
	ATRBuffer     float64
	RewardRisk    float64
}

func DefaultParams() Params {
	return Params{ATRPeriod: 14, SwingLookback: 10, ATRBuffer: 0.5, RewardRisk: 2.0}
}

type Calculator struct {
	p Params
}

func NewCalculator(p Params) *Calculator {
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = 14
	}
	if p.SwingLookback <= 0 {
		p.SwingLookback = 10
	}
	if p.RewardRisk <= 0 {
		p.RewardRisk = 2.0
	}
	return &Calculator{p: p}
}

// ATR returns the current average true range of the series, NaN when the
// series is too short.
func (c *Calculator) ATR(s *series.Series) float64 {
	return ta.Last(ta.ATR(s.Highs(), s.Lows(), s.Closes(), c.p.ATRPeriod))
}

// Levels computes the default stop and target for an entry at the last bar.
// A series shorter than the swing lookback yields (NaN, NaN); callers treat
// that as "levels unavailable", not as zero.
//
// BUY: stop = min(entry, swingLow - buffer*ATR), target = entry + rr*risk.
// SELL is the mirror using the swing high.
func (c *Calculator) Levels(s *series.Series, side types.Side, entry float64) (stop, target float64) {
	if s.Len() < c.p.SwingLookback {
		return math.NaN(), math.NaN()
	}
	atr := c.ATR(s)
	if side == types.SideSell {
		swingHigh := ta.SwingHigh(s.Highs(), c.p.SwingLookback)
		stop = math.Max(entry, swingHigh+c.p.ATRBuffer*atr)
		target = entry - c.p.RewardRisk*math.Abs(entry-stop)
		return stop, target
	}
	swingLow := ta.SwingLow(s.Lows(), c.p.SwingLookback)
	stop = math.Min(entry, swingLow-c.p.ATRBuffer*atr)
	target = entry + c.p.RewardRisk*math.Abs(entry-stop)
	return stop, target
}

// OverrideLevels applies a rule group's stop/target overrides on top of the
// defaults. Stop and target are resolved independently. Fixed precedence
// when several methods are configured on one group: percent, then points,
// then ATR multiplier. An unresolvable method (ATR multiplier with no ATR)
// falls through to the next one.
func (c *Calculator) OverrideLevels(g strategy.RuleGroup, side types.Side, entry, atr, defStop, defTarget float64) (stop, target float64) {
	dir := 1.0
	if side == types.SideSell {
		dir = -1.0
	}
	stop = defStop
	switch {
	case g.StopLossPercent > 0:
		stop = entry - dir*entry*g.StopLossPercent/100.0
	case g.StopLossPoints > 0:
		stop = entry - dir*g.StopLossPoints
	case g.StopLossAtrMultiplier > 0 && !math.IsNaN(atr):
		stop = entry - dir*g.StopLossAtrMultiplier*atr
	}
	target = defTarget
	switch {
	case g.TakeProfitPercent > 0:
		target = entry + dir*entry*g.TakeProfitPercent/100.0
	case g.TakeProfitPoints > 0:
		target = entry + dir*g.TakeProfitPoints
	case g.TakeProfitAtrMultiplier > 0 && !math.IsNaN(atr):
		target = entry + dir*g.TakeProfitAtrMultiplier*atr
	}
	return stop, target
}
