package strategy

import (
	"fmt"

	"strategy-scanner/internal/series"
	"strategy-scanner/internal/ta"
)

// Predicate reports whether a rule holds at a bar index.
type Predicate func(i int) bool

// CompileRule turns one condition into a boolean predicate over the series.
//
// Threshold operators compare the compiled indicator against the numeric
// value. Cross operators compare it against a counterpart series: the MACD
// signal line when the condition says so, the slow EMA for EMA_CROSS, and
// the raw close prices otherwise. A cross at index 0 has no prior bar and is
// always false.
func CompileRule(c Condition, s *series.Series) (Predicate, error) {
	ind, err := CompileIndicator(c, s)
	if err != nil {
		return nil, err
	}
	switch c.Operator {
	case OperatorLT:
		return func(i int) bool { return ind.At(i) < c.Value }, nil
	case OperatorGT:
		return func(i int) bool { return ind.At(i) > c.Value }, nil
	case OperatorCrossUp, OperatorCrossDown:
		other, err := crossCounterpart(c, s, &ind)
		if err != nil {
			return nil, err
		}
		up := c.Operator == OperatorCrossUp
		return func(i int) bool {
			if i <= 0 {
				return false
			}
			if up {
				return ind.At(i-1) <= other.At(i-1) && ind.At(i) > other.At(i)
			}
			return ind.At(i-1) >= other.At(i-1) && ind.At(i) < other.At(i)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, c.Operator)
}

// crossCounterpart picks the series the indicator is compared against for
// cross operators. For the signal-line case the MACD series is rebuilt from
// the condition's parameters and replaces the compiled indicator so both
// sides share one basis.
func crossCounterpart(c Condition, s *series.Series, ind **IndicatorSeries) (*IndicatorSeries, error) {
	if c.SignalLine {
		fast, slow := c.fastSlow()
		macd := ta.MACD(s.Closes(), fast, slow)
		*ind = fromValues(macd)
		return fromValues(ta.MACDSignal(macd, c.signalPeriod())), nil
	}
	if c.Indicator == IndicatorEMACross {
		_, slow := c.fastSlow()
		return newIndicatorSeries(func() []float64 { return ta.EMA(s.Closes(), slow) }), nil
	}
	return fromValues(s.Closes()), nil
}
