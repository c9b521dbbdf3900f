package strategy

import (
	"fmt"
	"math"
	"sync"

	"strategy-scanner/internal/series"
	"strategy-scanner/internal/ta"
)

// IndicatorSeries is a per-bar numeric view computed on first access.
type IndicatorSeries struct {
	once    sync.Once
	compute func() []float64
	values  []float64
}

func newIndicatorSeries(compute func() []float64) *IndicatorSeries {
	return &IndicatorSeries{compute: compute}
}

func fromValues(values []float64) *IndicatorSeries {
	s := &IndicatorSeries{values: values}
	s.once.Do(func() {})
	return s
}

// At returns the indicator value at a bar index, NaN when out of range or
// inside the warmup window.
func (s *IndicatorSeries) At(i int) float64 {
	s.once.Do(func() { s.values = s.compute() })
	if i < 0 || i >= len(s.values) {
		return math.NaN()
	}
	return s.values[i]
}

// CompileIndicator resolves a condition's indicator into a numeric series
// over the given bars. EMA_CROSS compiles to the fast EMA; the slow side of
// the cross is supplied by the rule compiler.
func CompileIndicator(c Condition, s *series.Series) (*IndicatorSeries, error) {
	switch c.Indicator {
	case IndicatorRSI:
		return newIndicatorSeries(func() []float64 { return ta.RSI(s.Closes(), c.period()) }), nil
	case IndicatorEMA:
		return newIndicatorSeries(func() []float64 { return ta.EMA(s.Closes(), c.period()) }), nil
	case IndicatorEMACross:
		fast, _ := c.fastSlow()
		return newIndicatorSeries(func() []float64 { return ta.EMA(s.Closes(), fast) }), nil
	case IndicatorMACD:
		fast, slow := c.fastSlow()
		return newIndicatorSeries(func() []float64 { return ta.MACD(s.Closes(), fast, slow) }), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, c.Indicator)
}
