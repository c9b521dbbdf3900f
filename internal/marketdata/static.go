// Package marketdata provides candle sources for the scanner.
package marketdata

import (
	"context"
	"math/rand"
	"time"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/series"
	"strategy-scanner/internal/types"
)

// StaticSource generates a synthetic random-walk candle series. Used for
// dry runs and tests where no market connection is available.
type StaticSource struct{}

var _ interfaces.MarketData = (*StaticSource)(nil)

func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

func (s *StaticSource) Source() string { return "STATIC" }

func (s *StaticSource) Candles(ctx context.Context, symbol, timeframe string, count int, historical bool) ([]types.Candle, error) {
	d, err := series.BarDuration(timeframe)
	if err != nil {
		return nil, err
	}
	step := int64(d / time.Second)
	now := time.Now().Unix()

	cs := make([]types.Candle, 0, count)
	base := 1000.0
	for i := count; i > 0; i-- {
		c := base + float64(i) + (rand.Float64()-0.5)*5
		h := c + rand.Float64()*3
		l := c - rand.Float64()*3
		cs = append(cs, types.Candle{
			Ts:    now - int64(i)*step,
			Open:  c - 0.5,
			High:  h,
			Low:   l,
			Close: c,
			Vol:   rand.Float64() * 1000,
		})
	}
	return cs, nil
}
