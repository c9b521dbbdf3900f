package interfaces

import (
	"context"

	"strategy-scanner/internal/types"
)

// MarketData supplies candles for a symbol and timeframe. Implementations
// may fail transiently; the scanner retries. An empty slice means "no data,
// skip this pass".
type MarketData interface {
	Candles(ctx context.Context, symbol, timeframe string, count int, historical bool) ([]types.Candle, error)
	Source() string
}
