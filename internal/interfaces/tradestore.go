package interfaces

import (
	"context"

	"strategy-scanner/internal/types"
)

// TradeStore persists trades, keyed by a caller-supplied table identifier.
type TradeStore interface {
	OpenTrades(ctx context.Context, table, symbol string) ([]*types.Trade, error)
	OpenTradesBy(ctx context.Context, table, symbol, timeframe string, side types.Side) ([]*types.Trade, error)
	Insert(ctx context.Context, table string, t *types.Trade) error
	UpdateLastPrice(ctx context.Context, table, tradeID string, ltp, pnl float64) error
	CloseTrade(ctx context.Context, table, tradeID string, exitPrice float64, exitTs int64, pnl float64) error
	AppendComment(ctx context.Context, table, tradeID, comment string) error
}
