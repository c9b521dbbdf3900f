package interfaces

import (
	"context"

	"strategy-scanner/internal/types"
)

// Watchlist yields the symbols to scan for a data source, each optionally
// carrying a previously selected strategy configuration blob.
type Watchlist interface {
	Entries(ctx context.Context, source string) ([]types.WatchlistEntry, error)
	SaveStrategy(ctx context.Context, source, symbol string, strategyJSON []byte) error
}
