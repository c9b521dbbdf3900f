package interfaces

import "context"

// Scanner runs one full scan cycle over all watchlist symbols and
// configured timeframes.
type Scanner interface {
	Scan(ctx context.Context) error
}
