// Package watchlist supplies the symbols to scan.
package watchlist

import (
	"context"
	"sync"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/types"
)

// StaticWatchlist serves a fixed symbol list from configuration. Strategy
// blobs saved through it are held in memory for the process lifetime.
type StaticWatchlist struct {
	mu      sync.RWMutex
	symbols []string
	blobs   map[string][]byte
}

var _ interfaces.Watchlist = (*StaticWatchlist)(nil)

func NewStatic(symbols []string, strategyJSON []byte) *StaticWatchlist {
	w := &StaticWatchlist{symbols: symbols, blobs: make(map[string][]byte)}
	for _, s := range symbols {
		w.blobs[s] = strategyJSON
	}
	return w
}

func (w *StaticWatchlist) Entries(ctx context.Context, source string) ([]types.WatchlistEntry, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]types.WatchlistEntry, 0, len(w.symbols))
	for _, s := range w.symbols {
		out = append(out, types.WatchlistEntry{Symbol: s, StrategyJSON: w.blobs[s]})
	}
	return out, nil
}

func (w *StaticWatchlist) SaveStrategy(ctx context.Context, source, symbol string, strategyJSON []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blobs[symbol] = strategyJSON
	return nil
}
