// Package cache memoizes parsed strategy configurations per symbol, keyed
// by a content hash of the raw configuration blob.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"strategy-scanner/internal/strategy"
)

type entry struct {
	hash    string
	configs []*strategy.StrategyConfig
}

// StrategyCache is safe for concurrent use. Readers for different symbols
// never block each other; racing updates for one symbol converge to a
// single winning entry (last writer wins, no torn reads).
type StrategyCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *StrategyCache {
	return &StrategyCache{entries: make(map[string]*entry)}
}

// Get returns the parsed strategy list for a symbol, reusing the cached
// parse when the configuration blob is unchanged. An empty blob yields an
// empty list. A hash mismatch always forces a full re-parse and entry
// replacement, never partial reuse.
func (c *StrategyCache) Get(symbol string, configJSON []byte) ([]*strategy.StrategyConfig, error) {
	if len(configJSON) == 0 {
		return nil, nil
	}
	h := contentHash(configJSON)

	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()
	if ok && e.hash == h {
		return e.configs, nil
	}

	configs, err := strategy.ParseConfigs(configJSON)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[symbol] = &entry{hash: h, configs: configs}
	c.mu.Unlock()
	return configs, nil
}

// Invalidate drops the cached entry for a symbol.
func (c *StrategyCache) Invalidate(symbol string) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
