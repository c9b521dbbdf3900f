package watchlist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/types"
)

// RedisWatchlist reads symbols and their strategy blobs from a Redis hash
// named watchlist:<source>, field = symbol, value = strategy JSON.
type RedisWatchlist struct {
	client *redis.Client
}

var _ interfaces.Watchlist = (*RedisWatchlist)(nil)

func NewRedis(addr, password string, db int) (*RedisWatchlist, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisWatchlist{client: client}, nil
}

func (w *RedisWatchlist) Close() error { return w.client.Close() }

func key(source string) string { return "watchlist:" + source }

func (w *RedisWatchlist) Entries(ctx context.Context, source string) ([]types.WatchlistEntry, error) {
	fields, err := w.client.HGetAll(ctx, key(source)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	out := make([]types.WatchlistEntry, 0, len(fields))
	for symbol, blob := range fields {
		e := types.WatchlistEntry{Symbol: symbol}
		if blob != "" {
			e.StrategyJSON = []byte(blob)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (w *RedisWatchlist) SaveStrategy(ctx context.Context, source, symbol string, strategyJSON []byte) error {
	return w.client.HSet(ctx, key(source), symbol, string(strategyJSON)).Err()
}
