package tradestore

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/types"
)

// RedisStore persists trades as JSON documents. Layout per table:
//
//	<table>:trade:<id>   trade document
//	<table>:open:<sym>   set of open trade ids for the symbol
//
// Every load-mutate-set cycle holds a per-key lock so concurrent scan
// passes can never write a stale trade copy back over a newer one. A
// trade that left OPEN status is never written back into it.
type RedisStore struct {
	client *redis.Client
	locks  [64]sync.Mutex
}

var _ interfaces.TradeStore = (*RedisStore)(nil)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error { return r.client.Close() }

func tradeKey(table, id string) string { return table + ":trade:" + id }
func openKey(table, sym string) string { return table + ":open:" + sym }

// lockFor maps a trade key onto a striped mutex. All writers of one trade
// id always contend on the same stripe.
func (r *RedisStore) lockFor(table, id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(tradeKey(table, id)))
	return &r.locks[h.Sum32()%uint32(len(r.locks))]
}

func (r *RedisStore) Insert(ctx context.Context, table string, t *types.Trade) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	mu := r.lockFor(table, t.TradeID)
	mu.Lock()
	defer mu.Unlock()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tradeKey(table, t.TradeID), b, 0)
	if t.Status == types.StatusOpen {
		pipe.SAdd(ctx, openKey(table, t.Symbol), t.TradeID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) OpenTrades(ctx context.Context, table, symbol string) ([]*types.Trade, error) {
	ids, err := r.client.SMembers(ctx, openKey(table, symbol)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	out := make([]*types.Trade, 0, len(ids))
	for _, id := range ids {
		t, err := r.load(ctx, table, id)
		if err != nil {
			return nil, err
		}
		if t != nil && t.Status == types.StatusOpen {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *RedisStore) OpenTradesBy(ctx context.Context, table, symbol, timeframe string, side types.Side) ([]*types.Trade, error) {
	all, err := r.OpenTrades(ctx, table, symbol)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Trade, 0, len(all))
	for _, t := range all {
		if t.Timeframe == timeframe && t.Side == side {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpdateLastPrice tracks price and unrealized PnL on an open trade. A
// trade closed by a concurrent pass is left untouched so its realized PnL
// survives.
func (r *RedisStore) UpdateLastPrice(ctx context.Context, table, tradeID string, ltp, pnl float64) error {
	return r.update(ctx, table, tradeID, func(t *types.Trade) bool {
		if t.Status != types.StatusOpen {
			return false
		}
		t.LTP = ltp
		t.PnL = pnl
		return true
	})
}

func (r *RedisStore) CloseTrade(ctx context.Context, table, tradeID string, exitPrice float64, exitTs int64, pnl float64) error {
	mu := r.lockFor(table, tradeID)
	mu.Lock()
	defer mu.Unlock()

	t, err := r.load(ctx, table, tradeID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("trade %s not found", tradeID)
	}
	if t.Status != types.StatusOpen {
		return fmt.Errorf("trade %s is not open", tradeID)
	}
	t.Status = types.StatusClosed
	t.ExitPrice = exitPrice
	t.ExitTs = exitTs
	t.PnL = pnl
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tradeKey(table, tradeID), b, 0)
	pipe.SRem(ctx, openKey(table, t.Symbol), tradeID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) AppendComment(ctx context.Context, table, tradeID, comment string) error {
	return r.update(ctx, table, tradeID, func(t *types.Trade) bool {
		t.Comments = append(t.Comments, comment)
		return true
	})
}

func (r *RedisStore) load(ctx context.Context, table, id string) (*types.Trade, error) {
	b, err := r.client.Get(ctx, tradeKey(table, id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var t types.Trade
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode trade %s: %w", id, err)
	}
	return &t, nil
}

// update runs one locked load-mutate-set cycle. mutate returns false to
// skip the write, leaving the stored document as-is.
func (r *RedisStore) update(ctx context.Context, table, id string, mutate func(*types.Trade) bool) error {
	mu := r.lockFor(table, id)
	mu.Lock()
	defer mu.Unlock()

	t, err := r.load(ctx, table, id)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("trade %s not found", id)
	}
	if !mutate(t) {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, tradeKey(table, id), b, 0).Err()
}
