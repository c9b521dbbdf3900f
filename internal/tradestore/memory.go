// Package tradestore persists trades for the scan driver.
package tradestore

import (
	"context"
	"fmt"
	"sync"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/types"
)

// MemoryStore keeps trades in process memory, partitioned by table name.
// Used by tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]*types.Trade
}

var _ interfaces.TradeStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]*types.Trade)}
}

func (m *MemoryStore) table(name string) map[string]*types.Trade {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]*types.Trade)
		m.tables[name] = t
	}
	return t
}

func (m *MemoryStore) Insert(ctx context.Context, table string, t *types.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.table(table)[t.TradeID] = &cp
	return nil
}

func (m *MemoryStore) OpenTrades(ctx context.Context, table, symbol string) ([]*types.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Trade
	for _, t := range m.tables[table] {
		if t.Status == types.StatusOpen && t.Symbol == symbol {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) OpenTradesBy(ctx context.Context, table, symbol, timeframe string, side types.Side) ([]*types.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Trade
	for _, t := range m.tables[table] {
		if t.Status == types.StatusOpen && t.Symbol == symbol && t.Timeframe == timeframe && t.Side == side {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateLastPrice tracks price and unrealized PnL on an open trade. A
// trade closed by a concurrent pass is left untouched so its realized PnL
// survives.
func (m *MemoryStore) UpdateLastPrice(ctx context.Context, table, tradeID string, ltp, pnl float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table][tradeID]
	if !ok {
		return fmt.Errorf("trade %s not found", tradeID)
	}
	if t.Status != types.StatusOpen {
		return nil
	}
	t.LTP = ltp
	t.PnL = pnl
	return nil
}

func (m *MemoryStore) CloseTrade(ctx context.Context, table, tradeID string, exitPrice float64, exitTs int64, pnl float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table][tradeID]
	if !ok {
		return fmt.Errorf("trade %s not found", tradeID)
	}
	if t.Status != types.StatusOpen {
		return fmt.Errorf("trade %s is not open", tradeID)
	}
	t.Status = types.StatusClosed
	t.ExitPrice = exitPrice
	t.ExitTs = exitTs
	t.PnL = pnl
	return nil
}

func (m *MemoryStore) AppendComment(ctx context.Context, table, tradeID, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table][tradeID]
	if !ok {
		return fmt.Errorf("trade %s not found", tradeID)
	}
	t.Comments = append(t.Comments, comment)
	return nil
}

// Get returns a copy of one trade, for tests and inspection.
func (m *MemoryStore) Get(table, tradeID string) (*types.Trade, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table][tradeID]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}
