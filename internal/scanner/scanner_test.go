package scanner

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"strategy-scanner/internal/engine"
	"strategy-scanner/internal/risk"
	"strategy-scanner/internal/tradestore"
	"strategy-scanner/internal/types"
	"strategy-scanner/internal/watchlist"
)

type fakeMarket struct {
	mu       sync.Mutex
	calls    int
	failures int
	candles  []types.Candle
}

func (f *fakeMarket) Candles(ctx context.Context, symbol, timeframe string, count int, historical bool) ([]types.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("upstream unavailable")
	}
	return f.candles, nil
}

func (f *fakeMarket) Source() string { return "FAKE" }

func (f *fakeMarket) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Send(ctx context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

type fakeAnalyst struct{}

func (fakeAnalyst) Analyze(ctx context.Context, message string) (string, error) {
	return "looks fine", nil
}

func fallingCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		c := float64(200 - i)
		out[i] = types.Candle{Ts: int64(i) * 300, Open: c + 1, High: c + 1, Low: c - 1, Close: c, Vol: 10}
	}
	return out
}

const oversoldBlob = `{"name":"rsi-dip","rules":[{"action":"BUY","conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]}`

func newTestScanner(t *testing.T, market *fakeMarket, store *tradestore.MemoryStore, blob []byte) (*Scanner, *fakeNotifier, *watchlist.StaticWatchlist) {
	t.Helper()
	watch := watchlist.NewStatic([]string{"RELIANCE"}, blob)
	notifier := &fakeNotifier{}
	cfg := Config{
		Timeframes:       []TimeframeSpec{{Code: "5m", Count: 20}},
		MaxRetries:       3,
		Parallelism:      1,
		TradesTable:      "paper_trades",
		FailureThreshold: 3,
		ShutdownTimeout:  5 * time.Second,
	}
	s := New(cfg, Deps{
		Market:    market,
		Trades:    store,
		Watchlist: watch,
		Notifier:  notifier,
		Analyst:   fakeAnalyst{},
		Engine:    engine.New(risk.DefaultParams()),
	})
	return s, notifier, watch
}

func openTrades(t *testing.T, store *tradestore.MemoryStore) []*types.Trade {
	t.Helper()
	open, err := store.OpenTrades(context.Background(), "paper_trades", "RELIANCE")
	if err != nil {
		t.Fatal(err)
	}
	return open
}

func TestParseTimeframes(t *testing.T) {
	specs, err := ParseTimeframes("5m:120, 1h:200")
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[0].Code != "5m" || specs[0].Count != 120 || specs[1].Code != "1h" || specs[1].Count != 200 {
		t.Errorf("unexpected specs %+v", specs)
	}
}

func TestParseTimeframesErrors(t *testing.T) {
	for _, spec := range []string{"", "5m", "5x:100", "5m:0", "5m:abc", ",,"} {
		if _, err := ParseTimeframes(spec); err == nil {
			t.Errorf("spec %q should fail", spec)
		}
	}
}

func TestScanOpensTradeOnSignal(t *testing.T) {
	market := &fakeMarket{candles: fallingCandles(20)}
	store := tradestore.NewMemoryStore()
	s, notifier, _ := newTestScanner(t, market, store, []byte(oversoldBlob))

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	open := openTrades(t, store)
	if len(open) != 1 {
		t.Fatalf("got %d open trades, want 1", len(open))
	}
	tr := open[0]
	if tr.Side != types.SideBuy || tr.EntryPrice != 181 || tr.Quantity != 1 {
		t.Errorf("unexpected trade %+v", tr)
	}
	if tr.Analysis != "looks fine" {
		t.Errorf("analysis = %q, want analyst output attached", tr.Analysis)
	}
	if msgs := notifier.sent(); len(msgs) != 1 || !strings.Contains(msgs[0], "RELIANCE") {
		t.Errorf("expected one signal notification, got %v", msgs)
	}
}

func TestScanRetriesThenSucceeds(t *testing.T) {
	market := &fakeMarket{candles: fallingCandles(20), failures: 2}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, []byte(oversoldBlob))

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := market.callCount(); got != 3 {
		t.Errorf("fetch attempts = %d, want 3", got)
	}
	if open := openTrades(t, store); len(open) != 1 {
		t.Errorf("got %d open trades, want 1 after retried fetch", len(open))
	}
	if n := s.failures.get("FAKE"); n != 0 {
		t.Errorf("consecutive failures = %d, want 0 after success", n)
	}
}

func TestScanRetriesExhausted(t *testing.T) {
	market := &fakeMarket{candles: fallingCandles(20), failures: 10}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, []byte(oversoldBlob))

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := market.callCount(); got != 3 {
		t.Errorf("fetch attempts = %d, want bounded at 3", got)
	}
	if open := openTrades(t, store); len(open) != 0 {
		t.Errorf("got %d open trades, want none", len(open))
	}
	if n := s.failures.get("FAKE"); n != 1 {
		t.Errorf("consecutive failures = %d, want 1", n)
	}

	// a later successful cycle resets the counter
	market.mu.Lock()
	market.failures = 0
	market.calls = 0
	market.mu.Unlock()
	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := s.failures.get("FAKE"); n != 0 {
		t.Errorf("consecutive failures = %d, want reset to 0", n)
	}
}

func TestScanDuplicateSignalAppendsComment(t *testing.T) {
	market := &fakeMarket{candles: fallingCandles(20)}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, []byte(oversoldBlob))

	for i := 0; i < 2; i++ {
		if err := s.Scan(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	open := openTrades(t, store)
	if len(open) != 1 {
		t.Fatalf("got %d open trades, want deduplicated single trade", len(open))
	}
	if len(open[0].Comments) != 1 {
		t.Errorf("got %d comments, want repeat signal recorded as one comment", len(open[0].Comments))
	}
}

func TestMonitorClosesAtTarget(t *testing.T) {
	market := &fakeMarket{candles: []types.Candle{
		{Ts: 0, Open: 100, High: 101, Low: 99, Close: 100, Vol: 1},
		{Ts: 300, Open: 100, High: 107, Low: 100, Close: 106, Vol: 1},
	}}
	store := tradestore.NewMemoryStore()
	s, notifier, _ := newTestScanner(t, market, store, nil)

	seed := &types.Trade{
		TradeID: "t1", Symbol: "RELIANCE", Side: types.SideBuy, Timeframe: "5m",
		EntryPrice: 100, StopLoss: 95, Target: 105, Quantity: 1, Status: types.StatusOpen,
	}
	if err := store.Insert(context.Background(), "paper_trades", seed); err != nil {
		t.Fatal(err)
	}

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	tr, ok := store.Get("paper_trades", "t1")
	if !ok {
		t.Fatal("trade vanished")
	}
	if tr.Status != types.StatusClosed {
		t.Fatalf("status = %s, want CLOSED past the target", tr.Status)
	}
	if tr.ExitPrice != 105 || tr.PnL != 5 {
		t.Errorf("exit = %v pnl = %v, want close at the target level", tr.ExitPrice, tr.PnL)
	}
	if msgs := notifier.sent(); len(msgs) != 1 || !strings.Contains(msgs[0], "target") {
		t.Errorf("expected a close notification, got %v", msgs)
	}

	// the closed trade must not be reopened or re-closed by the next cycle
	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if open := openTrades(t, store); len(open) != 0 {
		t.Errorf("got %d open trades after close, want 0", len(open))
	}
	if msgs := notifier.sent(); len(msgs) != 1 {
		t.Errorf("close should notify exactly once, got %d messages", len(msgs))
	}
}

func TestMonitorClosesAtStop(t *testing.T) {
	market := &fakeMarket{candles: []types.Candle{
		{Ts: 0, Open: 100, High: 101, Low: 99, Close: 100, Vol: 1},
		{Ts: 300, Open: 100, High: 100, Low: 93, Close: 94, Vol: 1},
	}}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, nil)

	seed := &types.Trade{
		TradeID: "t1", Symbol: "RELIANCE", Side: types.SideBuy, Timeframe: "5m",
		EntryPrice: 100, StopLoss: 95, Target: 105, Quantity: 2, Status: types.StatusOpen,
	}
	if err := store.Insert(context.Background(), "paper_trades", seed); err != nil {
		t.Fatal(err)
	}
	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	tr, _ := store.Get("paper_trades", "t1")
	if tr.Status != types.StatusClosed || tr.ExitPrice != 95 {
		t.Fatalf("trade = %+v, want closed at the stop", tr)
	}
	if tr.PnL != -10 {
		t.Errorf("pnl = %v, want -10 for quantity 2", tr.PnL)
	}
}

func TestMonitorIgnoresUnsetLevels(t *testing.T) {
	market := &fakeMarket{candles: []types.Candle{
		{Ts: 0, Open: 100, High: 101, Low: 99, Close: 100, Vol: 1},
		{Ts: 300, Open: 100, High: 120, Low: 80, Close: 90, Vol: 1},
	}}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, nil)

	seed := &types.Trade{
		TradeID: "t1", Symbol: "RELIANCE", Side: types.SideBuy, Timeframe: "5m",
		EntryPrice: 100, StopLoss: math.NaN(), Target: math.NaN(), Quantity: 1, Status: types.StatusOpen,
	}
	if err := store.Insert(context.Background(), "paper_trades", seed); err != nil {
		t.Fatal(err)
	}
	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	tr, _ := store.Get("paper_trades", "t1")
	if tr.Status != types.StatusOpen {
		t.Fatalf("status = %s, want still open with NaN levels", tr.Status)
	}
	if tr.LTP != 90 || tr.PnL != -10 {
		t.Errorf("ltp/pnl = %v/%v, want price tracking to continue", tr.LTP, tr.PnL)
	}
}

func TestExitSignalClosesOpenLong(t *testing.T) {
	blob := `{"name":"rsi-exit","rules":[{"action":"SELL","conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]}`
	market := &fakeMarket{candles: fallingCandles(20)}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, []byte(blob))

	seed := &types.Trade{
		TradeID: "t1", Symbol: "RELIANCE", Side: types.SideBuy, Timeframe: "5m",
		EntryPrice: 200, Quantity: 1, Status: types.StatusOpen,
	}
	if err := store.Insert(context.Background(), "paper_trades", seed); err != nil {
		t.Fatal(err)
	}
	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	tr, _ := store.Get("paper_trades", "t1")
	if tr.Status != types.StatusClosed {
		t.Fatalf("status = %s, want closed on exit signal", tr.Status)
	}
	if tr.ExitPrice != 181 || tr.PnL != -19 {
		t.Errorf("exit/pnl = %v/%v, want close at the signal price", tr.ExitPrice, tr.PnL)
	}
}

func TestExitSignalWithoutOpenTradeIsNoOp(t *testing.T) {
	blob := `{"name":"rsi-exit","rules":[{"action":"SELL","conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]}`
	market := &fakeMarket{candles: fallingCandles(20)}
	store := tradestore.NewMemoryStore()
	s, notifier, _ := newTestScanner(t, market, store, []byte(blob))

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if open := openTrades(t, store); len(open) != 0 {
		t.Errorf("exit signal must not open trades, got %d", len(open))
	}
	if msgs := notifier.sent(); len(msgs) != 0 {
		t.Errorf("expected silence, got %v", msgs)
	}
}

func TestBestScoredSignalWins(t *testing.T) {
	blob := `[
		{"name":"narrow","rules":[{"action":"BUY","stopLossPercent":2,"takeProfitPercent":4,"conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]},
		{"name":"wide","rules":[{"action":"BUY","stopLossPercent":2,"takeProfitPercent":8,"conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]}
	]`
	market := &fakeMarket{candles: fallingCandles(20)}
	store := tradestore.NewMemoryStore()
	s, _, watch := newTestScanner(t, market, store, []byte(blob))

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	open := openTrades(t, store)
	if len(open) != 1 {
		t.Fatalf("got %d open trades, want exactly one for the best signal", len(open))
	}
	if want := 181 * 1.08; math.Abs(open[0].Target-want) > 1e-9 {
		t.Errorf("target = %v, want %v from the higher-scored strategy", open[0].Target, want)
	}

	entries, err := watch.Entries(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(entries[0].StrategyJSON), `"name":"wide"`) {
		t.Error("winning strategy was not persisted back to the watchlist")
	}
}

func TestEqualScoresFirstSeenWins(t *testing.T) {
	blob := `[
		{"name":"first","rules":[{"action":"BUY","stopLossPercent":2,"takeProfitPercent":4,"conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]},
		{"name":"second","rules":[{"action":"BUY","stopLossPercent":2,"takeProfitPercent":4,"conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]}
	]`
	market := &fakeMarket{candles: fallingCandles(20)}
	store := tradestore.NewMemoryStore()
	s, _, watch := newTestScanner(t, market, store, []byte(blob))

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	entries, err := watch.Entries(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(entries[0].StrategyJSON), `"name":"first"`) {
		t.Error("tie must be broken in favor of the first-seen signal")
	}
}

func TestScanEmptyCandlesSkipsPass(t *testing.T) {
	market := &fakeMarket{candles: nil}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, []byte(oversoldBlob))

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if open := openTrades(t, store); len(open) != 0 {
		t.Errorf("empty candle set should produce no trades, got %d", len(open))
	}
	if n := s.failures.get("FAKE"); n != 0 {
		t.Errorf("empty data is not a failure, counter = %d", n)
	}
}

func TestFailureCounters(t *testing.T) {
	f := newFailureCounters()
	if f.inc("A") != 1 || f.inc("A") != 2 {
		t.Error("inc should count consecutively")
	}
	if f.inc("B") != 1 {
		t.Error("counters are per source")
	}
	f.reset("A")
	if f.get("A") != 0 || f.get("B") != 1 {
		t.Error("reset must only touch its source")
	}
}

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	p := newWorkerPool(4)
	var mu sync.Mutex
	done := make(map[int]bool)
	for i := 0; i < 32; i++ {
		i := i
		p.submit(func() {
			mu.Lock()
			done[i] = true
			mu.Unlock()
		})
	}
	p.shutdown(context.Background(), 5*time.Second)
	if len(done) != 32 {
		t.Fatalf("ran %d tasks, want 32", len(done))
	}
	for i := 0; i < 32; i++ {
		if !done[i] {
			t.Errorf("task %d never ran", i)
		}
	}
}

func TestScanMultipleTimeframes(t *testing.T) {
	market := &fakeMarket{candles: fallingCandles(20)}
	store := tradestore.NewMemoryStore()
	s, _, _ := newTestScanner(t, market, store, []byte(oversoldBlob))
	s.cfg.Timeframes = []TimeframeSpec{{Code: "5m", Count: 20}, {Code: "1h", Count: 20}}

	if err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	var total int
	for _, tf := range []string{"5m", "1h"} {
		open, err := store.OpenTradesBy(context.Background(), "paper_trades", "RELIANCE", tf, types.SideBuy)
		if err != nil {
			t.Fatal(err)
		}
		if len(open) != 1 {
			t.Errorf("timeframe %s: got %d open trades, want 1", tf, len(open))
		}
		total += len(open)
	}
	if total != 2 {
		t.Errorf("trades are keyed per timeframe, got %d total", total)
	}
}
