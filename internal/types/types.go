package types

import "fmt"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type TradeStatus string

const (
	StatusOpen      TradeStatus = "OPEN"
	StatusClosed    TradeStatus = "CLOSED"
	StatusCancelled TradeStatus = "CANCELLED"
)

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Signal is the immutable outcome of one strategy evaluation.
type Signal struct {
	ID              string  `json:"id"`
	Symbol          string  `json:"symbol"`
	Side            Side    `json:"side"`
	EntryPrice      float64 `json:"entry_price"`
	StopLoss        float64 `json:"stop_loss"`
	Target          float64 `json:"target"`
	StopLossPercent float64 `json:"stop_loss_percent"`
	TargetPercent   float64 `json:"target_percent"`
	Timeframe       string  `json:"timeframe"`
	Confidence      float64 `json:"confidence"`
	Score           float64 `json:"score"`
	Ts              int64   `json:"ts"`
	Strategy        string  `json:"strategy"`
}

// Message renders the signal as a human-readable summary, used for trade
// comments and outbound notifications.
func (s Signal) Message() string {
	return fmt.Sprintf(
		"Signal %s\nSymbol: %s\nSide: %s\nTimeframe: %s\nEntry: %.2f\nSL: %.2f\nTarget: %.2f\nConfidence: %.2f\nScore: %.2f\nStrategy: %s",
		s.ID, s.Symbol, s.Side, s.Timeframe, s.EntryPrice, s.StopLoss, s.Target, s.Confidence, s.Score, s.Strategy,
	)
}

type Trade struct {
	TradeID    string      `json:"trade_id"`
	Symbol     string      `json:"symbol"`
	Side       Side        `json:"side"`
	Timeframe  string      `json:"timeframe"`
	EntryPrice float64     `json:"entry_price"`
	StopLoss   float64     `json:"stop_loss"`
	Target     float64     `json:"target"`
	Quantity   float64     `json:"quantity"`
	EntryTs    int64       `json:"entry_ts"`
	ExitPrice  float64     `json:"exit_price,omitempty"`
	ExitTs     int64       `json:"exit_ts,omitempty"`
	LTP        float64     `json:"ltp"`
	PnL        float64     `json:"pnl"`
	Status     TradeStatus `json:"status"`
	Comments   []string    `json:"comments,omitempty"`
	Analysis   string      `json:"analysis,omitempty"`
}

// WatchlistEntry is one symbol to scan, optionally carrying the strategy
// configuration previously selected for it.
type WatchlistEntry struct {
	Symbol       string `json:"symbol"`
	StrategyJSON []byte `json:"strategy_json,omitempty"`
}
