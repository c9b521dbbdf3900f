// Package strategy holds the declarative strategy model and the compilers
// that turn it into executable entry/exit predicates.
package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrUnknownOperator  = errors.New("unknown operator")
)

type Indicator string

const (
	IndicatorRSI      Indicator = "RSI"
	IndicatorEMA      Indicator = "EMA"
	IndicatorEMACross Indicator = "EMA_CROSS"
	IndicatorMACD     Indicator = "MACD"
)

type Operator string

const (
	OperatorLT        Operator = "LT"
	OperatorGT        Operator = "GT"
	OperatorCrossUp   Operator = "CROSS_UP"
	OperatorCrossDown Operator = "CROSS_DOWN"
)

// Default parameters applied when a condition omits them.
const (
	DefaultRSIPeriod  = 14
	DefaultEMAPeriod  = 21
	DefaultCrossFast  = 9
	DefaultCrossSlow  = 21
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// Condition is a single indicator comparison. The wire-format `value` field
// is either a number (threshold) or the string "signal_line"; both forms are
// resolved here, at the parse boundary, so evaluation never re-interprets
// strings.
type Condition struct {
	Indicator  Indicator
	Operator   Operator
	Value      float64
	SignalLine bool
	Period     int
	Fast       int
	Slow       int
	Signal     int
}

type conditionWire struct {
	Indicator string          `json:"indicator"`
	Operator  string          `json:"operator"`
	Value     json.RawMessage `json:"value,omitempty"`
	Period    int             `json:"period,omitempty"`
	Fast      int             `json:"fast,omitempty"`
	Slow      int             `json:"slow,omitempty"`
	Signal    int             `json:"signal,omitempty"`
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	var w conditionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch Indicator(w.Indicator) {
	case IndicatorRSI, IndicatorEMA, IndicatorEMACross, IndicatorMACD:
		c.Indicator = Indicator(w.Indicator)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIndicator, w.Indicator)
	}
	switch Operator(w.Operator) {
	case OperatorLT, OperatorGT, OperatorCrossUp, OperatorCrossDown:
		c.Operator = Operator(w.Operator)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperator, w.Operator)
	}
	if len(w.Value) > 0 {
		var num float64
		if err := json.Unmarshal(w.Value, &num); err == nil {
			c.Value = num
		} else {
			var str string
			if err := json.Unmarshal(w.Value, &str); err != nil {
				return fmt.Errorf("condition value must be a number or \"signal_line\": %s", w.Value)
			}
			if str != "signal_line" {
				return fmt.Errorf("unsupported condition value %q", str)
			}
			c.SignalLine = true
		}
	}
	c.Period, c.Fast, c.Slow, c.Signal = w.Period, w.Fast, w.Slow, w.Signal
	if c.Fast > 0 && c.Slow > 0 && c.Fast >= c.Slow {
		return fmt.Errorf("fast period %d must be less than slow period %d", c.Fast, c.Slow)
	}
	// a single explicit period must also respect the pair once defaults fill
	// in the other side
	if c.Indicator == IndicatorEMACross || c.Indicator == IndicatorMACD || c.SignalLine {
		if fast, slow := c.fastSlow(); fast >= slow {
			return fmt.Errorf("fast period %d must be less than slow period %d", fast, slow)
		}
	}
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	w := conditionWire{
		Indicator: string(c.Indicator),
		Operator:  string(c.Operator),
		Period:    c.Period,
		Fast:      c.Fast,
		Slow:      c.Slow,
		Signal:    c.Signal,
	}
	if c.SignalLine {
		w.Value, _ = json.Marshal("signal_line")
	} else {
		w.Value, _ = json.Marshal(c.Value)
	}
	return json.Marshal(w)
}

func (c Condition) period() int {
	if c.Period > 0 {
		return c.Period
	}
	if c.Indicator == IndicatorRSI {
		return DefaultRSIPeriod
	}
	return DefaultEMAPeriod
}

func (c Condition) fastSlow() (int, int) {
	fast, slow := c.Fast, c.Slow
	if c.Indicator == IndicatorMACD || c.SignalLine {
		if fast <= 0 {
			fast = DefaultMACDFast
		}
		if slow <= 0 {
			slow = DefaultMACDSlow
		}
		return fast, slow
	}
	if fast <= 0 {
		fast = DefaultCrossFast
	}
	if slow <= 0 {
		slow = DefaultCrossSlow
	}
	return fast, slow
}

func (c Condition) signalPeriod() int {
	if c.Signal > 0 {
		return c.Signal
	}
	return DefaultMACDSignal
}

// RuleGroup is an AND of conditions plus optional stop/target overrides.
// When more than one override method is present, percent wins over points,
// and points win over ATR multiplier.
type RuleGroup struct {
	Action                  string      `json:"action"`
	Conditions              []Condition `json:"conditions"`
	StopLossPercent         float64     `json:"stopLossPercent,omitempty"`
	TakeProfitPercent       float64     `json:"takeProfitPercent,omitempty"`
	StopLossPoints          float64     `json:"stopLossPoints,omitempty"`
	TakeProfitPoints        float64     `json:"takeProfitPoints,omitempty"`
	StopLossAtrMultiplier   float64     `json:"stopLossAtrMultiplier,omitempty"`
	TakeProfitAtrMultiplier float64     `json:"takeProfitAtrMultiplier,omitempty"`
}

type StrategyConfig struct {
	Name      string      `json:"name,omitempty"`
	Symbol    string      `json:"symbol,omitempty"`
	Timeframe string      `json:"timeframe,omitempty"`
	Rules     []RuleGroup `json:"rules"`
}

// Clone returns a value-equal, reference-independent copy.
func (sc *StrategyConfig) Clone() *StrategyConfig {
	out := &StrategyConfig{Name: sc.Name, Symbol: sc.Symbol, Timeframe: sc.Timeframe}
	out.Rules = make([]RuleGroup, len(sc.Rules))
	for i, g := range sc.Rules {
		ng := g
		ng.Conditions = make([]Condition, len(g.Conditions))
		copy(ng.Conditions, g.Conditions)
		out.Rules[i] = ng
	}
	return out
}

// ParseConfigs deserializes a strategy configuration blob. Both a single
// object and an array of objects are accepted; an empty blob parses to an
// empty list.
func ParseConfigs(raw []byte) ([]*StrategyConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []*StrategyConfig
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var one StrategyConfig
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("parse strategy config: %w", err)
	}
	return []*StrategyConfig{&one}, nil
}
