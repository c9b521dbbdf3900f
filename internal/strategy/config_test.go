package strategy

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestConditionUnmarshalNumericValue(t *testing.T) {
	var c Condition
	raw := `{"indicator":"RSI","operator":"LT","value":30,"period":7}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatal(err)
	}
	if c.Indicator != IndicatorRSI || c.Operator != OperatorLT {
		t.Errorf("unexpected condition %+v", c)
	}
	if c.Value != 30 || c.SignalLine {
		t.Errorf("value = %v signalLine = %v, want 30/false", c.Value, c.SignalLine)
	}
	if c.Period != 7 {
		t.Errorf("period = %d, want 7", c.Period)
	}
}

func TestConditionUnmarshalSignalLine(t *testing.T) {
	var c Condition
	raw := `{"indicator":"MACD","operator":"CROSS_UP","value":"signal_line"}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatal(err)
	}
	if !c.SignalLine {
		t.Error("signal_line value not recognized")
	}
	fast, slow := c.fastSlow()
	if fast != DefaultMACDFast || slow != DefaultMACDSlow {
		t.Errorf("fast/slow = %d/%d, want MACD defaults", fast, slow)
	}
	if c.signalPeriod() != DefaultMACDSignal {
		t.Errorf("signal period = %d, want %d", c.signalPeriod(), DefaultMACDSignal)
	}
}

func TestConditionUnmarshalErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"unknown indicator", `{"indicator":"VWAP","operator":"LT","value":1}`, ErrUnknownIndicator},
		{"unknown operator", `{"indicator":"RSI","operator":"EQ","value":1}`, ErrUnknownOperator},
	}
	for _, tc := range cases {
		var c Condition
		err := json.Unmarshal([]byte(tc.raw), &c)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	var c Condition
	if err := json.Unmarshal([]byte(`{"indicator":"EMA_CROSS","operator":"CROSS_UP","fast":21,"slow":9}`), &c); err == nil {
		t.Error("fast >= slow should be rejected")
	}
	if err := json.Unmarshal([]byte(`{"indicator":"RSI","operator":"LT","value":"midline"}`), &c); err == nil {
		t.Error("unsupported string value should be rejected")
	}
}

func TestConditionFastSlowDefaultsValidated(t *testing.T) {
	var c Condition
	if err := json.Unmarshal([]byte(`{"indicator":"EMA_CROSS","operator":"CROSS_UP","fast":25}`), &c); err == nil {
		t.Error("explicit fast above the default slow should be rejected")
	}
	if err := json.Unmarshal([]byte(`{"indicator":"MACD","operator":"CROSS_UP","value":"signal_line","slow":10}`), &c); err == nil {
		t.Error("explicit slow below the default fast should be rejected")
	}
	if err := json.Unmarshal([]byte(`{"indicator":"EMA_CROSS","operator":"CROSS_UP","fast":5}`), &c); err != nil {
		t.Errorf("fast 5 against the default slow should parse: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"indicator":"MACD","operator":"CROSS_UP","value":"signal_line","fast":30}`), &c); err == nil {
		t.Error("explicit fast above the default MACD slow should be rejected")
	}
}

func TestConditionMarshalRoundTrip(t *testing.T) {
	in := Condition{Indicator: IndicatorMACD, Operator: OperatorCrossDown, SignalLine: true, Fast: 5, Slow: 15, Signal: 4}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Condition
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestParseConfigsShapes(t *testing.T) {
	cfgs, err := ParseConfigs(nil)
	if err != nil || cfgs != nil {
		t.Fatalf("empty blob: got %v, %v", cfgs, err)
	}

	single := `{"name":"rsi-dip","rules":[{"action":"BUY","conditions":[{"indicator":"RSI","operator":"LT","value":30}]}]}`
	cfgs, err = ParseConfigs([]byte(single))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfgs) != 1 || cfgs[0].Name != "rsi-dip" {
		t.Fatalf("single object parse: got %d configs", len(cfgs))
	}

	arr := `[` + single + `,{"name":"second","rules":[]}]`
	cfgs, err = ParseConfigs([]byte(arr))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfgs) != 2 || cfgs[1].Name != "second" {
		t.Fatalf("array parse: got %d configs", len(cfgs))
	}

	if _, err := ParseConfigs([]byte(`{"rules":`)); err == nil {
		t.Error("malformed JSON should error")
	}
}

func TestCloneIndependence(t *testing.T) {
	orig := &StrategyConfig{
		Name: "base",
		Rules: []RuleGroup{{
			Action:     "BUY",
			Conditions: []Condition{{Indicator: IndicatorRSI, Operator: OperatorLT, Value: 30}},
		}},
	}
	cl := orig.Clone()
	cl.Rules[0].Conditions[0].Value = 25
	cl.Rules[0].Action = "SELL"
	if orig.Rules[0].Conditions[0].Value != 30 || orig.Rules[0].Action != "BUY" {
		t.Error("clone shares state with the original")
	}
}

func TestPeriodVariants(t *testing.T) {
	tmpl := &StrategyConfig{Rules: []RuleGroup{{
		Action: "BUY",
		Conditions: []Condition{
			{Indicator: IndicatorRSI, Operator: OperatorLT, Value: 30},
			{Indicator: IndicatorEMA, Operator: OperatorGT, Value: 0},
		},
	}}}
	variants := PeriodVariants(tmpl, IndicatorRSI, []int{7, 14, 21})
	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(variants))
	}
	for i, p := range []int{7, 14, 21} {
		if got := variants[i].Rules[0].Conditions[0].Period; got != p {
			t.Errorf("variant %d RSI period = %d, want %d", i, got, p)
		}
		if got := variants[i].Rules[0].Conditions[1].Period; got != 0 {
			t.Errorf("variant %d EMA period mutated to %d", i, got)
		}
	}
	if tmpl.Rules[0].Conditions[0].Period != 0 {
		t.Error("template mutated")
	}
}

func TestThresholdVariants(t *testing.T) {
	tmpl := &StrategyConfig{Rules: []RuleGroup{{
		Action:     "BUY",
		Conditions: []Condition{{Indicator: IndicatorRSI, Operator: OperatorLT, Value: 30}},
	}}}
	variants := ThresholdVariants(tmpl, IndicatorRSI, OperatorLT, []float64{20, 25})
	if len(variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(variants))
	}
	if variants[0].Rules[0].Conditions[0].Value != 20 || variants[1].Rules[0].Conditions[0].Value != 25 {
		t.Error("threshold values not applied")
	}
	if tmpl.Rules[0].Conditions[0].Value != 30 {
		t.Error("template mutated")
	}
}
