package strategy

// PeriodVariants builds one config per period from a template, varying the
// period of every condition whose indicator matches. The template is never
// mutated; each variant is an independent clone.
func PeriodVariants(template *StrategyConfig, indicator Indicator, periods []int) []*StrategyConfig {
	out := make([]*StrategyConfig, 0, len(periods))
	for _, p := range periods {
		v := template.Clone()
		for gi := range v.Rules {
			for ci := range v.Rules[gi].Conditions {
				if v.Rules[gi].Conditions[ci].Indicator == indicator {
					v.Rules[gi].Conditions[ci].Period = p
				}
			}
		}
		out = append(out, v)
	}
	return out
}

// ThresholdVariants builds one config per threshold value, varying the
// comparison value of every condition matching the indicator and operator.
func ThresholdVariants(template *StrategyConfig, indicator Indicator, op Operator, values []float64) []*StrategyConfig {
	out := make([]*StrategyConfig, 0, len(values))
	for _, val := range values {
		v := template.Clone()
		for gi := range v.Rules {
			for ci := range v.Rules[gi].Conditions {
				cond := &v.Rules[gi].Conditions[ci]
				if cond.Indicator == indicator && cond.Operator == op && !cond.SignalLine {
					cond.Value = val
				}
			}
		}
		out = append(out, v)
	}
	return out
}
