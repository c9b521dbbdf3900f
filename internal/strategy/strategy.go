package strategy

import (
	"errors"
	"fmt"

	"strategy-scanner/internal/series"
)

// Strategy is the compiled form of a StrategyConfig: one entry predicate
// OR-combined across BUY groups and one exit predicate OR-combined across
// SELL groups.
type Strategy struct {
	Entry Predicate
	Exit  Predicate
}

func never(int) bool { return false }

// Compile builds a Strategy against a bar series. A group with no
// conditions compiles to an always-false predicate so a sparse config can
// never open trades unconditionally. A group whose condition fails to
// compile is excluded; the error is returned alongside the (still usable)
// strategy so callers can log it without losing the remaining groups.
func Compile(cfg *StrategyConfig, s *series.Series) (*Strategy, error) {
	var entries, exits []Predicate
	var errs []error
	for gi, g := range cfg.Rules {
		pred, err := compileGroup(g, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule group %d: %w", gi, err))
			continue
		}
		switch g.Action {
		case "BUY":
			entries = append(entries, pred)
		case "SELL":
			exits = append(exits, pred)
		default:
			errs = append(errs, fmt.Errorf("rule group %d: unknown action %q", gi, g.Action))
		}
	}
	return &Strategy{Entry: anyOf(entries), Exit: anyOf(exits)}, errors.Join(errs...)
}

func compileGroup(g RuleGroup, s *series.Series) (Predicate, error) {
	if len(g.Conditions) == 0 {
		return never, nil
	}
	preds := make([]Predicate, 0, len(g.Conditions))
	for _, c := range g.Conditions {
		p, err := CompileRule(c, s)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return func(i int) bool {
		for _, p := range preds {
			if !p(i) {
				return false
			}
		}
		return true
	}, nil
}

func anyOf(preds []Predicate) Predicate {
	if len(preds) == 0 {
		return never
	}
	return func(i int) bool {
		for _, p := range preds {
			if p(i) {
				return true
			}
		}
		return false
	}
}
