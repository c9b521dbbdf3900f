package scanner

import (
	"fmt"
	"strconv"
	"strings"

	"strategy-scanner/internal/series"
)

// TimeframeSpec is one parsed element of the scan specification string:
// the timeframe code and how many candles to fetch for it.
type TimeframeSpec struct {
	Code  string
	Count int
}

// ParseTimeframes parses a spec string of the form "5m:120,1h:200". The
// timeframe code must be a valid bar duration; parsing fails fast so a bad
// spec is a config error, not a per-pass one.
func ParseTimeframes(spec string) ([]TimeframeSpec, error) {
	parts := strings.Split(spec, ",")
	out := make([]TimeframeSpec, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, countStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("timeframe spec %q: expected <code>:<count>", part)
		}
		if _, err := series.BarDuration(code); err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("timeframe spec %q: bad candle count", part)
		}
		out = append(out, TimeframeSpec{Code: code, Count: count})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("timeframe spec %q: no entries", spec)
	}
	return out, nil
}
