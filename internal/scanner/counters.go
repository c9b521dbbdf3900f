package scanner

import (
	"sync"

	"strategy-scanner/internal/metrics"
)

// failureCounters tracks consecutive terminal fetch failures per data
// source. Owned by the scanner instance, safe for concurrent use.
type failureCounters struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFailureCounters() *failureCounters {
	return &failureCounters{counts: make(map[string]int)}
}

// inc records a terminal failure and returns the new consecutive count.
func (f *failureCounters) inc(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[source]++
	n := f.counts[source]
	metrics.ConsecutiveFailures.WithLabelValues(source).Set(float64(n))
	return n
}

// reset clears the counter for a source after any success.
func (f *failureCounters) reset(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[source] != 0 {
		f.counts[source] = 0
		metrics.ConsecutiveFailures.WithLabelValues(source).Set(0)
	}
}

func (f *failureCounters) get(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[source]
}
