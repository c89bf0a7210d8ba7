package waterfall

import (
	"math"
	"sync"
)

// Latency collects per-source call durations in seconds. Safe for concurrent use.
type Latency struct {
	mu      sync.Mutex
	samples map[string][]float64
}

// NewLatency creates an empty sample set.
func NewLatency() *Latency {
	return &Latency{samples: make(map[string][]float64)}
}

// Record appends a sample for source.
func (l *Latency) Record(source string, seconds float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples[source] = append(l.samples[source], seconds)
}

// Mean returns the average sample for source, or NaN when there are none.
func (l *Latency) Mean(source string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.samples[source]
	if len(s) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Samples returns a copy of the samples recorded for source.
func (l *Latency) Samples(source string) []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, len(l.samples[source]))
	copy(out, l.samples[source])
	return out
}
