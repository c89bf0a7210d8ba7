package waterfall

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rotisserie/eris"

	"github.com/sells-group/matchrate/internal/model"
)

// Metrics holds the run's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	latency    *prometheus.HistogramVec
	outcomes   *prometheus.CounterVec
	candidates *prometheus.GaugeVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchrate",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of a single vendor lookup.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"source"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchrate",
			Name:      "lookup_outcomes_total",
			Help:      "Lookup outcomes by source and code.",
		}, []string{"source", "code"}),
		candidates: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matchrate",
			Name:      "stage_candidates",
			Help:      "Numbers handed to a source.",
		}, []string{"source"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveLatency records one call duration.
func (m *Metrics) ObserveLatency(source string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(source).Observe(seconds)
}

// IncOutcome counts one classified outcome.
func (m *Metrics) IncOutcome(source string, code model.OutcomeCode) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(source, string(code)).Inc()
}

// SetCandidates records the candidate set size for a stage.
func (m *Metrics) SetCandidates(source string, n int) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(source).Set(float64(n))
}

// Push sends the collected metrics to a Pushgateway under job, grouped by
// the given labels.
func (m *Metrics) Push(url, job string, grouping map[string]string) error {
	if m == nil {
		return nil
	}
	p := push.New(url, job).Gatherer(m.registry)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	return eris.Wrap(p.Push(), "waterfall: push metrics")
}
