// Package provider defines the identity-lookup sources the waterfall queries
// and an ordered registry of them.
package provider

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/matchrate/internal/model"
)

// ErrUnknownSource is returned when a configured source has no provider.
var ErrUnknownSource = eris.New("unknown source")

// Family groups providers by how they are reached.
type Family string

const (
	// FamilyHTTP providers make one networked JSON call per number.
	FamilyHTTP Family = "http"
	// FamilyKV providers query an internal key-value cache.
	FamilyKV Family = "kv"
)

// Provider looks a single number up and classifies the answer. Lookup never
// returns an error: transport problems come back as a Failed outcome.
type Provider interface {
	// Name returns the source name (matches the configured source list).
	Name() string
	// Family reports how the provider is reached.
	Family() Family
	// Lookup queries the vendor for number.
	Lookup(ctx context.Context, number model.PhoneNumber) model.Outcome
}

// ConfidenceReporter is implemented by providers whose outcomes may carry a
// confidence value.
type ConfidenceReporter interface {
	ReportsConfidence() bool
}

// LatencyTracker is implemented by providers that want call durations recorded.
type LatencyTracker interface {
	TrackLatency() bool
}

// ReportsConfidence reports whether p produces a confidence column.
func ReportsConfidence(p Provider) bool {
	cr, ok := p.(ConfidenceReporter)
	return ok && cr.ReportsConfidence()
}

// TracksLatency reports whether call durations for p should be recorded.
func TracksLatency(p Provider) bool {
	lt, ok := p.(LatencyTracker)
	return ok && lt.TrackLatency()
}

// Registry holds providers in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider. Re-registering a name replaces the provider but
// keeps its original position.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns the registered provider names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Select returns the providers for names, in the order given.
func (r *Registry) Select(names []string) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, ok := r.providers[name]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownSource, "provider: %s", name)
		}
		out = append(out, p)
	}
	return out, nil
}
