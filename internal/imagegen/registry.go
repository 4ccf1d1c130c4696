package imagegen

import (
	"time"
)

// Registry maps request provider names to generators and their race
// deadlines.
type Registry struct {
	generators map[string]Generator
	timeouts   map[string]time.Duration
	fallback   string
}

// NewRegistry creates a registry whose unknown or empty names resolve to
// fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		timeouts:   make(map[string]time.Duration),
		fallback:   fallback,
	}
}

// Register adds g under g.Name() with the deadline used when racing it.
func (r *Registry) Register(g Generator, timeout time.Duration) *Registry {
	r.generators[g.Name()] = g
	r.timeouts[g.Name()] = timeout
	return r
}

// Lookup returns the generator and deadline for name. The generator is nil
// when neither name nor the fallback is registered; Race treats that as
// not configured.
func (r *Registry) Lookup(name string) (Generator, time.Duration) {
	if g, ok := r.generators[name]; ok {
		return g, r.timeouts[name]
	}
	return r.generators[r.fallback], r.timeouts[r.fallback]
}

// Resolve returns the provider name Lookup would use for name.
func (r *Registry) Resolve(name string) string {
	if _, ok := r.generators[name]; ok {
		return name
	}
	return r.fallback
}

// Names lists the registered providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for n := range r.generators {
		names = append(names, n)
	}
	return names
}
