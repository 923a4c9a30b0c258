package breaker

import (
	"sync"
)

// Group owns one breaker per named external dependency, created lazily with
// a shared config. Reusing the group guarantees callers never construct a
// fresh breaker per call, which would defeat the breaker entirely.
type Group struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates a breaker group with the given shared config.
func NewGroup(cfg Config) *Group {
	return &Group{
		cfg:      cfg,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for the named dependency, creating it on first
// use. The config was validated when the group's first breaker was built;
// an invalid config surfaces here as an error.
func (g *Group) Get(name string) (*Breaker, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[name]; ok {
		return b, nil
	}
	b, err := New(name, g.cfg)
	if err != nil {
		return nil, err
	}
	g.breakers[name] = b
	return b, nil
}

// Metrics returns snapshots for every breaker in the group.
func (g *Group) Metrics() map[string]Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]Metrics, len(g.breakers))
	for name, b := range g.breakers {
		out[name] = b.Metrics()
	}
	return out
}
