package ratelimit

import (
	"context"
	"sync"
)

// Registry hands out one shared limiter per key. Keys without an explicit
// rate get the default rate.
type Registry struct {
	mu          sync.Mutex
	limiters    map[string]*Limiter
	rates       map[string]float64
	defaultRate float64
}

// NewRegistry creates a registry. rates overrides defaultRate per key.
func NewRegistry(defaultRate float64, rates map[string]float64) *Registry {
	r := &Registry{
		limiters:    make(map[string]*Limiter),
		rates:       make(map[string]float64, len(rates)),
		defaultRate: defaultRate,
	}
	for k, v := range rates {
		r.rates[k] = v
	}
	return r
}

// For returns the limiter for key, creating it on first use.
func (r *Registry) For(key string) *Limiter {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	rps, ok := r.rates[key]
	if !ok {
		rps = r.defaultRate
	}
	l := New(key, rps)
	r.limiters[key] = l
	return l
}

// Wait blocks on the limiter for key. An empty key is not limited.
func (r *Registry) Wait(ctx context.Context, key string) error {
	if r == nil || key == "" {
		return ctx.Err()
	}
	return r.For(key).Wait(ctx)
}
