// File: pool/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide routing from a concrete type to its pool. Creation is
// double-checked so the read path never blocks and exactly one pool
// exists per type even under concurrent first use.

package pool

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/momentics/typepool/api"
)

// Registry maps a type identity to its pool. One Registry normally
// lives for the whole process; it must outlive every pool, and pools
// must outlive every object they handed out.
type Registry struct {
	mu     sync.RWMutex
	pools  map[reflect.Type]any // *TypePool[T], type-erased for storage
	erased map[reflect.Type]api.Pool
	cfg    Config
	log    *zap.Logger
}

var _ api.Registry = (*Registry)(nil)

// NewRegistry creates a registry whose pools inherit cfg.
func NewRegistry(cfg Config) *Registry {
	cfg = cfg.withDefaults()
	return &Registry{
		pools:  make(map[reflect.Type]any),
		erased: make(map[reflect.Type]api.Pool),
		cfg:    cfg,
		log:    cfg.Logger,
	}
}

// For returns the pool for T, creating it on first use with the
// registry's configuration.
func For[T any](r *Registry) *TypePool[T] {
	return ForWith[T](r, r.cfg)
}

// ForWith returns the pool for T, creating it with cfg on first use.
// A later call with a different cfg returns the existing pool
// unchanged: configuration binds at creation, like any other pool
// identity property.
func ForWith[T any](r *Registry, cfg Config) *TypePool[T] {
	t := reflect.TypeFor[T]()

	r.mu.RLock()
	p, ok := r.pools[t]
	r.mu.RUnlock()
	if ok {
		return p.(*TypePool[T])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[t]; ok {
		return p.(*TypePool[T])
	}
	np := NewTypePool[T](cfg)
	r.pools[t] = np
	r.erased[t] = np
	r.log.Info("type pool created", zap.String("type", t.String()))
	return np
}

// Pools implements api.Registry.
func (r *Registry) Pools() []api.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]api.Pool, 0, len(r.erased))
	for _, p := range r.erased {
		out = append(out, p)
	}
	return out
}

// Stats implements api.Registry.
func (r *Registry) Stats() []api.PoolStats {
	pools := r.Pools()
	out := make([]api.PoolStats, 0, len(pools))
	for _, p := range pools {
		out = append(out, p.Stats())
	}
	return out
}

// Close tears down every pool. Caller contract: no object from any
// pool may still be live.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for t, p := range r.erased {
		if c, ok := p.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				return err
			}
		}
		delete(r.pools, t)
		delete(r.erased, t)
	}
	return nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// DefaultRegistry returns a lazily created process-wide registry so
// independent components share pools instead of fragmenting slabs.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry(DefaultConfig())
	})
	return defaultReg
}
