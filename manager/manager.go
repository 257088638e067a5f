// File: manager/manager.go
// Package manager is the type-safe entry point over the per-type
// pools: construct-in-slot on create, finalize-and-reclaim on destroy.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package manager

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/momentics/typepool/api"
	"github.com/momentics/typepool/pool"
)

// Disposable lets a pooled type hook its own teardown; Destroy calls
// Dispose before the slot is reclaimed when no finalizer is
// registered for the type.
type Disposable interface {
	Dispose()
}

// Manager routes typed create/destroy calls to the registry's pools.
type Manager struct {
	reg *pool.Registry

	finMu      sync.RWMutex
	finalizers map[reflect.Type]any // func(*T)
}

// New creates a manager over reg.
func New(reg *pool.Registry) *Manager {
	return &Manager{
		reg:        reg,
		finalizers: make(map[reflect.Type]any),
	}
}

// NewDefault creates a manager over the process-wide default registry.
func NewDefault() *Manager {
	return New(pool.DefaultRegistry())
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *pool.Registry { return m.reg }

// RegisterFinalizer installs fn to run inside Destroy for every object
// of type T, replacing any previous registration.
func RegisterFinalizer[T any](m *Manager, fn func(*T)) {
	m.finMu.Lock()
	m.finalizers[reflect.TypeFor[T]()] = fn
	m.finMu.Unlock()
}

func finalizerFor[T any](m *Manager) (func(*T), bool) {
	m.finMu.RLock()
	fn, ok := m.finalizers[reflect.TypeFor[T]()]
	m.finMu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn.(func(*T)), true
}

// Create acquires a zeroed slot for T and constructs the object in
// place by running init on it. If init fails the slot is returned to
// the free list before the error propagates, so a failed construction
// never leaks a slot.
func Create[T any](m *Manager, init func(*T) error) (*T, error) {
	p := pool.For[T](m.reg)
	ptr, err := p.Acquire()
	if err != nil {
		return nil, err
	}
	if init != nil {
		if err := init(ptr); err != nil {
			p.Release(ptr)
			return nil, fmt.Errorf("construction of %T failed: %w", ptr, err)
		}
	}
	return ptr, nil
}

// CreateValue acquires a slot for T and copies v into it.
func CreateValue[T any](m *Manager, v T) (*T, error) {
	ptr, err := Create[T](m, nil)
	if err != nil {
		return nil, err
	}
	*ptr = v
	return ptr, nil
}

// Destroy finalizes ptr and returns its slot to the pool. ptr must
// have been produced by Create on this manager's registry and not
// already destroyed.
func Destroy[T any](m *Manager, ptr *T) {
	if fn, ok := finalizerFor[T](m); ok {
		fn(ptr)
	} else if d, ok := any(ptr).(Disposable); ok {
		d.Dispose()
	}
	pool.For[T](m.reg).Release(ptr)
}

// PoolStats returns the stats of T's pool without creating it as a
// side effect of a stats read.
func PoolStats[T any](m *Manager) (api.PoolStats, bool) {
	t := reflect.TypeFor[T]()
	for _, s := range m.reg.Stats() {
		if s.Type == t.String() {
			return s, true
		}
	}
	return api.PoolStats{}, false
}
