// File: control/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread-safe configuration store with dynamic update and hot-reload
// propagation. Pools read tuning keys through the typed accessors;
// writers merge partial maps and every merge notifies listeners.

package control

import "sync"

// Well-known configuration keys for pool tuning.
const (
	KeyInitialSlots  = "pool.initial_slots"
	KeyGrowthFactor  = "pool.growth_factor"
	KeyGrowthCap     = "pool.growth_cap"
	KeyPreferOffHeap = "pool.prefer_off_heap"
	KeyDebugTracking = "pool.debug_tracking"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and
// listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a config store seeded with values.
func NewConfigStore(seed map[string]any) *ConfigStore {
	cfg := make(map[string]any, len(seed))
	for k, v := range seed {
		cfg[k] = v
	}
	return &ConfigStore{config: cfg}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// SetConfig merges new values and dispatches reload listeners.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// OnReload registers a listener hook called after each merge.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	cs.listeners = append(cs.listeners, fn)
	cs.mu.Unlock()
}

// Int returns the key as an int, or def when missing or mistyped.
func (cs *ConfigStore) Int(key string, def int) int {
	cs.mu.RLock()
	v, ok := cs.config[key]
	cs.mu.RUnlock()
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Float returns the key as a float64, or def when missing or mistyped.
func (cs *ConfigStore) Float(key string, def float64) float64 {
	cs.mu.RLock()
	v, ok := cs.config[key]
	cs.mu.RUnlock()
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Bool returns the key as a bool, or def when missing or mistyped.
func (cs *ConfigStore) Bool(key string, def bool) bool {
	cs.mu.RLock()
	v, ok := cs.config[key]
	cs.mu.RUnlock()
	if b, isBool := v.(bool); ok && isBool {
		return b
	}
	return def
}
