// File: facade/typepool.go
// Unified facade layer for the typepool library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the Runtime struct, which aggregates the core
// components of the library behind a single facade: the pool registry,
// the object manager, the control surface, structured logging, and the
// optional Prometheus collector. Configuration is immutable per run
// except for the keys exposed through the Control interface.

package facade

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/momentics/typepool/adapters"
	"github.com/momentics/typepool/api"
	"github.com/momentics/typepool/control"
	"github.com/momentics/typepool/manager"
	"github.com/momentics/typepool/pool"
)

// Config holds parameters immutable per run.
type Config struct {
	InitialSlots    int     // Slot count of each pool's first slab
	GrowthFactor    float64 // Geometric slab growth factor
	GrowthCap       int     // Maximum slots added per growth event
	Alignment       uintptr // Slot alignment override, 0 for natural
	PreferOffHeap   bool    // Place pointer-free types off-heap when possible
	DebugTracking   bool    // Enable per-slot liveness tracking
	EnableMetrics   bool    // Register the Prometheus pool collector
	EnableDebug     bool    // Register default debug probes
	JournalCapacity int     // Bound of the debug event journal, 0 for default
	Logger          *zap.Logger
}

// DefaultConfig returns default configuration values.
// These sane defaults support typical use cases without extensive tuning.
func DefaultConfig() *Config {
	return &Config{
		InitialSlots:    64,      // One cache-friendly starter slab
		GrowthFactor:    2.0,     // Double on each growth event
		GrowthCap:       1 << 16, // Cap a single slab at 65536 slots
		PreferOffHeap:   true,    // Off-heap slabs for pointer-free types
		DebugTracking:   false,   // Tracking bitmap costs one CAS per op
		EnableMetrics:   true,    // Enable built-in metrics
		EnableDebug:     true,    // Enable debug probes
		JournalCapacity: control.DefaultJournalCapacity,
	}
}

// Runtime is the main facade type. It owns a registry, an object
// manager over it, and the control plane observing both.
type Runtime struct {
	registry *pool.Registry
	manager  *manager.Manager
	control  *adapters.ControlAdapter
	log      *zap.Logger

	config  *Config
	mu      sync.RWMutex
	started bool
}

// New constructs a Runtime with the given configuration. It wires the
// pool event stream into the control journal and, when metrics are
// enabled, registers the pool collector with the default Prometheus
// registerer.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		var err error
		log, err = zap.NewProduction()
		if err != nil {
			return nil, err
		}
	}
	r := &Runtime{config: cfg, log: log}

	poolCfg := pool.Config{
		InitialSlots:  cfg.InitialSlots,
		GrowthFactor:  cfg.GrowthFactor,
		GrowthCap:     cfg.GrowthCap,
		Alignment:     cfg.Alignment,
		PreferOffHeap: cfg.PreferOffHeap,
		DebugTracking: cfg.DebugTracking,
		Logger:        log,
	}
	r.control = adapters.NewControlAdapter(nil, cfg.JournalCapacity)
	poolCfg.OnEvent = r.control.RecordEvent
	r.registry = pool.NewRegistry(poolCfg)
	r.control.BindRegistry(r.registry)
	r.manager = manager.New(r.registry)

	if cfg.EnableDebug {
		r.control.RegisterDebugProbe("config", func() any {
			return r.control.GetConfig()
		})
	}

	r.control.SetConfig(map[string]any{
		control.KeyInitialSlots:  cfg.InitialSlots,
		control.KeyGrowthFactor:  cfg.GrowthFactor,
		control.KeyGrowthCap:     cfg.GrowthCap,
		control.KeyPreferOffHeap: cfg.PreferOffHeap,
		control.KeyDebugTracking: cfg.DebugTracking,
	})

	return r, nil
}

// Start registers the Prometheus collector when metrics are enabled.
// Subsequent calls to Start() have no effect.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if r.config.EnableMetrics {
		collector := control.NewPoolCollector(r.registry)
		if err := prometheus.Register(collector); err != nil {
			// Re-registration after a restart in the same process is
			// tolerated; anything else is reported.
			if _, dup := err.(prometheus.AlreadyRegisteredError); !dup {
				return err
			}
		}
	}
	r.started = true
	r.log.Info("runtime started",
		zap.Bool("metrics", r.config.EnableMetrics),
		zap.Bool("debug_tracking", r.config.DebugTracking))
	return nil
}

// Stop closes all pools and marks the facade as not started. Calling
// Stop() on a non-started Runtime is a no-op.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil
	}
	err := r.registry.Close()
	r.started = false
	r.log.Info("runtime stopped")
	return err
}

// Shutdown delegates to Stop().
func (r *Runtime) Shutdown() error {
	return r.Stop()
}

// GetControl returns the Control interface for dynamic config and metrics.
func (r *Runtime) GetControl() api.Control {
	return r.control
}

// GetRegistry returns the pool registry.
func (r *Runtime) GetRegistry() *pool.Registry {
	return r.registry
}

// GetManager returns the object manager bound to this runtime's pools.
func (r *Runtime) GetManager() *manager.Manager {
	return r.manager
}

// Logger returns the runtime's structured logger.
func (r *Runtime) Logger() *zap.Logger {
	return r.log
}

// PoolStats snapshots statistics for every registered pool.
func (r *Runtime) PoolStats() []api.PoolStats {
	return r.registry.Stats()
}
