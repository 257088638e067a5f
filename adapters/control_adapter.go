// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control over the control package
// primitives, bound to a pool registry for metric refresh.

package adapters

import (
	"github.com/momentics/typepool/api"
	"github.com/momentics/typepool/control"
)

type ControlAdapter struct {
	registry api.Registry
	config   *control.ConfigStore
	metrics  *control.MetricsRegistry
	debug    *control.DebugProbes
	journal  *control.Journal
}

var _ api.Control = (*ControlAdapter)(nil)

// NewControlAdapter wires the control primitives together. The
// registry may be nil when no pools should be observed; journal
// capacity 0 selects the default bound.
func NewControlAdapter(registry api.Registry, journalCap int) *ControlAdapter {
	a := &ControlAdapter{
		registry: registry,
		config:   control.NewConfigStore(nil),
		metrics:  control.NewMetricsRegistry(),
		debug:    control.NewDebugProbes(),
		journal:  control.NewJournal(journalCap),
	}
	a.debug.RegisterProbe("journal", func() any {
		return a.journal.Snapshot()
	})
	if registry != nil {
		a.BindRegistry(registry)
	}
	return a
}

// BindRegistry attaches a registry after construction. Needed when the
// adapter must exist before the registry, as the pool event callback
// is part of the registry's configuration.
func (c *ControlAdapter) BindRegistry(registry api.Registry) {
	c.registry = registry
	c.debug.RegisterProbe("pools", func() any {
		return registry.Stats()
	})
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats refreshes pool metrics from the registry, then returns the
// combined metric and probe snapshot.
func (c *ControlAdapter) Stats() map[string]any {
	if c.registry != nil {
		c.metrics.UpdateFromStats(c.registry.Stats())
	}
	combined := c.metrics.GetSnapshot()
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// RecordEvent appends a cold-path event to the journal. Suitable as a
// pool OnEvent callback.
func (c *ControlAdapter) RecordEvent(kind, typeName, detail string) {
	c.journal.Record(kind, typeName, detail)
}

// Journal exposes the underlying event journal.
func (c *ControlAdapter) Journal() *control.Journal {
	return c.journal
}

// Config exposes the underlying config store for typed reads.
func (c *ControlAdapter) Config() *control.ConfigStore {
	return c.config
}
