// File: pool/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "go.uber.org/zap"

// Config holds per-pool parameters, immutable once a pool is created.
type Config struct {
	InitialSlots  int     // slot count of the first slab
	GrowthFactor  float64 // geometric slab growth
	GrowthCap     int     // max slots per slab
	Alignment     uintptr // slot alignment override; 0 = natural
	PreferOffHeap bool    // request OS-mapped slabs for pointer-free types
	DebugTracking bool    // live bitmap catching double-release and foreign pointers

	// Logger receives cold-path events only: pool creation, slab
	// growth, detected contract violations. Nil means no logging.
	Logger *zap.Logger

	// OnEvent, when set, is invoked on the same cold-path events so an
	// embedder can journal them. Never called on acquire/release.
	OnEvent func(kind, typeName, detail string)
}

// DefaultConfig returns configuration values that suit typical
// allocation-heavy workloads without tuning.
func DefaultConfig() Config {
	return Config{
		InitialSlots:  64,      // one cache-friendly starter slab
		GrowthFactor:  2.0,     // double each growth event
		GrowthCap:     1 << 16, // 65536 slots per slab at most
		PreferOffHeap: true,    // map pointer-free slabs off-heap
	}
}

func (c Config) withDefaults() Config {
	if c.InitialSlots <= 0 {
		c.InitialSlots = DefaultConfig().InitialSlots
	}
	if c.GrowthFactor <= 1.0 {
		c.GrowthFactor = DefaultConfig().GrowthFactor
	}
	if c.GrowthCap <= 0 {
		c.GrowthCap = DefaultConfig().GrowthCap
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
