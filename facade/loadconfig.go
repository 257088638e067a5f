// File: facade/loadconfig.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// File-based configuration loading. Values may come from a YAML, JSON,
// or TOML file and can be overridden with TYPEPOOL_* environment
// variables (dots replaced by underscores).

package facade

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// fileConfig mirrors Config with mapstructure tags for decoding.
type fileConfig struct {
	InitialSlots    int     `mapstructure:"initial_slots"`
	GrowthFactor    float64 `mapstructure:"growth_factor"`
	GrowthCap       int     `mapstructure:"growth_cap"`
	Alignment       uint64  `mapstructure:"alignment"`
	PreferOffHeap   bool    `mapstructure:"prefer_off_heap"`
	DebugTracking   bool    `mapstructure:"debug_tracking"`
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	EnableDebug     bool    `mapstructure:"enable_debug"`
	JournalCapacity int     `mapstructure:"journal_capacity"`
}

// LoadConfig reads a configuration file and merges it over defaults.
// An empty path returns DefaultConfig with only environment overrides
// applied.
func LoadConfig(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("initial_slots", def.InitialSlots)
	v.SetDefault("growth_factor", def.GrowthFactor)
	v.SetDefault("growth_cap", def.GrowthCap)
	v.SetDefault("alignment", 0)
	v.SetDefault("prefer_off_heap", def.PreferOffHeap)
	v.SetDefault("debug_tracking", def.DebugTracking)
	v.SetDefault("enable_metrics", def.EnableMetrics)
	v.SetDefault("enable_debug", def.EnableDebug)
	v.SetDefault("journal_capacity", def.JournalCapacity)

	v.SetEnvPrefix("TYPEPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if fc.InitialSlots <= 0 {
		return nil, fmt.Errorf("initial_slots must be positive, got %d", fc.InitialSlots)
	}
	if fc.GrowthFactor < 1.0 {
		return nil, fmt.Errorf("growth_factor must be >= 1.0, got %g", fc.GrowthFactor)
	}
	if fc.Alignment != 0 && (fc.Alignment&(fc.Alignment-1) != 0 || fc.Alignment > 4096) {
		return nil, fmt.Errorf("alignment must be a power of two <= 4096, got %d", fc.Alignment)
	}

	return &Config{
		InitialSlots:    fc.InitialSlots,
		GrowthFactor:    fc.GrowthFactor,
		GrowthCap:       fc.GrowthCap,
		Alignment:       uintptr(fc.Alignment),
		PreferOffHeap:   fc.PreferOffHeap,
		DebugTracking:   fc.DebugTracking,
		EnableMetrics:   fc.EnableMetrics,
		EnableDebug:     fc.EnableDebug,
		JournalCapacity: fc.JournalCapacity,
	}, nil
}
