// File: control/control_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/momentics/typepool/api"
	"github.com/momentics/typepool/control"
)

func TestConfigStoreTypedAccessors(t *testing.T) {
	cs := control.NewConfigStore(map[string]any{
		control.KeyInitialSlots:  64,
		control.KeyGrowthFactor:  2.0,
		control.KeyDebugTracking: true,
	})
	if got := cs.Int(control.KeyInitialSlots, 0); got != 64 {
		t.Errorf("Int = %d, want 64", got)
	}
	if got := cs.Float(control.KeyGrowthFactor, 0); got != 2.0 {
		t.Errorf("Float = %g, want 2.0", got)
	}
	if !cs.Bool(control.KeyDebugTracking, false) {
		t.Error("Bool = false, want true")
	}
	if got := cs.Int("missing", 7); got != 7 {
		t.Errorf("missing key default = %d, want 7", got)
	}
}

func TestConfigStoreReloadListeners(t *testing.T) {
	cs := control.NewConfigStore(nil)
	calls := 0
	cs.OnReload(func() { calls++ })
	cs.SetConfig(map[string]any{"a": 1})
	cs.SetConfig(map[string]any{"b": 2})
	if calls != 2 {
		t.Fatalf("listener calls = %d, want 2", calls)
	}
	snap := cs.GetSnapshot()
	if snap["a"] != 1 || snap["b"] != 2 {
		t.Fatalf("merge lost values: %v", snap)
	}
}

func TestJournalBound(t *testing.T) {
	j := control.NewJournal(3)
	for i := 0; i < 5; i++ {
		j.Record("growth", "x", "")
	}
	if j.Len() != 3 {
		t.Fatalf("Len = %d, want 3", j.Len())
	}
	if j.Dropped() != 2 {
		t.Fatalf("Dropped = %d, want 2", j.Dropped())
	}
	events := j.Snapshot()
	if len(events) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(events))
	}
	for _, ev := range events {
		if ev.Kind != "growth" || ev.Unix == 0 {
			t.Fatalf("malformed event: %+v", ev)
		}
	}
}

func TestMetricsRegistryFoldsStats(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.UpdateFromStats([]api.PoolStats{
		{Type: "a.T", Live: 3, Capacity: 8, Acquires: 10, Releases: 7},
		{Type: "b.U", Live: 1, Capacity: 4, Acquires: 2, Releases: 1},
	})
	snap := mr.GetSnapshot()
	if snap["pool.a.T.live"] != int64(3) {
		t.Errorf("per-pool live = %v", snap["pool.a.T.live"])
	}
	if snap["pools.live"] != int64(4) {
		t.Errorf("total live = %v", snap["pools.live"])
	}
	if snap["pools.count"] != int64(2) {
		t.Errorf("pool count = %v", snap["pools.count"])
	}
	if mr.UpdatedAt().IsZero() {
		t.Error("UpdatedAt not set")
	}
}

// staticRegistry feeds the collector a fixed stats snapshot.
type staticRegistry struct {
	stats []api.PoolStats
}

func (s *staticRegistry) Pools() []api.Pool      { return nil }
func (s *staticRegistry) Stats() []api.PoolStats { return s.stats }

func TestPoolCollectorExportsSeries(t *testing.T) {
	reg := &staticRegistry{stats: []api.PoolStats{
		{Type: "a.T", Live: 3, Capacity: 8, FreeSlots: 5, Acquires: 10, Releases: 7, Growths: 2},
		{Type: "b.U", Live: 1, Capacity: 4, FreeSlots: 3, Acquires: 2, Releases: 1, Growths: 1},
	}}
	c := control.NewPoolCollector(reg)
	// 7 series per pool, 2 pools.
	if got := testutil.CollectAndCount(c); got != 14 {
		t.Fatalf("collected %d series, want 14", got)
	}
}
