package facade_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/momentics/typepool/control"
	"github.com/momentics/typepool/facade"
	"github.com/momentics/typepool/manager"
	"github.com/momentics/typepool/pool"
)

type widget struct {
	ID    int64
	Score float64
}

// Test the full lifecycle: construction, object round-trip through the
// manager, stats exposure via Control, and shutdown.
func TestRuntimeFullLifecycle(t *testing.T) {
	cfg := facade.DefaultConfig()
	cfg.InitialSlots = 8
	cfg.EnableMetrics = false
	cfg.Logger = zap.NewNop()
	r, err := facade.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	m := r.GetManager()
	w, err := manager.Create[widget](m, func(w *widget) error {
		w.ID = 7
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if w.ID != 7 {
		t.Fatalf("init not applied: ID=%d", w.ID)
	}
	stats := r.PoolStats()
	if len(stats) != 1 || stats[0].Live != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	manager.Destroy[widget](m, w)

	ctrl := r.GetControl()
	snap := ctrl.Stats()
	if _, ok := snap["debug.pools"]; !ok {
		t.Error("pools probe missing from control stats")
	}
	if got := ctrl.GetConfig()[control.KeyInitialSlots]; got != 8 {
		t.Errorf("config key not exposed: %v", got)
	}
	if err := r.Shutdown(); err != nil {
		t.Error(err)
	}
}

func TestRuntimeStartIdempotent(t *testing.T) {
	cfg := facade.DefaultConfig()
	cfg.EnableMetrics = false
	cfg.Logger = zap.NewNop()
	r, err := facade.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestRuntimeGrowthEventsReachJournal(t *testing.T) {
	cfg := facade.DefaultConfig()
	cfg.InitialSlots = 2
	cfg.EnableMetrics = false
	cfg.Logger = zap.NewNop()
	r, err := facade.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	p := pool.For[widget](r.GetRegistry())
	var held []*widget
	for i := 0; i < 5; i++ {
		w, err := p.Acquire()
		if err != nil {
			t.Fatal(err)
		}
		held = append(held, w)
	}
	for _, w := range held {
		p.Release(w)
	}
	found := false
	for _, ev := range journalOf(r).Snapshot() {
		if ev.Kind == "growth" {
			found = true
		}
	}
	if !found {
		t.Error("no growth event recorded in journal")
	}
}

func journalOf(r *facade.Runtime) *control.Journal {
	type journaled interface{ Journal() *control.Journal }
	return r.GetControl().(journaled).Journal()
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typepool.yaml")
	data := []byte("initial_slots: 32\ngrowth_factor: 1.5\ndebug_tracking: true\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := facade.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InitialSlots != 32 {
		t.Errorf("InitialSlots = %d, want 32", cfg.InitialSlots)
	}
	if cfg.GrowthFactor != 1.5 {
		t.Errorf("GrowthFactor = %g, want 1.5", cfg.GrowthFactor)
	}
	if !cfg.DebugTracking {
		t.Error("DebugTracking not decoded")
	}
	if !cfg.PreferOffHeap {
		t.Error("default PreferOffHeap lost during merge")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typepool.yaml")
	if err := os.WriteFile(path, []byte("growth_factor: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := facade.LoadConfig(path); err == nil {
		t.Fatal("expected error for growth_factor < 1.0")
	}

	if err := os.WriteFile(path, []byte("alignment: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := facade.LoadConfig(path); err == nil {
		t.Fatal("expected error for non-power-of-two alignment")
	}
	if err := os.WriteFile(path, []byte("alignment: 8192\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := facade.LoadConfig(path); err == nil {
		t.Fatal("expected error for alignment above the page size")
	}
}
