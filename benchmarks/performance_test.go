// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for typepool components.

package benchmarks

import (
	"sync/atomic"
	"testing"

	"github.com/momentics/typepool/core/freelist"
	"github.com/momentics/typepool/manager"
	"github.com/momentics/typepool/pool"
)

type payload struct {
	ID   int64
	Data [48]byte
}

func benchConfig() pool.Config {
	cfg := pool.DefaultConfig()
	cfg.InitialSlots = 1 << 12
	return cfg
}

// BenchmarkAcquireRelease measures the uncontended fast path.
func BenchmarkAcquireRelease(b *testing.B) {
	p := pool.NewTypePool[payload](benchConfig())
	defer p.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr, err := p.Acquire()
		if err != nil {
			b.Fatal(err)
		}
		p.Release(ptr)
	}
}

// BenchmarkAcquireReleaseParallel measures head contention across
// GOMAXPROCS goroutines.
func BenchmarkAcquireReleaseParallel(b *testing.B) {
	p := pool.NewTypePool[payload](benchConfig())
	defer p.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ptr, err := p.Acquire()
			if err != nil {
				b.Error(err)
				return
			}
			p.Release(ptr)
		}
	})
}

// BenchmarkAcquireReleaseTracked shows the cost of the debug bitmap.
func BenchmarkAcquireReleaseTracked(b *testing.B) {
	cfg := benchConfig()
	cfg.DebugTracking = true
	p := pool.NewTypePool[payload](cfg)
	defer p.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr, err := p.Acquire()
		if err != nil {
			b.Fatal(err)
		}
		p.Release(ptr)
	}
}

// BenchmarkManagerCreateDestroy includes construction and finalization
// overhead on top of the raw pool cycle.
func BenchmarkManagerCreateDestroy(b *testing.B) {
	m := manager.New(pool.NewRegistry(benchConfig()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr, err := manager.Create[payload](m, func(p *payload) error {
			p.ID = int64(i)
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
		manager.Destroy[payload](m, ptr)
	}
}

// BenchmarkNewBaseline is the garbage-collected allocation the pool is
// measured against.
func BenchmarkNewBaseline(b *testing.B) {
	var sink *payload
	for i := 0; i < b.N; i++ {
		sink = new(payload)
		sink.ID = int64(i)
	}
	_ = sink
}

type refTable struct {
	links []atomic.Uint64
}

func (t *refTable) Link(ref freelist.Ref) *atomic.Uint64 {
	return &t.links[ref]
}

// BenchmarkFreeListCycle isolates the head CAS loop from slab
// addressing.
func BenchmarkFreeListCycle(b *testing.B) {
	tbl := &refTable{links: make([]atomic.Uint64, 1024)}
	f := freelist.New(tbl)
	for i := 0; i < 1024; i++ {
		f.Give(freelist.Ref(i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ref, ok := f.Take()
			if !ok {
				continue
			}
			f.Give(ref)
		}
	})
}
