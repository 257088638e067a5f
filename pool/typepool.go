// File: pool/typepool.go
// Package pool implements per-type object pools over wait-free free
// lists and append-only slab collections.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/momentics/typepool/api"
	"github.com/momentics/typepool/core/freelist"
	"github.com/momentics/typepool/core/slab"
)

// TypePool hands out and reclaims objects of one concrete type T.
// Acquire and Release are safe for concurrent use from any number of
// goroutines and stay on the free list's wait-free paths; only slab
// growth, a rare amortized event, takes a short-lived lock.
type TypePool[T any] struct {
	cfg      Config
	log      *zap.Logger
	typeName string

	free  *freelist.FreeList
	slabs atomic.Pointer[slabSet[T]]

	growMu  sync.Mutex
	growths atomic.Uint64

	live     atomic.Int64
	capacity atomic.Int64
	acquires atomic.Uint64
	releases atomic.Uint64

	tracker *liveTracker // nil unless DebugTracking
	closed  atomic.Bool
}

// slabSet is the append-only published view of a pool's slabs. bases
// holds the first global ref of each slab; links holds the free-list
// link words, one cell per slot, parallel to the slabs.
type slabSet[T any] struct {
	slabs []*slab.Slab[T]
	links [][]atomic.Uint64
	bases []freelist.Ref
	total freelist.Ref
}

var _ api.Pool = (*TypePool[int])(nil)

// NewTypePool creates an empty pool for T. The first slab is allocated
// lazily on the first Acquire.
func NewTypePool[T any](cfg Config) *TypePool[T] {
	cfg = cfg.withDefaults()
	p := &TypePool[T]{
		cfg: cfg,
		log: cfg.Logger,
		// TypeFor, not TypeOf of a zero value: interface type
		// parameters have a nil zero-value dynamic type.
		typeName: reflect.TypeFor[T]().String(),
	}
	p.slabs.Store(&slabSet[T]{})
	p.free = freelist.New(p)
	if cfg.DebugTracking {
		p.tracker = newLiveTracker()
	}
	return p
}

// Link implements freelist.RefTable. The snapshot walk runs from the
// newest slab backwards because fresh slots dominate traffic.
func (p *TypePool[T]) Link(ref freelist.Ref) *atomic.Uint64 {
	s := p.slabs.Load()
	for i := len(s.bases) - 1; i >= 0; i-- {
		if ref >= s.bases[i] {
			return &s.links[i][ref-s.bases[i]]
		}
	}
	panic(api.NewError(api.ErrCodeInternal,
		fmt.Sprintf("typepool: link lookup for unpublished ref %d", ref)))
}

// Acquire returns a pointer to a zeroed slot, growing the slab
// collection when the free list is drained. The returned object is
// owned by the caller until Release.
func (p *TypePool[T]) Acquire() (*T, error) {
	if p.closed.Load() {
		return nil, api.ErrPoolClosed
	}
	for {
		gen := p.growths.Load()
		if ref, ok := p.free.Take(); ok {
			p.acquires.Add(1)
			p.live.Add(1)
			if p.tracker != nil {
				p.tracker.markLive(p.typeName, ref)
			}
			return p.ptrOf(ref), nil
		}
		if err := p.grow(gen); err != nil {
			return nil, err
		}
	}
}

// Release returns ptr's slot to the free list. ptr must have been
// produced by Acquire on this pool and not yet released; violations
// are fatal when detected (foreign pointers always are, double release
// only under DebugTracking) because continuing would corrupt memory.
func (p *TypePool[T]) Release(ptr *T) {
	ref, ok := p.refOf(ptr)
	if !ok {
		p.violation("release of pointer not owned by this pool")
	}
	if p.tracker != nil {
		if !p.tracker.markFree(ref) {
			p.violation(fmt.Sprintf("double release of slot %d", ref))
		}
	}
	p.zero(ref)
	p.free.Give(ref)
	p.releases.Add(1)
	p.live.Add(-1)
}

// grow allocates, publishes and seeds one new slab. gen is the growth
// generation the caller observed before its failed Take: if another
// thread grew the pool in between, grow is a no-op and the caller
// simply retries its Take against the freshly published slots.
func (p *TypePool[T]) grow(gen uint64) error {
	p.growMu.Lock()
	defer p.growMu.Unlock()
	if p.growths.Load() != gen {
		return nil
	}
	cur := p.slabs.Load()

	count := p.cfg.InitialSlots
	if n := len(cur.slabs); n > 0 {
		count = int(float64(cur.slabs[n-1].Count()) * p.cfg.GrowthFactor)
	}
	if count > p.cfg.GrowthCap {
		count = p.cfg.GrowthCap
	}
	if count < 1 {
		count = 1
	}
	if uint64(cur.total)+uint64(count) >= uint64(freelist.RefEmpty) {
		return api.NewError(api.ErrCodeAllocationFailure,
			"typepool: ref space exhausted").WithContext("type", p.typeName)
	}

	sl, err := slab.New[T](count, p.cfg.Alignment, p.cfg.PreferOffHeap)
	if err != nil {
		return api.NewError(api.ErrCodeAllocationFailure, err.Error()).
			WithContext("type", p.typeName).
			WithContext("slots", count)
	}

	next := &slabSet[T]{
		slabs: append(append([]*slab.Slab[T]{}, cur.slabs...), sl),
		links: append(append([][]atomic.Uint64{}, cur.links...), make([]atomic.Uint64, count)),
		bases: append(append([]freelist.Ref{}, cur.bases...), cur.total),
		total: cur.total + freelist.Ref(count),
	}
	p.slabs.Store(next)
	p.capacity.Add(int64(count))
	if p.tracker != nil {
		p.tracker.extend(int(next.total))
	}
	// Seeding is sequential plain gives; slab creation is the one
	// amortized non-wait-free event in the design.
	for i := 0; i < count; i++ {
		p.free.Give(cur.total + freelist.Ref(i))
	}
	p.growths.Add(1)

	p.log.Info("slab grown",
		zap.String("type", p.typeName),
		zap.Int("slots", count),
		zap.Bool("offheap", sl.OffHeap()),
		zap.Int64("capacity", p.capacity.Load()))
	if p.cfg.OnEvent != nil {
		p.cfg.OnEvent("growth", p.typeName, fmt.Sprintf("slots=%d offheap=%v", count, sl.OffHeap()))
	}
	return nil
}

func (p *TypePool[T]) ptrOf(ref freelist.Ref) *T {
	s := p.slabs.Load()
	for i := len(s.bases) - 1; i >= 0; i-- {
		if ref >= s.bases[i] {
			return s.slabs[i].PtrAt(int(ref - s.bases[i]))
		}
	}
	panic(api.NewError(api.ErrCodeInternal,
		fmt.Sprintf("typepool: unpublished ref %d", ref)))
}

func (p *TypePool[T]) refOf(ptr *T) (freelist.Ref, bool) {
	s := p.slabs.Load()
	for i, sl := range s.slabs {
		if idx, ok := sl.IndexOf(ptr); ok {
			return s.bases[i] + freelist.Ref(idx), true
		}
	}
	return 0, false
}

func (p *TypePool[T]) zero(ref freelist.Ref) {
	s := p.slabs.Load()
	for i := len(s.bases) - 1; i >= 0; i-- {
		if ref >= s.bases[i] {
			s.slabs[i].Zero(int(ref - s.bases[i]))
			return
		}
	}
}

func (p *TypePool[T]) violation(msg string) {
	err := api.NewError(api.ErrCodeContractViolation, "typepool: contract violation: "+msg).
		WithContext("type", p.typeName)
	p.log.Error("contract violation", zap.String("type", p.typeName), zap.String("detail", msg))
	if p.cfg.OnEvent != nil {
		p.cfg.OnEvent("violation", p.typeName, msg)
	}
	panic(err)
}

// SlotSize implements api.Pool.
func (p *TypePool[T]) SlotSize() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// Capacity implements api.Pool.
func (p *TypePool[T]) Capacity() int64 { return p.capacity.Load() }

// Live implements api.Pool.
func (p *TypePool[T]) Live() int64 { return p.live.Load() }

// Growths returns the number of slab growth events so far.
func (p *TypePool[T]) Growths() uint64 { return p.growths.Load() }

// Stats implements api.Pool.
func (p *TypePool[T]) Stats() api.PoolStats {
	s := p.slabs.Load()
	offHeap := len(s.slabs) > 0 && s.slabs[0].OffHeap()
	live := p.live.Load()
	capacity := p.capacity.Load()
	return api.PoolStats{
		Type:      p.typeName,
		SlotSize:  p.SlotSize(),
		Acquires:  p.acquires.Load(),
		Releases:  p.releases.Load(),
		Live:      live,
		Capacity:  capacity,
		FreeSlots: capacity - live,
		Growths:   p.growths.Load(),
		HelpedOps: p.free.Helped(),
		OffHeap:   offHeap,
	}
}

// Close releases OS-mapped slabs. The caller contract mirrors process
// teardown: no object of this pool may still be live.
func (p *TypePool[T]) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	s := p.slabs.Load()
	for _, sl := range s.slabs {
		if err := sl.Close(); err != nil {
			return err
		}
	}
	return nil
}
