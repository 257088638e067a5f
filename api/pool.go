// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Untyped pool surfaces: per-type allocation pools and their accounting.

package api

// Pool is the type-erased view of a per-type object pool. The typed
// acquire/release surface lives on the concrete generic pool; this view
// is what registries, controls and metric collectors operate on.
type Pool interface {
	// SlotSize returns the byte size of one slot, including any
	// alignment padding applied at pool construction.
	SlotSize() uintptr

	// Capacity returns the total number of slots across all slabs.
	Capacity() int64

	// Live returns the number of slots currently handed out.
	Live() int64

	// Stats exposes resource/accounting metrics for observability.
	Stats() PoolStats
}

// PoolStats aggregates per-pool allocation and helping counters.
type PoolStats struct {
	Type      string
	SlotSize  uintptr
	Acquires  uint64
	Releases  uint64
	Live      int64
	Capacity  int64
	FreeSlots int64
	Growths   uint64
	HelpedOps uint64
	OffHeap   bool
}

// Registry is the process-wide table routing a type to its pool.
type Registry interface {
	// Pools snapshots the currently registered pools.
	Pools() []Pool

	// Stats aggregates stats across all registered pools.
	Stats() []PoolStats
}
