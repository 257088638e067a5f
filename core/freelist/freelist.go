// File: core/freelist/freelist.go
// Package freelist implements the concurrent free-slot structure shared
// by all slabs of one pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The structure is a LIFO stack of slot references threaded through
// per-slot link words owned by the pool (RefTable). The head is a
// single 64-bit word packing a monotonic generation tag, a mark bit and
// a 32-bit value:
//
//	bits 33..63  tag, incremented on every successful head transition
//	bit  32      mark, set while an operation descriptor is installed
//	bits 0..31   top-of-stack ref, or a descriptor payload when marked
//
// Tags defeat ABA on the head: a compare-and-swap can only succeed if
// no transition happened since the expected word was read. The tag is
// 31 bits wide; a stalled operation would need to sleep across 2^31
// head transitions for a false match, which we treat as impossible
// within the lifetime of any in-flight call.
//
// Operations run a bounded fast path of plain tagged CAS attempts.
// When the bound is exhausted the operation is announced in a fixed
// descriptor table and completed cooperatively: while any announcement
// is outstanding, every thread helps the oldest one to completion
// before attempting its own fast path, and a marked head must be
// resolved by whichever thread observes it before that thread can make
// any transition of its own. Because no thread may run its fast path
// past an outstanding announcement, an announced operation cannot be
// starved by fast-path traffic, and every call completes in a number
// of steps bounded by a constant times the table size, independent of
// thread count.

package freelist

import "sync/atomic"

// Ref identifies one slot within the owning pool's slab collection.
type Ref = uint32

// RefEmpty is the list terminator and the value of an empty head.
const RefEmpty Ref = 0xFFFFFFFF

// RefTable resolves a ref to its link-word cell. Link words pack a
// write version in the high 32 bits and the next free ref in the low
// 32 bits; the version makes link updates by stale helpers fail their
// CAS instead of corrupting the chain.
type RefTable interface {
	Link(ref Ref) *atomic.Uint64
}

// LinkWord packs a link cell value.
func LinkWord(ver uint32, next Ref) uint64 {
	return uint64(ver)<<32 | uint64(next)
}

// LinkNext extracts the next ref from a link word.
func LinkNext(w uint64) Ref { return Ref(w & 0xFFFFFFFF) }

func linkVer(w uint64) uint32 { return uint32(w >> 32) }

const (
	markBit   = uint64(1) << 32
	tagShift  = 33
	tagMask   = uint64(1)<<31 - 1
	valueMask = uint64(1)<<32 - 1

	fastAttempts = 16
	tableSize    = 64
)

func packHead(tag uint64, val uint32) uint64 {
	return (tag&tagMask)<<tagShift | uint64(val)
}

func packMarked(tag uint64, payload uint32) uint64 {
	return (tag&tagMask)<<tagShift | markBit | uint64(payload)
}

func headTag(h uint64) uint64  { return h >> tagShift }
func headVal(h uint64) uint32  { return uint32(h & valueMask) }
func headMarked(h uint64) bool { return h&markBit != 0 }

// tagNewer reports whether tag a is ahead of b, tolerating wraparound.
func tagNewer(a, b uint64) bool {
	d := (a - b) & tagMask
	return d != 0 && d < 1<<30
}

// FreeList is the wait-free free-slot stack of one pool.
type FreeList struct {
	head atomic.Uint64
	_    [56]byte // keep the head on its own cache line

	seq       atomic.Uint64 // announcement sequence, strictly monotonic
	announced atomic.Int64
	helped    atomic.Uint64

	table [tableSize]atomic.Pointer[descriptor]
	refs  RefTable
}

// New creates an empty free list over the given ref table.
func New(refs RefTable) *FreeList {
	f := &FreeList{refs: refs}
	f.head.Store(packHead(0, RefEmpty))
	return f
}

// Take removes and returns one free ref. The second return is false
// when no free slot currently exists, which signals the pool to grow;
// it is not an error.
//
// No two concurrent Take calls ever return the same ref.
func (f *FreeList) Take() (Ref, bool) {
	f.maybeHelp()
	for i := 0; i < fastAttempts; i++ {
		h := f.head.Load()
		if headMarked(h) {
			f.resolveMarked(h)
			continue
		}
		top := headVal(h)
		if top == RefEmpty {
			return 0, false
		}
		next := LinkNext(f.refs.Link(top).Load())
		if f.head.CompareAndSwap(h, packHead(headTag(h)+1, next)) {
			return top, true
		}
	}
	out := f.slowPath(opTake, 0)
	if out == outcomeEmpty {
		return 0, false
	}
	return Ref(out & valueMask), true
}

// Give inserts ref as the new top of the list, making it available to
// a future Take. Giving a ref that is already free without an
// intervening Take of it is a contract violation; the pool's optional
// debug tracker detects it, release builds do not.
func (f *FreeList) Give(ref Ref) {
	f.maybeHelp()
	link := f.refs.Link(ref)
	for i := 0; i < fastAttempts; i++ {
		h := f.head.Load()
		if headMarked(h) {
			f.resolveMarked(h)
			continue
		}
		lw := link.Load()
		if !link.CompareAndSwap(lw, LinkWord(linkVer(lw)+1, headVal(h))) {
			continue
		}
		if f.head.CompareAndSwap(h, packHead(headTag(h)+1, ref)) {
			return
		}
		// Head transitioned after the link write; the next attempt
		// rewrites the link against the fresh top.
	}
	f.slowPath(opGive, ref)
}

// Announced returns the number of currently announced operations.
func (f *FreeList) Announced() int64 { return f.announced.Load() }

// Helped returns the cumulative count of operations completed through
// the announcement path.
func (f *FreeList) Helped() uint64 { return f.helped.Load() }

// maybeHelp drives the oldest announced operation to completion before
// the caller runs its own fast path. Announcements are rare, so the
// common case is a single atomic load; but once one exists, no thread
// may race past it, which is what makes the per-call step bound hold.
func (f *FreeList) maybeHelp() {
	if f.announced.Load() == 0 {
		return
	}
	f.helpOldest()
}
