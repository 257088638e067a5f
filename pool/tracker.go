// File: pool/tracker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Optional live-slot bitmap behind Config.DebugTracking. Off by
// default: the hot path pays two extra atomic bit flips per
// acquire/release cycle when enabled.

package pool

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/typepool/api"
	"github.com/momentics/typepool/core/freelist"
)

// trackerChunk covers 32768 slots. Chunks are shared between published
// chunk lists, so concurrent bit flips are never lost to a growth.
type trackerChunk [1024]atomic.Uint32

const trackerChunkSlots = 1024 * 32

// liveTracker keeps one bit per slot: set while LIVE, clear while
// FREE. It exists to turn double-release and use-after-destroy from
// silent corruption into an immediate fatal report.
type liveTracker struct {
	chunks atomic.Pointer[[]*trackerChunk]
}

func newLiveTracker() *liveTracker {
	t := &liveTracker{}
	empty := make([]*trackerChunk, 0)
	t.chunks.Store(&empty)
	return t
}

// extend grows the chunk list to cover total slots. Called only under
// the pool's growth lock, before the new refs are seeded. Existing
// chunks are carried by pointer, so bits flipped concurrently with a
// growth stay visible.
func (t *liveTracker) extend(total int) {
	need := (total + trackerChunkSlots - 1) / trackerChunkSlots
	old := *t.chunks.Load()
	if len(old) >= need {
		return
	}
	next := make([]*trackerChunk, need)
	copy(next, old)
	for i := len(old); i < need; i++ {
		next[i] = new(trackerChunk)
	}
	t.chunks.Store(&next)
}

func (t *liveTracker) word(ref freelist.Ref) *atomic.Uint32 {
	chunks := *t.chunks.Load()
	return &chunks[ref/trackerChunkSlots][(ref%trackerChunkSlots)/32]
}

// markLive flips ref's bit FREE->LIVE. A failed flip means the free
// list handed out a slot the tracker believes is already live, which
// can only follow an earlier contract violation.
func (t *liveTracker) markLive(typeName string, ref freelist.Ref) {
	w := t.word(ref)
	mask := uint32(1) << (ref % 32)
	for {
		v := w.Load()
		if v&mask != 0 {
			panic(api.NewError(api.ErrCodeContractViolation,
				fmt.Sprintf("typepool: slot %d of %s acquired while live", ref, typeName)))
		}
		if w.CompareAndSwap(v, v|mask) {
			return
		}
	}
}

// markFree flips ref's bit LIVE->FREE, reporting false on a double
// release.
func (t *liveTracker) markFree(ref freelist.Ref) bool {
	w := t.word(ref)
	mask := uint32(1) << (ref % 32)
	for {
		v := w.Load()
		if v&mask == 0 {
			return false
		}
		if w.CompareAndSwap(v, v&^mask) {
			return true
		}
	}
}

// isLive reports the tracked state of ref.
func (t *liveTracker) isLive(ref freelist.Ref) bool {
	chunks := *t.chunks.Load()
	if int(ref/trackerChunkSlots) >= len(chunks) {
		return false
	}
	return t.word(ref).Load()&(uint32(1)<<(ref%32)) != 0
}
