// File: core/freelist/helping.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Announcement table and helping protocol.
//
// A descriptor is immutable after publication except for two words:
// claim and outcome. The protocol per announcement is
//
//	claim:   CAS claim from none to an observed head word, fixing the
//	         state the operation applies to;
//	install: CAS the head from the claimed word to a marked word that
//	         carries the descriptor's table slot and sequence; this can
//	         only succeed while the head is exactly the claimed word,
//	         which monotonic tags make an exact condition;
//	resolve: idempotent; applies the link effect, publishes the
//	         outcome, then swings the head to the post-operation word.
//
// A claim may be reset only while the descriptor is pending, the head
// is unmarked and its tag has advanced past the claim; in that state
// the install can provably never succeed, so the reset cannot race a
// resolution. The outcome is published before the head is unmarked, so
// any thread that sees an unmarked head with an advanced tag and a
// still-pending outcome knows the install never happened.
//
// Descriptors are heap-allocated per announcement and located by
// pointer identity, so a helper that stalls across a retirement can
// only ever write to the dead descriptor, never to its slot's next
// occupant. The announcement path is the one place the structure
// allocates; it is off the fast path and amortized by helping.

package freelist

import "sync/atomic"

type opKind uint32

const (
	opTake opKind = iota + 1
	opGive
)

const (
	claimNone = ^uint64(0)

	outcomePending = uint64(0)
	outcomeEmpty   = uint64(1)
	outcomeGiven   = uint64(2)
	outcomeTaken   = uint64(1) << 32 // low 32 bits carry the taken ref
)

type descriptor struct {
	seq     uint64 // immutable after publication
	kind    opKind // immutable
	ref     Ref    // immutable; payload of a give
	nextExp uint64 // immutable; link word of ref observed at announce

	claim   atomic.Uint64
	outcome atomic.Uint64
	_       [16]byte
}

// payloadOf encodes a marked-head payload: table slot in the high
// byte, low 24 bits of the announcement sequence below it. A false
// match by a stale resolver would need a 24-bit sequence collision in
// the same slot combined with a 31-bit tag collision, which we treat
// as impossible.
func payloadOf(idx int, seq uint64) uint32 {
	return uint32(idx)<<24 | uint32(seq&0xFFFFFF)
}

// slowPath announces the operation and drives it to completion,
// helping whatever stands in the way. Returns the raw outcome word.
func (f *FreeList) slowPath(kind opKind, ref Ref) uint64 {
	d, idx := f.announce(kind, ref)
	f.helpDesc(d, idx)
	f.finishOwn(d, idx)
	out := d.outcome.Load()
	f.retire(d, idx)
	f.helped.Add(1)
	return out
}

// announce publishes a fresh descriptor in a free table slot. When the
// table is saturated the caller first helps drain the oldest
// announcement, so occupancy is bounded by the number of concurrently
// stalled operations.
func (f *FreeList) announce(kind opKind, ref Ref) (*descriptor, int) {
	for {
		for i := range f.table {
			slot := &f.table[i]
			if slot.Load() != nil {
				continue
			}
			d := &descriptor{
				seq:  f.seq.Add(1),
				kind: kind,
				ref:  ref,
			}
			if kind == opGive {
				// The link word of a slot being given cannot change
				// until this very operation resolves, so the
				// expectation read here is the one all resolvers use.
				d.nextExp = f.refs.Link(ref).Load()
			}
			d.claim.Store(claimNone)
			if slot.CompareAndSwap(nil, d) {
				f.announced.Add(1)
				return d, i
			}
		}
		f.helpOldest()
	}
}

// helpOldest locates the announcement with the lowest sequence number
// and helps it; lowest-first gives a deterministic, starvation-free
// service order.
func (f *FreeList) helpOldest() {
	var best *descriptor
	bestIdx := -1
	for i := range f.table {
		d := f.table[i].Load()
		if d == nil {
			continue
		}
		if best == nil || d.seq < best.seq {
			best, bestIdx = d, i
		}
	}
	if best != nil {
		f.helpDesc(best, bestIdx)
	}
}

// helpDesc drives one announced operation until it is resolved or
// retired. Callable by any thread; every effect inside is guarded so
// concurrent and even stale helpers stay harmless.
func (f *FreeList) helpDesc(d *descriptor, idx int) {
	for {
		if f.table[idx].Load() != d || d.outcome.Load() != outcomePending {
			return
		}
		h := f.head.Load()
		if headMarked(h) {
			f.resolveMarked(h)
			continue
		}
		c := d.claim.Load()
		if c == claimNone {
			d.claim.CompareAndSwap(claimNone, h)
			continue
		}
		if d.kind == opTake && headVal(c) == RefEmpty {
			// The claim may have been reset and re-claimed against a
			// non-empty head between our load of c and this CAS. An
			// empty publication that slips in after such an install is
			// compensated in resolveWith, which re-checks the outcome
			// before swinging the head.
			d.outcome.CompareAndSwap(outcomePending, outcomeEmpty)
			return
		}
		m := packMarked(headTag(c)+1, payloadOf(idx, d.seq))
		if f.head.CompareAndSwap(c, m) {
			f.resolveWith(d, idx, c, m)
			return
		}
		h2 := f.head.Load()
		if headMarked(h2) {
			f.resolveMarked(h2)
			continue
		}
		if d.outcome.Load() != outcomePending {
			return
		}
		if tagNewer(headTag(h2), headTag(c)) {
			// The claimed word is gone for good; only now is a reset
			// provably safe. Order matters: h2 was read before the
			// pending outcome above.
			d.claim.CompareAndSwap(c, claimNone)
		}
	}
}

// resolveMarked completes the operation a marked head word refers to.
// Every thread that observes a marked head must call this before it
// can make any transition of its own.
func (f *FreeList) resolveMarked(h uint64) {
	payload := headVal(h)
	idx := int(payload >> 24)
	d := f.table[idx].Load()
	if d == nil || payloadOf(idx, d.seq) != payload {
		// The announcement behind this word has been resolved and
		// retired; the head has moved on.
		return
	}
	c := d.claim.Load()
	if c == claimNone {
		return
	}
	f.resolveWith(d, idx, c, h)
}

// resolveWith applies the effects of an installed descriptor. All
// three steps are idempotent: the link CAS is version-guarded, the
// outcome CAS fires once, and the head CAS expects a word whose tag
// can never recur.
func (f *FreeList) resolveWith(d *descriptor, idx int, c, m uint64) {
	if m != packMarked(headTag(c)+1, payloadOf(idx, d.seq)) {
		return
	}
	if d.kind == opGive {
		link := f.refs.Link(d.ref)
		link.CompareAndSwap(d.nextExp, LinkWord(linkVer(d.nextExp)+1, headVal(c)))
		d.outcome.CompareAndSwap(outcomePending, outcomeGiven)
		f.head.CompareAndSwap(m, packHead(headTag(m)+1, d.ref))
		return
	}
	top := headVal(c)
	next := LinkNext(f.refs.Link(top).Load())
	d.outcome.CompareAndSwap(outcomePending, outcomeTaken|uint64(top))
	if d.outcome.Load() == outcomeEmpty {
		// A helper holding an earlier, since-reset empty claim won the
		// outcome publication against this install. The take reports
		// empty, so the pop must not happen: restore the top this
		// install displaced. Every resolver of (c, m) reads the same
		// immutable outcome, so all of them attempt this same CAS.
		f.head.CompareAndSwap(m, packHead(headTag(m)+1, top))
		return
	}
	f.head.CompareAndSwap(m, packHead(headTag(m)+1, next))
}

// finishOwn makes sure the head no longer carries this descriptor's
// mark before the owner retires it. Without this an unlucky unmark
// could be left to a thread that no longer exists.
func (f *FreeList) finishOwn(d *descriptor, idx int) {
	h := f.head.Load()
	if headMarked(h) && headVal(h) == payloadOf(idx, d.seq) {
		c := d.claim.Load()
		f.resolveWith(d, idx, c, h)
	}
}

// retire frees the table slot. Stale helpers still holding d keep
// writing into the dead descriptor, which is exactly why descriptors
// are located by pointer and never recycled in place.
func (f *FreeList) retire(d *descriptor, idx int) {
	f.table[idx].CompareAndSwap(d, nil)
	f.announced.Add(-1)
}
