// File: manager/named.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Named object tables: pooled objects addressable by string id, with
// upsert semantics. Storage is sharded the same way as any other
// high-concurrency string-keyed table in this codebase.

package manager

import (
	"sync"

	"github.com/google/uuid"
)

// NamedManager keeps pooled objects of type T addressable by id.
// Create on an existing id replaces the entry and destroys the
// previous object. The table owns its objects: Delete and Clear
// destroy them, and callers must not retain pointers past that.
type NamedManager[T any] struct {
	mgr    *Manager
	shards []*namedShard[T]
	mask   uint32
}

type namedShard[T any] struct {
	mu   sync.RWMutex
	objs map[string]*T
}

// NewNamed builds a named table for T with shardCount shards, rounded
// up to a power of two for mask addressing.
func NewNamed[T any](m *Manager, shardCount int) *NamedManager[T] {
	if shardCount <= 0 {
		shardCount = 16
	}
	n := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*namedShard[T], n)
	for i := range shards {
		shards[i] = &namedShard[T]{objs: make(map[string]*T)}
	}
	return &NamedManager[T]{mgr: m, shards: shards, mask: n - 1}
}

func (n *NamedManager[T]) shard(id string) *namedShard[T] {
	return n.shards[fnv32(id)&n.mask]
}

// Create constructs an object under id. An existing object under the
// same id is destroyed after the replacement is installed.
func (n *NamedManager[T]) Create(id string, init func(*T) error) (*T, error) {
	ptr, err := Create[T](n.mgr, init)
	if err != nil {
		return nil, err
	}
	sh := n.shard(id)
	sh.mu.Lock()
	prev := sh.objs[id]
	sh.objs[id] = ptr
	sh.mu.Unlock()
	if prev != nil {
		Destroy[T](n.mgr, prev)
	}
	return ptr, nil
}

// CreateUnnamed constructs an object under a generated unique id and
// returns both.
func (n *NamedManager[T]) CreateUnnamed(init func(*T) error) (string, *T, error) {
	id := uuid.NewString()
	ptr, err := n.Create(id, init)
	return id, ptr, err
}

// Find returns the object under id if present.
func (n *NamedManager[T]) Find(id string) (*T, bool) {
	sh := n.shard(id)
	sh.mu.RLock()
	ptr, ok := sh.objs[id]
	sh.mu.RUnlock()
	return ptr, ok
}

// Delete destroys the object under id. Reports whether an object was
// present.
func (n *NamedManager[T]) Delete(id string) bool {
	sh := n.shard(id)
	sh.mu.Lock()
	ptr, ok := sh.objs[id]
	delete(sh.objs, id)
	sh.mu.Unlock()
	if ok {
		Destroy[T](n.mgr, ptr)
	}
	return ok
}

// Clear destroys every object in the table.
func (n *NamedManager[T]) Clear() {
	for _, sh := range n.shards {
		sh.mu.Lock()
		objs := sh.objs
		sh.objs = make(map[string]*T)
		sh.mu.Unlock()
		for _, ptr := range objs {
			Destroy[T](n.mgr, ptr)
		}
	}
}

// Len returns the number of named objects.
func (n *NamedManager[T]) Len() int {
	total := 0
	for _, sh := range n.shards {
		sh.mu.RLock()
		total += len(sh.objs)
		sh.mu.RUnlock()
	}
	return total
}

// Range applies fn to every (id, object) pair. fn must not create or
// delete entries in the same table.
func (n *NamedManager[T]) Range(fn func(id string, ptr *T)) {
	for _, sh := range n.shards {
		sh.mu.RLock()
		for id, ptr := range sh.objs {
			fn(id, ptr)
		}
		sh.mu.RUnlock()
	}
}

func nextPowerOfTwo(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	return v + 1
}

// fnv32 is the 32-bit FNV-1a hash used for shard selection.
func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
