// File: core/slab/slab.go
// Package slab owns contiguous fixed-slot memory regions for one type.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A slab is a page-aligned block subdivided into count slots of fixed
// stride. Slabs never move, never resize and are never freed while the
// owning pool may still reference them. Pointer-free types may be
// backed by OS-mapped memory outside the Go heap; types containing
// pointers are always heap-backed so the garbage collector can scan
// live slots.

package slab

import (
	"fmt"
	"reflect"
	"unsafe"
)

const pageSize = 4096

// Slab is one contiguous block of slots for type T.
type Slab[T any] struct {
	slots   []T    // heap backing; nil when off-heap
	region  []byte // OS-mapped backing; nil when heap-backed
	base    uintptr
	stride  uintptr
	count   int
	offHeap bool
}

// New allocates a slab with count slots. alignment overrides the slot
// stride for pointer-free types; zero means natural alignment.
// preferOffHeap requests OS-mapped backing, which is honored only for
// pointer-free types and silently falls back to the heap if the
// mapping fails (paralleling the hugepage fallback in high-load buffer
// pools).
func New[T any](count int, alignment uintptr, preferOffHeap bool) (*Slab[T], error) {
	if count <= 0 {
		return nil, fmt.Errorf("slab: slot count must be positive, got %d", count)
	}
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		// Zero-size types still need distinct slot addresses.
		size = 1
	}
	stride := size
	pointerFree := !typeHasPointers(reflect.TypeFor[T]())
	if alignment != 0 {
		if alignment&(alignment-1) != 0 || alignment > pageSize {
			return nil, fmt.Errorf("slab: alignment %d must be a power of two <= %d", alignment, pageSize)
		}
		if pointerFree {
			stride = (size + alignment - 1) &^ (alignment - 1)
		}
	}

	s := &Slab[T]{stride: stride, count: count}
	if pointerFree && preferOffHeap {
		length := int(stride) * count
		length = (length + pageSize - 1) &^ (pageSize - 1)
		if mem, err := mapRegion(length); err == nil {
			s.region = mem
			s.base = uintptr(unsafe.Pointer(&mem[0]))
			s.offHeap = true
			return s, nil
		}
		// Mapping failure is recoverable: heap backing below.
	}

	if stride != size {
		// Padded strides cannot be expressed as []T; keep the natural
		// stride on the heap path.
		s.stride = size
	}
	s.slots = make([]T, count)
	s.base = uintptr(unsafe.Pointer(&s.slots[0]))
	return s, nil
}

// PtrAt returns the address of slot i. Pure computation, never fails
// for 0 <= i < Count().
func (s *Slab[T]) PtrAt(i int) *T {
	if s.offHeap {
		return (*T)(unsafe.Pointer(&s.region[uintptr(i)*s.stride]))
	}
	return &s.slots[i]
}

// IndexOf maps a pointer back to its slot index. The second return is
// false for addresses outside this slab or not on a slot boundary.
func (s *Slab[T]) IndexOf(p *T) (int, bool) {
	addr := uintptr(unsafe.Pointer(p))
	if addr < s.base {
		return 0, false
	}
	off := addr - s.base
	idx := int(off / s.stride)
	if idx >= s.count || off%s.stride != 0 {
		return 0, false
	}
	return idx, true
}

// Zero clears slot i. Required on release for heap-backed slabs so a
// FREE slot holds no reachable pointers.
func (s *Slab[T]) Zero(i int) {
	if s.offHeap {
		b := unsafe.Slice((*byte)(unsafe.Pointer(s.PtrAt(i))), s.stride)
		clear(b)
		return
	}
	var zero T
	s.slots[i] = zero
}

// Count returns the number of slots in this slab.
func (s *Slab[T]) Count() int { return s.count }

// Stride returns the byte distance between consecutive slots.
func (s *Slab[T]) Stride() uintptr { return s.stride }

// OffHeap reports whether the slab is backed by OS-mapped memory.
func (s *Slab[T]) OffHeap() bool { return s.offHeap }

// Close releases OS-mapped backing. The caller must guarantee no slot
// is referenced anymore; pools only call this at teardown.
func (s *Slab[T]) Close() error {
	if !s.offHeap || s.region == nil {
		return nil
	}
	mem := s.region
	s.region = nil
	s.base = 0
	return unmapRegion(mem)
}

// typeHasPointers reports whether values of t contain words the
// garbage collector must scan.
func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return typeHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
