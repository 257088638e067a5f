// File: core/slab/slab_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plain struct {
	A int64
	B [6]byte
}

type pointerful struct {
	Name string
	Next *pointerful
}

func TestHeapSlabRoundTrip(t *testing.T) {
	s, err := New[plain](16, 0, false)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 16, s.Count())
	assert.False(t, s.OffHeap())

	for i := 0; i < 16; i++ {
		p := s.PtrAt(i)
		require.NotNil(t, p)
		p.A = int64(i)
	}
	for i := 0; i < 16; i++ {
		idx, ok := s.IndexOf(s.PtrAt(i))
		require.True(t, ok)
		assert.Equal(t, i, idx)
		assert.Equal(t, int64(i), s.PtrAt(i).A)
	}
}

func TestIndexOfForeignPointer(t *testing.T) {
	s, err := New[plain](4, 0, false)
	require.NoError(t, err)
	defer s.Close()

	var outside plain
	_, ok := s.IndexOf(&outside)
	assert.False(t, ok, "foreign pointer must not resolve to a slot")
}

func TestZeroClearsSlot(t *testing.T) {
	s, err := New[plain](4, 0, false)
	require.NoError(t, err)
	defer s.Close()

	p := s.PtrAt(2)
	p.A = 42
	p.B[0] = 0xFF
	s.Zero(2)
	assert.Equal(t, plain{}, *p)
}

func TestOffHeapPointerFreeOnly(t *testing.T) {
	s, err := New[pointerful](8, 0, true)
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.OffHeap(), "pointerful types must stay on the Go heap")

	s2, err := New[plain](8, 0, true)
	require.NoError(t, err)
	defer s2.Close()
	// Off-heap is an optimization with a heap fallback, so only the
	// round-trip is asserted, not the placement itself.
	for i := 0; i < 8; i++ {
		s2.PtrAt(i).A = int64(i * 3)
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, int64(i*3), s2.PtrAt(i).A)
	}
}

// Interface element types carry pointers but no zero-value dynamic
// type; allocation must classify them without one and keep them on the
// heap.
func TestInterfaceElementType(t *testing.T) {
	s, err := New[error](4, 0, true)
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.OffHeap(), "interface types must stay on the Go heap")

	p := s.PtrAt(1)
	require.NotNil(t, p)
	assert.Nil(t, *p)
	idx, ok := s.IndexOf(p)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestAlignmentOverride(t *testing.T) {
	s, err := New[plain](8, 64, true)
	require.NoError(t, err)
	defer s.Close()

	if !s.OffHeap() {
		t.Skip("no off-heap backend on this platform")
	}
	assert.Zero(t, s.Stride()%64, "stride must honor the alignment override")
	for i := 0; i < 8; i++ {
		addr := uintptr(0)
		p := s.PtrAt(i)
		require.NotNil(t, p)
		addr = s.base + uintptr(i)*s.stride
		assert.Zero(t, addr%64)
	}
}

func TestInvalidCount(t *testing.T) {
	_, err := New[plain](0, 0, false)
	assert.Error(t, err)
	_, err = New[plain](-1, 0, false)
	assert.Error(t, err)
}
