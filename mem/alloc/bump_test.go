package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBump_SimpleAlloc tests basic bump allocation.
func TestBump_SimpleAlloc(t *testing.T) {
	a := NewBump(0)
	assert.Zero(t, a.Cap(), "no chunk before first Allocate")

	b := a.Allocate(64, 8)
	require.Len(t, b, 64)
	assert.Equal(t, DefaultChunkSize, a.Cap())
	assert.Equal(t, 64, a.Len())
	assert.Equal(t, 1, a.Allocs())
}

// TestBump_MonotonicAddresses tests that sequential allocations never overlap.
func TestBump_MonotonicAddresses(t *testing.T) {
	a := NewBump(4096)

	var prevEnd uintptr
	for i := range 10 {
		size := 32 + i*8
		b := a.Allocate(size, 8)
		start := addrOf(b)
		assert.GreaterOrEqual(t, start, prevEnd, "allocation %d overlaps the previous one", i)
		prevEnd = start + uintptr(size)
	}
}

// TestBump_Alignment tests alignment of carved blocks.
func TestBump_Alignment(t *testing.T) {
	a := NewBump(4096)
	sizes := []int{5, 7, 9, 13, 17, 25}
	aligns := []int{1, 2, 4, 8, 16, 64}
	for i, size := range sizes {
		b := a.Allocate(size, aligns[i])
		assert.Zero(t, addrOf(b)%uintptr(aligns[i]), "size %d align %d", size, aligns[i])
	}
}

// TestBump_GrowsNewChunk tests that a request larger than the remaining space adds a chunk.
func TestBump_GrowsNewChunk(t *testing.T) {
	a := NewBump(4096)
	a.Allocate(4000, 8)
	a.Allocate(200, 8)
	assert.Equal(t, 8192, a.Cap())

	// Oversized requests get a chunk of their own, rounded to 4KB.
	a.Allocate(10000, 8)
	assert.Equal(t, 8192+12288, a.Cap())
}

// TestBump_ResetKeepsLastChunk tests Reset and peak tracking.
func TestBump_ResetKeepsLastChunk(t *testing.T) {
	a := NewBump(4096)
	b := a.Allocate(3000, 8)
	b[0] = 0xAA
	a.Allocate(3000, 8)
	require.Equal(t, 6000, a.Len())

	a.Reset()
	assert.Zero(t, a.Len())
	assert.Equal(t, 6000, a.Peak())
	assert.Equal(t, 4096, a.Cap())

	again := a.Allocate(16, 8)
	for _, v := range again {
		require.Zero(t, v, "Reset must hand out zeroed memory")
	}

	a.Release()
	assert.Zero(t, a.Cap())
}

// TestBump_DeallocateIsNoop tests that freeing does not return space.
func TestBump_DeallocateIsNoop(t *testing.T) {
	a := NewBump(4096)
	b := a.Allocate(128, 8)
	a.Deallocate(b)
	assert.Equal(t, 128, a.Len())
	assert.True(t, a.owns(b))
	assert.False(t, a.owns(make([]byte, 8)))
}
