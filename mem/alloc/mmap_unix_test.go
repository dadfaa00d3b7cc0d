//go:build unix

package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMmap_PageAlignedAndWritable tests anonymous mappings.
func TestMmap_PageAlignedAndWritable(t *testing.T) {
	b := Mmap{}.Allocate(100, 8)
	require.Len(t, b, 100)
	assert.Equal(t, PageSize(), cap(b), "mapping is rounded to a page")
	assert.Zero(t, addrOf(b)%uintptr(PageSize()))

	for i := range b {
		require.Zero(t, b[i])
		b[i] = byte(i)
	}
	assert.Equal(t, byte(99), b[99])

	Mmap{}.Deallocate(b)
}

// TestMmap_RejectsForeignBlock tests that unmapping a heap block is fatal.
func TestMmap_RejectsForeignBlock(t *testing.T) {
	require.Panics(t, func() { Mmap{}.Deallocate(make([]byte, 64)) })
	require.Panics(t, func() { Mmap{}.Allocate(16, PageSize()*2) })
}
