package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHeap_Alignment tests that Heap honours every power-of-two alignment.
func TestHeap_Alignment(t *testing.T) {
	for _, align := range []int{1, 2, 4, 8, 16, 32, 64, 128} {
		for _, size := range []int{1, 3, 8, 17, 100} {
			b := Heap{}.Allocate(size, align)
			require.Len(t, b, size)
			assert.Equal(t, size, cap(b), "cap is clipped to the request")
			assert.Zero(t, addrOf(b)%uintptr(align), "size=%d align=%d", size, align)
			for _, v := range b {
				require.Zero(t, v)
			}
			Heap{}.Deallocate(b)
		}
	}
}

// TestHeap_DeallocateEmptyPanics tests that an empty block is rejected.
func TestHeap_DeallocateEmptyPanics(t *testing.T) {
	require.Panics(t, func() { Heap{}.Deallocate(nil) })
}
