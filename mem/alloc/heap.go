package alloc

import (
	"fmt"
	"unsafe"
)

// Heap is the stateless pass-through allocator: blocks come from the Go heap
// and are reclaimed by the collector once the last reference is dropped. All
// Heap values are equal.
type Heap struct{}

// Allocate returns size zeroed bytes aligned to align.
func (Heap) Allocate(size, align int) []byte {
	checkRequest(size, align)
	if align == 1 {
		return make([]byte, size)
	}
	raw := make([]byte, size+align-1)
	off := alignOffset(raw, align)
	return raw[off : off+size : off+size]
}

// Deallocate drops the block. The collector reclaims it.
func (Heap) Deallocate(b []byte) {
	if cap(b) == 0 {
		panic(fmt.Errorf("%w: empty block", ErrForeignBlock))
	}
}

// alignOffset returns how many bytes into b the first align-aligned address is.
func alignOffset(b []byte, align int) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	a := uintptr(align)
	return int((a - addr%a) % a)
}

// addrOf returns the address of the first byte of b.
func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

var _ Allocator = Heap{}
