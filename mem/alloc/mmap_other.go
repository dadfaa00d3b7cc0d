//go:build !unix

package alloc

import "os"

var pageSize = os.Getpagesize()

// Mmap falls back to the Go heap on platforms without anonymous mappings.
// All Mmap values are equal.
type Mmap struct{}

// Allocate returns size zeroed bytes aligned to align.
func (Mmap) Allocate(size, align int) []byte {
	return Heap{}.Allocate(size, align)
}

// Deallocate drops the block.
func (Mmap) Deallocate(b []byte) {
	Heap{}.Deallocate(b)
}

// PageSize returns the mapping granularity used by Mmap.
func PageSize() int {
	return pageSize
}

var _ Allocator = Mmap{}
