//go:build unix

package alloc

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/memkit/internal/buf"
)

var pageSize = unix.Getpagesize()

// Mmap allocates every block as its own anonymous private mapping. Blocks are
// page aligned, zeroed by the kernel and returned to the OS on Deallocate.
// All Mmap values are equal.
//
// Mmap memory is invisible to the garbage collector: it must only hold
// pointer-free data, which is all the raw buffer ever asks an allocator for.
type Mmap struct{}

// Allocate maps size bytes rounded up to whole pages.
func (Mmap) Allocate(size, align int) []byte {
	checkRequest(size, align)
	if align > pageSize {
		panic(fmt.Errorf("%w: align=%d exceeds page size %d", ErrBadAlign, align, pageSize))
	}
	length := buf.AlignUp(size, pageSize)
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Errorf("%w: mmap %d bytes: %w", ErrOutOfMemory, length, err))
	}
	return data[:size]
}

// Deallocate unmaps the whole mapping b was cut from.
func (Mmap) Deallocate(b []byte) {
	if cap(b) == 0 {
		panic(fmt.Errorf("%w: empty block", ErrForeignBlock))
	}
	if err := unix.Munmap(b[:cap(b)]); err != nil {
		panic(fmt.Errorf("%w: munmap: %w", ErrForeignBlock, err))
	}
}

// PageSize returns the mapping granularity used by Mmap.
func PageSize() int {
	return pageSize
}

var _ Allocator = Mmap{}
