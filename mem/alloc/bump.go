package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/debug"
)

const (
	// DefaultChunkSize is the chunk size NewBump uses when given zero.
	DefaultChunkSize = 64 << 10

	// chunkAlignment is the granularity chunks are rounded up to.
	chunkAlignment = 4096
)

// Bump is an append-only arena. Blocks are carved from chunks with a bump
// pointer; Deallocate is a no-op and memory is only reclaimed by Reset or
// Release. It suits containers that grow once and are dropped together, such
// as per-frame scratch data.
//
// Bump values are compared by identity (*Bump), so handles bound to the same
// arena are equal and copies of such a handle share the arena.
type Bump struct {
	chunkSize int

	// chunks holds every chunk handed out since the last Reset; cur is the last one.
	chunks [][]byte
	cur    []byte

	// endBlocks is the offset in cur where the next allocation starts.
	endBlocks int

	used   int
	peak   int
	allocs int
}

// NewBump creates an arena whose chunks are at least chunkSize bytes. No chunk
// is allocated until the first Allocate.
func NewBump(chunkSize int) *Bump {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Bump{chunkSize: buf.AlignUp(chunkSize, chunkAlignment)}
}

// Allocate carves size bytes aligned to align from the current chunk, growing
// by a new chunk when it does not fit.
func (a *Bump) Allocate(size, align int) []byte {
	checkRequest(size, align)

	start, ok := a.fit(size, align)
	if !ok {
		a.grow(size + align - 1)
		start, _ = a.fit(size, align)
	}

	a.endBlocks = start + size
	a.used += size
	a.allocs++
	if a.used > a.peak {
		a.peak = a.used
	}
	return a.cur[start : start+size : start+size]
}

// fit returns the aligned offset for a block of size bytes in cur.
func (a *Bump) fit(size, align int) (int, bool) {
	if a.cur == nil {
		return 0, false
	}
	base := int(addrOf(a.cur))
	start := buf.AlignUp(base+a.endBlocks, align) - base
	end, ok := buf.AddOverflowSafe(start, size)
	if !ok || end > len(a.cur) {
		return 0, false
	}
	return start, true
}

// grow appends a chunk large enough for need bytes.
func (a *Bump) grow(need int) {
	n := buf.AlignUp(max(a.chunkSize, need), chunkAlignment)
	a.cur = make([]byte, n)
	a.chunks = append(a.chunks, a.cur)
	a.endBlocks = 0
}

// Deallocate is a no-op: blocks stay dead space until Reset.
func (a *Bump) Deallocate(b []byte) {
	if cap(b) == 0 {
		panic(fmt.Errorf("%w: empty block", ErrForeignBlock))
	}
	if debug.Enabled && !a.owns(b) {
		panic(fmt.Errorf("%w: block at %#x is outside the arena", ErrForeignBlock, addrOf(b)))
	}
}

func (a *Bump) owns(b []byte) bool {
	p := addrOf(b)
	for _, c := range a.chunks {
		lo := addrOf(c)
		if p >= lo && p < lo+uintptr(len(c)) {
			return true
		}
	}
	return false
}

// Reset invalidates every block handed out so far. The most recent chunk is
// zeroed and kept for reuse; older chunks are dropped.
func (a *Bump) Reset() {
	if a.cur == nil {
		return
	}
	clear(a.cur)
	a.chunks = append(a.chunks[:0], a.cur)
	a.endBlocks = 0
	a.used = 0
}

// Release drops every chunk. The arena stays usable.
func (a *Bump) Release() {
	a.chunks = nil
	a.cur = nil
	a.endBlocks = 0
	a.used = 0
}

// Len returns the bytes handed out since the last Reset.
func (a *Bump) Len() int {
	return a.used
}

// Cap returns the total bytes held in chunks.
func (a *Bump) Cap() int {
	n := 0
	for _, c := range a.chunks {
		n += len(c)
	}
	return n
}

// Peak returns the high-water mark of Len. Reset does not lower it.
func (a *Bump) Peak() int {
	return a.peak
}

// Allocs returns the number of Allocate calls served.
func (a *Bump) Allocs() int {
	return a.allocs
}

var _ Allocator = (*Bump)(nil)
