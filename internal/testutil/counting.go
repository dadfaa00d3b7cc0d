// Package testutil holds allocators and helpers shared by memkit tests.
package testutil

import (
	"fmt"

	"github.com/joshuapare/memkit/mem/alloc"
)

// Counts records the activity of a Counting allocator.
type Counts struct {
	Allocs int
	Frees  int
	Bytes  int // bytes currently live
	live   map[*byte]int
}

// Counting is a heap-backed allocator that counts calls and verifies every
// Deallocate against the blocks it handed out. Values sharing a *Counts are
// equal; separately created ones are not.
type Counting struct {
	*Counts
}

// NewCounting returns a fresh counting allocator.
func NewCounting() Counting {
	return Counting{Counts: &Counts{live: make(map[*byte]int)}}
}

// Allocate implements alloc.Allocator.
func (c Counting) Allocate(size, align int) []byte {
	b := alloc.Heap{}.Allocate(size, align)
	c.Allocs++
	c.Bytes += size
	c.live[&b[0]] = size
	return b
}

// Deallocate implements alloc.Allocator.
func (c Counting) Deallocate(b []byte) {
	size, ok := c.live[&b[0]]
	if !ok {
		panic(fmt.Errorf("%w: counting allocator never produced this block", alloc.ErrForeignBlock))
	}
	delete(c.live, &b[0])
	c.Frees++
	c.Bytes -= size
}

// Live returns the number of blocks not yet deallocated.
func (c Counting) Live() int {
	return len(c.live)
}

// Handle binds c into a type-erased handle.
func (c Counting) Handle() alloc.Handle {
	return alloc.Bind(c)
}

var _ alloc.Allocator = Counting{}
