package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/debug"
)

// pooledAlign is the alignment the Go heap guarantees for blocks that are a
// multiple of 8 bytes long. Requests with stricter alignment bypass the pool.
const pooledAlign = 8

// PoolStats reports Pool activity.
type PoolStats struct {
	Allocs int // Allocate calls
	Frees  int // Deallocate calls
	Hits   int // Allocations served from a free list
	Misses int // Pooled allocations that had to go to the heap
	Large  int // Allocations that bypassed the pool
	Cached int // Blocks currently held on free lists
}

// Pool is a segregated free-list allocator. Requests are rounded up to a size
// class; freed blocks go back on their class list and are handed out again,
// zeroed, by later requests of the same class.
//
// Pool values are compared by identity (*Pool).
type Pool struct {
	table *sizeClassTable
	free  [][][]byte
	stats PoolStats

	// owned tracks live pooled blocks by address. Only maintained in debug builds.
	owned map[uintptr]int
}

// NewPool creates a pool using config. A zero config selects DefaultConfig.
func NewPool(config SizeClassConfig) *Pool {
	if config.MediumMax == 0 {
		config = DefaultConfig
	}
	t := newSizeClassTable(config)
	p := &Pool{
		table: t,
		free:  make([][][]byte, t.NumClasses()),
	}
	if debug.Enabled {
		p.owned = make(map[uintptr]int)
	}
	return p
}

// Allocate returns size zeroed bytes, from a free list when one has a block.
func (p *Pool) Allocate(size, align int) []byte {
	checkRequest(size, align)
	p.stats.Allocs++

	cls := -1
	if align <= pooledAlign {
		cls = p.table.classFor(size)
	}
	if cls < 0 {
		p.stats.Large++
		b := Heap{}.Allocate(size, align)
		if p.owned != nil {
			p.owned[addrOf(b)] = -1
		}
		return b
	}

	var block []byte
	if list := p.free[cls]; len(list) > 0 {
		block = list[len(list)-1]
		list[len(list)-1] = nil
		p.free[cls] = list[:len(list)-1]
		p.stats.Cached--
		p.stats.Hits++
		clear(block)
	} else {
		block = make([]byte, p.table.boundaries[cls])
		p.stats.Misses++
	}

	if p.owned != nil {
		p.owned[addrOf(block)] = cls
	}
	return block[:size]
}

// Deallocate returns b to its class free list. Blocks that bypassed the pool
// are dropped for the collector.
func (p *Pool) Deallocate(b []byte) {
	if cap(b) == 0 {
		panic(fmt.Errorf("%w: empty block", ErrForeignBlock))
	}
	p.stats.Frees++

	block := b[:cap(b)]
	cls := p.table.exactClass(len(block))

	if p.owned != nil {
		owner, ok := p.owned[addrOf(block)]
		if !ok {
			panic(fmt.Errorf("%w: block at %#x is not live", ErrForeignBlock, addrOf(block)))
		}
		if owner >= 0 && owner != cls {
			panic(fmt.Errorf("%w: block at %#x changed size class", ErrForeignBlock, addrOf(block)))
		}
		delete(p.owned, addrOf(block))
		cls = owner
	}

	if cls < 0 || len(p.free[cls]) >= p.table.config.MaxFreePerClass {
		return
	}
	p.free[cls] = append(p.free[cls], block)
	p.stats.Cached++
}

// Trim drops every cached block.
func (p *Pool) Trim() {
	for i := range p.free {
		clear(p.free[i])
		p.free[i] = p.free[i][:0]
	}
	p.stats.Cached = 0
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() PoolStats {
	return p.stats
}

// Config returns the size class configuration in use.
func (p *Pool) Config() SizeClassConfig {
	return p.table.config
}

// ClassSizes returns the block size of every class, ascending.
func (p *Pool) ClassSizes() []int {
	return append([]int(nil), p.table.boundaries...)
}

var _ Allocator = (*Pool)(nil)
