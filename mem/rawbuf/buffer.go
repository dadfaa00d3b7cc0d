// Package rawbuf implements the untyped element buffer that backs memkit
// containers: a block of capacity slots of a fixed Layout, the leading Len()
// of which hold constructed elements.
//
// Every contract violation (index outside the block, construct past capacity,
// destruct from empty, byte access to a pointer-holding layout) panics. The
// typed containers are responsible for growing before they construct.
package rawbuf

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem/alloc"
)

// zeroBase is the address every slot of a zero-sized layout resolves to.
var zeroBase uintptr

// Buffer owns a block of element slots and the allocator handle the block
// came from.
//
// Invariants: 0 <= Len() <= Cap(); the block is non-nil iff Cap() > 0 and the
// element size is non-zero; slots [0, Len()) are constructed and slots
// [Len(), Cap()) are zero bytes.
type Buffer struct {
	layout   Layout
	h        alloc.Handle
	block    []byte
	base     unsafe.Pointer
	capacity int
	size     int
}

// New returns an empty buffer for layout that draws trivial blocks from h.
// An empty h selects alloc.Default().
func New(layout Layout, h alloc.Handle) Buffer {
	if h.IsEmpty() {
		h = alloc.Default()
	}
	return Buffer{layout: layout, h: h}
}

// Initialized reports whether the buffer was created by New (or is the
// result of Clone or Move).
func (b *Buffer) Initialized() bool {
	return b.layout.name != ""
}

// Layout returns the element layout.
func (b *Buffer) Layout() Layout { return b.layout }

// Len returns the number of live elements.
func (b *Buffer) Len() int { return b.size }

// Cap returns the number of slots in the block.
func (b *Buffer) Cap() int { return b.capacity }

// Allocator returns the owned allocator handle.
func (b *Buffer) Allocator() *alloc.Handle { return &b.h }

// Get returns the address of slot i. It panics unless 0 <= i < Cap().
func (b *Buffer) Get(i int) unsafe.Pointer {
	if !buf.InRange(i, b.capacity) {
		panic(fmt.Errorf("%w: slot %d, capacity %d", ErrOutOfRange, i, b.capacity))
	}
	return b.slot(i)
}

func (b *Buffer) slot(i int) unsafe.Pointer {
	return unsafe.Add(b.base, i*b.layout.size)
}

// Slot returns the bytes of slot i. Trivial layouts only.
func (b *Buffer) Slot(i int) []byte {
	b.mustTrivial("Slot")
	p := b.Get(i)
	return unsafe.Slice((*byte)(p), b.layout.size)
}

// Bytes returns the bytes of the live elements. Trivial layouts only.
func (b *Buffer) Bytes() []byte {
	b.mustTrivial("Bytes")
	return b.block[:b.size*b.layout.size]
}

// Resize sets the live count to n within the current capacity. New slots
// hold zero values; dropped slots are destroyed.
func (b *Buffer) Resize(n int) {
	if n < 0 || n > b.capacity {
		panic(fmt.Errorf("%w: resize to %d, capacity %d", ErrCapacity, n, b.capacity))
	}
	for b.size > n {
		b.DestructLast()
	}
	if b.layout.trivial && n > b.size {
		clear(b.block[b.size*b.layout.size : n*b.layout.size])
	}
	b.size = n
}

// Reserve grows the block to exactly n slots when n > Cap(), preserving the
// live elements. Smaller requests are ignored.
func (b *Buffer) Reserve(n int) {
	if n <= b.capacity {
		return
	}
	b.reallocate(n)
}

// reallocate moves the live elements into a fresh block of n slots and frees
// the old block.
func (b *Buffer) reallocate(n int) {
	if b.layout.size == 0 {
		b.base = unsafe.Pointer(&zeroBase)
		b.capacity = n
		return
	}

	nbytes, err := buf.BlockBytes(n, b.layout.size)
	if err != nil {
		panic(fmt.Errorf("%w: %w", ErrCapacity, err))
	}

	var block []byte
	if b.layout.trivial {
		block = b.h.Allocate(nbytes, b.layout.align)
	} else {
		block = b.layout.ops.alloc(n)
	}
	base := unsafe.Pointer(unsafe.SliceData(block))

	if b.layout.trivial {
		// Allocators may hand back recycled blocks.
		live := copy(block, b.block[:b.size*b.layout.size])
		clear(block[live:])
	} else {
		for i := range b.size {
			off := i * b.layout.size
			b.layout.ops.move(unsafe.Add(base, off), unsafe.Add(b.base, off))
		}
	}

	b.freeBlock()
	b.block = block
	b.base = base
	b.capacity = n
}

// freeBlock returns the block to its allocator. Typed storage for
// non-trivial layouts is left to the collector.
func (b *Buffer) freeBlock() {
	if b.block != nil && b.layout.trivial {
		b.h.Deallocate(b.block)
	}
	b.block = nil
	b.base = nil
}

// ConstructNext stores v in the next free slot and returns its address.
// It panics when Len() == Cap().
func ConstructNext[T any](b *Buffer, v T) *T {
	mustType[T](b, "construct")
	p := (*T)(b.ConstructNextZero())
	*p = v
	return p
}

// ConstructNextZero makes the next free slot live with a zero value and
// returns its address. It panics when Len() == Cap().
func (b *Buffer) ConstructNextZero() unsafe.Pointer {
	if b.size == b.capacity {
		panic(fmt.Errorf("%w: construct at %d, capacity %d", ErrCapacity, b.size, b.capacity))
	}
	p := b.slot(b.size)
	b.size++
	return p
}

// DestructLast destroys the last live element. It panics when empty.
func (b *Buffer) DestructLast() {
	if b.size == 0 {
		panic(fmt.Errorf("%w: destruct last", ErrEmpty))
	}
	b.size--
	if b.layout.size == 0 {
		return
	}
	if b.layout.trivial {
		clear(b.block[b.size*b.layout.size : (b.size+1)*b.layout.size])
		return
	}
	b.layout.ops.destroy(b.slot(b.size))
}

// DestructLastInto returns the last live element and destroys its slot.
// It panics when empty.
func DestructLastInto[T any](b *Buffer) T {
	mustType[T](b, "destruct")
	if b.size == 0 {
		panic(fmt.Errorf("%w: destruct last", ErrEmpty))
	}
	v := *(*T)(b.slot(b.size - 1))
	b.DestructLast()
	return v
}

// Copy bulk-copies src into the leading slots and makes exactly
// len(src)/Size() elements live. Trivial layouts only; len(src) must be a
// whole number of elements that fits in the capacity.
func (b *Buffer) Copy(src []byte) {
	b.mustTrivial("Copy")
	size := b.layout.size
	if size == 0 {
		return
	}
	if len(src)%size != 0 || len(src) > len(b.block) {
		panic(fmt.Errorf("%w: copy %d bytes into %d slots of %d", ErrCapacity, len(src), b.capacity, size))
	}
	n := len(src) / size
	copy(b.block, src)
	if n < b.size {
		clear(b.block[n*size : b.size*size])
	}
	b.size = n
}

// Clone returns a deep copy. The handle is copied first and the new block is
// allocated through the copy, never through b's handle.
func (b *Buffer) Clone() Buffer {
	c := Buffer{layout: b.layout, h: b.h.Copy()}
	if b.capacity == 0 {
		return c
	}
	c.reallocate(b.capacity)
	if b.layout.trivial {
		c.Copy(b.Bytes())
		c.size = b.size
		return c
	}
	for i := range b.size {
		off := i * b.layout.size
		b.layout.ops.copy(unsafe.Add(c.base, off), unsafe.Add(b.base, off))
	}
	c.size = b.size
	return c
}

// Move transfers the block, elements and handle to the returned buffer. b is
// left with its layout, no block and an empty handle.
func (b *Buffer) Move() Buffer {
	out := *b
	*b = Buffer{layout: b.layout}
	return out
}

// Release destroys the live elements and frees the block. The handle is kept,
// so the buffer can grow again.
func (b *Buffer) Release() {
	if b.capacity == 0 {
		return
	}
	if b.layout.trivial {
		b.size = 0
	} else {
		for b.size > 0 {
			b.DestructLast()
		}
	}
	b.freeBlock()
	b.capacity = 0
}

func (b *Buffer) mustTrivial(op string) {
	if !b.layout.trivial {
		panic(fmt.Errorf("%w: %s on %s", ErrNotTrivial, op, b.layout.name))
	}
}

func mustType[T any](b *Buffer, op string) {
	if t := reflect.TypeFor[T](); t != b.layout.typ {
		panic(fmt.Errorf("%w: %s %s on %s", ErrLayout, op, t, b.layout.name))
	}
}
