// Package array provides Array, a growable sequence of T stored in a
// rawbuf.Buffer, and View, a read-only window onto one.
//
// Capacity is always zero or a power of two. Growing rounds the requested
// capacity up to the next power of two, so appends are amortized O(1), and
// shrinking operations never give capacity back.
//
// Indexing outside the live elements and removing from an empty array panic
// with ErrOutOfRange and ErrEmpty.
package array

import (
	"fmt"
	"iter"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/rawbuf"
)

// Array is a dynamic array of T. The zero value is an empty array on the
// default allocator.
//
// Copying an Array value aliases its storage; use Clone for a deep copy.
type Array[T any] struct {
	buf rawbuf.Buffer
	// items views slots [0, Len()) of buf with capacity Cap().
	items []T
}

// New returns an empty array configured by opts.
func New[T any](opts ...Option) *Array[T] {
	return new(Array[T]).Init(opts...)
}

// Of returns an array holding values.
func Of[T any](values ...T) *Array[T] {
	a := New[T](WithCapacity(len(values)))
	for _, v := range values {
		a.PushBack(v)
	}
	return a
}

// Init resets a to an empty array configured by opts, releasing any storage
// it held. It returns a.
func (a *Array[T]) Init(opts ...Option) *Array[T] {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	a.Release()
	a.buf = rawbuf.New(rawbuf.LayoutOf[T](), c.h)
	if c.capacity > 0 {
		a.grow(c.capacity)
	}
	return a
}

func (a *Array[T]) lazyInit() {
	if !a.buf.Initialized() {
		a.buf = rawbuf.New(rawbuf.LayoutOf[T](), alloc.Handle{})
	}
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.items) }

// Cap returns the number of elements the array holds without growing.
func (a *Array[T]) Cap() int { return a.buf.Cap() }

// Allocator returns the array's allocator handle.
func (a *Array[T]) Allocator() *alloc.Handle {
	a.lazyInit()
	return a.buf.Allocator()
}

// reserveFor makes room for n elements.
func (a *Array[T]) reserveFor(n int) {
	a.lazyInit()
	if n > a.buf.Cap() {
		a.grow(n)
	}
}

// grow reallocates to the next power of two >= n.
func (a *Array[T]) grow(n int) {
	target := buf.NextPow2(n)
	if target == 0 {
		panic(fmt.Errorf("%w: %d elements", ErrTooLarge, n))
	}
	a.buf.Reserve(target)
	a.refresh()
}

// refresh rebuilds the items view after the block changed.
func (a *Array[T]) refresh() {
	if a.buf.Cap() == 0 {
		a.items = nil
		return
	}
	a.items = unsafe.Slice((*T)(a.buf.Get(0)), a.buf.Cap())[:a.buf.Len()]
}

func (a *Array[T]) check(i int) {
	if !buf.InRange(i, len(a.items)) {
		panic(fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, len(a.items)))
	}
}

func (a *Array[T]) mustNotEmpty(op string) {
	if len(a.items) == 0 {
		panic(fmt.Errorf("%w: %s", ErrEmpty, op))
	}
}

// PushBack appends v.
func (a *Array[T]) PushBack(v T) {
	n := len(a.items)
	a.reserveFor(n + 1)
	rawbuf.ConstructNext(&a.buf, v)
	a.items = a.items[:n+1]
}

// Emplace appends a zero value and returns a pointer to it. The pointer is
// valid until the array next grows.
func (a *Array[T]) Emplace() *T {
	n := len(a.items)
	a.reserveFor(n + 1)
	p := (*T)(a.buf.ConstructNextZero())
	a.items = a.items[:n+1]
	return p
}

// PopBack removes and returns the last element.
func (a *Array[T]) PopBack() T {
	a.mustNotEmpty("pop back")
	v := rawbuf.DestructLastInto[T](&a.buf)
	a.items = a.items[:len(a.items)-1]
	return v
}

// Back returns the last element.
func (a *Array[T]) Back() T {
	a.mustNotEmpty("back")
	return a.items[len(a.items)-1]
}

// At returns the element at i.
func (a *Array[T]) At(i int) T {
	a.check(i)
	return a.items[i]
}

// Ref returns a pointer to the element at i, valid until the array next
// grows.
func (a *Array[T]) Ref(i int) *T {
	a.check(i)
	return &a.items[i]
}

// Set replaces the element at i.
func (a *Array[T]) Set(i int, v T) {
	a.check(i)
	a.items[i] = v
}

// Swap exchanges the elements at i and j.
func (a *Array[T]) Swap(i, j int) {
	a.check(i)
	a.check(j)
	a.items[i], a.items[j] = a.items[j], a.items[i]
}

// Reserve grows the capacity to hold at least n elements.
func (a *Array[T]) Reserve(n int) {
	a.reserveFor(n)
}

// Resize sets the length to n. New elements are zero values.
func (a *Array[T]) Resize(n int) {
	if n <= len(a.items) {
		a.Truncate(n)
		return
	}
	a.reserveFor(n)
	a.buf.Resize(n)
	a.items = a.items[:n]
}

// ResizeWith sets the length to n. New elements are copies of v.
func (a *Array[T]) ResizeWith(n int, v T) {
	if n <= len(a.items) {
		a.Truncate(n)
		return
	}
	a.reserveFor(n)
	for len(a.items) < n {
		rawbuf.ConstructNext(&a.buf, v)
		a.items = a.items[:len(a.items)+1]
	}
}

// Truncate drops the elements from n on.
func (a *Array[T]) Truncate(n int) {
	if n < 0 || n > len(a.items) {
		panic(fmt.Errorf("%w: truncate to %d, length %d", ErrOutOfRange, n, len(a.items)))
	}
	if n == len(a.items) {
		return
	}
	a.buf.Resize(n)
	a.items = a.items[:n]
}

// Clear removes every element and keeps the capacity.
func (a *Array[T]) Clear() {
	a.Truncate(0)
}

// EraseUnsorted removes the element at i by moving the last element into
// its place. It runs in O(1) and does not preserve order.
func (a *Array[T]) EraseUnsorted(i int) {
	a.check(i)
	last := len(a.items) - 1
	if i != last {
		a.items[i] = a.items[last]
	}
	a.PopBack()
}

// Erase removes the element at i and shifts the tail down, preserving
// order.
func (a *Array[T]) Erase(i int) {
	a.check(i)
	copy(a.items[i:], a.items[i+1:])
	a.PopBack()
}

// All iterates over index/element pairs.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range a.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values iterates over the elements.
func (a *Array[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range a.items {
			if !yield(v) {
				return
			}
		}
	}
}

// View returns a read-only view of the current elements. The view is
// invalidated by any operation that grows or shrinks the array.
func (a *Array[T]) View() View[T] {
	return View[T]{items: a.items[:len(a.items):len(a.items)]}
}

// Clone returns a deep copy that allocates through a copy of a's handle.
func (a *Array[T]) Clone() *Array[T] {
	a.lazyInit()
	c := &Array[T]{buf: a.buf.Clone()}
	c.refresh()
	return c
}

// Move transfers the elements and allocator to the returned array and
// leaves a as a zero Array.
func (a *Array[T]) Move() *Array[T] {
	out := &Array[T]{buf: a.buf.Move(), items: a.items}
	*a = Array[T]{}
	return out
}

// Release drops every element and frees the block. The array stays usable.
func (a *Array[T]) Release() {
	a.buf.Release()
	a.items = nil
}
