package array

import (
	"fmt"
	"iter"

	"github.com/joshuapare/memkit/internal/buf"
)

// View is a non-owning, read-only window onto an Array's elements.
type View[T any] struct {
	items []T
}

// Len returns the number of elements in the view.
func (v View[T]) Len() int { return len(v.items) }

// Empty reports whether the view has no elements.
func (v View[T]) Empty() bool { return len(v.items) == 0 }

// At returns the element at i.
func (v View[T]) At(i int) T {
	if !buf.InRange(i, len(v.items)) {
		panic(fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, len(v.items)))
	}
	return v.items[i]
}

// All iterates over index/element pairs.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, x := range v.items {
			if !yield(i, x) {
				return
			}
		}
	}
}

// Values iterates over the elements.
func (v View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, x := range v.items {
			if !yield(x) {
				return
			}
		}
	}
}

// Append appends the viewed elements to dst and returns the result.
func (v View[T]) Append(dst []T) []T {
	return append(dst, v.items...)
}
