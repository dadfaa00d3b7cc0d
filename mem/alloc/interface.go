package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
)

// Allocator is the capability contract a concrete allocation strategy offers.
//
// Allocate returns a zeroed block of exactly size bytes whose first byte is
// aligned to align. There is no error return: an allocator that cannot satisfy
// a request panics, so callers never observe a partially constructed object.
//
// Deallocate returns a block previously produced by Allocate on an equal
// allocator. Passing any other block is undefined; allocators that track
// ownership verify it in debug builds.
type Allocator interface {
	Allocate(size, align int) []byte
	Deallocate(b []byte)
}

// Concrete is the constraint for allocators that can be bound into a Handle.
// Equality is the concrete type's own ==, so stateless allocators compare equal
// and pointer-backed allocators compare by identity.
type Concrete interface {
	Allocator
	comparable
}

// Cloner lets a concrete allocator control how a Handle copy duplicates it.
// Allocators without it are copied by value.
type Cloner[A any] interface {
	Clone() A
}

// checkRequest validates an Allocate request.
func checkRequest(size, align int) {
	if size <= 0 {
		panic(fmt.Errorf("%w: size=%d", ErrBadSize, size))
	}
	if !buf.IsPow2(align) {
		panic(fmt.Errorf("%w: align=%d", ErrBadAlign, align))
	}
}
