package alloc

import "fmt"

// vtable is the fixed dispatch table a Handle carries for its boxed allocator.
type vtable struct {
	name       string
	allocate   func(box any, size, align int) []byte
	deallocate func(box any, b []byte)
	equal      func(box, other any) bool
	clone      func(box any) any
	destroy    func(box any)
	value      func(box any) any
}

// Handle is a value-semantic, type-erased allocator. It owns a boxed copy of a
// concrete allocator and a dispatch table for it. The zero Handle is empty;
// every operation except IsEmpty, Copy, Equal and Release panics on an empty
// handle.
//
// Copy duplicates the boxed allocator, Move transfers it and leaves the source
// empty. Handles are not safe for concurrent use.
type Handle struct {
	box any
	vt  *vtable
}

// Bind boxes a and returns a handle that forwards to it.
func Bind[A Concrete](a A) Handle {
	box := new(A)
	*box = a
	return Handle{box: box, vt: vtableFor[A]()}
}

// Default returns a handle bound to the Go heap.
func Default() Handle {
	return Bind(Heap{})
}

func vtableFor[A Concrete]() *vtable {
	return &vtable{
		name: fmt.Sprintf("%T", *new(A)),
		allocate: func(box any, size, align int) []byte {
			return (*box.(*A)).Allocate(size, align)
		},
		deallocate: func(box any, b []byte) {
			(*box.(*A)).Deallocate(b)
		},
		equal: func(box, other any) bool {
			o, ok := other.(*A)
			return ok && *box.(*A) == *o
		},
		clone: func(box any) any {
			src := box.(*A)
			dst := new(A)
			if c, ok := any(*src).(Cloner[A]); ok {
				*dst = c.Clone()
			} else {
				*dst = *src
			}
			return dst
		},
		destroy: func(box any) {
			var zero A
			*box.(*A) = zero
		},
		value: func(box any) any {
			return *box.(*A)
		},
	}
}

// IsEmpty reports whether no allocator is bound.
func (h Handle) IsEmpty() bool {
	return h.box == nil
}

// Name returns the concrete allocator's type name, or "" for an empty handle.
func (h Handle) Name() string {
	if h.vt == nil {
		return ""
	}
	return h.vt.name
}

// Allocate forwards to the boxed allocator and returns exactly size zeroed bytes.
func (h Handle) Allocate(size, align int) []byte {
	h.mustBound("Allocate")
	b := h.vt.allocate(h.box, size, align)
	if len(b) < size {
		panic(fmt.Errorf("%w: %s returned %d of %d bytes", ErrShortBlock, h.vt.name, len(b), size))
	}
	return b[:size]
}

// Deallocate forwards to the boxed allocator.
func (h Handle) Deallocate(b []byte) {
	h.mustBound("Deallocate")
	h.vt.deallocate(h.box, b)
}

// Equal reports whether both handles wrap equal allocators of the same
// concrete type. Two empty handles are equal.
func (h Handle) Equal(other Handle) bool {
	if h.box == nil || other.box == nil {
		return h.box == nil && other.box == nil
	}
	return h.vt.equal(h.box, other.box)
}

// Copy returns an independent handle holding a duplicate of the boxed
// allocator. Copying an empty handle yields an empty handle.
func (h Handle) Copy() Handle {
	if h.box == nil {
		return Handle{}
	}
	return Handle{box: h.vt.clone(h.box), vt: h.vt}
}

// Move transfers the boxed allocator to the returned handle and empties h.
func (h *Handle) Move() Handle {
	out := *h
	*h = Handle{}
	return out
}

// Release destroys the boxed allocator storage and empties h. It does not
// release memory the allocator handed out.
func (h *Handle) Release() {
	if h.box == nil {
		return
	}
	h.vt.destroy(h.box)
	*h = Handle{}
}

// Unwrap returns the boxed allocator value, or nil for an empty handle.
func (h Handle) Unwrap() any {
	if h.box == nil {
		return nil
	}
	return h.vt.value(h.box)
}

// As returns the concrete allocator bound to h when it has type A.
func As[A Concrete](h Handle) (A, bool) {
	p, ok := h.box.(*A)
	if !ok {
		var zero A
		return zero, false
	}
	return *p, true
}

func (h Handle) mustBound(op string) {
	if h.box == nil {
		panic(fmt.Errorf("%w: %s", ErrEmptyHandle, op))
	}
}
