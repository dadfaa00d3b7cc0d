package rawbuf

import "errors"

// Buffer contract violations panic with an error wrapping one of these.
var (
	// ErrCapacity indicates a size or count beyond the buffer's capacity, or a
	// capacity whose byte length overflows.
	ErrCapacity = errors.New("rawbuf: capacity exceeded")

	// ErrOutOfRange indicates a slot index outside the valid range.
	ErrOutOfRange = errors.New("rawbuf: index out of range")

	// ErrEmpty indicates removal from a buffer with no live elements.
	ErrEmpty = errors.New("rawbuf: buffer is empty")

	// ErrNotTrivial indicates a byte-level operation on a layout whose elements hold pointers.
	ErrNotTrivial = errors.New("rawbuf: layout is not trivially copyable")

	// ErrLayout indicates a typed operation whose type does not match the buffer layout.
	ErrLayout = errors.New("rawbuf: element type does not match layout")
)
