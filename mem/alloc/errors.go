package alloc

import "errors"

// Contract violations are reported by panicking with an error that wraps one of
// these sentinels. None of them is recoverable; they mark programmer errors.
var (
	// ErrEmptyHandle indicates an operation on a handle with no bound allocator.
	ErrEmptyHandle = errors.New("alloc: operation on empty allocator handle")

	// ErrBadSize indicates a request for zero or negative bytes.
	ErrBadSize = errors.New("alloc: size must be positive")

	// ErrBadAlign indicates an alignment that is not a power of two, or one the
	// allocator cannot honour.
	ErrBadAlign = errors.New("alloc: alignment must be a power of two")

	// ErrShortBlock indicates an allocator returned fewer bytes than requested.
	ErrShortBlock = errors.New("alloc: allocator returned a short block")

	// ErrForeignBlock indicates a block handed to Deallocate that this allocator did not produce.
	ErrForeignBlock = errors.New("alloc: block was not allocated by this allocator")

	// ErrOutOfMemory indicates the backing store refused to provide memory.
	ErrOutOfMemory = errors.New("alloc: out of memory")
)
