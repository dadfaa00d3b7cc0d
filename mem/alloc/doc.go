// Package alloc provides the allocator capability contract, a type-erased
// allocator handle, and the concrete allocators that back memkit containers.
//
// # Overview
//
// Containers never talk to a concrete allocator. They own a Handle: a value
// that boxes any allocator behind a fixed dispatch table (allocate, deallocate,
// equal, clone, destroy). This gives "the strategy used to get raw memory"
// value semantics without inheritance:
//
//	h := alloc.Bind(alloc.NewPool(alloc.ConfigBalanced))
//	block := h.Allocate(256, 8)
//	// ...
//	h.Deallocate(block)
//
// # Allocator Contract
//
// Any comparable type with these two methods can be bound:
//
//   - Allocate(size, align) []byte: zeroed block of exactly size bytes
//   - Deallocate(b): return a block produced by an equal allocator
//
// Equality is the concrete type's == operator. Handles wrapping different
// concrete types are never equal.
//
// # Implementations
//
// Heap: stateless pass-through to the Go heap
//
// Mmap: stateless, one anonymous mapping per block (golang.org/x/sys/unix)
//
// Bump: append-only chunked arena, Deallocate is a no-op, Reset frees everything
//
// Pool: segregated size-class free lists
//
//	Balanced:    16 - 512 bytes step 16, then x1.5 up to 64 KB
//	FineGrained:  8 - 256 bytes step 8,  then x1.5 up to 16 KB
//	Coarse:      powers of two from 16 bytes to 1 MB
//
// # Failure Semantics
//
// There is no error return anywhere in this package. Contract violations
// (empty handle, bad size or alignment, foreign block, exhausted memory) panic
// with an error wrapping one of the Err* sentinels. Ownership checks that need
// bookkeeping only run when built with -tags memkit_debug.
//
// # Garbage Collector Interaction
//
// Blocks from Mmap (and any allocator whose memory the Go runtime did not type)
// are not scanned by the collector. Only pointer-free data may live in them.
// The rawbuf package enforces this by routing element types that contain
// pointers to typed Go storage.
//
// # Thread Safety
//
// Allocators and handles are not thread-safe.
package alloc
