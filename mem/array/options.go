package array

import "github.com/joshuapare/memkit/mem/alloc"

// Option configures a new Array.
type Option func(*config)

type config struct {
	h        alloc.Handle
	capacity int
}

// WithAllocator sets the allocator the array draws its block from. The
// array owns the handle it is given; pass h.Copy() to keep using h.
func WithAllocator(h alloc.Handle) Option {
	return func(c *config) {
		c.h = h
	}
}

// WithCapacity reserves room for n elements up front.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}
