package hashmap

import (
	"hash/maphash"

	"golang.org/x/text/cases"

	"github.com/joshuapare/memkit/mem/alloc"
)

// Option configures a new Map. Key options (WithHasher, WithEqual, FoldCase)
// are typed by the key and only apply to maps with that key type.
type Option interface {
	option()
}

type bucketCountOption int

type maxLoadOption float64

type allocatorOption struct {
	h alloc.Handle
}

type keyOption[K comparable] struct {
	hash  func(K) uint64
	equal func(a, b K) bool
}

func (bucketCountOption) option() {}
func (maxLoadOption) option()     {}
func (allocatorOption) option()   {}
func (keyOption[K]) option()      {}

// WithBucketCount sets the initial bucket count. Values below 1 select 1.
func WithBucketCount(n int) Option {
	return bucketCountOption(n)
}

// WithMaxLoadFactor sets the highest ratio of entries to buckets allowed
// after an insert. It must be positive and finite.
func WithMaxLoadFactor(f float64) Option {
	return maxLoadOption(f)
}

// WithAllocator sets the allocator for the bucket table and node table.
func WithAllocator(h alloc.Handle) Option {
	return allocatorOption{h: h}
}

// WithHasher replaces the key hash. Keys that are equal must hash equally.
func WithHasher[K comparable](fn func(K) uint64) Option {
	return keyOption[K]{hash: fn}
}

// WithEqual replaces key equality. Combine with WithHasher so that equal keys
// hash equally.
func WithEqual[K comparable](fn func(a, b K) bool) Option {
	return keyOption[K]{equal: fn}
}

// FoldCase makes string keys case-insensitive using Unicode case folding.
// Keys are stored as first inserted.
func FoldCase[K ~string]() Option {
	folder := cases.Fold()
	seed := maphash.MakeSeed()
	fold := func(k K) string {
		return folder.String(string(k))
	}
	return keyOption[K]{
		hash: func(k K) uint64 {
			return maphash.String(seed, fold(k))
		},
		equal: func(a, b K) bool {
			return a == b || fold(a) == fold(b)
		},
	}
}
