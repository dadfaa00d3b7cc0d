package array_test

import (
	"testing"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/array"
)

// BenchmarkArray_PushBack measures amortized append cost per allocator.
func BenchmarkArray_PushBack(b *testing.B) {
	allocators := []struct {
		name string
		h    func() alloc.Handle
	}{
		{"Heap", alloc.Default},
		{"Pool", func() alloc.Handle { return alloc.Bind(alloc.NewPool(alloc.DefaultConfig)) }},
		{"Bump", func() alloc.Handle { return alloc.Bind(alloc.NewBump(0)) }},
	}
	for _, ac := range allocators {
		b.Run(ac.name, func(b *testing.B) {
			b.ReportAllocs()
			for range b.N {
				a := array.New[uint64](array.WithAllocator(ac.h()))
				for i := range 1024 {
					a.PushBack(uint64(i))
				}
				a.Release()
			}
		})
	}
}

// BenchmarkArray_PushBackSlice is the builtin slice baseline.
func BenchmarkArray_PushBackSlice(b *testing.B) {
	b.ReportAllocs()
	for range b.N {
		var s []uint64
		for i := range 1024 {
			s = append(s, uint64(i))
		}
		_ = s
	}
}
