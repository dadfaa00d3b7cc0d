package array_test

import (
	"math/bits"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/array"
)

type mesh struct {
	name    string
	indices []uint32
}

func isPow2(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

// TestArray_ZeroValue tests that a zero Array is usable.
func TestArray_ZeroValue(t *testing.T) {
	var a array.Array[int]
	assert.Zero(t, a.Len())
	assert.Zero(t, a.Cap())

	a.PushBack(3)
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, a.Cap())
	assert.Equal(t, 3, a.At(0))
	assert.True(t, a.Allocator().Equal(alloc.Default()))
}

// TestArray_PushBackGrowth tests power-of-two growth and content preservation.
func TestArray_PushBackGrowth(t *testing.T) {
	c := testutil.NewCounting()
	a := array.New[int64](array.WithAllocator(c.Handle()))

	for i := range 100 {
		a.PushBack(int64(i * 3))
		require.Equal(t, i+1, a.Len())
		require.True(t, isPow2(a.Cap()), "capacity %d", a.Cap())
		require.GreaterOrEqual(t, a.Cap(), a.Len())
		for j := 0; j <= i; j++ {
			require.Equal(t, int64(j*3), a.At(j), "element %d after push %d", j, i)
		}
	}

	assert.Equal(t, 128, a.Cap())
	assert.Equal(t, 8, c.Allocs, "one block per power of two from 1 to 128")
	assert.Equal(t, 7, c.Frees)

	a.Release()
	assert.Zero(t, c.Live())
}

// TestArray_PushBackGrowth_Property tests growth over random push/pop sequences.
func TestArray_PushBackGrowth_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility
	a := array.New[string]()
	var want []string

	for step := range 2000 {
		if rng.Intn(4) == 0 && len(want) > 0 {
			got := a.PopBack()
			require.Equal(t, want[len(want)-1], got, "step %d", step)
			want = want[:len(want)-1]
		} else {
			v := string(rune('a' + rng.Intn(26)))
			a.PushBack(v)
			want = append(want, v)
		}

		require.Equal(t, len(want), a.Len(), "step %d", step)
		if a.Cap() != 0 {
			require.True(t, isPow2(a.Cap()), "step %d: capacity %d", step, a.Cap())
		}
		require.GreaterOrEqual(t, a.Cap(), a.Len())
	}
	assert.Equal(t, want, a.View().Append(nil))
}

// TestArray_WithCapacity tests up-front reservation rounding.
func TestArray_WithCapacity(t *testing.T) {
	a := array.New[float32](array.WithCapacity(5))
	assert.Equal(t, 8, a.Cap())
	assert.Zero(t, a.Len())

	a.Reserve(3)
	assert.Equal(t, 8, a.Cap(), "reserve never shrinks")
	a.Reserve(9)
	assert.Equal(t, 16, a.Cap())
}

// TestArray_Of tests construction from values.
func TestArray_Of(t *testing.T) {
	a := array.Of("albedo", "normal", "roughness")
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 4, a.Cap())
	assert.Equal(t, "roughness", a.Back())
	assert.Equal(t, []string{"albedo", "normal", "roughness"}, slices.Collect(a.Values()))
}

// TestArray_PopBackAndBack tests removal from the end.
func TestArray_PopBackAndBack(t *testing.T) {
	a := array.Of(1, 2, 3)
	assert.Equal(t, 3, a.PopBack())
	assert.Equal(t, 2, a.Back())
	assert.Equal(t, 4, a.Cap(), "capacity is kept")
	a.PopBack()
	a.PopBack()

	testutil.RequirePanicIs(t, array.ErrEmpty, func() { a.PopBack() })
	testutil.RequirePanicIs(t, array.ErrEmpty, func() { a.Back() })
}

// TestArray_Bounds tests index checks.
func TestArray_Bounds(t *testing.T) {
	a := array.Of(10, 20)
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.At(2) })
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.At(-1) })
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.Ref(2) })
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.Set(5, 1) })
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.Swap(0, 2) })
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.Truncate(3) })
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.EraseUnsorted(2) })

	a.Reserve(64)
	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { a.At(2) })
}

// TestArray_SetRefSwap tests element mutation.
func TestArray_SetRefSwap(t *testing.T) {
	a := array.Of(mesh{name: "a"}, mesh{name: "b"})
	a.Set(0, mesh{name: "c", indices: []uint32{0, 1, 2}})
	a.Ref(1).indices = []uint32{2, 1, 0}
	a.Swap(0, 1)

	assert.Equal(t, "b", a.At(0).name)
	assert.Equal(t, []uint32{2, 1, 0}, a.At(0).indices)
	assert.Equal(t, "c", a.At(1).name)
}

// TestArray_Emplace tests appending a zero value in place.
func TestArray_Emplace(t *testing.T) {
	a := array.New[mesh]()
	m := a.Emplace()
	assert.Equal(t, mesh{}, *m)
	m.name = "quad"
	m.indices = []uint32{0, 1, 2, 2, 3, 0}

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, "quad", a.At(0).name)
	assert.Len(t, a.At(0).indices, 6)
}

// TestArray_EraseUnsorted tests O(1) removal.
func TestArray_EraseUnsorted(t *testing.T) {
	a := array.Of(0, 1, 2, 3, 4)
	a.EraseUnsorted(1)
	assert.Equal(t, []int{0, 4, 2, 3}, a.View().Append(nil))

	a.EraseUnsorted(3)
	assert.Equal(t, []int{0, 4, 2}, a.View().Append(nil))
}

// TestArray_EraseUnsorted_Property tests that only the erased slot and the old last slot change.
func TestArray_EraseUnsorted_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := range 200 {
		n := 1 + rng.Intn(40)
		a := array.New[int]()
		for range n {
			a.PushBack(rng.Int())
		}
		before := a.View().Append(nil)
		i := rng.Intn(n)

		a.EraseUnsorted(i)

		require.Equal(t, n-1, a.Len(), "trial %d", trial)
		for j := range n - 1 {
			if j == i {
				require.Equal(t, before[n-1], a.At(j), "trial %d: erased slot holds old last", trial)
				continue
			}
			require.Equal(t, before[j], a.At(j), "trial %d: index %d", trial, j)
		}
	}
}

// TestArray_Erase tests order-preserving removal.
func TestArray_Erase(t *testing.T) {
	a := array.Of("a", "b", "c", "d")
	a.Erase(1)
	assert.Equal(t, []string{"a", "c", "d"}, a.View().Append(nil))
	a.Erase(2)
	assert.Equal(t, []string{"a", "c"}, a.View().Append(nil))
}

// TestArray_Resize tests growing and shrinking the length.
func TestArray_Resize(t *testing.T) {
	a := array.Of(1, 2, 3)
	a.Resize(6)
	assert.Equal(t, []int{1, 2, 3, 0, 0, 0}, a.View().Append(nil))
	assert.Equal(t, 8, a.Cap())

	a.Resize(2)
	assert.Equal(t, []int{1, 2}, a.View().Append(nil))
	assert.Equal(t, 8, a.Cap())

	a.ResizeWith(4, 9)
	assert.Equal(t, []int{1, 2, 9, 9}, a.View().Append(nil))

	a.Resize(6)
	assert.Equal(t, 0, a.At(5), "slots dropped by shrinking come back as zero values")

	s := array.Of("x")
	s.ResizeWith(3, "y")
	s.Truncate(1)
	s.Resize(3)
	assert.Equal(t, []string{"x", "", ""}, s.View().Append(nil))
}

// TestArray_Clear tests that clearing keeps capacity.
func TestArray_Clear(t *testing.T) {
	a := array.Of(1, 2, 3, 4, 5)
	a.Clear()
	assert.Zero(t, a.Len())
	assert.Equal(t, 8, a.Cap())
	a.PushBack(6)
	assert.Equal(t, 6, a.At(0))
}

// TestArray_Iteration tests All and Values with early exit.
func TestArray_Iteration(t *testing.T) {
	a := array.Of(5, 6, 7, 8)

	var idx []int
	for i, v := range a.All() {
		if v == 7 {
			break
		}
		idx = append(idx, i)
	}
	assert.Equal(t, []int{0, 1}, idx)

	sum := 0
	for v := range a.Values() {
		sum += v
	}
	assert.Equal(t, 26, sum)
}

// TestArray_Clone tests deep copy through a copied handle.
func TestArray_Clone(t *testing.T) {
	c := testutil.NewCounting()
	a := array.New[int32](array.WithAllocator(c.Handle()))
	for i := range 5 {
		a.PushBack(int32(i))
	}

	b := a.Clone()
	b.Set(0, 100)
	b.PushBack(5)

	assert.Equal(t, int32(0), a.At(0))
	assert.Equal(t, 5, a.Len())
	assert.Equal(t, 6, b.Len())
	assert.Equal(t, a.Cap(), b.Cap())
	assert.True(t, b.Allocator().Equal(*a.Allocator()))
	assert.Equal(t, 2, c.Live())

	s := array.Of([]int{1}, []int{2})
	sc := s.Clone()
	sc.Set(0, []int{9})
	assert.Equal(t, []int{1}, s.At(0))
}

// TestArray_Move tests ownership transfer.
func TestArray_Move(t *testing.T) {
	c := testutil.NewCounting()
	a := array.New[uint8](array.WithAllocator(c.Handle()), array.WithCapacity(4))
	a.PushBack(1)

	m := a.Move()
	assert.Zero(t, a.Len())
	assert.Zero(t, a.Cap())
	assert.Equal(t, uint8(1), m.At(0))
	assert.True(t, m.Allocator().Equal(c.Handle()))

	a.PushBack(2)
	assert.Equal(t, uint8(2), a.At(0), "moved-from array is reusable")
	assert.Equal(t, 1, c.Allocs, "moved-from array no longer uses the moved allocator")
}

// TestArray_Init tests reinitialization releasing prior storage.
func TestArray_Init(t *testing.T) {
	c := testutil.NewCounting()
	var a array.Array[int64]
	a.Init(array.WithAllocator(c.Handle()), array.WithCapacity(16))
	a.PushBack(1)
	assert.Equal(t, 1, c.Live())

	a.Init()
	assert.Zero(t, c.Live())
	assert.Zero(t, a.Len())
	assert.True(t, a.Allocator().Equal(alloc.Default()))
}

// TestArray_ZeroSized tests element types without storage.
func TestArray_ZeroSized(t *testing.T) {
	a := array.New[struct{}]()
	for range 10 {
		a.PushBack(struct{}{})
	}
	assert.Equal(t, 10, a.Len())
	assert.Equal(t, 16, a.Cap())
	a.EraseUnsorted(3)
	assert.Equal(t, 9, a.Len())
}

// TestArray_BumpAllocator tests an array backed by an arena.
func TestArray_BumpAllocator(t *testing.T) {
	bump := alloc.NewBump(4096)
	a := array.New[[4]float32](array.WithAllocator(alloc.Bind(bump)))
	for i := range 300 {
		a.PushBack([4]float32{float32(i), 0, 0, 1})
	}
	assert.Equal(t, float32(299), a.At(299)[0])
	assert.Positive(t, bump.Len())
}

// TestView tests the read-only view.
func TestView(t *testing.T) {
	var empty array.Array[int]
	assert.True(t, empty.View().Empty())

	a := array.Of(1, 2, 3)
	v := a.View()
	assert.False(t, v.Empty())
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, 2, v.At(1))
	assert.Equal(t, []int{1, 2, 3}, slices.Collect(v.Values()))

	var pairs [][2]int
	for i, x := range v.All() {
		pairs = append(pairs, [2]int{i, x})
	}
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}}, pairs)

	dst := v.Append([]int{0})
	assert.Equal(t, []int{0, 1, 2, 3}, dst)

	testutil.RequirePanicIs(t, array.ErrOutOfRange, func() { v.At(3) })
}
