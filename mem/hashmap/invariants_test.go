package hashmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// populated returns a map whose even keys chain in bucket 0 and odd keys in bucket 1.
func populated(t *testing.T) *Map[int, int] {
	t.Helper()
	m := New[int, int](
		WithBucketCount(2),
		WithMaxLoadFactor(8),
		WithHasher(func(k int) uint64 { return uint64(k) }),
	)
	for i := range 10 {
		m.InsertOrAssign(i, i*i)
	}
	require.NoError(t, m.CheckInvariants())
	return m
}

// TestCheckInvariants_DetectsCorruption tests that each kind of broken link is reported.
func TestCheckInvariants_DetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(m *Map[int, int])
	}{
		{"wrong bucket field", func(m *Map[int, int]) {
			nd := m.nodes.Ref(0)
			nd.bucket ^= 1
		}},
		{"broken prev link", func(m *Map[int, int]) {
			head := m.buckets.At(0)
			m.nodes.Ref(int(m.nodes.Ref(int(head)).next)).prev = noNode
		}},
		{"cycle", func(m *Map[int, int]) {
			head := m.buckets.At(0)
			m.nodes.Ref(int(head)).next = head
		}},
		{"orphan node", func(m *Map[int, int]) {
			m.buckets.Set(1, noNode)
		}},
		{"dangling head", func(m *Map[int, int]) {
			m.buckets.Set(0, 99)
		}},
		{"duplicate key", func(m *Map[int, int]) {
			m.nodes.Ref(9).key = m.nodes.Ref(7).key
		}},
		{"overloaded", func(m *Map[int, int]) {
			m.maxLoad = 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := populated(t)
			tt.corrupt(m)
			require.ErrorIs(t, m.CheckInvariants(), ErrCorrupt)
		})
	}
}

// TestInsert_LinksAtHead tests that new nodes become their chain's head.
func TestInsert_LinksAtHead(t *testing.T) {
	m := New[int, int](WithBucketCount(1), WithMaxLoadFactor(10))
	for i := range 3 {
		m.InsertOrAssign(i, i)
		require.Equal(t, uint32(i), m.buckets.At(0))
	}
	require.Equal(t, uint32(1), m.nodes.Ref(2).next)
	require.Equal(t, uint32(0), m.nodes.Ref(1).next)
	require.Equal(t, noNode, m.nodes.Ref(0).next)
	require.Equal(t, uint32(2), m.nodes.Ref(1).prev)
}

// TestRehash_RelinksInPlace tests that rehashing changes chain links only.
func TestRehash_RelinksInPlace(t *testing.T) {
	m := New[string, int](WithBucketCount(1), WithMaxLoadFactor(1))
	m.InsertOrAssign("a", 1)
	m.InsertOrAssign("b", 2)
	m.InsertOrAssign("c", 3)
	require.Equal(t, "a", m.nodes.Ref(0).key)
	require.Equal(t, "b", m.nodes.Ref(1).key)
	require.Equal(t, "c", m.nodes.Ref(2).key)
	for i := range 3 {
		nd := m.nodes.Ref(i)
		require.Equal(t, m.bucketOf(nd.key), nd.bucket)
	}
}

// TestLimits tests that the node and bucket limits fit a 32-bit int and stay below noNode.
func TestLimits(t *testing.T) {
	var nodes, buckets int32 = maxNodes, maxBuckets
	require.Less(t, uint64(nodes), uint64(noNode))
	require.LessOrEqual(t, int64(buckets), int64(math.MaxInt32))
	require.Equal(t, 0, maxBuckets&(maxBuckets-1), "bucket limit is a power of two")
}
