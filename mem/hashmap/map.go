// Package hashmap provides Map, a hash map whose entries live in a dense node
// table and whose bucket chains link nodes by index.
//
// # Layout
//
// A Map owns two arrays: a bucket table holding the index of the first node
// of each chain, and a node table holding key, value, bucket and the
// prev/next indices of the node's chain. Nodes occupy indices [0, Len()) with
// no holes:
//
//	buckets: [ 2 | - | 0 | - ]
//	nodes:   [ k0 v0 b2 p- n1 | k1 v1 b2 p0 n- | k2 v2 b0 p- n- ]
//
// Indices survive reallocation of either table, so growing never relinks.
//
// # Operations
//
//   - Insert appends a node and links it at the head of its bucket's chain.
//     When the insert would push Len()/BucketCount() over the maximum load
//     factor, the bucket count doubles first and every node is relinked in
//     place.
//   - Erase unlinks the node, moves the last node into its slot and fixes
//     the moved node's neighbours, keeping the node table dense.
//   - Positions returned by Find and InsertOrAssign are node indices. They
//     stay valid until the next Erase.
//
// Looking up or erasing a missing key is not an error. GetOrInsert inserts a
// zero value for a missing key; use Find or Get for lookups that must not
// mutate the map.
//
// Builds with the memkit_debug tag run CheckInvariants after every mutation.
package hashmap

import (
	"fmt"
	"hash/maphash"
	"iter"
	"math"
	"reflect"

	"github.com/joshuapare/memkit/internal/debug"
	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/array"
)

const (
	// DefaultBucketCount is the bucket count of a map created without WithBucketCount.
	DefaultBucketCount = 8

	// DefaultMaxLoadFactor is the load factor of a map created without WithMaxLoadFactor.
	DefaultMaxLoadFactor = 1.0

	// noNode terminates chains and marks empty buckets.
	noNode = ^uint32(0)

	// maxNodes keeps every node index distinct from noNode and within a
	// 32-bit int.
	maxNodes = math.MaxInt32

	// maxBuckets is the largest bucket count doubling may reach.
	maxBuckets = 1 << 30
)

type node[K comparable, V any] struct {
	key    K
	value  V
	bucket uint32
	prev   uint32
	next   uint32
}

// Map is a hash map from K to V. The zero value is an empty map with default
// settings.
type Map[K comparable, V any] struct {
	buckets array.Array[uint32]
	nodes   array.Array[node[K, V]]

	initial int
	maxLoad float64
	hash    func(K) uint64
	equal   func(a, b K) bool
}

// New returns an empty map configured by opts. It panics with ErrOption or
// ErrBadLoadFactor on an invalid option.
func New[K comparable, V any](opts ...Option) *Map[K, V] {
	m := &Map[K, V]{
		initial: DefaultBucketCount,
		maxLoad: DefaultMaxLoadFactor,
	}
	h := alloc.Default()
	for _, opt := range opts {
		switch o := opt.(type) {
		case bucketCountOption:
			m.initial = max(int(o), 1)
		case maxLoadOption:
			m.maxLoad = checkLoad(float64(o))
		case allocatorOption:
			if !o.h.IsEmpty() {
				h = o.h
			}
		case keyOption[K]:
			if o.hash != nil {
				m.hash = o.hash
			}
			if o.equal != nil {
				m.equal = o.equal
			}
		default:
			panic(fmt.Errorf("%w: %T does not apply to keys of type %v", ErrOption, opt, reflect.TypeFor[K]()))
		}
	}
	m.initial = min(m.initial, maxBuckets)
	m.buckets.Init(array.WithAllocator(h.Copy()), array.WithCapacity(m.initial))
	m.nodes.Init(array.WithAllocator(h))
	m.lazyInit()
	return m
}

func checkLoad(f float64) float64 {
	if !(f > 0) || math.IsInf(f, 0) {
		panic(fmt.Errorf("%w: %v", ErrBadLoadFactor, f))
	}
	return f
}

// lazyInit fills in defaults for a zero or released map.
func (m *Map[K, V]) lazyInit() {
	if m.hash == nil {
		seed := maphash.MakeSeed()
		m.hash = func(k K) uint64 {
			return maphash.Comparable(seed, k)
		}
	}
	if m.equal == nil {
		m.equal = func(a, b K) bool { return a == b }
	}
	if m.maxLoad == 0 {
		m.maxLoad = DefaultMaxLoadFactor
	}
	if m.initial == 0 {
		m.initial = DefaultBucketCount
	}
	if m.buckets.Len() == 0 {
		m.buckets.ResizeWith(m.initial, noNode)
	}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return m.nodes.Len() }

// BucketCount returns the number of buckets. It is at least 1.
func (m *Map[K, V]) BucketCount() int {
	m.lazyInit()
	return m.buckets.Len()
}

// LoadFactor returns Len() / BucketCount().
func (m *Map[K, V]) LoadFactor() float64 {
	return float64(m.Len()) / float64(m.BucketCount())
}

// MaxLoadFactor returns the highest load factor allowed after an insert.
func (m *Map[K, V]) MaxLoadFactor() float64 {
	m.lazyInit()
	return m.maxLoad
}

// SetMaxLoadFactor changes the maximum load factor, rehashing if the map is
// already above it.
func (m *Map[K, V]) SetMaxLoadFactor(f float64) {
	m.lazyInit()
	m.maxLoad = checkLoad(f)
	if n := m.bucketsFor(m.Len()); n > m.buckets.Len() {
		m.rehash(n)
	}
	m.verify()
}

// Allocator returns the allocator of the node table.
func (m *Map[K, V]) Allocator() *alloc.Handle {
	return m.nodes.Allocator()
}

func (m *Map[K, V]) bucketOf(k K) uint32 {
	return uint32(m.hash(k) % uint64(m.buckets.Len()))
}

// find returns the node index holding k, or noNode.
func (m *Map[K, V]) find(k K) uint32 {
	if m.nodes.Len() == 0 {
		return noNode
	}
	for i := m.buckets.At(int(m.bucketOf(k))); i != noNode; {
		nd := m.nodes.Ref(int(i))
		if m.equal(nd.key, k) {
			return i
		}
		i = nd.next
	}
	return noNode
}

// bucketsFor returns the bucket count, doubled from the current one as often
// as needed, that keeps n entries within the maximum load factor.
func (m *Map[K, V]) bucketsFor(n int) int {
	b := m.buckets.Len()
	for float64(n)/float64(b) > m.maxLoad {
		if b >= maxBuckets {
			panic(fmt.Errorf("%w: %d entries at load factor %v", ErrFull, n, m.maxLoad))
		}
		b *= 2
	}
	return b
}

// InsertOrAssign stores v under k. If k is present its value is overwritten
// in place and inserted is false. It returns the node position of k.
func (m *Map[K, V]) InsertOrAssign(k K, v V) (pos int, inserted bool) {
	m.lazyInit()
	if i := m.find(k); i != noNode {
		m.nodes.Ref(int(i)).value = v
		return int(i), false
	}

	n := m.nodes.Len()
	if n >= maxNodes {
		panic(fmt.Errorf("%w: %d entries", ErrFull, n))
	}
	if b := m.bucketsFor(n + 1); b > m.buckets.Len() {
		m.rehash(b)
	}

	b := m.bucketOf(k)
	head := m.buckets.At(int(b))
	if head != noNode {
		m.nodes.Ref(int(head)).prev = uint32(n)
	}
	m.nodes.PushBack(node[K, V]{key: k, value: v, bucket: b, prev: noNode, next: head})
	m.buckets.Set(int(b), uint32(n))

	m.verify()
	return n, true
}

// link puts node i at the head of its bucket's chain.
func (m *Map[K, V]) link(i uint32) {
	nd := m.nodes.Ref(int(i))
	nd.bucket = m.bucketOf(nd.key)
	nd.prev = noNode
	nd.next = m.buckets.At(int(nd.bucket))
	if nd.next != noNode {
		m.nodes.Ref(int(nd.next)).prev = i
	}
	m.buckets.Set(int(nd.bucket), i)
}

// unlink removes node i from its chain.
func (m *Map[K, V]) unlink(i uint32) {
	nd := m.nodes.Ref(int(i))
	if nd.prev != noNode {
		m.nodes.Ref(int(nd.prev)).next = nd.next
	} else {
		m.buckets.Set(int(nd.bucket), nd.next)
	}
	if nd.next != noNode {
		m.nodes.Ref(int(nd.next)).prev = nd.prev
	}
}

// rehash sets the bucket count to n and relinks every node in place.
func (m *Map[K, V]) rehash(n int) {
	m.buckets.Resize(n)
	for i := range n {
		m.buckets.Set(i, noNode)
	}
	for i := range m.nodes.Len() {
		m.link(uint32(i))
	}
}

// Rehash grows the bucket count by doubling until it is at least n and fits
// the current entries. It never shrinks the bucket table.
func (m *Map[K, V]) Rehash(n int) {
	m.lazyInit()
	b := m.buckets.Len()
	for b < n && b < maxBuckets {
		b *= 2
	}
	b = max(b, m.bucketsFor(m.Len()))
	if b > m.buckets.Len() {
		m.rehash(b)
	}
	m.verify()
}

// Reserve makes room for n entries without further rehashing or node table
// growth.
func (m *Map[K, V]) Reserve(n int) {
	m.lazyInit()
	if b := m.bucketsFor(n); b > m.buckets.Len() {
		m.rehash(b)
	}
	m.nodes.Reserve(n)
	m.verify()
}

// Find returns the node position of k.
func (m *Map[K, V]) Find(k K) (pos int, ok bool) {
	m.lazyInit()
	if i := m.find(k); i != noNode {
		return int(i), true
	}
	return -1, false
}

// Get returns the value stored under k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.lazyInit()
	if i := m.find(k); i != noNode {
		return m.nodes.Ref(int(i)).value, true
	}
	var zero V
	return zero, false
}

// Contains reports whether k is present.
func (m *Map[K, V]) Contains(k K) bool {
	_, ok := m.Find(k)
	return ok
}

// MustGet returns the value stored under k and panics with ErrNotFound if
// there is none.
func (m *Map[K, V]) MustGet(k K) V {
	v, ok := m.Get(k)
	if !ok {
		panic(fmt.Errorf("%w: %v", ErrNotFound, k))
	}
	return v
}

// GetOrInsert returns a pointer to the value stored under k, inserting a zero
// value first if k is missing. The pointer is valid until the next insert or
// erase.
func (m *Map[K, V]) GetOrInsert(k K) *V {
	m.lazyInit()
	i := m.find(k)
	if i == noNode {
		var zero V
		pos, _ := m.InsertOrAssign(k, zero)
		i = uint32(pos)
	}
	return &m.nodes.Ref(int(i)).value
}

// Erase removes k and reports whether it was present. The last node moves
// into the erased position.
func (m *Map[K, V]) Erase(k K) bool {
	m.lazyInit()
	i := m.find(k)
	if i == noNode {
		return false
	}
	m.EraseAt(int(i))
	return true
}

// EraseAt removes the entry at node position pos. The last node moves into
// pos. It panics with array.ErrOutOfRange if pos is not in [0, Len()).
func (m *Map[K, V]) EraseAt(pos int) {
	m.nodes.Ref(pos) // bounds check
	i, last := uint32(pos), uint32(m.nodes.Len()-1)
	m.unlink(i)
	m.nodes.EraseUnsorted(pos)

	if i != last {
		// Node last now sits at i; point its neighbours at the new index.
		nd := m.nodes.Ref(pos)
		if nd.prev != noNode {
			m.nodes.Ref(int(nd.prev)).next = i
		} else {
			m.buckets.Set(int(nd.bucket), i)
		}
		if nd.next != noNode {
			m.nodes.Ref(int(nd.next)).prev = i
		}
	}
	m.verify()
}

// Clear removes every entry and keeps the bucket count.
func (m *Map[K, V]) Clear() {
	m.lazyInit()
	m.nodes.Clear()
	for i := range m.buckets.Len() {
		m.buckets.Set(i, noNode)
	}
	m.verify()
}

// KeyAt returns the key at node position pos.
func (m *Map[K, V]) KeyAt(pos int) K {
	return m.nodes.Ref(pos).key
}

// ValueAt returns the value at node position pos.
func (m *Map[K, V]) ValueAt(pos int) V {
	return m.nodes.Ref(pos).value
}

// RefAt returns a pointer to the value at node position pos, valid until the
// next insert or erase.
func (m *Map[K, V]) RefAt(pos int) *V {
	return &m.nodes.Ref(pos).value
}

// All iterates over entries in node order. The map must not be modified
// during iteration.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, nd := range m.nodes.All() {
			if !yield(nd.key, nd.value) {
				return
			}
		}
	}
}

// Keys iterates over keys in node order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for nd := range m.nodes.Values() {
			if !yield(nd.key) {
				return
			}
		}
	}
}

// Values iterates over values in node order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for nd := range m.nodes.Values() {
			if !yield(nd.value) {
				return
			}
		}
	}
}

// Clone returns a deep copy sharing the hash and equality functions.
func (m *Map[K, V]) Clone() *Map[K, V] {
	m.lazyInit()
	return &Map[K, V]{
		buckets: *m.buckets.Clone(),
		nodes:   *m.nodes.Clone(),
		initial: m.initial,
		maxLoad: m.maxLoad,
		hash:    m.hash,
		equal:   m.equal,
	}
}

// Move transfers the entries and settings to the returned map and leaves m
// as a zero Map.
func (m *Map[K, V]) Move() *Map[K, V] {
	out := &Map[K, V]{
		buckets: *m.buckets.Move(),
		nodes:   *m.nodes.Move(),
		initial: m.initial,
		maxLoad: m.maxLoad,
		hash:    m.hash,
		equal:   m.equal,
	}
	*m = Map[K, V]{}
	return out
}

// Release drops every entry and frees both tables. Settings are kept and the
// bucket table is recreated at its initial size on next use.
func (m *Map[K, V]) Release() {
	m.nodes.Release()
	m.buckets.Release()
}

func (m *Map[K, V]) verify() {
	if !debug.Enabled {
		return
	}
	if err := m.CheckInvariants(); err != nil {
		panic(err)
	}
}

// CheckInvariants walks every chain and node and reports the first
// inconsistency: a node outside its hashed bucket, a broken prev/next link, a
// cycle, a node reachable from no chain, a duplicate key, or a load factor
// above the maximum.
func (m *Map[K, V]) CheckInvariants() error {
	m.lazyInit()
	nb, n := m.buckets.Len(), m.nodes.Len()
	if nb < 1 {
		return fmt.Errorf("%w: bucket count %d", ErrCorrupt, nb)
	}
	if float64(n)/float64(nb) > m.maxLoad {
		return fmt.Errorf("%w: load factor %v above %v", ErrCorrupt, float64(n)/float64(nb), m.maxLoad)
	}

	seen := make([]bool, n)
	reached := 0
	for b := range nb {
		prev := noNode
		steps := 0
		for i := m.buckets.At(b); i != noNode; {
			if int(i) >= n {
				return fmt.Errorf("%w: bucket %d links node %d of %d", ErrCorrupt, b, i, n)
			}
			if seen[i] {
				return fmt.Errorf("%w: node %d reached twice (bucket %d)", ErrCorrupt, i, b)
			}
			if steps++; steps > n {
				return fmt.Errorf("%w: bucket %d chain longer than node count", ErrCorrupt, b)
			}
			seen[i] = true
			reached++

			nd := m.nodes.Ref(int(i))
			if nd.bucket != uint32(b) {
				return fmt.Errorf("%w: node %d records bucket %d, chained in %d", ErrCorrupt, i, nd.bucket, b)
			}
			if want := m.bucketOf(nd.key); want != nd.bucket {
				return fmt.Errorf("%w: node %d hashes to bucket %d, chained in %d", ErrCorrupt, i, want, b)
			}
			if nd.prev != prev {
				return fmt.Errorf("%w: node %d prev is %d, want %d", ErrCorrupt, i, nd.prev, prev)
			}
			prev = i
			i = nd.next
		}
	}
	if reached != n {
		return fmt.Errorf("%w: %d of %d nodes reachable from buckets", ErrCorrupt, reached, n)
	}

	for i := range n {
		if got := m.find(m.nodes.Ref(i).key); got != uint32(i) {
			return fmt.Errorf("%w: key of node %d resolves to node %d", ErrCorrupt, i, got)
		}
	}
	return nil
}
