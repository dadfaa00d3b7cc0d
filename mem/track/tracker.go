// Package track attributes allocations to named scopes.
//
// A Tracker wraps an inner allocator handle. Each call to Scope returns a
// handle that forwards to the inner allocator and charges the bytes to the
// scope's Stats, so containers built on different scope handles can be
// accounted separately:
//
//	t := track.NewTracker(alloc.Default())
//	meshes := array.New[Vertex](array.WithAllocator(t.Scope("meshes")))
//	lights := hashmap.New[string, Light](hashmap.WithAllocator(t.Scope("lights")))
//	...
//	t.Report(logger.L)
//
// Only bytes that reach the allocator are counted. Containers keep elements
// that hold Go pointers in collector-managed storage, and those never pass
// through a scope.
package track

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/hashmap"
)

// Stats is the allocation activity of one scope.
type Stats struct {
	Live   int // bytes allocated and not yet deallocated
	Peak   int // high-water mark of Live
	Allocs int // Allocate calls
	Frees  int // Deallocate calls
}

// Tracker counts allocations per scope. It is not safe for concurrent use.
type Tracker struct {
	inner  alloc.Handle
	scopes hashmap.Map[string, Stats]

	live int
	peak int
}

// NewTracker returns a tracker forwarding to inner. An empty inner selects
// alloc.Default().
func NewTracker(inner alloc.Handle) *Tracker {
	if inner.IsEmpty() {
		inner = alloc.Default()
	}
	return &Tracker{inner: inner}
}

// Scope returns a handle whose allocations are charged to name. Handles for
// the same tracker and name compare equal.
func (t *Tracker) Scope(name string) alloc.Handle {
	t.scopes.GetOrInsert(name)
	return alloc.Bind(scoped{t: t, name: name})
}

// Stats returns the activity of scope name.
func (t *Tracker) Stats(name string) (Stats, bool) {
	return t.scopes.Get(name)
}

// Scopes returns every scope name, sorted.
func (t *Tracker) Scopes() []string {
	return slices.Sorted(t.scopes.Keys())
}

// Total returns the activity summed over all scopes. Peak is the high-water
// mark of the combined live bytes.
func (t *Tracker) Total() Stats {
	total := Stats{Live: t.live, Peak: t.peak}
	for s := range t.scopes.Values() {
		total.Allocs += s.Allocs
		total.Frees += s.Frees
	}
	return total
}

// Leaks returns the sorted names of scopes that still hold live bytes.
func (t *Tracker) Leaks() []string {
	var names []string
	for name, s := range t.scopes.All() {
		if s.Live != 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Report logs one record per scope and a summary. Scopes with live bytes
// are logged at warning level.
func (t *Tracker) Report(log *slog.Logger) {
	for _, name := range t.Scopes() {
		s, _ := t.scopes.Get(name)
		level := slog.LevelInfo
		if s.Live != 0 {
			level = slog.LevelWarn
		}
		log.Log(context.Background(), level, "allocation scope",
			"scope", name,
			"live", s.Live,
			"peak", s.Peak,
			"allocs", s.Allocs,
			"frees", s.Frees,
		)
	}
	total := t.Total()
	log.Info("allocation total",
		"allocator", t.inner.Name(),
		"scopes", t.scopes.Len(),
		"live", total.Live,
		"peak", total.Peak,
		"allocs", total.Allocs,
		"frees", total.Frees,
	)
}

func (t *Tracker) charge(name string, delta int) {
	s := t.scopes.GetOrInsert(name)
	if s.Live+delta < 0 {
		panic(fmt.Errorf("%w: scope %q frees %d bytes with %d live", alloc.ErrForeignBlock, name, -delta, s.Live))
	}
	s.Live += delta
	if delta > 0 {
		s.Allocs++
		s.Peak = max(s.Peak, s.Live)
	} else {
		s.Frees++
	}
	t.live += delta
	t.peak = max(t.peak, t.live)
}

// scoped is the allocator behind a Scope handle.
type scoped struct {
	t    *Tracker
	name string
}

func (s scoped) Allocate(size, align int) []byte {
	b := s.t.inner.Allocate(size, align)
	s.t.charge(s.name, size)
	return b
}

func (s scoped) Deallocate(b []byte) {
	s.t.charge(s.name, -len(b))
	s.t.inner.Deallocate(b)
}
