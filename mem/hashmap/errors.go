package hashmap

import "errors"

var (
	// ErrNotFound indicates MustGet on a key that is not in the map.
	ErrNotFound = errors.New("hashmap: key not found")

	// ErrBadLoadFactor indicates a maximum load factor that is not a positive finite number.
	ErrBadLoadFactor = errors.New("hashmap: invalid max load factor")

	// ErrOption indicates an option that does not apply to the map's key type.
	ErrOption = errors.New("hashmap: invalid option")

	// ErrFull indicates an insert or rehash beyond the node or bucket index range.
	ErrFull = errors.New("hashmap: map is full")

	// ErrCorrupt is returned by CheckInvariants when the bucket chains or node table are inconsistent.
	ErrCorrupt = errors.New("hashmap: invariant violated")
)
