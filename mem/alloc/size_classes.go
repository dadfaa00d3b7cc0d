package alloc

import (
	"math"

	"github.com/joshuapare/memkit/internal/buf"
)

// SizeClassConfig defines the size class layout of a Pool.
// Different configurations trade internal fragmentation against the number of
// free lists.
type SizeClassConfig struct {
	// Name for this configuration (for benchmarking and reports)
	Name string

	// Small allocation settings (linear increments)
	SmallMin       int // Smallest class size, a multiple of 8
	SmallMax       int // Largest class size served by linear increments
	SmallIncrement int // Increment between small classes, a multiple of 8

	// Medium allocation settings (geometric growth)
	MediumMax    int     // Largest pooled block; bigger requests bypass the pool
	GrowthFactor float64 // Ratio between consecutive medium classes (> 1)

	// MaxFreePerClass caps how many blocks each free list retains.
	MaxFreePerClass int
}

// Predefined configurations.
var (
	// FineGrained: many small classes, little slack for small element types.
	ConfigFineGrained = SizeClassConfig{
		Name:            "FineGrained",
		SmallMin:        8,
		SmallMax:        256,
		SmallIncrement:  8,
		MediumMax:       16384,
		GrowthFactor:    1.5,
		MaxFreePerClass: 64,
	}

	// Balanced: good default for container backing stores.
	ConfigBalanced = SizeClassConfig{
		Name:            "Balanced",
		SmallMin:        16,
		SmallMax:        512,
		SmallIncrement:  16,
		MediumMax:       64 << 10,
		GrowthFactor:    1.5,
		MaxFreePerClass: 256,
	}

	// Coarse: power-of-two classes, matching the growth policy of array.Array.
	ConfigCoarse = SizeClassConfig{
		Name:            "Coarse",
		SmallMin:        16,
		SmallMax:        16,
		SmallIncrement:  16,
		MediumMax:       1 << 20,
		GrowthFactor:    2.0,
		MaxFreePerClass: 32,
	}

	// DefaultConfig is used by NewPool when given a zero config.
	DefaultConfig = ConfigBalanced
)

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config     SizeClassConfig
	boundaries []int // Block size of each class, ascending
}

// newSizeClassTable computes size class boundaries from config.
func newSizeClassTable(config SizeClassConfig) *sizeClassTable {
	table := &sizeClassTable{
		config:     config,
		boundaries: make([]int, 0, 64),
	}

	// Phase 1: small classes (linear increments)
	small := max(buf.AlignUp(config.SmallMin, 8), 8)
	inc := max(buf.AlignUp(config.SmallIncrement, 8), 8)
	for size := small; size <= config.SmallMax; size += inc {
		table.boundaries = append(table.boundaries, size)
	}

	// Phase 2: medium classes (geometric growth)
	size := small
	if n := len(table.boundaries); n > 0 {
		size = table.boundaries[n-1]
	}
	growth := config.GrowthFactor
	if growth <= 1 {
		growth = 2
	}
	for size < config.MediumMax {
		next := buf.AlignUp(int(math.Ceil(float64(size)*growth)), 8)
		if next <= size {
			next = size + 8 // Ensure progress
		}
		next = min(next, config.MediumMax)
		table.boundaries = append(table.boundaries, next)
		size = next
	}

	return table
}

// classFor returns the smallest class whose block holds size bytes, or -1
// when size is larger than every class.
func (t *sizeClassTable) classFor(size int) int {
	lo, hi := 0, len(t.boundaries)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if t.boundaries[mid] < size {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(t.boundaries) {
		return -1
	}
	return lo
}

// exactClass returns the class whose block size is exactly n, or -1.
func (t *sizeClassTable) exactClass(n int) int {
	c := t.classFor(n)
	if c < 0 || t.boundaries[c] != n {
		return -1
	}
	return c
}

// String returns the configuration name.
func (t *sizeClassTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of size classes.
func (t *sizeClassTable) NumClasses() int {
	return len(t.boundaries)
}
