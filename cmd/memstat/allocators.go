package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/hashmap"
)

// allocatorOptions tunes the stateful allocators.
type allocatorOptions struct {
	chunkSize  int
	poolConfig string
}

// allocatorSpec describes one selectable allocator.
type allocatorSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// open binds a fresh allocator and returns a snapshot function for its
	// own counters (nil when it keeps none).
	open func(opts allocatorOptions) (alloc.Handle, func() map[string]int, error)
}

var poolConfigs = map[string]alloc.SizeClassConfig{
	"fine":     alloc.ConfigFineGrained,
	"balanced": alloc.ConfigBalanced,
	"coarse":   alloc.ConfigCoarse,
}

// registry maps allocator names, case-insensitively, to their specs.
var registry = newRegistry(
	allocatorSpec{
		Name:        "heap",
		Description: "Go heap, aligned by over-allocation",
		open: func(allocatorOptions) (alloc.Handle, func() map[string]int, error) {
			return alloc.Default(), nil, nil
		},
	},
	allocatorSpec{
		Name:        "mmap",
		Description: "anonymous private mappings, page granular",
		open: func(allocatorOptions) (alloc.Handle, func() map[string]int, error) {
			return alloc.Bind(alloc.Mmap{}), func() map[string]int {
				return map[string]int{"page_size": alloc.PageSize()}
			}, nil
		},
	},
	allocatorSpec{
		Name:        "bump",
		Description: "append-only chunked arena, frees are no-ops",
		open: func(opts allocatorOptions) (alloc.Handle, func() map[string]int, error) {
			b := alloc.NewBump(opts.chunkSize)
			return alloc.Bind(b), func() map[string]int {
				return map[string]int{
					"used":     b.Len(),
					"reserved": b.Cap(),
					"peak":     b.Peak(),
					"allocs":   b.Allocs(),
				}
			}, nil
		},
	},
	allocatorSpec{
		Name:        "pool",
		Description: "size-class free lists over the Go heap",
		open: func(opts allocatorOptions) (alloc.Handle, func() map[string]int, error) {
			cfg, ok := poolConfigs[strings.ToLower(opts.poolConfig)]
			if !ok {
				return alloc.Handle{}, nil, fmt.Errorf("unknown pool config %q (want fine, balanced or coarse)", opts.poolConfig)
			}
			p := alloc.NewPool(cfg)
			return alloc.Bind(p), func() map[string]int {
				s := p.Stats()
				return map[string]int{
					"allocs":  s.Allocs,
					"frees":   s.Frees,
					"hits":    s.Hits,
					"misses":  s.Misses,
					"large":   s.Large,
					"cached":  s.Cached,
					"classes": len(p.ClassSizes()),
				}
			}, nil
		},
	},
)

func newRegistry(specs ...allocatorSpec) *hashmap.Map[string, allocatorSpec] {
	m := hashmap.New[string, allocatorSpec](hashmap.FoldCase[string](), hashmap.WithBucketCount(len(specs)))
	for _, s := range specs {
		m.InsertOrAssign(s.Name, s)
	}
	return m
}

func allocatorNames() []string {
	return slices.Sorted(registry.Keys())
}

func lookupAllocator(name string) (allocatorSpec, error) {
	entry, ok := registry.Get(name)
	if !ok {
		return allocatorSpec{}, fmt.Errorf("unknown allocator %q (available: %s)", name, strings.Join(allocatorNames(), ", "))
	}
	return entry, nil
}

func init() {
	rootCmd.AddCommand(newAllocatorsCmd())
}

func newAllocatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocators",
		Short: "List the allocators run can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocators()
		},
	}
}

func runAllocators() error {
	specs := make([]allocatorSpec, 0, registry.Len())
	for _, name := range allocatorNames() {
		specs = append(specs, registry.MustGet(name))
	}
	if jsonOut {
		return printJSON(specs)
	}
	for _, s := range specs {
		printInfo("%-6s %s\n", s.Name, s.Description)
	}
	return nil
}
