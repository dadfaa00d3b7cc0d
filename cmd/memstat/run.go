package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/mem/array"
	"github.com/joshuapare/memkit/mem/hashmap"
	"github.com/joshuapare/memkit/mem/track"
)

var runFlags = workloadConfig{
	Allocator: "heap",
	Elements:  100_000,
	Keys:      10_000,
	Seed:      1,
	MaxLoad:   hashmap.DefaultMaxLoadFactor,
	opts:      allocatorOptions{poolConfig: "balanced"},
}

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVarP(&runFlags.Allocator, "allocator", "a", runFlags.Allocator, "Allocator backing the containers (see 'memstat allocators')")
	cmd.Flags().IntVarP(&runFlags.Elements, "elements", "n", runFlags.Elements, "Elements pushed into the array")
	cmd.Flags().IntVarP(&runFlags.Keys, "keys", "k", runFlags.Keys, "Keys inserted into the map")
	cmd.Flags().Int64Var(&runFlags.Seed, "seed", runFlags.Seed, "Random seed for the workload")
	cmd.Flags().Float64Var(&runFlags.MaxLoad, "max-load", runFlags.MaxLoad, "Map maximum load factor")
	cmd.Flags().IntVar(&runFlags.opts.chunkSize, "chunk-size", 0, "Bump allocator chunk size in bytes (0 = default)")
	cmd.Flags().StringVar(&runFlags.opts.poolConfig, "pool-config", runFlags.opts.poolConfig, "Pool size classes: fine, balanced or coarse")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a container workload over an allocator",
		Long: `The run command pushes vertices into an array, inserts, looks up and
erases random keys in a hash map, then releases everything and reports what
each container drew from the allocator.

Example:
  memstat run
  memstat run --allocator pool --pool-config fine --elements 1000000
  memstat run --allocator bump --keys 50000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(runFlags)
		},
	}
}

// workloadConfig selects the allocator and sizes the workload.
type workloadConfig struct {
	Allocator string  `json:"allocator"`
	Elements  int     `json:"elements"`
	Keys      int     `json:"keys"`
	Seed      int64   `json:"seed"`
	MaxLoad   float64 `json:"max_load_factor"`

	opts allocatorOptions
}

// phaseTiming is the wall time of one workload phase.
type phaseTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
}

// workloadResult is everything run reports.
type workloadResult struct {
	Config workloadConfig `json:"config"`

	ArrayLen int `json:"array_len"`
	ArrayCap int `json:"array_cap"`

	MapLen        int     `json:"map_len"`
	MapBuckets    int     `json:"map_buckets"`
	MapLoadFactor float64 `json:"map_load_factor"`
	Hits          int     `json:"hits"`
	Misses        int     `json:"misses"`

	Phases         []phaseTiming          `json:"phases"`
	Scopes         map[string]track.Stats `json:"scopes"`
	Total          track.Stats            `json:"total"`
	AllocatorStats map[string]int         `json:"allocator_stats,omitempty"`
}

type vertex struct {
	pos [3]float32
	uv  [2]float32
}

var errLeak = errors.New("scopes still hold memory after release")

func runRun(cfg workloadConfig) error {
	res, err := runWorkload(cfg)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(res)
	}
	printResult(res)
	return nil
}

// runWorkload runs the workload described by cfg and collects its statistics.
func runWorkload(cfg workloadConfig) (*workloadResult, error) {
	if cfg.Elements < 0 || cfg.Keys < 0 {
		return nil, fmt.Errorf("elements and keys must not be negative (got %d, %d)", cfg.Elements, cfg.Keys)
	}
	if !(cfg.MaxLoad > 0) || math.IsInf(cfg.MaxLoad, 0) {
		return nil, fmt.Errorf("max load factor must be positive and finite (got %v)", cfg.MaxLoad)
	}

	entry, err := lookupAllocator(cfg.Allocator)
	if err != nil {
		return nil, err
	}
	h, snapshot, err := entry.open(cfg.opts)
	if err != nil {
		return nil, err
	}

	log := logger.L.With("allocator", entry.Name)
	log.Info("starting workload", "elements", cfg.Elements, "keys", cfg.Keys, "seed", cfg.Seed)

	res := &workloadResult{Config: cfg}
	res.Config.Allocator = entry.Name
	tr := track.NewTracker(h)
	rng := rand.New(rand.NewSource(cfg.Seed))

	phase := func(name string, fn func()) {
		start := time.Now()
		fn()
		d := time.Since(start)
		res.Phases = append(res.Phases, phaseTiming{Name: name, Duration: d})
		log.Debug("phase done", "phase", name, "duration", d)
	}

	verts := array.New[vertex](array.WithAllocator(tr.Scope("vertices")))
	keys := array.New[uint64](array.WithAllocator(tr.Scope("keys")), array.WithCapacity(cfg.Keys))
	index := hashmap.New[uint64, uint32](
		hashmap.WithAllocator(tr.Scope("index")),
		hashmap.WithMaxLoadFactor(cfg.MaxLoad),
	)

	phase("push", func() {
		for i := range cfg.Elements {
			f := float32(i)
			verts.PushBack(vertex{pos: [3]float32{f, f, f}, uv: [2]float32{f, 1 - f}})
		}
	})

	phase("erase", func() {
		for range cfg.Elements / 10 {
			verts.EraseUnsorted(rng.Intn(verts.Len()))
		}
	})

	phase("insert", func() {
		for i := range cfg.Keys {
			k := rng.Uint64()
			keys.PushBack(k)
			index.InsertOrAssign(k, uint32(i))
		}
	})

	phase("lookup", func() {
		for k := range keys.Values() {
			if _, ok := index.Find(k); ok {
				res.Hits++
			}
			if _, ok := index.Find(k ^ 1<<63); !ok {
				res.Misses++
			}
		}
	})

	phase("remove", func() {
		for i, k := range keys.All() {
			if i%2 == 0 {
				index.Erase(k)
			}
		}
	})

	res.ArrayLen, res.ArrayCap = verts.Len(), verts.Cap()
	res.MapLen, res.MapBuckets, res.MapLoadFactor = index.Len(), index.BucketCount(), index.LoadFactor()

	phase("release", func() {
		verts.Release()
		keys.Release()
		index.Release()
	})

	res.Scopes = make(map[string]track.Stats)
	for _, name := range tr.Scopes() {
		res.Scopes[name], _ = tr.Stats(name)
	}
	res.Total = tr.Total()
	if snapshot != nil {
		res.AllocatorStats = snapshot()
	}
	tr.Report(log)

	if leaks := tr.Leaks(); len(leaks) > 0 {
		return res, fmt.Errorf("%w: %s", errLeak, strings.Join(leaks, ", "))
	}
	return res, nil
}

func printResult(res *workloadResult) {
	printInfo("Allocator: %s\n", res.Config.Allocator)
	printInfo("Array: %s elements, capacity %s\n", formatNumber(res.ArrayLen), formatNumber(res.ArrayCap))
	printInfo("Map: %s keys, %s buckets, load factor %.2f (max %.2f)\n",
		formatNumber(res.MapLen), formatNumber(res.MapBuckets), res.MapLoadFactor, res.Config.MaxLoad)
	printInfo("Lookups: %s hits, %s misses\n\n", formatNumber(res.Hits), formatNumber(res.Misses))

	printInfo("Phases:\n")
	for _, p := range res.Phases {
		printInfo("  %-8s %v\n", p.Name, p.Duration)
	}

	printInfo("\nScopes:\n")
	for _, name := range sortedKeys(res.Scopes) {
		s := res.Scopes[name]
		printInfo("  %-9s peak %-10s allocs %-6d frees %-6d live %s\n",
			name, formatBytes(s.Peak), s.Allocs, s.Frees, formatBytes(s.Live))
	}
	printInfo("  %-9s peak %-10s allocs %-6d frees %-6d live %s\n",
		"total", formatBytes(res.Total.Peak), res.Total.Allocs, res.Total.Frees, formatBytes(res.Total.Live))

	if len(res.AllocatorStats) > 0 {
		printVerbose("\nAllocator counters:\n")
		for _, name := range sortedKeys(res.AllocatorStats) {
			printVerbose("  %-9s %s\n", name, formatNumber(res.AllocatorStats[name]))
		}
	}
}
