package memsim

import (
	"fmt"
	"log"
)

// Hierarchy composes a PagedMemory with three cache levels — L3, then
// L2 over L3, then L1 over L2 — in that construction order, and owns the
// Prefetcher state for the L1 access stream. L1 is the only level the
// driver ever addresses directly.
type Hierarchy struct {
	memory *PagedMemory
	l1     *Cache
	l2     *Cache
	l3     *Cache

	prefetchEnabled bool
	prefetcher      *Prefetcher

	logger *log.Logger
}

// L1, L2, L3 expose the cache levels for reporting and tests.
func (h *Hierarchy) L1() *Cache { return h.l1 }
func (h *Hierarchy) L2() *Cache { return h.l2 }
func (h *Hierarchy) L3() *Cache { return h.l3 }

// Memory exposes the shared PagedMemory for reporting and tests.
func (h *Hierarchy) Memory() *PagedMemory { return h.memory }

// Process handles one trace record: it ensures addr's backing page
// exists, runs one prefetcher step if prefetching is enabled, then
// dispatches 'r' to L1.Read and 'w' to L1.Write (with a zero byte, since
// the multi-level trace format carries no write value). Any other op is
// a trace input error and panics with the offending operation.
func (h *Hierarchy) Process(op byte, addr uint32) {
	if !h.memory.PageExists(addr) {
		h.memory.AddPage(addr)
	}

	if h.prefetchEnabled {
		h.prefetcher.Step(addr, h.l1, h.memory)
	}

	switch op {
	case 'r':
		h.l1.Read(addr)
	case 'w':
		h.l1.Write(addr, 0)
	default:
		panic(fmt.Sprintf("memsim: unknown trace operation %q", op))
	}
}

// PrintStatistics prints L1's statistics, which recursively prints L2
// and L3 beneath it.
func (h *Hierarchy) PrintStatistics() {
	h.l1.PrintStatistics()
}

// LevelStats is one row of the per-level accounting a Hierarchy reports,
// matching the multi-level CSV output's columns.
type LevelStats struct {
	Level string
	Statistics
}

// Levels returns the per-level statistics in top-to-bottom (L1, L2, L3)
// order, the shape the multi-level CSV report writes one row per level
// for.
func (h *Hierarchy) Levels() []LevelStats {
	return []LevelStats{
		{Level: "L1", Statistics: h.l1.GetStatistics()},
		{Level: "L2", Statistics: h.l2.GetStatistics()},
		{Level: "L3", Statistics: h.l3.GetStatistics()},
	}
}

// HierarchyBuilder builds a Hierarchy, following the same fluent With*
// shape as CacheBuilder.
type HierarchyBuilder struct {
	l1, l2, l3       Policy
	fifo             bool
	prefetch         bool
	victim           bool
	logger           *log.Logger
}

// NewHierarchyBuilder returns a builder seeded with the default
// geometry: L1 16 KiB/64 B direct-mapped, L2 128 KiB/64 B 8-way, L3
// 2 MiB/64 B 16-way.
func NewHierarchyBuilder() HierarchyBuilder {
	return HierarchyBuilder{
		l1: Policy{CacheSize: 16 * 1024, BlockSize: 64, Associativity: 1, HitLatency: 1, MissLatency: 8},
		l2: Policy{CacheSize: 128 * 1024, BlockSize: 64, Associativity: 8, HitLatency: 4, MissLatency: 16},
		l3: Policy{CacheSize: 2 * 1024 * 1024, BlockSize: 64, Associativity: 16, HitLatency: 12, MissLatency: 40},
	}
}

// WithL1Policy overrides L1's geometry and timing.
func (b HierarchyBuilder) WithL1Policy(p Policy) HierarchyBuilder { b.l1 = p; return b }

// WithL2Policy overrides L2's geometry and timing.
func (b HierarchyBuilder) WithL2Policy(p Policy) HierarchyBuilder { b.l2 = p; return b }

// WithL3Policy overrides L3's geometry and timing.
func (b HierarchyBuilder) WithL3Policy(p Policy) HierarchyBuilder { b.l3 = p; return b }

// WithFIFO selects FIFO replacement at every level instead of LRU.
func (b HierarchyBuilder) WithFIFO(fifo bool) HierarchyBuilder { b.fifo = fifo; return b }

// WithPrefetch enables the L1 stride prefetcher.
func (b HierarchyBuilder) WithPrefetch(enabled bool) HierarchyBuilder { b.prefetch = enabled; return b }

// WithVictim attaches an 8 KiB victim cache behind L1.
func (b HierarchyBuilder) WithVictim(enabled bool) HierarchyBuilder { b.victim = enabled; return b }

// WithLogger overrides the debug channel for every level and the memory.
func (b HierarchyBuilder) WithLogger(l *log.Logger) HierarchyBuilder { b.logger = l; return b }

// Build constructs the PagedMemory and the L3 -> L2 -> L1 chain over it.
func (b HierarchyBuilder) Build() *Hierarchy {
	logger := b.logger
	if logger == nil {
		logger = defaultLogger()
	}

	memory := NewPagedMemory(logger)

	l3 := NewCacheBuilder().
		WithPolicy(b.l3).
		WithFIFO(b.fifo).
		WithMemory(memory).
		WithLogger(logger).
		Build("L3")

	l2 := NewCacheBuilder().
		WithPolicy(b.l2).
		WithFIFO(b.fifo).
		WithMemory(memory).
		WithLower(l3).
		WithLogger(logger).
		Build("L2")

	l1Builder := NewCacheBuilder().
		WithPolicy(b.l1).
		WithFIFO(b.fifo).
		WithMemory(memory).
		WithLower(l2).
		WithLogger(logger)

	if b.victim {
		l1Builder = l1Builder.WithVictim(NewVictimCache(b.l1.BlockSize, memory, logger))
	}

	l1 := l1Builder.Build("L1")

	return &Hierarchy{
		memory:          memory,
		l1:              l1,
		l2:              l2,
		l3:              l3,
		prefetchEnabled: b.prefetch,
		prefetcher:      &Prefetcher{},
		logger:          logger,
	}
}
