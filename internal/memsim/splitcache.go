package memsim

import (
	"fmt"
	"log"
)

// SplitCache is the single-level instruction/data cache pair addressed
// by a split-cache trace: one Cache for instruction fetches, one for
// data accesses, sharing a single PagedMemory. The instruction cache's
// writeback is a no-op (see Cache.discardWriteback / AsInstructionCache):
// a write that dirties an I-stream block has its dirty data silently
// discarded on eviction instead of reaching memory.
type SplitCache struct {
	memory *PagedMemory
	icache *Cache
	dcache *Cache
}

// ICache and DCache expose the two levels for reporting and tests.
func (s *SplitCache) ICache() *Cache { return s.icache }
func (s *SplitCache) DCache() *Cache { return s.dcache }

// SplitCacheBuilder builds a SplitCache; both caches share one policy
// by default (16 KiB/64 B direct-mapped) but may be set independently.
type SplitCacheBuilder struct {
	icache Policy
	dcache Policy
	logger *log.Logger
}

// NewSplitCacheBuilder returns a builder seeded with a shared 16 KiB/64 B
// direct-mapped policy for both caches.
func NewSplitCacheBuilder() SplitCacheBuilder {
	p := Policy{CacheSize: 16 * 1024, BlockSize: 64, Associativity: 1, HitLatency: 1, MissLatency: 8}
	return SplitCacheBuilder{icache: p, dcache: p}
}

// WithICachePolicy overrides the instruction cache's geometry.
func (b SplitCacheBuilder) WithICachePolicy(p Policy) SplitCacheBuilder { b.icache = p; return b }

// WithDCachePolicy overrides the data cache's geometry.
func (b SplitCacheBuilder) WithDCachePolicy(p Policy) SplitCacheBuilder { b.dcache = p; return b }

// WithLogger overrides the debug channel for both caches and the memory.
func (b SplitCacheBuilder) WithLogger(l *log.Logger) SplitCacheBuilder { b.logger = l; return b }

// Build constructs the shared PagedMemory and the two independent
// single-level caches over it.
func (b SplitCacheBuilder) Build() *SplitCache {
	logger := b.logger
	if logger == nil {
		logger = defaultLogger()
	}

	memory := NewPagedMemory(logger)

	icache := NewCacheBuilder().
		WithPolicy(b.icache).
		WithMemory(memory).
		WithLogger(logger).
		AsInstructionCache().
		Build("ICache")

	dcache := NewCacheBuilder().
		WithPolicy(b.dcache).
		WithMemory(memory).
		WithLogger(logger).
		Build("DCache")

	return &SplitCache{memory: memory, icache: icache, dcache: dcache}
}

// Process handles one split-cache trace record: op is 'r'/'w', kind is
// 'I'/'D' selecting which cache the access goes to. Any other op or kind
// is a trace input error and panics with the offending token.
func (s *SplitCache) Process(op byte, addr uint32, kind byte) {
	if !s.memory.PageExists(addr) {
		s.memory.AddPage(addr)
	}

	var c *Cache
	switch kind {
	case 'I':
		c = s.icache
	case 'D':
		c = s.dcache
	default:
		panic(fmt.Sprintf("memsim: unknown access type %q", kind))
	}

	switch op {
	case 'r':
		c.Read(addr)
	case 'w':
		c.Write(addr, 0)
	default:
		panic(fmt.Sprintf("memsim: unknown trace operation %q", op))
	}
}

// MissRate reports this cache's missCount/totalCycles — a miss-per-cycle
// rate, not a hit/miss fraction, despite the name. The split subcommand's
// CSV and SQLite rows do not use it: they carry Statistics.MissRate (the
// hit/miss fraction) as a percentage, like the multi-level report.
// See SPEC_FULL.md §9 for the disposition of this open question.
func (c *Cache) MissRate() float64 {
	s := c.GetStatistics()
	if s.TotalCycles == 0 {
		return 0
	}
	return float64(s.NumMiss) / float64(s.TotalCycles)
}
