package memsim

import "log"

// CacheBuilder builds a Cache. It follows the fluent, value-receiver
// With* builder shape used throughout the teacher codebase for
// components with several optional knobs.
type CacheBuilder struct {
	policy           Policy
	fifo             bool
	discardWriteback bool
	lower            *Cache
	memory           ByteStore
	victim           *Cache
	logger           *log.Logger
}

// NewCacheBuilder returns a builder seeded with a 1-cycle hit latency and
// an 8-cycle miss latency; every other field must be set explicitly.
func NewCacheBuilder() CacheBuilder {
	return CacheBuilder{
		policy: Policy{HitLatency: 1, MissLatency: 8},
	}
}

// WithPolicy sets the cache's geometry and timing.
func (b CacheBuilder) WithPolicy(p Policy) CacheBuilder {
	b.policy = p
	return b
}

// WithCacheSize sets the cache's total byte capacity.
func (b CacheBuilder) WithCacheSize(v uint32) CacheBuilder {
	b.policy.CacheSize = v
	return b
}

// WithBlockSize sets the cache's block (line) size in bytes.
func (b CacheBuilder) WithBlockSize(v uint32) CacheBuilder {
	b.policy.BlockSize = v
	return b
}

// WithAssociativity sets the cache's set associativity.
func (b CacheBuilder) WithAssociativity(v uint32) CacheBuilder {
	b.policy.Associativity = v
	return b
}

// WithLatencies sets the cache's hit and miss latencies, in cycles.
func (b CacheBuilder) WithLatencies(hit, miss uint64) CacheBuilder {
	b.policy.HitLatency = hit
	b.policy.MissLatency = miss
	return b
}

// WithFIFO selects FIFO replacement instead of the default LRU.
func (b CacheBuilder) WithFIFO(fifo bool) CacheBuilder {
	b.fifo = fifo
	return b
}

// WithLower attaches the Cache this cache misses into.
func (b CacheBuilder) WithLower(lower *Cache) CacheBuilder {
	b.lower = lower
	return b
}

// WithMemory attaches the terminal ByteStore — the shared PagedMemory in
// production, a mock in isolated unit tests.
func (b CacheBuilder) WithMemory(memory ByteStore) CacheBuilder {
	b.memory = memory
	return b
}

// WithVictim attaches a fully-associative victim cache.
func (b CacheBuilder) WithVictim(victim *Cache) CacheBuilder {
	b.victim = victim
	return b
}

// WithLogger overrides the debug channel; defaults to stderr.
func (b CacheBuilder) WithLogger(l *log.Logger) CacheBuilder {
	b.logger = l
	return b
}

// AsInstructionCache marks the cache as an instruction cache: dirty data
// is discarded on eviction instead of being written back, since writes
// to an instruction stream are logically impossible in a real system.
func (b CacheBuilder) AsInstructionCache() CacheBuilder {
	b.discardWriteback = true
	return b
}

// Build validates the policy and constructs the Cache, named for
// diagnostics and CSV output (e.g. "L1"). An invalid policy panics: the
// Cache is not constructible.
func (b CacheBuilder) Build(name string) *Cache {
	b.policy.validate()

	logger := b.logger
	if logger == nil {
		logger = defaultLogger()
	}

	blockNum := b.policy.BlockNum()
	c := &Cache{
		name:             name,
		policy:           b.policy,
		fifo:             b.fifo,
		discardWriteback: b.discardWriteback,
		blocks:           make([]Block, blockNum),
		lower:            b.lower,
		memory:           b.memory,
		victim:           b.victim,
		offsetBits:       log2Exact(b.policy.BlockSize),
		setBits:          log2Exact(b.policy.NumSets()),
		logger:           logger,
	}

	for i := range c.blocks {
		c.blocks[i].SetID = uint32(i) / b.policy.Associativity
	}

	return c
}

// victimCacheByteSize is the fixed capacity of every VictimCache,
// independent of the parent cache's own size.
const victimCacheByteSize = 8 * 1024

// NewVictimCache builds the small, fully-associative side buffer used by
// exactly one parent Cache: one set spanning every block, a 1-cycle hit
// latency, an 8-cycle miss latency, sharing the parent's block size and
// the hierarchy's PagedMemory as its own terminal backing store.
func NewVictimCache(blockSize uint32, memory ByteStore, logger *log.Logger) *Cache {
	blockNum := victimCacheByteSize / blockSize
	return NewCacheBuilder().
		WithCacheSize(victimCacheByteSize).
		WithBlockSize(blockSize).
		WithAssociativity(blockNum).
		WithLatencies(1, 8).
		WithMemory(memory).
		WithLogger(logger).
		Build("victim")
}
