package memsim

// Access is one replayed trace record: a read or a write of a byte
// address. It is the shape internal/trace.Record is converted to before
// being replayed against the engine, so this package has no dependency
// on the trace file format.
type Access struct {
	Op   byte
	Addr uint32
}

// SweepResult is one row of the single-level parameter sweep's CSV
// output: a cache geometry and the miss rate and cycle total it produced
// over a fixed sequence of accesses.
type SweepResult struct {
	CacheSize     uint32
	BlockSize     uint32
	Associativity uint32
	MissRate      float64
	TotalCycles   uint64
}

// RunSingleLevel replays accesses against one freshly built Cache (with
// its own PagedMemory) for the given policy and FIFO setting, returning
// the resulting statistics. Used by the single-level parameter sweep,
// where each geometry under test gets an independent, empty cache.
func RunSingleLevel(policy Policy, fifo bool, accesses []Access) Statistics {
	c := RunSingleLevelCache(policy, fifo, accesses)
	return c.GetStatistics()
}

// RunSingleLevelCache is RunSingleLevel's cache-returning counterpart,
// used when a caller wants the built Cache itself rather than just its
// final Statistics (e.g. for boundary-behavior tests that inspect block
// residency after the run).
func RunSingleLevelCache(policy Policy, fifo bool, accesses []Access) *Cache {
	memory := NewPagedMemory(nil)
	c := NewCacheBuilder().
		WithPolicy(policy).
		WithFIFO(fifo).
		WithMemory(memory).
		Build("L")

	for _, a := range accesses {
		if !memory.PageExists(a.Addr) {
			memory.AddPage(a.Addr)
		}
		switch a.Op {
		case 'r':
			c.Read(a.Addr)
		case 'w':
			c.Write(a.Addr, 0)
		}
	}

	return c
}
