package memsim

// Prefetcher is a one-stride next-line predictor keyed on the L1 access
// stream. Once the delta between successive addresses has held steady
// for more than three accesses it starts issuing an unaccounted Fetch at
// address+stride ahead of every subsequent access, and stops once the
// delta has been unstable for more than three accesses in a row.
//
// A Prefetcher's state lives for the duration of a Hierarchy; it is
// unconditional on access type and looks only at the address sequence.
type Prefetcher struct {
	isPrefetching     bool
	stride            int64
	sameStrideCount   int
	diffStrideCount   int
	lastAccessAddress uint32
}

// Step runs one prefetcher tick for addr, issuing a Fetch into l1 first
// if prefetching is currently active, then updating the stride model
// from addr against the previous access.
func (p *Prefetcher) Step(addr uint32, l1 *Cache, memory *PagedMemory) {
	if p.isPrefetching {
		target := uint32(int64(addr) + p.stride)
		if !memory.PageExists(target) {
			memory.AddPage(target)
		}
		l1.Fetch(target)
	}

	currentStride := int64(addr) - int64(p.lastAccessAddress)
	if currentStride == p.stride {
		p.sameStrideCount++
		p.diffStrideCount = 0
	} else {
		p.diffStrideCount++
		p.sameStrideCount = 0
		p.stride = currentStride
	}

	if p.sameStrideCount > 3 {
		p.isPrefetching = true
	}
	if p.diffStrideCount > 3 {
		p.isPrefetching = false
	}

	p.lastAccessAddress = addr
}

// IsPrefetching reports whether the stride predictor currently believes
// it has a stable stride. Exposed for tests and diagnostics only.
func (p *Prefetcher) IsPrefetching() bool {
	return p.isPrefetching
}
