// Package memsim implements the cache and paged-memory engine that a
// memory-hierarchy trace simulation is built on: a demand-paged backing
// store, set-associative caches with LRU or FIFO replacement, an optional
// victim cache, a stride prefetcher, and the hierarchy that wires them
// together.
package memsim

import "fmt"

// Policy is the immutable geometry and timing of a single Cache. It is
// validated once, at construction time, and never changes afterwards.
type Policy struct {
	CacheSize     uint32
	BlockSize     uint32
	Associativity uint32
	HitLatency    uint64
	MissLatency   uint64
}

// BlockNum returns the total number of blocks the policy describes.
func (p Policy) BlockNum() uint32 {
	return p.CacheSize / p.BlockSize
}

// NumSets returns the number of sets the policy describes.
func (p Policy) NumSets() uint32 {
	return p.BlockNum() / p.Associativity
}

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// validate checks the construction invariants from the cache geometry
// contract. A violation is a configuration error and is fatal: the Cache
// that would result is not constructible.
func (p Policy) validate() {
	if !isPowerOfTwo(p.CacheSize) {
		panic(fmt.Sprintf("memsim: cache size %d is not a power of two", p.CacheSize))
	}
	if !isPowerOfTwo(p.BlockSize) {
		panic(fmt.Sprintf("memsim: block size %d is not a power of two", p.BlockSize))
	}
	if p.CacheSize%p.BlockSize != 0 {
		panic(fmt.Sprintf(
			"memsim: cache size %d is not a multiple of block size %d",
			p.CacheSize, p.BlockSize))
	}

	blockNum := p.BlockNum()
	if blockNum*p.BlockSize != p.CacheSize {
		panic(fmt.Sprintf(
			"memsim: block num %d times block size %d does not reconstruct cache size %d",
			blockNum, p.BlockSize, p.CacheSize))
	}
	if p.Associativity == 0 || blockNum%p.Associativity != 0 {
		panic(fmt.Sprintf(
			"memsim: block num %d is not divisible by associativity %d",
			blockNum, p.Associativity))
	}

	// The address decomposition into tag/set/offset slices bits, which
	// requires the number of sets to itself be a power of two.
	if !isPowerOfTwo(p.NumSets()) {
		panic(fmt.Sprintf(
			"memsim: number of sets %d is not a power of two", p.NumSets()))
	}
}
