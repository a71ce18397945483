package memsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Policy", func() {
	It("computes block and set counts", func() {
		p := Policy{CacheSize: 1024, BlockSize: 64, Associativity: 4}
		Expect(p.BlockNum()).To(Equal(uint32(16)))
		Expect(p.NumSets()).To(Equal(uint32(4)))
	})

	It("accepts a valid direct-mapped geometry", func() {
		p := Policy{CacheSize: 16 * 1024, BlockSize: 64, Associativity: 1}
		Expect(func() { p.validate() }).NotTo(Panic())
	})

	It("rejects a cache size that is not a power of two", func() {
		p := Policy{CacheSize: 1000, BlockSize: 64, Associativity: 1}
		Expect(func() { p.validate() }).To(Panic())
	})

	It("rejects a block size that is not a power of two", func() {
		p := Policy{CacheSize: 1024, BlockSize: 48, Associativity: 1}
		Expect(func() { p.validate() }).To(Panic())
	})

	It("rejects a cache size not a multiple of the block size", func() {
		p := Policy{CacheSize: 100, BlockSize: 64, Associativity: 1}
		Expect(func() { p.validate() }).To(Panic())
	})

	It("rejects an associativity that doesn't divide the block count", func() {
		p := Policy{CacheSize: 1024, BlockSize: 64, Associativity: 5}
		Expect(func() { p.validate() }).To(Panic())
	})

	It("rejects zero associativity", func() {
		p := Policy{CacheSize: 1024, BlockSize: 64, Associativity: 0}
		Expect(func() { p.validate() }).To(Panic())
	})

	It("always derives a power-of-two set count once the other invariants hold", func() {
		// Once CacheSize and BlockSize are both powers of two and divide
		// evenly, BlockNum is itself a power of two, and every divisor of a
		// power of two is also a power of two — so Associativity dividing
		// BlockNum evenly already guarantees NumSets is a power of two too.
		p := Policy{CacheSize: 2048, BlockSize: 64, Associativity: 8}
		Expect(func() { p.validate() }).NotTo(Panic())
		Expect(p.NumSets()).To(Equal(uint32(4)))
	})
})
