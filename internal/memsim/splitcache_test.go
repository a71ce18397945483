package memsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SplitCache", func() {
	It("routes 'I' accesses to the instruction cache and 'D' accesses to the data cache", func() {
		sc := NewSplitCacheBuilder().Build()

		sc.Process('r', 0, 'I')
		sc.Process('r', 0x10000, 'D')

		Expect(sc.ICache().InCache(0)).To(BeTrue())
		Expect(sc.DCache().InCache(0x10000)).To(BeTrue())
		Expect(sc.ICache().InCache(0x10000)).To(BeFalse())
	})

	It("scenario 6: a write that dirties an instruction-cache block never mutates memory on eviction", func() {
		sc := NewSplitCacheBuilder().
			WithICachePolicy(Policy{CacheSize: 64, BlockSize: 64, Associativity: 1, HitLatency: 1, MissLatency: 8}).
			Build()

		sc.Process('w', 0, 'I')
		Expect(sc.ICache().lookup(0).Modified).To(BeTrue())

		sc.Process('r', 0x40, 'I') // same single set: forces eviction of address 0's block

		Expect(sc.ICache().InCache(0)).To(BeFalse())
		Expect(sc.memory.GetByte(0)).To(Equal(byte(0)))
	})

	It("rejects an unknown access type", func() {
		sc := NewSplitCacheBuilder().Build()
		Expect(func() { sc.Process('r', 0, 'X') }).To(Panic())
	})

	It("rejects an unknown trace operation", func() {
		sc := NewSplitCacheBuilder().Build()
		Expect(func() { sc.Process('x', 0, 'D') }).To(Panic())
	})

	It("reports the preserved miss-per-cycle MissRate formula, not a hit/miss fraction", func() {
		memory := NewPagedMemory(nil)
		c := NewCacheBuilder().
			WithPolicy(Policy{CacheSize: 64, BlockSize: 64, Associativity: 1, HitLatency: 1, MissLatency: 8}).
			WithMemory(memory).
			Build("L")

		memory.AddPage(0)
		c.Read(0) // one miss, 8 cycles

		Expect(c.MissRate()).To(Equal(float64(1) / float64(8)))
	})
})
