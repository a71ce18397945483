package memsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CacheBuilder", func() {
	It("panics building with an invalid policy", func() {
		memory := NewPagedMemory(nil)
		b := NewCacheBuilder().
			WithPolicy(Policy{CacheSize: 100, BlockSize: 64, Associativity: 1}).
			WithMemory(memory)

		Expect(func() { b.Build("L") }).To(Panic())
	})

	It("assigns structural set-ids to every slot at construction", func() {
		memory := NewPagedMemory(nil)
		c := NewCacheBuilder().
			WithPolicy(Policy{CacheSize: 64, BlockSize: 16, Associativity: 2}).
			WithMemory(memory).
			Build("L")

		Expect(c.blocks).To(HaveLen(4))
		Expect(c.blocks[0].SetID).To(Equal(uint32(0)))
		Expect(c.blocks[1].SetID).To(Equal(uint32(0)))
		Expect(c.blocks[2].SetID).To(Equal(uint32(1)))
		Expect(c.blocks[3].SetID).To(Equal(uint32(1)))
	})

	It("composes individual With* setters equivalently to WithPolicy", func() {
		memory := NewPagedMemory(nil)
		c1 := NewCacheBuilder().
			WithPolicy(Policy{CacheSize: 1024, BlockSize: 64, Associativity: 4, HitLatency: 2, MissLatency: 20}).
			WithMemory(memory).
			Build("A")
		c2 := NewCacheBuilder().
			WithCacheSize(1024).WithBlockSize(64).WithAssociativity(4).WithLatencies(2, 20).
			WithMemory(memory).
			Build("B")

		Expect(c1.policy).To(Equal(c2.policy))
	})
})

var _ = Describe("NewVictimCache", func() {
	It("builds a fully-associative 8 KiB cache sized to the parent's block size", func() {
		memory := NewPagedMemory(nil)
		v := NewVictimCache(64, memory, nil)

		Expect(v.policy.CacheSize).To(Equal(uint32(8 * 1024)))
		Expect(v.policy.BlockSize).To(Equal(uint32(64)))
		Expect(v.policy.Associativity).To(Equal(v.policy.BlockNum()))
		Expect(v.policy.NumSets()).To(Equal(uint32(1)))
	})
})
