package memsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Cache over a mocked ByteStore", func() {
	var (
		mockCtrl *gomock.Controller
		store    *MockByteStore
		c        *Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		store = NewMockByteStore(mockCtrl)
		c = NewCacheBuilder().
			WithPolicy(Policy{CacheSize: 64, BlockSize: 16, Associativity: 1, HitLatency: 1, MissLatency: 8}).
			WithMemory(store).
			Build("L")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("fills a missed block byte-by-byte from the store exactly once per byte", func() {
		for i := uint32(0); i < 16; i++ {
			store.EXPECT().GetByte(i).Return(byte(0x11 * i)).Times(1)
		}

		v := c.Read(0)
		Expect(v).To(Equal(byte(0)))
		Expect(c.GetStatistics().NumMiss).To(Equal(uint64(1)))
	})

	It("does not touch the store again on a subsequent hit", func() {
		for i := uint32(0); i < 16; i++ {
			store.EXPECT().GetByte(i).Return(byte(0)).Times(1)
		}

		c.Read(4)
		v := c.Read(4)

		Expect(v).To(Equal(byte(0)))
		Expect(c.GetStatistics().NumHit).To(Equal(uint64(1)))
	})

	It("writes a dirty evicted block to the store one byte at a time", func() {
		// addr 0 and addr 64 decode to the same set (set 0) but different
		// tags, since the policy's 2-bit set field only spans address bits
		// 4..5 — so reading 64 evicts the block written at 0.
		for i := uint32(0); i < 16; i++ {
			store.EXPECT().GetByte(i).Return(byte(0)).Times(1)
			store.EXPECT().GetByte(64 + i).Return(byte(0)).Times(1)
		}
		store.EXPECT().SetByte(uint32(0), byte(0xAB)).Times(1)
		for i := uint32(1); i < 16; i++ {
			store.EXPECT().SetByte(i, byte(0)).Times(1)
		}

		c.Write(0, 0xAB)
		c.Read(64) // evicts the dirty block at addr 0
	})
})
