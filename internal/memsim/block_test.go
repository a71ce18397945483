package memsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Statistics", func() {
	It("reports zero miss rate with no accesses", func() {
		var s Statistics
		Expect(s.MissRate()).To(Equal(0.0))
	})

	It("computes the hit/miss fraction, ignoring read/write counts", func() {
		s := Statistics{NumRead: 100, NumWrite: 50, NumHit: 3, NumMiss: 1}
		Expect(s.MissRate()).To(Equal(0.25))
	})
})
