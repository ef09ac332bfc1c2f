package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	var freq Freq

	BeforeEach(func() {
		freq = 1 * GHz
	})

	It("should get period", func() {
		Expect(freq.Period()).To(BeNumerically("~", 1e-9, 1e-15))
	})

	It("should get the next tick", func() {
		Expect(freq.NextTick(102.000000001)).To(
			BeNumerically("~", 102.000000002, 1e-12))
	})

	It("should round up to the current tick", func() {
		Expect(freq.ThisTick(102.0000000015)).To(
			BeNumerically("~", 102.000000002, 1e-12))
		Expect(freq.ThisTick(3 * Nanosecond)).To(
			BeNumerically("~", 3*Nanosecond, 1e-15))
	})

	It("should count cycles", func() {
		Expect(freq.Cycle(25 * Nanosecond)).To(Equal(uint64(25)))
	})

	It("should get the time n cycles later", func() {
		Expect(freq.NCyclesLater(12, 102.000000001)).To(
			BeNumerically("~", 102.000000013, 1e-12))
	})

	It("should panic on a zero frequency", func() {
		Expect(func() { Freq(0).Period() }).To(Panic())
	})
})
