package sim

import (
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/xid"
)

var _ = Describe("IDGenerator", func() {
	AfterEach(func() {
		UseSequentialIDGenerator()
	})

	It("should count up sequentially by default", func() {
		first, err := strconv.ParseUint(GetIDGenerator().Generate(), 10, 64)
		Expect(err).NotTo(HaveOccurred())

		second, err := strconv.ParseUint(GetIDGenerator().Generate(), 10, 64)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first + 1))
	})

	It("should generate xids in parallel mode", func() {
		UseParallelIDGenerator()

		id := GetIDGenerator().Generate()

		_, err := xid.FromString(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(GetIDGenerator().Generate()).NotTo(Equal(id))
	})

	It("should keep the sequential counter across a switch", func() {
		before, _ := strconv.ParseUint(GetIDGenerator().Generate(), 10, 64)

		UseParallelIDGenerator()
		GetIDGenerator().Generate()
		UseSequentialIDGenerator()

		after, err := strconv.ParseUint(GetIDGenerator().Generate(), 10, 64)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before + 1))
	})
})
