package transactor

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
)

var _ = Describe("SocketSet", func() {
	var (
		mockCtrl *gomock.Controller
		t0, t1   *MockForwardTransport
		s        *SocketSet
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		t0 = NewMockForwardTransport(mockCtrl)
		t1 = NewMockForwardTransport(mockCtrl)

		var err error
		s, err = NewSocketSet("Transactor", "transactor", 2)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should require a port name", func() {
		_, err := NewSocketSet("Transactor", "", 2)
		Expect(err).To(HaveOccurred())

		_, err = NewSingle("Transactor", "")
		Expect(err).To(HaveOccurred())
	})

	It("should require at least one socket", func() {
		_, err := NewSocketSet("Transactor", "transactor", 0)
		Expect(err).To(HaveOccurred())
	})

	It("should name sockets after the port", func() {
		Expect(s.SocketCount()).To(Equal(2))
		Expect(s.SocketName(0)).To(Equal("transactor0"))
		Expect(s.SocketName(1)).To(Equal("transactor1"))
		Expect(s.PortName()).To(Equal("transactor"))
	})

	It("should forward to the socket of the channel", func() {
		Expect(s.Bind(0, t0)).To(Succeed())
		Expect(s.Bind(1, t1)).To(Succeed())
		txn := &tlm.Transaction{Address: 0x40}

		t1.EXPECT().
			NBTransportFW(txn, tlm.BeginReq, sim.VTimeInSec(0)).
			Return(tlm.AcceptedReply(tlm.BeginReq, 0))
		t0.EXPECT().BTransport(txn, sim.VTimeInSec(0)).Return(sim.VTimeInSec(1))
		t1.EXPECT().TransportDbg(txn).Return(4)

		Expect(s.Forward(1, txn, tlm.BeginReq, 0).Status).
			To(Equal(tlm.Accepted))
		Expect(s.Blocking(0, txn, 0)).To(Equal(sim.VTimeInSec(1)))
		Expect(s.Debug(1, txn)).To(Equal(4))
	})

	It("should reject binding twice or out of range", func() {
		Expect(s.Bind(0, t0)).To(Succeed())
		Expect(s.Bind(0, t1)).NotTo(Succeed())
		Expect(s.Bind(2, t1)).NotTo(Succeed())
	})

	It("should report unbound sockets", func() {
		txn := &tlm.Transaction{}

		Expect(func() { s.Debug(0, txn) }).
			To(PanicWith(BeAssignableToTypeOf(&tlm.ProtocolError{})))
	})

	It("should report channels without socket", func() {
		Expect(s.Bind(0, t0)).To(Succeed())
		txn := &tlm.Transaction{}

		Expect(func() { s.Debug(2, txn) }).
			To(PanicWith(BeAssignableToTypeOf(&tlm.ProtocolError{})))
	})

	It("should keep the socket core map", func() {
		m := map[int][]int{0: {0, 1}, 1: {2}}
		s.SetSocketCoreMap(m)

		Expect(s.SocketCoreMap()).To(Equal(m))
		Expect(s.CoreGroups()).To(Equal(m))
	})

	It("should hand response phases to the backward path", func() {
		bw := NewMockBackwardTransport(mockCtrl)
		s.RegisterBackward(bw)
		txn := &tlm.Transaction{}

		bw.EXPECT().
			NBTransportBW(txn, tlm.EndReq, sim.VTimeInSec(0)).
			Return(tlm.AcceptedReply(tlm.EndReq, 0))

		s.NBTransportBW(txn, tlm.EndReq, 0)

		Expect(func() { s.RegisterBackward(bw) }).To(Panic())
	})

	Context("single", func() {
		It("should serve every channel with one socket", func() {
			single, err := NewSingle("Transactor", "transactor")
			Expect(err).NotTo(HaveOccurred())
			Expect(single.Bind(0, t0)).To(Succeed())
			single.SetSocketCoreMap(map[int][]int{1: {0}})
			txn := &tlm.Transaction{}

			t0.EXPECT().TransportDbg(txn).Return(4)

			Expect(single.IsShared()).To(BeTrue())
			Expect(single.SocketName(0)).To(Equal("transactor"))
			Expect(single.CoreGroups()).To(BeNil())
			Expect(single.Debug(3, txn)).To(Equal(4))
		})
	})
})
