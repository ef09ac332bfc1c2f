package traffic

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tlmbridge/demux"
	"github.com/sarchlab/tlmbridge/handshake"
	"github.com/sarchlab/tlmbridge/sim"
)

var _ = Describe("Generator", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		port     *MockPort
		g        *Generator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		port = NewMockPort(mockCtrl)

		g = MakeBuilder().
			WithEngine(engine).
			WithAddressRange(0x1000, 0x100).
			WithStride(0x40).
			Build("Gen")
		g.BindPort(port)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should issue one request per core per cycle", func() {
		g.AddCore("cpu0", []demux.RequestorID{1, 2}, 3)

		var pkts []*handshake.Packet
		port.EXPECT().RecvTimingReq(gomock.Any()).
			DoAndReturn(func(pkt *handshake.Packet) bool {
				pkts = append(pkts, pkt)
				return true
			}).Times(3)

		g.Start(0)
		engine.Run()

		Expect(pkts).To(HaveLen(3))
		Expect(pkts[0].Addr).To(Equal(uint64(0x1000)))
		Expect(pkts[1].Addr).To(Equal(uint64(0x1040)))
		Expect(pkts[0].Requestor).To(Equal(demux.RequestorID(1)))
		Expect(pkts[1].Requestor).To(Equal(demux.RequestorID(2)))
		Expect(pkts[2].Requestor).To(Equal(demux.RequestorID(1)))
		Expect(pkts[0].Cmd).To(Equal(handshake.ReadReq))
		Expect(engine.CurrentTime()).To(Equal(2 * sim.Nanosecond))
		Expect(g.NumIssued()).To(Equal(uint64(3)))
		Expect(g.Outstanding()).To(Equal(3))
		Expect(g.Done()).To(BeFalse())
	})

	It("should wrap addresses inside the range", func() {
		g.AddCore("cpu0", []demux.RequestorID{1}, 5)

		var last *handshake.Packet
		port.EXPECT().RecvTimingReq(gomock.Any()).
			DoAndReturn(func(pkt *handshake.Packet) bool {
				last = pkt
				return true
			}).Times(5)

		g.Start(0)
		engine.Run()

		Expect(last.Addr).To(Equal(uint64(0x1000)))
	})

	It("should wait for a retry after a refusal", func() {
		g.AddCore("cpu0", []demux.RequestorID{1}, 2)

		var refused *handshake.Packet
		port.EXPECT().RecvTimingReq(gomock.Any()).
			DoAndReturn(func(pkt *handshake.Packet) bool {
				refused = pkt
				return false
			})

		g.Start(0)
		engine.Run()

		Expect(g.NumRefused()).To(Equal(uint64(1)))
		Expect(g.NumIssued()).To(Equal(uint64(0)))

		gomock.InOrder(
			port.EXPECT().RecvTimingReq(refused).Return(true),
			port.EXPECT().RecvTimingReq(gomock.Any()).Return(true),
		)

		g.SendRetryReq()
		engine.Run()

		Expect(g.NumIssued()).To(Equal(uint64(2)))
	})

	It("should complete responses", func() {
		g.AddCore("cpu0", []demux.RequestorID{1}, 1)

		var pkt *handshake.Packet
		port.EXPECT().RecvTimingReq(gomock.Any()).
			DoAndReturn(func(p *handshake.Packet) bool {
				pkt = p
				return true
			})

		g.Start(0)
		engine.Run()
		pkt.MakeResponse()

		Expect(g.SendTimingResp(pkt)).To(BeTrue())
		Expect(g.NumCompleted()).To(Equal(uint64(1)))
		Expect(g.Outstanding()).To(Equal(0))
		Expect(g.Done()).To(BeTrue())
	})

	It("should refuse every n-th response and drain on retry", func() {
		g = MakeBuilder().
			WithEngine(engine).
			WithRefusePeriod(2).
			Build("Gen")
		g.BindPort(port)
		g.AddCore("cpu0", []demux.RequestorID{1}, 2)

		var pkts []*handshake.Packet
		port.EXPECT().RecvTimingReq(gomock.Any()).
			DoAndReturn(func(pkt *handshake.Packet) bool {
				pkt.MakeResponse()
				pkts = append(pkts, pkt)
				return true
			}).Times(2)

		g.Start(0)
		engine.Run()

		Expect(g.SendTimingResp(pkts[0])).To(BeTrue())
		Expect(g.SendTimingResp(pkts[1])).To(BeFalse())
		Expect(g.NumRespRefused()).To(Equal(uint64(1)))

		refusedAt := engine.CurrentTime()
		port.EXPECT().RecvRespRetry().Do(func() {
			Expect(g.SendTimingResp(pkts[1])).To(BeTrue())
		})

		engine.Run()

		Expect(engine.CurrentTime()).To(
			BeNumerically("~", refusedAt+sim.Nanosecond, 1e-15))

		Expect(g.NumCompleted()).To(Equal(uint64(2)))
		Expect(g.Done()).To(BeTrue())
	})

	It("should issue writes by ratio", func() {
		g = MakeBuilder().
			WithEngine(engine).
			WithWriteRatio(1).
			WithRequestSize(8).
			Build("Gen")
		g.BindPort(port)
		g.AddCore("cpu0", []demux.RequestorID{1}, 1)

		port.EXPECT().RecvTimingReq(gomock.Any()).
			DoAndReturn(func(pkt *handshake.Packet) bool {
				Expect(pkt.Cmd).To(Equal(handshake.WriteReq))
				Expect(pkt.Data).To(HaveLen(8))
				return true
			})

		g.Start(0)
		engine.Run()
	})

	It("should panic on a response it never issued", func() {
		pkt := handshake.NewReadReq(1, 0, 4)
		pkt.MakeResponse()

		Expect(func() { g.SendTimingResp(pkt) }).To(Panic())
	})

	It("should panic on a core without requestor", func() {
		Expect(func() { g.AddCore("cpu0", nil, 1) }).To(Panic())
	})
})
