package router

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
	"github.com/sarchlab/tlmbridge/tracing"
)

var ns = sim.Nanosecond

func beProtocolError() OmegaMatcher {
	return PanicWith(BeAssignableToTypeOf(&tlm.ProtocolError{}))
}

var _ = Describe("Router", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		pool     *tlm.Pool
		upstream *MockBackwardTransport
		memory   *MockForwardTransport
		bus      *MockForwardTransport
		r        *Router
	)

	newTxn := func(addr uint64) *tlm.Transaction {
		t := pool.Allocate()
		t.Acquire()
		t.Address = addr
		t.Command = tlm.ReadCommand
		t.DataLength = 4

		return t
	}

	endResponseOnBeginResp := func(t *tlm.Transaction) *gomock.Call {
		return upstream.EXPECT().
			NBTransportBW(t, tlm.BeginResp, 10*ns).
			DoAndReturn(func(
				txn *tlm.Transaction,
				phase tlm.Phase,
				delay sim.VTimeInSec,
			) tlm.Reply {
				r.NBTransportFW(txn, tlm.EndResp, 0)
				return tlm.AcceptedReply(phase, delay)
			})
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		pool = tlm.NewPool()
		upstream = NewMockBackwardTransport(mockCtrl)
		memory = NewMockForwardTransport(mockCtrl)
		bus = NewMockForwardTransport(mockCtrl)

		r = MakeBuilder().
			WithEngine(engine).
			WithMemoryRange(0x0, 0x1000).
			Build("Router")
		r.BindUpstream(upstream)
		r.BindMemory(memory)
		r.BindBus(bus)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should classify local addresses", func() {
		Expect(r.IsLocal(0x0)).To(BeTrue())
		Expect(r.IsLocal(0xfff)).To(BeTrue())
		Expect(r.IsLocal(0x1000)).To(BeFalse())
	})

	It("should accept forward calls without acting on them", func() {
		t := newTxn(0x40)

		reply := r.NBTransportFW(t, tlm.BeginReq, 0)

		Expect(reply.Status).To(Equal(tlm.Accepted))
		Expect(reply.Phase).To(Equal(tlm.BeginReq))
		Expect(r.Occupant()).To(BeNil())
	})

	It("should complete a round trip", func() {
		t := newTxn(0x40)

		upstream.EXPECT().
			NBTransportBW(t, tlm.EndReq, 10*ns).
			Return(tlm.AcceptedReply(tlm.EndReq, 10*ns))
		memory.EXPECT().
			BTransport(t, 10*ns).
			Return(20 * ns)
		endResponseOnBeginResp(t)

		r.NBTransportFW(t, tlm.BeginReq, 0)
		Expect(engine.Run()).To(Succeed())

		Expect(r.Occupant()).To(BeNil())
		Expect(r.ResponseInFlight()).To(BeFalse())
		Expect(r.NumServed()).To(Equal(uint64(1)))
		Expect(t.Status).To(Equal(tlm.OKResponse))
		Expect(t.Address).To(Equal(uint64(0x40)))
		Expect(t.RefCount()).To(Equal(1))
		Expect(engine.CurrentTime()).To(BeNumerically("~", 25*ns, 1e-15))
	})

	It("should execute non-local requests on the bus", func() {
		t := newTxn(0x1500)

		upstream.EXPECT().
			NBTransportBW(t, tlm.EndReq, 10*ns).
			Return(tlm.AcceptedReply(tlm.EndReq, 10*ns))
		bus.EXPECT().
			BTransport(t, 10*ns).
			DoAndReturn(func(
				txn *tlm.Transaction,
				delay sim.VTimeInSec,
			) sim.VTimeInSec {
				txn.Status = tlm.AddressErrorResponse
				return delay
			})
		endResponseOnBeginResp(t)

		r.NBTransportFW(t, tlm.BeginReq, 0)
		Expect(engine.Run()).To(Succeed())

		Expect(t.Status).To(Equal(tlm.AddressErrorResponse))
		Expect(r.Occupant()).To(BeNil())
	})

	It("should grant a waiting request after END_RESP", func() {
		t1 := newTxn(0x40)
		t2 := newTxn(0x80)

		gomock.InOrder(
			upstream.EXPECT().
				NBTransportBW(t1, tlm.EndReq, 10*ns).
				Return(tlm.AcceptedReply(tlm.EndReq, 10*ns)),
			memory.EXPECT().BTransport(t1, 10*ns).Return(10*ns),
			endResponseOnBeginResp(t1),
			upstream.EXPECT().
				NBTransportBW(t2, tlm.EndReq, 10*ns).
				Return(tlm.AcceptedReply(tlm.EndReq, 10*ns)),
			memory.EXPECT().BTransport(t2, 10*ns).Return(10*ns),
			endResponseOnBeginResp(t2),
		)

		r.NBTransportFW(t1, tlm.BeginReq, 0)
		r.NBTransportFW(t2, tlm.BeginReq, 0)

		engine.Schedule(&checkEvent{
			EventBase: sim.NewEventBase(1*ns, nil),
			check: func() {
				Expect(r.Occupant()).To(BeIdenticalTo(t1))
				Expect(r.PendingEndRequest()).To(BeIdenticalTo(t2))
			},
		})

		Expect(engine.Run()).To(Succeed())

		Expect(r.Occupant()).To(BeNil())
		Expect(r.PendingEndRequest()).To(BeNil())
		Expect(r.NumServed()).To(Equal(uint64(2)))
		Expect(engine.CurrentTime()).To(BeNumerically("~", 50*ns, 1e-15))
	})

	It("should report a second waiting request", func() {
		t1 := newTxn(0x40)
		t2 := newTxn(0x80)
		t3 := newTxn(0xc0)

		upstream.EXPECT().
			NBTransportBW(t1, tlm.EndReq, 10*ns).
			Return(tlm.AcceptedReply(tlm.EndReq, 10*ns))

		r.NBTransportFW(t1, tlm.BeginReq, 0)
		r.NBTransportFW(t2, tlm.BeginReq, 0)
		r.NBTransportFW(t3, tlm.BeginReq, 0)

		Expect(func() { engine.Run() }).To(beProtocolError())
		Expect(r.PendingEndRequest()).To(BeIdenticalTo(t2))
	})

	It("should report a second pending response", func() {
		t2 := newTxn(0x80)
		t3 := newTxn(0xc0)

		r.responseInFlight = true
		r.pendingResponse = t2
		r.occupant = t3

		memory.EXPECT().BTransport(t3, 10*ns).Return(10 * ns)

		Expect(func() { r.execute(t3) }).To(beProtocolError())
		Expect(r.PendingResponse()).To(BeIdenticalTo(t2))
	})

	It("should hold a response while another is in flight", func() {
		t1 := newTxn(0x40)
		t2 := newTxn(0x80)
		t1.Acquire()
		t2.Acquire()

		r.responseInFlight = true
		r.occupant = t2

		memory.EXPECT().BTransport(t2, 10*ns).Return(10 * ns)
		r.execute(t2)

		Expect(r.PendingResponse()).To(BeIdenticalTo(t2))

		upstream.EXPECT().
			NBTransportBW(t2, tlm.BeginResp, 10*ns).
			Return(tlm.AcceptedReply(tlm.BeginResp, 10*ns))
		r.onPhase(t1, tlm.EndResp)

		Expect(r.PendingResponse()).To(BeNil())
		Expect(r.Occupant()).To(BeIdenticalTo(t2))
		Expect(r.ResponseInFlight()).To(BeTrue())
		Expect(t1.RefCount()).To(Equal(1))

		r.onPhase(t2, tlm.EndResp)

		Expect(r.Occupant()).To(BeNil())
		Expect(r.ResponseInFlight()).To(BeFalse())
	})

	It("should report END_RESP without a response in flight", func() {
		t := newTxn(0x40)

		r.NBTransportFW(t, tlm.EndResp, 0)

		Expect(func() { engine.Run() }).To(beProtocolError())
	})

	It("should report END_REQ on the forward path", func() {
		t := newTxn(0x40)

		r.NBTransportFW(t, tlm.EndReq, 0)

		Expect(func() { engine.Run() }).To(beProtocolError())
	})

	It("should honour updated replies", func() {
		t := newTxn(0x40)

		upstream.EXPECT().
			NBTransportBW(t, tlm.EndReq, 10*ns).
			Return(tlm.AcceptedReply(tlm.EndReq, 10*ns))
		memory.EXPECT().BTransport(t, 10*ns).Return(10 * ns)
		upstream.EXPECT().
			NBTransportBW(t, tlm.BeginResp, 10*ns).
			Return(tlm.Reply{
				Status: tlm.Updated,
				Phase:  tlm.EndResp,
				Delay:  5 * ns,
			})

		r.NBTransportFW(t, tlm.BeginReq, 0)
		Expect(engine.Run()).To(Succeed())

		Expect(r.Occupant()).To(BeNil())
		Expect(r.ResponseInFlight()).To(BeFalse())
		Expect(engine.CurrentTime()).To(BeNumerically("~", 30*ns, 1e-15))
	})

	It("should finish on completed replies", func() {
		t := newTxn(0x40)

		upstream.EXPECT().
			NBTransportBW(t, tlm.EndReq, 10*ns).
			Return(tlm.AcceptedReply(tlm.EndReq, 10*ns))
		memory.EXPECT().BTransport(t, 10*ns).Return(10 * ns)
		upstream.EXPECT().
			NBTransportBW(t, tlm.BeginResp, 10*ns).
			Return(tlm.Reply{Status: tlm.Completed, Phase: tlm.EndResp})

		r.NBTransportFW(t, tlm.BeginReq, 0)
		Expect(engine.Run()).To(Succeed())

		Expect(r.Occupant()).To(BeNil())
		Expect(t.RefCount()).To(Equal(1))
	})

	It("should trace requests", func() {
		tracer := tracing.NewStepCountTracer(tracing.KindIs("req_in"))
		tracing.CollectTrace(r, tracer)

		t := newTxn(0x40)
		upstream.EXPECT().
			NBTransportBW(t, tlm.EndReq, 10*ns).
			Return(tlm.AcceptedReply(tlm.EndReq, 10*ns))
		memory.EXPECT().BTransport(t, 10*ns).Return(10 * ns)
		endResponseOnBeginResp(t)

		r.NBTransportFW(t, tlm.BeginReq, 0)
		Expect(engine.Run()).To(Succeed())

		Expect(tracer.GetStepNames()).To(
			Equal([]string{"end_req", "execute", "begin_resp"}))
	})

	Context("blocking and debug transport", func() {
		It("should send local blocking traffic to memory", func() {
			t := newTxn(0x40)
			memory.EXPECT().BTransport(t, 5*ns).Return(15 * ns)

			delay := r.BTransport(t, 5*ns)

			Expect(delay).To(Equal(15 * ns))
			Expect(t.Status).To(Equal(tlm.OKResponse))
		})

		It("should send other blocking traffic to the bus", func() {
			t := newTxn(0x2000)
			bus.EXPECT().BTransport(t, sim.VTimeInSec(0)).Return(2 * ns)

			Expect(r.BTransport(t, 0)).To(Equal(2 * ns))
		})

		It("should send local debug traffic through the bus", func() {
			t := newTxn(0x40)
			bus.EXPECT().TransportDbg(t).Return(4)

			Expect(r.TransportDbg(t)).To(Equal(4))
		})

		It("should send local debug traffic to memory without a bus", func() {
			r.BindBus(nil)
			t := newTxn(0x40)
			memory.EXPECT().TransportDbg(t).Return(4)

			Expect(r.TransportDbg(t)).To(Equal(4))
		})

		It("should reject debug traffic out of range", func() {
			t := newTxn(0x2000)

			Expect(func() { r.TransportDbg(t) }).To(beProtocolError())
		})
	})
})

type checkEvent struct {
	*sim.EventBase
	check func()
}

func (e *checkEvent) Handler() sim.Handler {
	return e
}

func (e *checkEvent) Handle(_ sim.Event) error {
	e.check()
	return nil
}
