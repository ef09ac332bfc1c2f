package blocking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tlmbridge/tlm"
)

var _ = Describe("Tracker", func() {
	var (
		pool    *tlm.Pool
		tracker *Tracker
	)

	BeforeEach(func() {
		pool = tlm.NewPool()
		tracker = NewTracker()
		tracker.Init(3)
	})

	It("should have one slot more than the channel count", func() {
		Expect(tracker.NumSlots()).To(Equal(4))
	})

	It("should store and clear blocking requests", func() {
		t := pool.Allocate()

		tracker.SetBlocking(1, t, Request)

		Expect(tracker.Blocking(1, Request)).To(BeIdenticalTo(t))
		Expect(tracker.Blocking(1, Response)).To(BeNil())
		Expect(tracker.IsBlocked(1, Request)).To(BeTrue())
		Expect(tracker.IsBlocked(0, Request)).To(BeFalse())
		Expect(tracker.IsBlockingTransaction(t, Request)).To(BeTrue())
		Expect(tracker.IsBlockingTransaction(t, Response)).To(BeFalse())

		tracker.SetBlocking(1, nil, Request)

		Expect(tracker.IsBlocked(1, Request)).To(BeFalse())
		Expect(tracker.IsBlockingTransaction(t, Request)).To(BeFalse())
	})

	It("should block every channel while the system slot is taken", func() {
		t := pool.Allocate()

		tracker.SetSystemBlocking(t, Request)

		for ch := 0; ch <= 3; ch++ {
			Expect(tracker.IsBlocked(ch, Request)).To(BeTrue())
			Expect(tracker.IsBlocked(ch, Response)).To(BeFalse())
		}
		Expect(tracker.SystemBlocking(Request)).To(BeIdenticalTo(t))
		Expect(tracker.IsBlockingTransaction(t, Request)).To(BeFalse())
	})

	It("should keep retry flags per channel", func() {
		tracker.SetRetryPending(2, true)

		Expect(tracker.NeedsRetry(2)).To(BeTrue())
		Expect(tracker.NeedsRetry(1)).To(BeFalse())

		tracker.SetRetryPending(2, false)
		Expect(tracker.NeedsRetry(2)).To(BeFalse())

		tracker.SetSystemRetryPending(true)
		Expect(tracker.SystemNeedsRetry()).To(BeTrue())
	})

	It("should reject channels out of range", func() {
		Expect(func() { tracker.SetBlocking(4, nil, Request) }).
			To(PanicWith(BeAssignableToTypeOf(&tlm.ProtocolError{})))
		Expect(func() { tracker.NeedsRetry(-1) }).
			To(PanicWith(BeAssignableToTypeOf(&tlm.ProtocolError{})))
	})

	It("should return nil if no response is pending", func() {
		Expect(tracker.FirstPendingResponse()).To(BeNil())
	})

	It("should visit pending responses round-robin", func() {
		t0 := pool.Allocate()
		t2 := pool.Allocate()
		tracker.SetBlocking(0, t0, Response)
		tracker.SetBlocking(2, t2, Response)

		Expect(tracker.FirstPendingResponse()).To(BeIdenticalTo(t0))
		Expect(tracker.FirstPendingResponse()).To(BeIdenticalTo(t2))
		Expect(tracker.FirstPendingResponse()).To(BeIdenticalTo(t0))
		Expect(tracker.PendingResponses()).To(Equal(2))
	})

	It("should continue after the channel served last", func() {
		t1 := pool.Allocate()
		t3 := pool.Allocate()
		tracker.SetBlocking(1, t1, Response)
		tracker.SetBlocking(3, t3, Response)

		Expect(tracker.FirstPendingResponse()).To(BeIdenticalTo(t1))
		tracker.SetBlocking(1, nil, Response)

		t0 := pool.Allocate()
		tracker.SetBlocking(0, t0, Response)

		Expect(tracker.FirstPendingResponse()).To(BeIdenticalTo(t3))
	})

	It("should clear state on init", func() {
		tracker.SetBlocking(1, pool.Allocate(), Request)
		tracker.SetRetryPending(1, true)
		tracker.SetSystemBlocking(pool.Allocate(), Response)

		tracker.Init(1)

		Expect(tracker.NumSlots()).To(Equal(2))
		Expect(tracker.IsBlocked(1, Request)).To(BeFalse())
		Expect(tracker.NeedsRetry(1)).To(BeFalse())
		Expect(tracker.SystemBlocking(Response)).To(BeNil())
	})
})
