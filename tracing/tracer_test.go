package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tlmbridge/sim"
)

type testDomain struct {
	sim.HookableBase
	name string
}

func (d *testDomain) Name() string {
	return d.name
}

var _ = Describe("CollectTrace", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *testDomain
		tracer   *MockTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = &testDomain{name: "Adapter"}
		tracer = NewMockTracer(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should forward tasks to the tracer", func() {
		CollectTrace(domain, tracer)

		tracer.EXPECT().StartTask(gomock.Any())
		tracer.EXPECT().StepTask(gomock.Any())
		tracer.EXPECT().EndTask(gomock.Any())

		StartTask("1", "", domain, "req_in", "READ", nil)
		AddTaskStep("1", domain, "end_req")
		EndTask("1", domain)
	})

	It("should not attach the same tracer twice", func() {
		CollectTrace(domain, tracer)

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})
})

var _ = Describe("AverageTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		tracer     *AverageTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		tracer = NewAverageTimeTracer(timeTeller, KindIs("req_in"))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should average the selected tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{ID: "1", Kind: "req_in"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		tracer.StartTask(Task{ID: "2", Kind: "req_in"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		tracer.StartTask(Task{ID: "3", Kind: "other"})

		Expect(tracer.InflightCount()).To(Equal(2))

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		tracer.EndTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(6))
		tracer.EndTask(Task{ID: "2"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(7))
		tracer.EndTask(Task{ID: "3"})

		Expect(tracer.TotalCount()).To(Equal(uint64(2)))
		Expect(tracer.AverageTime()).To(BeNumerically("~", 3.0, 1e-12))
	})
})

var _ = Describe("StepCountTracer", func() {
	It("should count steps and tasks", func() {
		tracer := NewStepCountTracer(KindIs("req_in"))

		tracer.StartTask(Task{ID: "1", Kind: "req_in"})
		tracer.StartTask(Task{ID: "2", Kind: "req_in"})
		tracer.StepTask(Task{ID: "1", Steps: []TaskStep{{What: "retry"}}})
		tracer.StepTask(Task{ID: "1", Steps: []TaskStep{{What: "retry"}}})
		tracer.StepTask(Task{ID: "2", Steps: []TaskStep{{What: "retry"}}})
		tracer.StepTask(Task{ID: "9", Steps: []TaskStep{{What: "retry"}}})
		tracer.EndTask(Task{ID: "1"})

		Expect(tracer.GetStepNames()).To(Equal([]string{"retry"}))
		Expect(tracer.GetStepCount("retry")).To(Equal(uint64(3)))
		Expect(tracer.GetTaskCount("retry")).To(Equal(uint64(2)))
	})
})
