package tlm

import (
	"github.com/sarchlab/tlmbridge/sim"
)

// PayloadCallback is invoked when a payload event fires.
type PayloadCallback func(txn *Transaction, phase Phase)

// A PayloadEvent delivers a transaction phase at a later time.
type PayloadEvent struct {
	*sim.EventBase
	Txn   *Transaction
	Phase Phase
}

// A PayloadEventQueue defers transaction phases by their annotated delay and
// hands them to a callback in time order.
type PayloadEventQueue struct {
	name     string
	engine   sim.EventScheduler
	callback PayloadCallback
	pending  int
}

// NewPayloadEventQueue creates a queue that schedules on the given engine.
func NewPayloadEventQueue(
	name string,
	engine sim.EventScheduler,
	callback PayloadCallback,
) *PayloadEventQueue {
	return &PayloadEventQueue{
		name:     name,
		engine:   engine,
		callback: callback,
	}
}

// Name returns the name of the queue.
func (q *PayloadEventQueue) Name() string {
	return q.name
}

// Notify schedules the phase of txn to be delivered after delay.
func (q *PayloadEventQueue) Notify(
	txn *Transaction,
	phase Phase,
	delay sim.VTimeInSec,
) {
	evt := &PayloadEvent{
		EventBase: sim.NewEventBase(q.engine.CurrentTime()+delay, q),
		Txn:       txn,
		Phase:     phase,
	}

	q.pending++
	q.engine.Schedule(evt)
}

// Pending returns the number of phases scheduled but not yet delivered.
func (q *PayloadEventQueue) Pending() int {
	return q.pending
}

// Handle delivers a payload event to the callback.
func (q *PayloadEventQueue) Handle(e sim.Event) error {
	evt := e.(*PayloadEvent)
	q.pending--
	evt.Txn.Phase = evt.Phase
	q.callback(evt.Txn, evt.Phase)

	return nil
}
