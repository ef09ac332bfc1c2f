// Package router provides the component that sequences transactions from a
// handshake initiator and routes them to local memory or a secondary bus.
package router

import (
	"log"

	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
	"github.com/sarchlab/tlmbridge/tracing"
)

type executeEvent struct {
	*sim.EventBase
	txn *tlm.Transaction
}

// A Router serves one transaction at a time. A request that arrives while
// another one is being served waits in a single pending slot, and a response
// that cannot be sent yet waits in another.
type Router struct {
	sim.HookableBase

	name   string
	engine sim.EventScheduler
	peq    *tlm.PayloadEventQueue

	upstream tlm.BackwardTransport
	memory   tlm.ForwardTransport
	bus      tlm.ForwardTransport

	memStart uint64
	memSize  uint64

	endReqDelay  sim.VTimeInSec
	latency      sim.VTimeInSec
	respDelay    sim.VTimeInSec
	executeDelay sim.VTimeInSec
	debug        bool

	occupant          *tlm.Transaction
	responseInFlight  bool
	pendingResponse   *tlm.Transaction
	pendingEndRequest *tlm.Transaction

	numServed uint64
}

// Name returns the name of the router.
func (r *Router) Name() string {
	return r.name
}

// BindUpstream sets the initiator that receives END_REQ and BEGIN_RESP.
func (r *Router) BindUpstream(bw tlm.BackwardTransport) {
	r.upstream = bw
}

// BindMemory sets the target of local memory traffic.
func (r *Router) BindMemory(fw tlm.ForwardTransport) {
	r.memory = fw
}

// BindBus sets the target of traffic outside the local memory range.
func (r *Router) BindBus(fw tlm.ForwardTransport) {
	r.bus = fw
}

// Occupant returns the transaction currently holding the router.
func (r *Router) Occupant() *tlm.Transaction {
	return r.occupant
}

// ResponseInFlight returns true if a BEGIN_RESP has not been answered yet.
func (r *Router) ResponseInFlight() bool {
	return r.responseInFlight
}

// PendingResponse returns the response waiting for the upstream to free up.
func (r *Router) PendingResponse() *tlm.Transaction {
	return r.pendingResponse
}

// PendingEndRequest returns the request waiting for the router to free up.
func (r *Router) PendingEndRequest() *tlm.Transaction {
	return r.pendingEndRequest
}

// NumServed returns the number of transactions executed on the timing path.
func (r *Router) NumServed() uint64 {
	return r.numServed
}

// IsLocal returns true if addr falls in the local memory range.
func (r *Router) IsLocal(addr uint64) bool {
	return addr >= r.memStart && addr-r.memStart < r.memSize
}

// NBTransportFW queues the phase. It is handled after the annotated delay.
func (r *Router) NBTransportFW(
	txn *tlm.Transaction,
	phase tlm.Phase,
	delay sim.VTimeInSec,
) tlm.Reply {
	if r.debug {
		log.Printf("%.10f, %s, fw %s, delay %.10f",
			r.engine.CurrentTime(), r.name, txn, delay)
	}

	r.peq.Notify(txn, phase, delay)

	return tlm.AcceptedReply(phase, delay)
}

// NBTransportBW accepts phases from the memory side. Memory is loosely timed
// so nothing needs to happen.
func (r *Router) NBTransportBW(
	txn *tlm.Transaction,
	phase tlm.Phase,
	delay sim.VTimeInSec,
) tlm.Reply {
	if r.debug {
		log.Printf("%.10f, %s, bw %s in %s",
			r.engine.CurrentTime(), r.name, txn, phase)
	}

	return tlm.AcceptedReply(phase, delay)
}

// BTransport executes the transaction on the local memory or the bus.
func (r *Router) BTransport(
	txn *tlm.Transaction,
	delay sim.VTimeInSec,
) sim.VTimeInSec {
	if r.IsLocal(txn.Address) {
		r.mustHaveMemory(txn)
		delay = r.memory.BTransport(txn, delay)
		markOK(txn)

		return delay
	}

	r.mustHaveBus(txn)

	return r.bus.BTransport(txn, delay)
}

// TransportDbg moves the bytes of a local transaction through the bus, or
// straight to memory when no bus is bound.
func (r *Router) TransportDbg(txn *tlm.Transaction) int {
	if !r.IsLocal(txn.Address) {
		tlm.Violation(r.name, "debug access 0x%x out of range [0x%x, 0x%x)",
			txn.Address, r.memStart, r.memStart+r.memSize)
	}

	if r.bus != nil {
		return r.bus.TransportDbg(txn)
	}

	r.mustHaveMemory(txn)

	return r.memory.TransportDbg(txn)
}

func (r *Router) onPhase(txn *tlm.Transaction, phase tlm.Phase) {
	switch phase {
	case tlm.BeginReq:
		r.beginRequest(txn)
	case tlm.EndResp:
		r.endResponse(txn)
	default:
		tlm.Violation(r.name, "illegal phase %s of %s", phase, txn)
	}
}

func (r *Router) beginRequest(txn *tlm.Transaction) {
	txn.Acquire()

	tracing.StartTask(
		tracing.TaskIDAt(txn.ID, r), txn.ID, r,
		"req_in", txn.Command.String(), txn)

	if r.occupant == nil {
		r.grant(txn)
		return
	}

	if r.pendingEndRequest != nil {
		tlm.Violation(r.name, "%s arrived while %s is already waiting",
			txn, r.pendingEndRequest)
	}

	r.pendingEndRequest = txn
}

func (r *Router) grant(txn *tlm.Transaction) {
	if r.occupant != nil {
		tlm.Violation(r.name, "granting %s while %s occupies the router",
			txn, r.occupant)
	}

	r.occupant = txn

	r.upstream.NBTransportBW(txn, tlm.EndReq, r.endReqDelay)
	tracing.AddTaskStep(tracing.TaskIDAt(txn.ID, r), r, "end_req")

	evt := &executeEvent{
		EventBase: sim.NewEventBase(
			r.engine.CurrentTime()+r.endReqDelay+r.latency, r),
		txn: txn,
	}
	r.engine.Schedule(evt)
}

// Handle executes the transaction that occupies the router.
func (r *Router) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *executeEvent:
		r.execute(e.txn)
	default:
		log.Panicf("%s cannot handle event of %T", r.name, e)
	}

	return nil
}

func (r *Router) execute(txn *tlm.Transaction) {
	if txn != r.occupant {
		tlm.Violation(r.name, "executing %s while %s occupies the router",
			txn, r.occupant)
	}

	if r.IsLocal(txn.Address) {
		r.mustHaveMemory(txn)
		r.memory.BTransport(txn, r.executeDelay)
	} else {
		r.mustHaveBus(txn)
		r.bus.BTransport(txn, r.executeDelay)
	}
	markOK(txn)
	r.numServed++

	tracing.AddTaskStep(tracing.TaskIDAt(txn.ID, r), r, "execute")

	if !r.responseInFlight {
		r.sendResponse(txn)
		return
	}

	if r.pendingResponse != nil {
		tlm.Violation(r.name, "attempt to have two pending responses, "+
			"%s and %s", r.pendingResponse, txn)
	}

	r.pendingResponse = txn
}

func (r *Router) sendResponse(txn *tlm.Transaction) {
	r.responseInFlight = true

	if r.debug {
		log.Printf("%.10f, %s, send response %s",
			r.engine.CurrentTime(), r.name, txn)
	}

	tracing.AddTaskStep(tracing.TaskIDAt(txn.ID, r), r, "begin_resp")

	reply := r.upstream.NBTransportBW(txn, tlm.BeginResp, r.respDelay)
	switch reply.Status {
	case tlm.Updated:
		r.peq.Notify(txn, reply.Phase, reply.Delay)
	case tlm.Completed:
		r.finish(txn)
	}
}

func (r *Router) endResponse(txn *tlm.Transaction) {
	if !r.responseInFlight {
		tlm.Violation(r.name, "END_RESP of %s without a response in flight",
			txn)
	}

	r.finish(txn)
}

// finish ends the response of txn. A transaction occupies the router until
// its own response ends, so a held response keeps its occupant.
func (r *Router) finish(txn *tlm.Transaction) {
	if r.occupant == txn {
		r.occupant = nil
	}
	r.responseInFlight = false

	tracing.EndTask(tracing.TaskIDAt(txn.ID, r), r)
	txn.Release()

	if r.pendingResponse != nil {
		next := r.pendingResponse
		r.pendingResponse = nil
		r.sendResponse(next)
	}

	if r.pendingEndRequest != nil && r.occupant == nil {
		next := r.pendingEndRequest
		r.pendingEndRequest = nil
		r.grant(next)
	}
}

func (r *Router) mustHaveMemory(txn *tlm.Transaction) {
	if r.memory == nil {
		tlm.Violation(r.name, "no memory bound for %s", txn)
	}
}

func (r *Router) mustHaveBus(txn *tlm.Transaction) {
	if r.bus == nil {
		tlm.Violation(r.name, "no bus bound for %s", txn)
	}
}

func markOK(txn *tlm.Transaction) {
	if txn.Status == tlm.IncompleteResponse {
		txn.Status = tlm.OKResponse
	}
}
