// Package handshake provides the adapter that turns upstream timing, atomic
// and functional requests into four-phase transactions on a set of
// downstream channels.
package handshake

import (
	"log"

	"github.com/sarchlab/tlmbridge/blocking"
	"github.com/sarchlab/tlmbridge/demux"
	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
	"github.com/sarchlab/tlmbridge/tracing"
)

// An Adapter serves one upstream port. Each downstream channel carries at
// most one request between BEGIN_REQ and END_REQ and holds at most one
// response that the upstream refused.
type Adapter struct {
	sim.HookableBase

	name   string
	engine sim.EventScheduler
	pool   *tlm.Pool
	peq    *tlm.PayloadEventQueue
	debug  bool

	upstream Upstream
	channels ChannelSet
	tracker  *blocking.Tracker
	demux    *demux.Demux

	systemPort bool

	numAccepted        uint64
	numRefused         uint64
	numRespRefused     uint64
	numCompleted       uint64
	numRetryReqSent    uint64
	numAtomic          uint64
	numFunctional      uint64
	numFunctionalBytes uint64
}

// Name returns the name of the adapter.
func (a *Adapter) Name() string {
	return a.name
}

// Tracker returns the channel state of the adapter.
func (a *Adapter) Tracker() *blocking.Tracker {
	return a.tracker
}

// Demux returns the identity table of the adapter.
func (a *Adapter) Demux() *demux.Demux {
	return a.demux
}

// Pool returns the pool that transactions are allocated from.
func (a *Adapter) Pool() *tlm.Pool {
	return a.pool
}

// UsesSystemPort returns true if channel 0 is reserved for system traffic.
func (a *Adapter) UsesSystemPort() bool {
	return a.systemPort
}

// NumAccepted returns the number of timing requests accepted.
func (a *Adapter) NumAccepted() uint64 {
	return a.numAccepted
}

// NumRefused returns the number of timing requests refused.
func (a *Adapter) NumRefused() uint64 {
	return a.numRefused
}

// NumResponseRefused returns the number of responses the upstream refused.
func (a *Adapter) NumResponseRefused() uint64 {
	return a.numRespRefused
}

// NumCompleted returns the number of timing transactions finished.
func (a *Adapter) NumCompleted() uint64 {
	return a.numCompleted
}

// NumRetryReqSent returns the number of request retry invitations sent.
func (a *Adapter) NumRetryReqSent() uint64 {
	return a.numRetryReqSent
}

// NumAtomic returns the number of atomic requests served.
func (a *Adapter) NumAtomic() uint64 {
	return a.numAtomic
}

// NumFunctional returns the number of functional requests served.
func (a *Adapter) NumFunctional() uint64 {
	return a.numFunctional
}

// NumFunctionalBytes returns the number of bytes moved by functional
// requests.
func (a *Adapter) NumFunctionalBytes() uint64 {
	return a.numFunctionalBytes
}

// RegisterCore records the requestor identities of a core. Cores must be
// registered before BindToTransactor.
func (a *Adapter) RegisterCore(name string, ids []demux.RequestorID) {
	a.demux.RegisterCore(name, ids)
}

// BindUpstream sets the receiver of responses and retry invitations.
func (a *Adapter) BindUpstream(up Upstream) {
	a.upstream = up
}

// BindToTransactor connects the adapter to its downstream channels and builds
// the identity table. An adapter can only be bound once.
func (a *Adapter) BindToTransactor(cs ChannelSet) error {
	if a.channels != nil {
		log.Panicf("%s is already bound to %s", a.name, a.channels.Name())
	}

	a.channels = cs
	cs.RegisterBackward(a)

	err := a.demux.Build(cs.CoreGroups())
	if err != nil {
		return err
	}

	a.tracker.Init(a.numTrackedChannels())
	a.demux.Dump()

	return nil
}

func (a *Adapter) numTrackedChannels() int {
	n := a.demux.NumChannels()

	chs := a.demux.Channels()
	if len(chs) == 0 {
		return n
	}

	top := chs[len(chs)-1]
	if a.systemPort {
		top++
	}

	if top > n {
		n = top
	}

	return n
}

func (a *Adapter) mustBeBound() {
	if a.channels == nil {
		tlm.Violation(a.name, "no transactor bound")
	}
}

func (a *Adapter) isSystemChannel(ch int) bool {
	return a.systemPort && ch == demux.FallbackChannel
}

func (a *Adapter) mustBeReadOrWrite(pkt *Packet) {
	if pkt.CacheResponding {
		tlm.Violation(a.name, "%s has a cache responding", pkt)
	}

	if !(pkt.IsRead() || pkt.IsWrite()) {
		tlm.Violation(a.name, "%s is neither a read nor a write", pkt)
	}
}

func (a *Adapter) mustNotBeSwap(pkt *Packet) {
	if pkt.Cmd == SwapReq {
		tlm.Violation(a.name, "%s: swap requests are not supported", pkt)
	}
}

func (a *Adapter) newTransaction(pkt *Packet, ch int) *tlm.Transaction {
	txn := a.pool.Allocate()
	txn.Acquire()

	txn.Address = pkt.Addr
	txn.DataLength = pkt.Size
	txn.StreamingWidth = pkt.Size
	txn.Data = pkt.Data
	txn.Channel = ch
	txn.Extension = pkt

	switch {
	case pkt.IsRead():
		txn.Command = tlm.ReadCommand
	case pkt.IsInvalidate():
		txn.Command = tlm.IgnoreCommand
	case pkt.IsWrite():
		txn.Command = tlm.WriteCommand
	default:
		tlm.Violation(a.name, "%s is neither a read nor a write", pkt)
	}

	return txn
}

func packetOf(txn *tlm.Transaction) *Packet {
	return txn.Extension.(*Packet)
}

// RecvAtomic serves a request through the blocking transport of its channel
// and returns the elapsed time.
func (a *Adapter) RecvAtomic(pkt *Packet) sim.VTimeInSec {
	a.mustBeBound()
	a.mustBeReadOrWrite(pkt)
	a.mustNotBeSwap(pkt)

	ch := a.demux.Resolve(pkt.Requestor)
	txn := a.newTransaction(pkt, ch)

	delay := a.channels.Blocking(ch, txn, 0)
	a.numAtomic++

	if pkt.NeedsResponse() {
		pkt.MakeResponse()
	}

	txn.Release()

	return delay
}

// RecvFunctional serves a request through the debug transport of its channel
// and returns the number of bytes moved. Moving fewer bytes than requested
// is fatal.
func (a *Adapter) RecvFunctional(pkt *Packet) int {
	a.mustBeBound()
	a.mustNotBeSwap(pkt)

	ch := a.demux.Resolve(pkt.Requestor)
	txn := a.newTransaction(pkt, ch)

	bytes := a.channels.Debug(ch, txn)
	if bytes != txn.DataLength {
		tlm.Violation(a.name, "debug transport of %s moved %d of %d bytes",
			pkt, bytes, txn.DataLength)
	}

	a.numFunctional++
	a.numFunctionalBytes += uint64(bytes)

	txn.Release()

	return bytes
}

func (a *Adapter) channelOf(pkt *Packet) int {
	ch := a.demux.Resolve(pkt.Requestor)
	if pkt.HasClusterID && pkt.ClusterID != ch {
		ch = pkt.ClusterID
	}

	return ch
}

// RecvTimingReq starts a four-phase transaction for the request. It returns
// false if the channel of the request still has a request between BEGIN_REQ
// and END_REQ. The upstream must then wait for SendRetryReq.
func (a *Adapter) RecvTimingReq(pkt *Packet) bool {
	a.mustBeBound()
	a.mustBeReadOrWrite(pkt)

	ch := a.channelOf(pkt)

	if a.systemPort && a.tracker.SystemBlocking(blocking.Request) != nil {
		a.tracker.SetSystemRetryPending(true)
		a.numRefused++

		return false
	}

	if a.tracker.IsBlocked(ch, blocking.Request) {
		a.tracker.SetRetryPending(ch, true)
		a.numRefused++

		return false
	}

	txn := a.newTransaction(pkt, ch)

	delay := pkt.PayloadDelay
	pkt.PayloadDelay = 0
	pkt.HeaderDelay = 0

	a.numAccepted++
	tracing.StartTask(
		tracing.TaskIDAt(txn.ID, a), pkt.ID, a,
		"req_in", pkt.Cmd.String(), pkt)

	if a.debug {
		log.Printf("%.10f, %s, BEGIN_REQ %s on channel %d",
			a.engine.CurrentTime(), a.name, txn, ch)
	}

	reply := a.channels.Forward(ch, txn, tlm.BeginReq, delay)
	a.handleBeginReqReply(txn, reply)

	return true
}

func (a *Adapter) handleBeginReqReply(txn *tlm.Transaction, reply tlm.Reply) {
	switch reply.Status {
	case tlm.Accepted:
		if reply.Phase != tlm.BeginReq {
			tlm.Violation(a.name, "%s accepted in phase %s",
				txn, reply.Phase)
		}

		a.setBlockingRequest(txn.Channel, txn)
	case tlm.Updated:
		switch reply.Phase {
		case tlm.EndReq:
			a.setBlockingRequest(txn.Channel, txn)
		case tlm.BeginResp:
		default:
			tlm.Violation(a.name, "%s updated to phase %s",
				txn, reply.Phase)
		}

		a.peq.Notify(txn, reply.Phase, reply.Delay)
	case tlm.Completed:
		if reply.Phase != tlm.EndResp {
			tlm.Violation(a.name, "%s completed in phase %s",
				txn, reply.Phase)
		}

		a.numCompleted++
		tracing.EndTask(tracing.TaskIDAt(txn.ID, a), a)
		txn.Release()
	default:
		tlm.Violation(a.name, "unknown status %s for %s", reply.Status, txn)
	}
}

func (a *Adapter) setBlockingRequest(ch int, txn *tlm.Transaction) {
	if a.isSystemChannel(ch) {
		a.tracker.SetSystemBlocking(txn, blocking.Request)
		return
	}

	a.tracker.SetBlocking(ch, txn, blocking.Request)
}

// NBTransportBW queues a phase from a downstream channel. The phase is handled
// after the annotated delay.
func (a *Adapter) NBTransportBW(
	txn *tlm.Transaction,
	phase tlm.Phase,
	delay sim.VTimeInSec,
) tlm.Reply {
	a.peq.Notify(txn, phase, delay)
	return tlm.AcceptedReply(phase, delay)
}

func (a *Adapter) onPhase(txn *tlm.Transaction, phase tlm.Phase) {
	if a.debug {
		log.Printf("%.10f, %s, %s %s",
			a.engine.CurrentTime(), a.name, phase, txn)
	}

	switch phase {
	case tlm.EndReq:
		a.endRequest(txn)
	case tlm.BeginResp:
		if a.isBlockingRequest(txn) {
			a.endRequest(txn)
		}

		a.beginResponse(txn)
	default:
		tlm.Violation(a.name, "unexpected phase %s of %s", phase, txn)
	}
}

func (a *Adapter) isBlockingRequest(txn *tlm.Transaction) bool {
	if a.systemPort && a.tracker.SystemBlocking(blocking.Request) == txn {
		return true
	}

	return a.tracker.IsBlockingTransaction(txn, blocking.Request)
}

func (a *Adapter) endRequest(txn *tlm.Transaction) {
	tracing.AddTaskStep(tracing.TaskIDAt(txn.ID, a), a, "end_req")

	if a.systemPort && a.tracker.SystemBlocking(blocking.Request) == txn {
		a.tracker.SetSystemBlocking(nil, blocking.Request)

		if a.tracker.SystemNeedsRetry() {
			a.tracker.SetSystemRetryPending(false)
			a.sendRetryReq()
		}

		return
	}

	ch := txn.Channel
	if a.tracker.Blocking(ch, blocking.Request) != txn {
		tlm.Violation(a.name, "END_REQ of %s, which does not block "+
			"channel %d", txn, ch)
	}

	a.tracker.SetBlocking(ch, nil, blocking.Request)

	if a.tracker.NeedsRetry(ch) {
		a.tracker.SetRetryPending(ch, false)
		a.sendRetryReq()
	}
}

func (a *Adapter) sendRetryReq() {
	a.numRetryReqSent++
	a.upstream.SendRetryReq()
}

func (a *Adapter) beginResponse(txn *tlm.Transaction) {
	ch := txn.Channel
	if a.blockingResponse(ch) != nil {
		tlm.Violation(a.name, "BEGIN_RESP of %s while %s is blocking "+
			"channel %d", txn, a.blockingResponse(ch), ch)
	}

	tracing.AddTaskStep(tracing.TaskIDAt(txn.ID, a), a, "begin_resp")

	pkt := packetOf(txn)
	if pkt.NeedsResponse() {
		pkt.MakeResponse()
	}

	if pkt.IsResponse() && !a.upstream.SendTimingResp(pkt) {
		a.numRespRefused++
		a.setBlockingResponse(ch, txn)

		return
	}

	a.endResponse(txn)
}

func (a *Adapter) blockingResponse(ch int) *tlm.Transaction {
	if a.isSystemChannel(ch) {
		return a.tracker.SystemBlocking(blocking.Response)
	}

	return a.tracker.Blocking(ch, blocking.Response)
}

func (a *Adapter) setBlockingResponse(ch int, txn *tlm.Transaction) {
	if a.isSystemChannel(ch) {
		a.tracker.SetSystemBlocking(txn, blocking.Response)
		return
	}

	a.tracker.SetBlocking(ch, txn, blocking.Response)
}

func (a *Adapter) endResponse(txn *tlm.Transaction) {
	a.channels.Forward(txn.Channel, txn, tlm.EndResp, 0)

	a.numCompleted++
	tracing.EndTask(tracing.TaskIDAt(txn.ID, a), a)
	txn.Release()
}

// RecvRespRetry resends every response that the upstream refused. Once
// invited, the upstream must accept them all.
func (a *Adapter) RecvRespRetry() {
	a.mustBeBound()

	for {
		txn := a.takeBlockedResponse()
		if txn == nil {
			return
		}

		pkt := packetOf(txn)
		if !a.upstream.SendTimingResp(pkt) {
			tlm.Violation(a.name, "%s refused again after a retry", pkt)
		}

		a.endResponse(txn)
	}
}

func (a *Adapter) takeBlockedResponse() *tlm.Transaction {
	if a.systemPort {
		if txn := a.tracker.SystemBlocking(blocking.Response); txn != nil {
			a.tracker.SetSystemBlocking(nil, blocking.Response)
			return txn
		}
	}

	txn := a.tracker.FirstPendingResponse()
	if txn == nil {
		return nil
	}

	a.tracker.SetBlocking(txn.Channel, nil, blocking.Response)

	return txn
}
