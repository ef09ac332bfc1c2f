package tlm

import "github.com/sarchlab/tlmbridge/sim"

// Reply is the answer of a non-blocking transport call.
type Reply struct {
	Status SyncStatus
	Phase  Phase
	Delay  sim.VTimeInSec
}

// AcceptedReply returns the reply that keeps phase and delay unchanged.
func AcceptedReply(phase Phase, delay sim.VTimeInSec) Reply {
	return Reply{Status: Accepted, Phase: phase, Delay: delay}
}

// ForwardTransport is implemented by targets and by components that forward
// requests to targets.
type ForwardTransport interface {
	// NBTransportFW moves a transaction to the given phase on the request
	// path.
	NBTransportFW(
		txn *Transaction,
		phase Phase,
		delay sim.VTimeInSec,
	) Reply

	// BTransport executes the transaction before returning and returns the
	// annotated delay.
	BTransport(txn *Transaction, delay sim.VTimeInSec) sim.VTimeInSec

	// TransportDbg executes the transaction without any timing and returns
	// the number of bytes transferred.
	TransportDbg(txn *Transaction) int
}

// BackwardTransport is implemented by initiators to receive phases on the
// response path.
type BackwardTransport interface {
	NBTransportBW(
		txn *Transaction,
		phase Phase,
		delay sim.VTimeInSec,
	) Reply
}
