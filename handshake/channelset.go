package handshake

import (
	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
)

// Upstream is the requester side of an adapter. It receives timing responses
// and retry invitations.
type Upstream interface {
	// SendTimingResp delivers a response. Returning false refuses it. The
	// upstream must later call RecvRespRetry on the adapter.
	SendTimingResp(pkt *Packet) bool

	// SendRetryReq invites the upstream to resend a refused request.
	SendRetryReq()
}

// A ChannelSet owns the downstream sockets of an adapter, one per channel.
type ChannelSet interface {
	Name() string
	SocketCount() int

	// CoreGroups maps channels to the indices of the cores they serve. An
	// empty map assigns one channel per core.
	CoreGroups() map[int][]int

	RegisterBackward(bw tlm.BackwardTransport)

	Forward(
		ch int,
		txn *tlm.Transaction,
		phase tlm.Phase,
		delay sim.VTimeInSec,
	) tlm.Reply
	Blocking(ch int, txn *tlm.Transaction, delay sim.VTimeInSec) sim.VTimeInSec
	Debug(ch int, txn *tlm.Transaction) int
}
