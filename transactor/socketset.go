// Package transactor provides the set of downstream sockets that a handshake
// adapter forwards transactions to.
package transactor

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
)

type socket struct {
	name   string
	target tlm.ForwardTransport
}

// A SocketSet owns one initiator socket per channel. Socket i serves channel
// i, unless the set is shared, in which case socket 0 serves every channel.
type SocketSet struct {
	name     string
	portName string
	sockets  []socket
	shared   bool
	coreMap  map[int][]int
	backward tlm.BackwardTransport
}

// NewSocketSet creates n sockets named portName0 to portName(n-1).
func NewSocketSet(name, portName string, n int) (*SocketSet, error) {
	if portName == "" {
		return nil, errors.New(name + ": no port name specified")
	}

	if n < 1 {
		return nil, fmt.Errorf("%s: socket count must be positive, got %d",
			name, n)
	}

	s := &SocketSet{
		name:     name,
		portName: portName,
		sockets:  make([]socket, n),
	}

	for i := range s.sockets {
		s.sockets[i].name = fmt.Sprintf("%s%d", portName, i)
	}

	return s, nil
}

// NewSingle creates a set with one socket that serves every channel.
func NewSingle(name, portName string) (*SocketSet, error) {
	s, err := NewSocketSet(name, portName, 1)
	if err != nil {
		return nil, err
	}

	s.shared = true
	s.sockets[0].name = portName

	return s, nil
}

// Name returns the name of the set.
func (s *SocketSet) Name() string {
	return s.name
}

// PortName returns the name of the upstream port the set is attached to.
func (s *SocketSet) PortName() string {
	return s.portName
}

// SocketCount returns the number of sockets.
func (s *SocketSet) SocketCount() int {
	return len(s.sockets)
}

// SocketName returns the name of socket i.
func (s *SocketSet) SocketName(i int) string {
	return s.sockets[i].name
}

// IsShared returns true if socket 0 serves every channel.
func (s *SocketSet) IsShared() bool {
	return s.shared
}

// Bind connects socket i to a target.
func (s *SocketSet) Bind(i int, target tlm.ForwardTransport) error {
	if i < 0 || i >= len(s.sockets) {
		return fmt.Errorf("%s: socket %d out of range [0, %d)",
			s.name, i, len(s.sockets))
	}

	if s.sockets[i].target != nil {
		return fmt.Errorf("%s: socket %s is already bound",
			s.name, s.sockets[i].name)
	}

	s.sockets[i].target = target

	return nil
}

// SetSocketCoreMap sets which cores each socket serves, by core index.
func (s *SocketSet) SetSocketCoreMap(m map[int][]int) {
	s.coreMap = m
}

// SocketCoreMap returns the core map set by SetSocketCoreMap.
func (s *SocketSet) SocketCoreMap() map[int][]int {
	return s.coreMap
}

// CoreGroups returns the core map. A shared set puts every core on channel 0.
func (s *SocketSet) CoreGroups() map[int][]int {
	if s.shared {
		return nil
	}

	return s.coreMap
}

// RegisterBackward sets the receiver of the response path of every socket.
func (s *SocketSet) RegisterBackward(bw tlm.BackwardTransport) {
	if s.backward != nil {
		log.Panicf("%s: backward path registered twice", s.name)
	}

	s.backward = bw
}

// Backward returns the receiver of the response path.
func (s *SocketSet) Backward() tlm.BackwardTransport {
	return s.backward
}

// NBTransportBW hands a response phase to the registered receiver. Targets
// bound to the sockets may use the set as their backward path.
func (s *SocketSet) NBTransportBW(
	txn *tlm.Transaction,
	phase tlm.Phase,
	delay sim.VTimeInSec,
) tlm.Reply {
	if s.backward == nil {
		tlm.Violation(s.name, "no backward path for %s", txn)
	}

	return s.backward.NBTransportBW(txn, phase, delay)
}

func (s *SocketSet) target(ch int) tlm.ForwardTransport {
	i := ch
	if s.shared {
		i = 0
	}

	if i < 0 || i >= len(s.sockets) {
		tlm.Violation(s.name, "channel %d has no socket, %d sockets",
			ch, len(s.sockets))
	}

	t := s.sockets[i].target
	if t == nil {
		tlm.Violation(s.name, "socket %s is not bound", s.sockets[i].name)
	}

	return t
}

// Forward calls the non-blocking transport of the socket of channel ch.
func (s *SocketSet) Forward(
	ch int,
	txn *tlm.Transaction,
	phase tlm.Phase,
	delay sim.VTimeInSec,
) tlm.Reply {
	return s.target(ch).NBTransportFW(txn, phase, delay)
}

// Blocking calls the blocking transport of the socket of channel ch.
func (s *SocketSet) Blocking(
	ch int,
	txn *tlm.Transaction,
	delay sim.VTimeInSec,
) sim.VTimeInSec {
	return s.target(ch).BTransport(txn, delay)
}

// Debug calls the debug transport of the socket of channel ch.
func (s *SocketSet) Debug(ch int, txn *tlm.Transaction) int {
	return s.target(ch).TransportDbg(txn)
}
