// Package bus provides a loosely-timed bus that forwards transactions to the
// target whose address range contains the transaction address.
package bus

import (
	"fmt"
	"log"

	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
)

type port struct {
	mapping PortMapping
	target  tlm.ForwardTransport
}

// A Bus decodes addresses into targets. It does not model arbitration.
type Bus struct {
	name  string
	ports []port
	debug bool
}

// New creates an empty bus.
func New(name string) *Bus {
	return &Bus{name: name}
}

// WithDebug makes the bus print every routing decision.
func (b *Bus) WithDebug(debug bool) *Bus {
	b.debug = debug
	return b
}

// Name returns the name of the bus.
func (b *Bus) Name() string {
	return b.name
}

// AddTarget attaches a target. The mapping must not overlap any range that is
// already attached.
func (b *Bus) AddTarget(
	mapping PortMapping,
	target tlm.ForwardTransport,
) error {
	if mapping.End < mapping.Start {
		return fmt.Errorf("%s: malformed range %s", b.name, mapping)
	}

	if target == nil {
		return fmt.Errorf("%s: nil target for range %s", b.name, mapping)
	}

	for i, p := range b.ports {
		if p.mapping.Overlaps(mapping) {
			return fmt.Errorf("%s: range %s overlaps target %d %s",
				b.name, mapping, i, p.mapping)
		}
	}

	b.ports = append(b.ports, port{mapping: mapping, target: target})

	return nil
}

// NumTargets returns the number of attached targets.
func (b *Bus) NumTargets() int {
	return len(b.ports)
}

// Mapping returns the address range of target i.
func (b *Bus) Mapping(i int) PortMapping {
	return b.ports[i].mapping
}

// Decode returns the index of the first target whose range contains addr.
func (b *Bus) Decode(addr uint64) (int, bool) {
	for i, p := range b.ports {
		if p.mapping.Contains(addr) {
			return i, true
		}
	}

	return -1, false
}

// BTransport forwards the transaction to the decoded target. Addresses no
// target serves get an address error.
func (b *Bus) BTransport(
	txn *tlm.Transaction,
	delay sim.VTimeInSec,
) sim.VTimeInSec {
	i, found := b.Decode(txn.Address)
	if !found {
		b.logMiss(txn)
		txn.Status = tlm.AddressErrorResponse
		return delay
	}

	if b.debug {
		log.Printf("%s: %s -> target %d", b.name, txn, i)
	}

	return b.ports[i].target.BTransport(txn, delay)
}

// TransportDbg forwards the transaction to the decoded target and returns the
// number of bytes transferred, which is 0 on a decode miss.
func (b *Bus) TransportDbg(txn *tlm.Transaction) int {
	i, found := b.Decode(txn.Address)
	if !found {
		b.logMiss(txn)
		txn.Status = tlm.AddressErrorResponse
		return 0
	}

	return b.ports[i].target.TransportDbg(txn)
}

// NBTransportFW is not supported since the bus is loosely timed.
func (b *Bus) NBTransportFW(
	txn *tlm.Transaction,
	phase tlm.Phase,
	_ sim.VTimeInSec,
) tlm.Reply {
	tlm.Violation(b.name, "non-blocking transport of %s in %s", txn, phase)
	return tlm.Reply{}
}

func (b *Bus) logMiss(txn *tlm.Transaction) {
	log.Printf("%s: address error at 0x%x", b.name, txn.Address)
}
