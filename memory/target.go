package memory

import (
	"log"

	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
)

// A Target executes blocking and debug transactions against a Storage. The
// storage offset of an address is its distance from the base address.
type Target struct {
	name     string
	Storage  *Storage
	base     uint64
	latency  sim.VTimeInSec
	reads    uint64
	writes   uint64
	errCount uint64
}

// Name returns the name of the target.
func (t *Target) Name() string {
	return t.name
}

// BaseAddress returns the address that maps to storage offset 0.
func (t *Target) BaseAddress() uint64 {
	return t.base
}

// NumReads returns the number of executed reads.
func (t *Target) NumReads() uint64 {
	return t.reads
}

// NumWrites returns the number of executed writes.
func (t *Target) NumWrites() uint64 {
	return t.writes
}

// NumErrors returns the number of transactions that ended with an error.
func (t *Target) NumErrors() uint64 {
	return t.errCount
}

// BTransport executes the transaction and adds the access latency to delay.
func (t *Target) BTransport(
	txn *tlm.Transaction,
	delay sim.VTimeInSec,
) sim.VTimeInSec {
	t.execute(txn)
	return delay + t.latency
}

// TransportDbg executes the transaction and returns the number of bytes moved.
func (t *Target) TransportDbg(txn *tlm.Transaction) int {
	if !t.execute(txn) {
		return 0
	}

	return txn.DataLength
}

// NBTransportFW is not supported by the functional store.
func (t *Target) NBTransportFW(
	txn *tlm.Transaction,
	phase tlm.Phase,
	_ sim.VTimeInSec,
) tlm.Reply {
	tlm.Violation(t.name, "non-blocking transport of %s in %s", txn, phase)
	return tlm.Reply{}
}

func (t *Target) execute(txn *tlm.Transaction) bool {
	if txn.Address < t.base {
		return t.fail(txn, tlm.AddressErrorResponse)
	}

	offset := txn.Address - t.base
	length := uint64(txn.DataLength)

	switch txn.Command {
	case tlm.ReadCommand:
		data, err := t.Storage.Read(offset, length)
		if err != nil {
			return t.fail(txn, tlm.AddressErrorResponse)
		}

		if txn.Data == nil {
			txn.Data = make([]byte, length)
		}
		copy(txn.Data, data)
		t.reads++
	case tlm.WriteCommand:
		if uint64(len(txn.Data)) < length {
			return t.fail(txn, tlm.GenericErrorResponse)
		}

		if err := t.Storage.Write(offset, txn.Data[:length]); err != nil {
			return t.fail(txn, tlm.AddressErrorResponse)
		}
		t.writes++
	case tlm.IgnoreCommand:
	default:
		return t.fail(txn, tlm.CommandErrorResponse)
	}

	txn.Status = tlm.OKResponse

	return true
}

func (t *Target) fail(txn *tlm.Transaction, status tlm.ResponseStatus) bool {
	log.Printf("%s: %s failed with %s", t.name, txn, status)
	txn.Status = status
	t.errCount++

	return false
}
