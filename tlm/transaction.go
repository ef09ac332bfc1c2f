package tlm

import (
	"fmt"
)

// A Transaction is one request/response exchange travelling through the
// bridge. Transactions are created by a Pool and shared by reference count.
type Transaction struct {
	ID             string
	Address        uint64
	Command        Command
	Data           []byte
	DataLength     int
	StreamingWidth int
	Status         ResponseStatus

	// Phase is the last phase the transaction was observed in.
	Phase Phase

	// Channel is the downstream channel the transaction was issued on.
	Channel int

	// Extension carries the upstream object the transaction was made from.
	Extension interface{}

	refCount int
	pooled   bool
	pool     *Pool
}

// IsRead returns true if the transaction reads from the target.
func (t *Transaction) IsRead() bool {
	return t.Command == ReadCommand
}

// IsWrite returns true if the transaction writes to the target.
func (t *Transaction) IsWrite() bool {
	return t.Command == WriteCommand
}

// RefCount returns the number of holders of the transaction.
func (t *Transaction) RefCount() int {
	return t.refCount
}

// HasPool returns true if the transaction is owned by a pool.
func (t *Transaction) HasPool() bool {
	return t.pool != nil
}

// Acquire registers one more holder of the transaction.
func (t *Transaction) Acquire() {
	if t.pooled {
		Violation("Transaction", "acquiring transaction %s after release", t.ID)
	}

	t.refCount++
}

// Release drops one holder. The last release returns the transaction to its
// pool.
func (t *Transaction) Release() {
	if t.pooled || t.refCount <= 0 {
		Violation("Transaction", "releasing transaction %s more often than "+
			"it was acquired", t.ID)
	}

	t.refCount--
	if t.refCount == 0 && t.pool != nil {
		t.pool.free(t)
	}
}

func (t *Transaction) reset() {
	t.ID = ""
	t.Address = 0
	t.Command = IgnoreCommand
	t.Data = nil
	t.DataLength = 0
	t.StreamingWidth = 0
	t.Status = IncompleteResponse
	t.Phase = UninitializedPhase
	t.Channel = 0
	t.Extension = nil
	t.refCount = 0
}

func (t *Transaction) String() string {
	return fmt.Sprintf("txn %s %s @0x%x len %d ch %d %s",
		t.ID, t.Command, t.Address, t.DataLength, t.Channel, t.Phase)
}
