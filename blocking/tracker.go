// Package blocking keeps the per-channel request and response blocking state
// of a handshake adapter.
package blocking

import (
	"github.com/sarchlab/tlmbridge/tlm"
)

// Kind tells whether a blocking entry belongs to the request path or to the
// response path.
type Kind int

// Blocking kinds.
const (
	Request Kind = iota
	Response
)

func (k Kind) String() string {
	if k == Request {
		return "request"
	}

	return "response"
}

type slot struct {
	request      *tlm.Transaction
	response     *tlm.Transaction
	retryPending bool
}

func (s *slot) get(kind Kind) *tlm.Transaction {
	if kind == Request {
		return s.request
	}

	return s.response
}

func (s *slot) set(txn *tlm.Transaction, kind Kind) {
	if kind == Request {
		s.request = txn
		return
	}

	s.response = txn
}

// A Tracker stores at most one blocking request and one blocking response per
// channel, plus a retry-pending flag. Channels range from 0 to n inclusive.
// A separate system slot serves traffic that has no channel of its own.
type Tracker struct {
	slots      []slot
	system     slot
	lastServed int
}

// NewTracker creates a tracker with no channels. Call Init before use.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Init clears all state and prepares channels 0 to numChannels.
func (t *Tracker) Init(numChannels int) {
	if numChannels < 0 {
		tlm.Violation("Tracker", "negative channel count %d", numChannels)
	}

	t.slots = make([]slot, numChannels+1)
	t.system = slot{}
	t.lastServed = numChannels
}

// NumSlots returns the number of channel slots, including the last one.
func (t *Tracker) NumSlots() int {
	return len(t.slots)
}

func (t *Tracker) slotOf(ch int) *slot {
	if ch < 0 || ch >= len(t.slots) {
		tlm.Violation("Tracker", "channel %d out of range [0, %d]",
			ch, len(t.slots)-1)
	}

	return &t.slots[ch]
}

// SetBlocking stores txn as the blocking entry of the channel. A nil txn
// clears the entry.
func (t *Tracker) SetBlocking(ch int, txn *tlm.Transaction, kind Kind) {
	t.slotOf(ch).set(txn, kind)
}

// Blocking returns the blocking entry of the channel, or nil.
func (t *Tracker) Blocking(ch int, kind Kind) *tlm.Transaction {
	return t.slotOf(ch).get(kind)
}

// IsBlocked returns true if the system slot or the channel holds an entry of
// the given kind.
func (t *Tracker) IsBlocked(ch int, kind Kind) bool {
	if t.system.get(kind) != nil {
		return true
	}

	return t.slotOf(ch).get(kind) != nil
}

// IsBlockingTransaction returns true if txn is the blocking entry of any
// channel.
func (t *Tracker) IsBlockingTransaction(txn *tlm.Transaction, kind Kind) bool {
	if txn == nil {
		return false
	}

	for i := range t.slots {
		if t.slots[i].get(kind) == txn {
			return true
		}
	}

	return false
}

// NeedsRetry returns true if a request was refused on the channel since its
// blocking request was set.
func (t *Tracker) NeedsRetry(ch int) bool {
	return t.slotOf(ch).retryPending
}

// SetRetryPending sets or clears the retry flag of the channel.
func (t *Tracker) SetRetryPending(ch int, pending bool) {
	t.slotOf(ch).retryPending = pending
}

// SetSystemBlocking stores txn in the system slot. A nil txn clears it.
func (t *Tracker) SetSystemBlocking(txn *tlm.Transaction, kind Kind) {
	t.system.set(txn, kind)
}

// SystemBlocking returns the system slot entry of the given kind.
func (t *Tracker) SystemBlocking(kind Kind) *tlm.Transaction {
	return t.system.get(kind)
}

// SystemNeedsRetry returns the retry flag of the system slot.
func (t *Tracker) SystemNeedsRetry() bool {
	return t.system.retryPending
}

// SetSystemRetryPending sets or clears the retry flag of the system slot.
func (t *Tracker) SetSystemRetryPending(pending bool) {
	t.system.retryPending = pending
}

// FirstPendingResponse returns a blocking response of some channel, or nil.
// Channels are visited round-robin, starting after the channel returned by
// the previous call, so that no channel starves others.
func (t *Tracker) FirstPendingResponse() *tlm.Transaction {
	n := len(t.slots)
	for i := 1; i <= n; i++ {
		ch := (t.lastServed + i) % n
		if txn := t.slots[ch].response; txn != nil {
			t.lastServed = ch
			return txn
		}
	}

	return nil
}

// PendingResponses returns the number of channels holding a blocking
// response.
func (t *Tracker) PendingResponses() int {
	count := 0
	for i := range t.slots {
		if t.slots[i].response != nil {
			count++
		}
	}

	return count
}
