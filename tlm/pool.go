package tlm

import "github.com/sarchlab/tlmbridge/sim"

// A Pool hands out transactions and takes them back once their last holder
// releases them.
type Pool struct {
	freeList  []*Transaction
	allocated int
	live      int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Allocate returns a transaction with a zero reference count and a fresh ID.
func (p *Pool) Allocate() *Transaction {
	var t *Transaction

	if n := len(p.freeList); n > 0 {
		t = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		t.pooled = false
	} else {
		t = &Transaction{pool: p}
		p.allocated++
	}

	t.ID = sim.GetIDGenerator().Generate()
	p.live++

	return t
}

// Acquire registers one more holder of t.
func (p *Pool) Acquire(t *Transaction) {
	t.Acquire()
}

// Release drops one holder of t.
func (p *Pool) Release(t *Transaction) {
	t.Release()
}

// Live returns the number of transactions that are currently out of the pool.
func (p *Pool) Live() int {
	return p.live
}

// Allocated returns the number of transaction objects the pool ever created.
func (p *Pool) Allocated() int {
	return p.allocated
}

// Free returns the number of transactions ready for reuse.
func (p *Pool) Free() int {
	return len(p.freeList)
}

func (p *Pool) free(t *Transaction) {
	t.reset()
	t.pooled = true
	p.live--
	p.freeList = append(p.freeList, t)
}
