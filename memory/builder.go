package memory

import "github.com/sarchlab/tlmbridge/sim"

// Builder can build memory targets.
type Builder struct {
	capacity uint64
	base     uint64
	latency  sim.VTimeInSec
	storage  *Storage
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		capacity: 4 * GB,
	}
}

// WithNewStorage sets the capacity of the storage to create.
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithStorage makes the target use an existing storage.
func (b Builder) WithStorage(storage *Storage) Builder {
	b.storage = storage
	return b
}

// WithBaseAddress sets the address that maps to storage offset 0.
func (b Builder) WithBaseAddress(base uint64) Builder {
	b.base = base
	return b
}

// WithLatency sets the time added by every blocking access.
func (b Builder) WithLatency(latency sim.VTimeInSec) Builder {
	b.latency = latency
	return b
}

// Build builds a new Target
func (b Builder) Build(name string) *Target {
	t := &Target{
		name:    name,
		base:    b.base,
		latency: b.latency,
	}

	if b.storage == nil {
		t.Storage = NewStorage(b.capacity)
	} else {
		t.Storage = b.storage
	}

	return t
}
