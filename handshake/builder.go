package handshake

import (
	"github.com/sarchlab/tlmbridge/blocking"
	"github.com/sarchlab/tlmbridge/demux"
	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
)

// Builder can build adapters.
type Builder struct {
	engine     sim.EventScheduler
	pool       *tlm.Pool
	systemPort bool
	debug      bool
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine sets the engine that schedules the adapter events.
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithPool sets the pool that transactions are allocated from. By default,
// each adapter has its own pool.
func (b Builder) WithPool(pool *tlm.Pool) Builder {
	b.pool = pool
	return b
}

// WithSystemPort reserves channel 0 for traffic of unmapped requestors and
// shifts mapped channels up by one.
func (b Builder) WithSystemPort(systemPort bool) Builder {
	b.systemPort = systemPort
	return b
}

// WithDebug prints every phase the adapter handles.
func (b Builder) WithDebug(debug bool) Builder {
	b.debug = debug
	return b
}

// Build creates a new Adapter.
func (b Builder) Build(name string) *Adapter {
	if b.engine == nil {
		panic("handshake: engine is not set")
	}

	a := &Adapter{
		name:       name,
		engine:     b.engine,
		pool:       b.pool,
		debug:      b.debug,
		systemPort: b.systemPort,
		tracker:    blocking.NewTracker(),
		demux:      demux.New().WithSystemOffset(b.systemPort),
	}

	if a.pool == nil {
		a.pool = tlm.NewPool()
	}

	a.peq = tlm.NewPayloadEventQueue(name+".PEQ", b.engine, a.onPhase)

	return a
}
