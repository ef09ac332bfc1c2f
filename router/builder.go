package router

import (
	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
)

// Builder can build routers.
type Builder struct {
	engine       sim.EventScheduler
	memStart     uint64
	memSize      uint64
	endReqDelay  sim.VTimeInSec
	latency      sim.VTimeInSec
	respDelay    sim.VTimeInSec
	executeDelay sim.VTimeInSec
	debug        bool
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		endReqDelay:  10 * sim.Nanosecond,
		latency:      15 * sim.Nanosecond,
		respDelay:    10 * sim.Nanosecond,
		executeDelay: 10 * sim.Nanosecond,
	}
}

// WithEngine sets the engine that schedules the router events.
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithMemoryRange sets the local memory range [start, start+size).
func (b Builder) WithMemoryRange(start, size uint64) Builder {
	b.memStart = start
	b.memSize = size
	return b
}

// WithEndRequestDelay sets the delay annotated on END_REQ.
func (b Builder) WithEndRequestDelay(d sim.VTimeInSec) Builder {
	b.endReqDelay = d
	return b
}

// WithLatency sets the processing time between END_REQ and execution.
func (b Builder) WithLatency(d sim.VTimeInSec) Builder {
	b.latency = d
	return b
}

// WithResponseDelay sets the delay annotated on BEGIN_RESP.
func (b Builder) WithResponseDelay(d sim.VTimeInSec) Builder {
	b.respDelay = d
	return b
}

// WithExecuteDelay sets the delay passed to the target on execution.
func (b Builder) WithExecuteDelay(d sim.VTimeInSec) Builder {
	b.executeDelay = d
	return b
}

// WithDebug makes the router print the transactions it handles.
func (b Builder) WithDebug(debug bool) Builder {
	b.debug = debug
	return b
}

// Build creates a router with the given name.
func (b Builder) Build(name string) *Router {
	if b.engine == nil {
		panic("router: engine is not set")
	}

	r := &Router{
		name:         name,
		engine:       b.engine,
		memStart:     b.memStart,
		memSize:      b.memSize,
		endReqDelay:  b.endReqDelay,
		latency:      b.latency,
		respDelay:    b.respDelay,
		executeDelay: b.executeDelay,
		debug:        b.debug,
	}

	r.peq = tlm.NewPayloadEventQueue(name+".PEQ", b.engine, r.onPhase)

	return r
}
