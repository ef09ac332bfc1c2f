// Package traffic provides an upstream requester that drives a handshake
// adapter with timing requests.
package traffic

import (
	"log"
	"math/rand"

	"github.com/sarchlab/tlmbridge/demux"
	"github.com/sarchlab/tlmbridge/handshake"
	"github.com/sarchlab/tlmbridge/sim"
)

// Port is the side of the adapter that accepts upstream requests.
type Port interface {
	RecvTimingReq(pkt *handshake.Packet) bool
	RecvRespRetry()
}

type tickEvent struct {
	*sim.EventBase
}

type respRetryEvent struct {
	*sim.EventBase
}

type core struct {
	name      string
	ids       []demux.RequestorID
	remaining int
	next      int
	refused   *handshake.Packet
	waiting   bool
}

// A Generator issues a fixed number of requests for each core. A refused
// request is held until the adapter sends a retry invitation. The generator
// can refuse every n-th response to exercise the response retry path.
type Generator struct {
	name   string
	engine sim.EventScheduler
	freq   sim.Freq
	port   Port
	rand   *rand.Rand
	debug  bool

	cores []*core

	start      uint64
	span       uint64
	stride     uint64
	size       int
	writeRatio float64
	refuseN    int

	tickScheduled      bool
	respRetryScheduled bool
	retrying           bool

	nextAddr       uint64
	issueTime      map[string]sim.VTimeInSec
	numIssued      uint64
	numRefused     uint64
	numResponses   uint64
	numRespRefused uint64
	numCompleted   uint64
	totalLatency   sim.VTimeInSec
}

// Name returns the name of the generator.
func (g *Generator) Name() string {
	return g.name
}

// BindPort sets the adapter that receives the requests.
func (g *Generator) BindPort(p Port) {
	g.port = p
}

// AddCore adds a core that issues n requests, rotating over its requestor
// identities.
func (g *Generator) AddCore(name string, ids []demux.RequestorID, n int) {
	if len(ids) == 0 {
		log.Panicf("%s: core %s has no requestor", g.name, name)
	}

	g.cores = append(g.cores, &core{
		name:      name,
		ids:       ids,
		remaining: n,
	})
}

// NumIssued returns the number of requests accepted by the adapter.
func (g *Generator) NumIssued() uint64 {
	return g.numIssued
}

// NumRefused returns the number of times the adapter refused a request.
func (g *Generator) NumRefused() uint64 {
	return g.numRefused
}

// NumRespRefused returns the number of responses the generator refused.
func (g *Generator) NumRespRefused() uint64 {
	return g.numRespRefused
}

// NumCompleted returns the number of responses received.
func (g *Generator) NumCompleted() uint64 {
	return g.numCompleted
}

// Outstanding returns the number of requests waiting for their response.
func (g *Generator) Outstanding() int {
	return len(g.issueTime)
}

// AverageLatency returns the mean time from issue to response.
func (g *Generator) AverageLatency() sim.VTimeInSec {
	if g.numCompleted == 0 {
		return 0
	}

	return g.totalLatency / sim.VTimeInSec(g.numCompleted)
}

// Done returns true if every core has issued all its requests and every
// response has arrived.
func (g *Generator) Done() bool {
	for _, c := range g.cores {
		if c.remaining > 0 || c.refused != nil {
			return false
		}
	}

	return len(g.issueTime) == 0
}

// Start schedules the first tick.
func (g *Generator) Start(now sim.VTimeInSec) {
	g.scheduleTick(now)
}

func (g *Generator) scheduleTick(t sim.VTimeInSec) {
	if g.tickScheduled {
		return
	}

	g.tickScheduled = true
	g.engine.Schedule(&tickEvent{
		EventBase: sim.NewEventBase(t, g),
	})
}

// Handle handles the events of the generator.
func (g *Generator) Handle(e sim.Event) error {
	switch e.(type) {
	case *tickEvent:
		g.tick(e.Time())
	case *respRetryEvent:
		g.respRetryScheduled = false
		g.retrying = true
		g.port.RecvRespRetry()
		g.retrying = false
	default:
		log.Panicf("%s cannot handle event of %T", g.name, e)
	}

	return nil
}

func (g *Generator) tick(now sim.VTimeInSec) {
	g.tickScheduled = false

	for _, c := range g.cores {
		g.issue(c, now)
	}

	if g.hasWork() {
		g.scheduleTick(g.freq.NextTick(now))
	}
}

func (g *Generator) hasWork() bool {
	for _, c := range g.cores {
		if !c.waiting && (c.remaining > 0 || c.refused != nil) {
			return true
		}
	}

	return false
}

func (g *Generator) issue(c *core, now sim.VTimeInSec) bool {
	if c.waiting {
		return false
	}

	pkt := c.refused
	if pkt == nil {
		if c.remaining == 0 {
			return false
		}

		pkt = g.makePacket(c)
		c.remaining--
	}

	if !g.port.RecvTimingReq(pkt) {
		c.refused = pkt
		c.waiting = true
		g.numRefused++

		return false
	}

	c.refused = nil
	g.numIssued++
	g.issueTime[pkt.ID] = now

	if g.debug {
		log.Printf("%.10f, %s, issued %s", now, g.name, pkt)
	}

	return true
}

func (g *Generator) makePacket(c *core) *handshake.Packet {
	id := c.ids[c.next%len(c.ids)]
	c.next++

	offset := (g.nextAddr * g.stride) % g.span
	g.nextAddr++
	if offset+uint64(g.size) > g.span {
		offset = g.span - uint64(g.size)
	}
	addr := g.start + offset

	if g.rand.Float64() < g.writeRatio {
		data := make([]byte, g.size)
		g.rand.Read(data)

		return handshake.NewWriteReq(id, addr, data)
	}

	return handshake.NewReadReq(id, addr, g.size)
}

// SendRetryReq lets every core that was refused try again.
func (g *Generator) SendRetryReq() {
	for _, c := range g.cores {
		c.waiting = false
	}

	g.scheduleTick(g.engine.CurrentTime())
}

// SendTimingResp receives a response. Every n-th response is refused when a
// refusal period is set, except while the adapter drains refused responses.
func (g *Generator) SendTimingResp(pkt *handshake.Packet) bool {
	g.numResponses++

	if !g.retrying && g.refuseN > 0 && g.numResponses%uint64(g.refuseN) == 0 {
		g.numRespRefused++
		g.scheduleRespRetry()

		return false
	}

	if !pkt.IsResponse() {
		log.Panicf("%s: %s is not a response", g.name, pkt)
	}

	issued, found := g.issueTime[pkt.ID]
	if !found {
		log.Panicf("%s: response %s was never issued", g.name, pkt)
	}

	now := g.engine.CurrentTime()
	delete(g.issueTime, pkt.ID)
	g.numCompleted++
	g.totalLatency += now - issued

	if g.debug {
		log.Printf("%.10f, %s, completed %s", now, g.name, pkt)
	}

	return true
}

func (g *Generator) scheduleRespRetry() {
	if g.respRetryScheduled {
		return
	}

	g.respRetryScheduled = true
	g.engine.Schedule(&respRetryEvent{
		EventBase: sim.NewEventBase(
			g.freq.NCyclesLater(1, g.engine.CurrentTime()), g),
	})
}
