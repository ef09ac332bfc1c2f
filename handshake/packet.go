package handshake

import (
	"fmt"
	"log"

	"github.com/sarchlab/tlmbridge/demux"
	"github.com/sarchlab/tlmbridge/sim"
)

// Cmd is the command of an upstream packet.
type Cmd int

// Commands that an upstream packet can carry.
const (
	InvalidCmd Cmd = iota
	ReadReq
	ReadResp
	WriteReq
	WriteResp
	WritebackReq
	InvalidateReq
	InvalidateResp
	SwapReq
	SwapResp
)

type cmdAttr struct {
	name          string
	read          bool
	write         bool
	invalidate    bool
	response      bool
	needsResponse bool
	responseCmd   Cmd
}

var cmdAttrs = map[Cmd]cmdAttr{
	InvalidCmd: {name: "InvalidCmd"},
	ReadReq: {
		name: "ReadReq", read: true,
		needsResponse: true, responseCmd: ReadResp,
	},
	ReadResp: {name: "ReadResp", read: true, response: true},
	WriteReq: {
		name: "WriteReq", write: true,
		needsResponse: true, responseCmd: WriteResp,
	},
	WriteResp:    {name: "WriteResp", write: true, response: true},
	WritebackReq: {name: "WritebackReq", write: true},
	InvalidateReq: {
		name: "InvalidateReq", invalidate: true,
		needsResponse: true, responseCmd: InvalidateResp,
	},
	InvalidateResp: {
		name: "InvalidateResp", invalidate: true, response: true,
	},
	SwapReq: {
		name: "SwapReq", read: true, write: true,
		needsResponse: true, responseCmd: SwapResp,
	},
	SwapResp: {name: "SwapResp", read: true, write: true, response: true},
}

func (c Cmd) attr() cmdAttr {
	a, ok := cmdAttrs[c]
	if !ok {
		return cmdAttrs[InvalidCmd]
	}

	return a
}

func (c Cmd) String() string {
	if _, ok := cmdAttrs[c]; !ok {
		return fmt.Sprintf("Cmd(%d)", int(c))
	}

	return c.attr().name
}

// A Packet is a request or a response of the upstream world.
type Packet struct {
	ID        string
	Cmd       Cmd
	Requestor demux.RequestorID
	Addr      uint64
	Size      int
	Data      []byte

	// ClusterID overrides the channel resolved from the requestor when
	// HasClusterID is set.
	ClusterID    int
	HasClusterID bool

	HeaderDelay  sim.VTimeInSec
	PayloadDelay sim.VTimeInSec

	CacheResponding bool
}

// NewReadReq creates a read request with a buffer to receive the data.
func NewReadReq(requestor demux.RequestorID, addr uint64, size int) *Packet {
	return &Packet{
		ID:        sim.GetIDGenerator().Generate(),
		Cmd:       ReadReq,
		Requestor: requestor,
		Addr:      addr,
		Size:      size,
		Data:      make([]byte, size),
	}
}

// NewWriteReq creates a write request that carries data.
func NewWriteReq(
	requestor demux.RequestorID,
	addr uint64,
	data []byte,
) *Packet {
	return &Packet{
		ID:        sim.GetIDGenerator().Generate(),
		Cmd:       WriteReq,
		Requestor: requestor,
		Addr:      addr,
		Size:      len(data),
		Data:      data,
	}
}

// IsRead returns true if the packet reads memory.
func (p *Packet) IsRead() bool {
	return p.Cmd.attr().read
}

// IsWrite returns true if the packet writes memory.
func (p *Packet) IsWrite() bool {
	return p.Cmd.attr().write
}

// IsInvalidate returns true if the packet invalidates a block.
func (p *Packet) IsInvalidate() bool {
	return p.Cmd.attr().invalidate
}

// IsResponse returns true if the packet is a response.
func (p *Packet) IsResponse() bool {
	return p.Cmd.attr().response
}

// NeedsResponse returns true if the packet is a request that expects a
// response.
func (p *Packet) NeedsResponse() bool {
	return p.Cmd.attr().needsResponse
}

// MakeResponse turns the request into its response in place.
func (p *Packet) MakeResponse() {
	if !p.NeedsResponse() {
		log.Panicf("packet %s of %s does not need a response", p.ID, p.Cmd)
	}

	p.Cmd = p.Cmd.attr().responseCmd
}

func (p *Packet) String() string {
	return fmt.Sprintf("pkt %s %s @0x%x size %d from %d",
		p.ID, p.Cmd, p.Addr, p.Size, p.Requestor)
}
