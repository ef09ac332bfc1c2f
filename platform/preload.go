package platform

import (
	"bytes"
	"fmt"

	"github.com/sarchlab/tlmbridge/demux"
	"github.com/sarchlab/tlmbridge/handshake"
)

const preloadChunk = 64

func preloadPattern(addr uint64, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(addr + uint64(i))
	}

	return data
}

// Preload writes the part of the traffic span that falls in memory through
// the functional path, the way a loader fills memory before a run. Every
// byte holds the low byte of its address. One word per core is then read
// back through the atomic path.
func (p *Platform) Preload() error {
	start, end, ok := p.preloadRange()
	if !ok {
		return fmt.Errorf("traffic span [0x%x, 0x%x) is outside memory",
			p.Config.Traffic.Start,
			p.Config.Traffic.Start+p.Config.Traffic.Span)
	}

	loader := demux.RequestorID(p.Config.Cores[0].Requestors[0])
	for addr := start; addr < end; addr += preloadChunk {
		n := min(uint64(preloadChunk), end-addr)
		pkt := handshake.NewWriteReq(loader, addr, preloadPattern(addr, int(n)))
		p.preloadedBytes += uint64(p.Adapter.RecvFunctional(pkt))
	}

	return p.checkPreload(start, end)
}

func (p *Platform) preloadRange() (start, end uint64, ok bool) {
	t := p.Config.Traffic
	m := p.Config.Memory

	start = max(t.Start, m.Start)
	end = min(t.Start+t.Span, m.Start+m.Size)

	return start, end, start < end
}

func (p *Platform) checkPreload(start, end uint64) error {
	size := uint64(p.Config.Traffic.Size)
	if end-start < size {
		return nil
	}

	for _, c := range p.Config.Cores {
		pkt := handshake.NewReadReq(
			demux.RequestorID(c.Requestors[0]), start, int(size))
		p.Adapter.RecvAtomic(pkt)

		want := preloadPattern(start, int(size))
		if !bytes.Equal(pkt.Data, want) {
			return fmt.Errorf("%s read %x at 0x%x after preload, want %x",
				c.Name, pkt.Data, start, want)
		}
	}

	return nil
}
