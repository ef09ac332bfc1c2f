// Package demux maps requestor identities to downstream channels.
package demux

import (
	"fmt"
	"log"
	"sort"
)

// RequestorID identifies the originator of a request.
type RequestorID int

// FallbackChannel serves identities that no channel claims.
const FallbackChannel = 0

type core struct {
	name string
	ids  []RequestorID
}

// A Demux resolves requestor identities to channel ids. It is built once
// before traffic starts and is read-only afterwards.
type Demux struct {
	cores        []core
	coreIndex    map[string]int
	table        map[int][]RequestorID
	lookup       map[RequestorID]int
	built        bool
	systemOffset bool
}

// New creates an empty Demux.
func New() *Demux {
	return &Demux{
		coreIndex: make(map[string]int),
		table:     make(map[int][]RequestorID),
		lookup:    make(map[RequestorID]int),
	}
}

// WithSystemOffset makes mapped channels resolve one above their table id,
// leaving channel 0 to unmapped traffic.
func (d *Demux) WithSystemOffset(offset bool) *Demux {
	d.systemOffset = offset
	return d
}

// HasSystemOffset returns true if mapped channels are shifted by one.
func (d *Demux) HasSystemOffset() bool {
	return d.systemOffset
}

// RegisterCore records the identities of a core. Cores are indexed in the
// order they are registered. Registering the same core again appends ids.
func (d *Demux) RegisterCore(name string, ids []RequestorID) {
	if d.built {
		log.Panicf("demux: registering core %s after build", name)
	}

	if i, found := d.coreIndex[name]; found {
		d.cores[i].ids = append(d.cores[i].ids, ids...)
		return
	}

	d.coreIndex[name] = len(d.cores)
	d.cores = append(d.cores, core{
		name: name,
		ids:  append([]RequestorID(nil), ids...),
	})
}

// Cores returns the names of the registered cores in index order.
func (d *Demux) Cores() []string {
	names := make([]string, 0, len(d.cores))
	for _, c := range d.cores {
		names = append(names, c.name)
	}

	return names
}

// Build creates the channel table. Each entry of groups lists the core
// indices whose identities join that channel. With no groups, every core
// gets its own channel in registration order. Only the first call has an
// effect.
func (d *Demux) Build(groups map[int][]int) error {
	if d.built {
		return nil
	}

	if len(groups) == 0 {
		for i, c := range d.cores {
			d.table[i] = append([]RequestorID(nil), c.ids...)
		}
	} else if err := d.buildFromGroups(groups); err != nil {
		return err
	}

	for _, ch := range d.Channels() {
		for _, id := range d.table[ch] {
			if _, found := d.lookup[id]; !found {
				d.lookup[id] = ch
			}
		}
	}

	d.built = true

	return nil
}

func (d *Demux) buildFromGroups(groups map[int][]int) error {
	channels := make([]int, 0, len(groups))
	for ch := range groups {
		if ch < 0 {
			return fmt.Errorf("demux: negative channel %d", ch)
		}

		channels = append(channels, ch)
	}
	sort.Ints(channels)

	for _, ch := range channels {
		ids := d.table[ch]
		for _, coreIdx := range groups[ch] {
			if coreIdx < 0 || coreIdx >= len(d.cores) {
				log.Printf("demux: channel %d names core %d, "+
					"only %d cores registered, skipped",
					ch, coreIdx, len(d.cores))
				continue
			}

			ids = append(ids, d.cores[coreIdx].ids...)
		}
		d.table[ch] = ids
	}

	return nil
}

// IsBuilt returns true after Build succeeded.
func (d *Demux) IsBuilt() bool {
	return d.built
}

// Resolve returns the channel of an identity, or FallbackChannel if no
// channel claims it.
func (d *Demux) Resolve(id RequestorID) int {
	ch, found := d.lookup[id]
	if !found {
		return FallbackChannel
	}

	if d.systemOffset {
		return ch + 1
	}

	return ch
}

// NumChannels returns the number of channels in the table.
func (d *Demux) NumChannels() int {
	return len(d.table)
}

// Channels returns the table channel ids in ascending order.
func (d *Demux) Channels() []int {
	channels := make([]int, 0, len(d.table))
	for ch := range d.table {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	return channels
}

// Identities returns the identities that the table assigns to a channel.
func (d *Demux) Identities(ch int) []RequestorID {
	return d.table[ch]
}

// Dump prints the table through the standard logger.
func (d *Demux) Dump() {
	for _, ch := range d.Channels() {
		log.Printf("demux: channel %d <- %v", ch, d.table[ch])
	}
}
