package bus

import "fmt"

// A PortMapping is an inclusive address range served by one bus target.
type PortMapping struct {
	Start uint64
	End   uint64
}

// NewPortMapping creates a mapping covering [start, end].
func NewPortMapping(start, end uint64) (PortMapping, error) {
	if end < start {
		return PortMapping{}, fmt.Errorf(
			"bus: mapping end 0x%x is below start 0x%x", end, start)
	}

	return PortMapping{Start: start, End: end}, nil
}

// Contains returns true if addr falls in the mapping.
func (m PortMapping) Contains(addr uint64) bool {
	return addr >= m.Start && addr <= m.End
}

// Overlaps returns true if the two mappings share at least one address.
func (m PortMapping) Overlaps(o PortMapping) bool {
	return m.Start <= o.End && o.Start <= m.End
}

// GlobalToLocal converts a bus address to an offset inside the mapping.
func (m PortMapping) GlobalToLocal(addr uint64) uint64 {
	return addr - m.Start
}

func (m PortMapping) String() string {
	return fmt.Sprintf("[0x%x, 0x%x]", m.Start, m.End)
}
