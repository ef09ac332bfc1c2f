package traffic

import (
	"math/rand"

	"github.com/sarchlab/tlmbridge/sim"
)

// Builder can build generators.
type Builder struct {
	engine     sim.EventScheduler
	freq       sim.Freq
	seed       int64
	start      uint64
	span       uint64
	stride     uint64
	size       int
	writeRatio float64
	refuseN    int
	debug      bool
}

// MakeBuilder returns a Builder with 1 GHz, 64 B stride and 4 B reads over
// the first 1 MB.
func MakeBuilder() Builder {
	return Builder{
		freq:   1 * sim.GHz,
		seed:   1,
		span:   1 << 20,
		stride: 64,
		size:   4,
	}
}

// WithEngine sets the engine that schedules the generator events.
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the issue frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithSeed sets the seed of the command and data choices.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithAddressRange sets the range that request addresses fall into.
func (b Builder) WithAddressRange(start, span uint64) Builder {
	b.start = start
	b.span = span
	return b
}

// WithStride sets the distance between consecutive addresses.
func (b Builder) WithStride(stride uint64) Builder {
	b.stride = stride
	return b
}

// WithRequestSize sets the number of bytes of each request.
func (b Builder) WithRequestSize(size int) Builder {
	b.size = size
	return b
}

// WithWriteRatio sets the probability that a request is a write.
func (b Builder) WithWriteRatio(ratio float64) Builder {
	b.writeRatio = ratio
	return b
}

// WithRefusePeriod makes the generator refuse every n-th response. Zero
// accepts every response.
func (b Builder) WithRefusePeriod(n int) Builder {
	b.refuseN = n
	return b
}

// WithDebug prints every issued and completed request.
func (b Builder) WithDebug(debug bool) Builder {
	b.debug = debug
	return b
}

// Build creates a new Generator.
func (b Builder) Build(name string) *Generator {
	if b.engine == nil {
		panic("traffic: engine is not set")
	}

	return &Generator{
		name:       name,
		engine:     b.engine,
		freq:       b.freq,
		rand:       rand.New(rand.NewSource(b.seed)),
		debug:      b.debug,
		start:      b.start,
		span:       b.span,
		stride:     b.stride,
		size:       b.size,
		writeRatio: b.writeRatio,
		refuseN:    b.refuseN,
		issueTime:  make(map[string]sim.VTimeInSec),
	}
}
