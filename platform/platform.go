// Package platform builds and runs a complete bridge: a traffic source, a
// handshake adapter, one router per downstream socket, and a bus of
// functional stores.
package platform

import (
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/tlmbridge/bus"
	"github.com/sarchlab/tlmbridge/config"
	"github.com/sarchlab/tlmbridge/datarecording"
	"github.com/sarchlab/tlmbridge/demux"
	"github.com/sarchlab/tlmbridge/handshake"
	"github.com/sarchlab/tlmbridge/memory"
	"github.com/sarchlab/tlmbridge/monitoring"
	"github.com/sarchlab/tlmbridge/router"
	"github.com/sarchlab/tlmbridge/sim"
	"github.com/sarchlab/tlmbridge/tlm"
	"github.com/sarchlab/tlmbridge/tracing"
	"github.com/sarchlab/tlmbridge/traffic"
	"github.com/sarchlab/tlmbridge/transactor"
)

// A Platform owns every component of a bridge.
type Platform struct {
	Config *config.Config

	Engine  *sim.SerialEngine
	Pool    *tlm.Pool
	Adapter *handshake.Adapter
	Sockets *transactor.SocketSet
	Routers []*router.Router
	Bus     *bus.Bus
	Targets []*memory.Target
	Memory  *memory.Target
	Traffic *traffic.Generator
	Monitor *monitoring.Monitor

	LatencyTracer *tracing.AverageTimeTracer
	StepTracer    *tracing.StepCountTracer

	recorder     datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	dbTracer     *tracing.DBTracer
	progress     *monitoring.ProgressBar
	monitorPort  int

	preloadedBytes uint64
}

// Stats summarizes a finished run.
type Stats struct {
	EndTime          sim.VTimeInSec
	Issued           uint64
	Completed        uint64
	Refused          uint64
	RetryInvitations uint64
	RespRefused      uint64
	Cycles           uint64
	AverageLatency   sim.VTimeInSec
	LiveTransactions int
	Allocated        int
	PreloadedBytes   uint64
	AtomicChecks     uint64
	Steps            []StepCount
}

// StepCount is the number of times the adapter reached a task step.
type StepCount struct {
	Name  string
	Count uint64
}

func ns(v float64) sim.VTimeInSec {
	return sim.VTimeInSec(v) * sim.Nanosecond
}

func requestors(ids []int) []demux.RequestorID {
	out := make([]demux.RequestorID, 0, len(ids))
	for _, id := range ids {
		out = append(out, demux.RequestorID(id))
	}

	return out
}

// Build creates and connects all the components that the config describes.
func Build(cfg *config.Config) (*Platform, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if cfg.ParallelIDs {
		sim.UseParallelIDGenerator()
	} else {
		sim.UseSequentialIDGenerator()
	}

	p := &Platform{
		Config: cfg,
		Engine: sim.NewSerialEngine(),
		Pool:   tlm.NewPool(),
	}

	if cfg.LogEvents {
		p.Engine.AcceptHook(sim.NewEventLogger(log.New(os.Stdout, "", 0)))
	}

	err = p.buildBus()
	if err != nil {
		return nil, err
	}

	err = p.buildSockets()
	if err != nil {
		return nil, err
	}

	p.buildRouters()

	err = p.buildAdapter()
	if err != nil {
		return nil, err
	}

	p.buildTraffic()
	p.buildTracers()

	if cfg.Monitor.Enabled {
		p.buildMonitor()
	}

	p.Engine.RegisterSimulationEndHandler(p)

	return p, nil
}

func (p *Platform) name(suffix string) string {
	return p.Config.Name + "." + suffix
}

func (p *Platform) buildBus() error {
	cfg := p.Config
	p.Bus = bus.New(p.name("Bus")).WithDebug(cfg.Router.Debug)

	for _, t := range cfg.BusTargets {
		mapping, err := bus.NewPortMapping(t.Start, t.End)
		if err != nil {
			return err
		}

		target := memory.MakeBuilder().
			WithNewStorage(t.End - t.Start + 1).
			WithBaseAddress(t.Start).
			WithLatency(ns(t.LatencyNS)).
			Build(p.name(t.Name))

		err = p.Bus.AddTarget(mapping, target)
		if err != nil {
			return err
		}

		p.Targets = append(p.Targets, target)
	}

	idx, _ := cfg.MemoryTarget()
	p.Memory = p.Targets[idx]

	return nil
}

func (p *Platform) buildSockets() error {
	sockets, err := transactor.NewSocketSet(
		p.name("Transactor"), "socket", p.Config.NumSockets())
	if err != nil {
		return err
	}

	sockets.SetSocketCoreMap(p.Config.SocketCoreMap)
	p.Sockets = sockets

	return nil
}

func (p *Platform) buildRouters() {
	cfg := p.Config
	builder := router.MakeBuilder().
		WithEngine(p.Engine).
		WithMemoryRange(cfg.Memory.Start, cfg.Memory.Size).
		WithEndRequestDelay(ns(cfg.Router.EndRequestDelayNS)).
		WithLatency(ns(cfg.Router.LatencyNS)).
		WithResponseDelay(ns(cfg.Router.ResponseDelayNS)).
		WithExecuteDelay(ns(cfg.Router.ExecuteDelayNS)).
		WithDebug(cfg.Router.Debug)

	for i := 0; i < p.Sockets.SocketCount(); i++ {
		r := builder.Build(p.name(fmt.Sprintf("Router%d", i)))
		r.BindUpstream(p.Sockets)
		r.BindMemory(p.Memory)
		r.BindBus(p.Bus)

		err := p.Sockets.Bind(i, r)
		if err != nil {
			log.Panic(err)
		}

		p.Routers = append(p.Routers, r)
	}
}

func (p *Platform) buildAdapter() error {
	cfg := p.Config
	p.Adapter = handshake.MakeBuilder().
		WithEngine(p.Engine).
		WithPool(p.Pool).
		WithSystemPort(cfg.SystemPort).
		WithDebug(cfg.Router.Debug).
		Build(p.name("Adapter"))

	for _, c := range cfg.Cores {
		p.Adapter.RegisterCore(c.Name, requestors(c.Requestors))
	}

	return p.Adapter.BindToTransactor(p.Sockets)
}

func (p *Platform) buildTraffic() {
	t := p.Config.Traffic
	p.Traffic = traffic.MakeBuilder().
		WithEngine(p.Engine).
		WithFreq(p.trafficFreq()).
		WithSeed(t.Seed).
		WithAddressRange(t.Start, t.Span).
		WithStride(t.Stride).
		WithRequestSize(t.Size).
		WithWriteRatio(t.WriteRatio).
		WithRefusePeriod(t.RefuseEvery).
		WithDebug(p.Config.Router.Debug).
		Build(p.name("Traffic"))

	p.Traffic.BindPort(p.Adapter)
	p.Adapter.BindUpstream(p.Traffic)

	for _, c := range p.Config.Cores {
		p.Traffic.AddCore(c.Name, requestors(c.Requestors), t.RequestsPerCore)
	}
}

func (p *Platform) buildTracers() {
	p.LatencyTracer = tracing.NewAverageTimeTracer(
		p.Engine, tracing.KindIs("req_in"))
	tracing.CollectTrace(p.Adapter, p.LatencyTracer)

	p.StepTracer = tracing.NewStepCountTracer(tracing.KindIs("req_in"))
	tracing.CollectTrace(p.Adapter, p.StepTracer)

	if p.Config.TraceDB == "" {
		return
	}

	p.recorder = datarecording.New(p.Config.TraceDB)
	p.execRecorder = datarecording.NewExecRecorder(p.recorder)
	p.execRecorder.Start()
	p.execRecorder.Record("Platform", p.Config.Name)
	p.execRecorder.Record("Channels", fmt.Sprint(p.Config.Channels))

	p.dbTracer = tracing.NewDBTracer(p.Engine, p.recorder)
	tracing.CollectTrace(p.Adapter, p.dbTracer)
	for _, r := range p.Routers {
		tracing.CollectTrace(r, p.dbTracer)
	}
}

func (p *Platform) buildMonitor() {
	p.Monitor = monitoring.NewMonitor().WithPortNumber(p.Config.Monitor.Port)
	p.Monitor.RegisterEngine(p.Engine)
	p.Monitor.RegisterPool(p.Pool)
	p.Monitor.RegisterComponent(p.Adapter)
	p.Monitor.RegisterComponent(p.Sockets)
	for _, r := range p.Routers {
		p.Monitor.RegisterComponent(r)
	}
	p.Monitor.RegisterComponent(p.Bus)
	for _, t := range p.Targets {
		p.Monitor.RegisterComponent(t)
	}
	p.Monitor.RegisterComponent(p.Traffic)

	total := uint64(len(p.Config.Cores) * p.Config.Traffic.RequestsPerCore)
	p.progress = p.Monitor.CreateProgressBar(p.name("Requests"), total)
	p.Engine.AcceptHook(newProgressUpdater(p.Engine, p.progress, p.Traffic))
}

// StartMonitor starts the monitor server, if the monitor is enabled, and
// returns its port.
func (p *Platform) StartMonitor() int {
	if p.Monitor == nil {
		return 0
	}

	p.monitorPort = p.Monitor.StartServer()

	if p.Config.Monitor.OpenBrowser {
		err := p.Monitor.OpenBrowser(p.monitorPort)
		if err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return p.monitorPort
}

// Run issues all the traffic and runs the engine until no event is left. It
// returns an error if some request did not complete.
func (p *Platform) Run() (Stats, error) {
	if p.Config.Traffic.Preload {
		err := p.Preload()
		if err != nil {
			return p.Stats(), err
		}
	}

	p.Traffic.Start(p.Engine.CurrentTime())

	err := p.Engine.Run()
	if err != nil {
		return p.Stats(), err
	}

	p.Engine.Finished()

	stats := p.Stats()
	if !p.Traffic.Done() {
		return stats, fmt.Errorf("%d requests did not complete",
			p.Traffic.Outstanding())
	}

	return stats, nil
}

// Handle is called when the engine has no event left.
func (p *Platform) Handle(now sim.VTimeInSec) {
	if p.progress != nil {
		p.progress.Update(p.Traffic.NumCompleted(),
			uint64(p.Traffic.Outstanding()))
		p.Monitor.CompleteProgressBar(p.progress)
	}

	if p.dbTracer != nil {
		p.dbTracer.Terminate()
	}

	if p.Config.Router.Debug {
		log.Printf("%s: simulation ended at %.10f", p.Config.Name, now)
	}
}

// Stats returns the counters of the platform.
func (p *Platform) Stats() Stats {
	return Stats{
		EndTime:          p.Engine.CurrentTime(),
		Issued:           p.Traffic.NumIssued(),
		Completed:        p.Traffic.NumCompleted(),
		Refused:          p.Adapter.NumRefused(),
		RetryInvitations: p.Adapter.NumRetryReqSent(),
		RespRefused:      p.Adapter.NumResponseRefused(),
		Cycles:           p.trafficFreq().Cycle(p.Engine.CurrentTime()),
		AverageLatency:   p.Traffic.AverageLatency(),
		LiveTransactions: p.Pool.Live(),
		Allocated:        p.Pool.Allocated(),
		PreloadedBytes:   p.preloadedBytes,
		AtomicChecks:     p.Adapter.NumAtomic(),
		Steps:            p.stepCounts(),
	}
}

func (p *Platform) trafficFreq() sim.Freq {
	return sim.Freq(p.Config.Traffic.FreqGHz) * sim.GHz
}

func (p *Platform) stepCounts() []StepCount {
	names := p.StepTracer.GetStepNames()
	counts := make([]StepCount, 0, len(names))
	for _, n := range names {
		counts = append(counts, StepCount{
			Name:  n,
			Count: p.StepTracer.GetStepCount(n),
		})
	}

	return counts
}

// Close flushes the trace database.
func (p *Platform) Close() error {
	if p.recorder == nil {
		return nil
	}

	p.dbTracer.Terminate()
	p.execRecorder.End()

	return p.recorder.Close()
}
