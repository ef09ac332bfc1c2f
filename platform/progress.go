package platform

import (
	"github.com/sarchlab/tlmbridge/monitoring"
	"github.com/sarchlab/tlmbridge/sim"
)

type progressSource interface {
	NumCompleted() uint64
	Outstanding() int
}

type progressEvent struct {
	*sim.EventBase
}

// progressUpdater refreshes a progress bar once per simulated time step. It
// watches the engine and, at the first primary event of a new time, schedules
// a secondary event that runs after every primary event of that time.
type progressUpdater struct {
	engine    sim.EventScheduler
	bar       *monitoring.ProgressBar
	source    progressSource
	scheduled bool
}

func newProgressUpdater(
	engine sim.EventScheduler,
	bar *monitoring.ProgressBar,
	source progressSource,
) *progressUpdater {
	return &progressUpdater{
		engine: engine,
		bar:    bar,
		source: source,
	}
}

func (u *progressUpdater) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosBeforeEvent || u.scheduled {
		return
	}

	evt, ok := ctx.Item.(sim.Event)
	if !ok || evt.IsSecondary() {
		return
	}

	u.scheduled = true
	u.engine.Schedule(progressEvent{
		EventBase: sim.NewSecondaryEventBase(evt.Time(), u),
	})
}

func (u *progressUpdater) Handle(_ sim.Event) error {
	u.scheduled = false
	u.bar.Update(u.source.NumCompleted(), uint64(u.source.Outstanding()))

	return nil
}
