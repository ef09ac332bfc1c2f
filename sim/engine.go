package sim

// TimeTeller reports the current virtual time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler accepts events for future handling. Components hold an
// EventScheduler rather than a full Engine.
type EventScheduler interface {
	TimeTeller
	Schedule(e Event)
}

// A SimulationEndHandler is notified once the event queue has drained.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine drives a discrete event simulation.
type Engine interface {
	Hookable
	EventScheduler

	// Run processes events until none is left.
	Run() error

	// Pause blocks Run between two events until Continue is called.
	Pause()
	Continue()

	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes every registered SimulationEndHandler.
	Finished()
}
