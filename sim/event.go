package sim

// VTimeInSec defines the time in the simulated space in the unit of second.
type VTimeInSec float64

// An Event is something going to happen in the future. An event is owned by
// the event queue while queued and by its scheduler (a Timer, a layer, etc.)
// otherwise.
type Event interface {
	// Time returns the time that the event is scheduled to fire.
	Time() VTimeInSec

	// SetTime is called by the engine when the event is scheduled.
	SetTime(t VTimeInSec)

	// InQueue tells if the event is currently pending in an event queue.
	// At most one copy of an event can be queued at a time.
	InQueue() bool

	// SetInQueue is called by the engine when the event enters or leaves
	// the queue.
	SetInQueue(inQueue bool)

	// Execute runs the action of the event.
	Execute()
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID      string
	time    VTimeInSec
	inQueue bool
}

// NewEventBase creates a new EventBase.
func NewEventBase() *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	return e
}

// Time returns the time that the event is going to happen.
func (e *EventBase) Time() VTimeInSec {
	return e.time
}

// SetTime sets the fire time of the event.
func (e *EventBase) SetTime(t VTimeInSec) {
	e.time = t
}

// InQueue returns true if the event is currently in an event queue.
func (e *EventBase) InQueue() bool {
	return e.inQueue
}

// SetInQueue marks whether the event is in an event queue.
func (e *EventBase) SetInQueue(inQueue bool) {
	e.inQueue = inQueue
}

// A NoOpEvent does nothing when executed. It is useful with timers that
// require no action upon firing, such as the transmitting timer of a
// physical layer.
type NoOpEvent struct {
	*EventBase
}

// NewNoOpEvent creates a new NoOpEvent.
func NewNoOpEvent() *NoOpEvent {
	return &NoOpEvent{EventBase: NewEventBase()}
}

// Execute does nothing.
func (e *NoOpEvent) Execute() {
}

// A FuncEvent invokes a function when executed.
type FuncEvent struct {
	*EventBase

	f func()
}

// NewFuncEvent creates an event that runs f when it fires.
func NewFuncEvent(f func()) *FuncEvent {
	return &FuncEvent{EventBase: NewEventBase(), f: f}
}

// Execute runs the wrapped function.
func (e *FuncEvent) Execute() {
	e.f()
}
