package sim

import (
	"log"
)

// A SerialEngine is an Engine that always runs events one after another,
// driving a single virtual clock.
type SerialEngine struct {
	HookableBase

	time  VTimeInSec
	queue EventQueue

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)
	e.queue = NewEventQueue()
	return e
}

// Schedule registers an event to happen delay seconds in the future.
func (e *SerialEngine) Schedule(evt Event, delay VTimeInSec) {
	if delay < 0 {
		log.Panic("scheduling an event with a negative delay")
	}

	if evt.InQueue() {
		log.Panic("scheduling an event that is already queued")
	}

	evt.SetTime(e.time + delay)
	evt.SetInQueue(true)
	e.queue.Push(evt)
}

// Cancel removes a queued event from the queue. Cancelling an event that is
// not queued returns false without side effects.
func (e *SerialEngine) Cancel(evt Event) bool {
	if !evt.InQueue() {
		return false
	}

	removed := e.queue.Cancel(evt)
	if removed {
		evt.SetInQueue(false)
	}

	return removed
}

// RunUntil processes all the events scheduled at or before stopTime.
func (e *SerialEngine) RunUntil(stopTime VTimeInSec) {
	for e.queue.Len() > 0 {
		evt := e.queue.Peek()
		if evt.Time() > stopTime {
			break
		}

		e.queue.Pop()
		evt.SetInQueue(false)

		if evt.Time() < e.time {
			log.Panicf(
				"cannot run event in the past, evt @ %.10f, now %.10f",
				evt.Time(), e.time)
		}
		e.time = evt.Time()

		hookCtx := HookCtx{
			Domain: e,
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		}
		e.InvokeHook(hookCtx)

		evt.Execute()

		hookCtx.Pos = HookPosAfterEvent
		e.InvokeHook(hookCtx)
	}

	e.time = stopTime

	for _, h := range e.simulationEndHandlers {
		h.Handle(e.time)
	}
}

// Reset discards all queued events and resets the clock to zero.
func (e *SerialEngine) Reset() {
	e.queue.Clear()
	e.time = 0
}

// CurrentTime returns the current time at which the engine is at.
// Specifically, the run time of the current event.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.time
}

// RegisterSimulationEndHandler registers a handler to be called after the
// simulation ends. Handlers run in registration order.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}
