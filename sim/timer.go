package sim

import (
	"log"
)

// A Timer controls a single event. The event is installed once and the timer
// arms, stops, or re-arms it without leaving stale queue entries.
type Timer struct {
	engine      Engine
	eventOnFire Event
}

// NewTimer creates a timer that schedules eventOnFire on the given engine
// whenever the timer is started.
func NewTimer(engine Engine, eventOnFire Event) *Timer {
	if engine == nil {
		log.Panic("timer requires an engine")
	}
	if eventOnFire == nil {
		log.Panic("timer requires an event")
	}

	return &Timer{
		engine:      engine,
		eventOnFire: eventOnFire,
	}
}

// Start schedules the timer's event delay seconds in the future. The event
// is not scheduled if the timer is already running; use Reschedule instead.
func (t *Timer) Start(delay VTimeInSec) bool {
	if t.IsRunning() {
		return false
	}

	t.engine.Schedule(t.eventOnFire, delay)
	return true
}

// Stop cancels the timer's event if it is queued. Stopping a timer whose
// event already fired is a no-op returning false.
func (t *Timer) Stop() bool {
	if !t.IsRunning() {
		return false
	}

	return t.engine.Cancel(t.eventOnFire)
}

// Reschedule stops the timer if it is running and then starts it with the
// new delay.
func (t *Timer) Reschedule(delay VTimeInSec) bool {
	wasSuccessful := true
	if t.IsRunning() {
		wasSuccessful = t.Stop()
	}
	return wasSuccessful && t.Start(delay)
}

// IsRunning reports whether the timer's event is in the event queue.
func (t *Timer) IsRunning() bool {
	return t.eventOnFire.InQueue()
}

// TimeRemaining returns the time left until the event fires, or zero if the
// timer is not running.
func (t *Timer) TimeRemaining() VTimeInSec {
	if !t.IsRunning() {
		return 0
	}

	return t.eventOnFire.Time() - t.engine.CurrentTime()
}

// SetEvent installs a new event on the timer. A running timer is stopped
// first. The new event is not scheduled; call Start separately.
func (t *Timer) SetEvent(eventOnFire Event) {
	if eventOnFire == nil {
		log.Panic("timer requires an event")
	}

	if t.IsRunning() {
		t.Stop()
	}
	t.eventOnFire = eventOnFire
}
