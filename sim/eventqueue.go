package sim

import (
	"container/heap"
)

// EventQueue is a queue of events ordered by the time of events. Events with
// equal fire times leave the queue in the order they entered it.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event

	// Cancel removes the exact event from the queue. It returns false
	// without side effects when the event is not queued.
	Cancel(evt Event) bool

	// Clear discards all queued events.
	Clear()
}

// NewEventQueue creates and returns a newly created EventQueue.
func NewEventQueue() *EventQueueImpl {
	q := new(EventQueueImpl)
	q.events = make(eventHeap, 0)
	heap.Init(&q.events)
	return q
}

// EventQueueImpl provides a heap-backed event queue. A monotonically
// increasing sequence number breaks ties among equal fire times so that
// dispatch within a time bucket is first-in-first-out.
type EventQueueImpl struct {
	events  eventHeap
	nextSeq uint64
}

// Push adds an event to the event queue.
func (q *EventQueueImpl) Push(evt Event) {
	entry := &queuedEvent{evt: evt, seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.events, entry)
}

// Pop returns the next earliest event.
func (q *EventQueueImpl) Pop() Event {
	entry := heap.Pop(&q.events).(*queuedEvent)
	return entry.evt
}

// Len returns the number of events in the queue.
func (q *EventQueueImpl) Len() int {
	return q.events.Len()
}

// Peek returns the event in front of the queue without removing it from the
// queue.
func (q *EventQueueImpl) Peek() Event {
	return q.events[0].evt
}

// Cancel searches the queued events for the exact event identity and removes
// it if found.
func (q *EventQueueImpl) Cancel(evt Event) bool {
	for i, entry := range q.events {
		if entry.evt == evt {
			heap.Remove(&q.events, i)
			return true
		}
	}
	return false
}

// Clear discards all the queued events.
func (q *EventQueueImpl) Clear() {
	for _, entry := range q.events {
		entry.evt.SetInQueue(false)
	}
	q.events = q.events[:0]
}

type queuedEvent struct {
	evt   Event
	seq   uint64
	index int
}

type eventHeap []*queuedEvent

// Len returns the length of the event queue.
func (h eventHeap) Len() int {
	return len(h)
}

// Less determines the order between two events. Less returns true if the i-th
// event happens before the j-th event. Sequence numbers order events that
// share a fire time.
func (h eventHeap) Less(i, j int) bool {
	if h[i].evt.Time() != h[j].evt.Time() {
		return h[i].evt.Time() < h[j].evt.Time()
	}
	return h[i].seq < h[j].seq
}

// Swap changes the position of two events in the event queue.
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push adds an event into the event queue.
func (h *eventHeap) Push(x interface{}) {
	entry := x.(*queuedEvent)
	entry.index = len(*h)
	*h = append(*h, entry)
}

// Pop removes and returns the next event to happen.
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return entry
}
