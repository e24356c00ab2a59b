package core

import (
	"math"
	"sort"
)

// ExternalEvent is something scheduled to happen at a specific simulation
// time: a forced connection, an injected message, a requested update pass.
// The taxonomy is open; World only needs the timestamp and the effect.
type ExternalEvent interface {
	// Time returns the simulation time the event is due.
	Time() float64
	// ProcessEvent applies the event's effect on the world.
	ProcessEvent(w *World)
}

// EventQueue is an ordered source of timestamped external events. Queues
// report the time of their next event without consuming it; NextEvent both
// returns and consumes.
type EventQueue interface {
	// NextEventsTime returns the time of the next event, or +Inf when the
	// queue is empty.
	NextEventsTime() float64
	// NextEvent returns and removes the next event, or nil when empty.
	NextEvent() ExternalEvent
}

// ExternalEventsQueue feeds a pre-built list of events to the world. Events
// are ordered by time; events sharing a timestamp keep their original
// order.
type ExternalEventsQueue struct {
	events []ExternalEvent
}

// NewExternalEventsQueue builds a queue from the given events, sorting them
// stably by time.
func NewExternalEventsQueue(events ...ExternalEvent) *ExternalEventsQueue {
	sorted := make([]ExternalEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time() < sorted[j].Time()
	})
	return &ExternalEventsQueue{events: sorted}
}

// NextEventsTime returns the due time of the head event, or +Inf.
func (q *ExternalEventsQueue) NextEventsTime() float64 {
	if len(q.events) == 0 {
		return math.Inf(1)
	}
	return q.events[0].Time()
}

// NextEvent pops the head event.
func (q *ExternalEventsQueue) NextEvent() ExternalEvent {
	if len(q.events) == 0 {
		return nil
	}
	e := q.events[0]
	q.events = q.events[1:]
	return e
}

// ScheduledUpdatesQueue holds requests for extra host-update passes. Its
// events have no effect of their own: draining one already triggers the
// update pass World runs after every event. Duplicate requests for the same
// time collapse into one.
type ScheduledUpdatesQueue struct {
	times []float64
}

// NewScheduledUpdatesQueue creates an empty queue.
func NewScheduledUpdatesQueue() *ScheduledUpdatesQueue {
	return &ScheduledUpdatesQueue{}
}

// AddUpdate requests a host-update pass at the given simulation time.
func (q *ScheduledUpdatesQueue) AddUpdate(t float64) {
	i := sort.SearchFloat64s(q.times, t)
	if i < len(q.times) && q.times[i] == t {
		return
	}
	q.times = append(q.times, 0)
	copy(q.times[i+1:], q.times[i:])
	q.times[i] = t
}

// NextEventsTime returns the earliest requested update time, or +Inf.
func (q *ScheduledUpdatesQueue) NextEventsTime() float64 {
	if len(q.times) == 0 {
		return math.Inf(1)
	}
	return q.times[0]
}

// NextEvent pops the earliest update request.
func (q *ScheduledUpdatesQueue) NextEvent() ExternalEvent {
	if len(q.times) == 0 {
		return nil
	}
	t := q.times[0]
	q.times = q.times[1:]
	return updateRequestEvent{time: t}
}

// updateRequestEvent forces an update pass by merely being drained.
type updateRequestEvent struct {
	time float64
}

func (e updateRequestEvent) Time() float64         { return e.time }
func (e updateRequestEvent) ProcessEvent(w *World) {}
