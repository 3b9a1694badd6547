// Package scheduler serialises everything that drives the engine. Timer
// ticks, metro beats, trigger edges, script requests and live commands are
// posted as events from any goroutine; a single Run loop hands them to the
// engine one at a time, so the engine is never entered concurrently.
package scheduler

import (
	"sync"
	"time"

	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/scene"
)

// EventType is the kind of an event.
type EventType string

const (
	// EventTick advances the engine clock by Ms milliseconds.
	EventTick EventType = "TICK"
	// EventMetro is one metronome beat.
	EventMetro EventType = "METRO"
	// EventTrigger is a rising edge on trigger input Input.
	EventTrigger EventType = "TRIGGER"
	// EventScript runs stored script Script directly, bypassing mutes.
	EventScript EventType = "SCRIPT"
	// EventCommand runs Command as a live command.
	EventCommand EventType = "COMMAND"
	// EventReset reinitialises the engine and the metronome phase.
	EventReset EventType = "RESET"
)

// highPriority reports whether events of this type go to the timing queue.
func (t EventType) highPriority() bool {
	switch t {
	case EventTick, EventMetro, EventTrigger:
		return true
	}
	return false
}

// Event is one queued request.
type Event struct {
	Type      EventType
	Timestamp time.Time

	Ms      int16
	Input   int
	Script  scene.ScriptNumber
	Command command.Command
}

// DefaultQueueSize is the default capacity of each queue.
const DefaultQueueSize = 256

// EventQueue is a bounded FIFO safe for concurrent use. A full queue
// rejects new events instead of blocking the poster.
type EventQueue struct {
	events  []Event
	maxSize int
	mu      sync.Mutex
}

// NewEventQueue creates a queue holding at most maxSize events. A
// non-positive size selects DefaultQueueSize.
func NewEventQueue(maxSize int) *EventQueue {
	if maxSize <= 0 {
		maxSize = DefaultQueueSize
	}
	return &EventQueue{
		events:  make([]Event, 0, maxSize),
		maxSize: maxSize,
	}
}

// Push appends ev and reports whether there was room. A missing timestamp
// is filled in.
func (eq *EventQueue) Push(ev Event) bool {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if len(eq.events) >= eq.maxSize {
		return false
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	eq.events = append(eq.events, ev)
	return true
}

// Pop removes and returns the oldest event.
func (eq *EventQueue) Pop() (Event, bool) {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if len(eq.events) == 0 {
		return Event{}, false
	}
	ev := eq.events[0]
	copy(eq.events, eq.events[1:])
	eq.events = eq.events[:len(eq.events)-1]
	return ev, true
}

// Len returns the number of queued events.
func (eq *EventQueue) Len() int {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return len(eq.events)
}

// Clear drops every queued event.
func (eq *EventQueue) Clear() {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	eq.events = eq.events[:0]
}
