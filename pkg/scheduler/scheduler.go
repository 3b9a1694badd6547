package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/logger"
	"github.com/zurustar/ttcore/pkg/scene"
)

// Engine is the part of the engine the scheduler drives.
type Engine interface {
	Tick(ms int16) error
	Metro() (engine.Result, error)
	Trigger(input int) (engine.Result, error)
	Run(n scene.ScriptNumber) (engine.Result, error)
	RunCommand(cmd *command.Command) (engine.Result, error)
	Reset() error
	Scene() *scene.Scene
}

// ResultFunc receives the outcome of every dispatched event. It runs on the
// scheduler goroutine and may touch the engine.
type ResultFunc func(ev Event, res engine.Result, err error)

// Scheduler owns the two event queues and the metronome.
type Scheduler struct {
	eng      Engine
	high     *EventQueue
	fg       *EventQueue
	notify   chan struct{}
	metro    Metronome
	onResult ResultFunc
	log      *slog.Logger

	dropped atomic.Uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithQueueSize sets the capacity of both queues.
func WithQueueSize(n int) Option {
	return func(s *Scheduler) {
		s.high = NewEventQueue(n)
		s.fg = NewEventQueue(n)
	}
}

// WithResultFunc installs a callback for dispatch results.
func WithResultFunc(fn ResultFunc) Option {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}

// New creates a scheduler driving eng.
func New(eng Engine, opts ...Option) *Scheduler {
	s := &Scheduler{
		eng:    eng,
		high:   NewEventQueue(DefaultQueueSize),
		fg:     NewEventQueue(DefaultQueueSize),
		notify: make(chan struct{}, 1),
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Post queues ev and reports whether it was accepted. It never blocks; an
// event posted to a full queue is dropped.
func (s *Scheduler) Post(ev Event) bool {
	q := s.fg
	if ev.Type.highPriority() {
		q = s.high
	}
	if !q.Push(ev) {
		s.dropped.Add(1)
		s.log.Warn("Event dropped, queue full", "type", ev.Type)
		return false
	}
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return true
}

// PostTick queues a clock advance.
func (s *Scheduler) PostTick(ms int16) bool {
	return s.Post(Event{Type: EventTick, Ms: ms})
}

// PostMetro queues a metro beat.
func (s *Scheduler) PostMetro() bool {
	return s.Post(Event{Type: EventMetro})
}

// PostTrigger queues a trigger edge on a 0-based input.
func (s *Scheduler) PostTrigger(input int) bool {
	return s.Post(Event{Type: EventTrigger, Input: input})
}

// PostScript queues a direct script run.
func (s *Scheduler) PostScript(n scene.ScriptNumber) bool {
	return s.Post(Event{Type: EventScript, Script: n})
}

// PostCommand queues a live command.
func (s *Scheduler) PostCommand(cmd command.Command) bool {
	return s.Post(Event{Type: EventCommand, Command: cmd})
}

// PostReset queues an engine reset behind the events already waiting.
func (s *Scheduler) PostReset() bool {
	return s.Post(Event{Type: EventReset})
}

// Dropped returns the number of events rejected so far.
func (s *Scheduler) Dropped() uint64 {
	return s.dropped.Load()
}

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int {
	return s.high.Len() + s.fg.Len()
}

// Run dispatches events until ctx is done. Timing events always go first.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.Step() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.notify:
		}
	}
}

// Step dispatches one event and reports whether there was one.
func (s *Scheduler) Step() bool {
	ev, ok := s.high.Pop()
	if !ok {
		ev, ok = s.fg.Pop()
	}
	if !ok {
		return false
	}
	s.dispatch(ev)
	return true
}

// Drain dispatches queued events until both queues are empty and returns
// how many ran.
func (s *Scheduler) Drain() int {
	n := 0
	for s.Step() {
		n++
	}
	return n
}

func (s *Scheduler) dispatch(ev Event) {
	var res engine.Result
	var err error

	switch ev.Type {
	case EventTick:
		err = s.eng.Tick(ev.Ms)
		v := s.eng.Scene().Variables
		for i := s.metro.Advance(ev.Ms, v.M, v.MAct); i > 0; i-- {
			s.PostMetro()
		}
	case EventMetro:
		res, err = s.eng.Metro()
	case EventTrigger:
		res, err = s.eng.Trigger(ev.Input)
	case EventScript:
		res, err = s.eng.Run(ev.Script)
	case EventCommand:
		res, err = s.eng.RunCommand(&ev.Command)
	case EventReset:
		s.metro.Reset()
		err = s.eng.Reset()
	default:
		s.log.Error("Unknown event type", "type", ev.Type)
		return
	}

	if err != nil {
		switch {
		case engine.IsFatal(err):
			s.log.Error("Event failed", "type", ev.Type, "error", err)
		case errors.Is(err, engine.ErrReentrant):
			s.log.Error("Engine re-entered", "type", ev.Type, "error", err)
		default:
			s.log.Warn("Event failed", "type", ev.Type, "error", err)
		}
	} else if res.Faults > 0 {
		s.log.Warn("Script lines failed", "type", ev.Type, "faults", res.Faults)
	}
	if ev.Type != EventTick {
		s.log.Debug("Event dispatched", "type", ev.Type, "lines", res.Lines, "latency", time.Since(ev.Timestamp))
	}
	if s.onResult != nil {
		s.onResult(ev, res, err)
	}
}
