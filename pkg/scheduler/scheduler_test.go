package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/ops"
	"github.com/zurustar/ttcore/pkg/scene"
)

// fakeEngine records the calls the scheduler makes.
type fakeEngine struct {
	sc     *scene.Scene
	calls  []EventType
	inputs []int
	ticked int
	metros int
	resets int
	err    error
}

func newFake() *fakeEngine {
	return &fakeEngine{sc: scene.New()}
}

func (f *fakeEngine) Tick(ms int16) error {
	f.calls = append(f.calls, EventTick)
	f.ticked += int(ms)
	return f.err
}

func (f *fakeEngine) Metro() (engine.Result, error) {
	f.calls = append(f.calls, EventMetro)
	f.metros++
	return engine.Result{}, f.err
}

func (f *fakeEngine) Trigger(input int) (engine.Result, error) {
	f.calls = append(f.calls, EventTrigger)
	f.inputs = append(f.inputs, input)
	return engine.Result{}, f.err
}

func (f *fakeEngine) Run(n scene.ScriptNumber) (engine.Result, error) {
	f.calls = append(f.calls, EventScript)
	f.inputs = append(f.inputs, int(n))
	return engine.Result{}, f.err
}

func (f *fakeEngine) RunCommand(cmd *command.Command) (engine.Result, error) {
	f.calls = append(f.calls, EventCommand)
	f.inputs = append(f.inputs, int(cmd.Length))
	return engine.Result{}, f.err
}

func (f *fakeEngine) Reset() error {
	f.resets++
	return nil
}

func (f *fakeEngine) Scene() *scene.Scene {
	return f.sc
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTimingEventsFirst(t *testing.T) {
	f := newFake()
	s := New(f, WithLogger(quiet()))

	s.PostCommand(command.New())
	s.PostScript(scene.Script3)
	s.PostTick(1)
	s.PostTrigger(2)

	if n := s.Drain(); n != 4 {
		t.Fatalf("Drain ran %d events, want 4", n)
	}
	want := []EventType{EventTick, EventTrigger, EventCommand, EventScript}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", f.calls, want)
		}
	}
}

func TestQueueFull(t *testing.T) {
	f := newFake()
	s := New(f, WithLogger(quiet()), WithQueueSize(2))

	for i := 0; i < 2; i++ {
		if !s.PostTrigger(i) {
			t.Fatalf("post %d rejected", i)
		}
	}
	if s.PostTrigger(3) {
		t.Error("third post should be rejected")
	}
	if !s.PostCommand(command.New()) {
		t.Error("foreground queue should still have room")
	}
	if s.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", s.Dropped())
	}
	if s.Pending() != 3 {
		t.Errorf("Pending = %d, want 3", s.Pending())
	}
}

func TestTickDrivesMetro(t *testing.T) {
	f := newFake()
	f.sc.Variables.M = 100
	s := New(f, WithLogger(quiet()))

	s.PostTick(250)
	s.Drain()
	if f.metros != 2 {
		t.Errorf("metros = %d, want 2", f.metros)
	}
	s.PostTick(50)
	s.Drain()
	if f.metros != 3 {
		t.Errorf("metros = %d, want 3", f.metros)
	}

	f.sc.Variables.MAct = false
	s.PostTick(500)
	s.Drain()
	if f.metros != 3 {
		t.Error("inactive metro should not fire")
	}
}

func TestMetronome(t *testing.T) {
	tests := []struct {
		name     string
		steps    []int16
		interval int16
		want     int
	}{
		{"below interval", []int16{10, 20, 30}, 100, 0},
		{"exact", []int16{50, 50}, 100, 1},
		{"burst", []int16{1000}, 250, 4},
		{"negative ignored", []int16{-50, 100}, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metronome
			got := 0
			for _, ms := range tt.steps {
				got += m.Advance(ms, tt.interval, true)
			}
			if got != tt.want {
				t.Errorf("beats = %d, want %d", got, tt.want)
			}
		})
	}

	var m Metronome
	m.Advance(90, 100, true)
	m.Advance(10, 100, false)
	if m.Pending() != 0 {
		t.Error("switching off should drop the phase")
	}
}

func TestReset(t *testing.T) {
	f := newFake()
	f.sc.Variables.M = 100
	s := New(f, WithLogger(quiet()))
	s.PostTick(90)
	s.Drain()
	s.PostReset()
	s.Drain()
	s.PostTick(90)
	s.Drain()
	if f.resets != 1 {
		t.Errorf("resets = %d, want 1", f.resets)
	}
	if f.metros != 0 {
		t.Error("reset should restart the metro phase")
	}
}

func TestErrorsReachResultFunc(t *testing.T) {
	f := newFake()
	f.err = engine.NewRuntimeError(engine.ErrorExecOverflow, engine.ErrExecOverflow, "deep")
	var got error
	s := New(f, WithLogger(quiet()), WithResultFunc(func(ev Event, res engine.Result, err error) {
		got = err
	}))
	s.PostTrigger(0)
	s.Drain()
	if !errors.Is(got, engine.ErrExecOverflow) {
		t.Errorf("result error = %v", got)
	}
}

func TestRunWithEngine(t *testing.T) {
	tbl := ops.NewTable()
	eng := engine.New(scene.New(), tbl, engine.WithLogger(quiet()))
	results := make(chan engine.Result, 4)
	s := New(eng, WithLogger(quiet()), WithResultFunc(func(ev Event, res engine.Result, err error) {
		if ev.Type == EventCommand {
			results <- res
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.PostCommand(tbl.MustParse("X 5"))
	s.PostCommand(tbl.MustParse("ADD X 2"))

	timeout := time.After(2 * time.Second)
	var last engine.Result
	for i := 0; i < 2; i++ {
		select {
		case last = <-results:
		case <-timeout:
			t.Fatal("timed out waiting for results")
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
	if !last.HasValue || last.Value != 7 {
		t.Errorf("last result = %+v, want 7", last)
	}
}

// TestPropertyDispatchOrder checks that, for any mix of queued events,
// timing events run first and each queue keeps its posting order.
func TestPropertyDispatchOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("timing first, FIFO within a queue", prop.ForAll(
		func(kinds []bool) bool {
			f := newFake()
			s := New(f, WithLogger(quiet()))
			var high, fg []int
			for i, timing := range kinds {
				if timing {
					s.PostTrigger(i)
					high = append(high, i)
				} else {
					s.PostScript(scene.ScriptNumber(i))
					fg = append(fg, i)
				}
			}
			s.Drain()
			want := append(high, fg...)
			if len(f.inputs) != len(want) {
				return false
			}
			for i := range want {
				if f.inputs[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Bool()),
	))

	properties.TestingRun(t)
}
