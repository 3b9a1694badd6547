package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/execstate"
	"github.com/zurustar/ttcore/pkg/scene"
)

// TestPropertyWhileTerminates checks that a W line stops either when its
// predicate fails or at the iteration ceiling, whichever comes first.
func TestPropertyWhileTerminates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("while stops at predicate or ceiling", prop.ForAll(
		func(limit int) bool {
			e, tbl := newTestEngine(t)
			load(t, e, tbl, scene.Script1, fmt.Sprintf("W LT X %d: X ADD X 1", limit))
			if _, err := e.Run(scene.Script1); err != nil {
				return false
			}
			want := limit
			if want > execstate.WhileDepth {
				want = execstate.WhileDepth
			}
			if want < 0 {
				want = 0
			}
			return int(reg(e, scene.RegX)) == want
		},
		gen.IntRange(-5, 12000),
	))

	properties.TestingRun(t)
}

// TestPropertyNestedDepth chains k scripts, each calling the next, and
// checks that overflow happens exactly when the chain is deeper than the
// exec stack.
func TestPropertyNestedDepth(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("overflow iff chain exceeds depth", prop.ForAll(
		func(k int) bool {
			e, tbl := newTestEngine(t)
			for i := 1; i < k; i++ {
				load(t, e, tbl, scene.ScriptNumber(i-1), fmt.Sprintf("SCRIPT %d", i+1))
			}
			load(t, e, tbl, scene.ScriptNumber(k-1), "X 1")

			_, err := e.Run(scene.Script1)
			if e.Busy() {
				return false
			}
			if k > execstate.Depth {
				return errors.Is(err, engine.ErrExecOverflow) && e.Overflowed() && reg(e, scene.RegX) == 0
			}
			return err == nil && !e.Overflowed() && reg(e, scene.RegX) == 1
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

// TestPropertyDelayFiresOnce schedules a command with a random countdown
// and checks it runs exactly once, on the tick its countdown runs out.
func TestPropertyDelayFiresOnce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("delay fires exactly once", prop.ForAll(
		func(ticks int) bool {
			e, tbl := newTestEngine(t)
			if _, err := run(t, e, tbl, fmt.Sprintf("DEL %d: X ADD X 1", ticks)); err != nil {
				return false
			}
			fire := ticks
			if fire < 1 {
				fire = 1
			}
			for i := 1; i <= fire+5; i++ {
				_ = e.Tick(1)
				want := int16(0)
				if i >= fire {
					want = 1
				}
				if reg(e, scene.RegX) != want {
					return false
				}
			}
			return e.Scene().DelayCount() == 0
		},
		gen.IntRange(-3, 40),
	))

	properties.TestingRun(t)
}
