// Package engine runs scene scripts.
//
// The engine walks a script's lines, evaluates each pre-parsed command
// right to left on a value stack and hands every op and mod to an external
// command table. Nested invocations, delayed commands and loops all run on
// one bounded execution stack, so no call chain can grow past
// execstate.Depth frames or loop more than execstate.WhileDepth times.
//
// An Engine is not safe for concurrent use. Callers serialise invocations;
// see package scheduler.
package engine

import (
	"log/slog"

	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/execstate"
	"github.com/zurustar/ttcore/pkg/logger"
	"github.com/zurustar/ttcore/pkg/scale"
	"github.com/zurustar/ttcore/pkg/scene"
)

// Op is a command table entry that takes Params values and may leave one.
// Set is optional; it runs instead of Get when the op is the first word of
// its command and one extra value is available.
type Op struct {
	Name    string
	Params  int
	Returns bool
	Get     func(ctx *Context) error
	Set     func(ctx *Context) error
}

// Mod is a command table entry that consumes Params values and controls
// the body after the ':' separator.
type Mod struct {
	Name   string
	Params int
	Func   func(ctx *Context, post *command.Command) error
}

// Table resolves op and mod words.
type Table interface {
	Op(id int16) (*Op, bool)
	Mod(id int16) (*Mod, bool)
}

// Output receives hardware level changes.
type Output interface {
	SetTR(i int, high bool)
	SetCV(i int, value int16, slew int16)
}

type nopOutput struct{}

func (nopOutput) SetTR(int, bool)          {}
func (nopOutput) SetCV(int, int16, int16) {}

// Result summarises one invocation.
type Result struct {
	// Lines counts executed lines, nested scripts included.
	Lines int
	// HasValue reports whether the last executed line left a value.
	HasValue bool
	Value    int16
	// Faults counts lines abandoned on a non-fatal error.
	Faults int
}

// Engine executes the scripts of one scene.
type Engine struct {
	scene *scene.Scene
	exec  execstate.State
	table Table
	out   Output
	quant scale.Quantizer
	log   *slog.Logger

	clock  int64
	lines  int
	faults int

	expired [scene.DelaySize]scene.DelayEntry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithOutput sets the hardware output sink.
func WithOutput(out Output) Option {
	return func(e *Engine) {
		e.out = out
	}
}

// WithQuantizer sets the quantizer used for IN and PARAM.
func WithQuantizer(q scale.Quantizer) Option {
	return func(e *Engine) {
		e.quant = q
	}
}

// New creates an engine for sc using table for command dispatch. A nil
// scene is replaced by a freshly initialised one.
func New(sc *scene.Scene, table Table, opts ...Option) *Engine {
	if sc == nil {
		sc = scene.New()
	}
	e := &Engine{
		scene: sc,
		table: table,
		out:   nopOutput{},
		quant: scale.Linear{},
		log:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.exec.Init()
	return e
}

// Scene returns the scene the engine mutates.
func (e *Engine) Scene() *scene.Scene {
	return e.scene
}

// Output returns the output sink.
func (e *Engine) Output() Output {
	return e.out
}

// Quantizer returns the quantizer used for input scaling.
func (e *Engine) Quantizer() scale.Quantizer {
	return e.quant
}

// Clock returns the simulated time in milliseconds.
func (e *Engine) Clock() int64 {
	return e.clock
}

// Busy reports whether an invocation is in progress.
func (e *Engine) Busy() bool {
	return e.exec.Depth() > 0
}

// Overflowed reports whether the exec stack has overflowed since the last
// Reset. While set, every invocation is refused.
func (e *Engine) Overflowed() bool {
	return e.exec.Overflow
}

// Reset reinitialises the scene and the exec stack. It is the only way to
// clear an overflow.
func (e *Engine) Reset() error {
	if e.Busy() {
		return NewRuntimeError(ErrorReentrant, ErrReentrant, "reset while running")
	}
	e.scene.Init()
	e.exec.Init()
	e.log.Info("Engine reset")
	return nil
}

// SwapScene replaces the whole scene. Pending delays and the every tally
// belong to the old scene and go with it.
func (e *Engine) SwapScene(sc *scene.Scene) error {
	if e.Busy() {
		return NewRuntimeError(ErrorReentrant, ErrReentrant, "scene swap while running")
	}
	if sc == nil {
		sc = scene.New()
	}
	e.scene = sc
	e.log.Debug("Scene swapped", "scene", sc.Variables.Scene)
	return nil
}

// Context is handed to ops and mods.
type Context struct {
	Engine *Engine
	Scene  *scene.Scene
	Exec   *execstate.State
	Stack  *command.Stack
}

// Frame returns the frame running the command.
func (c *Context) Frame() *execstate.Frame {
	return c.Exec.Top()
}

// Pop takes an operand. Arity is checked before an op or mod is called, so
// Pop never runs on an empty stack for the declared Params.
func (c *Context) Pop() int16 {
	return c.Stack.Pop()
}

// Push leaves a result.
func (c *Context) Push(v int16) {
	c.Stack.Push(v)
}

// Process evaluates cmd in the current frame. Mods use it to run their
// body.
func (c *Context) Process(cmd *command.Command) (Result, error) {
	return c.Engine.processCommand(cmd)
}
