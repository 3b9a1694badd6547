package engine

import (
	"fmt"

	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/execstate"
	"github.com/zurustar/ttcore/pkg/scene"
)

// enter opens a top-level invocation on an idle engine.
func (e *Engine) enter(n scene.ScriptNumber) error {
	if e.Busy() {
		return NewRuntimeError(ErrorReentrant, ErrReentrant, fmt.Sprintf("script %s refused", n))
	}
	if e.exec.Overflow {
		return NewRuntimeError(ErrorExecOverflow, ErrExecOverflow, "exec stack overflowed, reset required")
	}
	e.lines = 0
	e.faults = 0
	e.exec.Push()
	e.exec.SetScriptNumber(n)
	return nil
}

// leave closes a top-level invocation, discarding any frames a fatal
// error left behind.
func (e *Engine) leave(res *Result) error {
	res.Lines = e.lines
	res.Faults = e.faults
	for e.exec.Depth() > 1 {
		_ = e.exec.Pop()
	}
	if err := e.exec.Pop(); err != nil {
		return classify(err, nil)
	}
	return nil
}

// Run executes script n to completion. It is the entry point for trigger
// inputs, the metronome and foreground invocation.
func (e *Engine) Run(n scene.ScriptNumber) (Result, error) {
	if err := e.enter(n); err != nil {
		return Result{}, err
	}
	res, err := e.runScript(n)
	if lerr := e.leave(&res); lerr != nil && err == nil {
		err = lerr
	}
	return res, err
}

// RunNested runs script n on top of the current frame. It is used by ops
// that call other scripts. The new frame inherits the caller's delayed
// flag. At the depth limit the overflow flag is raised and nothing runs.
func (e *Engine) RunNested(n scene.ScriptNumber) (Result, error) {
	if !e.Busy() {
		return e.Run(n)
	}
	if !e.exec.Push() {
		e.log.Error("Exec stack overflow", "script", n.String(), "depth", e.exec.Depth())
		re := NewRuntimeError(ErrorExecOverflow, ErrExecOverflow,
			fmt.Sprintf("depth %d exceeded calling script %s", execstate.Depth, n))
		return Result{}, classify(re, e.exec.Top())
	}
	res, err := e.runScript(n)
	if perr := e.exec.Pop(); perr != nil && err == nil {
		err = classify(perr, nil)
	}
	return res, err
}

// RunCommand evaluates a single command outside any stored script.
func (e *Engine) RunCommand(cmd *command.Command) (Result, error) {
	if err := e.enter(scene.LiveScript); err != nil {
		return Result{}, err
	}
	e.lines++
	res, err := e.processCommand(cmd)
	if err != nil {
		err = classify(err, nil)
	}
	if lerr := e.leave(&res); lerr != nil && err == nil {
		err = lerr
	}
	return res, err
}

// ProcessCommand evaluates cmd in the frame currently running. Called on
// an idle engine it behaves like RunCommand.
func (e *Engine) ProcessCommand(cmd *command.Command) (Result, error) {
	if !e.Busy() {
		return e.RunCommand(cmd)
	}
	return e.processCommand(cmd)
}

// runScript walks the lines of n in the top frame.
func (e *Engine) runScript(n scene.ScriptNumber) (Result, error) {
	var res Result
	f := e.exec.Top()
	f.ScriptNumber = n

	count := e.scene.ScriptLen(n)
	for i := 0; i < count; i++ {
		if e.scene.ScriptComment(n, i) {
			continue
		}
		if f.Breaking {
			break
		}
		e.exec.SetLineNumber(i)

		ev, err := e.scene.Every(n, i)
		if err == nil && ev.Gated && !e.scene.EveryFires(ev) {
			continue
		}

		cmd := e.scene.ScriptCommand(n, i)
		f.WhileDepth = 0
		e.lines++
		for {
			f.WhileContinue = false
			out, err := e.processCommand(cmd)
			if err != nil {
				re := classify(err, f)
				if re.IsFatal() {
					return res, re
				}
				e.faults++
				e.log.Warn("Line aborted", "script", n.String(), "line", i+1, "error", re)
				res.HasValue = false
				break
			}
			res.HasValue, res.Value = out.HasValue, out.Value
			if !f.WhileContinue || f.Breaking {
				break
			}
		}
	}

	f.Breaking = false
	e.scene.UpdateScriptLast(n, e.clock)
	return res, nil
}

// processCommand splits cmd into its sub commands and evaluates them left
// to right. Each sub command gets its own value stack; the result is that
// of the last one.
func (e *Engine) processCommand(cmd *command.Command) (Result, error) {
	var parts [command.MaxWords]command.Command
	n := cmd.SubCommands(&parts)
	var res Result
	for i := 0; i < n; i++ {
		r, err := e.evaluate(&parts[i])
		if err != nil {
			return Result{}, err
		}
		res = r
	}
	return res, nil
}

// evaluate runs the words before the separator from right to left.
func (e *Engine) evaluate(cmd *command.Command) (Result, error) {
	var cs command.State
	cs.Init()
	ctx := Context{Engine: e, Scene: e.scene, Exec: &e.exec, Stack: &cs.Stack}
	st := &cs.Stack

	for idx := cmd.Pre() - 1; idx >= 0; idx-- {
		w := cmd.Words[idx]
		switch w.Tag {
		case command.Number:
			if st.Full() {
				return Result{}, NewRuntimeError(ErrorStackFull, ErrStackFull,
					fmt.Sprintf("no room for %d", w.Value))
			}
			st.Push(w.Value)

		case command.Op:
			op, ok := e.lookupOp(w.Value)
			if !ok {
				return Result{}, NewRuntimeError(ErrorUnknownOp, ErrUnknownOp, fmt.Sprintf("op %d", w.Value))
			}
			if idx == 0 && op.Set != nil && st.Size() >= op.Params+1 {
				if err := op.Set(&ctx); err != nil {
					return Result{}, err
				}
				continue
			}
			if err := checkArity(op.Name, op.Params, op.Returns, op.Get == nil, st); err != nil {
				return Result{}, err
			}
			if err := op.Get(&ctx); err != nil {
				return Result{}, err
			}

		case command.Mod:
			mod, ok := e.lookupMod(w.Value)
			if !ok {
				return Result{}, NewRuntimeError(ErrorUnknownOp, ErrUnknownOp, fmt.Sprintf("mod %d", w.Value))
			}
			if err := checkArity(mod.Name, mod.Params, false, mod.Func == nil, st); err != nil {
				return Result{}, err
			}
			post := cmd.Post()
			if err := mod.Func(&ctx, &post); err != nil {
				return Result{}, err
			}
		}
	}

	if st.Size() > 0 {
		return Result{HasValue: true, Value: st.Pop()}, nil
	}
	return Result{}, nil
}

func checkArity(name string, params int, returns, missing bool, st *command.Stack) error {
	if missing {
		return NewRuntimeError(ErrorInvalid, ErrArityMismatch, name+" cannot be read")
	}
	if st.Size() < params {
		return NewRuntimeError(ErrorArityMismatch, ErrArityMismatch,
			fmt.Sprintf("%s needs %d values, have %d", name, params, st.Size()))
	}
	if returns && st.Size()-params >= command.StackSize {
		return NewRuntimeError(ErrorStackFull, ErrStackFull, name+" has no room for its result")
	}
	return nil
}

func (e *Engine) lookupOp(id int16) (*Op, bool) {
	if e.table == nil {
		return nil, false
	}
	return e.table.Op(id)
}

func (e *Engine) lookupMod(id int16) (*Mod, bool) {
	if e.table == nil {
		return nil, false
	}
	return e.table.Mod(id)
}
