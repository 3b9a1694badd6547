package ops

import (
	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/execstate"
)

func (t *Table) registerControl() {
	t.action("SCRIPT", 1, func(ctx *engine.Context) error {
		n, err := scriptArg(ctx.Pop())
		if err != nil {
			return err
		}
		_, err = ctx.Engine.RunNested(n)
		return err
	})
	t.action("BREAK", 0, func(ctx *engine.Context) error {
		ctx.Frame().Breaking = true
		return nil
	}, "BRK")
	t.action("SYNC", 1, func(ctx *engine.Context) error {
		ctx.Scene.SyncEvery(ctx.Pop())
		return nil
	})
	// LINE.EVERY and LINE.SKIP gate a stored line (script, line, mod,
	// phase); the engine checks the gate before the line runs.
	t.action("LINE.EVERY", 4, lineGate(false))
	t.action("LINE.SKIP", 4, lineGate(true))
	t.action("LINE.CLR", 2, func(ctx *engine.Context) error {
		n, err := scriptArg(ctx.Pop())
		line := int(ctx.Pop()) - 1
		if err != nil {
			return err
		}
		return ctx.Scene.ClearLineEvery(n, line)
	})
	t.action("DEL.CLR", 0, func(ctx *engine.Context) error {
		ctx.Scene.ClearDelays()
		return nil
	})

	// S.POP replays the newest stored command; S.ALL replays all of them,
	// newest first. Replayed commands run in the replaying frame.
	t.action("S.POP", 0, func(ctx *engine.Context) error {
		cmd, ok := ctx.Scene.PopStackOp()
		if !ok {
			return nil
		}
		_, err := ctx.Process(&cmd)
		return err
	})
	t.action("S.ALL", 0, func(ctx *engine.Context) error {
		for {
			cmd, ok := ctx.Scene.PopStackOp()
			if !ok {
				return nil
			}
			if _, err := ctx.Process(&cmd); err != nil {
				return err
			}
		}
	})
	t.action("S.CLR", 0, func(ctx *engine.Context) error {
		ctx.Scene.ClearStackOps()
		return nil
	})
	t.getter("S.L", 0, func(ctx *engine.Context) error {
		ctx.Push(int16(ctx.Scene.StackOpLen()))
		return nil
	})
}

func lineGate(skip bool) func(*engine.Context) error {
	return func(ctx *engine.Context) error {
		n, err := scriptArg(ctx.Pop())
		line := int(ctx.Pop()) - 1
		mod, phase := ctx.Pop(), ctx.Pop()
		if err != nil {
			return err
		}
		return ctx.Scene.SetLineEvery(n, line, mod, phase, skip)
	}
}

func (t *Table) registerMods() {
	t.addMod(engine.Mod{Name: "IF", Params: 1, Func: modIf})
	t.addMod(engine.Mod{Name: "ELIF", Params: 1, Func: modElif})
	t.addMod(engine.Mod{Name: "ELSE", Func: modElse})
	t.addMod(engine.Mod{Name: "L", Params: 2, Func: modLoop})
	t.addMod(engine.Mod{Name: "W", Params: 1, Func: modWhile})
	t.addMod(engine.Mod{Name: "DEL", Params: 1, Func: modDelay})
	t.addMod(engine.Mod{Name: "S", Func: modStack})
	t.addMod(engine.Mod{Name: "EVERY", Params: 1, Func: modEvery(false)})
	t.addMod(engine.Mod{Name: "SKIP", Params: 1, Func: modEvery(true)})
	t.addMod(engine.Mod{Name: "OTHER", Func: modOther})
}

// modIf runs the body when the condition holds. The frame's
// IfElseCondition records whether a branch of the current chain has run; a
// fresh frame starts with it set, so a stray ELSE does nothing.
func modIf(ctx *engine.Context, post *command.Command) error {
	cond := ctx.Pop()
	f := ctx.Frame()
	f.IfElseCondition = false
	if cond != 0 {
		f.IfElseCondition = true
		_, err := ctx.Process(post)
		return err
	}
	return nil
}

func modElif(ctx *engine.Context, post *command.Command) error {
	cond := ctx.Pop()
	f := ctx.Frame()
	if !f.IfElseCondition && cond != 0 {
		f.IfElseCondition = true
		_, err := ctx.Process(post)
		return err
	}
	return nil
}

func modElse(ctx *engine.Context, post *command.Command) error {
	f := ctx.Frame()
	if !f.IfElseCondition {
		f.IfElseCondition = true
		_, err := ctx.Process(post)
		return err
	}
	return nil
}

// modLoop runs the body once for every I from a to b inclusive, counting
// down when b < a.
func modLoop(ctx *engine.Context, post *command.Command) error {
	a, b := int32(ctx.Pop()), int32(ctx.Pop())
	step := int32(1)
	if b < a {
		step = -1
	}
	f := ctx.Frame()
	for i := a; ; i += step {
		if f.Breaking {
			return nil
		}
		f.I = int16(i)
		if _, err := ctx.Process(post); err != nil {
			return err
		}
		if i == b {
			return nil
		}
	}
}

// modWhile runs the body once per call and asks the script loop to run
// the line again while the condition holds, up to the iteration ceiling.
func modWhile(ctx *engine.Context, post *command.Command) error {
	cond := ctx.Pop()
	f := ctx.Frame()
	if cond == 0 {
		f.WhileContinue = false
		return nil
	}
	if _, err := ctx.Process(post); err != nil {
		f.WhileContinue = false
		return err
	}
	f.WhileDepth++
	f.WhileContinue = f.WhileDepth < execstate.WhileDepth
	return nil
}

func modDelay(ctx *engine.Context, post *command.Command) error {
	ticks := ctx.Pop()
	f := ctx.Frame()
	return ctx.Scene.ScheduleDelay(post, ticks, f.ScriptNumber, int16(f.LineNumber))
}

func modStack(ctx *engine.Context, post *command.Command) error {
	return ctx.Scene.PushStackOp(post)
}

func modEvery(skip bool) func(*engine.Context, *command.Command) error {
	return func(ctx *engine.Context, post *command.Command) error {
		mod := ctx.Pop()
		f := ctx.Frame()
		e, err := ctx.Scene.ConfigureEvery(f.ScriptNumber, int(f.LineNumber), mod, skip)
		if err != nil {
			return err
		}
		if !ctx.Scene.EveryFires(e) {
			return nil
		}
		_, err = ctx.Process(post)
		return err
	}
}

func modOther(ctx *engine.Context, post *command.Command) error {
	if ctx.Scene.EveryLast {
		return nil
	}
	_, err := ctx.Process(post)
	return err
}
