package ops

import (
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/scene"
)

var registerNames = []struct {
	name string
	reg  scene.Register
}{
	{"A", scene.RegA}, {"B", scene.RegB}, {"C", scene.RegC}, {"D", scene.RegD},
	{"X", scene.RegX}, {"Y", scene.RegY}, {"Z", scene.RegZ}, {"T", scene.RegT},
}

func (t *Table) registerVariables() {
	for _, r := range registerNames {
		reg := r.reg
		t.variable(r.name, func(s *scene.Scene) *int16 { return &s.Variables.Registers[reg] })
	}

	t.addOp(engine.Op{
		Name:    "I",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Frame().I)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Frame().I = ctx.Pop()
			return nil
		},
	})

	t.addOp(engine.Op{
		Name:    "O",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.NextO())
			return nil
		},
		Set: func(ctx *engine.Context) error {
			v := &ctx.Scene.Variables
			v.O = clamp(ctx.Pop(), v.OMin, v.OMax)
			return nil
		},
	})
	t.variable("O.INC", func(s *scene.Scene) *int16 { return &s.Variables.OInc })
	t.variable("O.MIN", func(s *scene.Scene) *int16 { return &s.Variables.OMin })
	t.variable("O.MAX", func(s *scene.Scene) *int16 { return &s.Variables.OMax })
	t.flag("O.WRAP", func(s *scene.Scene) *bool { return &s.Variables.OWrap })

	t.addOp(engine.Op{
		Name:    "DRUNK",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.StepDrunk(int16(t.rnd.IntN(3) - 1)))
			return nil
		},
		Set: func(ctx *engine.Context) error {
			v := &ctx.Scene.Variables
			v.Drunk = clamp(ctx.Pop(), v.DrunkMin, v.DrunkMax)
			return nil
		},
	})
	t.variable("DRUNK.MIN", func(s *scene.Scene) *int16 { return &s.Variables.DrunkMin })
	t.variable("DRUNK.MAX", func(s *scene.Scene) *int16 { return &s.Variables.DrunkMax })
	t.flag("DRUNK.WRAP", func(s *scene.Scene) *bool { return &s.Variables.DrunkWrap })

	t.addOp(engine.Op{
		Name:    "FLIP",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			v := &ctx.Scene.Variables
			ctx.Push(v.Flip)
			v.Flip = boolValue(v.Flip == 0)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Scene.Variables.Flip = boolValue(ctx.Pop() != 0)
			return nil
		},
	})

	t.variable("TIME", func(s *scene.Scene) *int16 { return &s.Variables.Time })
	t.flag("TIME.ACT", func(s *scene.Scene) *bool { return &s.Variables.TimeAct })

	t.getter("LAST", 1, func(ctx *engine.Context) error {
		n, err := scriptArg(ctx.Pop())
		if err != nil {
			return err
		}
		d := ctx.Engine.Clock() - ctx.Scene.ScriptLast(n)
		if d > 32767 {
			d = 32767
		}
		ctx.Push(int16(d))
		return nil
	})

	t.addOp(engine.Op{
		Name:    "M",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.Variables.M)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Scene.SetMetro(ctx.Pop())
			return nil
		},
	})
	t.addOp(engine.Op{
		Name:    "M!",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.Variables.M)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Scene.SetMetroUnsupported(ctx.Pop())
			return nil
		},
	})
	t.flag("M.ACT", func(s *scene.Scene) *bool { return &s.Variables.MAct })

	t.addOp(engine.Op{
		Name:    "SCENE",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.Variables.Scene)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			v := ctx.Pop()
			if ctx.Scene.Initializing {
				// a scene cannot switch itself while its init script runs
				return nil
			}
			ctx.Scene.SetScene(v)
			return nil
		},
	})

	t.getter("IN", 0, func(ctx *engine.Context) error {
		ctx.Push(ctx.Scene.In(ctx.Engine.Quantizer()))
		return nil
	})
	t.getter("PARAM", 0, func(ctx *engine.Context) error {
		ctx.Push(ctx.Scene.Param(ctx.Engine.Quantizer()))
		return nil
	})

	t.registerCalibration()
}

func (t *Table) registerCalibration() {
	t.action("IN.SCALE", 2, func(ctx *engine.Context) error {
		lo, hi := ctx.Pop(), ctx.Pop()
		ctx.Scene.SetInScale(lo, hi)
		return nil
	})
	t.action("PARAM.SCALE", 2, func(ctx *engine.Context) error {
		lo, hi := ctx.Pop(), ctx.Pop()
		ctx.Scene.SetParamScale(lo, hi)
		return nil
	})

	// The calibration ops capture the current raw reading as the bound.
	t.calibrate("IN.CAL.MIN", func(s *scene.Scene) int16 {
		s.SetInMin(s.Variables.In)
		return s.InMin()
	})
	t.calibrate("IN.CAL.MAX", func(s *scene.Scene) int16 {
		s.SetInMax(s.Variables.In)
		return s.InMax()
	})
	t.action("IN.CAL.RESET", 0, func(ctx *engine.Context) error {
		ctx.Scene.ResetInCal()
		return nil
	})
	t.calibrate("PARAM.CAL.MIN", func(s *scene.Scene) int16 {
		s.SetParamMin(s.Variables.Param)
		return s.ParamMin()
	})
	t.calibrate("PARAM.CAL.MAX", func(s *scene.Scene) int16 {
		s.SetParamMax(s.Variables.Param)
		return s.ParamMax()
	})
	t.action("PARAM.CAL.RESET", 0, func(ctx *engine.Context) error {
		ctx.Scene.ResetParamCal()
		return nil
	})
}

func (t *Table) calibrate(name string, fn func(*scene.Scene) int16) {
	t.getter(name, 0, func(ctx *engine.Context) error {
		ctx.Push(fn(ctx.Scene))
		return nil
	})
}

func (t *Table) registerHardware() {
	t.indexed("MUTE", scene.TriggerInputs,
		func(ctx *engine.Context, i int) (int16, error) {
			m, err := ctx.Scene.Mute(i)
			return boolValue(m), err
		},
		func(ctx *engine.Context, i int, v int16) error {
			return ctx.Scene.SetMute(i, v != 0)
		})

	t.indexed("CV", scene.CVCount,
		func(ctx *engine.Context, i int) (int16, error) { return ctx.Scene.Variables.CV[i], nil },
		func(ctx *engine.Context, i int, v int16) error { return ctx.Engine.SetCV(i, v) })
	t.indexed("CV.OFF", scene.CVCount,
		func(ctx *engine.Context, i int) (int16, error) { return ctx.Scene.Variables.CVOff[i], nil },
		func(ctx *engine.Context, i int, v int16) error {
			ctx.Scene.Variables.CVOff[i] = v
			return ctx.Engine.SetCV(i, ctx.Scene.Variables.CV[i])
		})
	t.indexed("CV.SLEW", scene.CVCount,
		func(ctx *engine.Context, i int) (int16, error) { return ctx.Scene.Variables.CVSlew[i], nil },
		func(ctx *engine.Context, i int, v int16) error {
			if v < 1 {
				v = 1
			}
			ctx.Scene.Variables.CVSlew[i] = v
			return nil
		})

	t.indexed("TR", scene.TRCount,
		func(ctx *engine.Context, i int) (int16, error) { return ctx.Scene.Variables.TR[i], nil },
		func(ctx *engine.Context, i int, v int16) error { return ctx.Engine.SetTR(i, v != 0) })
	t.indexed("TR.POL", scene.TRCount,
		func(ctx *engine.Context, i int) (int16, error) { return ctx.Scene.Variables.TRPol[i], nil },
		func(ctx *engine.Context, i int, v int16) error {
			ctx.Scene.Variables.TRPol[i] = boolValue(v != 0)
			return nil
		})
	t.indexed("TR.TIME", scene.TRCount,
		func(ctx *engine.Context, i int) (int16, error) { return ctx.Scene.Variables.TRTime[i], nil },
		func(ctx *engine.Context, i int, v int16) error {
			if v < 0 {
				v = 0
			}
			ctx.Scene.Variables.TRTime[i] = v
			return nil
		})
	t.action("TR.P", 1, func(ctx *engine.Context) error {
		i, err := channel(ctx.Pop(), scene.TRCount)
		if err != nil {
			return err
		}
		return ctx.Engine.PulseTR(i)
	})

	t.addOp(engine.Op{
		Name:    "@",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.TurtleValue())
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Scene.SetTurtleValue(ctx.Pop())
			return nil
		},
	})
	t.turtleAxis("@X", func(tt *scene.Turtle) *int16 { return &tt.X })
	t.turtleAxis("@Y", func(tt *scene.Turtle) *int16 { return &tt.Y })
}

func (t *Table) turtleAxis(name string, axis func(*scene.Turtle) *int16) {
	t.addOp(engine.Op{
		Name:    name,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			tt := ctx.Scene.TurtleState()
			ctx.Push(*axis(&tt))
			return nil
		},
		Set: func(ctx *engine.Context) error {
			tt := ctx.Scene.TurtleState()
			*axis(&tt) = ctx.Pop()
			ctx.Scene.SetTurtle(tt)
			return nil
		},
	})
}
