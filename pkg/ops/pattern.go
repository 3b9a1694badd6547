package ops

import (
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/scene"
)

// patternIndex resolves an index argument against the selected pattern.
// Negative indexes count back from the length.
func patternIndex(s *scene.Scene, n int, i int16) int {
	if i < 0 {
		l, _ := s.PatternLen(n)
		i += l
	}
	return int(i)
}

func selected(s *scene.Scene) int {
	return int(s.Variables.PN)
}

// patternField registers a read/write op over a field of the selected
// pattern.
func (t *Table) patternField(name string, get func(*scene.Scene, int) (int16, error), set func(*scene.Scene, int, int16) error) {
	t.addOp(engine.Op{
		Name:    name,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			v, err := get(ctx.Scene, selected(ctx.Scene))
			if err != nil {
				return err
			}
			ctx.Push(v)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			return set(ctx.Scene, selected(ctx.Scene), ctx.Pop())
		},
	})
}

func (t *Table) registerPatterns() {
	t.addOp(engine.Op{
		Name:    "P.N",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.Variables.PN)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Scene.Variables.PN = clamp(ctx.Pop(), 0, scene.PatternCount-1)
			return nil
		},
	})

	t.addOp(engine.Op{
		Name:    "P",
		Params:  1,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			n := selected(ctx.Scene)
			v, err := ctx.Scene.PatternVal(n, patternIndex(ctx.Scene, n, ctx.Pop()))
			if err != nil {
				return err
			}
			ctx.Push(v)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			n := selected(ctx.Scene)
			i := patternIndex(ctx.Scene, n, ctx.Pop())
			return ctx.Scene.SetPatternVal(n, i, ctx.Pop())
		},
	})

	t.addOp(engine.Op{
		Name:    "PN",
		Params:  2,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			n, i := int(ctx.Pop()), ctx.Pop()
			if n < 0 || n >= scene.PatternCount {
				return scene.ErrIndexOutOfRange
			}
			v, err := ctx.Scene.PatternVal(n, patternIndex(ctx.Scene, n, i))
			if err != nil {
				return err
			}
			ctx.Push(v)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			n, i, v := int(ctx.Pop()), ctx.Pop(), ctx.Pop()
			if n < 0 || n >= scene.PatternCount {
				return scene.ErrIndexOutOfRange
			}
			return ctx.Scene.SetPatternVal(n, patternIndex(ctx.Scene, n, i), v)
		},
	})

	t.patternField("P.L", (*scene.Scene).PatternLen, (*scene.Scene).SetPatternLen)
	t.patternField("P.START", (*scene.Scene).PatternStart, (*scene.Scene).SetPatternStart)
	t.patternField("P.END", (*scene.Scene).PatternEnd, (*scene.Scene).SetPatternEnd)
	t.patternField("P.I", (*scene.Scene).PatternIdx, (*scene.Scene).SetPatternIdx)
	t.patternField("P.HERE", (*scene.Scene).PatternHere, (*scene.Scene).SetPatternHere)
	t.patternField("P.WRAP",
		func(s *scene.Scene, n int) (int16, error) {
			w, err := s.PatternWrap(n)
			return boolValue(w), err
		},
		func(s *scene.Scene, n int, v int16) error { return s.SetPatternWrap(n, v != 0) })

	// P.NEXT and P.PREV move the cursor; with an argument they also write
	// the slot they land on.
	t.patternField("P.NEXT", (*scene.Scene).PatternNext, func(s *scene.Scene, n int, v int16) error {
		if _, err := s.PatternNext(n); err != nil {
			return err
		}
		return s.SetPatternHere(n, v)
	})
	t.patternField("P.PREV", (*scene.Scene).PatternPrev, func(s *scene.Scene, n int, v int16) error {
		if _, err := s.PatternPrev(n); err != nil {
			return err
		}
		return s.SetPatternHere(n, v)
	})

	t.action("P.INS", 2, func(ctx *engine.Context) error {
		n := selected(ctx.Scene)
		i, v := ctx.Pop(), ctx.Pop()
		return ctx.Scene.PatternInsert(n, int16(patternIndex(ctx.Scene, n, i)), v)
	})
	t.getter("P.RM", 1, func(ctx *engine.Context) error {
		n := selected(ctx.Scene)
		v, err := ctx.Scene.PatternRemove(n, int16(patternIndex(ctx.Scene, n, ctx.Pop())))
		if err != nil {
			return err
		}
		ctx.Push(v)
		return nil
	})
	t.action("P.PUSH", 1, func(ctx *engine.Context) error {
		return ctx.Scene.PatternPush(selected(ctx.Scene), ctx.Pop())
	})
	t.getter("P.POP", 0, func(ctx *engine.Context) error {
		v, err := ctx.Scene.PatternPop(selected(ctx.Scene))
		if err != nil {
			return err
		}
		ctx.Push(v)
		return nil
	})
}

func (t *Table) registerQueue() {
	t.addOp(engine.Op{
		Name:    "Q",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.QTail())
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Scene.QPush(ctx.Pop())
			return nil
		},
	})
	t.addOp(engine.Op{
		Name:    "Q.N",
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(ctx.Scene.Variables.QN)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			ctx.Scene.SetQN(ctx.Pop())
			return nil
		},
	})
	t.addOp(engine.Op{
		Name:    "Q.I",
		Params:  1,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			v, err := ctx.Scene.QGet(int(ctx.Pop()))
			if err != nil {
				return err
			}
			ctx.Push(v)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			i, v := int(ctx.Pop()), ctx.Pop()
			return ctx.Scene.QSet(i, v)
		},
	})
	t.getter("Q.AVG", 0, func(ctx *engine.Context) error {
		ctx.Push(ctx.Scene.QAvg())
		return nil
	})
	t.action("Q.CLR", 0, func(ctx *engine.Context) error {
		ctx.Scene.QClear()
		return nil
	})
}
