package ops

import (
	"github.com/zurustar/ttcore/pkg/engine"
)

func clamp(v, lo, hi int16) int16 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func saturate(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// binary registers a two argument op. a is the first argument on the line.
func (t *Table) binary(name string, fn func(a, b int16) int16) {
	t.getter(name, 2, func(ctx *engine.Context) error {
		a := ctx.Pop()
		b := ctx.Pop()
		ctx.Push(fn(a, b))
		return nil
	})
}

func (t *Table) registerMath() {
	t.binary("ADD", func(a, b int16) int16 { return a + b })
	t.binary("SUB", func(a, b int16) int16 { return a - b })
	t.binary("MUL", func(a, b int16) int16 { return a * b })
	t.binary("DIV", func(a, b int16) int16 {
		if b == 0 {
			return 0
		}
		return saturate(int32(a) / int32(b))
	})
	t.binary("MOD", func(a, b int16) int16 {
		if b == 0 {
			return 0
		}
		return int16(int32(a) % int32(b))
	})
	t.binary("EQ", func(a, b int16) int16 { return boolValue(a == b) })
	t.binary("NE", func(a, b int16) int16 { return boolValue(a != b) })
	t.binary("LT", func(a, b int16) int16 { return boolValue(a < b) })
	t.binary("GT", func(a, b int16) int16 { return boolValue(a > b) })
	t.binary("LTE", func(a, b int16) int16 { return boolValue(a <= b) })
	t.binary("GTE", func(a, b int16) int16 { return boolValue(a >= b) })
	t.binary("AND", func(a, b int16) int16 { return boolValue(a != 0 && b != 0) })
	t.binary("OR", func(a, b int16) int16 { return boolValue(a != 0 || b != 0) })
	t.binary("MIN", func(a, b int16) int16 { return min(a, b) })
	t.binary("MAX", func(a, b int16) int16 { return max(a, b) })

	t.getter("NOT", 1, func(ctx *engine.Context) error {
		ctx.Push(boolValue(ctx.Pop() == 0))
		return nil
	})
	t.getter("LIM", 3, func(ctx *engine.Context) error {
		v, lo, hi := ctx.Pop(), ctx.Pop(), ctx.Pop()
		ctx.Push(clamp(v, lo, hi))
		return nil
	})

	t.getter("RAND", 1, func(ctx *engine.Context) error {
		ctx.Push(t.between(0, ctx.Pop()))
		return nil
	})
	t.getter("RRAND", 2, func(ctx *engine.Context) error {
		a, b := ctx.Pop(), ctx.Pop()
		ctx.Push(t.between(a, b))
		return nil
	})
}

// between returns a uniform value in [a, b], either order.
func (t *Table) between(a, b int16) int16 {
	if a > b {
		a, b = b, a
	}
	span := int(b) - int(a) + 1
	return int16(int(a) + t.rnd.IntN(span))
}
