// Package ops provides the reference command table: the ops and mods a
// script line can use, and the parser that turns source text into the
// pre-parsed commands the engine runs.
package ops

import (
	"math/rand/v2"
	"time"

	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/scene"
)

// Table holds ops and mods indexed by the word values the parser emits.
type Table struct {
	ops    []engine.Op
	mods   []engine.Mod
	opIDs  map[string]int16
	modIDs map[string]int16
	rnd    *rand.Rand
}

// Option configures a Table.
type Option func(*Table)

// WithRand sets the random source used by RAND, RRAND and DRUNK.
func WithRand(r *rand.Rand) Option {
	return func(t *Table) {
		t.rnd = r
	}
}

// NewTable builds the full command table.
func NewTable(opts ...Option) *Table {
	seed := uint64(time.Now().UnixNano())
	t := &Table{
		opIDs:  make(map[string]int16),
		modIDs: make(map[string]int16),
		rnd:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.registerVariables()
	t.registerHardware()
	t.registerMath()
	t.registerPatterns()
	t.registerQueue()
	t.registerControl()
	t.registerMods()
	return t
}

// Op implements engine.Table.
func (t *Table) Op(id int16) (*engine.Op, bool) {
	if id < 0 || int(id) >= len(t.ops) {
		return nil, false
	}
	return &t.ops[id], true
}

// Mod implements engine.Table.
func (t *Table) Mod(id int16) (*engine.Mod, bool) {
	if id < 0 || int(id) >= len(t.mods) {
		return nil, false
	}
	return &t.mods[id], true
}

// OpID returns the word value of an op name.
func (t *Table) OpID(name string) (int16, bool) {
	id, ok := t.opIDs[name]
	return id, ok
}

// ModID returns the word value of a mod name.
func (t *Table) ModID(name string) (int16, bool) {
	id, ok := t.modIDs[name]
	return id, ok
}

func (t *Table) addOp(op engine.Op, aliases ...string) {
	id := int16(len(t.ops))
	t.ops = append(t.ops, op)
	t.opIDs[op.Name] = id
	for _, a := range aliases {
		t.opIDs[a] = id
	}
}

func (t *Table) addMod(mod engine.Mod) {
	t.modIDs[mod.Name] = int16(len(t.mods))
	t.mods = append(t.mods, mod)
}

// getter registers an op that only reads.
func (t *Table) getter(name string, params int, get func(*engine.Context) error) {
	t.addOp(engine.Op{Name: name, Params: params, Returns: true, Get: get})
}

// action registers an op that returns nothing.
func (t *Table) action(name string, params int, get func(*engine.Context) error, aliases ...string) {
	t.addOp(engine.Op{Name: name, Params: params, Get: get}, aliases...)
}

// variable registers a read/write op over a scene field.
func (t *Table) variable(name string, field func(*scene.Scene) *int16) {
	t.addOp(engine.Op{
		Name:    name,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(*field(ctx.Scene))
			return nil
		},
		Set: func(ctx *engine.Context) error {
			*field(ctx.Scene) = ctx.Pop()
			return nil
		},
	})
}

// flag registers a read/write op over a boolean scene field.
func (t *Table) flag(name string, field func(*scene.Scene) *bool) {
	t.addOp(engine.Op{
		Name:    name,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			ctx.Push(boolValue(*field(ctx.Scene)))
			return nil
		},
		Set: func(ctx *engine.Context) error {
			*field(ctx.Scene) = ctx.Pop() != 0
			return nil
		},
	})
}

// indexed registers a read/write op over one of n channels addressed
// 1-based by its first argument.
func (t *Table) indexed(name string, n int, get func(*engine.Context, int) (int16, error), set func(*engine.Context, int, int16) error) {
	t.addOp(engine.Op{
		Name:    name,
		Params:  1,
		Returns: true,
		Get: func(ctx *engine.Context) error {
			i, err := channel(ctx.Pop(), n)
			if err != nil {
				return err
			}
			v, err := get(ctx, i)
			if err != nil {
				return err
			}
			ctx.Push(v)
			return nil
		},
		Set: func(ctx *engine.Context) error {
			i, err := channel(ctx.Pop(), n)
			v := ctx.Pop()
			if err != nil {
				return err
			}
			return set(ctx, i, v)
		},
	})
}

func channel(v int16, n int) (int, error) {
	i := int(v) - 1
	if i < 0 || i >= n {
		return 0, scene.ErrIndexOutOfRange
	}
	return i, nil
}

// scriptArg maps a script argument (1-8 inputs, 9 metro, 10 init) to its
// slot.
func scriptArg(v int16) (scene.ScriptNumber, error) {
	if v < 1 || v > int16(scene.InitScript)+1 {
		return 0, scene.ErrIndexOutOfRange
	}
	return scene.ScriptNumber(v - 1), nil
}

func boolValue(b bool) int16 {
	if b {
		return 1
	}
	return 0
}
