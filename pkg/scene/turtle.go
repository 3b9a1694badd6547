package scene

// Fence bounds the turtle on the pattern grid (X is the pattern, Y the
// slot).
type Fence struct {
	X1, Y1, X2, Y2 int16
}

// Turtle is the state slot of the turtle generator. Only the storage and
// the grid accessors live here; the walk itself is driven from outside.
type Turtle struct {
	X       int16
	Y       int16
	Fence   Fence
	Heading int16
	Speed   int16
	Mode    uint8
	Script  ScriptNumber
	Stepped bool
}

// DefaultTurtle returns a turtle at the origin, fenced to the whole grid.
func DefaultTurtle() Turtle {
	return Turtle{
		Fence:   Fence{X1: 0, Y1: 0, X2: PatternCount - 1, Y2: PatternLength - 1},
		Heading: 180,
		Speed:   100,
		Script:  TempScript,
	}
}

func (t *Turtle) normalize() {
	f := &t.Fence
	f.X1 = clamp16(f.X1, 0, PatternCount-1)
	f.X2 = clamp16(f.X2, 0, PatternCount-1)
	f.Y1 = clamp16(f.Y1, 0, PatternLength-1)
	f.Y2 = clamp16(f.Y2, 0, PatternLength-1)
	if f.X1 > f.X2 {
		f.X1, f.X2 = f.X2, f.X1
	}
	if f.Y1 > f.Y2 {
		f.Y1, f.Y2 = f.Y2, f.Y1
	}
	t.X = clamp16(t.X, f.X1, f.X2)
	t.Y = clamp16(t.Y, f.Y1, f.Y2)
}

// TurtleState returns a copy of the turtle.
func (s *Scene) TurtleState() Turtle {
	return s.Turtle
}

// SetTurtle replaces the turtle, clamping it inside its fence.
func (s *Scene) SetTurtle(t Turtle) {
	t.normalize()
	s.Turtle = t
}

// TurtleValue reads the pattern cell under the turtle.
func (s *Scene) TurtleValue() int16 {
	return s.Patterns[s.Turtle.X].Val[s.Turtle.Y]
}

// SetTurtleValue writes the pattern cell under the turtle.
func (s *Scene) SetTurtleValue(v int16) {
	s.Patterns[s.Turtle.X].Val[s.Turtle.Y] = v
}
