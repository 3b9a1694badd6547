// Package execstate implements the bounded execution stack a script
// invocation runs on. Each frame carries the control-flow flags of one
// running script; nested SCRIPT calls and delayed commands push frames on
// the same stack.
package execstate

import (
	"errors"

	"github.com/zurustar/ttcore/pkg/scene"
)

const (
	// Depth is the maximum number of nested frames.
	Depth = 8
	// WhileDepth is the iteration ceiling of a single W line.
	WhileDepth = 10000
)

// ErrPopEmpty is returned when a frame is popped from an empty stack. It
// means a push/pop pair went out of balance and is treated as fatal.
var ErrPopEmpty = errors.New("execstate: pop on empty stack")

// Frame is the per-invocation control-flow state.
type Frame struct {
	IfElseCondition bool
	I               int16
	WhileContinue   bool
	WhileDepth      uint16
	Breaking        bool
	ScriptNumber    scene.ScriptNumber
	LineNumber      uint8
	Delayed         bool
}

// State is the execution stack. Frames [0, Depth) are live.
type State struct {
	Frames   [Depth]Frame
	depth    uint8
	Overflow bool
}

// Init clears every frame and the overflow flag.
func (es *State) Init() {
	*es = State{}
}

// Depth returns the number of live frames.
func (es *State) Depth() int {
	return int(es.depth)
}

// Push opens a new frame. At the depth limit nothing changes except the
// overflow flag, which stays set until Init.
func (es *State) Push() bool {
	if int(es.depth) >= Depth {
		es.Overflow = true
		return false
	}
	var delayed bool
	if es.depth > 0 {
		delayed = es.Frames[es.depth-1].Delayed
	}
	es.Frames[es.depth] = Frame{
		IfElseCondition: true,
		Delayed:         delayed,
	}
	es.depth++
	return true
}

// Pop closes the top frame.
func (es *State) Pop() error {
	if es.depth == 0 {
		return ErrPopEmpty
	}
	es.depth--
	es.Frames[es.depth] = Frame{}
	return nil
}

// Top returns the innermost frame, or nil when the stack is empty.
func (es *State) Top() *Frame {
	if es.depth == 0 {
		return nil
	}
	return &es.Frames[es.depth-1]
}

// SetScriptNumber records the script the top frame is running.
func (es *State) SetScriptNumber(n scene.ScriptNumber) {
	if f := es.Top(); f != nil {
		f.ScriptNumber = n
	}
}

// SetLineNumber records the line the top frame is on.
func (es *State) SetLineNumber(l int) {
	if f := es.Top(); f != nil {
		f.LineNumber = uint8(l)
	}
}

// LineNumber returns the line of the top frame.
func (es *State) LineNumber() int {
	if f := es.Top(); f != nil {
		return int(f.LineNumber)
	}
	return 0
}
