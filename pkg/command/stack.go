package command

// StackSize is the number of operand slots available while evaluating a
// single command.
const StackSize = 8

// Stack is the operand stack used during expression evaluation.
//
// Push and Pop are deliberately unchecked. Callers must consult Size or
// Full first; the engine validates every op's arity before calling it.
type Stack struct {
	values [StackSize]int16
	top    int
}

// Push places a value on top of the stack. The stack must not be full.
func (s *Stack) Push(v int16) {
	s.values[s.top] = v
	s.top++
}

// Pop removes and returns the top value. The stack must not be empty.
func (s *Stack) Pop() int16 {
	s.top--
	return s.values[s.top]
}

// Peek returns the top value without removing it. The stack must not be
// empty.
func (s *Stack) Peek() int16 {
	return s.values[s.top-1]
}

// Size returns the number of values on the stack.
func (s *Stack) Size() int {
	return s.top
}

// Full reports whether another Push would overflow.
func (s *Stack) Full() bool {
	return s.top >= StackSize
}

// Reset empties the stack.
func (s *Stack) Reset() {
	s.top = 0
}

// State is the per-invocation command state.
type State struct {
	Stack Stack
}

// Init clears the command state.
func (cs *State) Init() {
	cs.Stack.Reset()
}
