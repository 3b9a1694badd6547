package scene

import "errors"

// Capacity and range failures. Every mutating operation that returns one of
// these leaves the scene untouched.
var (
	ErrIndexOutOfRange = errors.New("scene: index out of range")
	ErrScriptFull      = errors.New("scene: script line limit reached")
	ErrDelayFull       = errors.New("scene: delay queue full")
	ErrStackOpFull     = errors.New("scene: stack op buffer full")
	ErrPatternFull     = errors.New("scene: pattern at capacity")
	ErrPatternEmpty    = errors.New("scene: pattern cannot shrink below one value")
	ErrNotStored       = errors.New("scene: script is not stored in the scene")
)
