package engine

import (
	"errors"
	"fmt"

	"github.com/zurustar/ttcore/pkg/execstate"
	"github.com/zurustar/ttcore/pkg/scene"
)

// ErrorType classifies a runtime error.
type ErrorType string

const (
	// Fatal: the invocation unwinds.
	ErrorExecOverflow ErrorType = "EXEC_OVERFLOW"
	ErrorInternal     ErrorType = "INTERNAL"

	// Non-fatal: the current line is abandoned.
	ErrorDelayFull       ErrorType = "DELAY_FULL"
	ErrorStackOpFull     ErrorType = "STACK_OP_FULL"
	ErrorIndexOutOfRange ErrorType = "INDEX_OUT_OF_RANGE"
	ErrorScriptFull      ErrorType = "SCRIPT_FULL"
	ErrorArityMismatch   ErrorType = "ARITY_MISMATCH"
	ErrorStackFull       ErrorType = "STACK_FULL"
	ErrorUnknownOp       ErrorType = "UNKNOWN_OP"
	ErrorReentrant       ErrorType = "REENTRANT"
	ErrorInvalid         ErrorType = "INVALID_OPERATION"
)

// Sentinels wrapped by RuntimeError. Match them with errors.Is.
var (
	ErrExecOverflow  = errors.New("exec stack overflow")
	ErrArityMismatch = errors.New("not enough values on the stack")
	ErrStackFull     = errors.New("value stack full")
	ErrUnknownOp     = errors.New("unknown op or mod")
	ErrReentrant     = errors.New("engine is already running a script")
)

// RuntimeError carries the type of a failure and where it happened.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Script  scene.ScriptNumber
	Line    int // -1 outside a script line
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("[%s] %s at script %s line %d", e.Type, e.Message, e.Script, e.Line+1)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error must unwind the whole invocation.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorExecOverflow, ErrorInternal:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err is a fatal RuntimeError.
func IsFatal(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.IsFatal()
}

// NewRuntimeError creates a RuntimeError with no line information.
func NewRuntimeError(errType ErrorType, err error, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		Line:    -1,
		Err:     err,
	}
}

// classify turns an error returned by an op or mod into a RuntimeError
// bound to the frame that was running.
func classify(err error, f *execstate.Frame) *RuntimeError {
	var re *RuntimeError
	if errors.As(err, &re) {
		if re.Line < 0 && f != nil {
			cp := *re
			cp.Script = f.ScriptNumber
			cp.Line = int(f.LineNumber)
			return &cp
		}
		return re
	}

	t := ErrorInvalid
	switch {
	case errors.Is(err, scene.ErrDelayFull):
		t = ErrorDelayFull
	case errors.Is(err, scene.ErrStackOpFull):
		t = ErrorStackOpFull
	case errors.Is(err, scene.ErrIndexOutOfRange),
		errors.Is(err, scene.ErrPatternFull),
		errors.Is(err, scene.ErrPatternEmpty),
		errors.Is(err, scene.ErrNotStored):
		t = ErrorIndexOutOfRange
	case errors.Is(err, scene.ErrScriptFull):
		t = ErrorScriptFull
	case errors.Is(err, execstate.ErrPopEmpty):
		t = ErrorInternal
	}
	re = NewRuntimeError(t, err, err.Error())
	if f != nil {
		re.Script = f.ScriptNumber
		re.Line = int(f.LineNumber)
	}
	return re
}
