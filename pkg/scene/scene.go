// Package scene implements the program store of a single scene: variables,
// I/O registers, patterns, scripts, the delayed-command queue, the deferred
// stack-op buffer, trigger pulse timers and the every/skip bookkeeping.
//
// All storage is fixed size. A Scene is a plain value aggregate; switching
// scenes means replacing the whole structure.
package scene

import (
	"github.com/zurustar/ttcore/pkg/scale"
)

// Fixed capacities.
const (
	CVCount           = 4
	TRCount           = 4
	TriggerInputs     = 8
	QLength           = 64
	DelaySize         = 8
	StackOpSize       = 16
	PatternCount      = 4
	PatternLength     = 64
	ScriptMaxCommands = 6
	ScriptCount       = 11
	RegisterCount     = 8

	MetroMinMS            = 25
	MetroMinUnsupportedMS = 2
)

// ScriptNumber identifies a script slot.
type ScriptNumber uint8

// Script slots. LiveScript and TempScript are not stored; they only give a
// frame context to commands entered outside a script.
const (
	Script1 ScriptNumber = iota
	Script2
	Script3
	Script4
	Script5
	Script6
	Script7
	Script8
	MetroScript
	InitScript
	DelayScript
	LiveScript
	TempScript
)

// Stored reports whether the script number refers to a slot in the scene.
func (n ScriptNumber) Stored() bool {
	return int(n) < ScriptCount
}

func (n ScriptNumber) String() string {
	switch {
	case n <= Script8:
		return string(rune('1' + n))
	case n == MetroScript:
		return "M"
	case n == InitScript:
		return "I"
	case n == DelayScript:
		return "D"
	case n == LiveScript:
		return "LIVE"
	case n == TempScript:
		return "TEMP"
	}
	return "?"
}

// Register indexes the general purpose variables. The order is fixed so the
// group can be saved and restored as one array.
type Register uint8

const (
	RegA Register = iota
	RegX
	RegB
	RegY
	RegC
	RegZ
	RegD
	RegT
)

// Variables holds scalar scene state.
type Variables struct {
	Registers [RegisterCount]int16

	CV     [CVCount]int16
	CVOff  [CVCount]int16
	CVSlew [CVCount]int16

	Drunk     int16
	DrunkMin  int16
	DrunkMax  int16
	DrunkWrap bool

	Flip  int16
	In    int16
	Param int16

	M    int16
	MAct bool

	Mutes [TriggerInputs]bool

	O     int16
	OInc  int16
	OMin  int16
	OMax  int16
	OWrap bool

	PN int16

	Q  [QLength]int16
	QN int16

	RMin int16
	RMax int16

	Scene   int16
	Time    int16
	TimeAct bool

	TR     [TRCount]int16
	TRPol  [TRCount]int16
	TRTime [TRCount]int16

	InRange    scale.Range
	InScale    scale.Scale
	ParamRange scale.Range
	ParamScale scale.Scale
}

// Scene is the complete editable program of one scene.
type Scene struct {
	Initializing bool

	Variables    Variables
	Patterns     [PatternCount]Pattern
	Delay        Delay
	StackOp      StackOp
	TRPulseTimer [TRCount]int16
	Scripts      [ScriptCount]Script
	Turtle       Turtle

	// EveryTally is the scene-wide count every/skip counters are
	// evaluated against. EveryLast records whether the most recent
	// evaluation fired.
	EveryTally int16
	EveryLast  bool
	// LiveEvery backs EVERY/SKIP evaluated outside a stored script.
	LiveEvery EveryCount

	Cal scale.Calibration
}

// New returns an initialised scene.
func New() *Scene {
	s := &Scene{}
	s.Init()
	return s
}

// Init resets the whole scene to its defaults.
func (s *Scene) Init() {
	*s = Scene{}
	s.Cal = scale.DefaultCalibration()
	s.InitVariables()
	s.InitPatterns()
	s.Delay.init()
	s.StackOp.init()
	for i := range s.Scripts {
		s.Scripts[i].clear()
	}
	s.Turtle = DefaultTurtle()
}

// InitVariables resets the variables to their power-on values.
func (s *Scene) InitVariables() {
	v := &s.Variables
	*v = Variables{}

	v.Registers[RegA] = 1
	v.Registers[RegB] = 2
	v.Registers[RegC] = 3
	v.Registers[RegD] = 4

	for i := 0; i < CVCount; i++ {
		v.CVSlew[i] = 1
	}
	v.DrunkMax = 255
	v.M = 1000
	v.MAct = true
	v.OInc = 1
	v.OMax = 63
	v.OWrap = true
	v.QN = 1
	v.RMax = 16383
	v.TimeAct = true
	for i := 0; i < TRCount; i++ {
		v.TRPol[i] = 1
		v.TRTime[i] = 100
	}

	v.InRange = scale.DefaultRange()
	v.ParamRange = scale.DefaultRange()
	s.UpdateInScale()
	s.UpdateParamScale()
}

// Reg returns a general purpose register.
func (s *Scene) Reg(r Register) int16 {
	return s.Variables.Registers[r]
}

// SetReg writes a general purpose register.
func (s *Scene) SetReg(r Register, v int16) {
	s.Variables.Registers[r] = v
}

// SetIn stores a raw CV input reading.
func (s *Scene) SetIn(v int16) {
	s.Variables.In = v
}

// SetParam stores a raw parameter knob reading.
func (s *Scene) SetParam(v int16) {
	s.Variables.Param = v
}

// In returns the CV input mapped through its calibrated scale.
func (s *Scene) In(q scale.Quantizer) int16 {
	return q.Quantize(s.Variables.InScale, s.Variables.In)
}

// Param returns the parameter knob mapped through its calibrated scale.
func (s *Scene) Param(q scale.Quantizer) int16 {
	return q.Quantize(s.Variables.ParamScale, s.Variables.Param)
}

// SetScene records the scene number.
func (s *Scene) SetScene(v int16) {
	s.Variables.Scene = v
}

// SetMetro sets the metro interval, never below MetroMinMS.
func (s *Scene) SetMetro(ms int16) {
	if ms < MetroMinMS {
		ms = MetroMinMS
	}
	s.Variables.M = ms
}

// SetMetroUnsupported sets the metro interval with the lower floor that is
// allowed but not guaranteed to keep up.
func (s *Scene) SetMetroUnsupported(ms int16) {
	if ms < MetroMinUnsupportedMS {
		ms = MetroMinUnsupportedMS
	}
	s.Variables.M = ms
}

// Mute reports whether a trigger input is muted.
func (s *Scene) Mute(i int) (bool, error) {
	if i < 0 || i >= TriggerInputs {
		return false, ErrIndexOutOfRange
	}
	return s.Variables.Mutes[i], nil
}

// SetMute mutes or unmutes a trigger input.
func (s *Scene) SetMute(i int, v bool) error {
	if i < 0 || i >= TriggerInputs {
		return ErrIndexOutOfRange
	}
	s.Variables.Mutes[i] = v
	return nil
}

// NextO returns the ordered counter and advances it by its increment,
// wrapping or clamping at [OMin, OMax].
func (s *Scene) NextO() int16 {
	v := &s.Variables
	cur := v.O
	next := int32(v.O) + int32(v.OInc)
	switch {
	case next > int32(v.OMax):
		if v.OWrap {
			next = int32(v.OMin)
		} else {
			next = int32(v.OMax)
		}
	case next < int32(v.OMin):
		if v.OWrap {
			next = int32(v.OMax)
		} else {
			next = int32(v.OMin)
		}
	}
	v.O = int16(next)
	return cur
}

// StepDrunk moves the random walk by delta and keeps it inside
// [DrunkMin, DrunkMax]. The random step itself comes from the caller.
func (s *Scene) StepDrunk(delta int16) int16 {
	v := &s.Variables
	next := int32(v.Drunk) + int32(delta)
	switch {
	case next > int32(v.DrunkMax):
		if v.DrunkWrap {
			next = int32(v.DrunkMin)
		} else {
			next = int32(v.DrunkMax)
		}
	case next < int32(v.DrunkMin):
		if v.DrunkWrap {
			next = int32(v.DrunkMax)
		} else {
			next = int32(v.DrunkMin)
		}
	}
	v.Drunk = int16(next)
	return v.Drunk
}

// PulseTR raises a trigger output to its active polarity and arms the pulse
// timer with the output's pulse width.
func (s *Scene) PulseTR(i int) error {
	if i < 0 || i >= TRCount {
		return ErrIndexOutOfRange
	}
	v := &s.Variables
	if v.TRPol[i] != 0 {
		v.TR[i] = 1
	} else {
		v.TR[i] = 0
	}
	w := v.TRTime[i]
	if w < 1 {
		w = 1
	}
	s.TRPulseTimer[i] = w
	return nil
}

// TickTR counts the pulse timers down by ms. Outputs whose pulse ended are
// returned to their idle level and reported as a bit mask.
func (s *Scene) TickTR(ms int16) uint8 {
	var fell uint8
	for i := 0; i < TRCount; i++ {
		if s.TRPulseTimer[i] == 0 {
			continue
		}
		s.TRPulseTimer[i] -= ms
		if s.TRPulseTimer[i] <= 0 {
			s.TRPulseTimer[i] = 0
			if s.Variables.TRPol[i] == 0 {
				s.Variables.TR[i] = 1
			} else {
				s.Variables.TR[i] = 0
			}
			fell |= 1 << i
		}
	}
	return fell
}

// TRHigh reports whether a trigger output is currently inside a pulse.
func (s *Scene) TRHigh(i int) bool {
	return i >= 0 && i < TRCount && s.TRPulseTimer[i] != 0
}
