package engine

import (
	"fmt"

	"github.com/zurustar/ttcore/pkg/scene"
)

// Tick advances simulated time by ms. It must be called exactly once per
// time step. Expired delays run in insertion order, each in a frame bound
// to the script and line that scheduled it.
func (e *Engine) Tick(ms int16) error {
	if e.Busy() {
		return NewRuntimeError(ErrorReentrant, ErrReentrant, "tick while running")
	}
	if ms <= 0 {
		return nil
	}
	e.clock += int64(ms)

	v := &e.scene.Variables
	if v.TimeAct {
		v.Time += ms
	}

	n := e.scene.TickDelays(ms, &e.expired)
	for i := 0; i < n; i++ {
		ent := e.expired[i]
		if err := e.dispatchDelay(&ent); err != nil {
			if IsFatal(err) {
				e.log.Error("Delayed command failed", "error", err)
			} else {
				e.log.Warn("Delayed command failed", "error", err)
			}
		}
	}

	if fell := e.scene.TickTR(ms); fell != 0 {
		for i := 0; i < scene.TRCount; i++ {
			if fell&(1<<i) != 0 {
				e.out.SetTR(i, v.TR[i] != 0)
			}
		}
	}
	return nil
}

func (e *Engine) dispatchDelay(ent *scene.DelayEntry) error {
	if err := e.enter(ent.OriginScript); err != nil {
		return err
	}
	f := e.exec.Top()
	f.Delayed = true
	f.LineNumber = uint8(ent.OriginLine)
	e.lines++

	res, err := e.processCommand(&ent.Command)
	if err != nil {
		err = classify(err, f)
	}
	if lerr := e.leave(&res); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

// Metro runs the metronome script when the metro is active and then
// advances the every tally.
func (e *Engine) Metro() (Result, error) {
	if e.Busy() {
		return Result{}, NewRuntimeError(ErrorReentrant, ErrReentrant, "metro while running")
	}
	var res Result
	var err error
	if e.scene.Variables.MAct {
		res, err = e.Run(scene.MetroScript)
	}
	e.scene.AdvanceEvery()
	return res, err
}

// Trigger runs the script of a trigger input unless the input is muted.
func (e *Engine) Trigger(input int) (Result, error) {
	muted, err := e.scene.Mute(input)
	if err != nil {
		return Result{}, classify(err, nil)
	}
	if muted {
		e.log.Debug("Trigger muted", "input", input+1)
		return Result{}, nil
	}
	return e.Run(scene.ScriptNumber(input))
}

// Init runs the init script with the scene marked as initialising.
func (e *Engine) Init() (Result, error) {
	e.scene.Initializing = true
	defer func() { e.scene.Initializing = false }()
	res, err := e.Run(scene.InitScript)
	if err != nil {
		return res, fmt.Errorf("init script: %w", err)
	}
	return res, nil
}

// SetCV writes a CV target and forwards it, offset applied, to the output.
func (e *Engine) SetCV(i int, value int16) error {
	if i < 0 || i >= scene.CVCount {
		return classify(scene.ErrIndexOutOfRange, e.exec.Top())
	}
	v := &e.scene.Variables
	v.CV[i] = value
	e.out.SetCV(i, value+v.CVOff[i], v.CVSlew[i])
	return nil
}

// PulseTR starts a trigger pulse and forwards the rising edge.
func (e *Engine) PulseTR(i int) error {
	if err := e.scene.PulseTR(i); err != nil {
		return err
	}
	e.out.SetTR(i, e.scene.Variables.TR[i] != 0)
	return nil
}

// SetTR sets a trigger output level directly.
func (e *Engine) SetTR(i int, high bool) error {
	if i < 0 || i >= scene.TRCount {
		return scene.ErrIndexOutOfRange
	}
	if high {
		e.scene.Variables.TR[i] = 1
	} else {
		e.scene.Variables.TR[i] = 0
	}
	e.out.SetTR(i, high)
	return nil
}
