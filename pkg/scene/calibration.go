package scene

import "github.com/zurustar/ttcore/pkg/scale"

// UpdateInScale recompiles the CV input scale from the calibration and the
// configured output range.
func (s *Scene) UpdateInScale() {
	r := &s.Variables.InRange
	r.InMin = s.Cal.InMin
	r.InMax = s.Cal.InMax
	s.Variables.InScale = scale.Compile(*r)
}

// UpdateParamScale recompiles the parameter scale.
func (s *Scene) UpdateParamScale() {
	r := &s.Variables.ParamRange
	r.InMin = s.Cal.ParamMin
	r.InMax = s.Cal.ParamMax
	s.Variables.ParamScale = scale.Compile(*r)
}

// SetInScale sets the output span of the CV input. Inverted bounds are
// swapped.
func (s *Scene) SetInScale(min, max int16) {
	if min > max {
		min, max = max, min
	}
	s.Variables.InRange.OutMin = min
	s.Variables.InRange.OutMax = max
	s.UpdateInScale()
}

// SetParamScale sets the output span of the parameter knob.
func (s *Scene) SetParamScale(min, max int16) {
	if min > max {
		min, max = max, min
	}
	s.Variables.ParamRange.OutMin = min
	s.Variables.ParamRange.OutMax = max
	s.UpdateParamScale()
}

func (s *Scene) InMin() int16    { return s.Cal.InMin }
func (s *Scene) InMax() int16    { return s.Cal.InMax }
func (s *Scene) ParamMin() int16 { return s.Cal.ParamMin }
func (s *Scene) ParamMax() int16 { return s.Cal.ParamMax }

// SetInMin calibrates the lowest raw CV reading.
func (s *Scene) SetInMin(v int16) {
	s.Cal.SetInMin(v)
	s.UpdateInScale()
}

// SetInMax calibrates the highest raw CV reading.
func (s *Scene) SetInMax(v int16) {
	s.Cal.SetInMax(v)
	s.UpdateInScale()
}

// ResetInCal restores the default CV input calibration.
func (s *Scene) ResetInCal() {
	d := scale.DefaultCalibration()
	s.Cal.InMin, s.Cal.InMax = d.InMin, d.InMax
	s.UpdateInScale()
}

// SetParamMin calibrates the lowest raw knob reading.
func (s *Scene) SetParamMin(v int16) {
	s.Cal.SetParamMin(v)
	s.UpdateParamScale()
}

// SetParamMax calibrates the highest raw knob reading.
func (s *Scene) SetParamMax(v int16) {
	s.Cal.SetParamMax(v)
	s.UpdateParamScale()
}

// ResetParamCal restores the default parameter calibration.
func (s *Scene) ResetParamCal() {
	d := scale.DefaultCalibration()
	s.Cal.ParamMin, s.Cal.ParamMax = d.ParamMin, d.ParamMax
	s.UpdateParamScale()
}
