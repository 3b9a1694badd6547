package scene

import "github.com/zurustar/ttcore/pkg/command"

// Validate repairs a scene that came from outside (a snapshot or a text
// file) so that every structural invariant holds. It reports whether
// anything had to be changed.
func (s *Scene) Validate() bool {
	before := *s

	v := &s.Variables
	v.QN = clamp16(v.QN, 1, QLength)
	v.PN = clamp16(v.PN, 0, PatternCount-1)
	if v.M < MetroMinUnsupportedMS {
		v.M = MetroMinUnsupportedMS
	}
	if v.DrunkMin > v.DrunkMax {
		v.DrunkMin, v.DrunkMax = v.DrunkMax, v.DrunkMin
	}
	if v.OMin > v.OMax {
		v.OMin, v.OMax = v.OMax, v.OMin
	}
	if v.RMin > v.RMax {
		v.RMin, v.RMax = v.RMax, v.RMin
	}
	if !s.Cal.Valid() {
		if s.Cal.InMin > s.Cal.InMax {
			s.Cal.InMin = s.Cal.InMax
		}
		if s.Cal.ParamMin > s.Cal.ParamMax {
			s.Cal.ParamMin = s.Cal.ParamMax
		}
	}
	v.InRange = v.InRange.Normalize()
	v.ParamRange = v.ParamRange.Normalize()
	s.UpdateInScale()
	s.UpdateParamScale()

	for i := range s.Patterns {
		s.Patterns[i].normalize()
	}

	for i := range s.Scripts {
		sc := &s.Scripts[i]
		if sc.Len > ScriptMaxCommands {
			sc.Len = ScriptMaxCommands
		}
		for j := 0; j < ScriptMaxCommands; j++ {
			if j >= int(sc.Len) {
				sc.clearLine(j)
				continue
			}
			validCommand(&sc.Commands[j])
		}
		s.resyncEvery(ScriptNumber(i))
	}

	if s.Delay.Count > DelaySize {
		s.Delay.Count = DelaySize
	}
	for i := 0; i < DelaySize; i++ {
		if i >= int(s.Delay.Count) {
			s.Delay.clearSlot(i)
			continue
		}
		validCommand(&s.Delay.Commands[i])
		if s.Delay.Time[i] < 1 {
			s.Delay.Time[i] = 1
		}
		s.Delay.OriginLine[i] = clamp16(s.Delay.OriginLine[i], 0, ScriptMaxCommands-1)
	}
	if s.StackOp.Top > StackOpSize {
		s.StackOp.Top = StackOpSize
	}
	for i := 0; i < StackOpSize; i++ {
		if i >= int(s.StackOp.Top) {
			s.StackOp.Commands[i] = command.New()
			continue
		}
		validCommand(&s.StackOp.Commands[i])
	}

	for i := range s.TRPulseTimer {
		if s.TRPulseTimer[i] < 0 {
			s.TRPulseTimer[i] = 0
		}
	}
	if s.EveryTally < 0 {
		s.EveryTally = 0
	}
	s.Turtle.normalize()

	return *s != before
}

func validCommand(c *command.Command) {
	if c.Length > command.MaxWords {
		c.Length = command.MaxWords
	}
	c.Separator = -1
	for i := 0; i < int(c.Length); i++ {
		if c.Words[i].Tag == command.PreSep {
			c.Separator = int8(i)
			break
		}
	}
}
