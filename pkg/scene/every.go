package scene

// EveryCount is the periodic gate attached to a script line.
//
// An every counter fires when EveryTally mod Mod equals Phase; a skip
// counter fires on every other tally. Gated marks a line level periodicity
// that the engine checks before the line runs; EVERY and SKIP commands use
// the same counter without setting it.
type EveryCount struct {
	Mod   int16
	Phase int16
	Skip  bool
	Gated bool
}

// Configured reports whether the counter has a modulus.
func (e *EveryCount) Configured() bool {
	return e.Mod != 0
}

func normMod(m int16) int16 {
	switch {
	case m == -32768:
		return 32767
	case m < 0:
		return -m
	case m == 0:
		return 1
	}
	return m
}

func normPhase(p, mod int16) int16 {
	p %= mod
	if p < 0 {
		p += mod
	}
	return p
}

func (s *Scene) everyHit(e *EveryCount) bool {
	mod := normMod(e.Mod)
	return s.EveryTally%mod == normPhase(e.Phase, mod)
}

// EveryIsNow evaluates e as an every counter and records the outcome in
// EveryLast.
func (s *Scene) EveryIsNow(e *EveryCount) bool {
	fire := s.everyHit(e)
	s.EveryLast = fire
	return fire
}

// SkipIsNow evaluates e as a skip counter and records the outcome in
// EveryLast.
func (s *Scene) SkipIsNow(e *EveryCount) bool {
	fire := !s.everyHit(e)
	s.EveryLast = fire
	return fire
}

// EveryFires evaluates e according to its Skip flag.
func (s *Scene) EveryFires(e *EveryCount) bool {
	if e.Skip {
		return s.SkipIsNow(e)
	}
	return s.EveryIsNow(e)
}

// Every returns the counter of a line. Lines of unstored scripts share
// LiveEvery.
func (s *Scene) Every(n ScriptNumber, line int) (*EveryCount, error) {
	if !n.Stored() {
		return &s.LiveEvery, nil
	}
	if line < 0 || line >= ScriptMaxCommands {
		return nil, ErrIndexOutOfRange
	}
	return &s.Scripts[n].Every[line], nil
}

// ConfigureEvery points a line's counter at modulus mod. When the modulus
// changes, the phase is realigned to the live tally so the counter fires on
// the current tally and every mod tallies after it.
func (s *Scene) ConfigureEvery(n ScriptNumber, line int, mod int16, skip bool) (*EveryCount, error) {
	e, err := s.Every(n, line)
	if err != nil {
		return nil, err
	}
	m := normMod(mod)
	if e.Mod != m {
		e.Mod = m
		e.Phase = s.EveryTally % m
	}
	e.Skip = skip
	return e, nil
}

// SetLineEvery declares a line level periodicity with an explicit phase.
func (s *Scene) SetLineEvery(n ScriptNumber, line int, mod, phase int16, skip bool) error {
	sc, err := s.script(n)
	if err != nil {
		return err
	}
	if line < 0 || line >= int(sc.Len) {
		return ErrIndexOutOfRange
	}
	m := normMod(mod)
	sc.Every[line] = EveryCount{Mod: m, Phase: normPhase(phase, m), Skip: skip, Gated: true}
	return nil
}

// ClearLineEvery removes any periodicity from a line.
func (s *Scene) ClearLineEvery(n ScriptNumber, line int) error {
	sc, err := s.script(n)
	if err != nil {
		return err
	}
	if line < 0 || line >= int(sc.Len) {
		return ErrIndexOutOfRange
	}
	sc.Every[line] = EveryCount{}
	return nil
}

// AdvanceEvery moves the tally on by one, staying non-negative.
func (s *Scene) AdvanceEvery() {
	if s.EveryTally == 32767 {
		s.EveryTally = 0
		return
	}
	s.EveryTally++
}

// SyncEvery sets the tally to count and realigns every counter to phase 0,
// so all of them fire together on the next multiple of their modulus.
func (s *Scene) SyncEvery(count int16) {
	if count < 0 {
		count = 0
	}
	s.EveryTally = count
	for i := range s.Scripts {
		for j := range s.Scripts[i].Every {
			s.Scripts[i].Every[j].Phase = 0
		}
	}
	s.LiveEvery.Phase = 0
}

// resyncEvery runs after a script edit. Lines keep their counters, so the
// cycle position relative to the live tally survives the edit; only the
// stored phase is brought back into [0, Mod). Fresh lines have no modulus
// and align to the tally the first time they are configured.
func (s *Scene) resyncEvery(n ScriptNumber) {
	sc := &s.Scripts[n]
	for i := 0; i < ScriptMaxCommands; i++ {
		e := &sc.Every[i]
		if i >= int(sc.Len) {
			*e = EveryCount{}
			continue
		}
		if !e.Configured() {
			continue
		}
		e.Mod = normMod(e.Mod)
		e.Phase = normPhase(e.Phase, e.Mod)
	}
}
