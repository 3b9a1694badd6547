package scene

// Pattern is a bounded, cursor addressed sequence of values.
//
// Invariant: 0 <= Start <= End < Len <= PatternLength and
// Start <= Idx <= End.
type Pattern struct {
	Idx   int16
	Len   int16
	Wrap  bool
	Start int16
	End   int16
	Val   [PatternLength]int16
}

func (p *Pattern) init() {
	*p = Pattern{
		Len:  PatternLength,
		Wrap: true,
		End:  PatternLength - 1,
	}
}

func clamp16(v, lo, hi int16) int16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalize restores the invariant after any bound write.
func (p *Pattern) normalize() {
	p.Len = clamp16(p.Len, 1, PatternLength)
	p.End = clamp16(p.End, 0, p.Len-1)
	p.Start = clamp16(p.Start, 0, p.End)
	p.Idx = clamp16(p.Idx, p.Start, p.End)
}

// InitPatterns resets every pattern.
func (s *Scene) InitPatterns() {
	for i := range s.Patterns {
		s.Patterns[i].init()
	}
}

// InitPattern resets a single pattern.
func (s *Scene) InitPattern(n int) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	p.init()
	return nil
}

func (s *Scene) pattern(n int) (*Pattern, error) {
	if n < 0 || n >= PatternCount {
		return nil, ErrIndexOutOfRange
	}
	return &s.Patterns[n], nil
}

// PatternIdx returns the cursor of pattern n.
func (s *Scene) PatternIdx(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	return p.Idx, nil
}

// SetPatternIdx moves the cursor. Negative indexes count back from the
// length; the result is clamped into [Start, End].
func (s *Scene) SetPatternIdx(n int, i int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	if i < 0 {
		i += p.Len
	}
	p.Idx = clamp16(i, p.Start, p.End)
	return nil
}

// PatternLen returns the logical length of pattern n.
func (s *Scene) PatternLen(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	return p.Len, nil
}

// SetPatternLen sets the logical length, clamped to [1, PatternLength].
// End, Start and the cursor follow when they fall outside.
func (s *Scene) SetPatternLen(n int, l int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	p.Len = l
	p.normalize()
	return nil
}

// PatternWrap reports whether the cursor wraps at the bounds.
func (s *Scene) PatternWrap(n int) (bool, error) {
	p, err := s.pattern(n)
	if err != nil {
		return false, err
	}
	return p.Wrap, nil
}

// SetPatternWrap sets the wrap flag.
func (s *Scene) SetPatternWrap(n int, wrap bool) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	p.Wrap = wrap
	return nil
}

// PatternStart returns the lower cursor bound.
func (s *Scene) PatternStart(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	return p.Start, nil
}

// SetPatternStart sets the lower cursor bound, clamped into [0, Len). A
// start past End drags End along.
func (s *Scene) SetPatternStart(n int, start int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	p.Start = clamp16(start, 0, p.Len-1)
	if p.End < p.Start {
		p.End = p.Start
	}
	p.normalize()
	return nil
}

// PatternEnd returns the upper cursor bound.
func (s *Scene) PatternEnd(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	return p.End, nil
}

// SetPatternEnd sets the upper cursor bound, clamped into [0, Len). An end
// before Start drags Start along.
func (s *Scene) SetPatternEnd(n int, end int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	p.End = clamp16(end, 0, p.Len-1)
	if p.Start > p.End {
		p.Start = p.End
	}
	p.normalize()
	return nil
}

// PatternVal reads an absolute slot of pattern n.
func (s *Scene) PatternVal(n int, i int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= PatternLength {
		return 0, ErrIndexOutOfRange
	}
	return p.Val[i], nil
}

// SetPatternVal writes an absolute slot of pattern n.
func (s *Scene) SetPatternVal(n int, i int, v int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	if i < 0 || i >= PatternLength {
		return ErrIndexOutOfRange
	}
	p.Val[i] = v
	return nil
}

// PatternHere returns the value under the cursor.
func (s *Scene) PatternHere(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	return p.Val[p.Idx], nil
}

// SetPatternHere writes the value under the cursor.
func (s *Scene) SetPatternHere(n int, v int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	p.Val[p.Idx] = v
	return nil
}

// PatternNext advances the cursor and returns the value it lands on. At End
// the cursor wraps to Start, or stays put when wrapping is off.
func (s *Scene) PatternNext(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	if p.Idx >= p.End {
		if p.Wrap {
			p.Idx = p.Start
		} else {
			p.Idx = p.End
		}
	} else {
		p.Idx++
	}
	return p.Val[p.Idx], nil
}

// PatternPrev moves the cursor back and returns the value it lands on.
func (s *Scene) PatternPrev(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	if p.Idx <= p.Start {
		if p.Wrap {
			p.Idx = p.End
		} else {
			p.Idx = p.Start
		}
	} else {
		p.Idx--
	}
	return p.Val[p.Idx], nil
}

// PatternPush appends a value after the last one.
func (s *Scene) PatternPush(n int, v int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	if p.Len >= PatternLength {
		return ErrPatternFull
	}
	p.Val[p.Len] = v
	p.Len++
	return nil
}

// PatternPop removes and returns the last value.
func (s *Scene) PatternPop(n int) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	if p.Len <= 1 {
		return 0, ErrPatternEmpty
	}
	p.Len--
	v := p.Val[p.Len]
	p.Val[p.Len] = 0
	p.normalize()
	return v, nil
}

// PatternInsert inserts v at i, shifting later values up by one.
func (s *Scene) PatternInsert(n int, i int16, v int16) error {
	p, err := s.pattern(n)
	if err != nil {
		return err
	}
	if i < 0 || i > p.Len {
		return ErrIndexOutOfRange
	}
	if p.Len >= PatternLength {
		return ErrPatternFull
	}
	copy(p.Val[i+1:p.Len+1], p.Val[i:p.Len])
	p.Val[i] = v
	p.Len++
	return nil
}

// PatternRemove deletes the value at i, shifting later values down.
func (s *Scene) PatternRemove(n int, i int16) (int16, error) {
	p, err := s.pattern(n)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= p.Len {
		return 0, ErrIndexOutOfRange
	}
	if p.Len <= 1 {
		return 0, ErrPatternEmpty
	}
	v := p.Val[i]
	copy(p.Val[i:p.Len-1], p.Val[i+1:p.Len])
	p.Len--
	p.Val[p.Len] = 0
	p.normalize()
	return v, nil
}
