package scene

// QPush shifts the queue up by one and stores v at the front. Values past
// the end of the buffer are lost.
func (s *Scene) QPush(v int16) {
	q := &s.Variables.Q
	copy(q[1:], q[:QLength-1])
	q[0] = v
}

// QTail returns the oldest value inside the live length.
func (s *Scene) QTail() int16 {
	return s.Variables.Q[s.Variables.QN-1]
}

// QGet reads slot i of the live queue.
func (s *Scene) QGet(i int) (int16, error) {
	if i < 0 || i >= int(s.Variables.QN) {
		return 0, ErrIndexOutOfRange
	}
	return s.Variables.Q[i], nil
}

// QSet writes slot i of the live queue.
func (s *Scene) QSet(i int, v int16) error {
	if i < 0 || i >= int(s.Variables.QN) {
		return ErrIndexOutOfRange
	}
	s.Variables.Q[i] = v
	return nil
}

// SetQN sets the live length, clamped to [1, QLength].
func (s *Scene) SetQN(n int16) {
	s.Variables.QN = clamp16(n, 1, QLength)
}

// QClear zeroes the whole buffer.
func (s *Scene) QClear() {
	s.Variables.Q = [QLength]int16{}
}

// QAvg returns the mean of the live values.
func (s *Scene) QAvg() int16 {
	var sum int32
	n := int32(s.Variables.QN)
	for i := int32(0); i < n; i++ {
		sum += int32(s.Variables.Q[i])
	}
	return int16(sum / n)
}
