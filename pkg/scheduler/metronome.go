package scheduler

// Metronome turns elapsed tick time into metro beats.
type Metronome struct {
	acc int32
}

// Advance adds ms of elapsed time and returns how many beats of the given
// interval fell due. An inactive metronome holds its phase at zero, so it
// restarts a full interval after being switched back on.
func (m *Metronome) Advance(ms, interval int16, active bool) int {
	if !active || interval <= 0 {
		m.acc = 0
		return 0
	}
	if ms > 0 {
		m.acc += int32(ms)
	}
	beats := 0
	for m.acc >= int32(interval) {
		m.acc -= int32(interval)
		beats++
	}
	return beats
}

// Reset drops any accumulated time.
func (m *Metronome) Reset() {
	m.acc = 0
}

// Pending returns the time accumulated towards the next beat.
func (m *Metronome) Pending() int32 {
	return m.acc
}
