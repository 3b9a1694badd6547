package scene

import "github.com/zurustar/ttcore/pkg/command"

// Delay is the delayed-command queue. Slots [0, Count) are live and kept
// in insertion order.
type Delay struct {
	Commands     [DelaySize]command.Command
	Time         [DelaySize]int16
	OriginScript [DelaySize]ScriptNumber
	OriginLine   [DelaySize]int16
	Count        uint8
}

// DelayEntry is an expired delay handed back for dispatch.
type DelayEntry struct {
	Command      command.Command
	OriginScript ScriptNumber
	OriginLine   int16
}

func (d *Delay) init() {
	*d = Delay{}
	for i := range d.Commands {
		d.Commands[i] = command.New()
	}
}

func (d *Delay) clearSlot(i int) {
	d.Commands[i] = command.New()
	d.Time[i] = 0
	d.OriginScript[i] = 0
	d.OriginLine[i] = 0
}

// ScheduleDelay appends cmd to the queue with a countdown of ticks
// milliseconds. Countdowns below one are raised to one.
func (s *Scene) ScheduleDelay(cmd *command.Command, ticks int16, origin ScriptNumber, line int16) error {
	d := &s.Delay
	if int(d.Count) >= DelaySize {
		return ErrDelayFull
	}
	if ticks < 1 {
		ticks = 1
	}
	i := d.Count
	d.Commands[i] = *cmd
	d.Time[i] = ticks
	d.OriginScript[i] = origin
	d.OriginLine[i] = line
	d.Count++
	return nil
}

// TickDelays counts every live slot down by ms. Expired slots are copied to
// dst in insertion order and removed; the remaining slots are compacted
// without changing their order. It returns the number of expired entries.
func (s *Scene) TickDelays(ms int16, dst *[DelaySize]DelayEntry) int {
	d := &s.Delay
	n := 0
	w := 0
	for i := 0; i < int(d.Count); i++ {
		d.Time[i] -= ms
		if d.Time[i] <= 0 {
			dst[n] = DelayEntry{
				Command:      d.Commands[i],
				OriginScript: d.OriginScript[i],
				OriginLine:   d.OriginLine[i],
			}
			n++
			continue
		}
		if w != i {
			d.Commands[w] = d.Commands[i]
			d.Time[w] = d.Time[i]
			d.OriginScript[w] = d.OriginScript[i]
			d.OriginLine[w] = d.OriginLine[i]
		}
		w++
	}
	for i := w; i < int(d.Count); i++ {
		d.clearSlot(i)
	}
	d.Count = uint8(w)
	return n
}

// ClearDelays drops every pending delay.
func (s *Scene) ClearDelays() {
	s.Delay.init()
}

// DelayCount returns the number of pending delays.
func (s *Scene) DelayCount() int {
	return int(s.Delay.Count)
}

// StackOp is the deferred stack-op buffer. Commands [0, Top) are live;
// Commands[Top-1] is the newest.
type StackOp struct {
	Commands [StackOpSize]command.Command
	Top      uint8
}

func (so *StackOp) init() {
	*so = StackOp{}
	for i := range so.Commands {
		so.Commands[i] = command.New()
	}
}

// PushStackOp stores cmd for later replay.
func (s *Scene) PushStackOp(cmd *command.Command) error {
	so := &s.StackOp
	if int(so.Top) >= StackOpSize {
		return ErrStackOpFull
	}
	so.Commands[so.Top] = *cmd
	so.Top++
	return nil
}

// PopStackOp removes and returns the newest stored command.
func (s *Scene) PopStackOp() (command.Command, bool) {
	so := &s.StackOp
	if so.Top == 0 {
		return command.New(), false
	}
	so.Top--
	cmd := so.Commands[so.Top]
	so.Commands[so.Top] = command.New()
	return cmd, true
}

// ClearStackOps drops every stored command.
func (s *Scene) ClearStackOps() {
	s.StackOp.init()
}

// StackOpLen returns the number of stored commands.
func (s *Scene) StackOpLen() int {
	return int(s.StackOp.Top)
}
