package scene

import "github.com/zurustar/ttcore/pkg/command"

// Script is one stored script. Commands, Comment and Every are parallel
// arrays indexed by line and always move together.
type Script struct {
	Len      uint8
	Commands [ScriptMaxCommands]command.Command
	Comment  [ScriptMaxCommands]bool
	Every    [ScriptMaxCommands]EveryCount
	LastTime int64
}

func (sc *Script) clear() {
	*sc = Script{}
	for i := range sc.Commands {
		sc.Commands[i] = command.New()
	}
}

func (sc *Script) setLine(i int, cmd *command.Command) {
	sc.Commands[i] = *cmd
	sc.Comment[i] = false
	sc.Every[i] = EveryCount{}
}

func (sc *Script) moveLine(dst, src int) {
	sc.Commands[dst] = sc.Commands[src]
	sc.Comment[dst] = sc.Comment[src]
	sc.Every[dst] = sc.Every[src]
}

func (sc *Script) clearLine(i int) {
	sc.Commands[i] = command.New()
	sc.Comment[i] = false
	sc.Every[i] = EveryCount{}
}

func (s *Scene) script(n ScriptNumber) (*Script, error) {
	if !n.Stored() {
		return nil, ErrNotStored
	}
	return &s.Scripts[n], nil
}

// ScriptLen returns the number of lines in a script. Unstored scripts have
// no lines.
func (s *Scene) ScriptLen(n ScriptNumber) int {
	if !n.Stored() {
		return 0
	}
	return int(s.Scripts[n].Len)
}

// ScriptCommand returns a pointer to a stored line, or nil when the line
// does not exist.
func (s *Scene) ScriptCommand(n ScriptNumber, line int) *command.Command {
	if !n.Stored() || line < 0 || line >= int(s.Scripts[n].Len) {
		return nil
	}
	return &s.Scripts[n].Commands[line]
}

// ScriptComment reports whether a line is commented out.
func (s *Scene) ScriptComment(n ScriptNumber, line int) bool {
	if !n.Stored() || line < 0 || line >= ScriptMaxCommands {
		return false
	}
	return s.Scripts[n].Comment[line]
}

// ToggleScriptComment flips the comment flag of an existing line.
func (s *Scene) ToggleScriptComment(n ScriptNumber, line int) error {
	sc, err := s.script(n)
	if err != nil {
		return err
	}
	if line < 0 || line >= int(sc.Len) {
		return ErrIndexOutOfRange
	}
	sc.Comment[line] = !sc.Comment[line]
	return nil
}

// OverwriteScriptCommand replaces line i. Writing at i == Len appends a
// line. The line starts uncommented with a fresh every counter.
func (s *Scene) OverwriteScriptCommand(n ScriptNumber, i int, cmd *command.Command) error {
	sc, err := s.script(n)
	if err != nil {
		return err
	}
	if i < 0 || i > int(sc.Len) || i >= ScriptMaxCommands {
		return ErrIndexOutOfRange
	}
	sc.setLine(i, cmd)
	if i == int(sc.Len) {
		sc.Len++
	}
	s.resyncEvery(n)
	return nil
}

// InsertScriptCommand inserts cmd before line i, shifting the following
// lines with their comment flags and every counters.
func (s *Scene) InsertScriptCommand(n ScriptNumber, i int, cmd *command.Command) error {
	sc, err := s.script(n)
	if err != nil {
		return err
	}
	if sc.Len >= ScriptMaxCommands {
		return ErrScriptFull
	}
	if i < 0 || i > int(sc.Len) {
		return ErrIndexOutOfRange
	}
	for j := int(sc.Len); j > i; j-- {
		sc.moveLine(j, j-1)
	}
	sc.setLine(i, cmd)
	sc.Len++
	s.resyncEvery(n)
	return nil
}

// DeleteScriptCommand removes line i and compacts the script. The vacated
// trailing slot is cleared.
func (s *Scene) DeleteScriptCommand(n ScriptNumber, i int) error {
	sc, err := s.script(n)
	if err != nil {
		return err
	}
	if i < 0 || i >= int(sc.Len) {
		return ErrIndexOutOfRange
	}
	for j := i; j < int(sc.Len)-1; j++ {
		sc.moveLine(j, j+1)
	}
	sc.Len--
	sc.clearLine(int(sc.Len))
	s.resyncEvery(n)
	return nil
}

// ClearScript removes every line of a script.
func (s *Scene) ClearScript(n ScriptNumber) error {
	sc, err := s.script(n)
	if err != nil {
		return err
	}
	sc.clear()
	return nil
}

// ScriptLast returns the clock value recorded at the last run.
func (s *Scene) ScriptLast(n ScriptNumber) int64 {
	if !n.Stored() {
		return 0
	}
	return s.Scripts[n].LastTime
}

// UpdateScriptLast records now as the last run time of a stored script.
func (s *Scene) UpdateScriptLast(n ScriptNumber, now int64) {
	if n.Stored() {
		s.Scripts[n].LastTime = now
	}
}
