package scene

import (
	"errors"
	"testing"

	"github.com/zurustar/ttcore/pkg/command"
)

func fillScript(t *testing.T, s *Scene, n ScriptNumber, values ...int16) {
	t.Helper()
	for i, v := range values {
		c := numCmd(v)
		if err := s.OverwriteScriptCommand(n, i, &c); err != nil {
			t.Fatalf("append line %d: %v", i, err)
		}
	}
}

func lineValue(s *Scene, n ScriptNumber, line int) int16 {
	c := s.ScriptCommand(n, line)
	if c == nil {
		return -1
	}
	return c.Words[0].Value
}

func TestScriptInsertShiftsMetadata(t *testing.T) {
	s := New()
	fillScript(t, s, Script1, 10, 11, 12, 13)
	if err := s.ToggleScriptComment(Script1, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLineEvery(Script1, 3, 4, 1, false); err != nil {
		t.Fatal(err)
	}

	c := numCmd(99)
	if err := s.InsertScriptCommand(Script1, 2, &c); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if s.ScriptLen(Script1) != 5 {
		t.Fatalf("len = %d, want 5", s.ScriptLen(Script1))
	}
	want := []int16{10, 11, 99, 12, 13}
	for i, w := range want {
		if got := lineValue(s, Script1, i); got != w {
			t.Errorf("line %d = %d, want %d", i, got, w)
		}
	}
	if s.ScriptComment(Script1, 2) || !s.ScriptComment(Script1, 3) {
		t.Error("comment flag did not move with its line")
	}
	if e := s.Scripts[Script1].Every[4]; !e.Gated || e.Mod != 4 || e.Phase != 1 {
		t.Errorf("every counter did not move with its line: %+v", e)
	}

	if err := s.DeleteScriptCommand(Script1, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want = []int16{10, 99, 12, 13}
	for i, w := range want {
		if got := lineValue(s, Script1, i); got != w {
			t.Errorf("after delete line %d = %d, want %d", i, got, w)
		}
	}
	if !s.ScriptComment(Script1, 2) {
		t.Error("comment flag lost on delete")
	}
	if !s.Scripts[Script1].Every[3].Gated {
		t.Error("every counter lost on delete")
	}
	if !s.Scripts[Script1].Commands[4].Empty() || s.Scripts[Script1].Every[4].Configured() {
		t.Error("vacated slot was not cleared")
	}
}

func TestScriptFull(t *testing.T) {
	s := New()
	fillScript(t, s, Script2, 1, 2, 3, 4, 5, 6)
	before := *s
	c := numCmd(7)
	if err := s.InsertScriptCommand(Script2, 0, &c); !errors.Is(err, ErrScriptFull) {
		t.Fatalf("expected ErrScriptFull, got %v", err)
	}
	if err := s.OverwriteScriptCommand(Script2, 6, &c); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if *s != before {
		t.Error("failed edit mutated the scene")
	}
}

func TestScriptEditErrors(t *testing.T) {
	s := New()
	c := numCmd(1)
	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"overwrite past end", func() error { return s.OverwriteScriptCommand(Script1, 2, &c) }, ErrIndexOutOfRange},
		{"delete empty", func() error { return s.DeleteScriptCommand(Script1, 0) }, ErrIndexOutOfRange},
		{"insert unstored", func() error { return s.InsertScriptCommand(LiveScript, 0, &c) }, ErrNotStored},
		{"comment missing line", func() error { return s.ToggleScriptComment(Script3, 0) }, ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if s.ScriptCommand(LiveScript, 0) != nil {
		t.Error("unstored script returned a command")
	}
}

func TestEveryAndSkip(t *testing.T) {
	s := New()
	e := EveryCount{Mod: 4, Phase: 0}
	var every, skip []int16
	for s.EveryTally = 0; s.EveryTally < 12; s.AdvanceEvery() {
		if s.EveryIsNow(&e) {
			every = append(every, s.EveryTally)
		}
		if s.SkipIsNow(&e) {
			skip = append(skip, s.EveryTally)
		}
	}
	wantEvery := []int16{0, 4, 8}
	if len(every) != len(wantEvery) {
		t.Fatalf("every fired on %v, want %v", every, wantEvery)
	}
	for i := range wantEvery {
		if every[i] != wantEvery[i] {
			t.Fatalf("every fired on %v, want %v", every, wantEvery)
		}
	}
	if len(skip) != 9 {
		t.Errorf("skip fired %d times, want 9: %v", len(skip), skip)
	}
	for _, n := range skip {
		if n%4 == 0 {
			t.Errorf("skip fired on multiple %d", n)
		}
	}
}

func TestConfigureEveryAligns(t *testing.T) {
	s := New()
	fillScript(t, s, Script1, 1)
	s.EveryTally = 6

	e, err := s.ConfigureEvery(Script1, 0, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	if !s.EveryFires(e) {
		t.Error("a freshly configured counter should fire on the current tally")
	}
	s.AdvanceEvery()
	if s.EveryFires(e) || s.EveryLast {
		t.Error("counter fired one tally after alignment")
	}

	// Same modulus keeps the phase.
	e, _ = s.ConfigureEvery(Script1, 0, 3, true)
	if e.Phase != 0 || !e.Skip {
		t.Errorf("unexpected counter %+v", e)
	}

	s.SyncEvery(9)
	if s.EveryTally != 9 || s.Scripts[Script1].Every[0].Phase != 0 {
		t.Error("SyncEvery did not realign")
	}

	live, _ := s.Every(LiveScript, 0)
	if live != &s.LiveEvery {
		t.Error("unstored scripts should share the live counter")
	}
}

func TestAdvanceEveryWraps(t *testing.T) {
	s := New()
	s.EveryTally = 32767
	s.AdvanceEvery()
	if s.EveryTally != 0 {
		t.Errorf("tally = %d, want 0", s.EveryTally)
	}
}

func TestDelayQueue(t *testing.T) {
	s := New()
	for i := 0; i < DelaySize; i++ {
		c := numCmd(int16(i))
		if err := s.ScheduleDelay(&c, int16(10*(i%2+1)), Script1, int16(i)); err != nil {
			t.Fatalf("schedule %d: %v", i, err)
		}
	}
	before := *s
	extra := numCmd(100)
	if err := s.ScheduleDelay(&extra, 5, Script1, 0); !errors.Is(err, ErrDelayFull) {
		t.Fatalf("expected ErrDelayFull, got %v", err)
	}
	if *s != before {
		t.Fatal("full delay queue was mutated")
	}

	var out [DelaySize]DelayEntry
	if n := s.TickDelays(5, &out); n != 0 {
		t.Fatalf("expired %d entries too early", n)
	}
	n := s.TickDelays(5, &out)
	if n != 4 {
		t.Fatalf("expired %d entries, want 4", n)
	}
	for i := 0; i < n; i++ {
		if want := int16(2 * i); out[i].Command.Words[0].Value != want || out[i].OriginLine != want {
			t.Errorf("entry %d = %d, want %d (insertion order)", i, out[i].Command.Words[0].Value, want)
		}
	}
	if s.DelayCount() != 4 {
		t.Fatalf("remaining = %d, want 4", s.DelayCount())
	}
	for i := 0; i < 4; i++ {
		if want := int16(2*i + 1); s.Delay.Commands[i].Words[0].Value != want {
			t.Errorf("slot %d holds %d, want %d", i, s.Delay.Commands[i].Words[0].Value, want)
		}
	}
	if !s.Delay.Commands[4].Empty() {
		t.Error("compacted slot not cleared")
	}

	s.ClearDelays()
	if s.DelayCount() != 0 {
		t.Error("ClearDelays left entries")
	}
}

func TestDelayMinimumTick(t *testing.T) {
	s := New()
	c := numCmd(1)
	if err := s.ScheduleDelay(&c, 0, LiveScript, 0); err != nil {
		t.Fatal(err)
	}
	if s.Delay.Time[0] != 1 {
		t.Errorf("countdown = %d, want 1", s.Delay.Time[0])
	}
}

func TestStackOpBuffer(t *testing.T) {
	s := New()
	for i := 0; i < StackOpSize; i++ {
		c := numCmd(int16(i))
		if err := s.PushStackOp(&c); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	c := numCmd(99)
	if err := s.PushStackOp(&c); !errors.Is(err, ErrStackOpFull) {
		t.Fatalf("expected ErrStackOpFull, got %v", err)
	}
	got, ok := s.PopStackOp()
	if !ok || got.Words[0].Value != StackOpSize-1 {
		t.Errorf("PopStackOp = %d, %v; want newest", got.Words[0].Value, ok)
	}
	s.ClearStackOps()
	if _, ok := s.PopStackOp(); ok {
		t.Error("PopStackOp on empty buffer reported a value")
	}
}

func TestPatternOps(t *testing.T) {
	s := New()
	if err := s.SetPatternLen(0, 3); err != nil {
		t.Fatal(err)
	}
	for i, v := range []int16{5, 6, 7} {
		_ = s.SetPatternVal(0, i, v)
	}
	if p := s.Patterns[0]; p.End != 2 || p.Start != 0 {
		t.Fatalf("bounds not dragged by length: %+v", p)
	}

	seq := []int16{}
	for i := 0; i < 4; i++ {
		v, _ := s.PatternNext(0)
		seq = append(seq, v)
	}
	want := []int16{6, 7, 5, 6}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("PatternNext sequence = %v, want %v", seq, want)
		}
	}

	_ = s.SetPatternWrap(0, false)
	_ = s.SetPatternIdx(0, 2)
	if v, _ := s.PatternNext(0); v != 7 {
		t.Errorf("non-wrapping next moved past end, got %d", v)
	}

	if err := s.PatternInsert(0, 1, 42); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.PatternVal(0, 1); v != 42 || s.Patterns[0].Len != 4 {
		t.Error("insert did not shift values")
	}
	if v, err := s.PatternRemove(0, 1); err != nil || v != 42 {
		t.Errorf("remove = %d, %v; want 42", v, err)
	}
	if v, err := s.PatternPop(0); err != nil || v != 7 {
		t.Errorf("pop = %d, %v; want 7", v, err)
	}

	if _, err := s.PatternVal(4, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange for pattern 4, got %v", err)
	}
	if err := s.PatternPush(1, 1); !errors.Is(err, ErrPatternFull) {
		t.Errorf("expected ErrPatternFull on full pattern, got %v", err)
	}
	if err := s.PatternInsert(1, 0, 1); !errors.Is(err, ErrPatternFull) {
		t.Errorf("expected ErrPatternFull on insert, got %v", err)
	}
}

func TestValidCommandSeparator(t *testing.T) {
	c := command.New()
	_ = c.Append(command.Word{Tag: command.Number, Value: 1})
	_ = c.Append(command.Word{Tag: command.PreSep})
	_ = c.Append(command.Word{Tag: command.Number, Value: 2})
	c.Separator = 7
	validCommand(&c)
	if c.Separator != 1 {
		t.Errorf("separator = %d, want 1", c.Separator)
	}
}
