package snapshot

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/ops"
	"github.com/zurustar/ttcore/pkg/scene"
)

func sampleScene(t *testing.T) *scene.Scene {
	t.Helper()
	tbl := ops.NewTable()
	s := scene.New()
	for i, line := range []string{"TR.P 1", "EVERY 4: X ADD X 1", "DEL 100: CV 1 100"} {
		cmd, err := tbl.Parse(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if err := s.InsertScriptCommand(scene.Script1, i, &cmd); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ToggleScriptComment(scene.Script1, 2); err != nil {
		t.Fatal(err)
	}
	delayed := tbl.MustParse("X 9")
	if err := s.ScheduleDelay(&delayed, 40, scene.Script1, 0); err != nil {
		t.Fatal(err)
	}
	s.SetReg(scene.RegX, -7)
	s.SetMetro(120)
	if err := s.SetPatternLen(2, 8); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPatternVal(2, 3, 1234); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveLoad(t *testing.T) {
	s := sampleScene(t)

	var buf bytes.Buffer
	if err := Save(&buf, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *s {
		t.Error("loaded scene differs from saved scene")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a, err := Marshal(sampleScene(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(sampleScene(t))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal scenes produced different bytes")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	future, err := encMode.Marshal(envelope{Version: Version + 1, Scene: scene.New()})
	if err != nil {
		t.Fatal(err)
	}
	empty, err := encMode.Marshal(envelope{Version: Version})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"future version", future, ErrVersion},
		{"missing scene", empty, nil},
		{"garbage", []byte{0xff, 0x00, 0x13}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnmarshalRepairs(t *testing.T) {
	s := scene.New()
	s.Initializing = true
	s.Patterns[0].Len = 500
	s.Patterns[0].Start = 70
	s.Variables.QN = 0

	data, err := cbor.Marshal(envelope{Version: Version, Scene: s})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	p := got.Patterns[0]
	if !(0 <= p.Start && p.Start <= p.End && p.End < p.Len && p.Len <= scene.PatternLength) {
		t.Errorf("pattern not repaired: %+v", p)
	}
	if got.Variables.QN < 1 {
		t.Errorf("QN = %d, want >= 1", got.Variables.QN)
	}
	if got.Initializing {
		t.Error("a loaded scene must not be mid init")
	}
	if got.Validate() {
		t.Error("a loaded scene should already be valid")
	}
}

func TestUnmarshalRepairsQueuedCommands(t *testing.T) {
	tbl := ops.NewTable()
	s := sampleScene(t)
	stored := tbl.MustParse("Y 3")
	if err := s.PushStackOp(&stored); err != nil {
		t.Fatal(err)
	}
	s.Delay.Commands[0].Length = 200
	s.Delay.Commands[0].Separator = 90
	s.Delay.OriginLine[0] = -4
	s.StackOp.Commands[0].Length = 200
	s.StackOp.Commands[1] = tbl.MustParse("Z 1")

	data, err := cbor.Marshal(envelope{Version: Version, Scene: s})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if l := got.Delay.Commands[0].Length; l > command.MaxWords {
		t.Errorf("delay command length = %d", l)
	}
	if sep := got.Delay.Commands[0].Separator; int(sep) >= int(got.Delay.Commands[0].Length) {
		t.Errorf("delay separator = %d beyond length", sep)
	}
	if got.Delay.OriginLine[0] != 0 {
		t.Errorf("origin line = %d, want 0", got.Delay.OriginLine[0])
	}
	if l := got.StackOp.Commands[0].Length; l > command.MaxWords {
		t.Errorf("stack-op command length = %d", l)
	}
	if !got.StackOp.Commands[1].Empty() {
		t.Error("slot above the stack-op top should be cleared")
	}
	if got.Validate() {
		t.Error("a loaded scene should already be valid")
	}

	eng := engine.New(got, tbl, engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := eng.Tick(100); err != nil && engine.IsFatal(err) {
		t.Errorf("Tick: %v", err)
	}
	if got.DelayCount() != 0 {
		t.Errorf("repaired delay not dispatched, %d pending", got.DelayCount())
	}
}

func TestSaveFileLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.cbor")
	s := sampleScene(t)
	if err := SaveFile(path, s); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if *got != *s {
		t.Error("file round trip changed the scene")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing file")
	}
}

// TestPropertyRoundTrip checks that any valid pattern contents and
// register values survive a save and load unchanged.
func TestPropertyRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("snapshot round trip is lossless", prop.ForAll(
		func(vals []int, reg int, length int) bool {
			s := scene.New()
			for i, v := range vals {
				if err := s.SetPatternVal(i%scene.PatternCount, i/scene.PatternCount, int16(v)); err != nil {
					return false
				}
			}
			s.SetReg(scene.RegA, int16(reg))
			if err := s.SetPatternLen(1, int16(length)); err != nil {
				return false
			}

			data, err := Marshal(s)
			if err != nil {
				return false
			}
			got, err := Unmarshal(data)
			return err == nil && *got == *s
		},
		gen.SliceOfN(32, gen.IntRange(-32768, 32767)),
		gen.IntRange(-32768, 32767),
		gen.IntRange(1, scene.PatternLength),
	))

	properties.TestingRun(t)
}
