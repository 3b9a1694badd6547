package scale

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCompileApply(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		raw  int16
		want int16
	}{
		{"identity low", DefaultRange(), 0, 0},
		{"identity high", DefaultRange(), RawMax, RawMax},
		{"halve", Range{0, 16384, 0, 8192}, 8192, 4096},
		{"offset", Range{0, 100, 100, 200}, 50, 150},
		{"flat span", Range{10, 10, 7, 99}, 1234, 7},
		{"saturates", Range{0, 1, 0, 32767}, 100, 32767},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Linear{}.Quantize(Compile(tt.r), tt.raw)
			if got != tt.want {
				t.Errorf("Quantize(%d) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	r := Range{InMin: 10, InMax: 1, OutMin: 5, OutMax: -5}.Normalize()
	if r.InMin != 1 || r.InMax != 10 || r.OutMin != -5 || r.OutMax != 5 {
		t.Errorf("unexpected normalized range %+v", r)
	}
}

func TestCalibrationNeverInverts(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("min <= max after any write sequence", prop.ForAll(
		func(writes []int, which []int) bool {
			c := DefaultCalibration()
			for i, v := range writes {
				switch which[i%len(which)] {
				case 0:
					c.SetInMin(int16(v))
				case 1:
					c.SetInMax(int16(v))
				case 2:
					c.SetParamMin(int16(v))
				default:
					c.SetParamMax(int16(v))
				}
				if !c.Valid() {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(20, gen.IntRange(-20000, 20000)),
		gen.SliceOfN(7, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
