// Package scale holds the calibration ranges and the linear scaling used to
// map raw input readings onto script values.
// The musical quantisation tables live outside this module; they plug in
// through the Quantizer interface.
package scale

// RawMax is the largest raw reading produced by the input converters.
const RawMax = 16383

// Range maps a raw input span onto an output span.
type Range struct {
	InMin  int16
	InMax  int16
	OutMin int16
	OutMax int16
}

// DefaultRange is the identity mapping over the raw converter span.
func DefaultRange() Range {
	return Range{InMin: 0, InMax: RawMax, OutMin: 0, OutMax: RawMax}
}

// Normalize swaps inverted bounds so that InMin <= InMax and
// OutMin <= OutMax.
func (r Range) Normalize() Range {
	if r.InMin > r.InMax {
		r.InMin, r.InMax = r.InMax, r.InMin
	}
	if r.OutMin > r.OutMax {
		r.OutMin, r.OutMax = r.OutMax, r.OutMin
	}
	return r
}

// Scale is a compiled 16.16 fixed point line.
type Scale struct {
	M int64
	B int64
}

// Compile builds the scale for a range.
func Compile(r Range) Scale {
	span := int64(r.InMax) - int64(r.InMin)
	if span == 0 {
		return Scale{M: 0, B: int64(r.OutMin) << 16}
	}
	m := ((int64(r.OutMax) - int64(r.OutMin)) << 16) / span
	b := (int64(r.OutMin) << 16) - m*int64(r.InMin)
	return Scale{M: m, B: b}
}

// Apply maps raw through the scale, saturating at the int16 limits.
func (s Scale) Apply(raw int16) int16 {
	v := (s.M*int64(raw) + s.B) >> 16
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Quantizer turns a raw reading into an output value.
type Quantizer interface {
	Quantize(s Scale, raw int16) int16
}

// Linear is the default quantizer: a plain linear map with no pitch table.
type Linear struct{}

// Quantize implements Quantizer.
func (Linear) Quantize(s Scale, raw int16) int16 {
	return s.Apply(raw)
}

// Calibration holds the raw limits measured for the CV input and the
// front-panel parameter knob.
type Calibration struct {
	InMin    int16
	InMax    int16
	ParamMin int16
	ParamMax int16
}

// DefaultCalibration spans the full converter range for both inputs.
func DefaultCalibration() Calibration {
	return Calibration{InMin: 0, InMax: RawMax, ParamMin: 0, ParamMax: RawMax}
}

// SetInMin sets the lower input bound, keeping InMin <= InMax.
func (c *Calibration) SetInMin(v int16) {
	c.InMin = v
	if c.InMin > c.InMax {
		c.InMin = c.InMax
	}
}

// SetInMax sets the upper input bound, keeping InMin <= InMax.
func (c *Calibration) SetInMax(v int16) {
	c.InMax = v
	if c.InMax < c.InMin {
		c.InMax = c.InMin
	}
}

// SetParamMin sets the lower parameter bound, keeping ParamMin <= ParamMax.
func (c *Calibration) SetParamMin(v int16) {
	c.ParamMin = v
	if c.ParamMin > c.ParamMax {
		c.ParamMin = c.ParamMax
	}
}

// SetParamMax sets the upper parameter bound, keeping ParamMin <= ParamMax.
func (c *Calibration) SetParamMax(v int16) {
	c.ParamMax = v
	if c.ParamMax < c.ParamMin {
		c.ParamMax = c.ParamMin
	}
}

// Valid reports whether both calibration pairs are ordered.
func (c Calibration) Valid() bool {
	return c.InMin <= c.InMax && c.ParamMin <= c.ParamMax
}
