package otsubset

import (
	"fmt"
	"math"

	"github.com/jqpe/font-subset/ot"
)

// PinAxisLocation pins a variation axis of a face to a location in user
// coordinates, clamped to the axis range. The axis is removed from the
// subset. It returns false if the face has no such axis.
func (e *Engine) PinAxisLocation(inputHandle, faceHandle uint32, tag uint32, value float64) bool {
	in, otf := e.inputs[inputHandle], e.face(faceHandle)
	if in == nil || otf == nil || math.IsNaN(value) {
		return false
	}
	axis, ok := otf.FVar.Axis(ot.Tag(tag))
	if !ok {
		tracer().Infof("cannot pin axis %s: face has no such axis", ot.Tag(tag))
		return false
	}
	value = clamp(value, axis.Min, axis.Max)
	in.axes[axis.Tag] = axisLimit{min: value, def: value, max: value}
	tracer().Debugf("pin axis %s at %g", axis.Tag, value)
	return true
}

// SetAxisRange restricts a variation axis of a face to [min, max] in user
// coordinates. NaN for min or max selects the current limit of the axis, NaN
// for def selects the current default, clamped to [min, max].
//
// The default of an axis cannot be moved: it returns false if the resulting
// default differs from the current one. It returns false as well if the face
// has no such axis, or if min > max or def is outside [min, max].
// A range with min == max pins the axis.
func (e *Engine) SetAxisRange(inputHandle, faceHandle uint32, tag uint32, min, max, def float64) bool {
	in, otf := e.inputs[inputHandle], e.face(faceHandle)
	if in == nil || otf == nil {
		return false
	}
	axis, ok := otf.FVar.Axis(ot.Tag(tag))
	if !ok {
		tracer().Infof("cannot limit axis %s: face has no such axis", ot.Tag(tag))
		return false
	}
	if math.IsNaN(min) {
		min = axis.Min
	}
	if math.IsNaN(max) {
		max = axis.Max
	}
	if min > max {
		return false
	}
	if math.IsNaN(def) {
		def = clamp(axis.Default, min, max)
	}
	if def < min || def > max {
		return false
	}
	min, max = clamp(min, axis.Min, axis.Max), clamp(max, axis.Min, axis.Max)
	if min == max {
		in.axes[axis.Tag] = axisLimit{min: min, def: min, max: min}
		return true
	}
	if def != axis.Default {
		tracer().Infof("cannot move default of axis %s from %g to %g", axis.Tag, axis.Default, def)
		return false
	}
	in.axes[axis.Tag] = axisLimit{min: min, def: def, max: max}
	tracer().Debugf("limit axis %s to [%g, %g]", axis.Tag, min, max)
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// --- Normalization ---------------------------------------------------------

// f2dot14 rounds v to the precision of a F2DOT14 number.
func f2dot14(v float64) float64 {
	return math.Round(v*16384) / 16384
}

// normalize maps a user coordinate to the normalized range [-1, 1] of an axis,
// without avar mapping.
func normalize(v float64, a ot.VariationAxis) float64 {
	v = clamp(v, a.Min, a.Max)
	switch {
	case v < a.Default && a.Default > a.Min:
		return (v - a.Default) / (a.Default - a.Min)
	case v > a.Default && a.Max > a.Default:
		return (v - a.Default) / (a.Max - a.Default)
	}
	return 0
}

// axisMap is an avar segment map: pairs of normalized coordinates, ascending.
type axisMap [][2]float64

// apply maps a normalized coordinate. An empty map is the identity.
func (m axisMap) apply(v float64) float64 {
	if len(m) == 0 {
		return v
	}
	if v <= m[0][0] {
		return v - m[0][0] + m[0][1]
	}
	for i := 1; i < len(m); i++ {
		if v <= m[i][0] {
			from, to := m[i-1], m[i]
			if to[0] == from[0] {
				return to[1]
			}
			return from[1] + (v-from[0])*(to[1]-from[1])/(to[0]-from[0])
		}
	}
	last := m[len(m)-1]
	return v - last[0] + last[1]
}

// parseAVar decodes the segment maps of table 'avar' (version 1).
func parseAVar(b []byte, axisCount int) ([]axisMap, error) {
	if len(b) < 8 || ot.U16(b, 0) != 1 {
		return nil, fmt.Errorf("avar: unsupported table header")
	}
	if n := int(ot.U16(b, 6)); n != axisCount {
		return nil, fmt.Errorf("avar: %d segment maps for %d axes", n, axisCount)
	}
	maps := make([]axisMap, axisCount)
	pos := 8
	for i := range maps {
		if pos+2 > len(b) {
			return nil, fmt.Errorf("avar: truncated segment map %d", i)
		}
		n := int(ot.U16(b, pos))
		pos += 2
		if pos+4*n > len(b) {
			return nil, fmt.Errorf("avar: truncated segment map %d", i)
		}
		for j := 0; j < n; j++ {
			from := float64(int16(ot.U16(b, pos))) / 16384
			to := float64(int16(ot.U16(b, pos+2))) / 16384
			maps[i] = append(maps[i], [2]float64{from, to})
			pos += 4
		}
	}
	return maps, nil
}
