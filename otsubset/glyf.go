package otsubset

import (
	"errors"
	"fmt"
	"math"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

// Simple glyph flags.
const (
	flagOnCurve       = 0x01
	flagXShort        = 0x02
	flagYShort        = 0x04
	flagRepeat        = 0x08
	flagXSame         = 0x10 // or positive x short vector
	flagYSame         = 0x20 // or positive y short vector
	flagOverlapSimple = 0x40
)

// Composite glyph flags not exported by package ot.
const (
	compositeArgsAreXYValues = 0x0002
)

var errGlyphData = errors.New("malformed glyph data")

type point struct {
	x, y float64
}

// outline is a decoded glyph. For composite glyphs, points holds the offsets
// of the components.
type outline struct {
	components   []component // nil for simple glyphs
	endPts       []int
	onCurve      []bool
	overlap      bool
	points       []point
	instructions []byte
}

type component struct {
	flags      uint16
	glyph      ot.GlyphIndex
	arg1, arg2 int    // anchor points, unless flags has compositeArgsAreXYValues
	transform  []byte // scale, x/y scale or 2x2, raw
}

func (o *outline) isEmpty() bool {
	return o == nil || (len(o.points) == 0 && len(o.components) == 0)
}

// decodeGlyph decodes the glyph data of table glyf. Empty data decodes to an
// empty outline.
func decodeGlyph(b []byte) (*outline, error) {
	o := &outline{}
	if len(b) == 0 {
		return o, nil
	}
	if len(b) < 10 {
		return nil, errGlyphData
	}
	contours := int16(ot.U16(b, 0))
	if contours < 0 {
		return o, o.decodeComposite(b)
	}
	return o, o.decodeSimple(b, int(contours))
}

func (o *outline) decodeSimple(b []byte, contours int) error {
	pos := 10
	if pos+2*contours+2 > len(b) {
		return errGlyphData
	}
	o.endPts = make([]int, contours)
	for i := range o.endPts {
		o.endPts[i] = int(ot.U16(b, pos))
		pos += 2
	}
	n := 0
	if contours > 0 {
		n = o.endPts[contours-1] + 1
	}
	ilen := int(ot.U16(b, pos))
	pos += 2
	if pos+ilen > len(b) {
		return errGlyphData
	}
	o.instructions = b[pos : pos+ilen]
	pos += ilen
	flags := make([]byte, 0, n)
	for len(flags) < n {
		if pos >= len(b) {
			return errGlyphData
		}
		f := b[pos]
		pos++
		flags = append(flags, f)
		if f&flagRepeat != 0 {
			if pos >= len(b) {
				return errGlyphData
			}
			for r := int(b[pos]); r > 0 && len(flags) < n; r-- {
				flags = append(flags, f)
			}
			pos++
		}
	}
	o.points = make([]point, n)
	o.onCurve = make([]bool, n)
	if n > 0 {
		o.overlap = flags[0]&flagOverlapSimple != 0
	}
	var err error
	pos, err = decodeCoordinates(b, pos, flags, flagXShort, flagXSame, func(i int, v float64) { o.points[i].x = v })
	if err != nil {
		return err
	}
	_, err = decodeCoordinates(b, pos, flags, flagYShort, flagYSame, func(i int, v float64) { o.points[i].y = v })
	for i, f := range flags {
		o.onCurve[i] = f&flagOnCurve != 0
	}
	return err
}

func decodeCoordinates(b []byte, pos int, flags []byte, short, same byte, set func(int, float64)) (int, error) {
	var v int
	for i, f := range flags {
		switch {
		case f&short != 0:
			if pos >= len(b) {
				return pos, errGlyphData
			}
			if f&same != 0 {
				v += int(b[pos])
			} else {
				v -= int(b[pos])
			}
			pos++
		case f&same == 0:
			if pos+2 > len(b) {
				return pos, errGlyphData
			}
			v += int(int16(ot.U16(b, pos)))
			pos += 2
		}
		set(i, float64(v))
	}
	return pos, nil
}

func (o *outline) decodeComposite(b []byte) error {
	pos := 10
	for {
		if pos+4 > len(b) {
			return errGlyphData
		}
		c := component{flags: ot.U16(b, pos), glyph: ot.GlyphIndex(ot.U16(b, pos+2))}
		pos += 4
		var p point
		if c.flags&ot.CompositeArgsAreWords != 0 {
			if pos+4 > len(b) {
				return errGlyphData
			}
			if c.flags&compositeArgsAreXYValues != 0 {
				p = point{float64(int16(ot.U16(b, pos))), float64(int16(ot.U16(b, pos+2)))}
			} else {
				c.arg1, c.arg2 = int(ot.U16(b, pos)), int(ot.U16(b, pos+2))
			}
			pos += 4
		} else {
			if pos+2 > len(b) {
				return errGlyphData
			}
			if c.flags&compositeArgsAreXYValues != 0 {
				p = point{float64(int8(b[pos])), float64(int8(b[pos+1]))}
			} else {
				c.arg1, c.arg2 = int(b[pos]), int(b[pos+1])
			}
			pos += 2
		}
		n := 0
		switch {
		case c.flags&ot.CompositeHaveScale != 0:
			n = 2
		case c.flags&ot.CompositeHaveXYScale != 0:
			n = 4
		case c.flags&ot.CompositeHave2x2 != 0:
			n = 8
		}
		if pos+n > len(b) {
			return errGlyphData
		}
		c.transform = b[pos : pos+n]
		pos += n
		o.components = append(o.components, c)
		o.points = append(o.points, p)
		if c.flags&ot.CompositeMoreComponents == 0 {
			if c.flags&ot.CompositeHaveInstruction != 0 && pos+2 <= len(b) {
				ilen := int(ot.U16(b, pos))
				if pos+2+ilen <= len(b) {
					o.instructions = b[pos+2 : pos+2+ilen]
				}
			}
			return nil
		}
	}
}

// numPoints returns the number of points of the outline, not counting
// phantom points. For composite glyphs, this is the number of components.
func (o *outline) numPoints() int {
	return len(o.points)
}

// matrix returns the transformation of a component as (xx, yx, xy, yy).
func (c component) matrix() [4]float64 {
	f := func(i int) float64 { return float64(int16(ot.U16(c.transform, i))) / 16384 }
	switch len(c.transform) {
	case 2:
		return [4]float64{f(0), 0, 0, f(0)}
	case 4:
		return [4]float64{f(0), 0, 0, f(2)}
	case 8:
		return [4]float64{f(0), f(2), f(4), f(6)}
	}
	return [4]float64{1, 0, 0, 1}
}

// encode writes the outline in glyf format with coordinates rounded to
// integers. Bounding box values are computed by the caller.
func (o *outline) encode(bbox box, hinting bool, gidMap func(ot.GlyphIndex) ot.GlyphIndex) []byte {
	if o.isEmpty() {
		return nil
	}
	w := parse.NewBinaryWriter([]byte{})
	if o.components != nil {
		w.WriteInt16(-1)
	} else {
		w.WriteInt16(int16(len(o.endPts)))
	}
	bbox.write(w)
	if o.components != nil {
		o.encodeComposite(w, hinting, gidMap)
		return w.Bytes()
	}
	for _, e := range o.endPts {
		w.WriteUint16(uint16(e))
	}
	if hinting {
		w.WriteUint16(uint16(len(o.instructions)))
		w.WriteBytes(o.instructions)
	} else {
		w.WriteUint16(0)
	}
	flags := make([]byte, len(o.points))
	xs := parse.NewBinaryWriter([]byte{})
	ys := parse.NewBinaryWriter([]byte{})
	var px, py int
	for i, p := range o.points {
		x, y := int(math.Round(p.x)), int(math.Round(p.y))
		var f byte
		if o.onCurve[i] {
			f |= flagOnCurve
		}
		if i == 0 && o.overlap {
			f |= flagOverlapSimple
		}
		f |= encodeCoordinate(xs, x-px, flagXShort, flagXSame)
		f |= encodeCoordinate(ys, y-py, flagYShort, flagYSame)
		flags[i] = f
		px, py = x, y
	}
	for i := 0; i < len(flags); {
		f, r := flags[i], 0
		for i+r+1 < len(flags) && flags[i+r+1] == f && r < 255 {
			r++
		}
		if r > 0 {
			w.WriteUint8(f | flagRepeat)
			w.WriteUint8(uint8(r))
		} else {
			w.WriteUint8(f)
		}
		i += r + 1
	}
	w.WriteBytes(xs.Bytes())
	w.WriteBytes(ys.Bytes())
	return w.Bytes()
}

func encodeCoordinate(w *parse.BinaryWriter, d int, short, same byte) byte {
	switch {
	case d == 0:
		return same
	case d > 0 && d < 256:
		w.WriteUint8(uint8(d))
		return short | same
	case d < 0 && d > -256:
		w.WriteUint8(uint8(-d))
		return short
	}
	w.WriteInt16(int16(d))
	return 0
}

func (o *outline) encodeComposite(w *parse.BinaryWriter, hinting bool, gidMap func(ot.GlyphIndex) ot.GlyphIndex) {
	for i, c := range o.components {
		flags := c.flags &^ ot.CompositeArgsAreWords
		if !hinting || i+1 < len(o.components) {
			flags &^= ot.CompositeHaveInstruction
		}
		var a1, a2 int
		if c.flags&compositeArgsAreXYValues != 0 {
			a1, a2 = int(math.Round(o.points[i].x)), int(math.Round(o.points[i].y))
		} else {
			a1, a2 = c.arg1, c.arg2
		}
		words := !fitsArg(a1, c.flags) || !fitsArg(a2, c.flags)
		if words {
			flags |= ot.CompositeArgsAreWords
		}
		w.WriteUint16(flags)
		w.WriteUint16(uint16(gidMap(c.glyph)))
		if words {
			w.WriteUint16(uint16(a1))
			w.WriteUint16(uint16(a2))
		} else {
			w.WriteUint8(uint8(a1))
			w.WriteUint8(uint8(a2))
		}
		w.WriteBytes(c.transform)
	}
	if hinting && o.components[len(o.components)-1].flags&ot.CompositeHaveInstruction != 0 {
		w.WriteUint16(uint16(len(o.instructions)))
		w.WriteBytes(o.instructions)
	}
}

func fitsArg(a int, flags uint16) bool {
	if flags&compositeArgsAreXYValues != 0 {
		return a >= math.MinInt8 && a <= math.MaxInt8
	}
	return a >= 0 && a <= math.MaxUint8
}

// --- Bounding boxes --------------------------------------------------------

type box struct {
	xMin, yMin, xMax, yMax int16
}

func (bb box) write(w *parse.BinaryWriter) {
	w.WriteInt16(bb.xMin)
	w.WriteInt16(bb.yMin)
	w.WriteInt16(bb.xMax)
	w.WriteInt16(bb.yMax)
}

// headerBox reads the bounding box from the header of glyph data.
func headerBox(b []byte) box {
	return box{
		xMin: int16(ot.U16(b, 2)), yMin: int16(ot.U16(b, 4)),
		xMax: int16(ot.U16(b, 6)), yMax: int16(ot.U16(b, 8)),
	}
}

// pointsBox returns the bounding box of points, rounded.
func pointsBox(pts []point) (box, bool) {
	if len(pts) == 0 {
		return box{}, false
	}
	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		xMin, xMax = math.Min(xMin, p.x), math.Max(xMax, p.x)
		yMin, yMax = math.Min(yMin, p.y), math.Max(yMax, p.y)
	}
	r := func(v float64) int16 { return int16(math.Round(v)) }
	return box{r(xMin), r(yMin), r(xMax), r(yMax)}, true
}

func (bb box) union(other box) box {
	return box{
		xMin: min(bb.xMin, other.xMin), yMin: min(bb.yMin, other.yMin),
		xMax: max(bb.xMax, other.xMax), yMax: max(bb.yMax, other.yMax),
	}
}

// --- Surgical edits of glyph data ------------------------------------------

// rewriteGlyph returns glyph data with component references remapped and,
// if hinting is false, instructions removed. The input is not modified.
func rewriteGlyph(b []byte, hinting bool, gidMap func(ot.GlyphIndex) ot.GlyphIndex) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) < 10 {
		return nil, errGlyphData
	}
	contours := int16(ot.U16(b, 0))
	if contours >= 0 {
		if hinting {
			return b, nil
		}
		at := 10 + 2*int(contours)
		if at+2 > len(b) {
			return nil, errGlyphData
		}
		ilen := int(ot.U16(b, at))
		if at+2+ilen > len(b) {
			return nil, errGlyphData
		}
		out := make([]byte, 0, len(b)-ilen)
		out = append(out, b[:at]...)
		out = append(out, 0, 0)
		return append(out, b[at+2+ilen:]...), nil
	}
	refs, err := ot.Components(b)
	if err != nil {
		return nil, fmt.Errorf("composite glyph: %w", err)
	}
	out := append([]byte(nil), b...)
	var last int
	for _, ref := range refs {
		g := gidMap(ref.Glyph)
		out[ref.Offset], out[ref.Offset+1] = byte(g>>8), byte(g)
		last = ref.Offset - 2
	}
	if !hinting {
		flags := ot.U16(out, last)
		if flags&ot.CompositeHaveInstruction != 0 {
			flags &^= ot.CompositeHaveInstruction
			out[last], out[last+1] = byte(flags>>8), byte(flags)
			end, err := compositeEnd(out)
			if err != nil {
				return nil, err
			}
			out = out[:end]
		}
	}
	return out, nil
}

// compositeEnd returns the length of the component records of a composite
// glyph, without trailing instructions.
func compositeEnd(b []byte) (int, error) {
	refs, err := ot.Components(b)
	if err != nil || len(refs) == 0 {
		return 0, errGlyphData
	}
	last := refs[len(refs)-1].Offset - 2
	flags := ot.U16(b, last)
	n := 4 + 2
	if flags&ot.CompositeArgsAreWords != 0 {
		n += 2
	}
	switch {
	case flags&ot.CompositeHaveScale != 0:
		n += 2
	case flags&ot.CompositeHaveXYScale != 0:
		n += 4
	case flags&ot.CompositeHave2x2 != 0:
		n += 8
	}
	return last + n, nil
}
