package otsubset

import (
	"errors"
	"fmt"
	"math"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

// Tuple variation header flags.
const (
	tupleEmbeddedPeak  = 0x8000
	tupleIntermediate  = 0x4000
	tuplePrivatePoints = 0x2000
	tupleIndexMask     = 0x0fff
	tupleSharedPoints  = 0x8000 // in tupleVariationCount
	tupleCountMask     = 0x0fff
)

// Packed delta run flags.
const (
	deltasAreZero  = 0x80
	deltasAreWords = 0x40
	deltaRunMask   = 0x3f
)

var errVariationData = errors.New("malformed glyph variation data")

// gvarTable gives access to the glyph variation data of table 'gvar'.
type gvarTable struct {
	axisCount    int
	sharedTuples [][]float64
	sharedRaw    []byte
	data         [][]byte // per glyph, may be empty
}

func parseGVar(b []byte) (*gvarTable, error) {
	if len(b) < 20 || ot.U16(b, 0) != 1 {
		return nil, fmt.Errorf("gvar: unsupported table header")
	}
	t := &gvarTable{axisCount: int(ot.U16(b, 4))}
	sharedCount := int(ot.U16(b, 6))
	sharedAt := int(ot.U32(b, 8))
	glyphCount := int(ot.U16(b, 12))
	long := ot.U16(b, 14)&1 != 0
	dataAt := int(ot.U32(b, 16))
	if sharedAt+2*t.axisCount*sharedCount > len(b) {
		return nil, fmt.Errorf("gvar: shared tuples exceed table")
	}
	t.sharedRaw = b[sharedAt : sharedAt+2*t.axisCount*sharedCount]
	for i := 0; i < sharedCount; i++ {
		t.sharedTuples = append(t.sharedTuples, readTuple(b, sharedAt+2*t.axisCount*i, t.axisCount))
	}
	offset := func(i int) int {
		if long {
			return int(ot.U32(b, 20+4*i))
		}
		return 2 * int(ot.U16(b, 20+2*i))
	}
	size := 2
	if long {
		size = 4
	}
	if 20+size*(glyphCount+1) > len(b) {
		return nil, fmt.Errorf("gvar: offsets exceed table")
	}
	t.data = make([][]byte, glyphCount)
	for i := range t.data {
		start, end := dataAt+offset(i), dataAt+offset(i+1)
		if start > end || end > len(b) {
			return nil, fmt.Errorf("gvar: variation data of glyph %d exceeds table", i)
		}
		t.data[i] = b[start:end]
	}
	return t, nil
}

func readTuple(b []byte, at, axisCount int) []float64 {
	coords := make([]float64, axisCount)
	for i := range coords {
		coords[i] = float64(int16(ot.U16(b, at+2*i))) / 16384
	}
	return coords
}

func (t *gvarTable) glyph(g ot.GlyphIndex) []byte {
	if int(g) < len(t.data) {
		return t.data[g]
	}
	return nil
}

// writeGVar creates a gvar table from per glyph variation data. Shared
// tuples are copied as given.
func writeGVar(axisCount, sharedCount int, sharedRaw []byte, data [][]byte) []byte {
	total := 0
	for _, d := range data {
		total += len(d) + len(d)&1
	}
	long := total > 2*0xffff
	offsetSize := 2
	if long {
		offsetSize = 4
	}
	sharedAt := 20 + offsetSize*(len(data)+1)
	dataAt := sharedAt + len(sharedRaw)
	w := parse.NewBinaryWriter(make([]byte, 0, dataAt+total))
	w.WriteUint16(1)
	w.WriteUint16(0)
	w.WriteUint16(uint16(axisCount))
	w.WriteUint16(uint16(sharedCount))
	w.WriteUint32(uint32(sharedAt))
	w.WriteUint16(uint16(len(data)))
	if long {
		w.WriteUint16(1)
	} else {
		w.WriteUint16(0)
	}
	w.WriteUint32(uint32(dataAt))
	off := 0
	for i := 0; i <= len(data); i++ {
		if long {
			w.WriteUint32(uint32(off))
		} else {
			w.WriteUint16(uint16(off / 2))
		}
		if i < len(data) {
			if long {
				off += len(data[i])
			} else {
				off += len(data[i]) + len(data[i])&1
			}
		}
	}
	w.WriteBytes(sharedRaw)
	for _, d := range data {
		w.WriteBytes(d)
		if !long && len(d)&1 != 0 {
			w.WriteUint8(0)
		}
	}
	return w.Bytes()
}

// --- Tuple variations ------------------------------------------------------

// region is the support of a tuple variation on one axis.
type region struct {
	start, peak, end float64
}

// defaultRegion is the region of a tuple without intermediate coordinates.
func defaultRegion(peak float64) region {
	return region{start: math.Min(peak, 0), peak: peak, end: math.Max(peak, 0)}
}

// scalar returns the factor of a tuple's deltas at normalized location v,
// on one axis.
func (r region) scalar(v float64) float64 {
	if r.peak == 0 || v == r.peak {
		return 1
	}
	if r.start > r.peak || r.peak > r.end || (r.start < 0 && r.end > 0) {
		return 1
	}
	if v <= r.start || v >= r.end {
		return 0
	}
	if v < r.peak {
		return (v - r.start) / (r.peak - r.start)
	}
	return (r.end - v) / (r.end - r.peak)
}

// tuple is a decoded tuple variation with a delta for every point,
// including the 4 phantom points.
type tuple struct {
	regions []region // one per axis
	dx, dy  []float64
}

// isIntermediate reports whether the tuple needs explicit start and end
// coordinates.
func (t tuple) isIntermediate() bool {
	for _, r := range t.regions {
		if r != defaultRegion(r.peak) {
			return true
		}
	}
	return false
}

// isDefault reports whether the tuple has no peak on any axis, i.e. it
// applies at every location.
func (t tuple) isDefault() bool {
	for _, r := range t.regions {
		if r.peak != 0 {
			return false
		}
	}
	return true
}

func (t tuple) scaled(f float64) tuple {
	s := tuple{regions: t.regions, dx: make([]float64, len(t.dx)), dy: make([]float64, len(t.dy))}
	for i := range t.dx {
		s.dx[i], s.dy[i] = t.dx[i]*f, t.dy[i]*f
	}
	return s
}

// glyphContext is what decoding of a glyph's variation data needs to know
// about the glyph.
type glyphContext struct {
	coords []point // original coordinates, including phantom points
	endPts []int   // contour end points, nil for composite glyphs
}

// decodeVariations decodes the tuple variations of a glyph. Tuples with
// sparse point numbers are made dense by interpolating untouched points.
func (t *gvarTable) decodeVariations(data []byte, gc glyphContext) ([]tuple, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, errVariationData
	}
	countField := ot.U16(data, 0)
	count := int(countField & tupleCountMask)
	serialized := int(ot.U16(data, 2))
	if serialized > len(data) {
		return nil, errVariationData
	}
	numPoints := len(gc.coords)
	var shared []int
	pos := serialized
	var err error
	if countField&tupleSharedPoints != 0 {
		shared, pos, err = unpackPoints(data, pos, numPoints)
		if err != nil {
			return nil, err
		}
	}
	hdr := 4
	tuples := make([]tuple, 0, count)
	for i := 0; i < count; i++ {
		if hdr+4 > len(data) {
			return nil, errVariationData
		}
		size := int(ot.U16(data, hdr))
		index := ot.U16(data, hdr+2)
		hdr += 4
		var peak []float64
		if index&tupleEmbeddedPeak != 0 {
			peak = readTuple(data, hdr, t.axisCount)
			hdr += 2 * t.axisCount
		} else {
			inx := int(index & tupleIndexMask)
			if inx >= len(t.sharedTuples) {
				return nil, errVariationData
			}
			peak = t.sharedTuples[inx]
		}
		tu := tuple{regions: make([]region, t.axisCount)}
		if index&tupleIntermediate != 0 {
			start := readTuple(data, hdr, t.axisCount)
			end := readTuple(data, hdr+2*t.axisCount, t.axisCount)
			hdr += 4 * t.axisCount
			for a := range tu.regions {
				tu.regions[a] = region{start[a], peak[a], end[a]}
			}
		} else {
			for a := range tu.regions {
				tu.regions[a] = defaultRegion(peak[a])
			}
		}
		if hdr > len(data) || pos+size > len(data) {
			return nil, errVariationData
		}
		body := data[:pos+size]
		p := pos
		points := shared
		if index&tuplePrivatePoints != 0 {
			points, p, err = unpackPoints(body, p, numPoints)
			if err != nil {
				return nil, err
			}
		}
		n := numPoints
		if points != nil {
			n = len(points)
		}
		var dx, dy []float64
		dx, p, err = unpackDeltas(body, p, n)
		if err != nil {
			return nil, err
		}
		dy, _, err = unpackDeltas(body, p, n)
		if err != nil {
			return nil, err
		}
		pos += size
		if points == nil {
			tu.dx, tu.dy = dx, dy
		} else {
			tu.dx, tu.dy = inferDeltas(points, dx, dy, gc)
		}
		tuples = append(tuples, tu)
	}
	return tuples, nil
}

// unpackPoints decodes packed point numbers. A nil result denotes all points.
func unpackPoints(b []byte, pos, numPoints int) ([]int, int, error) {
	if pos >= len(b) {
		return nil, pos, errVariationData
	}
	count := int(b[pos])
	pos++
	if count == 0 {
		return nil, pos, nil
	}
	if count&0x80 != 0 {
		if pos >= len(b) {
			return nil, pos, errVariationData
		}
		count = (count&0x7f)<<8 | int(b[pos])
		pos++
	}
	points := make([]int, 0, count)
	last := 0
	for len(points) < count {
		if pos >= len(b) {
			return nil, pos, errVariationData
		}
		ctrl := b[pos]
		pos++
		n := int(ctrl&0x7f) + 1
		for j := 0; j < n && len(points) < count; j++ {
			if ctrl&0x80 != 0 {
				if pos+2 > len(b) {
					return nil, pos, errVariationData
				}
				last += int(ot.U16(b, pos))
				pos += 2
			} else {
				if pos >= len(b) {
					return nil, pos, errVariationData
				}
				last += int(b[pos])
				pos++
			}
			if last >= numPoints {
				return nil, pos, errVariationData
			}
			points = append(points, last)
		}
	}
	return points, pos, nil
}

func unpackDeltas(b []byte, pos, n int) ([]float64, int, error) {
	deltas := make([]float64, 0, n)
	for len(deltas) < n {
		if pos >= len(b) {
			return nil, pos, errVariationData
		}
		ctrl := b[pos]
		pos++
		run := int(ctrl&deltaRunMask) + 1
		for j := 0; j < run && len(deltas) < n; j++ {
			switch {
			case ctrl&deltasAreZero != 0 && ctrl&deltasAreWords != 0: // 32 bit deltas
				if pos+4 > len(b) {
					return nil, pos, errVariationData
				}
				deltas = append(deltas, float64(int32(ot.U32(b, pos))))
				pos += 4
			case ctrl&deltasAreZero != 0:
				deltas = append(deltas, 0)
			case ctrl&deltasAreWords != 0:
				if pos+2 > len(b) {
					return nil, pos, errVariationData
				}
				deltas = append(deltas, float64(int16(ot.U16(b, pos))))
				pos += 2
			default:
				if pos >= len(b) {
					return nil, pos, errVariationData
				}
				deltas = append(deltas, float64(int8(b[pos])))
				pos++
			}
		}
	}
	return deltas, pos, nil
}

// inferDeltas expands sparse deltas to all points. Untouched points of simple
// glyph contours are interpolated, all other untouched points do not move.
func inferDeltas(points []int, dx, dy []float64, gc glyphContext) ([]float64, []float64) {
	n := len(gc.coords)
	touched := make([]bool, n)
	fx, fy := make([]float64, n), make([]float64, n)
	for i, p := range points {
		// a point may be listed more than once, deltas add up
		touched[p] = true
		fx[p] += dx[i]
		fy[p] += dy[i]
	}
	start := 0
	for _, end := range gc.endPts {
		if end >= n-4 {
			break
		}
		iupContour(gc.coords[start:end+1], touched[start:end+1], fx[start:end+1], fy[start:end+1])
		start = end + 1
	}
	return fx, fy
}

// iupContour interpolates the deltas of untouched points of a contour from
// the nearest touched points before and after them.
func iupContour(coords []point, touched []bool, dx, dy []float64) {
	var refs []int
	for i, t := range touched {
		if t {
			refs = append(refs, i)
		}
	}
	if len(refs) == 0 {
		return // no point of the contour moves
	}
	n := len(coords)
	for k, r1 := range refs {
		r2 := refs[(k+1)%len(refs)]
		// untouched points strictly between r1 and r2, cyclically
		for i := (r1 + 1) % n; i != r2; i = (i + 1) % n {
			dx[i] = iupValue(coords[i].x, coords[r1].x, dx[r1], coords[r2].x, dx[r2])
			dy[i] = iupValue(coords[i].y, coords[r1].y, dy[r1], coords[r2].y, dy[r2])
		}
	}
}

func iupValue(c, c1, d1, c2, d2 float64) float64 {
	if c1 == c2 {
		if d1 == d2 {
			return d1
		}
		return 0
	}
	if c1 > c2 {
		c1, c2, d1, d2 = c2, c1, d2, d1
	}
	switch {
	case c <= c1:
		return d1
	case c >= c2:
		return d2
	}
	return d1 + (c-c1)*(d2-d1)/(c2-c1)
}

// encodeVariations writes the tuple variations of a glyph, with embedded
// peaks and deltas for all points. Deltas are rounded; tuples without any
// non-zero delta are omitted.
func encodeVariations(tuples []tuple, axisCount int) []byte {
	var headers, bodies []byte
	count := 0
	for _, t := range tuples {
		body := parse.NewBinaryWriter([]byte{})
		body.WriteUint8(0) // all points
		dx, dy := roundDeltas(t.dx), roundDeltas(t.dy)
		if allZero(dx) && allZero(dy) {
			continue
		}
		packDeltas(body, dx)
		packDeltas(body, dy)
		h := parse.NewBinaryWriter([]byte{})
		h.WriteUint16(uint16(body.Len()))
		flags := uint16(tupleEmbeddedPeak | tuplePrivatePoints)
		if t.isIntermediate() {
			flags |= tupleIntermediate
		}
		h.WriteUint16(flags)
		for _, r := range t.regions {
			h.WriteInt16(toF2Dot14(r.peak))
		}
		if t.isIntermediate() {
			for _, r := range t.regions {
				h.WriteInt16(toF2Dot14(r.start))
			}
			for _, r := range t.regions {
				h.WriteInt16(toF2Dot14(r.end))
			}
		}
		headers = append(headers, h.Bytes()...)
		bodies = append(bodies, body.Bytes()...)
		count++
	}
	if count == 0 {
		return nil
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(uint16(count))
	w.WriteUint16(uint16(4 + len(headers)))
	w.WriteBytes(headers)
	w.WriteBytes(bodies)
	return w.Bytes()
}

func toF2Dot14(v float64) int16 {
	return int16(math.Round(clamp(v, -2, 1.99993896484375) * 16384))
}

func roundDeltas(ds []float64) []int {
	r := make([]int, len(ds))
	for i, d := range ds {
		r[i] = int(math.Round(d))
	}
	return r
}

func allZero(ds []int) bool {
	for _, d := range ds {
		if d != 0 {
			return false
		}
	}
	return true
}

// packDeltas writes runs of zero, byte and word deltas.
func packDeltas(w *parse.BinaryWriter, ds []int) {
	for i := 0; i < len(ds); {
		j := i
		switch {
		case ds[i] == 0:
			for j < len(ds) && j-i < 64 && ds[j] == 0 {
				j++
			}
			w.WriteUint8(deltasAreZero | uint8(j-i-1))
		case fitsInt8(ds[i]):
			for j < len(ds) && j-i < 64 && ds[j] != 0 && fitsInt8(ds[j]) {
				j++
			}
			w.WriteUint8(uint8(j - i - 1))
			for _, d := range ds[i:j] {
				w.WriteUint8(uint8(int8(d)))
			}
		default:
			for j < len(ds) && j-i < 64 && ds[j] != 0 && !fitsInt8(ds[j]) {
				j++
			}
			w.WriteUint8(deltasAreWords | uint8(j-i-1))
			for _, d := range ds[i:j] {
				w.WriteInt16(int16(max(math.MinInt16, min(math.MaxInt16, d))))
			}
		}
		i = j
	}
}

func fitsInt8(d int) bool {
	return d >= math.MinInt8 && d <= math.MaxInt8
}
