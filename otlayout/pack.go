package otlayout

import (
	"cmp"
	"encoding/binary"
	"errors"
	"math"
	"slices"

	"github.com/go-text/typesetting/font/opentype/tables"
	"github.com/tdewolff/parse/v2"
)

var errOffsetOverflow = errors.New("subtable offset exceeds 16 bits")

// table is a table being written: its own fields, followed by the subtables
// it references through 16-bit offsets from its start.
type table struct {
	w     *parse.BinaryWriter
	links []link
}

type link struct {
	at  int // position of the offset field
	sub []byte
}

func newTable() *table {
	return &table{w: parse.NewBinaryWriter([]byte{})}
}

func (t *table) u16(v uint16) { t.w.WriteUint16(v) }
func (t *table) i16(v int16)  { t.w.WriteInt16(v) }
func (t *table) tag(v tables.Tag) {
	t.w.WriteUint32(uint32(v))
}

func (t *table) count(n int) {
	t.w.WriteUint16(uint16(n))
}

// offset writes a placeholder for an offset to sub. A nil sub is written as
// a null offset.
func (t *table) offset(sub []byte) {
	if sub != nil {
		t.links = append(t.links, link{at: int(t.w.Len()), sub: sub})
	}
	t.w.WriteUint16(0)
}

// pack appends the referenced subtables, identical ones only once, and
// resolves the offsets to them.
func (t *table) pack() ([]byte, error) {
	b := t.w.Bytes()
	placed := make(map[string]int, len(t.links))
	for _, l := range t.links {
		at, ok := placed[string(l.sub)]
		if !ok {
			at = len(b)
			b = append(b, l.sub...)
			placed[string(l.sub)] = at
		}
		if at > math.MaxUint16 {
			return nil, errOffsetOverflow
		}
		binary.BigEndian.PutUint16(b[l.at:], uint16(at))
	}
	return b, nil
}

// valueRecord writes the fields of v present in format f. Device tables are
// referenced from t.
func (t *table) valueRecord(f tables.ValueFormat, v tables.ValueRecord) {
	if f&tables.XPlacement != 0 {
		t.i16(v.XPlacement)
	}
	if f&tables.YPlacement != 0 {
		t.i16(v.YPlacement)
	}
	if f&tables.XAdvance != 0 {
		t.i16(v.XAdvance)
	}
	if f&tables.YAdvance != 0 {
		t.i16(v.YAdvance)
	}
	if f&tables.XPlaDevice != 0 {
		t.offset(deviceTable(v.XPlaDevice))
	}
	if f&tables.YPlaDevice != 0 {
		t.offset(deviceTable(v.YPlaDevice))
	}
	if f&tables.XAdvDevice != 0 {
		t.offset(deviceTable(v.XAdvDevice))
	}
	if f&tables.YAdvDevice != 0 {
		t.offset(deviceTable(v.YAdvDevice))
	}
}

// subsetter carries the glyph and lookup mappings while a table is written.
type subsetter struct {
	m       GlyphMap
	lookups map[uint16]uint16 // old to new lookup index
	err     error
}

// pack packs t and remembers the first error.
func (s *subsetter) pack(t *table) []byte {
	b, err := t.pack()
	if err != nil && s.err == nil {
		s.err = err
	}
	return b
}

// covered is a retained glyph of a coverage table.
type covered struct {
	src   tables.GlyphID // glyph ID in the font
	gid   tables.GlyphID // glyph ID in the subset
	index int            // coverage index in the source table
}

// coverage returns the retained glyphs of c with a coverage index below n,
// ordered by new glyph ID.
func (s *subsetter) coverage(c tables.Coverage, n int) []covered {
	var out []covered
	add := func(g tables.GlyphID, i int) {
		if i >= n {
			return
		}
		if gid, ok := s.m.glyph(g); ok {
			out = append(out, covered{src: g, gid: gid, index: i})
		}
	}
	switch c := c.(type) {
	case tables.Coverage1:
		for i, g := range c.Glyphs {
			add(g, i)
		}
	case tables.Coverage2:
		for _, r := range c.Ranges {
			for g := int(r.StartGlyphID); g <= int(r.EndGlyphID); g++ {
				add(tables.GlyphID(g), int(r.StartCoverageIndex)+g-int(r.StartGlyphID))
			}
		}
	}
	slices.SortFunc(out, func(a, b covered) int { return cmp.Compare(a.gid, b.gid) })
	return out
}

// coverages remaps a sequence of coverage tables. It fails if any of them
// has no retained glyph left.
func (s *subsetter) coverages(cs []tables.Coverage) ([][]byte, bool) {
	out := make([][]byte, len(cs))
	for i, c := range cs {
		cov := s.coverage(c, math.MaxInt)
		if len(cov) == 0 {
			return nil, false
		}
		out[i] = coverageTable(gids(cov))
	}
	return out, true
}

func gids(cs []covered) []tables.GlyphID {
	out := make([]tables.GlyphID, len(cs))
	for i, c := range cs {
		out[i] = c.gid
	}
	return out
}

// coverageTable writes a coverage table for ascending glyph IDs, in the
// smaller of the two formats.
func coverageTable(glyphs []tables.GlyphID) []byte {
	ranges := 0
	for i, g := range glyphs {
		if i == 0 || g != glyphs[i-1]+1 {
			ranges++
		}
	}
	w := parse.NewBinaryWriter([]byte{})
	if 6*ranges < 2*len(glyphs) {
		w.WriteUint16(2)
		w.WriteUint16(uint16(ranges))
		for i := 0; i < len(glyphs); {
			j := i
			for j+1 < len(glyphs) && glyphs[j+1] == glyphs[j]+1 {
				j++
			}
			w.WriteUint16(glyphs[i])
			w.WriteUint16(glyphs[j])
			w.WriteUint16(uint16(i))
			i = j + 1
		}
		return w.Bytes()
	}
	w.WriteUint16(1)
	w.WriteUint16(uint16(len(glyphs)))
	for _, g := range glyphs {
		w.WriteUint16(g)
	}
	return w.Bytes()
}

// classDef remaps a class definition to the retained glyphs. A nil class
// definition stays nil.
func (s *subsetter) classDef(cd tables.ClassDef) []byte {
	if cd == nil {
		return nil
	}
	var glyphs []tables.GlyphID
	var classes []uint16
	for _, m := range s.m.order {
		if c, ok := cd.Class(m.src); ok && c != 0 {
			glyphs = append(glyphs, m.dst)
			classes = append(classes, c)
		}
	}
	return classDefTable(glyphs, classes)
}

// classExtent is the number of classes of cd, including class 0.
func classExtent(cd tables.ClassDef) int {
	if cd == nil {
		return 1
	}
	return cd.Extent()
}

// classDefTable writes a class definition for ascending glyph IDs, in the
// smaller of the two formats.
func classDefTable(glyphs []tables.GlyphID, classes []uint16) []byte {
	ranges := 0
	for i := range glyphs {
		if i == 0 || glyphs[i] != glyphs[i-1]+1 || classes[i] != classes[i-1] {
			ranges++
		}
	}
	w := parse.NewBinaryWriter([]byte{})
	if len(glyphs) > 0 {
		first := glyphs[0]
		span := int(glyphs[len(glyphs)-1]-first) + 1
		if 6+2*span <= 4+6*ranges {
			values := make([]uint16, span)
			for i, g := range glyphs {
				values[g-first] = classes[i]
			}
			w.WriteUint16(1)
			w.WriteUint16(first)
			w.WriteUint16(uint16(span))
			for _, v := range values {
				w.WriteUint16(v)
			}
			return w.Bytes()
		}
	}
	w.WriteUint16(2)
	w.WriteUint16(uint16(ranges))
	for i := 0; i < len(glyphs); {
		j := i
		for j+1 < len(glyphs) && glyphs[j+1] == glyphs[j]+1 && classes[j+1] == classes[i] {
			j++
		}
		w.WriteUint16(glyphs[i])
		w.WriteUint16(glyphs[j])
		w.WriteUint16(classes[i])
		i = j + 1
	}
	return w.Bytes()
}

// deviceTable writes a device table, or a variation index table for variable
// fonts. Hinting deltas are packed as tightly as their range allows.
func deviceTable(d tables.DeviceTable) []byte {
	w := parse.NewBinaryWriter([]byte{})
	switch d := d.(type) {
	case tables.DeviceHinting:
		format := 1
		for _, v := range d.Values {
			switch {
			case v < -8 || v > 7:
				format = 3
			case (v < -2 || v > 1) && format < 2:
				format = 2
			}
		}
		w.WriteUint16(d.StartSize)
		w.WriteUint16(d.EndSize)
		w.WriteUint16(uint16(format))
		bits := 1 << format
		mask := uint16(1)<<bits - 1
		for i := 0; i < len(d.Values); i += 16 / bits {
			var word uint16
			for k := 0; k < 16/bits && i+k < len(d.Values); k++ {
				word |= (uint16(d.Values[i+k]) & mask) << (16 - bits*(k+1))
			}
			w.WriteUint16(word)
		}
	case tables.DeviceVariation:
		w.WriteUint16(d.DeltaSetOuter)
		w.WriteUint16(d.DeltaSetInner)
		w.WriteUint16(0x8000)
	default:
		return nil
	}
	return w.Bytes()
}

// anchor writes an anchor table, nil for a missing anchor.
func (s *subsetter) anchor(a tables.Anchor) []byte {
	t := newTable()
	switch a := a.(type) {
	case tables.AnchorFormat1:
		t.u16(1)
		t.i16(a.XCoordinate)
		t.i16(a.YCoordinate)
	case tables.AnchorFormat2:
		t.u16(2)
		t.i16(a.XCoordinate)
		t.i16(a.YCoordinate)
		t.u16(a.AnchorPoint)
	case tables.AnchorFormat3:
		t.u16(3)
		t.i16(a.XCoordinate)
		t.i16(a.YCoordinate)
		t.offset(deviceTable(a.XDevice))
		t.offset(deviceTable(a.YDevice))
	default:
		return nil
	}
	return s.pack(t)
}
