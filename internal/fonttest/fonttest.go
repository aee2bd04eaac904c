/*
Package fonttest builds small synthetic TrueType fonts for tests.

The fonts are complete in the sense of the OpenType specification (all required
tables are present and consistent), but glyph outlines are simple boxes. Optional
parts are a GSUB table with ligature and alternate substitutions, a GPOS table
with pair kerning, a GDEF glyph class definition, a legacy 'kern' table, and the
'fvar'/'gvar' tables of a variable font.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package fonttest

import (
	"encoding/binary"
	"sort"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
	"golang.org/x/text/encoding/unicode"
)

// Glyph describes one glyph of a synthetic font.
type Glyph struct {
	Name       string
	Rune       rune     // 0 for glyphs not mapped by cmap
	Advance    uint16   // advance width
	Components []uint16 // component glyphs of a composite glyph
	Empty      bool     // glyph without outline, e.g. space
}

// Axis is a variation axis of a synthetic variable font.
type Axis struct {
	Tag               string
	Min, Default, Max float64
	NameID            uint16
	InstanceName      uint16 // subfamily name ID of a named instance at Max, 0 for none
}

// Ligature replaces a sequence of glyphs by a single glyph.
type Ligature struct {
	Components []uint16
	Glyph      uint16
}

// KernPair is an entry of a format 0 'kern' subtable.
type KernPair struct {
	Left, Right uint16
	Value       int16
}

// Spec describes a synthetic font.
type Spec struct {
	Glyphs          []Glyph
	Names           map[uint16]string
	Weight          uint16
	Italic          bool
	LongLoca        bool
	Ligatures       []Ligature        // GSUB feature 'liga'
	Alternates      map[uint16]uint16 // GSUB feature 'salt'
	Kerning         []KernPair
	Positioning     []KernPair        // GPOS feature 'kern'
	GlyphClasses    map[uint16]uint16 // GDEF glyph class definition
	Axes            []Axis            // fvar, a gvar table is generated as well
	GlyphVariations map[uint16][]byte // gvar glyph variation data per glyph
}

// Glyph IDs of the default font.
const (
	NotDef uint16 = iota
	Space
	A
	B
	C
	LowerA
	LowerB
	F
	I
	FI
	Acute
	AAcute
	One
	ASalt
	Grinning
	Period
)

// Default returns the specification of the default test font: Latin letters,
// a composite glyph (U+00C1), a ligature f_i, an alternate A.salt, a supplementary
// codepoint (U+1F600) and kerning.
func Default() Spec {
	return Spec{
		Glyphs: []Glyph{
			{Name: ".notdef", Advance: 500},
			{Name: "space", Rune: ' ', Advance: 250, Empty: true},
			{Name: "A", Rune: 'A', Advance: 600},
			{Name: "B", Rune: 'B', Advance: 600},
			{Name: "C", Rune: 'C', Advance: 620},
			{Name: "a", Rune: 'a', Advance: 500},
			{Name: "b", Rune: 'b', Advance: 500},
			{Name: "f", Rune: 'f', Advance: 300},
			{Name: "i", Rune: 'i', Advance: 250},
			{Name: "f_i", Advance: 550},
			{Name: "acute", Rune: 0xb4, Advance: 300},
			{Name: "Aacute", Rune: 0xc1, Advance: 600, Components: []uint16{A, Acute}},
			{Name: "one", Rune: '1', Advance: 500},
			{Name: "A.salt", Advance: 600},
			{Name: "grinning", Rune: 0x1f600, Advance: 1000},
			{Name: "period", Rune: '.', Advance: 250},
		},
		Names: map[uint16]string{
			0:   "Copyright nobody",
			1:   "Test Sans",
			2:   "Regular",
			3:   "1.000;NONE;TestSans-Regular",
			4:   "Test Sans Regular",
			5:   "Version 1.000",
			6:   "TestSans-Regular",
			16:  "Test Sans Family",
			300: "Not retained by default",
		},
		Weight:     400,
		Ligatures:  []Ligature{{Components: []uint16{F, I}, Glyph: FI}},
		Alternates: map[uint16]uint16{A: ASalt},
		Kerning: []KernPair{
			{Left: A, Right: B, Value: -50},
			{Left: LowerA, Right: LowerB, Value: -20},
			{Left: F, Right: I, Value: -10},
		},
	}
}

// Variable returns the default test font with a weight axis 100…900 (default 400),
// a named instance "Bold" and glyph variation data for glyphs A and B.
//
// At wght=900, the right edge and the advance of A grow by 100 units, at wght=100
// they shrink by 40 units. B has a sparse tuple moving its right edge by 60 units
// at wght=900.
func Variable() Spec {
	spec := Default()
	spec.Names[256] = "Weight"
	spec.Names[257] = "Bold"
	spec.Axes = []Axis{{Tag: "wght", Min: 100, Default: 400, Max: 900, NameID: 256, InstanceName: 257}}
	spec.GlyphVariations = map[uint16][]byte{
		A: GlyphVariationData(
			Tuple{Peak: []float64{1}, DX: rightEdge(100), DY: make([]int16, 8)},
			Tuple{Peak: []float64{-1}, DX: rightEdge(-40), DY: make([]int16, 8)},
		),
		B: GlyphVariationData(
			Tuple{Peak: []float64{1}, Points: []uint16{2, 3, 5}, DX: []int16{60, 60, 60}, DY: []int16{0, 0, 0}},
		),
	}
	return spec
}

// VariableWidth returns the variable test font with a second axis wdth 75…125
// (default 100). At wdth=125, the right edge and the advance of A grow by 50
// units. B varies only when both axes are at their maximum.
func VariableWidth() Spec {
	spec := Variable()
	spec.Names[258] = "Width"
	spec.Axes = append(spec.Axes, Axis{Tag: "wdth", Min: 75, Default: 100, Max: 125, NameID: 258})
	spec.GlyphVariations = map[uint16][]byte{
		A: GlyphVariationData(
			Tuple{Peak: []float64{1, 0}, DX: rightEdge(100), DY: make([]int16, 8)},
			Tuple{Peak: []float64{0, 1}, DX: rightEdge(50), DY: make([]int16, 8)},
		),
		B: GlyphVariationData(
			Tuple{Peak: []float64{1, 1}, Points: []uint16{2, 3, 5}, DX: []int16{60, 60, 60}, DY: []int16{0, 0, 0}},
		),
	}
	return spec
}

// rightEdge returns x deltas for a box glyph and its phantom points, moving the
// right edge and the advance width by d.
func rightEdge(d int16) []int16 {
	return []int16{0, 0, d, d, 0, d, 0, 0}
}

// Build returns the binary font.
func (spec Spec) Build() []byte {
	tables := map[ot.Tag][]byte{}
	glyf, loca, long := spec.glyf()
	tables[ot.T("glyf")] = glyf
	tables[ot.T("loca")] = loca
	tables[ot.T("head")] = spec.head(long)
	hmtx, numberOfHMetrics := spec.hmtx()
	tables[ot.T("hmtx")] = hmtx
	tables[ot.T("hhea")] = spec.hhea(numberOfHMetrics)
	tables[ot.T("maxp")] = spec.maxp()
	tables[ot.T("cmap")] = ot.BuildCMap(spec.cmap())
	tables[ot.T("OS/2")] = spec.os2()
	tables[ot.T("name")] = spec.name()
	tables[ot.T("post")] = spec.post()
	if len(spec.Ligatures) > 0 || len(spec.Alternates) > 0 {
		tables[ot.T("GSUB")] = spec.gsub()
	}
	if len(spec.Kerning) > 0 {
		tables[ot.T("kern")] = spec.kern()
	}
	if len(spec.Positioning) > 0 {
		tables[ot.T("GPOS")] = spec.gpos()
	}
	if len(spec.GlyphClasses) > 0 {
		tables[ot.T("GDEF")] = spec.gdef()
	}
	if len(spec.Axes) > 0 {
		tables[ot.T("fvar")] = spec.fvar()
		tables[ot.T("gvar")] = spec.gvar()
	}
	return ot.Assemble(ot.FontTypeTrueType, tables)
}

// Font returns the default test font.
func Font() []byte {
	return Default().Build()
}

// Collection returns a font collection ('ttcf') containing the given fonts. Tables are
// not shared between the fonts.
func Collection(fonts ...[]byte) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(ot.FontTypeCollection)
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0)
	w.WriteUint32(uint32(len(fonts)))
	offset := uint32(12 + 4*len(fonts))
	for _, f := range fonts {
		w.WriteUint32(offset)
		offset += uint32(len(f))
	}
	for _, f := range fonts {
		// table offsets of each font are relative to the start of the collection
		base := uint32(w.Len())
		b := append([]byte{}, f...)
		n := int(binary.BigEndian.Uint16(b[4:]))
		for i := 0; i < n; i++ {
			at := 12 + 16*i + 8
			binary.BigEndian.PutUint32(b[at:], binary.BigEndian.Uint32(b[at:])+base)
		}
		w.WriteBytes(b)
	}
	return w.Bytes()
}

func (spec Spec) glyphData(gid int) []byte {
	g := spec.Glyphs[gid]
	if g.Empty {
		return nil
	}
	w := parse.NewBinaryWriter([]byte{})
	xMax := int16(g.Advance) - 50
	if len(g.Components) > 0 {
		w.WriteInt16(-1)
		w.WriteInt16(50)
		w.WriteInt16(0)
		w.WriteInt16(xMax)
		w.WriteInt16(900)
		for i, c := range g.Components {
			flags := uint16(0x0001 | 0x0002) // ARG_1_AND_2_ARE_WORDS, ARGS_ARE_XY_VALUES
			if i+1 < len(g.Components) {
				flags |= 0x0020 // MORE_COMPONENTS
			}
			w.WriteUint16(flags)
			w.WriteUint16(c)
			w.WriteInt16(0)
			w.WriteInt16(int16(200 * i))
		}
		return w.Bytes()
	}
	w.WriteInt16(1) // numberOfContours
	w.WriteInt16(50)
	w.WriteInt16(0)
	w.WriteInt16(xMax)
	w.WriteInt16(700)
	w.WriteUint16(3) // endPtsOfContours
	w.WriteUint16(0) // instructionLength
	for i := 0; i < 4; i++ {
		w.WriteUint8(0x01) // ON_CURVE_POINT
	}
	for _, dx := range []int16{50, 0, xMax - 50, 0} {
		w.WriteInt16(dx)
	}
	for _, dy := range []int16{0, 700, 0, -700} {
		w.WriteInt16(dy)
	}
	return w.Bytes()
}

func (spec Spec) glyf() (glyf, loca []byte, long bool) {
	g := parse.NewBinaryWriter([]byte{})
	offsets := make([]uint32, 0, len(spec.Glyphs)+1)
	for i := range spec.Glyphs {
		offsets = append(offsets, uint32(g.Len()))
		g.WriteBytes(spec.glyphData(i))
	}
	offsets = append(offsets, uint32(g.Len()))
	l := parse.NewBinaryWriter([]byte{})
	long = spec.LongLoca || g.Len()/2 > 0xffff
	for _, off := range offsets {
		if long {
			l.WriteUint32(off)
		} else {
			l.WriteUint16(uint16(off / 2))
		}
	}
	return g.Bytes(), l.Bytes(), long
}

func (spec Spec) head(long bool) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000) // version
	w.WriteUint32(0x00010000) // fontRevision
	w.WriteUint32(0)          // checkSumAdjustment
	w.WriteUint32(0x5F0F3CF5) // magicNumber
	w.WriteUint16(0x000B)     // flags
	w.WriteUint16(1000)       // unitsPerEm
	w.WriteInt64(3600000000)  // created
	w.WriteInt64(3600000000)  // modified
	w.WriteInt16(0)
	w.WriteInt16(-200)
	w.WriteInt16(1000)
	w.WriteInt16(900)
	var macStyle uint16
	if spec.Italic {
		macStyle |= 2
	}
	if spec.Weight >= 700 {
		macStyle |= 1
	}
	w.WriteUint16(macStyle)
	w.WriteUint16(8) // lowestRecPPEM
	w.WriteInt16(2)  // fontDirectionHint
	if long {
		w.WriteInt16(1)
	} else {
		w.WriteInt16(0)
	}
	w.WriteInt16(0) // glyphDataFormat
	return w.Bytes()
}

func (spec Spec) hmtx() ([]byte, int) {
	n := len(spec.Glyphs)
	for n > 1 && spec.Glyphs[n-1].Advance == spec.Glyphs[n-2].Advance {
		n--
	}
	w := parse.NewBinaryWriter([]byte{})
	for i, g := range spec.Glyphs {
		if i < n {
			w.WriteUint16(g.Advance)
		}
		if g.Empty {
			w.WriteInt16(0)
		} else {
			w.WriteInt16(50)
		}
	}
	return w.Bytes(), n
}

func (spec Spec) hhea(numberOfHMetrics int) []byte {
	var maxAdvance uint16
	for _, g := range spec.Glyphs {
		maxAdvance = max(maxAdvance, g.Advance)
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000)
	w.WriteInt16(800)  // ascender
	w.WriteInt16(-200) // descender
	w.WriteInt16(0)    // lineGap
	w.WriteUint16(maxAdvance)
	w.WriteInt16(0)                      // minLeftSideBearing
	w.WriteInt16(50)                     // minRightSideBearing
	w.WriteInt16(int16(maxAdvance) - 50) // xMaxExtent
	w.WriteInt16(1)                      // caretSlopeRise
	w.WriteInt16(0)                      // caretSlopeRun
	w.WriteInt16(0)                      // caretOffset
	w.WriteBytes(make([]byte, 8))
	w.WriteInt16(0) // metricDataFormat
	w.WriteUint16(uint16(numberOfHMetrics))
	return w.Bytes()
}

func (spec Spec) maxp() []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000)
	w.WriteUint16(uint16(len(spec.Glyphs)))
	w.WriteUint16(4) // maxPoints
	w.WriteUint16(1) // maxContours
	w.WriteUint16(8) // maxCompositePoints
	w.WriteUint16(2) // maxCompositeContours
	w.WriteUint16(2) // maxZones
	w.WriteBytes(make([]byte, 12))
	w.WriteUint16(2) // maxComponentElements
	w.WriteUint16(1) // maxComponentDepth
	return w.Bytes()
}

func (spec Spec) cmap() map[rune]ot.GlyphIndex {
	m := map[rune]ot.GlyphIndex{}
	for i, g := range spec.Glyphs {
		if g.Rune != 0 {
			m[g.Rune] = ot.GlyphIndex(i)
		}
	}
	return m
}

func (spec Spec) os2() []byte {
	var first, last rune = 0xffff, 0
	for _, g := range spec.Glyphs {
		if g.Rune != 0 {
			first, last = min(first, g.Rune), max(last, g.Rune)
		}
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(4)  // version
	w.WriteInt16(500) // xAvgCharWidth
	w.WriteUint16(spec.Weight)
	w.WriteUint16(5) // usWidthClass
	w.WriteUint16(0) // fsType
	w.WriteBytes(make([]byte, 20))
	w.WriteInt16(0)                // sFamilyClass
	w.WriteBytes(make([]byte, 10)) // panose
	w.WriteUint32(1)               // ulUnicodeRange1: Basic Latin
	w.WriteUint32(0)
	w.WriteUint32(0)
	w.WriteUint32(0)
	w.WriteBytes([]byte("NONE"))
	var fsSelection uint16 = 0x40 // REGULAR
	if spec.Italic {
		fsSelection = 0x01
	}
	w.WriteUint16(fsSelection)
	w.WriteUint16(uint16(min(first, 0xffff)))
	w.WriteUint16(uint16(min(last, 0xffff)))
	w.WriteInt16(800)  // sTypoAscender
	w.WriteInt16(-200) // sTypoDescender
	w.WriteInt16(0)    // sTypoLineGap
	w.WriteUint16(900) // usWinAscent
	w.WriteUint16(200) // usWinDescent
	w.WriteUint32(1)   // ulCodePageRange1
	w.WriteUint32(0)
	w.WriteInt16(500) // sxHeight
	w.WriteInt16(700) // sCapHeight
	w.WriteUint16(0)  // usDefaultChar
	w.WriteUint16(' ')
	w.WriteUint16(2) // usMaxContext
	return w.Bytes()
}

func (spec Spec) name() []byte {
	ids := make([]int, 0, len(spec.Names))
	for id := range spec.Names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	var storage []byte
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0)
	w.WriteUint16(uint16(len(ids)))
	w.WriteUint16(uint16(6 + 12*len(ids)))
	for _, id := range ids {
		s, err := enc.Bytes([]byte(spec.Names[uint16(id)]))
		if err != nil {
			panic(err)
		}
		w.WriteUint16(3)     // platformID Windows
		w.WriteUint16(1)     // encodingID Unicode BMP
		w.WriteUint16(0x409) // languageID en-US
		w.WriteUint16(uint16(id))
		w.WriteUint16(uint16(len(s)))
		w.WriteUint16(uint16(len(storage)))
		storage = append(storage, s...)
	}
	w.WriteBytes(storage)
	return w.Bytes()
}

// post writes a version 2 table with custom glyph names for every glyph except .notdef.
func (spec Spec) post() []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00020000)
	if spec.Italic {
		w.WriteUint32(ot.ToFixed(-12))
	} else {
		w.WriteUint32(0)
	}
	w.WriteInt16(-100) // underlinePosition
	w.WriteInt16(50)   // underlineThickness
	w.WriteBytes(make([]byte, 20))
	w.WriteUint16(uint16(len(spec.Glyphs)))
	var names [][]byte
	for i, g := range spec.Glyphs {
		if i == 0 {
			w.WriteUint16(0) // .notdef is standard name 0
			continue
		}
		w.WriteUint16(uint16(ot.StandardNames + len(names)))
		names = append(names, []byte(g.Name))
	}
	for _, name := range names {
		w.WriteUint8(uint8(len(name)))
		w.WriteBytes(name)
	}
	return w.Bytes()
}

func (spec Spec) kern() []byte {
	pairs := append([]KernPair{}, spec.Kerning...)
	sort.Slice(pairs, func(i, j int) bool {
		return uint32(pairs[i].Left)<<16|uint32(pairs[i].Right) < uint32(pairs[j].Left)<<16|uint32(pairs[j].Right)
	})
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(1) // nTables
	w.WriteUint16(0) // subtable version
	w.WriteUint16(uint16(14 + 6*len(pairs)))
	w.WriteUint16(0x0001) // coverage: horizontal, format 0
	w.WriteUint16(uint16(len(pairs)))
	entrySelector := 0
	for 1<<(entrySelector+1) <= len(pairs) {
		entrySelector++
	}
	searchRange := 6 * (1 << entrySelector)
	w.WriteUint16(uint16(searchRange))
	w.WriteUint16(uint16(entrySelector))
	w.WriteUint16(uint16(6*len(pairs) - searchRange))
	for _, p := range pairs {
		w.WriteUint16(p.Left)
		w.WriteUint16(p.Right)
		w.WriteInt16(p.Value)
	}
	return w.Bytes()
}

func (spec Spec) fvar() []byte {
	var instances []Axis
	for _, a := range spec.Axes {
		if a.InstanceName != 0 {
			instances = append(instances, a)
		}
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)  // majorVersion
	w.WriteUint16(0)  // minorVersion
	w.WriteUint16(16) // axesArrayOffset
	w.WriteUint16(2)  // reserved
	w.WriteUint16(uint16(len(spec.Axes)))
	w.WriteUint16(20) // axisSize
	w.WriteUint16(uint16(len(instances)))
	w.WriteUint16(uint16(4 + 4*len(spec.Axes)))
	for _, a := range spec.Axes {
		w.WriteUint32(uint32(ot.T(a.Tag)))
		w.WriteUint32(ot.ToFixed(a.Min))
		w.WriteUint32(ot.ToFixed(a.Default))
		w.WriteUint32(ot.ToFixed(a.Max))
		w.WriteUint16(0)
		w.WriteUint16(a.NameID)
	}
	for _, inst := range instances {
		w.WriteUint16(inst.InstanceName)
		w.WriteUint16(0)
		for _, a := range spec.Axes {
			if a.Tag == inst.Tag {
				w.WriteUint32(ot.ToFixed(a.Max))
			} else {
				w.WriteUint32(ot.ToFixed(a.Default))
			}
		}
	}
	return w.Bytes()
}

// gvar writes a table with long offsets and without shared tuples.
func (spec Spec) gvar() []byte {
	n := len(spec.Glyphs)
	dataAt := uint32(20 + 4*(n+1))
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0)
	w.WriteUint16(uint16(len(spec.Axes)))
	w.WriteUint16(0) // sharedTupleCount
	w.WriteUint32(dataAt)
	w.WriteUint16(uint16(n))
	w.WriteUint16(1) // flags: long offsets
	w.WriteUint32(dataAt)
	var data []byte
	for i := 0; i < n; i++ {
		w.WriteUint32(uint32(len(data)))
		data = append(data, spec.GlyphVariations[uint16(i)]...)
	}
	w.WriteUint32(uint32(len(data)))
	w.WriteBytes(data)
	return w.Bytes()
}
