package fonttest

import (
	"sort"

	"github.com/tdewolff/parse/v2"
)

// Glyph classes of a GDEF glyph class definition.
const (
	BaseGlyph     uint16 = 1
	LigatureGlyph uint16 = 2
	MarkGlyph     uint16 = 3
)

// Positioned returns the default test font with a GPOS table carrying its
// kerning as feature 'kern', and a GDEF table classifying its glyphs.
func Positioned() Spec {
	spec := Default()
	spec.Positioning = spec.Kerning
	spec.GlyphClasses = map[uint16]uint16{
		A: BaseGlyph, B: BaseGlyph, LowerA: BaseGlyph, LowerB: BaseGlyph,
		F: BaseGlyph, I: BaseGlyph, FI: LigatureGlyph, Acute: MarkGlyph,
	}
	return spec
}

// gpos writes a GPOS table with the feature 'kern', a pair adjustment of
// format 1 changing the advance of the first glyph.
func (spec Spec) gpos() []byte {
	return layoutTable([]layoutFeature{{"kern", 2, pairPos(spec.Positioning)}})
}

func pairPos(pairs []KernPair) []byte {
	sets := map[uint16][]KernPair{}
	var firsts []uint16
	for _, p := range pairs {
		if _, ok := sets[p.Left]; !ok {
			firsts = append(firsts, p.Left)
		}
		sets[p.Left] = append(sets[p.Left], p)
	}
	sort.Slice(firsts, func(i, j int) bool { return firsts[i] < firsts[j] })

	const xAdvance = 0x0004
	at := 10 + 2*len(firsts)
	setData := make([][]byte, len(firsts))
	for i, first := range firsts {
		set := sets[first]
		sort.Slice(set, func(i, j int) bool { return set[i].Right < set[j].Right })
		w := parse.NewBinaryWriter([]byte{})
		w.WriteUint16(uint16(len(set)))
		for _, p := range set {
			w.WriteUint16(p.Right)
			w.WriteInt16(p.Value)
		}
		setData[i] = w.Bytes()
		at += len(setData[i])
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)          // posFormat
	w.WriteUint16(uint16(at)) // coverageOffset
	w.WriteUint16(xAdvance)   // valueFormat1
	w.WriteUint16(0)          // valueFormat2
	w.WriteUint16(uint16(len(firsts)))
	at = 10 + 2*len(firsts)
	for _, d := range setData {
		w.WriteUint16(uint16(at))
		at += len(d)
	}
	for _, d := range setData {
		w.WriteBytes(d)
	}
	w.WriteBytes(coverage(firsts))
	return w.Bytes()
}

// gdef writes a version 1.0 GDEF table with a glyph class definition of
// format 2, one range per glyph.
func (spec Spec) gdef() []byte {
	glyphs := make([]uint16, 0, len(spec.GlyphClasses))
	for g := range spec.GlyphClasses {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)  // majorVersion
	w.WriteUint16(0)  // minorVersion
	w.WriteUint16(12) // glyphClassDefOffset
	w.WriteUint16(0)  // attachListOffset
	w.WriteUint16(0)  // ligCaretListOffset
	w.WriteUint16(0)  // markAttachClassDefOffset
	w.WriteUint16(2)  // classFormat
	w.WriteUint16(uint16(len(glyphs)))
	for _, g := range glyphs {
		w.WriteUint16(g)
		w.WriteUint16(g)
		w.WriteUint16(spec.GlyphClasses[g])
	}
	return w.Bytes()
}
