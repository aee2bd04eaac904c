package ot

import (
	"iter"
	"sort"
)

// CMapTable defines the mapping of character codes to glyph indices.
// Only Unicode (and Windows symbol) subtables are interpreted; of these the one
// with the widest coverage is selected, see parseCMap.
type CMapTable struct {
	tableBase
	NumGlyphs     int
	GlyphIndexMap GlyphIndexMap
	PlatformID    uint16 // platform of the selected subtable
	EncodingID    uint16 // encoding of the selected subtable
}

// GlyphIndexMap maps codepoints to glyph indices. Implementations exist for
// cmap subtable formats 0, 4, 6 and 12.
type GlyphIndexMap interface {
	Lookup(r rune) GlyphIndex         // glyph for r, 0 if not mapped
	All() iter.Seq2[rune, GlyphIndex] // all mappings in ascending codepoint order
	Format() uint16                   // cmap subtable format
}

// Lookup returns the glyph for r, or 0 (.notdef) if r is not mapped.
// Glyph indices beyond the font's glyph count are reported as 0.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil || t.GlyphIndexMap == nil {
		return 0
	}
	g := t.GlyphIndexMap.Lookup(r)
	if t.NumGlyphs > 0 && int(g) >= t.NumGlyphs {
		return 0
	}
	return g
}

// Mappings iterates over all codepoints mapped to a glyph other than .notdef,
// in ascending order.
func (t *CMapTable) Mappings() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		if t == nil || t.GlyphIndexMap == nil {
			return
		}
		for r, g := range t.GlyphIndexMap.All() {
			if g == 0 || (t.NumGlyphs > 0 && int(g) >= t.NumGlyphs) {
				continue
			}
			if !yield(r, g) {
				return
			}
		}
	}
}

// CodeRange is an inclusive range of codepoints.
type CodeRange struct {
	Start, End rune
}

// Ranges returns the codepoints mapped by the cmap as a list of maximal ranges,
// in ascending order.
func (t *CMapTable) Ranges() []CodeRange {
	var ranges []CodeRange
	for r := range t.Mappings() {
		if n := len(ranges); n > 0 && ranges[n-1].End+1 == r {
			ranges[n-1].End = r
			continue
		}
		ranges = append(ranges, CodeRange{Start: r, End: r})
	}
	return ranges
}

// --- Format 0 --------------------------------------------------------------

type format0GlyphIndex struct {
	glyphs binarySegm // 256 bytes
}

func (f format0GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || int(r) >= len(f.glyphs) {
		return 0
	}
	return GlyphIndex(f.glyphs[r])
}

func (f format0GlyphIndex) All() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for i, g := range f.glyphs {
			if !yield(rune(i), GlyphIndex(g)) {
				return
			}
		}
	}
}

func (f format0GlyphIndex) Format() uint16 { return 0 }

// --- Format 4 --------------------------------------------------------------

type cmapSegment4 struct {
	start, end  uint16
	delta       uint16
	rangeOffset uint16
	roAt        int // byte position of the idRangeOffset entry within the subtable
}

type format4GlyphIndex struct {
	subtable binarySegm
	segments []cmapSegment4
}

func (f format4GlyphIndex) glyph(seg cmapSegment4, c uint16) GlyphIndex {
	if seg.rangeOffset == 0 {
		return GlyphIndex(c + seg.delta)
	}
	at := seg.roAt + int(seg.rangeOffset) + 2*int(c-seg.start)
	g := f.subtable.U16(at)
	if g == 0 {
		return 0
	}
	return GlyphIndex(g + seg.delta)
}

func (f format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xffff {
		return 0
	}
	c := uint16(r)
	i := sort.Search(len(f.segments), func(i int) bool { return f.segments[i].end >= c })
	if i == len(f.segments) || f.segments[i].start > c {
		return 0
	}
	return f.glyph(f.segments[i], c)
}

func (f format4GlyphIndex) All() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for _, seg := range f.segments {
			if seg.start == 0xffff {
				continue // terminating segment
			}
			for c := uint32(seg.start); c <= uint32(seg.end); c++ {
				if !yield(rune(c), f.glyph(seg, uint16(c))) {
					return
				}
			}
		}
	}
}

func (f format4GlyphIndex) Format() uint16 { return 4 }

// --- Format 6 --------------------------------------------------------------

type format6GlyphIndex struct {
	first  uint16
	glyphs binarySegm // entryCount uint16 values
}

func (f format6GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < rune(f.first) {
		return 0
	}
	return GlyphIndex(f.glyphs.U16(int(r-rune(f.first)) * 2))
}

func (f format6GlyphIndex) All() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for i := 0; i+1 < len(f.glyphs); i += 2 {
			if !yield(rune(f.first)+rune(i/2), GlyphIndex(u16(f.glyphs[i:]))) {
				return
			}
		}
	}
}

func (f format6GlyphIndex) Format() uint16 { return 6 }

// --- Format 12 -------------------------------------------------------------

type cmapGroup12 struct {
	start, end uint32
	glyph      uint32
}

type format12GlyphIndex struct {
	groups []cmapGroup12
}

func (f format12GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := uint32(r)
	i := sort.Search(len(f.groups), func(i int) bool { return f.groups[i].end >= c })
	if i == len(f.groups) || f.groups[i].start > c {
		return 0
	}
	g := f.groups[i].glyph + (c - f.groups[i].start)
	if g > 0xffff {
		return 0
	}
	return GlyphIndex(g)
}

func (f format12GlyphIndex) All() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for _, grp := range f.groups {
			for c := grp.start; c <= grp.end && c <= 0x10ffff; c++ {
				g := grp.glyph + (c - grp.start)
				if g > 0xffff {
					break
				}
				if !yield(rune(c), GlyphIndex(g)) {
					return
				}
			}
		}
	}
}

func (f format12GlyphIndex) Format() uint16 { return 12 }
