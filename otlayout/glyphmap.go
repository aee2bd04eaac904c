package otlayout

import (
	"cmp"
	"slices"

	"github.com/go-text/typesetting/font/opentype/tables"
	"github.com/jqpe/font-subset/ot"
)

// GlyphMap maps the glyph IDs of a font to the glyph IDs of a subset of it.
// Glyphs without an entry are not part of the subset.
type GlyphMap struct {
	ids   map[ot.GlyphIndex]ot.GlyphIndex
	order []mapping // retained glyphs by new glyph ID
}

type mapping struct {
	src, dst tables.GlyphID
}

// NewGlyphMap creates a glyph map from old glyph IDs to new glyph IDs. The map
// must be injective.
func NewGlyphMap(ids map[ot.GlyphIndex]ot.GlyphIndex) GlyphMap {
	m := GlyphMap{ids: ids, order: make([]mapping, 0, len(ids))}
	for src, dst := range ids {
		m.order = append(m.order, mapping{src: tables.GlyphID(src), dst: tables.GlyphID(dst)})
	}
	slices.SortFunc(m.order, func(a, b mapping) int { return cmp.Compare(a.dst, b.dst) })
	return m
}

// Map returns the new glyph ID of g, and false if g is not retained.
func (m GlyphMap) Map(g ot.GlyphIndex) (ot.GlyphIndex, bool) {
	n, ok := m.ids[g]
	return n, ok
}

// Len returns the number of retained glyphs.
func (m GlyphMap) Len() int {
	return len(m.order)
}

func (m GlyphMap) glyph(g tables.GlyphID) (tables.GlyphID, bool) {
	n, ok := m.ids[ot.GlyphIndex(g)]
	return tables.GlyphID(n), ok
}

// glyphs maps a sequence of glyphs. It fails if any of them is not retained.
func (m GlyphMap) glyphs(gs []tables.GlyphID) ([]tables.GlyphID, bool) {
	out := make([]tables.GlyphID, len(gs))
	for i, g := range gs {
		n, ok := m.glyph(g)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
