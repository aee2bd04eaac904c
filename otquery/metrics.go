package otquery

import (
	"github.com/jqpe/font-subset/ot"
	"golang.org/x/image/font/sfnt"
)

// FontMetricsInfo holds the vertical metrics of a font, in font units.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units
	Ascent, Descent sfnt.Units // from 'hhea'
	MaxAdvance      sfnt.Units
	LineGap         sfnt.Units
}

// GlyphMetricsInfo holds the horizontal metrics and bounds of a glyph.
type GlyphMetricsInfo struct {
	Advance  sfnt.Units
	LSB, RSB sfnt.Units
	BBox     BoundingBox
}

// BoundingBox is the bounding box of a glyph as stored in 'glyf'.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// IsEmpty is true for glyphs without contours.
func (bbox BoundingBox) IsEmpty() bool {
	return bbox.MaxX-bbox.MinX == 0 || bbox.MaxY-bbox.MinY == 0
}

// Dx returns the width of the box.
func (bbox BoundingBox) Dx() sfnt.Units {
	return bbox.MaxX - bbox.MinX
}

// --- Font Information -------------------------------------------------

// FontType returns "TrueType" or "CFF", depending on the outlines of a font.
func FontType(otf *ot.Font) string {
	if otf.IsCFF() {
		return "CFF"
	}
	return "TrueType"
}

// FontMetrics retrieves selected metrics of a font.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if hhea := otf.HHea; hhea != nil {
		metrics.Ascent = sfnt.Units(hhea.Ascender)
		metrics.Descent = sfnt.Units(hhea.Descender)
		metrics.LineGap = sfnt.Units(hhea.LineGap)
		metrics.MaxAdvance = sfnt.Units(hhea.AdvanceWidthMax)
	}
	metrics.UnitsPerEm = sfnt.Units(otf.Head.UnitsPerEm) // head is a required table
	return metrics
}

// --- Glyph Routines --------------------------------------------------------

// GlyphIndex returns the glyph index for a give code-point.
// If the code-point cannot be found, 0 is returned.
//
// From the OpenType specification: character codes that do not correspond to any glyph in
// the font should be mapped to glyph index 0. The glyph at this location must be a special
// glyph representing a missing character, commonly known as '.notdef'.
func GlyphIndex(otf *ot.Font, codepoint rune) ot.GlyphIndex {
	return otf.CMap.Lookup(codepoint)
}

// CodePointForGlyph returns the lowest code-point mapped to a given glyph index.
//
// This is an inefficient operation: All code-points contained in the font's CMap
// are checked sequentially if they produce the given glyph.
// If the glyph index does not correspond to a code-point, 0 is returned.
func CodePointForGlyph(otf *ot.Font, gid ot.GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	var lowest rune
	for r, g := range otf.CMap.Mappings() {
		if g == gid && (lowest == 0 || r < lowest) {
			lowest = r
		}
	}
	return lowest
}

// GlyphMetrics retrieves metrics for a given glyph.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	//
	// table hmtx: advance width and left side bearing
	if m, ok := otf.HMtx.HMetrics(gid); ok {
		metrics.Advance = sfnt.Units(m.AdvanceWidth)
		metrics.LSB = sfnt.Units(m.LeftSideBearing)
	}
	//
	// table glyf: bounding box
	if glyf := otf.Glyf(); glyf != nil {
		if b, err := glyf.Glyph(gid); err == nil && len(b) >= 10 {
			metrics.BBox = BoundingBox{
				MinX: sfnt.Units(int16(ot.U16(b, 2))),
				MinY: sfnt.Units(int16(ot.U16(b, 4))),
				MaxX: sfnt.Units(int16(ot.U16(b, 6))),
				MaxY: sfnt.Units(int16(ot.U16(b, 8))),
			}
		}
	}
	// RSB calculation: rsb = aw - (lsb + xMax - xMin)
	// From the spec:
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing indicated
	// in the 'hmtx' table for such glyphs should be zero.
	if !metrics.BBox.IsEmpty() { // leave RSB for empty bboxes
		metrics.RSB = metrics.Advance - (metrics.LSB + metrics.BBox.Dx())
	}
	return metrics
}
