/*
Package otquery reads metadata from OpenType fonts.

The central function is ReadMetadata, which projects a font binary onto a
Metadata value: glyph count, names, style, variation axes and the Unicode
ranges covered by the font's cmap. It is used for before/after reports of a
subsetting operation and to decide which codepoints a font supports.

Lower level queries (HeadInfo, MaxPInfo, NamesRange, FontMetrics, GlyphMetrics)
operate on parsed ot.Font values.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset.otquery'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.otquery")
}
