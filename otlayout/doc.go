/*
Package otlayout subsets the OpenType layout tables GSUB, GPOS and GDEF.

Tables are read with the table parsers of go-text/typesetting and written
anew for a subset font: glyph IDs are translated through a GlyphMap, entries
for glyphs outside the subset are removed, and features not retained by the
caller are dropped together with the lookups only they reference. Lookups
applied from contextual rules of retained lookups are retained as well, and
lookup indices are renumbered accordingly.

	m := otlayout.NewGlyphMap(gidMap)
	gsub, err := otlayout.SubsetGSUB(otf.Table(ot.T("GSUB")).Binary(), m, keepFeature)

Feature variations and feature parameters are not carried over.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package otlayout

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// errFontFormat produces user level errors for malformed layout tables.
func errFontFormat(table, message string) error {
	return fmt.Errorf("OpenType %s table: %s", table, message)
}

// tracer writes to trace with key 'fontsubset.otlayout'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.otlayout")
}
