/*
Package ot provides access to the tables of an OpenType (sfnt) font, as far as they
are needed for subsetting a font.

Intended audience for this package are the subsetting engine of this module and
the metadata reader in package otquery. Package `ot` will not interpret glyph outlines,
hinting programs or layout rules; it exposes the tables and gives typed access to the
fields a subsetter has to rewrite:

▪︎ glyph data and its location table ('glyf', 'loca'), including the glyph components of
composite glyphs

▪︎ glyph metrics ('hmtx', 'hhea') and glyph counts ('maxp')

▪︎ character to glyph mapping ('cmap', formats 0, 4, 6 and 12)

▪︎ naming ('name'), PostScript glyph names ('post'), weight and width classes ('OS/2')

▪︎ the axes and named instances of variable fonts ('fvar')

▪︎ the substitutions of 'GSUB', read by ParseGSub, for the glyph closure of a subset

Every other table is kept as a generic table, i.e. no table information will be dropped
by the parser. It is up to clients to decide what to do with tables `ot` does not know.

An ot.Font keeps a reference to the font's binary data. Tables are views into this
data and must be treated as read-only.

Font collections ('ttcf') are split into standalone fonts by ParseCollection.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset.ot'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.ot")
}
