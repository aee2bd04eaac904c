/*
Package chargroup sorts codepoints into named groups and turns interactive
selections of codepoints into range expressions.

Every codepoint belongs to exactly one group. Groups are tested in a fixed
order, the first matching Unicode general category wins:

	Numbers, Punctuation, Marks, Currency, Math symbols,
	Uppercase Letters, Lowercase Letters, Other Symbols

A Gesture is the state machine behind selecting codepoints by dragging across
a grid of glyphs. A drag is locked to the group it started in. Committing a
drag yields a fragment of exclusion terms which is appended to an existing
range expression (see package unirange).

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package chargroup

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset.chargroup'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.chargroup")
}
