/*
Package otsubset is a font subsetting engine with a handle based interface.

The engine owns a bounded memory arena. Clients copy a font into arena memory,
wrap it in a blob, create a face from the blob and configure a subset input
(Unicode codepoints, retained layout features, retained name IDs, flags and
variation axis limits). SubsetOrFail then produces a new face, whose binary
is again accessible as a blob in arena memory:

	eng := otsubset.Default()
	eng.Lock()
	defer eng.Unlock()
	ptr := eng.Malloc(uint32(len(font)))
	copy(eng.Heap()[ptr:], font)
	blob := eng.BlobCreate(ptr, uint32(len(font)), otsubset.MemoryModeWritable)
	face := eng.FaceCreate(blob, 0)
	eng.BlobDestroy(blob)
	input := eng.SubsetInputCreateOrFail()
	eng.SetAdd(eng.SubsetInputUnicodeSet(input), 'A')
	result := eng.SubsetOrFail(face, input)
	…

All handles are uint32 values, 0 denotes a null handle. Every handle has to be
destroyed by the client; the engine does not track ownership between handles
other than that a face keeps a private copy of its font data.

An Engine is not safe for concurrent use. Clients serialize access with
Lock and Unlock.

The subsetter computes a glyph closure (cmap, GSUB, composite glyphs), then
either compacts glyph IDs or retains them (when asked to, and for CFF
outlines), and rewrites the tables that depend on glyph IDs. GSUB, GPOS and
GDEF are rewritten by package otlayout. TrueType variable fonts may be
instanced: axes may be pinned to a location or restricted to a narrower range.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package otsubset

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset.otsubset'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.otsubset")
}
