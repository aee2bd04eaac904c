/*
Package woff2 detects, decodes and encodes WOFF2 font containers.

WOFF2 wraps the tables of an sfnt font (TrueType or OpenType) into a single
Brotli compressed stream. Detect tells a WOFF2 file from a raw sfnt by its
signature. Normalize turns any supported input into a raw sfnt, and Encode
produces a WOFF2 file from a raw sfnt.

Encode applies the null transform to every table, including glyf and loca.
Files are somewhat larger than with the glyf transform, but every conforming
decoder can read them.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package woff2

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset.woff2'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.woff2")
}
