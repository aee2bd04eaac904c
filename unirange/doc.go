/*
Package unirange implements a small language for Unicode ranges.

An expression is a comma separated list of terms. A term is either a single
codepoint or a closed interval of codepoints, written in hexadecimal without
any "U+" prefix. A leading '!' marks a term as an exclusion:

	0-7f, !20-2f, 1f600

Resolving an expression yields a Set: the union of all included intervals
minus the union of all excluded ones. Control characters (general category Cc)
and surrogates never end up in a Set, whatever the expression says.

Compress is the inverse operation: it turns a Set into the shortest
expression, one term per run of consecutive codepoints. For every set S
without control characters

	Compress(S).Resolve() == S

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package unirange

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset.unirange'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.unirange")
}

// MaxCodepoint is the largest Unicode scalar value.
const MaxCodepoint rune = 0x10ffff

// DefaultExpression selects the Basic Latin block.
const DefaultExpression = "0-7f"
