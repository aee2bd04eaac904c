/*
Package pipeline runs one subsetting request against a subsetting engine.

A Pipeline moves through the states

	Unacquired → Acquired → Configured → Executed → Extracted → Released

Acquire copies the font into engine memory and creates a face and a subset
input. Configure translates a Request into the engine's sets, flags and axis
limits. Execute asks the engine for the subset face, and Extract copies the
subset font out of engine memory. Any step may fail, which moves the
pipeline to state Failed. Engine resources are released exactly once, in
reverse order of acquisition, whatever state the pipeline reached.

The pipeline talks to the engine only through interface Engine, which is
implemented by package otsubset. Run holds the engine lock for the whole
request, so requests against the same engine never interleave.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package pipeline

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset.pipeline'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.pipeline")
}
