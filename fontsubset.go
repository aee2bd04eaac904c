/*
Package fontsubset reduces fonts to the glyphs needed for a set of codepoints.

The codepoints are given as a range expression (see package unirange), e.g.
"0-7f,!20-2f". Fonts may be raw sfnt files (TrueType or OpenType) or WOFF2
files; subsets are always produced as raw sfnt by SubsetFont and as WOFF2 by
Process.

	res, err := fontsubset.SubsetFont(data, "0-7f", fontsubset.Options{})
	if err != nil {
		…
	}
	fmt.Println(res.Metadata.DisplayName(), res.ByteLength)
	subset, err := res.Subset()

Variable fonts may be instanced by pinning axes or restricting their range:

	opts := fontsubset.Options{VariationAxes: map[string]fontsubset.AxisConstraint{
		"wght": fontsubset.Pin(700),
		"wdth": fontsubset.Range(75, 100),
	}}

Subsetting runs on a process-wide engine by default. Requests against the
same engine are serialized, so SubsetFont and Process may be called from
multiple goroutines.

Errors are distinct types, which may be inspected with errors.As:
MalformedRangeError, InvalidFontError, OversizedInputError,
AxisNotFoundError, IncompleteAxisRangeError, AxisRangeRejectedError,
SubsettingFailedError, CodecError and CompressionFailedError.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package fontsubset

import (
	"errors"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/otsubset"
	"github.com/jqpe/font-subset/pipeline"
	"github.com/jqpe/font-subset/unirange"
	"github.com/jqpe/font-subset/woff2"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontsubset'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset")
}

// AxisConstraint pins a variation axis or restricts its range.
type AxisConstraint = pipeline.AxisConstraint

// Pin fixes a variation axis at a location.
func Pin(v float64) AxisConstraint {
	return pipeline.Pin(v)
}

// Range restricts a variation axis to [min, max]. The default location of
// the axis is clamped to the range.
func Range(min, max float64) AxisConstraint {
	return pipeline.Range(min, max)
}

// RangeWithDefault restricts a variation axis to [min, max] and moves its
// default location.
func RangeWithDefault(min, max, def float64) AxisConstraint {
	return pipeline.RangeWithDefault(min, max, def)
}

// DefaultEngine returns the process-wide subsetting engine.
func DefaultEngine() *otsubset.Engine {
	return otsubset.Default()
}

// Options configure a subset.
type Options struct {
	// PreserveNameIDs are name table entries retained in addition to the
	// engine's default (name IDs 0 to 6).
	PreserveNameIDs []uint16
	// VariationAxes constrains variation axes, by axis tag.
	VariationAxes map[string]AxisConstraint
	// NoLayoutClosure keeps glyphs reachable only through layout
	// substitutions out of the subset.
	NoLayoutClosure bool
	// LayoutFeatures restricts the retained layout features. If nil, all
	// features are retained.
	LayoutFeatures []string
	// Engine is the subsetting engine to use. If nil, DefaultEngine is used.
	Engine pipeline.Engine
	// Compress converts subsets to WOFF2 in Process. If nil, woff2.Encode
	// is used.
	Compress func(sfnt []byte) ([]byte, error)
}

// ErrAlreadyConsumed is returned by Result.Subset when called a second time.
var ErrAlreadyConsumed = errors.New("subset has already been consumed")

// Result is a prepared subset. The subset is created by calling Subset,
// which may be done once.
type Result struct {
	Metadata   otquery.Metadata // of the source font
	ByteLength int              // of the source font, as given

	mu       sync.Mutex
	consumed bool
	p        *pipeline.Pipeline
}

// Subset creates the subset font and returns it as a raw sfnt.
func (r *Result) Subset() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return nil, ErrAlreadyConsumed
	}
	r.consumed = true
	return r.p.Run()
}

// SubsetFont prepares a subset of a font for the codepoints of a range
// expression. WOFF2 input is decompressed first. The subset itself is
// created by Result.Subset.
func SubsetFont(source []byte, rangeExpr string, opts Options) (*Result, error) {
	raw, err := woff2.Normalize(source)
	if err != nil {
		return nil, err
	}
	if woff2.Detect(source) == woff2.Compressed {
		tracer().Infof("decompressed font from %d to %d bytes", len(source), len(raw))
	}
	codepoints, err := unirange.ParseSet(rangeExpr)
	if err != nil {
		return nil, err
	}
	md, err := otquery.ReadMetadata(raw)
	if err != nil {
		tracer().Infof("cannot read font metadata: %v", err)
		return nil, &InvalidFontError{Length: len(raw)}
	}
	if err := checkAxes(md, opts.VariationAxes); err != nil {
		return nil, err
	}
	eng := opts.Engine
	if eng == nil {
		eng = DefaultEngine()
	}
	req := pipeline.Request{
		Source:                raw,
		Codepoints:            codepoints,
		LayoutFeatures:        opts.LayoutFeatures,
		PreserveNameIDs:       opts.PreserveNameIDs,
		SuppressLayoutClosure: opts.NoLayoutClosure,
		VariationAxes:         opts.VariationAxes,
	}
	tracer().Debugf("prepared subset of %q for %d codepoints", md.DisplayName(), codepoints.Len())
	return &Result{
		Metadata:   md,
		ByteLength: len(source),
		p:          pipeline.New(eng, req),
	}, nil
}

// checkAxes reports axis constraints which cannot apply to a font: ranges
// without minimum or maximum, and axes the font does not have.
func checkAxes(md otquery.Metadata, axes map[string]AxisConstraint) error {
	for _, tag := range slices.Sorted(maps.Keys(axes)) {
		c := axes[tag]
		_, found := md.Axis(tag)
		switch {
		case c.IsPin() && !found:
			return &AxisNotFoundError{Tag: tag, Value: *c.Location}
		case c.IsPin():
		case c.Min == nil || c.Max == nil:
			return &IncompleteAxisRangeError{Tag: tag}
		case !found:
			def := math.NaN()
			if c.Default != nil {
				def = *c.Default
			}
			return &AxisRangeRejectedError{Tag: tag, Min: *c.Min, Max: *c.Max, Default: def}
		}
	}
	return nil
}
