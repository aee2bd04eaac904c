package pipeline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jqpe/font-subset/otsubset"
	"github.com/jqpe/font-subset/unirange"
)

// Engine is the part of a subsetting engine a pipeline needs.
// *otsubset.Engine implements it.
type Engine interface {
	Lock()
	Unlock()
	HeapLimit() int
	Malloc(size uint32) uint32
	Free(ptr uint32)
	Heap() []byte
	BlobCreate(ptr, length uint32, mode otsubset.MemoryMode) uint32
	BlobDestroy(blob uint32)
	BlobGetLength(blob uint32) uint32
	BlobGetData(blob uint32) uint32
	FaceCreate(blob, index uint32) uint32
	FaceDestroy(face uint32)
	FaceReferenceBlob(face uint32) uint32
	SubsetInputCreateOrFail() uint32
	SubsetInputDestroy(input uint32)
	SubsetInputUnicodeSet(input uint32) uint32
	SubsetInputSet(input uint32, which otsubset.SetsType) uint32
	SubsetInputSetFlags(input uint32, flags otsubset.Flags)
	SubsetInputGetFlags(input uint32) otsubset.Flags
	SetAdd(set, value uint32)
	SetClear(set uint32)
	SetInvert(set uint32)
	PinAxisLocation(input, face, tag uint32, value float64) bool
	SetAxisRange(input, face, tag uint32, min, max, def float64) bool
	SubsetOrFail(face, input uint32) uint32
}

var _ Engine = (*otsubset.Engine)(nil)

// AxisConstraint limits a variation axis. It either pins the axis to a
// location or restricts it to a range.
type AxisConstraint struct {
	Location *float64 // set for a pinned axis
	Min      *float64
	Max      *float64
	Default  *float64 // optional, the font's default clamped to [Min, Max] if nil
}

// Pin creates a constraint fixing an axis at a location.
func Pin(v float64) AxisConstraint {
	return AxisConstraint{Location: &v}
}

// Range creates a constraint restricting an axis to [min, max].
func Range(min, max float64) AxisConstraint {
	return AxisConstraint{Min: &min, Max: &max}
}

// RangeWithDefault creates a constraint restricting an axis to [min, max]
// with a new default location.
func RangeWithDefault(min, max, def float64) AxisConstraint {
	return AxisConstraint{Min: &min, Max: &max, Default: &def}
}

// IsPin reports whether the constraint pins an axis.
func (c AxisConstraint) IsPin() bool {
	return c.Location != nil
}

func (c AxisConstraint) String() string {
	if c.IsPin() {
		return fmt.Sprintf("%g", *c.Location)
	}
	s := "{"
	if c.Min != nil {
		s += fmt.Sprintf("min:%g", *c.Min)
	}
	if c.Max != nil {
		s += fmt.Sprintf(" max:%g", *c.Max)
	}
	if c.Default != nil {
		s += fmt.Sprintf(" default:%g", *c.Default)
	}
	return s + "}"
}

// Request is a subsetting request.
type Request struct {
	Source     []byte       // sfnt font data
	Codepoints unirange.Set // codepoints to retain

	// LayoutFeatures lists the layout features to retain. If nil, every
	// feature is retained; an empty non-nil slice retains none.
	LayoutFeatures        []string
	PreserveNameIDs       []uint16 // name IDs retained in addition to the engine's default
	SuppressLayoutClosure bool
	VariationAxes         map[string]AxisConstraint // by axis tag
}

// clone returns a deep copy, which the pipeline keeps for its lifetime.
func (r Request) clone() Request {
	c := r
	c.Source = slices.Clone(r.Source)
	c.LayoutFeatures = slices.Clone(r.LayoutFeatures)
	c.PreserveNameIDs = slices.Clone(r.PreserveNameIDs)
	c.VariationAxes = maps.Clone(r.VariationAxes)
	return c
}
