package pipeline

import (
	"fmt"
	"math"
)

// OversizedInputError is returned if a font does not fit into engine memory.
type OversizedInputError struct {
	Length int // bytes
	Limit  int // bytes addressable by the engine
}

func (e *OversizedInputError) Error() string {
	return fmt.Sprintf("font of %d bytes exceeds engine memory of %d bytes", e.Length, e.Limit)
}

// InvalidFontError is returned if the engine does not accept the font data.
type InvalidFontError struct {
	Length int
}

func (e *InvalidFontError) Error() string {
	return fmt.Sprintf("invalid font data (%d bytes)", e.Length)
}

// AxisNotFoundError is returned if a variation axis cannot be pinned,
// usually because the font has no such axis.
type AxisNotFoundError struct {
	Tag   string
	Value float64
}

func (e *AxisNotFoundError) Error() string {
	return fmt.Sprintf("cannot pin axis %q at %g: axis not found", e.Tag, e.Value)
}

// IncompleteAxisRangeError is returned for an axis range without minimum
// or maximum.
type IncompleteAxisRangeError struct {
	Tag string
}

func (e *IncompleteAxisRangeError) Error() string {
	return fmt.Sprintf("range of axis %q needs both min and max", e.Tag)
}

// AxisRangeRejectedError is returned if the engine does not accept an axis
// range. Default is NaN if the request did not name a default.
type AxisRangeRejectedError struct {
	Tag      string
	Min, Max float64
	Default  float64
}

func (e *AxisRangeRejectedError) Error() string {
	if math.IsNaN(e.Default) {
		return fmt.Sprintf("cannot restrict axis %q to [%g, %g]", e.Tag, e.Min, e.Max)
	}
	return fmt.Sprintf("cannot restrict axis %q to [%g, %g] with default %g", e.Tag, e.Min, e.Max, e.Default)
}

// SubsettingFailedError is returned if the engine does not produce a subset.
type SubsettingFailedError struct {
	Reason string
}

func (e *SubsettingFailedError) Error() string {
	return fmt.Sprintf("subsetting failed: %s, maybe the input file is corrupted", e.Reason)
}
