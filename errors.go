package fontsubset

import (
	"fmt"

	"github.com/jqpe/font-subset/pipeline"
	"github.com/jqpe/font-subset/unirange"
	"github.com/jqpe/font-subset/woff2"
)

// Error kinds of the packages involved in subsetting, so that clients can
// inspect them with a single import.
type (
	MalformedRangeError      = unirange.MalformedRangeError
	InvalidFontError         = pipeline.InvalidFontError
	OversizedInputError      = pipeline.OversizedInputError
	AxisNotFoundError        = pipeline.AxisNotFoundError
	IncompleteAxisRangeError = pipeline.IncompleteAxisRangeError
	AxisRangeRejectedError   = pipeline.AxisRangeRejectedError
	SubsettingFailedError    = pipeline.SubsettingFailedError
	CodecError               = woff2.CodecError
)

// CompressionFailedError is returned by Process if a subset cannot be
// compressed to WOFF2. The subset itself has been created.
type CompressionFailedError struct {
	Length int // of the raw subset
	Err    error
}

func (e *CompressionFailedError) Error() string {
	return fmt.Sprintf("compression of subset (%d bytes) failed: %v", e.Length, e.Err)
}

func (e *CompressionFailedError) Unwrap() error {
	return e.Err
}
