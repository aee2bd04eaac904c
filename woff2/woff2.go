package woff2

import (
	"encoding/binary"
	"fmt"

	"github.com/tdewolff/font"
)

// Signature is the 4-byte signature 'wOF2' of a WOFF2 file.
const Signature uint32 = 0x774F4632

// Container is the kind of container a font binary comes in.
type Container int8

const (
	Raw        Container = iota // sfnt, not compressed
	Compressed                  // WOFF2
)

func (c Container) String() string {
	if c == Compressed {
		return "woff2"
	}
	return "sfnt"
}

// Detect inspects the first four bytes of b. Input shorter than that is
// considered raw.
func Detect(b []byte) Container {
	if len(b) >= 4 && binary.BigEndian.Uint32(b) == Signature {
		return Compressed
	}
	return Raw
}

// Normalize returns the raw sfnt for a font binary: compressed input is
// decoded, raw input is returned unchanged.
func Normalize(b []byte) ([]byte, error) {
	if Detect(b) == Raw {
		return b, nil
	}
	return Decode(b)
}

// Decode converts a WOFF2 (or WOFF) file to a raw sfnt.
func Decode(b []byte) ([]byte, error) {
	sfnt, err := font.ToSFNT(b)
	if err != nil {
		return nil, &CodecError{Op: "decompress", Err: err}
	}
	tracer().Debugf("decoded %d bytes to sfnt of %d bytes", len(b), len(sfnt))
	return sfnt, nil
}

// CodecError is returned if a font cannot be decompressed or compressed.
type CodecError struct {
	Op  string // "decompress" or "compress"
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("woff2 %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
