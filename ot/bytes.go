package ot

import (
	"errors"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])
}

func u32(b []byte) uint32 {
	_ = b[3] // bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// U16 reads a big endian uint16 at offset i of b, or 0 if b is too short.
// Exported for the table rewriters of the subsetting engine.
func U16(b []byte, i int) uint16 {
	if i < 0 || i+2 > len(b) {
		return 0
	}
	return u16(b[i:])
}

// U32 reads a big endian uint32 at offset i of b, or 0 if b is too short.
func U32(b []byte, i int) uint32 {
	if i < 0 || i+4 > len(b) {
		return 0
	}
	return u32(b[i:])
}

// Fixed converts a 16.16 fixed point number to float64.
func Fixed(v uint32) float64 {
	return float64(int32(v)) / 65536.0
}

// ToFixed converts a float to a 16.16 fixed point number, rounding to the nearest
// representable value.
func ToFixed(f float64) uint32 {
	if f < 0 {
		return uint32(int32(f*65536.0 - 0.5))
	}
	return uint32(int32(f*65536.0 + 0.5))
}

// binarySegm is a segment of byte data. We use it throughout this package to
// navigate the font's binary data.
type binarySegm []byte

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// i16 returns the int16 in b at the relative offset i, 0 if out of bounds.
func (b binarySegm) i16(i int) int16 {
	n, _ := b.u16(i)
	return int16(n)
}

// U16 is like u16, but returns 0 on bounds errors.
func (b binarySegm) U16(i int) uint16 {
	n, _ := b.u16(i)
	return n
}

// U32 is like u32, but returns 0 on bounds errors.
func (b binarySegm) U32(i int) uint32 {
	n, _ := b.u32(i)
	return n
}
