package woff2

import (
	"errors"
)

var (
	errBase128LeadingZero = errors.New("UIntBase128 with leading zeros")
	errBase128Overflow    = errors.New("UIntBase128 exceeds 32 bits")
	errBase128Truncated   = errors.New("UIntBase128 truncated")
)

// readUIntBase128 decodes a variable length UIntBase128 number from the start
// of b. It returns the value and the number of bytes read.
func readUIntBase128(b []byte) (uint32, int, error) {
	var accum uint32
	for i := 0; i < 5; i++ {
		if i >= len(b) {
			return 0, 0, errBase128Truncated
		}
		c := b[i]
		if i == 0 && c == 0x80 {
			return 0, 0, errBase128LeadingZero
		}
		if accum&0xFE000000 != 0 {
			return 0, 0, errBase128Overflow
		}
		accum = accum<<7 | uint32(c&0x7F)
		if c&0x80 == 0 {
			return accum, i + 1, nil
		}
	}
	return 0, 0, errBase128Overflow
}

// base128Size returns the number of bytes needed to encode v as UIntBase128.
func base128Size(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// appendUIntBase128 appends the UIntBase128 encoding of v to b.
func appendUIntBase128(b []byte, v uint32) []byte {
	n := base128Size(v)
	for i := n - 1; i >= 0; i-- {
		c := byte(v>>(7*i)) & 0x7F
		if i > 0 {
			c |= 0x80
		}
		b = append(b, c)
	}
	return b
}
