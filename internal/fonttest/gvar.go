package fonttest

import (
	"github.com/tdewolff/parse/v2"
)

// Tuple is a tuple variation of a glyph: deltas for each point at a peak
// location in normalized coordinates.
type Tuple struct {
	Peak   []float64
	Points []uint16 // nil for all points, including the 4 phantom points
	DX, DY []int16  // one delta per point
}

// GlyphVariationData encodes the gvar data of one glyph. Every tuple carries an
// embedded peak and private point numbers.
func GlyphVariationData(tuples ...Tuple) []byte {
	var headers, data []byte
	for _, t := range tuples {
		body := parse.NewBinaryWriter([]byte{})
		body.WriteBytes(packPoints(t.Points))
		body.WriteBytes(packDeltas(t.DX))
		body.WriteBytes(packDeltas(t.DY))
		h := parse.NewBinaryWriter([]byte{})
		h.WriteUint16(uint16(body.Len()))
		h.WriteUint16(0x8000 | 0x2000) // EMBEDDED_PEAK_TUPLE, PRIVATE_POINT_NUMBERS
		for _, p := range t.Peak {
			h.WriteInt16(int16(p * 16384))
		}
		headers = append(headers, h.Bytes()...)
		data = append(data, body.Bytes()...)
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(uint16(len(tuples)))
	w.WriteUint16(uint16(4 + len(headers)))
	w.WriteBytes(headers)
	w.WriteBytes(data)
	return w.Bytes()
}

func packPoints(points []uint16) []byte {
	if points == nil {
		return []byte{0}
	}
	w := parse.NewBinaryWriter([]byte{})
	if len(points) < 0x80 {
		w.WriteUint8(uint8(len(points)))
	} else {
		w.WriteUint16(0x8000 | uint16(len(points)))
	}
	var last uint16
	for len(points) > 0 {
		n := min(len(points), 128)
		w.WriteUint8(0x80 | uint8(n-1)) // POINTS_ARE_WORDS
		for _, p := range points[:n] {
			w.WriteUint16(p - last)
			last = p
		}
		points = points[n:]
	}
	return w.Bytes()
}

func packDeltas(deltas []int16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	for len(deltas) > 0 {
		n := min(len(deltas), 64)
		w.WriteUint8(0x40 | uint8(n-1)) // DELTAS_ARE_WORDS
		for _, d := range deltas[:n] {
			w.WriteInt16(d)
		}
		deltas = deltas[n:]
	}
	return w.Bytes()
}
