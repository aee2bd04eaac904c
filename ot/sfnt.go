package ot

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// CheckSumAdjustmentMagic is the value the checksum of a complete font has to sum
// up to, see field checkSumAdjustment of table 'head'.
const CheckSumAdjustmentMagic uint32 = 0xB1B0AFBA

// CalcChecksum calculates the table checksum of b, padding b with zeros to a
// multiple of 4 bytes.
func CalcChecksum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 3
	for i := 0; i < n; i += 4 {
		sum += u32(b[i:])
	}
	if rest := len(b) - n; rest > 0 {
		var last [4]byte
		copy(last[:], b[n:])
		sum += u32(last[:])
	}
	return sum
}

// Assemble creates an sfnt font binary from a set of tables. Table records are
// sorted by tag, every table starts on a 4-byte boundary and the checksum adjustment
// of table 'head' (if present) is recalculated. The input tables are not modified.
func Assemble(fontType uint32, tables map[Tag][]byte) []byte {
	tags := make([]Tag, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	w := parse.NewBinaryWriter([]byte{})
	numTables := uint16(len(tags))
	var entrySelector uint16
	if numTables > 0 {
		entrySelector = uint16(math.Log2(float64(numTables)))
	}
	searchRange := uint16(1 << (entrySelector + 4))
	w.WriteUint32(fontType)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(numTables<<4 - searchRange)

	offset := 12 + 16*uint32(numTables)
	var headAt uint32
	for _, tag := range tags {
		b := tables[tag]
		if tag == T("head") {
			headAt = offset
		}
		w.WriteUint32(uint32(tag))
		w.WriteUint32(tableChecksum(tag, b))
		w.WriteUint32(offset)
		w.WriteUint32(uint32(len(b)))
		offset += pad4(uint32(len(b)))
	}
	for _, tag := range tags {
		b := tables[tag]
		w.WriteBytes(b)
		if p := pad4(uint32(len(b))) - uint32(len(b)); p > 0 {
			w.WriteBytes(make([]byte, p))
		}
	}
	font := w.Bytes()
	if _, ok := tables[T("head")]; ok && int(headAt)+HeadCheckSumAdjustmentOffset+4 <= len(font) {
		at := headAt + HeadCheckSumAdjustmentOffset
		binary.BigEndian.PutUint32(font[at:], 0)
		binary.BigEndian.PutUint32(font[at:], CheckSumAdjustmentMagic-CalcChecksum(font))
	}
	tracer().Debugf("assembled font with %d tables, %d bytes", numTables, len(font))
	return font
}

// tableChecksum is the checksum of a table for its table record. For 'head' the
// field checkSumAdjustment is taken as zero.
func tableChecksum(tag Tag, b []byte) uint32 {
	sum := CalcChecksum(b)
	if tag == T("head") && len(b) >= HeadCheckSumAdjustmentOffset+4 {
		sum -= u32(b[HeadCheckSumAdjustmentOffset:])
	}
	return sum
}

func pad4(n uint32) uint32 {
	return (n + 3) &^ 3
}

// Tables returns the binary data of all tables of the font, indexed by tag.
// The slices are views into the font's data.
func (otf *Font) Tables() map[Tag][]byte {
	m := make(map[Tag][]byte, len(otf.tables))
	for tag, t := range otf.tables {
		m[tag] = t.Binary()
	}
	return m
}
