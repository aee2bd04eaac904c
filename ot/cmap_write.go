package ot

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// BuildCMap creates a 'cmap' table for a mapping of codepoints to glyphs.
// Codepoints from the BMP are written as a format 4 subtable. If the mapping contains
// supplementary codepoints, an additional format 12 subtable covering all codepoints
// is written. Mappings to glyph 0 are omitted.
func BuildCMap(mapping map[rune]GlyphIndex) []byte {
	runes := make([]rune, 0, len(mapping))
	for r, g := range mapping {
		if g != 0 && r >= 0 && r <= 0x10ffff {
			runes = append(runes, r)
		}
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	supplementary := len(runes) > 0 && runes[len(runes)-1] > 0xffff

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	if !supplementary {
		w.WriteUint16(2)  // numTables
		w.WriteUint16(0)  // platformID Unicode
		w.WriteUint16(3)  // encodingID BMP
		w.WriteUint32(20) // subtableOffset
		w.WriteUint16(3)  // platformID Windows
		w.WriteUint16(1)  // encodingID Unicode BMP
		w.WriteUint32(20) // subtableOffset
		writeCMapFormat4(w, runes, mapping)
		return w.Bytes()
	}
	const recordsEnd = 4 + 4*8
	f4 := parse.NewBinaryWriter([]byte{})
	writeCMapFormat4(f4, runes, mapping)
	f12At := uint32(recordsEnd) + uint32(f4.Len())
	w.WriteUint16(4) // numTables
	w.WriteUint16(0)
	w.WriteUint16(3)
	w.WriteUint32(recordsEnd)
	w.WriteUint16(0)
	w.WriteUint16(4) // Unicode full repertoire
	w.WriteUint32(f12At)
	w.WriteUint16(3)
	w.WriteUint16(1)
	w.WriteUint32(recordsEnd)
	w.WriteUint16(3)
	w.WriteUint16(10) // Windows Unicode full repertoire
	w.WriteUint32(f12At)
	w.WriteBytes(f4.Bytes())
	writeCMapFormat12(w, runes, mapping)
	return w.Bytes()
}

type segment4 struct {
	start, end uint16
	glyphs     []uint16
}

// writeCMapFormat4 writes the BMP part of runes (sorted) as a format 4 subtable.
// Every run of consecutive codepoints becomes a segment; segments with consecutive glyph
// IDs use idDelta, others index into glyphIdArray.
func writeCMapFormat4(w *parse.BinaryWriter, runes []rune, mapping map[rune]GlyphIndex) {
	var segs []segment4
	for _, r := range runes {
		if r >= 0xffff {
			break
		}
		g := uint16(mapping[r])
		if n := len(segs); n > 0 && uint16(r) == segs[n-1].end+1 {
			segs[n-1].end = uint16(r)
			segs[n-1].glyphs = append(segs[n-1].glyphs, g)
			continue
		}
		segs = append(segs, segment4{start: uint16(r), end: uint16(r), glyphs: []uint16{g}})
	}
	segs = append(segs, segment4{start: 0xffff, end: 0xffff, glyphs: []uint16{0}})

	start := w.Len()
	segCount := uint16(len(segs))
	searchRange := uint16(math.Exp2(math.Floor(math.Log2(float64(segCount)))))
	entrySelector := uint16(math.Log2(float64(searchRange)))
	w.WriteUint16(4) // format
	w.WriteUint16(0) // length (set later)
	w.WriteUint16(0) // language
	w.WriteUint16(segCount * 2)
	w.WriteUint16(searchRange * 2)
	w.WriteUint16(entrySelector)
	w.WriteUint16((segCount - searchRange) * 2)
	for _, s := range segs {
		w.WriteUint16(s.end)
	}
	w.WriteUint16(0) // reservedPad
	for _, s := range segs {
		w.WriteUint16(s.start)
	}
	deltas := make([]uint16, len(segs))
	for i, s := range segs {
		if s.start == 0xffff {
			deltas[i] = 1 // maps 0xFFFF to glyph 0
		} else if consecutive(s.glyphs) {
			deltas[i] = s.glyphs[0] - s.start
		}
	}
	for _, d := range deltas {
		w.WriteUint16(d)
	}
	var glyphArray []uint16
	for i, s := range segs {
		if s.start == 0xffff || consecutive(s.glyphs) {
			w.WriteUint16(0)
			continue
		}
		// offset from this idRangeOffset entry to the segment's first glyph in glyphIdArray
		w.WriteUint16(uint16(2 * (len(segs) - i + len(glyphArray))))
		glyphArray = append(glyphArray, s.glyphs...)
	}
	for _, g := range glyphArray {
		w.WriteUint16(g)
	}
	binary.BigEndian.PutUint16(w.Bytes()[start+2:], uint16(w.Len()-start))
}

func consecutive(glyphs []uint16) bool {
	for i := 1; i < len(glyphs); i++ {
		if glyphs[i] != glyphs[i-1]+1 {
			return false
		}
	}
	return true
}

func writeCMapFormat12(w *parse.BinaryWriter, runes []rune, mapping map[rune]GlyphIndex) {
	start := w.Len()
	w.WriteUint16(12) // format
	w.WriteUint16(0)  // reserved
	w.WriteUint32(0)  // length (set later)
	w.WriteUint32(0)  // language
	w.WriteUint32(0)  // numGroups (set later)
	var numGroups uint32
	for i := 0; i < len(runes); {
		first, g := runes[i], uint32(mapping[runes[i]])
		n := 1
		for i+n < len(runes) && runes[i+n] == first+rune(n) && uint32(mapping[runes[i+n]]) == g+uint32(n) {
			n++
		}
		w.WriteUint32(uint32(first))
		w.WriteUint32(uint32(first) + uint32(n) - 1)
		w.WriteUint32(g)
		numGroups++
		i += n
	}
	binary.BigEndian.PutUint32(w.Bytes()[start+4:], uint32(w.Len()-start))
	binary.BigEndian.PutUint32(w.Bytes()[start+12:], numGroups)
}
