package otsubset

import (
	"cmp"
	"slices"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

type kernPair struct {
	left, right ot.GlyphIndex
	value       int16
}

// kern subsets an OpenType 'kern' table. Format 0 subtables are kept with
// the pairs of retained glyphs; subtables of other formats are dropped, as
// are Apple style tables. It returns nil if no pair is left.
func (p *plan) kern(b []byte) ([]byte, error) {
	if len(b) < 4 || ot.U16(b, 0) != 0 {
		tracer().Infof("kern: dropping table of unsupported version")
		return nil, nil
	}
	type subtable struct {
		coverage uint16
		pairs    []kernPair
	}
	var subtables []subtable
	count := int(ot.U16(b, 2))
	pos := 4
	for i := 0; i < count && pos+6 <= len(b); i++ {
		length, coverage := int(ot.U16(b, pos+2)), ot.U16(b, pos+4)
		if length < 6 {
			break
		}
		end := min(pos+length, len(b))
		if coverage>>8 == 0 && pos+14 <= end {
			st := subtable{coverage: coverage}
			n := int(ot.U16(b, pos+6))
			for j, at := 0, pos+14; j < n && at+6 <= end; j, at = j+1, at+6 {
				left, right := ot.GlyphIndex(ot.U16(b, at)), ot.GlyphIndex(ot.U16(b, at+2))
				if p.keeps(left) && p.keeps(right) {
					st.pairs = append(st.pairs, kernPair{p.newGID(left), p.newGID(right), int16(ot.U16(b, at+4))})
				}
			}
			if len(st.pairs) > 0 {
				subtables = append(subtables, st)
			}
		}
		pos += length
	}
	if len(subtables) == 0 {
		return nil, nil
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0)
	w.WriteUint16(uint16(len(subtables)))
	for _, st := range subtables {
		slices.SortFunc(st.pairs, func(a, b kernPair) int {
			return cmp.Or(cmp.Compare(a.left, b.left), cmp.Compare(a.right, b.right))
		})
		n := len(st.pairs)
		entrySelector := 0
		for 1<<(entrySelector+1) <= n {
			entrySelector++
		}
		searchRange := 6 << entrySelector
		w.WriteUint16(0)
		w.WriteUint16(uint16(14 + 6*n))
		w.WriteUint16(st.coverage)
		w.WriteUint16(uint16(n))
		w.WriteUint16(uint16(searchRange))
		w.WriteUint16(uint16(entrySelector))
		w.WriteUint16(uint16(6*n - searchRange))
		for _, kp := range st.pairs {
			w.WriteUint16(uint16(kp.left))
			w.WriteUint16(uint16(kp.right))
			w.WriteInt16(kp.value)
		}
	}
	return w.Bytes(), nil
}
