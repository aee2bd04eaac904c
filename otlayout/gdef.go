package otlayout

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-text/typesetting/font/opentype/tables"
	"github.com/tdewolff/parse/v2"
)

// SubsetGDEF subsets a glyph definition table: glyph classes, attachment
// points, ligature carets and mark glyph sets. Mark glyph sets keep their
// indices, which are referenced from GSUB and GPOS lookups. An item
// variation store is copied unchanged.
func SubsetGDEF(b []byte, m GlyphMap) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errFontFormat("GDEF", fmt.Sprint(r))
		}
	}()
	gdef, _, err := tables.ParseGDEF(b)
	if err != nil {
		return nil, errFontFormat("GDEF", err.Error())
	}
	minor := min(binary.BigEndian.Uint16(b[2:]), 3)
	var varStore []byte
	if minor >= 3 {
		if at := binary.BigEndian.Uint32(b[14:]); at != 0 && int(at) < len(b) {
			varStore = b[at:]
		}
	}
	s := &subsetter{m: m}
	t := newTable()
	t.u16(1)
	t.u16(minor)
	t.offset(s.classDef(gdef.GlyphClassDef))
	t.offset(s.attachList(gdef.AttachList))
	t.offset(s.ligCaretList(gdef.LigCaretList))
	t.offset(s.classDef(gdef.MarkAttachClass))
	if minor >= 2 {
		t.offset(s.markGlyphSets(gdef.MarkGlyphSetsDef))
	}
	if minor >= 3 {
		t.w.WriteUint32(0) // itemVarStoreOffset
	}
	out = s.pack(t)
	if s.err != nil {
		return nil, errFontFormat("GDEF", s.err.Error())
	}
	if varStore != nil {
		binary.BigEndian.PutUint32(out[14:], uint32(len(out)))
		out = append(out, varStore...)
	}
	return out, nil
}

func (s *subsetter) attachList(al tables.AttachList) []byte {
	if al.Coverage == nil {
		return nil
	}
	var entries []setEntry
	for _, c := range s.coverage(al.Coverage, len(al.AttachPoints)) {
		w := parse.NewBinaryWriter([]byte{})
		points := al.AttachPoints[c.index].PointIndices
		w.WriteUint16(uint16(len(points)))
		for _, p := range points {
			w.WriteUint16(p)
		}
		entries = append(entries, setEntry{c.gid, w.Bytes()})
	}
	if len(entries) == 0 {
		return nil
	}
	t := newTable()
	t.coverageSets(entries)
	return s.pack(t)
}

func (s *subsetter) ligCaretList(lc tables.LigCaretList) []byte {
	if lc.Coverage == nil {
		return nil
	}
	var entries []setEntry
	for _, c := range s.coverage(lc.Coverage, len(lc.LigGlyphs)) {
		carets := lc.LigGlyphs[c.index].CaretValues
		lig := newTable()
		lig.count(len(carets))
		for _, cv := range carets {
			lig.offset(s.caretValue(cv))
		}
		entries = append(entries, setEntry{c.gid, s.pack(lig)})
	}
	if len(entries) == 0 {
		return nil
	}
	t := newTable()
	t.coverageSets(entries)
	return s.pack(t)
}

func (s *subsetter) caretValue(cv tables.CaretValue) []byte {
	t := newTable()
	switch cv := cv.(type) {
	case tables.CaretValue1:
		t.u16(1)
		t.i16(cv.Coordinate)
	case tables.CaretValue2:
		t.u16(2)
		t.u16(cv.CaretValuePointIndex)
	case tables.CaretValue3:
		t.u16(3)
		t.i16(cv.Coordinate)
		t.offset(deviceTable(cv.Device))
	default:
		return nil
	}
	return s.pack(t)
}

// markGlyphSets writes the mark glyph sets, whose coverage tables are
// referenced through 32-bit offsets.
func (s *subsetter) markGlyphSets(ms tables.MarkGlyphSets) []byte {
	if len(ms.Coverages) == 0 {
		return nil
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1) // format
	w.WriteUint16(uint16(len(ms.Coverages)))
	covs := make([][]byte, len(ms.Coverages))
	at := 4 + 4*len(covs)
	for i, c := range ms.Coverages {
		covs[i] = coverageTable(gids(s.coverage(c, math.MaxInt)))
		w.WriteUint32(uint32(at))
		at += len(covs[i])
	}
	for _, c := range covs {
		w.WriteBytes(c)
	}
	return w.Bytes()
}
