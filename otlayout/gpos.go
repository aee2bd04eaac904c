package otlayout

import (
	"math"

	"github.com/go-text/typesetting/font/opentype/tables"
)

// singlePos1 writes a single adjustment with one value record for all
// covered glyphs (lookup type 1, format 1).
func (s *subsetter) singlePos1(st tables.SinglePosData1) []byte {
	cov := s.coverage(st.Cov(), math.MaxInt)
	if len(cov) == 0 {
		return nil
	}
	t := newTable()
	t.u16(1)
	t.offset(coverageTable(gids(cov)))
	t.u16(uint16(st.ValueFormat))
	t.valueRecord(st.ValueFormat, st.ValueRecord)
	return s.pack(t)
}

// singlePos2 writes a single adjustment with a value record per glyph
// (lookup type 1, format 2).
func (s *subsetter) singlePos2(st tables.SinglePosData2) []byte {
	cov := s.coverage(st.Cov(), len(st.ValueRecords))
	if len(cov) == 0 {
		return nil
	}
	t := newTable()
	t.u16(2)
	t.offset(coverageTable(gids(cov)))
	t.u16(uint16(st.ValueFormat))
	t.count(len(cov))
	for _, c := range cov {
		t.valueRecord(st.ValueFormat, st.ValueRecords[c.index])
	}
	return s.pack(t)
}

// pairPos1 writes a pair adjustment for glyph pairs (lookup type 2,
// format 1). Pairs are kept if both glyphs are retained.
func (s *subsetter) pairPos1(st tables.PairPosData1) []byte {
	var entries []setEntry
	for _, c := range s.coverage(st.Cov(), len(st.PairSets)) {
		set := st.PairSets[c.index]
		var pairs []tables.PairValueRecord
		for _, m := range s.m.order {
			if rec, ok := set.FindGlyph(m.src); ok {
				rec.SecondGlyph = m.dst
				pairs = append(pairs, rec)
			}
		}
		if len(pairs) == 0 {
			continue
		}
		t := newTable()
		t.count(len(pairs))
		for _, p := range pairs {
			t.u16(p.SecondGlyph)
			t.valueRecord(st.ValueFormat1, p.ValueRecord1)
			t.valueRecord(st.ValueFormat2, p.ValueRecord2)
		}
		entries = append(entries, setEntry{c.gid, s.pack(t)})
	}
	if len(entries) == 0 {
		return nil
	}
	t := newTable()
	t.u16(1)
	t.offset(coverageTable(entryGlyphs(entries)))
	t.u16(uint16(st.ValueFormat1))
	t.u16(uint16(st.ValueFormat2))
	t.count(len(entries))
	for _, e := range entries {
		t.offset(e.data)
	}
	return s.pack(t)
}

// pairPos2 writes a pair adjustment for glyph classes (lookup type 2,
// format 2). Classes keep their numbers, so the class matrix is copied.
func (s *subsetter) pairPos2(st tables.PairPosData2) []byte {
	cov := s.coverage(st.Cov(), math.MaxInt)
	if len(cov) == 0 {
		return nil
	}
	class1Count, class2Count := classExtent(st.ClassDef1), classExtent(st.ClassDef2)
	t := newTable()
	t.u16(2)
	t.offset(coverageTable(gids(cov)))
	t.u16(uint16(st.ValueFormat1))
	t.u16(uint16(st.ValueFormat2))
	t.offset(s.classDef(st.ClassDef1))
	t.offset(s.classDef(st.ClassDef2))
	t.count(class1Count)
	t.count(class2Count)
	for c1 := 0; c1 < class1Count; c1++ {
		for c2 := 0; c2 < class2Count; c2++ {
			rec := st.Record(uint16(c1), uint16(c2))
			t.valueRecord(st.ValueFormat1, rec.ValueRecord1)
			t.valueRecord(st.ValueFormat2, rec.ValueRecord2)
		}
	}
	return s.pack(t)
}

// cursivePos writes a cursive attachment (lookup type 3).
func (s *subsetter) cursivePos(st tables.CursivePos) []byte {
	cov := s.coverage(st.Cov(), len(st.EntryExits))
	if len(cov) == 0 {
		return nil
	}
	t := newTable()
	t.u16(1)
	t.offset(coverageTable(gids(cov)))
	t.count(len(cov))
	for _, c := range cov {
		t.offset(s.anchor(st.EntryExits[c.index].EntryAnchor))
		t.offset(s.anchor(st.EntryExits[c.index].ExitAnchor))
	}
	return s.pack(t)
}

// markBasePos writes a mark-to-base attachment (lookup type 4).
func (s *subsetter) markBasePos(st tables.MarkBasePos) []byte {
	anchors := st.BaseArray.Anchors()
	marks := s.coverage(st.Cov(), len(st.MarkArray.MarkRecords))
	bases := s.coverage(st.BaseCoverage, anchors.Len())
	if len(marks) == 0 || len(bases) == 0 {
		return nil
	}
	classes := markClassCount(st.MarkArray)
	t := newTable()
	t.u16(1)
	t.offset(coverageTable(gids(marks)))
	t.offset(coverageTable(gids(bases)))
	t.count(classes)
	t.offset(s.markArray(st.MarkArray, marks))
	t.offset(s.anchorMatrix(anchors, indices(bases), classes))
	return s.pack(t)
}

// markLigPos writes a mark-to-ligature attachment (lookup type 5).
func (s *subsetter) markLigPos(st tables.MarkLigPos) []byte {
	attachs := st.LigatureArray.LigatureAttachs
	marks := s.coverage(st.MarkCoverage, len(st.MarkArray.MarkRecords))
	ligatures := s.coverage(st.LigatureCoverage, len(attachs))
	if len(marks) == 0 || len(ligatures) == 0 {
		return nil
	}
	classes := int(st.MarkClassCount)
	array := newTable()
	array.count(len(ligatures))
	for _, c := range ligatures {
		anchors := attachs[c.index].Anchors()
		components := make([]int, anchors.Len())
		for i := range components {
			components[i] = i
		}
		array.offset(s.anchorMatrix(anchors, components, classes))
	}
	t := newTable()
	t.u16(1)
	t.offset(coverageTable(gids(marks)))
	t.offset(coverageTable(gids(ligatures)))
	t.count(classes)
	t.offset(s.markArray(st.MarkArray, marks))
	t.offset(s.pack(array))
	return s.pack(t)
}

// markMarkPos writes a mark-to-mark attachment (lookup type 6).
func (s *subsetter) markMarkPos(st tables.MarkMarkPos) []byte {
	anchors := st.Mark2Array.Anchors()
	marks1 := s.coverage(st.Mark1Coverage, len(st.Mark1Array.MarkRecords))
	marks2 := s.coverage(st.Mark2Coverage, anchors.Len())
	if len(marks1) == 0 || len(marks2) == 0 {
		return nil
	}
	classes := int(st.MarkClassCount)
	t := newTable()
	t.u16(1)
	t.offset(coverageTable(gids(marks1)))
	t.offset(coverageTable(gids(marks2)))
	t.count(classes)
	t.offset(s.markArray(st.Mark1Array, marks1))
	t.offset(s.anchorMatrix(anchors, indices(marks2), classes))
	return s.pack(t)
}

// markClassCount is the number of mark classes used by a mark array.
func markClassCount(ma tables.MarkArray) int {
	n := 0
	for _, rec := range ma.MarkRecords {
		n = max(n, int(rec.MarkClass)+1)
	}
	return n
}

func (s *subsetter) markArray(ma tables.MarkArray, marks []covered) []byte {
	t := newTable()
	t.count(len(marks))
	for _, c := range marks {
		t.u16(ma.MarkRecords[c.index].MarkClass)
		var a tables.Anchor
		if c.index < len(ma.MarkAnchors) {
			a = ma.MarkAnchors[c.index]
		}
		t.offset(s.anchor(a))
	}
	return s.pack(t)
}

// anchorMatrix writes the given rows of an anchor matrix, with one anchor
// per mark class.
func (s *subsetter) anchorMatrix(am tables.AnchorMatrix, rows []int, classes int) []byte {
	t := newTable()
	t.count(len(rows))
	for _, r := range rows {
		for c := 0; c < classes; c++ {
			t.offset(s.anchor(am.Anchor(r, c)))
		}
	}
	return s.pack(t)
}

func indices(cs []covered) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.index
	}
	return out
}
