package otlayout

import (
	"github.com/go-text/typesetting/font/opentype/tables"
)

// singleSubst writes a single substitution (lookup type 1). Format 1 is used
// if all retained substitutions share the same glyph ID delta.
func (s *subsetter) singleSubst(cov tables.Coverage, n int, substitute func(int, tables.GlyphID) tables.GlyphID) []byte {
	var glyphs, subs []tables.GlyphID
	for _, c := range s.coverage(cov, n) {
		if sub, ok := s.m.glyph(substitute(c.index, c.src)); ok {
			glyphs = append(glyphs, c.gid)
			subs = append(subs, sub)
		}
	}
	if len(glyphs) == 0 {
		return nil
	}
	delta := subs[0] - glyphs[0]
	uniform := true
	for i := range glyphs {
		if subs[i]-glyphs[i] != delta {
			uniform = false
			break
		}
	}
	t := newTable()
	if uniform {
		t.u16(1)
		t.offset(coverageTable(glyphs))
		t.i16(int16(delta))
	} else {
		t.u16(2)
		t.offset(coverageTable(glyphs))
		t.sequence(subs)
	}
	return s.pack(t)
}

// multipleSubst writes a multiple substitution (lookup type 2). Sequences
// with glyphs outside the subset are dropped.
func (s *subsetter) multipleSubst(st tables.MultipleSubs) []byte {
	var entries []setEntry
	for _, c := range s.coverage(st.Coverage, len(st.Sequences)) {
		seq, ok := s.m.glyphs(st.Sequences[c.index].SubstituteGlyphIDs)
		if !ok {
			continue
		}
		t := newTable()
		t.sequence(seq)
		entries = append(entries, setEntry{c.gid, s.pack(t)})
	}
	return s.glyphSets(entries)
}

// alternateSubst writes an alternate substitution (lookup type 3) with the
// retained alternates.
func (s *subsetter) alternateSubst(st tables.AlternateSubs) []byte {
	var entries []setEntry
	for _, c := range s.coverage(st.Coverage, len(st.AlternateSets)) {
		var alternates []tables.GlyphID
		for _, g := range st.AlternateSets[c.index].AlternateGlyphIDs {
			if n, ok := s.m.glyph(g); ok {
				alternates = append(alternates, n)
			}
		}
		if len(alternates) == 0 {
			continue
		}
		t := newTable()
		t.sequence(alternates)
		entries = append(entries, setEntry{c.gid, s.pack(t)})
	}
	return s.glyphSets(entries)
}

// ligatureSubst writes a ligature substitution (lookup type 4) with the
// ligatures whose components and result are retained.
func (s *subsetter) ligatureSubst(st tables.LigatureSubs) []byte {
	var entries []setEntry
	for _, c := range s.coverage(st.Coverage, len(st.LigatureSets)) {
		var ligatures [][]byte
		for _, lig := range st.LigatureSets[c.index].Ligatures {
			glyph, ok1 := s.m.glyph(lig.LigatureGlyph)
			components, ok2 := s.m.glyphs(lig.ComponentGlyphIDs)
			if !ok1 || !ok2 {
				continue
			}
			t := newTable()
			t.u16(glyph)
			t.count(len(components) + 1)
			for _, g := range components {
				t.u16(g)
			}
			ligatures = append(ligatures, s.pack(t))
		}
		if len(ligatures) == 0 {
			continue
		}
		set := newTable()
		set.count(len(ligatures))
		for _, l := range ligatures {
			set.offset(l)
		}
		entries = append(entries, setEntry{c.gid, s.pack(set)})
	}
	return s.glyphSets(entries)
}

// glyphSets writes a format 1 subtable of per glyph data.
func (s *subsetter) glyphSets(entries []setEntry) []byte {
	if len(entries) == 0 {
		return nil
	}
	t := newTable()
	t.u16(1)
	t.coverageSets(entries)
	return s.pack(t)
}

// reverseChainSubst writes a reverse chaining contextual single substitution
// (lookup type 8).
func (s *subsetter) reverseChainSubst(st tables.ReverseChainSingleSubs) []byte {
	var glyphs, subs []tables.GlyphID
	for _, c := range s.coverage(st.Cov(), len(st.SubstituteGlyphIDs)) {
		if sub, ok := s.m.glyph(st.SubstituteGlyphIDs[c.index]); ok {
			glyphs = append(glyphs, c.gid)
			subs = append(subs, sub)
		}
	}
	backtrack, ok1 := s.coverages(st.BacktrackCoverages)
	lookahead, ok2 := s.coverages(st.LookaheadCoverages)
	if len(glyphs) == 0 || !ok1 || !ok2 {
		return nil
	}
	t := newTable()
	t.u16(1)
	t.offset(coverageTable(glyphs))
	for _, covs := range [][][]byte{backtrack, lookahead} {
		t.count(len(covs))
		for _, c := range covs {
			t.offset(c)
		}
	}
	t.sequence(subs)
	return s.pack(t)
}
