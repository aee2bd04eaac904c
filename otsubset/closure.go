package otsubset

import (
	"github.com/jqpe/font-subset/ot"
)

// glyphSet is a set of glyph indices.
type glyphSet map[ot.GlyphIndex]struct{}

func (gs glyphSet) has(g ot.GlyphIndex) bool {
	_, ok := gs[g]
	return ok
}

// add inserts g and reports whether it was new.
func (gs glyphSet) add(g ot.GlyphIndex) bool {
	if gs.has(g) {
		return false
	}
	gs[g] = struct{}{}
	return true
}

func (gs glyphSet) hasAll(glyphs []ot.GlyphIndex) bool {
	for _, g := range glyphs {
		if !gs.has(g) {
			return false
		}
	}
	return true
}

func (gs glyphSet) intersects(c ot.Coverage) bool {
	for _, g := range c.Glyphs() {
		if gs.has(g) {
			return true
		}
	}
	return false
}

// maxNestingLevel limits the recursion of contextual lookups and of composite
// glyphs.
const maxNestingLevel = 64

// gsubClosure adds all glyphs which the given GSUB lookups may substitute for
// glyphs of the set, until no more glyphs are added.
//
// Contextual lookups are treated conservatively: a nested lookup is applied to
// the whole set as soon as its context may match, regardless of the
// position it applies to.
func gsubClosure(gsub *ot.GSubTable, lookups []uint16, glyphs glyphSet) {
	c := closer{gsub: gsub, glyphs: glyphs}
	for round := 1; ; round++ {
		before := len(glyphs)
		for _, inx := range lookups {
			c.apply(inx, 0)
		}
		if len(glyphs) == before {
			tracer().Debugf("GSUB closure complete after %d rounds, %d glyphs", round, len(glyphs))
			return
		}
	}
}

type closer struct {
	gsub   *ot.GSubTable
	glyphs glyphSet
}

func (c closer) apply(inx uint16, level int) {
	if int(inx) >= len(c.gsub.Lookups) || level > maxNestingLevel {
		return
	}
	for _, st := range c.gsub.Lookups[inx].Subtables {
		switch st := st.(type) {
		case *ot.SingleSubst:
			c.single(st)
		case *ot.SequenceSubst:
			c.sequence(st)
		case *ot.LigatureSubst:
			c.ligature(st)
		case *ot.ContextSubst:
			c.context(st, level)
		case *ot.ReverseChainSubst:
			for i, g := range st.Coverage.Glyphs() {
				if c.glyphs.has(g) && i < len(st.Substitutes) {
					c.glyphs.add(st.Substitutes[i])
				}
			}
		}
	}
}

func (c closer) single(st *ot.SingleSubst) {
	for i, g := range st.Coverage.Glyphs() {
		if !c.glyphs.has(g) {
			continue
		}
		if st.Substitutes == nil {
			c.glyphs.add(ot.GlyphIndex(uint16(int(g) + int(st.Delta))))
		} else if i < len(st.Substitutes) {
			c.glyphs.add(st.Substitutes[i])
		}
	}
}

func (c closer) sequence(st *ot.SequenceSubst) {
	for i, g := range st.Coverage.Glyphs() {
		if c.glyphs.has(g) && i < len(st.Sequences) {
			for _, s := range st.Sequences[i] {
				c.glyphs.add(s)
			}
		}
	}
}

func (c closer) ligature(st *ot.LigatureSubst) {
	for i, g := range st.Coverage.Glyphs() {
		if !c.glyphs.has(g) || i >= len(st.LigatureSets) {
			continue
		}
		for _, lig := range st.LigatureSets[i] {
			if c.glyphs.hasAll(lig.Components) {
				c.glyphs.add(lig.Glyph)
			}
		}
	}
}

func (c closer) context(st *ot.ContextSubst, level int) {
	switch st.Format {
	case 1:
		for i, g := range st.Coverage.Glyphs() {
			if !c.glyphs.has(g) || i >= len(st.Rules) {
				continue
			}
			for _, rule := range st.Rules[i] {
				if c.glyphs.hasAll(rule.Input) && c.glyphs.hasAll(rule.Backtrack) &&
					c.glyphs.hasAll(rule.Lookahead) {
					c.nested(rule.Lookups, level)
				}
			}
		}
	case 2:
		if c.glyphs.intersects(st.Coverage) {
			c.nested(st.Lookups, level)
		}
	case 3:
		for _, cov := range st.InputCoverages {
			if !c.glyphs.intersects(cov) {
				return
			}
		}
		c.nested(st.Lookups, level)
	}
}

func (c closer) nested(records []ot.SequenceLookupRecord, level int) {
	for _, rec := range records {
		c.apply(rec.LookupListIndex, level+1)
	}
}

// compositeClosure adds the components of composite glyphs, recursively.
// References to glyphs beyond numGlyphs are ignored.
func compositeClosure(glyf *ot.GlyfTable, numGlyphs int, glyphs glyphSet) error {
	queue := make([]ot.GlyphIndex, 0, len(glyphs))
	for g := range glyphs {
		queue = append(queue, g)
	}
	for len(queue) > 0 {
		g := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		data, err := glyf.Glyph(g)
		if err != nil {
			return err
		}
		refs, err := ot.Components(data)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if int(ref.Glyph) >= numGlyphs {
				tracer().Infof("glyph %d references missing component %d", g, ref.Glyph)
				continue
			}
			if glyphs.add(ref.Glyph) {
				queue = append(queue, ref.Glyph)
			}
		}
	}
	return nil
}
