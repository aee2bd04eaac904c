package otsubset

import (
	"fmt"
	"slices"

	"github.com/jqpe/font-subset/ot"
)

// plan holds everything decided before tables are written: the glyphs to
// keep, their new IDs and the variation instancer.
type plan struct {
	otf   *ot.Font
	flags Flags

	unicodes map[rune]ot.GlyphIndex // retained codepoints, old glyph IDs
	glyphs   glyphSet               // closure, old glyph IDs
	order    []ot.GlyphIndex        // old glyph ID for each new glyph ID
	gidMap   map[ot.GlyphIndex]ot.GlyphIndex
	retain   bool // glyph IDs are retained

	features   func(ot.Tag) bool
	featureSet *set
	nameIDs    *set
	nameLangs  *set
	drop       *set
	noSubset   *set

	inst      *instancer
	instanced map[ot.GlyphIndex]*instancedGlyph // nil unless instancing
}

// newPlan computes the glyph closure and the glyph mapping of a subset.
func (e *Engine) newPlan(otf *ot.Font, in *input) (*plan, error) {
	p := &plan{
		otf:       otf,
		flags:     in.flags,
		unicodes:  make(map[rune]ot.GlyphIndex),
		glyphs:    glyphSet{0: {}},
		nameIDs:   e.inputSet(in, SetsNameID),
		nameLangs: e.inputSet(in, SetsNameLangID),
		drop:      e.inputSet(in, SetsDropTableTag),
		noSubset:  e.inputSet(in, SetsNoSubsetTableTag),
	}
	p.featureSet = e.inputSet(in, SetsLayoutFeatureTag)
	p.features = func(tag ot.Tag) bool { return p.featureSet.has(uint32(tag)) }
	numGlyphs := otf.NumGlyphs()
	if numGlyphs == 0 {
		return nil, fmt.Errorf("font has no glyphs")
	}

	unicodes := e.inputSet(in, SetsUnicode)
	for r, g := range otf.CMap.Mappings() {
		if g != 0 && int(g) < numGlyphs && unicodes.has(uint32(r)) {
			p.unicodes[r] = g
			p.glyphs.add(g)
		}
	}
	gids := e.inputSet(in, SetsGlyphIndex)
	if gids.inverted {
		for g := 0; g < numGlyphs; g++ {
			p.glyphs.add(ot.GlyphIndex(g))
		}
	} else {
		for _, g := range gids.values() {
			if int(g) < numGlyphs {
				p.glyphs.add(ot.GlyphIndex(g))
			}
		}
	}
	tracer().Debugf("%d codepoints map to %d glyphs", len(p.unicodes), len(p.glyphs))

	layout := p.keepsLayout()
	if layout && p.flags&FlagNoLayoutClosure == 0 && !p.drop.has(uint32(ot.T("GSUB"))) {
		if t := otf.Table(ot.T("GSUB")); t != nil {
			gsub, err := ot.ParseGSub(t.Binary())
			if err != nil {
				tracer().Infof("GSUB not usable for closure: %v", err)
			} else {
				gsubClosure(gsub, gsub.FeatureLookups(p.features), p.glyphs)
			}
		}
	}
	for g := range p.glyphs {
		if int(g) >= numGlyphs {
			delete(p.glyphs, g)
		}
	}
	if glyf := otf.Glyf(); glyf != nil {
		if err := compositeClosure(glyf, numGlyphs, p.glyphs); err != nil {
			return nil, fmt.Errorf("composite glyphs: %w", err)
		}
	}

	p.retain = p.flags&FlagRetainGIDs != 0 || otf.IsCFF()
	p.mapGlyphs()
	tracer().Infof("subset keeps %d of %d glyphs, %d glyph IDs (retained: %v)",
		len(p.glyphs), numGlyphs, len(p.order), p.retain)

	inst, err := newInstancer(otf, in.axes)
	if err != nil {
		return nil, err
	}
	if inst != nil {
		p.inst = inst
		if p.instanced, err = inst.instanceGlyphs(otf, p.glyphs); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// keepsLayout reports whether OpenType layout tables are written to the
// subset. This is the case if the font has any and at least one layout
// feature is retained.
func (p *plan) keepsLayout() bool {
	if p.featureSet.isEmpty() {
		return false
	}
	for _, tag := range []string{"GSUB", "GPOS", "GDEF"} {
		t := ot.T(tag)
		if p.otf.HasTable(t) && !p.drop.has(uint32(t)) {
			return true
		}
	}
	return false
}

// mapGlyphs assigns new glyph IDs. Compacted IDs follow the order of the old
// ones.
func (p *plan) mapGlyphs() {
	old := make([]ot.GlyphIndex, 0, len(p.glyphs))
	for g := range p.glyphs {
		old = append(old, g)
	}
	slices.Sort(old)
	p.gidMap = make(map[ot.GlyphIndex]ot.GlyphIndex, len(old))
	if p.retain {
		last := old[len(old)-1]
		if p.otf.IsCFF() {
			// charstrings are copied unchanged
			last = ot.GlyphIndex(p.otf.NumGlyphs() - 1)
		}
		p.order = make([]ot.GlyphIndex, int(last)+1)
		for g := range p.order {
			p.order[g] = ot.GlyphIndex(g)
		}
		for _, g := range old {
			p.gidMap[g] = g
		}
		return
	}
	p.order = old
	for n, g := range old {
		p.gidMap[g] = ot.GlyphIndex(n)
	}
}

// newGID maps an old glyph ID to its new ID. Glyphs outside the subset map
// to .notdef.
func (p *plan) newGID(g ot.GlyphIndex) ot.GlyphIndex {
	return p.gidMap[g]
}

// keeps reports whether an old glyph ID is part of the subset.
func (p *plan) keeps(g ot.GlyphIndex) bool {
	return p.glyphs.has(g)
}

// emptied reports whether the outline of an old glyph is left empty in the
// subset.
func (p *plan) emptied(g ot.GlyphIndex) bool {
	return !p.keeps(g) || (g == 0 && p.flags&FlagNotdefOutline == 0)
}

// newCMap returns the retained codepoints with new glyph IDs.
func (p *plan) newCMap() map[rune]ot.GlyphIndex {
	m := make(map[rune]ot.GlyphIndex, len(p.unicodes))
	for r, g := range p.unicodes {
		m[r] = p.newGID(g)
	}
	return m
}

func (p *plan) hinting() bool {
	return p.flags&FlagNoHinting == 0
}
