package ot

import (
	"fmt"
	"slices"
)

// GSUB lookup types.
const (
	GSubLookupTypeSingle          uint16 = 1
	GSubLookupTypeMultiple        uint16 = 2
	GSubLookupTypeAlternate       uint16 = 3
	GSubLookupTypeLigature        uint16 = 4
	GSubLookupTypeContext         uint16 = 5
	GSubLookupTypeChainingContext uint16 = 6
	GSubLookupTypeExtensionSubs   uint16 = 7
	GSubLookupTypeReverseChaining uint16 = 8
)

// GSubTable is a read-only view of the glyph substitution table, as far as it
// is needed to find all glyphs reachable from a set of input glyphs.
// Script and language system records are not interpreted: every feature of the
// feature list is considered.
type GSubTable struct {
	Features []GSubFeature
	Lookups  []GSubLookup
}

// GSubFeature is a feature record, with the lookups of the feature table and
// of every alternate feature table from the feature variations list.
type GSubFeature struct {
	Tag        Tag
	Lookups    []uint16
	AltLookups []uint16
}

// GSubLookup is a lookup of the lookup list. Extension subtables (type 7)
// are resolved, Type is the type of the wrapped subtables.
type GSubLookup struct {
	Type      uint16
	Flag      uint16
	Subtables []GSubSubtable
}

// GSubSubtable is one of *SingleSubst, *SequenceSubst, *LigatureSubst,
// *ContextSubst and *ReverseChainSubst.
type GSubSubtable interface {
	gsubSubtable()
}

// SingleSubst replaces one glyph by another (lookup type 1).
// Format 1 adds Delta to the glyph index, format 2 has one substitute per
// coverage index.
type SingleSubst struct {
	Coverage    Coverage
	Delta       int16
	Substitutes []GlyphIndex // format 2 only
}

// SequenceSubst replaces one glyph by a sequence of glyphs (lookup type 2) or
// by one of a set of alternates (lookup type 3).
type SequenceSubst struct {
	Coverage  Coverage
	Sequences [][]GlyphIndex // by coverage index
}

// LigatureSubst replaces sequences of glyphs by a single glyph (lookup type 4).
type LigatureSubst struct {
	Coverage     Coverage
	LigatureSets [][]Ligature // by coverage index of the first component
}

// Ligature is a ligature glyph together with its components, not including
// the first component.
type Ligature struct {
	Glyph      GlyphIndex
	Components []GlyphIndex
}

// ContextSubst is a contextual (type 5) or chained contextual (type 6)
// substitution subtable. It does not substitute glyphs itself, but applies
// other lookups.
type ContextSubst struct {
	Format         uint16
	Coverage       Coverage     // formats 1 and 2
	Rules          [][]GlyphRule // format 1, by coverage index
	InputCoverages []Coverage   // format 3, one per input glyph
	Lookups        []SequenceLookupRecord
}

// GlyphRule is a glyph sequence context rule of format 1. Input does not
// include the first glyph.
type GlyphRule struct {
	Backtrack []GlyphIndex
	Input     []GlyphIndex
	Lookahead []GlyphIndex
	Lookups   []SequenceLookupRecord
}

// ReverseChainSubst is a reverse chaining contextual single substitution
// (lookup type 8).
type ReverseChainSubst struct {
	Coverage    Coverage
	Substitutes []GlyphIndex
}

// SequenceLookupRecord identifies a nested lookup to apply at a position
// within a matched input sequence.
type SequenceLookupRecord struct {
	SequenceIndex   uint16
	LookupListIndex uint16
}

func (*SingleSubst) gsubSubtable()       {}
func (*SequenceSubst) gsubSubtable()     {}
func (*LigatureSubst) gsubSubtable()     {}
func (*ContextSubst) gsubSubtable()      {}
func (*ReverseChainSubst) gsubSubtable() {}

// FeatureLookups returns the indices of all lookups referenced by the
// features for which keep returns true, in ascending order.
func (t *GSubTable) FeatureLookups(keep func(Tag) bool) []uint16 {
	var inx []uint16
	for _, f := range t.Features {
		if keep(f.Tag) {
			inx = append(inx, f.Lookups...)
			inx = append(inx, f.AltLookups...)
		}
	}
	slices.Sort(inx)
	return slices.Compact(inx)
}

// --- Coverage --------------------------------------------------------------

// Coverage denotes an indexed set of glyphs.
// Each lookup subtable (except an extension subtable) references a coverage
// table, which specifies all the glyphs affected by the subtable. The index of
// a glyph within the coverage selects the subtable's data for the glyph.
type Coverage struct {
	glyphs []GlyphIndex // ascending, position is the coverage index
}

// Match returns the coverage index for a glyph, and true if present.
func (c Coverage) Match(g GlyphIndex) (int, bool) {
	return slices.BinarySearch(c.glyphs, g)
}

// Contains reports whether a glyph is present in the coverage.
func (c Coverage) Contains(g GlyphIndex) bool {
	_, ok := c.Match(g)
	return ok
}

// Glyphs returns the covered glyphs in coverage index order.
func (c Coverage) Glyphs() []GlyphIndex {
	return c.glyphs
}

// Len returns the number of covered glyphs.
func (c Coverage) Len() int {
	return len(c.glyphs)
}

// --- Parsing ---------------------------------------------------------------

// gsubReader reads from a GSUB table and remembers the first error.
type gsubReader struct {
	b   binarySegm
	err error
}

func (r *gsubReader) u16(at int) uint16 {
	v, err := r.b.u16(at)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("GSUB: offset %d: %w", at, err)
	}
	return v
}

func (r *gsubReader) u32(at int) uint32 {
	v, err := r.b.u32(at)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("GSUB: offset %d: %w", at, err)
	}
	return v
}

// glyphs reads count glyph indices starting at at.
func (r *gsubReader) glyphs(at, count int) []GlyphIndex {
	if count == 0 {
		return nil
	}
	gs := make([]GlyphIndex, count)
	for i := range gs {
		gs[i] = GlyphIndex(r.u16(at + 2*i))
	}
	return gs
}

// offset16 reads a 16 bit offset at at, relative to base.
func (r *gsubReader) offset16(base, at int) int {
	return base + int(r.u16(at))
}

// ParseGSub parses the binary data of table 'GSUB'.
func ParseGSub(b []byte) (*GSubTable, error) {
	r := &gsubReader{b: b}
	major, minor := r.u16(0), r.u16(2)
	if r.err != nil {
		return nil, r.err
	}
	if major != 1 || minor > 1 {
		return nil, fmt.Errorf("GSUB: unsupported version %d.%d", major, minor)
	}
	featureList := int(r.u16(6))
	lookupList := int(r.u16(8))
	t := &GSubTable{}
	//
	// feature list
	n := int(r.u16(featureList))
	for i := 0; i < n && r.err == nil; i++ {
		rec := featureList + 2 + 6*i
		f := GSubFeature{Tag: Tag(r.u32(rec))}
		f.Lookups = r.featureLookups(r.offset16(featureList, rec+4))
		t.Features = append(t.Features, f)
	}
	if minor == 1 {
		if fv := r.u32(10); fv != 0 {
			r.featureVariations(int(fv), t.Features)
		}
	}
	//
	// lookup list
	n = int(r.u16(lookupList))
	for i := 0; i < n && r.err == nil; i++ {
		lookup := r.offset16(lookupList, lookupList+2+2*i)
		t.Lookups = append(t.Lookups, r.lookup(lookup))
	}
	if r.err != nil {
		return nil, r.err
	}
	tracer().Debugf("GSUB has %d features and %d lookups", len(t.Features), len(t.Lookups))
	return t, nil
}

func (r *gsubReader) featureLookups(feature int) []uint16 {
	n := int(r.u16(feature + 2))
	inx := make([]uint16, n)
	for i := range inx {
		inx[i] = r.u16(feature + 4 + 2*i)
	}
	return inx
}

func (r *gsubReader) featureVariations(fv int, features []GSubFeature) {
	n := int(r.u32(fv + 4))
	for i := 0; i < n && r.err == nil; i++ {
		subst := fv + int(r.u32(fv+8+8*i+4))
		if subst == fv {
			continue
		}
		m := int(r.u16(subst + 4))
		for j := 0; j < m && r.err == nil; j++ {
			rec := subst + 6 + 6*j
			inx := int(r.u16(rec))
			alt := subst + int(r.u32(rec+2))
			if inx < len(features) {
				features[inx].AltLookups = append(features[inx].AltLookups, r.featureLookups(alt)...)
			}
		}
	}
}

func (r *gsubReader) lookup(at int) GSubLookup {
	l := GSubLookup{Type: r.u16(at), Flag: r.u16(at + 2)}
	n := int(r.u16(at + 4))
	for i := 0; i < n && r.err == nil; i++ {
		sub := r.offset16(at, at+6+2*i)
		typ := l.Type
		if typ == GSubLookupTypeExtensionSubs {
			typ = r.u16(sub + 2)
			sub += int(r.u32(sub + 4))
			if typ == GSubLookupTypeExtensionSubs {
				r.err = fmt.Errorf("GSUB: extension subtable at %d wraps another extension", sub)
				break
			}
		}
		l.Type = typ
		if st := r.subtable(typ, sub); st != nil {
			l.Subtables = append(l.Subtables, st)
		}
	}
	return l
}

func (r *gsubReader) subtable(typ uint16, at int) GSubSubtable {
	format := r.u16(at)
	switch typ {
	case GSubLookupTypeSingle:
		st := &SingleSubst{Coverage: r.coverage(r.offset16(at, at+2))}
		switch format {
		case 1:
			st.Delta = int16(r.u16(at + 4))
		case 2:
			st.Substitutes = r.glyphs(at+6, int(r.u16(at+4)))
		default:
			return nil
		}
		return st
	case GSubLookupTypeMultiple, GSubLookupTypeAlternate:
		st := &SequenceSubst{Coverage: r.coverage(r.offset16(at, at+2))}
		n := int(r.u16(at + 4))
		for i := 0; i < n && r.err == nil; i++ {
			seq := r.offset16(at, at+6+2*i)
			st.Sequences = append(st.Sequences, r.glyphs(seq+2, int(r.u16(seq))))
		}
		return st
	case GSubLookupTypeLigature:
		st := &LigatureSubst{Coverage: r.coverage(r.offset16(at, at+2))}
		n := int(r.u16(at + 4))
		for i := 0; i < n && r.err == nil; i++ {
			set := r.offset16(at, at+6+2*i)
			m := int(r.u16(set))
			ligs := make([]Ligature, 0, m)
			for j := 0; j < m && r.err == nil; j++ {
				lig := r.offset16(set, set+2+2*j)
				count := int(r.u16(lig + 2))
				ligs = append(ligs, Ligature{
					Glyph:      GlyphIndex(r.u16(lig)),
					Components: r.glyphs(lig+4, max(count-1, 0)),
				})
			}
			st.LigatureSets = append(st.LigatureSets, ligs)
		}
		return st
	case GSubLookupTypeContext:
		return r.context(at, format, false)
	case GSubLookupTypeChainingContext:
		return r.context(at, format, true)
	case GSubLookupTypeReverseChaining:
		st := &ReverseChainSubst{Coverage: r.coverage(r.offset16(at, at+2))}
		pos := at + 4
		pos += 2 + 2*int(r.u16(pos)) // backtrack coverages
		pos += 2 + 2*int(r.u16(pos)) // lookahead coverages
		st.Substitutes = r.glyphs(pos+2, int(r.u16(pos)))
		return st
	}
	tracer().Infof("GSUB: skipping subtable of unknown lookup type %d", typ)
	return nil
}

func (r *gsubReader) context(at int, format uint16, chained bool) GSubSubtable {
	st := &ContextSubst{Format: format}
	switch format {
	case 1:
		st.Coverage = r.coverage(r.offset16(at, at+2))
		n := int(r.u16(at + 4))
		for i := 0; i < n && r.err == nil; i++ {
			var rules []GlyphRule
			if set := r.u16(at + 6 + 2*i); set != 0 {
				rules = r.glyphRuleSet(at+int(set), chained)
			}
			st.Rules = append(st.Rules, rules)
			for _, rule := range rules {
				st.Lookups = append(st.Lookups, rule.Lookups...)
			}
		}
	case 2:
		// class based rules; only the coverage and the nested lookups are kept
		st.Coverage = r.coverage(r.offset16(at, at+2))
		sets, n := at+6, int(r.u16(at+4))
		if chained {
			sets, n = at+12, int(r.u16(at+10))
		}
		for i := 0; i < n && r.err == nil; i++ {
			if set := r.u16(sets + 2*i); set != 0 {
				for _, rule := range r.glyphRuleSet(at+int(set), chained) {
					st.Lookups = append(st.Lookups, rule.Lookups...)
				}
			}
		}
	case 3:
		pos := at + 2
		if chained {
			pos += 2 + 2*int(r.u16(pos)) // backtrack coverages
			n := int(r.u16(pos))
			for i := 0; i < n; i++ {
				st.InputCoverages = append(st.InputCoverages, r.coverage(r.offset16(at, pos+2+2*i)))
			}
			pos += 2 + 2*n
			pos += 2 + 2*int(r.u16(pos)) // lookahead coverages
			st.Lookups = r.lookupRecords(pos+2, int(r.u16(pos)))
		} else {
			n, m := int(r.u16(pos)), int(r.u16(pos+2))
			for i := 0; i < n; i++ {
				st.InputCoverages = append(st.InputCoverages, r.coverage(r.offset16(at, pos+4+2*i)))
			}
			st.Lookups = r.lookupRecords(pos+4+2*n, m)
		}
	default:
		return nil
	}
	return st
}

// glyphRuleSet reads a (chained) sequence rule set. For class based rule
// sets, the glyph fields of the rules hold class values.
func (r *gsubReader) glyphRuleSet(set int, chained bool) []GlyphRule {
	n := int(r.u16(set))
	rules := make([]GlyphRule, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		at := r.offset16(set, set+2+2*i)
		var rule GlyphRule
		if chained {
			pos := at
			rule.Backtrack = r.glyphs(pos+2, int(r.u16(pos)))
			pos += 2 + 2*len(rule.Backtrack)
			inputCount := int(r.u16(pos))
			rule.Input = r.glyphs(pos+2, max(inputCount-1, 0))
			pos += 2 + 2*len(rule.Input)
			rule.Lookahead = r.glyphs(pos+2, int(r.u16(pos)))
			pos += 2 + 2*len(rule.Lookahead)
			rule.Lookups = r.lookupRecords(pos+2, int(r.u16(pos)))
		} else {
			glyphCount, lookupCount := int(r.u16(at)), int(r.u16(at+2))
			rule.Input = r.glyphs(at+4, max(glyphCount-1, 0))
			rule.Lookups = r.lookupRecords(at+4+2*len(rule.Input), lookupCount)
		}
		rules = append(rules, rule)
	}
	return rules
}

func (r *gsubReader) lookupRecords(at, count int) []SequenceLookupRecord {
	recs := make([]SequenceLookupRecord, count)
	for i := range recs {
		recs[i] = SequenceLookupRecord{
			SequenceIndex:   r.u16(at + 4*i),
			LookupListIndex: r.u16(at + 4*i + 2),
		}
	}
	return recs
}

// coverage reads a coverage table of format 1 or 2. Ranges of format 2 are
// expanded into single glyphs.
func (r *gsubReader) coverage(at int) Coverage {
	format, n := r.u16(at), int(r.u16(at+2))
	switch format {
	case 1:
		return Coverage{glyphs: r.glyphs(at+4, n)}
	case 2:
		var gs []GlyphIndex
		for i := 0; i < n && r.err == nil; i++ {
			rec := at + 4 + 6*i
			start, end := GlyphIndex(r.u16(rec)), GlyphIndex(r.u16(rec+2))
			for g := start; g <= end && g >= start; g++ {
				gs = append(gs, g)
			}
		}
		return Coverage{glyphs: gs}
	}
	if r.err == nil {
		r.err = fmt.Errorf("GSUB: unknown coverage format %d at offset %d", format, at)
	}
	return Coverage{}
}
