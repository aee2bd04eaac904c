package otlayout

import (
	"math"

	"github.com/go-text/typesetting/font/opentype/tables"
)

// Contextual lookups of GSUB (types 5, 6) and GPOS (types 7, 8) share their
// binary format. GPOS subtables arrive here converted to the GSUB types.

// nestedLookups returns the lookup records of the contextual rules of a
// subtable.
func nestedLookups(st any) []tables.SequenceLookupRecord {
	var recs []tables.SequenceLookupRecord
	rules := func(sets []tables.SequenceRuleSet) {
		for _, set := range sets {
			for _, rule := range set.SeqRule {
				recs = append(recs, rule.SeqLookupRecords...)
			}
		}
	}
	chainedRules := func(sets []tables.ChainedSequenceRuleSet) {
		for _, set := range sets {
			for _, rule := range set.ChainedSeqRules {
				recs = append(recs, rule.SeqLookupRecords...)
			}
		}
	}
	switch st := st.(type) {
	case tables.ContextualSubs1:
		rules(st.SeqRuleSet)
	case tables.ContextualSubs2:
		rules(st.ClassSeqRuleSet)
	case tables.ContextualSubs3:
		recs = st.SeqLookupRecords
	case tables.ChainedContextualSubs1:
		chainedRules(st.ChainedSeqRuleSet)
	case tables.ChainedContextualSubs2:
		chainedRules(st.ChainedClassSeqRuleSet)
	case tables.ChainedContextualSubs3:
		recs = st.SeqLookupRecords
	}
	return recs
}

// seqLookups renumbers the lookups of lookup records.
func (s *subsetter) seqLookups(recs []tables.SequenceLookupRecord) []tables.SequenceLookupRecord {
	out := make([]tables.SequenceLookupRecord, 0, len(recs))
	for _, rec := range recs {
		if n, ok := s.lookups[rec.LookupListIndex]; ok {
			out = append(out, tables.SequenceLookupRecord{SequenceIndex: rec.SequenceIndex, LookupListIndex: n})
		}
	}
	return out
}

func (t *table) seqLookups(recs []tables.SequenceLookupRecord) {
	for _, rec := range recs {
		t.u16(rec.SequenceIndex)
		t.u16(rec.LookupListIndex)
	}
}

func (t *table) sequence(gs []tables.GlyphID) {
	t.count(len(gs))
	for _, g := range gs {
		t.u16(g)
	}
}

// ruleSet writes the rules of a rule set. Glyph based rules are left out if
// any of their glyphs is not retained, class based rules are kept as they
// are. It returns nil for an empty set.
func (s *subsetter) ruleSet(set tables.SequenceRuleSet, glyphs bool) []byte {
	t := newTable()
	var rules [][]byte
	for _, rule := range set.SeqRule {
		input := rule.InputSequence
		if glyphs {
			var ok bool
			if input, ok = s.m.glyphs(input); !ok {
				continue
			}
		}
		recs := s.seqLookups(rule.SeqLookupRecords)
		r := newTable()
		r.count(len(input) + 1)
		r.count(len(recs))
		for _, g := range input {
			r.u16(g)
		}
		r.seqLookups(recs)
		rules = append(rules, s.pack(r))
	}
	if len(rules) == 0 {
		return nil
	}
	t.count(len(rules))
	for _, r := range rules {
		t.offset(r)
	}
	return s.pack(t)
}

// chainedRuleSet is ruleSet for chained contextual rules.
func (s *subsetter) chainedRuleSet(set tables.ChainedSequenceRuleSet, glyphs bool) []byte {
	t := newTable()
	var rules [][]byte
	for _, rule := range set.ChainedSeqRules {
		backtrack, input, lookahead := rule.BacktrackSequence, rule.InputSequence, rule.LookaheadSequence
		if glyphs {
			var ok1, ok2, ok3 bool
			backtrack, ok1 = s.m.glyphs(backtrack)
			input, ok2 = s.m.glyphs(input)
			lookahead, ok3 = s.m.glyphs(lookahead)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
		}
		recs := s.seqLookups(rule.SeqLookupRecords)
		r := newTable()
		r.sequence(backtrack)
		r.count(len(input) + 1)
		for _, g := range input {
			r.u16(g)
		}
		r.sequence(lookahead)
		r.count(len(recs))
		r.seqLookups(recs)
		rules = append(rules, s.pack(r))
	}
	if len(rules) == 0 {
		return nil
	}
	t.count(len(rules))
	for _, r := range rules {
		t.offset(r)
	}
	return s.pack(t)
}

// setEntry is a retained glyph of a coverage table with the data it selects.
type setEntry struct {
	gid  tables.GlyphID
	data []byte
}

func entryGlyphs(entries []setEntry) []tables.GlyphID {
	out := make([]tables.GlyphID, len(entries))
	for i, e := range entries {
		out[i] = e.gid
	}
	return out
}

// coverageSets writes a coverage table followed by the count and offsets of
// the per glyph data, the layout shared by many subtable formats.
func (t *table) coverageSets(entries []setEntry) {
	t.offset(coverageTable(entryGlyphs(entries)))
	t.count(len(entries))
	for _, e := range entries {
		t.offset(e.data)
	}
}

func (s *subsetter) context1(st tables.ContextualSubs1) []byte {
	var entries []setEntry
	for _, c := range s.coverage(st.Cov(), len(st.SeqRuleSet)) {
		if set := s.ruleSet(st.SeqRuleSet[c.index], true); set != nil {
			entries = append(entries, setEntry{c.gid, set})
		}
	}
	if len(entries) == 0 {
		return nil
	}
	t := newTable()
	t.u16(1)
	t.coverageSets(entries)
	return s.pack(t)
}

func (s *subsetter) context2(st tables.ContextualSubs2) []byte {
	cov := s.coverage(st.Cov(), math.MaxInt)
	if len(cov) == 0 {
		return nil
	}
	t := newTable()
	t.u16(2)
	t.offset(coverageTable(gids(cov)))
	t.offset(s.classDef(st.ClassDef))
	t.count(len(st.ClassSeqRuleSet))
	for _, set := range st.ClassSeqRuleSet {
		t.offset(s.ruleSet(set, false))
	}
	return s.pack(t)
}

func (s *subsetter) context3(st tables.ContextualSubs3) []byte {
	covs, ok := s.coverages(st.Coverages)
	if !ok || len(covs) == 0 {
		return nil
	}
	recs := s.seqLookups(st.SeqLookupRecords)
	t := newTable()
	t.u16(3)
	t.count(len(covs))
	t.count(len(recs))
	for _, c := range covs {
		t.offset(c)
	}
	t.seqLookups(recs)
	return s.pack(t)
}

func (s *subsetter) chainedContext1(st tables.ChainedContextualSubs1) []byte {
	var entries []setEntry
	for _, c := range s.coverage(st.Cov(), len(st.ChainedSeqRuleSet)) {
		if set := s.chainedRuleSet(st.ChainedSeqRuleSet[c.index], true); set != nil {
			entries = append(entries, setEntry{c.gid, set})
		}
	}
	if len(entries) == 0 {
		return nil
	}
	t := newTable()
	t.u16(1)
	t.coverageSets(entries)
	return s.pack(t)
}

func (s *subsetter) chainedContext2(st tables.ChainedContextualSubs2) []byte {
	cov := s.coverage(st.Cov(), math.MaxInt)
	if len(cov) == 0 {
		return nil
	}
	t := newTable()
	t.u16(2)
	t.offset(coverageTable(gids(cov)))
	t.offset(s.classDef(st.BacktrackClassDef))
	t.offset(s.classDef(st.InputClassDef))
	t.offset(s.classDef(st.LookaheadClassDef))
	t.count(len(st.ChainedClassSeqRuleSet))
	for _, set := range st.ChainedClassSeqRuleSet {
		t.offset(s.chainedRuleSet(set, false))
	}
	return s.pack(t)
}

func (s *subsetter) chainedContext3(st tables.ChainedContextualSubs3) []byte {
	backtrack, ok1 := s.coverages(st.BacktrackCoverages)
	input, ok2 := s.coverages(st.InputCoverages)
	lookahead, ok3 := s.coverages(st.LookaheadCoverages)
	if !ok1 || !ok2 || !ok3 || len(input) == 0 {
		return nil
	}
	recs := s.seqLookups(st.SeqLookupRecords)
	t := newTable()
	t.u16(3)
	for _, covs := range [][][]byte{backtrack, input, lookahead} {
		t.count(len(covs))
		for _, c := range covs {
			t.offset(c)
		}
	}
	t.count(len(recs))
	t.seqLookups(recs)
	return s.pack(t)
}
