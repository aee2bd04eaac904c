package ot_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

func TestParseGSubSynthetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	otf, err := ot.Parse(fonttest.Font())
	test.Error(t, err)
	gsub, err := ot.ParseGSub(otf.Table(ot.T("GSUB")).Binary())
	test.Error(t, err)
	test.T(t, len(gsub.Features), 2)
	test.T(t, gsub.Features[0].Tag, ot.T("liga"))
	test.T(t, gsub.Features[1].Tag, ot.T("salt"))
	test.T(t, len(gsub.Lookups), 2)

	liga := gsub.Lookups[0]
	test.T(t, liga.Type, ot.GSubLookupTypeLigature)
	lig, ok := liga.Subtables[0].(*ot.LigatureSubst)
	test.That(t, ok, "expected ligature subtable")
	inx, ok := lig.Coverage.Match(ot.GlyphIndex(fonttest.F))
	test.That(t, ok, "f should be covered")
	want := []ot.Ligature{{Glyph: ot.GlyphIndex(fonttest.FI), Components: []ot.GlyphIndex{ot.GlyphIndex(fonttest.I)}}}
	if diff := cmp.Diff(want, lig.LigatureSets[inx]); diff != "" {
		t.Errorf("ligature set mismatch (-want +got):\n%s", diff)
	}

	salt := gsub.Lookups[1]
	single, ok := salt.Subtables[0].(*ot.SingleSubst)
	test.That(t, ok, "expected single substitution subtable")
	test.T(t, single.Coverage.Glyphs(), []ot.GlyphIndex{ot.GlyphIndex(fonttest.A)})
	test.T(t, single.Substitutes, []ot.GlyphIndex{ot.GlyphIndex(fonttest.ASalt)})

	onlyLiga := gsub.FeatureLookups(func(tag ot.Tag) bool { return tag == ot.T("liga") })
	test.T(t, onlyLiga, []uint16{0})
	all := gsub.FeatureLookups(func(ot.Tag) bool { return true })
	test.T(t, all, []uint16{0, 1})
}

// chainedGSub builds a GSUB table with feature 'calt' referencing a chained
// context lookup of format 3, which in turn applies an extension lookup
// wrapping a single substitution of format 1.
func chainedGSub() []byte {
	w := parse.NewBinaryWriter([]byte{})
	// header
	w.WriteUint16(1)
	w.WriteUint16(0)
	w.WriteUint16(10) // scriptList
	w.WriteUint16(12) // featureList
	w.WriteUint16(26) // lookupList
	// script list (10)
	w.WriteUint16(0)
	// feature list (12)
	w.WriteUint16(1)
	w.WriteUint32(uint32(ot.T("calt")))
	w.WriteUint16(8)
	w.WriteUint16(0) // featureParams
	w.WriteUint16(1)
	w.WriteUint16(0)
	// lookup list (26)
	w.WriteUint16(2)
	w.WriteUint16(6)
	w.WriteUint16(40)
	// lookup 0 (32): chained context, format 3
	w.WriteUint16(6)
	w.WriteUint16(0)
	w.WriteUint16(1)
	w.WriteUint16(8)
	// subtable (40)
	w.WriteUint16(3)
	w.WriteUint16(0)  // backtrack count
	w.WriteUint16(1)  // input count
	w.WriteUint16(16) // input coverage
	w.WriteUint16(0)  // lookahead count
	w.WriteUint16(1)  // seqLookupCount
	w.WriteUint16(0)  // sequenceIndex
	w.WriteUint16(1)  // lookupListIndex
	// coverage format 2 (56)
	w.WriteUint16(2)
	w.WriteUint16(1)
	w.WriteUint16(2)
	w.WriteUint16(4)
	w.WriteUint16(0)
	// lookup 1 (66): extension
	w.WriteUint16(7)
	w.WriteUint16(0)
	w.WriteUint16(1)
	w.WriteUint16(8)
	// extension subtable (74)
	w.WriteUint16(1)
	w.WriteUint16(1)
	w.WriteUint32(8)
	// single substitution (82)
	w.WriteUint16(1)
	w.WriteUint16(6)
	w.WriteInt16(11)
	// coverage format 1 (88)
	w.WriteUint16(1)
	w.WriteUint16(1)
	w.WriteUint16(3)
	return w.Bytes()
}

func TestParseGSubContextAndExtension(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	gsub, err := ot.ParseGSub(chainedGSub())
	test.Error(t, err)
	test.T(t, len(gsub.Lookups), 2)

	ctx, ok := gsub.Lookups[0].Subtables[0].(*ot.ContextSubst)
	test.That(t, ok, "expected chained context subtable")
	test.T(t, ctx.Format, uint16(3))
	test.T(t, len(ctx.InputCoverages), 1)
	test.T(t, ctx.InputCoverages[0].Glyphs(), []ot.GlyphIndex{2, 3, 4})
	test.T(t, ctx.Lookups, []ot.SequenceLookupRecord{{SequenceIndex: 0, LookupListIndex: 1}})

	ext := gsub.Lookups[1]
	test.T(t, ext.Type, ot.GSubLookupTypeSingle)
	single, ok := ext.Subtables[0].(*ot.SingleSubst)
	test.That(t, ok, "extension should unwrap to a single substitution")
	test.T(t, single.Delta, int16(11))
	test.That(t, single.Coverage.Contains(3), "glyph 3 should be covered")
	test.That(t, !single.Coverage.Contains(4), "glyph 4 should not be covered")
}

func TestParseGSubErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	_, err := ot.ParseGSub([]byte{0, 1})
	test.That(t, err != nil, "short table should fail")
	_, err = ot.ParseGSub([]byte{0, 2, 0, 0, 0, 10, 0, 10, 0, 10})
	test.That(t, err != nil, "version 2 should be rejected")
	b := chainedGSub()
	_, err = ot.ParseGSub(b[:70])
	test.That(t, err != nil, "truncated lookup list should fail")
}
