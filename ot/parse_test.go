package ot_test

import (
	"errors"
	"testing"

	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestParseSyntheticFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	otf, err := ot.Parse(fonttest.Font())
	if err != nil {
		t.Fatal(err)
	}
	if otf.NumGlyphs() != len(fonttest.Default().Glyphs) {
		t.Errorf("expected %d glyphs, have %d", len(fonttest.Default().Glyphs), otf.NumGlyphs())
	}
	for _, tag := range []string{"cmap", "glyf", "head", "hhea", "hmtx", "kern", "loca", "maxp", "name", "OS/2", "post", "GSUB"} {
		if !otf.HasTable(ot.T(tag)) {
			t.Errorf("expected font to have table %s", tag)
		}
	}
	if otf.IsCFF() || otf.IsVariable() {
		t.Error("synthetic default font is neither CFF nor variable")
	}
	if otf.Head.UnitsPerEm != 1000 {
		t.Errorf("expected 1000 units per em, have %d", otf.Head.UnitsPerEm)
	}
	if otf.Table(ot.T("head")).Self().AsHead() != otf.Head {
		t.Error("table map should hold the typed head table")
	}
	if len(otf.Warnings()) != 0 {
		t.Errorf("expected no warnings, have %v", otf.Warnings())
	}
}

func TestCMapLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	otf, err := ot.Parse(fonttest.Font())
	if err != nil {
		t.Fatal(err)
	}
	cases := map[rune]uint16{
		'A': fonttest.A, 'B': fonttest.B, 'f': fonttest.F, 0xc1: fonttest.AAcute,
		0x1f600: fonttest.Grinning, 'Z': 0, 0x10ffff: 0,
	}
	for r, g := range cases {
		if got := otf.CMap.Lookup(r); got != ot.GlyphIndex(g) {
			t.Errorf("cmap lookup of %#U: expected glyph %d, have %d", r, g, got)
		}
	}
	if otf.CMap.GlyphIndexMap.Format() != 12 {
		t.Errorf("expected format 12 sub-table to be preferred, is %d", otf.CMap.GlyphIndexMap.Format())
	}
	ranges := otf.CMap.Ranges()
	if len(ranges) == 0 || ranges[0] != (ot.CodeRange{Start: ' ', End: ' '}) {
		t.Errorf("unexpected cmap ranges %v", ranges)
	}
	if last := ranges[len(ranges)-1]; last.Start != 0x1f600 {
		t.Errorf("expected last range to start at U+1F600, is %v", last)
	}
}

func TestCMapFormat4Only(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	mapping := map[rune]ot.GlyphIndex{'a': 3, 'b': 4, 'c': 5, 'x': 9, 'y': 7, 0x3042: 8}
	cmap := ot.BuildCMap(mapping)
	font := replaceTable(t, fonttest.Font(), "cmap", cmap)
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}
	if otf.CMap.GlyphIndexMap.Format() != 4 {
		t.Fatalf("expected format 4, is %d", otf.CMap.GlyphIndexMap.Format())
	}
	for r, g := range mapping {
		if got := otf.CMap.Lookup(r); got != g {
			t.Errorf("lookup %#U: expected %d, have %d", r, g, got)
		}
	}
	n := 0
	for range otf.CMap.Mappings() {
		n++
	}
	if n != len(mapping) {
		t.Errorf("expected %d mappings, have %d", len(mapping), n)
	}
}

func TestGlyphData(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	for _, long := range []bool{false, true} {
		desc := fonttest.Default()
		desc.LongLoca = long
		otf, err := ot.Parse(desc.Build())
		if err != nil {
			t.Fatal(err)
		}
		glyf := otf.Glyf()
		if glyf == nil {
			t.Fatal("expected glyf table")
		}
		space, err := glyf.Glyph(ot.GlyphIndex(fonttest.Space))
		if err != nil || len(space) != 0 {
			t.Errorf("expected empty glyph for space, have %d bytes, err = %v", len(space), err)
		}
		aacute, err := glyf.Glyph(ot.GlyphIndex(fonttest.AAcute))
		if err != nil {
			t.Fatal(err)
		}
		refs, err := ot.Components(aacute)
		if err != nil || len(refs) != 2 {
			t.Fatalf("expected 2 components, have %v, err = %v", refs, err)
		}
		if refs[0].Glyph != ot.GlyphIndex(fonttest.A) || refs[1].Glyph != ot.GlyphIndex(fonttest.Acute) {
			t.Errorf("unexpected components %v", refs)
		}
		if _, err := glyf.Glyph(ot.GlyphIndex(otf.NumGlyphs())); err == nil {
			t.Error("expected error for glyph beyond glyph count")
		}
	}
}

func TestMetricsAndNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	otf, err := ot.Parse(fonttest.Font())
	if err != nil {
		t.Fatal(err)
	}
	m, ok := otf.HMtx.HMetrics(ot.GlyphIndex(fonttest.C))
	if !ok || m.AdvanceWidth != 620 {
		t.Errorf("expected advance 620 for C, have %v", m)
	}
	last := ot.GlyphIndex(otf.NumGlyphs() - 1)
	if m, ok := otf.HMtx.HMetrics(last); !ok || m.AdvanceWidth != 250 {
		t.Errorf("expected advance 250 for period, have %v", m)
	}
	if otf.OS2 == nil || otf.OS2.WeightClass != 400 || otf.OS2.IsItalic() {
		t.Errorf("unexpected OS/2 table %+v", otf.OS2)
	}
	if otf.Name == nil || len(otf.Name.Records) != len(fonttest.Default().Names) {
		t.Fatalf("expected %d name records", len(fonttest.Default().Names))
	}
	inx, ok := otf.Post.NameIndex(ot.GlyphIndex(fonttest.A))
	if !ok {
		t.Fatal("expected post name index for A")
	}
	if name, ok := otf.Post.CustomName(inx); !ok || string(name) != "A" {
		t.Errorf("expected glyph name A, have %q", name)
	}
}

func TestVariableFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	otf, err := ot.Parse(fonttest.Variable().Build())
	if err != nil {
		t.Fatal(err)
	}
	if !otf.IsVariable() {
		t.Fatal("expected a variable font")
	}
	axis, ok := otf.FVar.Axis(ot.T("wght"))
	if !ok || axis.Min != 100 || axis.Default != 400 || axis.Max != 900 || axis.NameID != 256 {
		t.Errorf("unexpected axis %+v", axis)
	}
	if _, ok := otf.FVar.Axis(ot.T("wdth")); ok {
		t.Error("font has no axis wdth")
	}
	if len(otf.FVar.Instances) != 1 || otf.FVar.Instances[0].SubfamilyNameID != 257 {
		t.Errorf("unexpected named instances %+v", otf.FVar.Instances)
	}
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	if _, err := ot.Parse([]byte("garbage, not a font at all")); !errors.Is(err, ot.ErrNotAFont) {
		t.Errorf("expected ErrNotAFont for garbage, have %v", err)
	}
	if _, err := ot.Parse([]byte{0, 1}); !errors.Is(err, ot.ErrNotAFont) {
		t.Errorf("expected ErrNotAFont for short input, have %v", err)
	}
	font := fonttest.Font()
	if _, err := ot.Parse(font[:len(font)/2]); err == nil {
		t.Error("expected truncated font to be rejected")
	}
	if _, err := ot.Parse(removeTable(t, font, "maxp")); err == nil {
		t.Error("expected font without maxp to be rejected")
	}
	otf, err := ot.Parse(removeTable(t, font, "post"))
	if err != nil {
		t.Fatalf("font without post should parse, have %v", err)
	}
	if len(otf.Warnings()) == 0 {
		t.Error("expected a warning for missing post table")
	}
}

func TestCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	bold := fonttest.Default()
	bold.Weight = 700
	ttc := fonttest.Collection(fonttest.Font(), bold.Build())
	if !ot.IsCollection(ttc) || ot.IsCollection(fonttest.Font()) {
		t.Fatal("collection detection failed")
	}
	if _, err := ot.Parse(ttc); err == nil {
		t.Error("Parse should reject collections")
	}
	fonts, err := ot.ParseCollection(ttc)
	if err != nil {
		t.Fatal(err)
	}
	if len(fonts) != 2 {
		t.Fatalf("expected 2 fonts in collection, have %d", len(fonts))
	}
	if fonts[0].OS2.WeightClass != 400 || fonts[1].OS2.WeightClass != 700 {
		t.Errorf("unexpected weights %d, %d", fonts[0].OS2.WeightClass, fonts[1].OS2.WeightClass)
	}
	single, err := ot.ParseCollection(fonttest.Font())
	if err != nil || len(single) != 1 {
		t.Errorf("expected single font to parse as collection of one, have %d, err = %v", len(single), err)
	}
}

func TestAssembleChecksum(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	font := fonttest.Font()
	if sum := ot.CalcChecksum(font); sum != ot.CheckSumAdjustmentMagic {
		t.Errorf("expected font checksum %x, is %x", ot.CheckSumAdjustmentMagic, sum)
	}
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}
	again := ot.Assemble(otf.Header.FontType, otf.Tables())
	if string(again) != string(font) {
		t.Error("re-assembling the tables of a font should reproduce the font")
	}
}

// --- Helpers ---------------------------------------------------------------

func replaceTable(t *testing.T, font []byte, tag string, data []byte) []byte {
	t.Helper()
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}
	tables := otf.Tables()
	tables[ot.T(tag)] = data
	return ot.Assemble(otf.Header.FontType, tables)
}

func removeTable(t *testing.T, font []byte, tag string) []byte {
	t.Helper()
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}
	tables := otf.Tables()
	delete(tables, ot.T(tag))
	return ot.Assemble(otf.Header.FontType, tables)
}
