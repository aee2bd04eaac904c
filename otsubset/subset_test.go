package otsubset

import (
	"math"
	"slices"

	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/ot"
)

// subset creates a subset of a font. configure may change the subset input
// before subsetting. The engine resources are released before returning.
func (env *EngineTestEnviron) subset(font []byte, runes string, configure func(input, face uint32)) *ot.Font {
	e := env.eng
	face := env.load(font)
	defer e.FaceDestroy(face)
	input := e.SubsetInputCreateOrFail()
	defer e.SubsetInputDestroy(input)
	unicodes := e.SubsetInputUnicodeSet(input)
	for _, r := range runes {
		e.SetAdd(unicodes, uint32(r))
	}
	if configure != nil {
		configure(input, face)
	}
	result := e.SubsetOrFail(face, input)
	env.Require().NotZero(result, "subsetting failed")
	defer e.FaceDestroy(result)
	blob := e.FaceReferenceBlob(result)
	defer e.BlobDestroy(blob)
	ptr, n := e.BlobGetData(blob), e.BlobGetLength(blob)
	otf, err := ot.Parse(append([]byte(nil), e.Heap()[ptr:ptr+n]...))
	env.Require().NoError(err, "subset font does not parse")
	return otf
}

// noLayout clears the layout features, which drops the layout tables.
func (env *EngineTestEnviron) noLayout(input, _ uint32) {
	env.eng.SetClear(env.eng.SubsetInputSet(input, SetsLayoutFeatureTag))
}

func (env *EngineTestEnviron) advance(otf *ot.Font, g ot.GlyphIndex) uint16 {
	m, ok := otf.HMtx.HMetrics(g)
	env.Require().True(ok, "no metrics for glyph %d", g)
	return m.AdvanceWidth
}

func nameIDs(otf *ot.Font) []uint16 {
	var ids []uint16
	for _, r := range otf.Name.Records {
		ids = append(ids, r.NameID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// --- Glyph closure and glyph IDs -------------------------------------------

// gsub parses the GSUB table of a subset font.
func (env *EngineTestEnviron) gsub(otf *ot.Font) *ot.GSubTable {
	env.Require().True(otf.HasTable(ot.T("GSUB")), "GSUB missing")
	gsub, err := ot.ParseGSub(otf.Table(ot.T("GSUB")).Binary())
	env.Require().NoError(err, "GSUB of subset does not parse")
	return gsub
}

func (env *EngineTestEnviron) TestSubsetCompactsWithLayout() {
	otf := env.subset(fonttest.Font(), "AB", nil)
	env.Equal(3, otf.NumGlyphs(), "layout tables do not force retained glyph IDs")
	env.Equal(ot.GlyphIndex(1), otf.CMap.Lookup('A'))
	env.Equal(ot.GlyphIndex(2), otf.CMap.Lookup('B'))
	env.Zero(otf.CMap.Lookup('C'))
	gsub := env.gsub(otf)
	env.Len(gsub.Features, 1, "'salt' is not a default feature")
	env.Equal(ot.T("liga"), gsub.Features[0].Tag)
	env.Len(gsub.Lookups, 1)
	env.Empty(gsub.Lookups[0].Subtables, "f_i is not in the subset")
}

func (env *EngineTestEnviron) TestSubsetRetainGIDsWithLayout() {
	otf := env.subset(fonttest.Font(), "fi", func(input, _ uint32) {
		env.eng.SubsetInputSetFlags(input, FlagRetainGIDs)
	})
	env.Equal(int(fonttest.FI)+1, otf.NumGlyphs())
	env.Equal(ot.GlyphIndex(fonttest.F), otf.CMap.Lookup('f'))
	lig := env.gsub(otf).Lookups[0].Subtables[0].(*ot.LigatureSubst)
	env.Equal([]ot.GlyphIndex{ot.GlyphIndex(fonttest.F)}, lig.Coverage.Glyphs())
	env.Equal([]ot.Ligature{{Glyph: ot.GlyphIndex(fonttest.FI), Components: []ot.GlyphIndex{ot.GlyphIndex(fonttest.I)}}},
		lig.LigatureSets[0])
	space, err := otf.Glyf().Glyph(ot.GlyphIndex(fonttest.Space))
	env.NoError(err)
	env.Empty(space)
	env.Zero(env.advance(otf, ot.GlyphIndex(fonttest.Space)), "glyphs outside the subset have no advance")
	notdef, _ := otf.Glyf().Glyph(0)
	env.Empty(notdef, ".notdef outline is removed")
	env.Equal(uint16(500), env.advance(otf, 0))
}

func (env *EngineTestEnviron) TestSubsetCompact() {
	otf := env.subset(fonttest.Font(), "AB", env.noLayout)
	env.Equal(3, otf.NumGlyphs())
	env.Equal(ot.GlyphIndex(1), otf.CMap.Lookup('A'))
	env.Equal(ot.GlyphIndex(2), otf.CMap.Lookup('B'))
	env.False(otf.HasTable(ot.T("GSUB")), "no features, no layout tables")
	env.Equal(uint16(600), env.advance(otf, 1))
	a, err := otf.Glyf().Glyph(1)
	env.NoError(err)
	env.Equal(int16(550), headerBox(a).xMax)
	env.Equal(uint16('A'), otf.OS2.FirstCharIndex)
	env.Equal(uint16('B'), otf.OS2.LastCharIndex)
	env.Equal(int16(50), otf.Head.XMin)
	env.Equal(int16(550), otf.Head.XMax)
	// kerning: only the pair A B survives
	kern := otf.Table(ot.T("kern")).Binary()
	env.Equal(uint16(1), ot.U16(kern, 2), "one subtable")
	env.Equal(uint16(1), ot.U16(kern, 10), "one pair")
	env.Equal([]uint16{1, 2}, []uint16{ot.U16(kern, 18), ot.U16(kern, 20)})
	env.Equal(int16(-50), int16(ot.U16(kern, 22)))
}

func (env *EngineTestEnviron) TestSubsetComposite() {
	otf := env.subset(fonttest.Font(), "Á", env.noLayout)
	env.Equal(4, otf.NumGlyphs(), ".notdef, A, acute, Aacute")
	g := otf.CMap.Lookup(0xc1)
	env.Equal(ot.GlyphIndex(3), g)
	data, err := otf.Glyf().Glyph(g)
	env.Require().NoError(err)
	refs, err := ot.Components(data)
	env.Require().NoError(err)
	env.Equal([]ot.GlyphIndex{1, 2}, []ot.GlyphIndex{refs[0].Glyph, refs[1].Glyph})
}

func (env *EngineTestEnviron) TestSubsetLigatureClosure() {
	otf := env.subset(fonttest.Font(), "fi", nil)
	env.Equal(4, otf.NumGlyphs(), ".notdef, f, i, f_i")
	f, i := otf.CMap.Lookup('f'), otf.CMap.Lookup('i')
	env.Equal([]ot.GlyphIndex{1, 2}, []ot.GlyphIndex{f, i})
	fi, err := otf.Glyf().Glyph(3)
	env.NoError(err)
	env.NotEmpty(fi, "ligature f_i is reachable through 'liga'")
	// the ligature is renumbered along with its components
	lig := env.gsub(otf).Lookups[0].Subtables[0].(*ot.LigatureSubst)
	inx, ok := lig.Coverage.Match(f)
	env.Require().True(ok, "f is covered")
	env.Equal([]ot.Ligature{{Glyph: 3, Components: []ot.GlyphIndex{i}}}, lig.LigatureSets[inx])
	//
	otf = env.subset(fonttest.Font(), "fi", func(input, _ uint32) {
		env.eng.SubsetInputSetFlags(input, FlagNoLayoutClosure)
	})
	env.Equal(3, otf.NumGlyphs(), "no closure, f_i is not retained")
	lig = env.gsub(otf).Lookups[0].Subtables[0].(*ot.LigatureSubst)
	env.Empty(lig.LigatureSets, "no ligature without its result glyph")
}

func (env *EngineTestEnviron) TestSubsetFeatureSelection() {
	otf := env.subset(fonttest.Font(), "A", nil)
	env.Equal(2, otf.NumGlyphs(), "'salt' is not a default feature")
	otf = env.subset(fonttest.Font(), "A", func(input, _ uint32) {
		features := env.eng.SubsetInputSet(input, SetsLayoutFeatureTag)
		env.eng.SetClear(features)
		env.eng.SetInvert(features)
	})
	env.Equal(3, otf.NumGlyphs(), "all features retain A.salt")
	gsub := env.gsub(otf)
	env.Len(gsub.Features, 2)
	salt := gsub.Lookups[1].Subtables[0].(*ot.SingleSubst)
	env.Equal([]ot.GlyphIndex{1}, salt.Coverage.Glyphs())
	env.Equal(int16(1), salt.Delta, "A.salt follows A")
}

func (env *EngineTestEnviron) TestSubsetPositioning() {
	font := fonttest.Positioned().Build()
	otf := env.subset(font, "ABf", nil)
	env.Equal(4, otf.NumGlyphs())
	a, b, f := otf.CMap.Lookup('A'), otf.CMap.Lookup('B'), otf.CMap.Lookup('f')
	env.Equal([]ot.GlyphIndex{1, 2, 3}, []ot.GlyphIndex{a, b, f})
	env.True(otf.HasTable(ot.T("GPOS")))
	env.True(otf.HasTable(ot.T("GDEF")))
	// GDEF classes follow the renumbered glyphs
	gdef := otf.Table(ot.T("GDEF")).Binary()
	classes := gdef[ot.U16(gdef, 4):]
	env.Equal(uint16(2), ot.U16(classes, 0), "class definition format 2")
	env.Equal(uint16(1), ot.U16(classes, 2), "one range of base glyphs")
	env.Equal([]uint16{1, 3, fonttest.BaseGlyph}, []uint16{ot.U16(classes, 4), ot.U16(classes, 6), ot.U16(classes, 8)})
	//
	otf = env.subset(font, "AB", env.noLayout)
	env.False(otf.HasTable(ot.T("GPOS")), "no features, no layout tables")
	env.False(otf.HasTable(ot.T("GDEF")))
}

func (env *EngineTestEnviron) TestSubsetRetainGIDsFlagNoLayout() {
	otf := env.subset(fonttest.Font(), "B", func(input, face uint32) {
		env.noLayout(input, face)
		env.eng.SubsetInputSetFlags(input, FlagRetainGIDs)
	})
	env.Equal(int(fonttest.B)+1, otf.NumGlyphs())
	env.False(otf.HasTable(ot.T("GSUB")), "no features, no layout tables")
	env.Equal(ot.GlyphIndex(fonttest.B), otf.CMap.Lookup('B'))
}

func (env *EngineTestEnviron) TestSubsetEmpty() {
	otf := env.subset(fonttest.Font(), "", env.noLayout)
	env.Equal(1, otf.NumGlyphs(), "only .notdef")
	env.Zero(otf.CMap.Lookup('A'))
}

func (env *EngineTestEnviron) TestSubsetSupplementary() {
	otf := env.subset(fonttest.Font(), "A\U0001F600", env.noLayout)
	env.Equal(3, otf.NumGlyphs())
	env.Equal(ot.GlyphIndex(2), otf.CMap.Lookup(0x1f600))
	env.Equal(uint16(0xffff), otf.OS2.LastCharIndex)
}

func (env *EngineTestEnviron) TestSubsetGlyphSet() {
	otf := env.subset(fonttest.Font(), "", func(input, face uint32) {
		env.noLayout(input, face)
		env.eng.SetAdd(env.eng.SubsetInputGlyphSet(input), uint32(fonttest.One))
	})
	env.Equal(2, otf.NumGlyphs())
	env.Zero(otf.CMap.Lookup('1'), "glyphs added by ID are not mapped")
}

// --- Tables ----------------------------------------------------------------

func (env *EngineTestEnviron) TestSubsetNames() {
	otf := env.subset(fonttest.Font(), "A", nil)
	env.Equal([]uint16{0, 1, 2, 3, 4, 5, 6}, nameIDs(otf))
	otf = env.subset(fonttest.Font(), "A", func(input, _ uint32) {
		env.eng.SetAdd(env.eng.SubsetInputSet(input, SetsNameID), 300)
	})
	env.Contains(nameIDs(otf), uint16(300))
	otf = env.subset(fonttest.Font(), "A", func(input, _ uint32) {
		env.eng.SetClear(env.eng.SubsetInputSet(input, SetsNameLangID))
	})
	env.Empty(otf.Name.Records, "no Windows record in a retained language")
}

func (env *EngineTestEnviron) TestSubsetGlyphNames() {
	otf := env.subset(fonttest.Font(), "B", env.noLayout)
	env.Equal(uint32(postVersion3), otf.Post.Version)
	otf = env.subset(fonttest.Font(), "B", func(input, face uint32) {
		env.noLayout(input, face)
		env.eng.SubsetInputSetFlags(input, FlagGlyphNames)
	})
	env.Equal(uint32(postVersion2), otf.Post.Version)
	inx, ok := otf.Post.NameIndex(1)
	env.Require().True(ok)
	name, ok := otf.Post.CustomName(inx)
	env.True(ok)
	env.Equal("B", string(name))
}

func (env *EngineTestEnviron) TestSubsetDropTables() {
	otf := env.subset(fonttest.Font(), "A", func(input, _ uint32) {
		env.eng.SetAdd(env.eng.SubsetInputSet(input, SetsDropTableTag), Tag("kern"))
	})
	env.False(otf.HasTable(ot.T("kern")))
	env.True(otf.HasTable(ot.T("OS/2")))
}

// --- Variable fonts ----------------------------------------------------------

func (env *EngineTestEnviron) TestSubsetVariableKeepsVariations() {
	otf := env.subset(fonttest.Variable().Build(), "AB", nil)
	env.True(otf.IsVariable())
	env.True(otf.HasTable(ot.T("gvar")))
	env.Contains(nameIDs(otf), uint16(256), "axis names are retained")
	env.Contains(nameIDs(otf), uint16(257), "instance names are retained")
}

func (env *EngineTestEnviron) pin(value float64) func(input, face uint32) {
	return func(input, face uint32) {
		env.Require().True(env.eng.PinAxisLocation(input, face, Tag("wght"), value))
	}
}

func (env *EngineTestEnviron) TestPinAxis() {
	otf := env.subset(fonttest.Variable().Build(), "AB", env.pin(900))
	a, b := otf.CMap.Lookup('A'), otf.CMap.Lookup('B')
	env.False(otf.IsVariable(), "all axes pinned")
	env.False(otf.HasTable(ot.T("gvar")))
	env.NotContains(nameIDs(otf), uint16(256))
	env.Equal(uint16(700), env.advance(otf, a))
	env.Equal(uint16(660), env.advance(otf, b))
	data, _ := otf.Glyf().Glyph(a)
	env.Equal(int16(650), headerBox(data).xMax)
	env.Equal(uint16(900), otf.OS2.WeightClass)
	//
	otf = env.subset(fonttest.Variable().Build(), "A", env.pin(650))
	env.Equal(uint16(650), env.advance(otf, otf.CMap.Lookup('A')))
	otf = env.subset(fonttest.Variable().Build(), "A", env.pin(100))
	env.Equal(uint16(560), env.advance(otf, otf.CMap.Lookup('A')))
	otf = env.subset(fonttest.Variable().Build(), "A", env.pin(400))
	env.Equal(uint16(600), env.advance(otf, otf.CMap.Lookup('A')), "default location")
}

func (env *EngineTestEnviron) TestRestrictAxis() {
	otf := env.subset(fonttest.Variable().Build(), "A", func(input, face uint32) {
		env.Require().True(env.eng.SetAxisRange(input, face, Tag("wght"), 400, 650, math.NaN()))
	})
	a := otf.CMap.Lookup('A')
	env.Require().True(otf.IsVariable())
	axis := otf.FVar.Axes[0]
	env.Equal([]float64{400, 400, 650}, []float64{axis.Min, axis.Default, axis.Max})
	env.Empty(otf.FVar.Instances, "Bold at 900 is outside the new range")
	env.Equal(uint16(600), env.advance(otf, a))
	// the maximum of the new range reproduces the old variation at 650
	pinned := env.subset(otf.Binary(), "A", env.pin(650))
	env.Equal(uint16(650), env.advance(pinned, a))
	pinned = env.subset(otf.Binary(), "A", env.pin(525))
	env.Equal(uint16(625), env.advance(pinned, a))
}

func (env *EngineTestEnviron) TestPartialPin() {
	otf := env.subset(fonttest.VariableWidth().Build(), "AB", env.pin(900))
	a := otf.CMap.Lookup('A')
	env.Require().True(otf.IsVariable())
	env.Len(otf.FVar.Axes, 1)
	env.Equal(ot.T("wdth"), otf.FVar.Axes[0].Tag)
	env.Equal(uint16(700), env.advance(otf, a))
	env.Equal(uint16(5), otf.OS2.WidthClass, "width is not pinned")
	otf = env.subset(otf.Binary(), "A", func(input, face uint32) {
		env.Require().True(env.eng.PinAxisLocation(input, face, Tag("wdth"), 125))
	})
	env.False(otf.IsVariable())
	env.Equal(uint16(750), env.advance(otf, otf.CMap.Lookup('A')))
	env.Equal(uint16(7), otf.OS2.WidthClass)
}

func (env *EngineTestEnviron) TestInstancingMalformedVariations() {
	spec := fonttest.Variable()
	spec.GlyphVariations[fonttest.A] = []byte{0x00, 0x01, 0xff}
	e := env.eng
	face := env.load(spec.Build())
	input := e.SubsetInputCreateOrFail()
	e.SetAdd(e.SubsetInputUnicodeSet(input), 'A')
	env.True(e.PinAxisLocation(input, face, Tag("wght"), 900))
	env.Zero(e.SubsetOrFail(face, input), "malformed variation data")
	e.SubsetInputDestroy(input)
	e.FaceDestroy(face)
}
