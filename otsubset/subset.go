package otsubset

import (
	"fmt"
	"slices"

	"github.com/jqpe/font-subset/ot"
	"github.com/jqpe/font-subset/otlayout"
)

func tagSet(tags ...string) map[ot.Tag]bool {
	m := make(map[ot.Tag]bool, len(tags))
	for _, t := range tags {
		m[ot.T(t)] = true
	}
	return m
}

var (
	// tables removed by FlagNoHinting
	hintingTables = tagSet("cvt ", "fpgm", "prep", "hdmx", "LTSH", "VDMX", "cvar")
	// tables without references to glyph IDs
	glyphIndependentTables = tagSet("cvt ", "fpgm", "prep", "gasp", "meta", "VDMX", "PCLT", "MVAR", "cvar")
	// tables referencing glyph IDs, which are copied as long as glyph IDs
	// are retained
	retainedGIDTables = tagSet("BASE", "JSTF", "MATH", "COLR", "CPAL",
		"SVG ", "CFF ", "CFF2", "VORG", "HVAR", "VVAR", "CBDT", "CBLC", "sbix", "EBDT", "EBLC", "EBSC")
	// tables sized by the number of glyphs
	glyphCountTables = tagSet("hdmx", "vhea", "vmtx", "LTSH")
	// tables without meaning once variations are instanced
	instancingDropTables = tagSet("HVAR", "MVAR", "VVAR", "cvar", "vhea", "vmtx")
	// tables without meaning in a static font
	variationTables = tagSet("fvar", "gvar", "avar", "STAT")
)

// keepsTable reports whether a table of the font may appear in the subset,
// according to the drop set, the flags and instancing.
func (p *plan) keepsTable(tag ot.Tag) bool {
	switch {
	case p.drop.has(uint32(tag)):
		return false
	case !p.hinting() && hintingTables[tag]:
		return false
	case p.inst != nil && instancingDropTables[tag]:
		return false
	case p.inst != nil && p.inst.isFull() && variationTables[tag]:
		return false
	}
	return true
}

// subsetTables returns the tables of the subset font.
func (p *plan) subsetTables() (map[ot.Tag][]byte, error) {
	o, err := p.buildOutlines()
	if err != nil {
		return nil, err
	}
	hmtx, numberOfHMetrics := o.hmtx()
	ttf := p.otf.Glyf() != nil
	writers := map[ot.Tag]func([]byte) ([]byte, error){
		ot.T("glyf"): func([]byte) ([]byte, error) { return o.glyf, nil },
		ot.T("loca"): func([]byte) ([]byte, error) { return o.loca, nil },
		ot.T("hmtx"): func([]byte) ([]byte, error) { return hmtx, nil },
		ot.T("hhea"): func(b []byte) ([]byte, error) { return o.hhea(b, numberOfHMetrics, ttf) },
		ot.T("head"): func(b []byte) ([]byte, error) { return o.head(b, ttf) },
		ot.T("maxp"): func(b []byte) ([]byte, error) { return maxp(b, len(p.order)) },
		ot.T("cmap"): func([]byte) ([]byte, error) { return ot.BuildCMap(p.newCMap()), nil },
		ot.T("post"): p.post,
		ot.T("name"): p.name,
		ot.T("OS/2"): p.os2,
		ot.T("kern"): p.kern,
		ot.T("gvar"): p.gvar,
		ot.T("fvar"): p.fvar,
		ot.T("avar"): p.avar,
		ot.T("STAT"): func(b []byte) ([]byte, error) { return b, nil },
		ot.T("GSUB"): p.layout(ot.T("GSUB")),
		ot.T("GPOS"): p.layout(ot.T("GPOS")),
		ot.T("GDEF"): p.layout(ot.T("GDEF")),
	}
	src := p.otf.Tables()
	tags := slices.Sorted(func(yield func(ot.Tag) bool) {
		for tag := range src {
			if !yield(tag) {
				return
			}
		}
	})
	out := make(map[ot.Tag][]byte, len(src))
	for _, tag := range tags {
		b := src[tag]
		if !p.keepsTable(tag) {
			tracer().Debugf("dropping table %s", tag)
			continue
		}
		if p.noSubset.has(uint32(tag)) {
			out[tag] = b
			continue
		}
		if write, ok := writers[tag]; ok {
			nb, err := write(b)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", tag, err)
			}
			if nb != nil {
				out[tag] = nb
			}
			continue
		}
		switch {
		case glyphIndependentTables[tag]:
			out[tag] = b
		case retainedGIDTables[tag] && p.retain:
			out[tag] = b
		case glyphCountTables[tag] && len(p.order) == p.otf.NumGlyphs():
			out[tag] = b
		case retainedGIDTables[tag] || glyphCountTables[tag]:
			tracer().Debugf("dropping table %s which depends on glyph IDs", tag)
		case p.flags&FlagPassUnrecognized != 0:
			out[tag] = b
		default:
			tracer().Infof("dropping unrecognized table %s", tag)
		}
	}
	return out, nil
}

// layout returns the writer of a layout table. Layout tables are dropped if
// no layout feature is retained, or if they cannot be read.
func (p *plan) layout(tag ot.Tag) func([]byte) ([]byte, error) {
	return func(b []byte) ([]byte, error) {
		if !p.keepsLayout() {
			tracer().Debugf("no layout feature retained, dropping %s", tag)
			return nil, nil
		}
		m := otlayout.NewGlyphMap(p.gidMap)
		var out []byte
		var err error
		switch tag {
		case ot.T("GSUB"):
			out, err = otlayout.SubsetGSUB(b, m, p.features)
		case ot.T("GPOS"):
			out, err = otlayout.SubsetGPOS(b, m, p.features)
		default:
			out, err = otlayout.SubsetGDEF(b, m)
		}
		if err != nil {
			tracer().Infof("dropping %s: %v", tag, err)
			return nil, nil
		}
		tracer().Debugf("%s: %d bytes, from %d", tag, len(out), len(b))
		return out, nil
	}
}

// gvar remaps the glyph variation data of the subset, or writes the
// remaining variations of instanced glyphs.
func (p *plan) gvar(b []byte) ([]byte, error) {
	if p.inst != nil {
		if p.inst.gvar == nil {
			return nil, nil
		}
		return p.inst.glyphVariations(p.instanced, p.order, p.emptied), nil
	}
	gv, err := parseGVar(b)
	if err != nil {
		return nil, err
	}
	data := make([][]byte, len(p.order))
	for n, g := range p.order {
		if !p.emptied(g) {
			data[n] = gv.glyph(g)
		}
	}
	return writeGVar(gv.axisCount, len(gv.sharedTuples), gv.sharedRaw, data), nil
}

func (p *plan) fvar(b []byte) ([]byte, error) {
	if p.inst == nil {
		return b, nil
	}
	return p.inst.fvar(p.otf.FVar), nil
}

func (p *plan) avar(b []byte) ([]byte, error) {
	if p.inst == nil {
		return b, nil
	}
	return p.inst.avarTable(), nil
}

// SubsetOrFail subsets a face as configured by a subset input. It returns a
// new face, or 0 if subsetting fails.
func (e *Engine) SubsetOrFail(faceHandle, inputHandle uint32) uint32 {
	otf, in := e.face(faceHandle), e.inputs[inputHandle]
	if otf == nil || in == nil {
		tracer().Errorf("subset: unknown face %d or input %d", faceHandle, inputHandle)
		return 0
	}
	font, err := e.subset(otf, in)
	if err != nil {
		tracer().Errorf("subset failed: %v", err)
		return 0
	}
	h := e.handle()
	e.faces[h] = &face{font: font}
	return h
}

func (e *Engine) subset(otf *ot.Font, in *input) (*ot.Font, error) {
	p, err := e.newPlan(otf, in)
	if err != nil {
		return nil, err
	}
	tables, err := p.subsetTables()
	if err != nil {
		return nil, err
	}
	fontType := otf.Header.FontType
	if fontType == ot.FontTypeAppleTrue {
		fontType = ot.FontTypeTrueType
	}
	binary := ot.Assemble(fontType, tables)
	font, err := ot.Parse(binary)
	if err != nil {
		return nil, fmt.Errorf("subset font does not parse: %w", err)
	}
	tracer().Infof("subset font: %d glyphs, %d tables, %d bytes", font.NumGlyphs(), len(tables), len(binary))
	return font, nil
}
