package fonttest

import (
	"sort"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

type layoutFeature struct {
	tag        string
	lookupType uint16
	subtable   []byte
}

// gsub writes a GSUB table with script 'DFLT' and the features 'liga' (lookup type 4)
// and 'salt' (lookup type 1), one lookup per feature.
func (spec Spec) gsub() []byte {
	var features []layoutFeature
	if len(spec.Ligatures) > 0 {
		features = append(features, layoutFeature{"liga", 4, ligatureSubst(spec.Ligatures)})
	}
	if len(spec.Alternates) > 0 {
		features = append(features, layoutFeature{"salt", 1, singleSubst(spec.Alternates)})
	}
	return layoutTable(features)
}

// layoutTable writes a GSUB or GPOS table with script 'DFLT', one lookup
// with a single subtable per feature.
func layoutTable(features []layoutFeature) []byte {
	scripts := parse.NewBinaryWriter([]byte{})
	scripts.WriteUint16(1) // scriptCount
	scripts.WriteUint32(uint32(ot.T("DFLT")))
	scripts.WriteUint16(8) // scriptOffset
	scripts.WriteUint16(4) // defaultLangSysOffset
	scripts.WriteUint16(0) // langSysCount
	scripts.WriteUint16(0) // lookupOrderOffset
	scripts.WriteUint16(0xffff)
	scripts.WriteUint16(uint16(len(features)))
	for i := range features {
		scripts.WriteUint16(uint16(i))
	}

	featureList := parse.NewBinaryWriter([]byte{})
	featureList.WriteUint16(uint16(len(features)))
	for i, f := range features {
		featureList.WriteUint32(uint32(ot.T(f.tag)))
		featureList.WriteUint16(uint16(2 + 6*len(features) + 6*i))
	}
	for i := range features {
		featureList.WriteUint16(0) // featureParamsOffset
		featureList.WriteUint16(1) // lookupIndexCount
		featureList.WriteUint16(uint16(i))
	}

	lookups := parse.NewBinaryWriter([]byte{})
	lookups.WriteUint16(uint16(len(features)))
	at := 2 + 2*len(features)
	for _, f := range features {
		lookups.WriteUint16(uint16(at))
		at += 8 + len(f.subtable)
	}
	for _, f := range features {
		lookups.WriteUint16(f.lookupType)
		lookups.WriteUint16(0) // lookupFlag
		lookups.WriteUint16(1) // subTableCount
		lookups.WriteUint16(8) // subtableOffset
		lookups.WriteBytes(f.subtable)
	}

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)
	w.WriteUint16(0)
	w.WriteUint16(10)
	w.WriteUint16(uint16(10 + scripts.Len()))
	w.WriteUint16(uint16(10 + scripts.Len() + featureList.Len()))
	w.WriteBytes(scripts.Bytes())
	w.WriteBytes(featureList.Bytes())
	w.WriteBytes(lookups.Bytes())
	return w.Bytes()
}

func coverage(glyphs []uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)
	w.WriteUint16(uint16(len(glyphs)))
	for _, g := range glyphs {
		w.WriteUint16(g)
	}
	return w.Bytes()
}

func singleSubst(alternates map[uint16]uint16) []byte {
	glyphs := make([]uint16, 0, len(alternates))
	for g := range alternates {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(2) // substFormat
	w.WriteUint16(uint16(6 + 2*len(glyphs)))
	w.WriteUint16(uint16(len(glyphs)))
	for _, g := range glyphs {
		w.WriteUint16(alternates[g])
	}
	w.WriteBytes(coverage(glyphs))
	return w.Bytes()
}

func ligatureSubst(ligatures []Ligature) []byte {
	sets := map[uint16][]Ligature{}
	var firsts []uint16
	for _, l := range ligatures {
		if _, ok := sets[l.Components[0]]; !ok {
			firsts = append(firsts, l.Components[0])
		}
		sets[l.Components[0]] = append(sets[l.Components[0]], l)
	}
	sort.Slice(firsts, func(i, j int) bool { return firsts[i] < firsts[j] })

	var setData [][]byte
	for _, first := range firsts {
		set := parse.NewBinaryWriter([]byte{})
		set.WriteUint16(uint16(len(sets[first])))
		at := 2 + 2*len(sets[first])
		for _, l := range sets[first] {
			set.WriteUint16(uint16(at))
			at += 4 + 2*(len(l.Components)-1)
		}
		for _, l := range sets[first] {
			set.WriteUint16(l.Glyph)
			set.WriteUint16(uint16(len(l.Components)))
			for _, c := range l.Components[1:] {
				set.WriteUint16(c)
			}
		}
		setData = append(setData, set.Bytes())
	}
	w := parse.NewBinaryWriter([]byte{})
	at := 6 + 2*len(firsts)
	for _, d := range setData {
		at += len(d)
	}
	w.WriteUint16(1)          // substFormat
	w.WriteUint16(uint16(at)) // coverageOffset
	w.WriteUint16(uint16(len(firsts)))
	at = 6 + 2*len(firsts)
	for _, d := range setData {
		w.WriteUint16(uint16(at))
		at += len(d)
	}
	for _, d := range setData {
		w.WriteBytes(d)
	}
	w.WriteBytes(coverage(firsts))
	return w.Bytes()
}
