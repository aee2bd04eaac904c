package otlayout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/go-text/typesetting/font/opentype/tables"
	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

const useMarkFilteringSet = 0x0010

// lookup is a lookup of the source table. Extension subtables are resolved,
// typ is the type of the wrapped subtables.
type lookup struct {
	typ       uint16
	flag      uint16
	filterSet uint16
	subtables []any
}

// kind tells GSUB and GPOS apart.
type kind struct {
	tag       string
	extension uint16 // lookup type of extension subtables
	subtables func(lk tables.Lookup, typ uint16) ([]any, uint16, error)
}

var (
	gsubKind = kind{tag: "GSUB", extension: 7, subtables: gsubSubtables}
	gposKind = kind{tag: "GPOS", extension: 9, subtables: gposSubtables}
)

// SubsetGSUB subsets a glyph substitution table. keep selects the retained
// features.
func SubsetGSUB(b []byte, m GlyphMap, keep func(ot.Tag) bool) ([]byte, error) {
	return subsetLayout(b, m, keep, gsubKind)
}

// SubsetGPOS subsets a glyph positioning table. keep selects the retained
// features.
func SubsetGPOS(b []byte, m GlyphMap, keep func(ot.Tag) bool) ([]byte, error) {
	return subsetLayout(b, m, keep, gposKind)
}

func subsetLayout(b []byte, m GlyphMap, keep func(ot.Tag) bool, k kind) (out []byte, err error) {
	defer func() {
		// the anchor matrix and pair set accessors of go-text index without
		// bounds checks
		if r := recover(); r != nil {
			out, err = nil, errFontFormat(k.tag, fmt.Sprint(r))
		}
	}()
	layout, _, err := tables.ParseLayout(b)
	if err != nil {
		return nil, errFontFormat(k.tag, err.Error())
	}
	types, err := lookupTypes(b, len(layout.LookupList.Lookups))
	if err != nil {
		return nil, errFontFormat(k.tag, err.Error())
	}
	lookups := make([]lookup, len(layout.LookupList.Lookups))
	for i, lk := range layout.LookupList.Lookups {
		subtables, typ, err := k.subtables(lk, types[i])
		if err != nil {
			return nil, errFontFormat(k.tag, fmt.Sprintf("lookup %d: %v", i, err))
		}
		lookups[i] = lookup{typ: typ, flag: lk.LookupFlag, filterSet: lk.MarkFilteringSet, subtables: subtables}
	}

	s := &subsetter{m: m, lookups: make(map[uint16]uint16)}
	fl := layout.FeatureList
	var features []int
	featureMap := make(map[uint16]uint16)
	var roots []uint16
	for i, rec := range fl.Records {
		if i >= len(fl.Features) || !keep(ot.Tag(rec.Tag)) {
			continue
		}
		featureMap[uint16(i)] = uint16(len(features))
		features = append(features, i)
		roots = append(roots, fl.Features[i].LookupListIndices...)
	}
	retained := retainedLookups(lookups, roots)
	for n, i := range retained {
		s.lookups[i] = uint16(n)
	}

	scripts := s.scriptList(layout.ScriptList, featureMap)
	featureList := s.featureList(fl, features)
	written := make([]lookupData, len(retained))
	for n, i := range retained {
		lk := lookups[i]
		written[n] = lookupData{typ: lk.typ, flag: lk.flag, filterSet: lk.filterSet}
		for _, st := range lk.subtables {
			if data := s.subtable(st); data != nil {
				written[n].subtables = append(written[n].subtables, data)
			}
		}
	}
	if s.err != nil {
		return nil, errFontFormat(k.tag, s.err.Error())
	}
	out, err = assemble(scripts, featureList, written, 0)
	if errors.Is(err, errOffsetOverflow) {
		tracer().Debugf("%s lookups exceed 16-bit offsets, writing extension subtables", k.tag)
		out, err = assemble(scripts, featureList, written, k.extension)
	}
	if err != nil {
		return nil, errFontFormat(k.tag, err.Error())
	}
	tracer().Debugf("%s subset keeps %d of %d features, %d of %d lookups", k.tag,
		len(features), len(fl.Records), len(retained), len(lookups))
	return out, nil
}

// lookupTypes reads the lookup type of every lookup from the lookup list.
func lookupTypes(b []byte, n int) ([]uint16, error) {
	u16 := func(at int) (uint16, error) {
		if at < 0 || at+2 > len(b) {
			return 0, errors.New("lookup list out of bounds")
		}
		return binary.BigEndian.Uint16(b[at:]), nil
	}
	list, err := u16(8)
	if err != nil {
		return nil, err
	}
	types := make([]uint16, n)
	for i := range types {
		offset, err := u16(int(list) + 2 + 2*i)
		if err != nil {
			return nil, err
		}
		if types[i], err = u16(int(list) + int(offset)); err != nil {
			return nil, err
		}
	}
	return types, nil
}

func gsubSubtables(lk tables.Lookup, typ uint16) ([]any, uint16, error) {
	subtables, err := lk.AsGSUBLookups()
	if err != nil {
		return nil, 0, err
	}
	out := make([]any, len(subtables))
	for i, st := range subtables {
		if ext, ok := st.(tables.ExtensionSubs); ok {
			if st, err = ext.Resolve(); err != nil {
				return nil, 0, err
			}
			typ = ext.ExtensionLookupType
		}
		out[i] = flattened(st)
	}
	return out, typ, nil
}

func gposSubtables(lk tables.Lookup, typ uint16) ([]any, uint16, error) {
	subtables, err := lk.AsGPOSLookups()
	if err != nil {
		return nil, 0, err
	}
	out := make([]any, len(subtables))
	for i, st := range subtables {
		if ext, ok := st.(tables.ExtensionPos); ok {
			if st, err = ext.Resolve(); err != nil {
				return nil, 0, err
			}
			typ = ext.ExtensionLookupType
		}
		out[i] = flattened(st)
	}
	return out, typ, nil
}

// flattened unwraps the format union of a subtable. Contextual positioning
// subtables become their substitution counterparts, which have the same
// binary format.
func flattened(st any) any {
	switch st := st.(type) {
	case tables.SingleSubs:
		return st.Data
	case tables.ContextualSubs:
		return st.Data
	case tables.ChainedContextualSubs:
		return st.Data
	case tables.SinglePos:
		return st.Data
	case tables.PairPos:
		return st.Data
	case tables.ContextualPos:
		switch d := st.Data.(type) {
		case tables.ContextualPos1:
			return tables.ContextualSubs1(d)
		case tables.ContextualPos2:
			return tables.ContextualSubs2(d)
		case tables.ContextualPos3:
			return tables.ContextualSubs3(d)
		}
	case tables.ChainedContextualPos:
		switch d := st.Data.(type) {
		case tables.ChainedContextualPos1:
			return tables.ChainedContextualSubs1(d)
		case tables.ChainedContextualPos2:
			return tables.ChainedContextualSubs2(d)
		case tables.ChainedContextualPos3:
			return tables.ChainedContextualSubs3(d)
		}
	}
	return st
}

// subtable writes the subset of a lookup subtable, nil if nothing of it
// remains.
func (s *subsetter) subtable(st any) []byte {
	switch st := st.(type) {
	case tables.SingleSubstData1:
		return s.singleSubst(st.Coverage, math.MaxInt, func(_ int, g tables.GlyphID) tables.GlyphID {
			return tables.GlyphID(int(g) + int(st.DeltaGlyphID))
		})
	case tables.SingleSubstData2:
		return s.singleSubst(st.Coverage, len(st.SubstituteGlyphIDs), func(i int, _ tables.GlyphID) tables.GlyphID {
			return st.SubstituteGlyphIDs[i]
		})
	case tables.MultipleSubs:
		return s.multipleSubst(st)
	case tables.AlternateSubs:
		return s.alternateSubst(st)
	case tables.LigatureSubs:
		return s.ligatureSubst(st)
	case tables.ReverseChainSingleSubs:
		return s.reverseChainSubst(st)
	case tables.ContextualSubs1:
		return s.context1(st)
	case tables.ContextualSubs2:
		return s.context2(st)
	case tables.ContextualSubs3:
		return s.context3(st)
	case tables.ChainedContextualSubs1:
		return s.chainedContext1(st)
	case tables.ChainedContextualSubs2:
		return s.chainedContext2(st)
	case tables.ChainedContextualSubs3:
		return s.chainedContext3(st)
	case tables.SinglePosData1:
		return s.singlePos1(st)
	case tables.SinglePosData2:
		return s.singlePos2(st)
	case tables.PairPosData1:
		return s.pairPos1(st)
	case tables.PairPosData2:
		return s.pairPos2(st)
	case tables.CursivePos:
		return s.cursivePos(st)
	case tables.MarkBasePos:
		return s.markBasePos(st)
	case tables.MarkLigPos:
		return s.markLigPos(st)
	case tables.MarkMarkPos:
		return s.markMarkPos(st)
	}
	tracer().Infof("dropping lookup subtable of unknown type %T", st)
	return nil
}

// retainedLookups returns the lookups reachable from roots, including those
// applied from contextual rules, in ascending order.
func retainedLookups(lookups []lookup, roots []uint16) []uint16 {
	seen := make(map[uint16]bool)
	queue := slices.Clone(roots)
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if int(i) >= len(lookups) || seen[i] {
			continue
		}
		seen[i] = true
		for _, st := range lookups[i].subtables {
			for _, rec := range nestedLookups(st) {
				queue = append(queue, rec.LookupListIndex)
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (s *subsetter) scriptList(sl tables.ScriptList, features map[uint16]uint16) []byte {
	t := newTable()
	n := min(len(sl.Records), len(sl.Scripts))
	t.count(n)
	for i, sc := range sl.Scripts[:n] {
		t.tag(sl.Records[i].Tag)
		t.offset(s.script(sc, features))
	}
	return s.pack(t)
}

func (s *subsetter) script(sc tables.Script, features map[uint16]uint16) []byte {
	t := newTable()
	if sc.DefaultLangSys != nil {
		t.offset(langSys(*sc.DefaultLangSys, features))
	} else {
		t.offset(nil)
	}
	n := min(len(sc.LangSysRecords), len(sc.LangSys))
	t.count(n)
	for i, ls := range sc.LangSys[:n] {
		t.tag(sc.LangSysRecords[i].Tag)
		t.offset(langSys(ls, features))
	}
	return s.pack(t)
}

// langSys writes a language system with renumbered feature indices.
func langSys(ls tables.LangSys, features map[uint16]uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // lookupOrderOffset
	required := uint16(0xffff)
	if n, ok := features[ls.RequiredFeatureIndex]; ok {
		required = n
	}
	w.WriteUint16(required)
	var kept []uint16
	for _, f := range ls.FeatureIndices {
		if n, ok := features[f]; ok {
			kept = append(kept, n)
		}
	}
	w.WriteUint16(uint16(len(kept)))
	for _, n := range kept {
		w.WriteUint16(n)
	}
	return w.Bytes()
}

func (s *subsetter) featureList(fl tables.FeatureList, features []int) []byte {
	t := newTable()
	t.count(len(features))
	for _, i := range features {
		t.tag(fl.Records[i].Tag)
		w := parse.NewBinaryWriter([]byte{})
		w.WriteUint16(0) // featureParamsOffset
		var indices []uint16
		for _, l := range fl.Features[i].LookupListIndices {
			if n, ok := s.lookups[l]; ok {
				indices = append(indices, n)
			}
		}
		w.WriteUint16(uint16(len(indices)))
		for _, n := range indices {
			w.WriteUint16(n)
		}
		t.offset(w.Bytes())
	}
	return s.pack(t)
}

// lookupData is a lookup ready to be written.
type lookupData struct {
	typ, flag, filterSet uint16
	subtables            [][]byte
}

// assemble writes the layout table. If extension is not zero, every subtable
// is referenced through an extension subtable of that lookup type, and the
// subtables follow the lookup list.
func assemble(scripts, features []byte, lookups []lookupData, extension uint16) ([]byte, error) {
	var list []byte
	var exts []int
	var tails [][]byte
	var err error
	if extension == 0 {
		list, err = lookupList(lookups)
	} else {
		list, exts, tails, err = extensionLookupList(lookups, extension)
	}
	if err != nil {
		return nil, err
	}
	const headerSize = 10
	featuresAt := headerSize + len(scripts)
	lookupsAt := featuresAt + len(features)
	if lookupsAt > math.MaxUint16 {
		return nil, errOffsetOverflow
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion, no feature variations
	w.WriteUint16(headerSize)
	w.WriteUint16(uint16(featuresAt))
	w.WriteUint16(uint16(lookupsAt))
	w.WriteBytes(scripts)
	w.WriteBytes(features)
	w.WriteBytes(list)
	b := w.Bytes()
	for i, tail := range tails {
		ext := lookupsAt + exts[i]
		binary.BigEndian.PutUint32(b[ext+4:], uint32(len(b)-ext))
		b = append(b, tail...)
	}
	return b, nil
}

func lookupList(lookups []lookupData) ([]byte, error) {
	list := newTable()
	list.count(len(lookups))
	for _, lk := range lookups {
		t := newTable()
		t.u16(lk.typ)
		t.u16(lk.flag)
		t.count(len(lk.subtables))
		for _, st := range lk.subtables {
			t.offset(st)
		}
		if lk.flag&useMarkFilteringSet != 0 {
			t.u16(lk.filterSet)
		}
		b, err := t.pack()
		if err != nil {
			return nil, err
		}
		list.offset(b)
	}
	return list.pack()
}

// extensionLookupList writes a lookup list whose lookups consist of
// extension subtables. It returns the positions of the extension subtables
// in the list, and the subtables they will point to.
func extensionLookupList(lookups []lookupData, extension uint16) ([]byte, []int, [][]byte, error) {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(uint16(len(lookups)))
	at := 2 + 2*len(lookups)
	sizes := make([]int, len(lookups))
	for i, lk := range lookups {
		header := 6 + 2*len(lk.subtables)
		if lk.flag&useMarkFilteringSet != 0 {
			header += 2
		}
		sizes[i] = header
		if at > math.MaxUint16 {
			return nil, nil, nil, errOffsetOverflow
		}
		w.WriteUint16(uint16(at))
		at += header + 8*len(lk.subtables)
	}
	var exts []int
	var tails [][]byte
	for i, lk := range lookups {
		w.WriteUint16(extension)
		w.WriteUint16(lk.flag)
		w.WriteUint16(uint16(len(lk.subtables)))
		for j := range lk.subtables {
			w.WriteUint16(uint16(sizes[i] + 8*j))
		}
		if lk.flag&useMarkFilteringSet != 0 {
			w.WriteUint16(lk.filterSet)
		}
		for _, st := range lk.subtables {
			exts = append(exts, int(w.Len()))
			w.WriteUint16(1) // format
			w.WriteUint16(lk.typ)
			w.WriteUint32(0) // extensionOffset, set by assemble
			tails = append(tails, st)
		}
	}
	return w.Bytes(), exts, tails, nil
}
