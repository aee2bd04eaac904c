package otsubset

import (
	"slices"

	"github.com/jqpe/font-subset/ot"
)

// SetsType selects one of the sets of a subset input.
type SetsType int

// Sets of a subset input.
const (
	SetsGlyphIndex       SetsType = iota // glyphs to retain in addition to the closure
	SetsUnicode                          // codepoints to retain
	SetsNoSubsetTableTag                 // tables to copy without changes
	SetsDropTableTag                     // tables to drop
	SetsNameID                           // name IDs to retain
	SetsNameLangID                       // name record languages (Windows platform) to retain
	SetsLayoutFeatureTag                 // layout features to retain
	setsCount
)

// Flags control details of subsetting.
type Flags uint32

// Subsetting flags.
const (
	FlagDefault          Flags = 0
	FlagNoHinting        Flags = 0x1   // remove TrueType instructions and hinting tables
	FlagRetainGIDs       Flags = 0x2   // keep glyph IDs, glyphs not needed are left empty
	FlagNameLegacy       Flags = 0x8   // retain non-Unicode name records
	FlagPassUnrecognized Flags = 0x20  // copy tables the engine does not know
	FlagNotdefOutline    Flags = 0x40  // keep the outline of glyph 0
	FlagGlyphNames       Flags = 0x80  // keep glyph names in table 'post'
	FlagNoLayoutClosure  Flags = 0x200 // do not add glyphs reachable through GSUB
)

// DefaultLayoutFeatures are the features retained by a new subset input.
var DefaultLayoutFeatures = []string{
	"rvrn", "ccmp", "liga", "locl", "mark", "mkmk", "rlig",
	"frac", "numr", "dnom",
	"calt", "clig", "curs", "kern", "rclt",
	"valt", "vert", "vkrn", "vpal", "vrt2",
	"ltra", "ltrm", "rtla", "rtlm",
	"rand", "jalt", "chws", "vchw", "halt", "vhal",
	"init", "medi", "fina", "isol", "med2", "fin2", "fin3", "cswh", "mset", "stch",
	"ljmo", "vjmo", "tjmo",
	"abvs", "blws", "abvm", "blwm",
	"nukt", "akhn", "rphf", "rkrf", "pref", "blwf", "half", "abvf", "pstf", "cfar",
	"vatu", "cjct", "pres", "psts", "haln", "dist",
}

// DefaultDropTables are the tables dropped by a new subset input.
var DefaultDropTables = []string{
	"morx", "mort", "kerx", "BASE", "JSTF", "DSIG", "EBDT", "EBLC", "EBSC", "SVG ",
	"PCLT", "LTSH", "feat", "Glat", "Gloc", "Silf", "Sill",
}

// --- Sets ------------------------------------------------------------------

// set is a set of uint32 values. An inverted set contains every value
// except its members.
type set struct {
	members  map[uint32]struct{}
	inverted bool
}

func newSet(values ...uint32) *set {
	s := &set{members: make(map[uint32]struct{}, len(values))}
	for _, v := range values {
		s.members[v] = struct{}{}
	}
	return s
}

func (s *set) has(v uint32) bool {
	_, ok := s.members[v]
	return ok != s.inverted
}

func (s *set) add(v uint32) {
	if s.inverted {
		delete(s.members, v)
	} else {
		s.members[v] = struct{}{}
	}
}

func (s *set) del(v uint32) {
	if s.inverted {
		s.members[v] = struct{}{}
	} else {
		delete(s.members, v)
	}
}

func (s *set) isEmpty() bool {
	return !s.inverted && len(s.members) == 0
}

// values returns the members in ascending order. For inverted sets, these
// are the values not contained.
func (s *set) values() []uint32 {
	vs := make([]uint32, 0, len(s.members))
	for v := range s.members {
		vs = append(vs, v)
	}
	slices.Sort(vs)
	return vs
}

// SetAdd adds a value to a set.
func (e *Engine) SetAdd(h uint32, v uint32) {
	if s, ok := e.sets[h]; ok {
		s.add(v)
	}
}

// SetDel removes a value from a set.
func (e *Engine) SetDel(h uint32, v uint32) {
	if s, ok := e.sets[h]; ok {
		s.del(v)
	}
}

// SetClear removes all values from a set.
func (e *Engine) SetClear(h uint32) {
	if s, ok := e.sets[h]; ok {
		clear(s.members)
		s.inverted = false
	}
}

// SetInvert replaces a set by its complement.
func (e *Engine) SetInvert(h uint32) {
	if s, ok := e.sets[h]; ok {
		s.inverted = !s.inverted
	}
}

// SetHas reports whether a value is contained in a set.
func (e *Engine) SetHas(h uint32, v uint32) bool {
	if s, ok := e.sets[h]; ok {
		return s.has(v)
	}
	return false
}

// SetIsInverted reports whether a set has been inverted.
func (e *Engine) SetIsInverted(h uint32) bool {
	if s, ok := e.sets[h]; ok {
		return s.inverted
	}
	return false
}

// SetLen returns the number of values in a set. Inverted sets count from the
// domain of all uint32 values.
func (e *Engine) SetLen(h uint32) int {
	s, ok := e.sets[h]
	if !ok {
		return 0
	}
	if s.inverted {
		return 1<<32 - len(s.members)
	}
	return len(s.members)
}

// --- Subset input ----------------------------------------------------------

// axisLimit is the requested location or range of a variation axis, in user
// coordinates.
type axisLimit struct {
	min, def, max float64
}

func (l axisLimit) pinned() bool {
	return l.min == l.max
}

type input struct {
	sets  [setsCount]uint32
	flags Flags
	axes  map[ot.Tag]axisLimit
}

// SubsetInputCreateOrFail creates a subset input with default settings:
// no codepoints, the default layout features and drop tables, name IDs 0 to 6
// in English (US).
func (e *Engine) SubsetInputCreateOrFail() uint32 {
	in := &input{axes: make(map[ot.Tag]axisLimit)}
	for i := range in.sets {
		h := e.handle()
		e.sets[h] = newSet()
		in.sets[i] = h
	}
	s := e.sets[in.sets[SetsNameID]]
	for id := uint32(0); id <= 6; id++ {
		s.add(id)
	}
	e.sets[in.sets[SetsNameLangID]].add(0x409)
	s = e.sets[in.sets[SetsLayoutFeatureTag]]
	for _, tag := range DefaultLayoutFeatures {
		s.add(Tag(tag))
	}
	s = e.sets[in.sets[SetsDropTableTag]]
	for _, tag := range DefaultDropTables {
		s.add(Tag(tag))
	}
	h := e.handle()
	e.inputs[h] = in
	return h
}

// SubsetInputDestroy destroys a subset input together with its sets.
func (e *Engine) SubsetInputDestroy(h uint32) {
	in, ok := e.inputs[h]
	if !ok {
		return
	}
	for _, s := range in.sets {
		delete(e.sets, s)
	}
	delete(e.inputs, h)
}

// SubsetInputSet returns the handle of one of the sets of a subset input.
// The set is owned by the input.
func (e *Engine) SubsetInputSet(h uint32, which SetsType) uint32 {
	in, ok := e.inputs[h]
	if !ok || which < 0 || which >= setsCount {
		return 0
	}
	return in.sets[which]
}

// SubsetInputUnicodeSet returns the set of codepoints of a subset input.
func (e *Engine) SubsetInputUnicodeSet(h uint32) uint32 {
	return e.SubsetInputSet(h, SetsUnicode)
}

// SubsetInputGlyphSet returns the set of additional glyphs of a subset input.
func (e *Engine) SubsetInputGlyphSet(h uint32) uint32 {
	return e.SubsetInputSet(h, SetsGlyphIndex)
}

// SubsetInputSetFlags replaces the flags of a subset input.
func (e *Engine) SubsetInputSetFlags(h uint32, flags Flags) {
	if in, ok := e.inputs[h]; ok {
		in.flags = flags
	}
}

// SubsetInputGetFlags returns the flags of a subset input.
func (e *Engine) SubsetInputGetFlags(h uint32) Flags {
	if in, ok := e.inputs[h]; ok {
		return in.flags
	}
	return FlagDefault
}

func (e *Engine) inputSet(in *input, which SetsType) *set {
	return e.sets[in.sets[which]]
}
