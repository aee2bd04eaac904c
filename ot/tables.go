package ot

import (
	"fmt"
)

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
// Only fields needed for subsetting and metadata are made public; the complete
// table is available with Binary().
type HeadTable struct {
	tableBase
	Flags            uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	XMin, YMin       int16  // bounding box of all glyphs
	XMax, YMax       int16
	MacStyle         uint16 // bit 0 bold, bit 1 italic
	IndexToLocFormat uint16 // needed to interpret loca table
}

// Byte offsets of head fields which get patched by writers.
const (
	HeadCheckSumAdjustmentOffset = 8
	HeadIndexToLocFormatOffset   = 50
)

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
// Whenever this value changes, other tables which depend on it should also be updated.
type MaxPTable struct {
	tableBase
	Version   uint32 // 0x00005000 for CFF fonts, 0x00010000 for TrueType outlines
	NumGlyphs int
}

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender         int16
	Descender        int16
	LineGap          int16
	AdvanceWidthMax  uint16
	NumberOfHMetrics int
}

// HHeaNumberOfHMetricsOffset is the byte offset of field numberOfHMetrics.
const HHeaNumberOfHMetricsOffset = 34

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. Each element in the contained hMetrics-array has two parts: the advance width
// and left side bearing. The value NumberOfHMetrics is taken from the `hhea` table.
// Glyphs beyond NumberOfHMetrics share the advance width of the last long metric.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
	numGlyphs        int
}

// HMetricRecord is one long horizontal metric record from table hmtx.
type HMetricRecord struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

// HMetrics returns the advance width and left side bearing for a glyph.
func (t *HMtxTable) HMetrics(g GlyphIndex) (HMetricRecord, bool) {
	if t == nil || t.NumberOfHMetrics == 0 || int(g) >= t.numGlyphs {
		return HMetricRecord{}, false
	}
	if int(g) < t.NumberOfHMetrics {
		return HMetricRecord{
			AdvanceWidth:    t.data.U16(int(g) * 4),
			LeftSideBearing: t.data.i16(int(g)*4 + 2),
		}, true
	}
	last := t.NumberOfHMetrics - 1
	lsbAt := t.NumberOfHMetrics*4 + (int(g)-t.NumberOfHMetrics)*2
	return HMetricRecord{
		AdvanceWidth:    t.data.U16(last * 4),
		LeftSideBearing: t.data.i16(lsbAt),
	}, true
}

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”, which is the character
// that appears if a character is not found in the font.
type LocaTable struct {
	tableBase
	long   bool // offsets are 32 bit
	locCnt int  // number of locations = numGlyphs+1
}

// Range returns the byte range [start, end) of the glyph data of gid within
// table 'glyf'. Glyphs without an outline have start == end.
func (t *LocaTable) Range(gid GlyphIndex) (uint32, uint32, bool) {
	if t == nil || int(gid)+1 >= t.locCnt {
		return 0, 0, false
	}
	var start, end uint32
	if t.long {
		start, end = t.data.U32(int(gid)*4), t.data.U32(int(gid)*4+4)
	} else {
		start, end = uint32(t.data.U16(int(gid)*2))*2, uint32(t.data.U16(int(gid)*2+2))*2
	}
	if end < start {
		return 0, 0, false
	}
	return start, end, true
}

// GlyfTable contains the TrueType outlines of the glyphs.
// Glyph data is located with the help of table 'loca'.
type GlyfTable struct {
	tableBase
	loca *LocaTable
}

// Glyph returns the binary glyph data for glyph gid. Empty glyphs (e.g., space)
// return an empty slice. Glyphs with a location outside of the table return nil and an error.
func (t *GlyfTable) Glyph(gid GlyphIndex) ([]byte, error) {
	start, end, ok := t.loca.Range(gid)
	if !ok {
		return nil, fmt.Errorf("glyph %d: no location", gid)
	}
	if end > uint32(len(t.data)) {
		return nil, fmt.Errorf("glyph %d: location [%d:%d] exceeds glyf table size %d",
			gid, start, end, len(t.data))
	}
	return t.data[start:end], nil
}

// Composite glyph flags, see
// https://learn.microsoft.com/en-us/typography/opentype/spec/glyf#composite-glyph-description
const (
	CompositeArgsAreWords    uint16 = 0x0001
	CompositeHaveScale       uint16 = 0x0008
	CompositeMoreComponents  uint16 = 0x0020
	CompositeHaveXYScale     uint16 = 0x0040
	CompositeHave2x2         uint16 = 0x0080
	CompositeHaveInstruction uint16 = 0x0100
)

// ComponentRef is a reference to a component glyph within a composite glyph.
// Offset is the byte position of the component's glyph index within the glyph data.
type ComponentRef struct {
	Glyph  GlyphIndex
	Offset int
}

// Components returns the component references of a composite glyph. For simple glyphs
// and empty glyphs, nil is returned.
func Components(glyph []byte) ([]ComponentRef, error) {
	if len(glyph) < 10 || int16(u16(glyph)) >= 0 {
		return nil, nil
	}
	var refs []ComponentRef
	pos := 10
	for {
		if pos+4 > len(glyph) {
			return refs, errBufferBounds
		}
		flags := u16(glyph[pos:])
		refs = append(refs, ComponentRef{Glyph: GlyphIndex(u16(glyph[pos+2:])), Offset: pos + 2})
		n := 4
		if flags&CompositeArgsAreWords != 0 {
			n += 4
		} else {
			n += 2
		}
		switch {
		case flags&CompositeHaveScale != 0:
			n += 2
		case flags&CompositeHaveXYScale != 0:
			n += 4
		case flags&CompositeHave2x2 != 0:
			n += 8
		}
		pos += n
		if flags&CompositeMoreComponents == 0 {
			break
		}
	}
	if pos > len(glyph) {
		return refs, errBufferBounds
	}
	return refs, nil
}

// OS2Table contains a subset of fields from table 'OS/2'.
type OS2Table struct {
	tableBase
	Version          uint16
	WeightClass      uint16 // 100 … 900
	WidthClass       uint16 // 1 (ultra-condensed) … 9 (ultra-expanded)
	FsSelection      uint16 // bit 0 italic, bit 5 bold, bit 9 oblique
	FirstCharIndex   uint16
	LastCharIndex    uint16
	UnicodeRangeBits [4]uint32
}

// Byte offsets of OS/2 fields which get patched by writers.
const (
	OS2FirstCharIndexOffset = 64
	OS2LastCharIndexOffset  = 66
)

// IsItalic reports whether the italic bit is set in fsSelection.
// Oblique fonts (bit 9) are not italic.
func (t *OS2Table) IsItalic() bool {
	return t != nil && t.FsSelection&1 != 0 && t.FsSelection&(1<<9) == 0
}

// NameRecord is an entry of table 'name'. Value holds the raw string bytes in the
// encoding given by platform and encoding ID.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Value      []byte
}

// IsUnicode reports whether the value of the record is encoded as UTF-16BE.
func (r NameRecord) IsUnicode() bool {
	switch r.PlatformID {
	case 0:
		return true
	case 3:
		return r.EncodingID == 0 || r.EncodingID == 1 || r.EncodingID == 10
	}
	return false
}

// NameTable allows multilingual strings to be associated with the OpenType font.
type NameTable struct {
	tableBase
	Format  uint16
	Records []NameRecord
}

// PostTable contains information needed to use a TrueType font on a PostScript printer.
type PostTable struct {
	tableBase
	Version      uint32 // 0x00010000, 0x00020000, 0x00025000 or 0x00030000
	ItalicAngle  float64
	IsFixedPitch bool
	nameIndex    []uint16 // version 2 only
	names        [][]byte // version 2 only: custom glyph names, indexed from 258
}

// PostHeaderSize is the size of the post table without glyph names.
const PostHeaderSize = 32

// StandardNames is the number of standard Macintosh glyph names which may be
// referenced from a version 2 post table.
const StandardNames = 258

// NameIndex returns the glyph name index of glyph gid (post version 2).
// Values below StandardNames refer to standard Macintosh glyph names, values above
// refer to custom names, see CustomName.
func (t *PostTable) NameIndex(gid GlyphIndex) (uint16, bool) {
	if t == nil || int(gid) >= len(t.nameIndex) {
		return 0, false
	}
	return t.nameIndex[gid], true
}

// CustomName returns the custom glyph name referenced by name index inx.
func (t *PostTable) CustomName(inx uint16) ([]byte, bool) {
	if t == nil || inx < StandardNames || int(inx-StandardNames) >= len(t.names) {
		return nil, false
	}
	return t.names[inx-StandardNames], true
}

// VariationAxis is an axis record of table 'fvar'.
type VariationAxis struct {
	Tag     Tag
	Min     float64
	Default float64
	Max     float64
	Flags   uint16
	NameID  uint16
}

// NamedInstance is an instance record of table 'fvar'.
type NamedInstance struct {
	SubfamilyNameID  uint16
	Flags            uint16
	Coordinates      []float64
	PostScriptNameID uint16 // 0xFFFF or 0 if not present
}

// FVarTable is the font variations table, defining the variation axes of a
// variable font.
type FVarTable struct {
	tableBase
	AxesOffset   int
	AxisSize     int
	InstanceSize int
	Axes         []VariationAxis
	Instances    []NamedInstance
}

// Axis returns the axis record for a given axis tag.
func (t *FVarTable) Axis(tag Tag) (VariationAxis, bool) {
	if t == nil {
		return VariationAxis{}, false
	}
	for _, a := range t.Axes {
		if a.Tag == tag {
			return a, true
		}
	}
	return VariationAxis{}, false
}
