package ot

import (
	"sort"
)

// Font represents the internal structure of an OpenType font, as needed for
// subsetting and for reading font metadata.
type Font struct {
	Header        *FontHeader
	data          binarySegm    // the complete font binary
	tables        map[Tag]Table // all tables of the font
	CMap          *CMapTable    // cmap table is mandatory
	Head          *HeadTable    // typed access to head
	MaxP          *MaxPTable    // typed access to maxp
	HHea          *HHeaTable    // typed access to hhea
	HMtx          *HMtxTable    // typed access to hmtx
	OS2           *OS2Table     // typed access to OS/2, may be nil
	Name          *NameTable    // typed access to name, may be nil
	Post          *PostTable    // typed access to post, may be nil
	FVar          *FVarTable    // typed access to fvar, nil for static fonts
	parseErrors   []FontError   // errors accumulated during parsing
	parseWarnings []FontWarning // warnings accumulated during parsing
}

// FontHeader is the offset table at the start of an sfnt font.
//
// OpenType fonts that contain TrueType outlines should use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2) should
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
// The Apple specification for TrueType fonts allows for 'true' and 'typ1',
// but these version tags should not be used for OpenType fonts.
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// Font types recognized by Parse.
const (
	FontTypeTrueType   uint32 = 0x00010000
	FontTypeCFF        uint32 = 0x4F54544F // OTTO
	FontTypeAppleTrue  uint32 = 0x74727565 // true
	FontTypeCollection uint32 = 0x74746366 // ttcf
)

// Binary returns the complete binary data of the font. Clients should treat it as
// read-only.
func (otf *Font) Binary() []byte {
	return otf.data
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// For example to receive the `OS/2` and the `loca` table, clients may call
//
//	os2  := otf.Table(ot.T("OS/2"))
//	loca := otf.Table(ot.T("loca")).Self().AsLoca()
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// HasTable is a shortcut for otf.Table(tag) != nil.
func (otf *Font) HasTable(tag Tag) bool {
	_, ok := otf.tables[tag]
	return ok
}

// TableTags returns a list of tags, one for each table contained in the font,
// in ascending order.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// NumGlyphs returns the number of glyphs as stated in table 'maxp'.
func (otf *Font) NumGlyphs() int {
	if otf == nil || otf.MaxP == nil {
		return 0
	}
	return otf.MaxP.NumGlyphs
}

// IsCFF returns true if the glyph outlines of the font are in CFF or CFF2 format.
func (otf *Font) IsCFF() bool {
	return otf.Header.FontType == FontTypeCFF || otf.HasTable(T("CFF ")) || otf.HasTable(T("CFF2"))
}

// IsVariable returns true if the font has variation axes.
func (otf *Font) IsVariable() bool {
	return otf.FVar != nil && len(otf.FVar.Axes) > 0
}

// Glyf returns the glyph data table, or nil for CFF fonts.
func (otf *Font) Glyf() *GlyfTable {
	if t := otf.Table(T("glyf")); t != nil {
		return t.Self().AsGlyf()
	}
	return nil
}

// Errors returns all errors encountered during font parsing which did not
// prevent parsing from completing.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// Warnings returns all warnings encountered during font parsing.
func (otf *Font) Warnings() []FontWarning {
	if otf.parseWarnings == nil {
		return []FontWarning{}
	}
	return otf.parseWarnings
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the OpenType specification as an
// array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline.
// The four bytes are packed big-endian into a uint32.
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
//
//	MakeTag([]byte("cmap"))
//
// If b is shorter or longer, it will be silently extended or cut as appropriate.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter it will be padded with spaces, if it is longer it will be cut.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	return string([]byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	})
}

// IsValid reports whether all 4 bytes of the tag are printable ASCII,
// as required for table tags, axis tags and feature tags.
func (t Tag) IsValid() bool {
	for _, c := range []byte(t.String()) {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables.
//
// Tables interpreted by this package are
// 'cmap', 'fvar', 'glyf', 'head', 'hhea', 'hmtx', 'loca', 'maxp', 'name', 'OS/2' and 'post'.
// Any other table is represented by a generic table type.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treated as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   any
}

func base(tag Tag, b binarySegm, offset, size uint32) tableBase {
	return tableBase{data: b, name: tag, offset: offset, length: size}
}

// Extent returns offset and byte size of this table within the OpenType font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	if tself.tableBase == nil {
		return 0
	}
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) any {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsOS2 returns this table as an OS/2 table, or nil.
func (tself TableSelf) AsOS2() *OS2Table {
	if k, ok := safeSelf(tself).(*OS2Table); ok {
		return k
	}
	return nil
}

// AsName returns this table as a name table, or nil.
func (tself TableSelf) AsName() *NameTable {
	if k, ok := safeSelf(tself).(*NameTable); ok {
		return k
	}
	return nil
}

// AsPost returns this table as a post table, or nil.
func (tself TableSelf) AsPost() *PostTable {
	if k, ok := safeSelf(tself).(*PostTable); ok {
		return k
	}
	return nil
}

// AsFVar returns this table as an fvar table, or nil.
func (tself TableSelf) AsFVar() *FVarTable {
	if k, ok := safeSelf(tself).(*FVarTable); ok {
		return k
	}
	return nil
}
