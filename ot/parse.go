package ot

import (
	"fmt"
	"math"
	"sort"
)

// Code comments often cite passages from the
// OpenType specification version 1.9;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// Maximum reasonable counts for table structures. These limits prevent malicious
// fonts from claiming unreasonably large counts.
const (
	MaxTableCount     = 512
	MaxCmapSegments   = 20000
	MaxNameRecords    = 10000
	MaxVariationAxes  = 64
	MaxNamedInstances = 1024
)

// checkedAddUint32 checks for overflow in addition of two uint32 values.
func checkedAddUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}

// RequiredTables lists the tables a font must contain to be subsettable.
// 'name', 'OS/2' and 'post' are required by the OpenType specification as well,
// but fonts in the wild sometimes lack them. Their absence is recorded as a warning.
var RequiredTables = []string{
	"cmap", "head", "hhea", "hmtx", "maxp",
}

// RecommendedTables are checked for presence, missing ones are reported as warnings.
var RecommendedTables = []string{
	"name", "OS/2", "post",
}

// Parse parses an OpenType font from a byte slice. Font collections are not
// accepted by Parse, see ParseCollection.
//
// An ot.Font needs ongoing access to the font's byte data after Parse returns.
// Its elements are assumed immutable while the ot.Font remains in use.
func Parse(font []byte) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	src := binarySegm(font)
	if len(src) < 12 {
		return nil, fmt.Errorf("%w: %d bytes are too short for a font header", ErrNotAFont, len(src))
	}
	h := FontHeader{FontType: u32(src), TableCount: u16(src[4:])}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	ec := &errorCollector{}
	if h.FontType == FontTypeCollection {
		return nil, errFontFormat("font collection; use ParseCollection")
	}
	if !(h.FontType == FontTypeCFF || h.FontType == FontTypeTrueType || h.FontType == FontTypeAppleTrue) {
		ec.addError(T(""), "Header", fmt.Sprintf("font type not supported: %x", h.FontType), SeverityCritical, 0)
		return nil, fmt.Errorf("%w: font type %x not supported", ErrNotAFont, h.FontType)
	}
	if h.TableCount == 0 || h.TableCount > MaxTableCount {
		return nil, errFontFormat(fmt.Sprintf("implausible table count %d", h.TableCount))
	}
	otf := &Font{Header: &h, data: src, tables: make(map[Tag]Table)}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	buf, err := src.view(12, 16*int(h.TableCount))
	if err != nil {
		ec.addError(T(""), "TableRecords", "table record entries", SeverityCritical, 12)
		return nil, errFontFormat("table record entries")
	}
	unsorted := false
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if tag < prevTag {
			unsorted = true // tolerated, but noted
		}
		prevTag = tag
		off, size := u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // "all tables must begin on four byte boundaries"
			ec.addWarning(tag, "table offset not 4-byte aligned", off)
		}
		tableEnd, err := checkedAddUint32(off, size)
		if err != nil {
			return nil, ec.addError(tag, "Size", fmt.Sprintf("size calculation overflow: %v", err), SeverityCritical, off)
		}
		if tableEnd > uint32(len(src)) {
			return nil, errFontFormat(fmt.Sprintf("table %s: bounds [%d:%d] exceed font size %d",
				tag, off, tableEnd, len(src)))
		}
		if _, dup := otf.tables[tag]; dup {
			ec.addWarning(tag, "duplicate table record ignored", off)
			continue
		}
		otf.tables[tag] = newTable(tag, src[off:tableEnd], off, size)
	}
	if unsorted {
		ec.addWarning(T(""), "table records not sorted by tag", 12)
	}
	if err := interpretTables(otf, ec); err != nil {
		return nil, err
	}
	if ec.hasErrors() || ec.hasWarnings() {
		tracer().Infof("font parsed with %d errors and %d warnings", len(ec.errors), len(ec.warnings))
	}
	otf.parseErrors = ec.errors
	otf.parseWarnings = ec.warnings
	return otf, nil
}

// interpretTables replaces generic tables by typed tables, in an order respecting
// dependencies between tables (e.g., 'hmtx' needs 'hhea' and 'maxp').
func interpretTables(otf *Font, ec *errorCollector) error {
	for _, tag := range RequiredTables {
		if otf.tables[T(tag)] == nil {
			ec.addError(T(tag), "Missing", "missing required table", SeverityCritical, 0)
			return errFontFormat("missing required table " + tag)
		}
	}
	for _, tag := range RecommendedTables {
		if otf.tables[T(tag)] == nil {
			ec.addWarning(T(tag), "missing table", 0)
		}
	}
	var err error
	if otf.Head, err = parseHead(otf.tables[T("head")], ec); err != nil {
		return err
	}
	if otf.MaxP, err = parseMaxP(otf.tables[T("maxp")], ec); err != nil {
		return err
	}
	if otf.HHea, err = parseHHea(otf.tables[T("hhea")], ec); err != nil {
		return err
	}
	if otf.HMtx, err = parseHMtx(otf.tables[T("hmtx")], otf.HHea, otf.MaxP, ec); err != nil {
		return err
	}
	if otf.CMap, err = parseCMap(otf.tables[T("cmap")], ec); err != nil {
		return err
	}
	otf.CMap.NumGlyphs = otf.MaxP.NumGlyphs
	otf.tables[T("head")] = otf.Head
	otf.tables[T("maxp")] = otf.MaxP
	otf.tables[T("hhea")] = otf.HHea
	otf.tables[T("hmtx")] = otf.HMtx
	otf.tables[T("cmap")] = otf.CMap
	if lt, gt := otf.tables[T("loca")], otf.tables[T("glyf")]; lt != nil && gt != nil {
		loca, err := parseLoca(lt, otf.Head, otf.MaxP, ec)
		if err != nil {
			return err
		}
		glyf := &GlyfTable{tableBase: *gt.Self().tableBase, loca: loca}
		glyf.self = glyf
		otf.tables[T("loca")] = loca
		otf.tables[T("glyf")] = glyf
	} else if !otf.IsCFF() {
		ec.addError(T("glyf"), "Missing", "font has neither TrueType nor CFF outlines", SeverityCritical, 0)
		return errFontFormat("font has neither TrueType nor CFF outlines")
	}
	// Tables below are optional. Errors in them are not fatal; the table is left
	// generic and the error is recorded.
	if t := otf.tables[T("OS/2")]; t != nil {
		if otf.OS2 = parseOS2(t, ec); otf.OS2 != nil {
			otf.tables[T("OS/2")] = otf.OS2
		}
	}
	if t := otf.tables[T("name")]; t != nil {
		if otf.Name = parseName(t, ec); otf.Name != nil {
			otf.tables[T("name")] = otf.Name
		}
	}
	if t := otf.tables[T("post")]; t != nil {
		if otf.Post = parsePost(t, otf.MaxP, ec); otf.Post != nil {
			otf.tables[T("post")] = otf.Post
		}
	}
	if t := otf.tables[T("fvar")]; t != nil {
		if otf.FVar = parseFVar(t, ec); otf.FVar != nil {
			otf.tables[T("fvar")] = otf.FVar
		}
	}
	return nil
}

// --- Head table ------------------------------------------------------------

func parseHead(gt Table, ec *errorCollector) (*HeadTable, error) {
	tb := gt.Self().tableBase
	b := tb.data
	if len(b) < 54 {
		return nil, ec.addError(tb.name, "Size", fmt.Sprintf("head table too small: %d bytes (need 54)", len(b)),
			SeverityCritical, tb.offset)
	}
	if magic := b.U32(12); magic != 0x5F0F3CF5 {
		ec.addWarning(tb.name, fmt.Sprintf("wrong magic number %x", magic), tb.offset)
	}
	t := &HeadTable{tableBase: *tb}
	t.Flags = b.U16(16)
	t.UnitsPerEm = b.U16(18)
	t.XMin, t.YMin = b.i16(36), b.i16(38)
	t.XMax, t.YMax = b.i16(40), b.i16(42)
	t.MacStyle = b.U16(44)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat = b.U16(HeadIndexToLocFormatOffset)
	if t.IndexToLocFormat > 1 {
		return nil, ec.addError(tb.name, "IndexToLocFormat",
			fmt.Sprintf("invalid value: %d (must be 0 or 1)", t.IndexToLocFormat), SeverityCritical, tb.offset)
	}
	t.self = t
	return t, nil
}

// --- MaxP table ------------------------------------------------------------

func parseMaxP(gt Table, ec *errorCollector) (*MaxPTable, error) {
	tb := gt.Self().tableBase
	if len(tb.data) < 6 {
		return nil, ec.addError(tb.name, "Size", "maxp table too small", SeverityCritical, tb.offset)
	}
	t := &MaxPTable{tableBase: *tb}
	t.Version = tb.data.U32(0)
	t.NumGlyphs = int(tb.data.U16(4))
	if t.NumGlyphs == 0 {
		return nil, ec.addError(tb.name, "NumGlyphs", "font has no glyphs", SeverityCritical, tb.offset)
	}
	t.self = t
	return t, nil
}

// --- HHea table ------------------------------------------------------------

func parseHHea(gt Table, ec *errorCollector) (*HHeaTable, error) {
	tb := gt.Self().tableBase
	b := tb.data
	if len(b) < 36 {
		return nil, ec.addError(tb.name, "Size", "hhea table too small", SeverityCritical, tb.offset)
	}
	t := &HHeaTable{tableBase: *tb}
	t.Ascender = b.i16(4)
	t.Descender = b.i16(6)
	t.LineGap = b.i16(8)
	t.AdvanceWidthMax = b.U16(10)
	t.NumberOfHMetrics = int(b.U16(HHeaNumberOfHMetricsOffset))
	t.self = t
	return t, nil
}

// --- HMtx table ------------------------------------------------------------

func parseHMtx(gt Table, hhea *HHeaTable, maxp *MaxPTable, ec *errorCollector) (*HMtxTable, error) {
	tb := gt.Self().tableBase
	numGlyphs := maxp.NumGlyphs
	n := hhea.NumberOfHMetrics
	if n == 0 || n > numGlyphs {
		return nil, ec.addError(T("hhea"), "NumberOfHMetrics",
			fmt.Sprintf("value %d invalid for %d glyphs", n, numGlyphs), SeverityCritical, tb.offset)
	}
	// hmtx contains NumberOfHMetrics longHorMetrics (4 bytes each) +
	// (numGlyphs - NumberOfHMetrics) leftSideBearings (2 bytes each)
	required := n*4 + (numGlyphs-n)*2
	if len(tb.data) < required {
		return nil, ec.addError(tb.name, "Size",
			fmt.Sprintf("table size %d insufficient for %d glyphs (need %d)", len(tb.data), numGlyphs, required),
			SeverityCritical, tb.offset)
	}
	t := &HMtxTable{tableBase: *tb, NumberOfHMetrics: n, numGlyphs: numGlyphs}
	t.self = t
	return t, nil
}

// --- Loca table ------------------------------------------------------------

func parseLoca(gt Table, head *HeadTable, maxp *MaxPTable, ec *errorCollector) (*LocaTable, error) {
	tb := gt.Self().tableBase
	t := &LocaTable{tableBase: *tb, long: head.IndexToLocFormat == 1, locCnt: maxp.NumGlyphs + 1}
	entrySize := 2
	if t.long {
		entrySize = 4
	}
	if len(tb.data) < t.locCnt*entrySize {
		return nil, ec.addError(tb.name, "Size",
			fmt.Sprintf("table size (%d) insufficient for %d glyphs (need %d)", len(tb.data), maxp.NumGlyphs,
				t.locCnt*entrySize), SeverityCritical, tb.offset)
	}
	t.self = t
	return t, nil
}

// --- OS/2 table ------------------------------------------------------------

func parseOS2(gt Table, ec *errorCollector) *OS2Table {
	tb := gt.Self().tableBase
	b := tb.data
	if len(b) < 68 {
		ec.addError(tb.name, "Size", fmt.Sprintf("OS/2 table too small: %d bytes", len(b)), SeverityMajor, tb.offset)
		return nil
	}
	t := &OS2Table{tableBase: *tb}
	t.Version = b.U16(0)
	t.WeightClass = b.U16(4)
	t.WidthClass = b.U16(6)
	for i := range t.UnicodeRangeBits {
		t.UnicodeRangeBits[i] = b.U32(42 + 4*i)
	}
	t.FsSelection = b.U16(62)
	t.FirstCharIndex = b.U16(OS2FirstCharIndexOffset)
	t.LastCharIndex = b.U16(OS2LastCharIndexOffset)
	t.self = t
	return t
}

// --- Name table ------------------------------------------------------------

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

func parseName(gt Table, ec *errorCollector) *NameTable {
	tb := gt.Self().tableBase
	b := tb.data
	if len(b) < nameHeaderSize {
		ec.addError(tb.name, "Header", "name table too small", SeverityMajor, tb.offset)
		return nil
	}
	t := &NameTable{tableBase: *tb, Format: b.U16(0)}
	count, storage := int(b.U16(2)), int(b.U16(4))
	if count > MaxNameRecords || nameHeaderSize+count*nameRecordSize > len(b) {
		ec.addError(tb.name, "Records", fmt.Sprintf("%d name records exceed table size", count),
			SeverityMajor, tb.offset)
		return nil
	}
	for i := 0; i < count; i++ {
		rec := b[nameHeaderSize+i*nameRecordSize:]
		length, offset := int(u16(rec[8:])), int(u16(rec[10:]))
		value, err := b.view(storage+offset, length)
		if err != nil {
			ec.addWarning(tb.name, fmt.Sprintf("name record %d points outside of string storage", i), tb.offset)
			continue
		}
		t.Records = append(t.Records, NameRecord{
			PlatformID: u16(rec),
			EncodingID: u16(rec[2:]),
			LanguageID: u16(rec[4:]),
			NameID:     u16(rec[6:]),
			Value:      value,
		})
	}
	t.self = t
	return t
}

// --- Post table ------------------------------------------------------------

func parsePost(gt Table, maxp *MaxPTable, ec *errorCollector) *PostTable {
	tb := gt.Self().tableBase
	b := tb.data
	if len(b) < PostHeaderSize {
		ec.addError(tb.name, "Size", "post table too small", SeverityMajor, tb.offset)
		return nil
	}
	t := &PostTable{tableBase: *tb}
	t.Version = b.U32(0)
	t.ItalicAngle = Fixed(b.U32(4))
	t.IsFixedPitch = b.U32(12) != 0
	t.self = t
	if t.Version != 0x00020000 {
		return t
	}
	n := int(b.U16(PostHeaderSize))
	if n != maxp.NumGlyphs {
		ec.addWarning(tb.name, fmt.Sprintf("post names %d glyphs, maxp has %d", n, maxp.NumGlyphs), tb.offset)
	}
	pos := PostHeaderSize + 2
	if pos+2*n > len(b) {
		ec.addError(tb.name, "GlyphNameIndex", "glyph name index exceeds table", SeverityMajor, tb.offset)
		t.Version = 0x00030000 // treat as table without glyph names
		return t
	}
	t.nameIndex = make([]uint16, n)
	for i := range t.nameIndex {
		t.nameIndex[i] = u16(b[pos+2*i:])
	}
	pos += 2 * n
	for pos < len(b) {
		l := int(b[pos])
		if pos+1+l > len(b) {
			ec.addWarning(tb.name, "truncated glyph name", tb.offset+uint32(pos))
			break
		}
		t.names = append(t.names, b[pos+1:pos+1+l])
		pos += 1 + l
	}
	return t
}

// --- FVar table ------------------------------------------------------------

func parseFVar(gt Table, ec *errorCollector) *FVarTable {
	tb := gt.Self().tableBase
	b := tb.data
	if len(b) < 16 || b.U16(0) != 1 {
		ec.addError(tb.name, "Header", "unsupported fvar table", SeverityMajor, tb.offset)
		return nil
	}
	t := &FVarTable{tableBase: *tb}
	t.AxesOffset = int(b.U16(4))
	axisCount := int(b.U16(8))
	t.AxisSize = int(b.U16(10))
	instanceCount := int(b.U16(12))
	t.InstanceSize = int(b.U16(14))
	if axisCount > MaxVariationAxes || instanceCount > MaxNamedInstances || t.AxisSize < 20 ||
		t.InstanceSize < 4+4*axisCount {
		ec.addError(tb.name, "Header", "implausible fvar header", SeverityMajor, tb.offset)
		return nil
	}
	if t.AxesOffset+axisCount*t.AxisSize+instanceCount*t.InstanceSize > len(b) {
		ec.addError(tb.name, "Size", "fvar records exceed table", SeverityMajor, tb.offset)
		return nil
	}
	for i := 0; i < axisCount; i++ {
		rec := b[t.AxesOffset+i*t.AxisSize:]
		t.Axes = append(t.Axes, VariationAxis{
			Tag:     MakeTag(rec[:4]),
			Min:     Fixed(u32(rec[4:])),
			Default: Fixed(u32(rec[8:])),
			Max:     Fixed(u32(rec[12:])),
			Flags:   u16(rec[16:]),
			NameID:  u16(rec[18:]),
		})
	}
	instStart := t.AxesOffset + axisCount*t.AxisSize
	for i := 0; i < instanceCount; i++ {
		rec := b[instStart+i*t.InstanceSize:]
		inst := NamedInstance{SubfamilyNameID: u16(rec), Flags: u16(rec[2:]), PostScriptNameID: 0xffff}
		for j := 0; j < axisCount; j++ {
			inst.Coordinates = append(inst.Coordinates, Fixed(u32(rec[4+4*j:])))
		}
		if t.InstanceSize >= 6+4*axisCount {
			inst.PostScriptNameID = u16(rec[4+4*axisCount:])
		}
		t.Instances = append(t.Instances, inst)
	}
	t.self = t
	return t
}

// --- CMap table ------------------------------------------------------------

// This table defines mapping of character codes to a default glyph index. Different
// subtables may be defined that each contain mappings for different character encoding
// schemes.
//
// From the spec.: “If a font includes Unicode subtables for both 16-bit encoding (typically, format 4)
// and also 32-bit encoding (formats 10 or 12), then the characters supported by the
// subtable for 32-bit encoding should be a superset of the characters supported by
// the subtable for 16-bit encoding, and the 32-bit encoding should be used by
// applications.”
//
// We support the following platform/encoding/format combinations, in order of preference:
//
//	0 (Unicode)  4 or 6  12  Unicode full
//	3 (Win)      10      12  Unicode full
//	0 (Unicode)  0 … 3   4   Unicode BMP
//	3 (Win)      1       4   Unicode BMP
//	3 (Win)      0       4   Symbol
//	any          any     0/6 as a last resort for Unicode encodings
func parseCMap(gt Table, ec *errorCollector) (*CMapTable, error) {
	tb := gt.Self().tableBase
	b := tb.data
	const headerSize, entrySize = 4, 8
	if len(b) < headerSize {
		return nil, ec.addError(tb.name, "Header", "cmap table too small", SeverityCritical, tb.offset)
	}
	n := int(b.U16(2)) // number of sub-tables
	tracer().Debugf("font cmap has %d sub-tables in %d bytes", n, len(b))
	if len(b) < headerSize+entrySize*n {
		return nil, ec.addError(tb.name, "Header", fmt.Sprintf("table size %d < required %d",
			len(b), headerSize+entrySize*n), SeverityCritical, tb.offset)
	}
	type candidate struct {
		pid, psid uint16
		offset    int
		rank      int
	}
	var candidates []candidate
	for i := 0; i < n; i++ {
		rec := b[headerSize+entrySize*i:]
		pid, psid, off := u16(rec), u16(rec[2:]), int(u32(rec[4:]))
		if off+4 > len(b) {
			ec.addWarning(tb.name, fmt.Sprintf("sub-table %d (platform=%d, encoding=%d) out of bounds", i, pid, psid),
				tb.offset)
			continue
		}
		if rank := cmapRank(pid, psid, b.U16(off)); rank > 0 {
			candidates = append(candidates, candidate{pid, psid, off, rank})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].rank > candidates[j].rank })
	for _, c := range candidates {
		gim, err := parseCMapSubtable(b[c.offset:])
		if err != nil {
			ec.addWarning(tb.name, fmt.Sprintf("sub-table (platform=%d, encoding=%d) cannot be parsed: %v",
				c.pid, c.psid, err), tb.offset+uint32(c.offset))
			continue
		}
		t := &CMapTable{tableBase: *tb, GlyphIndexMap: gim, PlatformID: c.pid, EncodingID: c.psid}
		t.self = t
			tracer().Debugf("using cmap sub-table platform=%d encoding=%d format=%d", c.pid, c.psid, gim.Format())
		return t, nil
	}
	return nil, ec.addError(tb.name, "Format", "no supported cmap sub-table found", SeverityCritical, tb.offset)
}

// cmapRank orders platform/encoding/format combinations by preference; 0 means unsupported.
func cmapRank(pid, psid, format uint16) int {
	unicode := pid == 0 || (pid == 3 && (psid == 1 || psid == 10))
	symbol := pid == 3 && psid == 0
	switch {
	case format == 12 && unicode:
		return 5
	case format == 4 && unicode:
		return 4
	case format == 4 && symbol:
		return 3
	case (format == 6 || format == 0) && unicode:
		return 2
	case (format == 6 || format == 0) && pid == 1 && psid == 0:
		return 1 // Macintosh Roman coincides with ASCII for the first 128 codes
	}
	return 0
}

func parseCMapSubtable(b binarySegm) (GlyphIndexMap, error) {
	switch format := b.U16(0); format {
	case 0:
		glyphs, err := b.view(6, 256)
		if err != nil {
			return nil, errFontFormat("cmap format 0 too short")
		}
		return format0GlyphIndex{glyphs: glyphs}, nil
	case 4:
		return parseCMapFormat4(b)
	case 6:
		first, count := b.U16(6), int(b.U16(8))
		glyphs, err := b.view(10, 2*count)
		if err != nil {
			return nil, errFontFormat("cmap format 6 too short")
		}
		return format6GlyphIndex{first: first, glyphs: glyphs}, nil
	case 12:
		return parseCMapFormat12(b)
	default:
		return nil, errFontFormat(fmt.Sprintf("unsupported cmap format %d", format))
	}
}

func parseCMapFormat4(b binarySegm) (GlyphIndexMap, error) {
	length := int(b.U16(2))
	if length > len(b) || length < 16 {
		length = len(b) // some fonts have a wrong length field for large subtables
	}
	b = b[:length]
	segCountX2 := int(b.U16(6))
	if segCountX2 == 0 || segCountX2%2 != 0 || segCountX2/2 > MaxCmapSegments {
		return nil, errFontFormat("cmap format 4: bad segment count")
	}
	segCount := segCountX2 / 2
	const headerSize = 14
	if headerSize+4*segCountX2+2 > len(b) {
		return nil, errFontFormat("cmap format 4: segments exceed subtable")
	}
	endAt := headerSize
	startAt := endAt + segCountX2 + 2 // reservedPad
	deltaAt := startAt + segCountX2
	rangeAt := deltaAt + segCountX2
	segments := make([]cmapSegment4, segCount)
	var prevEnd int = -1
	for i := range segments {
		seg := cmapSegment4{
			end:         b.U16(endAt + 2*i),
			start:       b.U16(startAt + 2*i),
			delta:       b.U16(deltaAt + 2*i),
			rangeOffset: b.U16(rangeAt + 2*i),
			roAt:        rangeAt + 2*i,
		}
		if seg.start > seg.end || int(seg.start) <= prevEnd {
			return nil, errFontFormat(fmt.Sprintf("cmap format 4: segment %d out of order", i))
		}
		prevEnd = int(seg.end)
		segments[i] = seg
	}
	return format4GlyphIndex{subtable: b, segments: segments}, nil
}

func parseCMapFormat12(b binarySegm) (GlyphIndexMap, error) {
	length := int(b.U32(4))
	if length > len(b) || length < 16 {
		return nil, errFontFormat("cmap format 12: bad length")
	}
	numGroups := int(b.U32(12))
	if numGroups > MaxCmapSegments*4 || 16+12*numGroups > length {
		return nil, errFontFormat("cmap format 12: groups exceed subtable")
	}
	groups := make([]cmapGroup12, numGroups)
	var prevEnd int64 = -1
	for i := range groups {
		rec := b[16+12*i:]
		g := cmapGroup12{start: u32(rec), end: u32(rec[4:]), glyph: u32(rec[8:])}
		if g.start > g.end || int64(g.start) <= prevEnd {
			return nil, errFontFormat(fmt.Sprintf("cmap format 12: group %d out of order", i))
		}
		prevEnd = int64(g.end)
		groups[i] = g
	}
	return format12GlyphIndex{groups: groups}, nil
}
