package woff2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"maps"
	"slices"

	"github.com/andybalholm/brotli"
	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

const headerSize = 48

// knownTags are the tags which have a 6-bit index in the WOFF2 table directory.
var knownTags = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

const arbitraryTag = 63

const (
	headFlagsOffset   = 16
	headFlagConverted = 0x0800
)

// Transform versions. For glyf and loca version 0 is the glyf transform,
// version 3 the null transform. For all other tables version 0 is the null
// transform.
const (
	transformNone         = 0
	transformNoneGlyfLoca = 3
)

var (
	errCollection = errors.New("font collections are not supported")
	errEmptyFont  = errors.New("font has no tables")
	errNoHead     = errors.New("font has no valid head table")
)

func knownTagIndex(tag ot.Tag) int {
	return slices.Index(knownTags, tag.String())
}

// Encode compresses a raw sfnt font to WOFF2.
func Encode(sfnt []byte) ([]byte, error) {
	if ot.IsCollection(sfnt) {
		return nil, &CodecError{Op: "compress", Err: errCollection}
	}
	otf, err := ot.Parse(sfnt)
	if err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	tables := otf.Tables()
	if len(tables) == 0 {
		return nil, &CodecError{Op: "compress", Err: errEmptyFont}
	}
	if tables, err = converted(otf.Header.FontType, tables); err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	tags := directoryOrder(tables)
	//
	// table directory and uncompressed table stream
	var dir []byte
	var stream bytes.Buffer
	totalSfntSize := uint32(12 + 16*len(tags))
	for _, tag := range tags {
		data := tables[tag]
		version := transformNone
		if tag == ot.T("glyf") || tag == ot.T("loca") {
			version = transformNoneGlyfLoca
		}
		if inx := knownTagIndex(tag); inx >= 0 {
			dir = append(dir, byte(version<<6|inx))
		} else {
			dir = append(dir, byte(version<<6|arbitraryTag))
			dir = append(dir, byte(tag>>24), byte(tag>>16), byte(tag>>8), byte(tag))
		}
		dir = appendUIntBase128(dir, uint32(len(data)))
		stream.Write(data)
		totalSfntSize += pad4(uint32(len(data)))
	}
	//
	// single Brotli stream for all tables
	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	if err := bw.Close(); err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	//
	length := pad4(uint32(headerSize + len(dir) + compressed.Len()))
	w := parse.NewBinaryWriter(make([]byte, 0, length))
	w.WriteUint32(Signature)
	w.WriteUint32(otf.Header.FontType)
	w.WriteUint32(length)
	w.WriteUint16(uint16(len(tags)))
	w.WriteUint16(0) // reserved
	w.WriteUint32(totalSfntSize)
	w.WriteUint32(uint32(compressed.Len()))
	major, minor := fontVersion(otf)
	w.WriteUint16(major)
	w.WriteUint16(minor)
	w.WriteUint32(0) // metaOffset
	w.WriteUint32(0) // metaLength
	w.WriteUint32(0) // metaOrigLength
	w.WriteUint32(0) // privOffset
	w.WriteUint32(0) // privLength
	w.WriteBytes(dir)
	w.WriteBytes(compressed.Bytes())
	for w.Len() < int64(length) {
		w.WriteUint8(0)
	}
	tracer().Debugf("encoded sfnt of %d bytes to woff2 of %d bytes", len(sfnt), length)
	return w.Bytes(), nil
}

// converted returns the tables with a copy of table head, marked as converted
// by setting bit 11 of its flags. Its checksum adjustment is the one of the
// sfnt a decoder reconstructs from the tables.
func converted(fontType uint32, tables map[ot.Tag][]byte) (map[ot.Tag][]byte, error) {
	head := tables[ot.T("head")]
	if len(head) < headFlagsOffset+2 {
		return nil, errNoHead
	}
	head = bytes.Clone(head)
	flags := binary.BigEndian.Uint16(head[headFlagsOffset:])
	binary.BigEndian.PutUint16(head[headFlagsOffset:], flags|headFlagConverted)
	out := maps.Clone(tables)
	out[ot.T("head")] = head
	sfnt := ot.Assemble(fontType, out)
	for i := 0; i < int(binary.BigEndian.Uint16(sfnt[4:])); i++ {
		rec := sfnt[12+16*i:]
		if ot.Tag(binary.BigEndian.Uint32(rec)) == ot.T("head") {
			at := binary.BigEndian.Uint32(rec[8:]) + ot.HeadCheckSumAdjustmentOffset
			copy(head[ot.HeadCheckSumAdjustmentOffset:], sfnt[at:at+4])
			break
		}
	}
	return out, nil
}

// directoryOrder sorts tags ascending, except that loca immediately follows glyf.
func directoryOrder(tables map[ot.Tag][]byte) []ot.Tag {
	tags := make([]ot.Tag, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	loca := slices.Index(tags, ot.T("loca"))
	glyf := slices.Index(tags, ot.T("glyf"))
	if loca >= 0 && glyf >= 0 {
		tags = slices.Delete(tags, loca, loca+1)
		tags = slices.Insert(tags, glyf+1, ot.T("loca"))
	}
	return tags
}

// fontVersion splits the font revision of table head into major and minor
// version.
func fontVersion(otf *ot.Font) (uint16, uint16) {
	if otf.Head == nil {
		return 0, 0
	}
	b := otf.Head.Binary()
	if len(b) < 8 {
		return 0, 0
	}
	return ot.U16(b, 4), ot.U16(b, 6)
}

func pad4(n uint32) uint32 {
	return (n + 3) &^ 3
}
