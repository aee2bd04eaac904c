package ot

import (
	"bytes"
	"fmt"

	gtot "github.com/go-text/typesetting/font/opentype"
)

// IsCollection reports whether b starts with the header of a font collection ('ttcf').
func IsCollection(b []byte) bool {
	return len(b) >= 12 && u32(b) == FontTypeCollection
}

// ParseCollection parses every font of a font collection. Each font is extracted into
// a standalone sfnt binary, i.e. tables shared between fonts of the collection are
// duplicated. For a single font (no collection), a slice with one font is returned.
func ParseCollection(b []byte) ([]*Font, error) {
	if !IsCollection(b) {
		otf, err := Parse(b)
		if err != nil {
			return nil, err
		}
		return []*Font{otf}, nil
	}
	faces, err := SplitCollection(b)
	if err != nil {
		return nil, err
	}
	fonts := make([]*Font, 0, len(faces))
	for i, face := range faces {
		otf, err := Parse(face)
		if err != nil {
			return nil, fmt.Errorf("font %d of collection: %w", i, err)
		}
		fonts = append(fonts, otf)
	}
	return fonts, nil
}

// SplitCollection extracts the fonts of a font collection as standalone sfnt binaries.
//
// The table directories of the collection are read here, the table data is loaded
// with the loaders of go-text/typesetting, which do the bounds checking for us.
func SplitCollection(b []byte) ([][]byte, error) {
	dirs, err := collectionDirectories(b)
	if err != nil {
		return nil, err
	}
	loaders, err := gtot.NewLoaders(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAFont, err)
	}
	if len(loaders) != len(dirs) {
		return nil, errFontFormat(fmt.Sprintf("collection has %d fonts, but %d table directories",
			len(loaders), len(dirs)))
	}
	faces := make([][]byte, len(dirs))
	for i, dir := range dirs {
		tables := make(map[Tag][]byte, len(dir.tags))
		for _, tag := range dir.tags {
			data, err := loaders[i].RawTable(gtot.Tag(tag))
			if err != nil {
				return nil, fmt.Errorf("font %d of collection, table %s: %w", i, tag, err)
			}
			tables[tag] = data
		}
		faces[i] = Assemble(dir.fontType, tables)
		tracer().Debugf("font %d of collection: %d tables", i, len(tables))
	}
	return faces, nil
}

type collectionDirectory struct {
	fontType uint32
	tags     []Tag
}

// collectionDirectories reads the TTC header and the offset table of every font in it.
func collectionDirectories(b []byte) ([]collectionDirectory, error) {
	src := binarySegm(b)
	if !IsCollection(b) {
		return nil, fmt.Errorf("%w: missing collection header", ErrNotAFont)
	}
	numFonts := int(src.U32(8))
	if numFonts == 0 || numFonts > MaxTableCount {
		return nil, errFontFormat(fmt.Sprintf("implausible number of fonts in collection: %d", numFonts))
	}
	offsets, err := src.view(12, 4*numFonts)
	if err != nil {
		return nil, errFontFormat("collection header truncated")
	}
	dirs := make([]collectionDirectory, numFonts)
	for i := range dirs {
		at := int(u32(offsets[4*i:]))
		header, err := src.view(at, 12)
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("font %d of collection: offset table out of bounds", i))
		}
		dirs[i].fontType = u32(header)
		n := int(u16(header[4:]))
		records, err := src.view(at+12, 16*n)
		if err != nil || n > MaxTableCount {
			return nil, errFontFormat(fmt.Sprintf("font %d of collection: table records out of bounds", i))
		}
		for r := 0; r < n; r++ {
			dirs[i].tags = append(dirs[i].tags, MakeTag(records[16*r:16*r+4]))
		}
	}
	return dirs, nil
}
