package otquery

import (
	"fmt"
	"iter"

	"github.com/jqpe/font-subset/ot"
	"golang.org/x/text/encoding/unicode"
)

// PlatformID is the platform of a name record.
type PlatformID uint16

const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1 // not supported
	PlatformIDWindows   PlatformID = 3
)

// EncodingID is the platform specific encoding of a name record.
type EncodingID uint16

const (
	EncodingIDWindowsSymbol EncodingID = 0
	EncodingIDWindowsBMP    EncodingID = 1
	EncodingIDUnicodeBMP    EncodingID = 3
	EncodingIDUnicodeFull   EncodingID = 4
	EncodingIDWindowsFull   EncodingID = 10
)

// Well known name IDs.
const (
	NameIDCopyright         uint16 = 0
	NameIDFamily            uint16 = 1
	NameIDSubfamily         uint16 = 2
	NameIDUniqueID          uint16 = 3
	NameIDFull              uint16 = 4
	NameIDVersion           uint16 = 5
	NameIDPostScript        uint16 = 6
	NameIDTypographicFamily uint16 = 16
	NameIDTypographicSubfam uint16 = 17
)

// nameKey identifies a NameRecord entry in OpenType table 'name'.
type nameKey struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     uint16
}

// NamesRange yields decoded `(nameID, value)` pairs from a font's OpenType
// `name` table, in the order of the name records.
//
// Only records with a Unicode encoding are yielded, and records which cannot be
// decoded or decode to an empty string are skipped. A name ID may be yielded more
// than once, e.g. for different languages.
func NamesRange(otf *ot.Font) iter.Seq2[uint16, string] {
	return func(yield func(uint16, string) bool) {
		if otf == nil || otf.Name == nil {
			tracer().Debugf("no name table found in font")
			return
		}
		for _, rec := range otf.Name.Records {
			key := nameKey{
				Platform: PlatformID(rec.PlatformID),
				Encoding: EncodingID(rec.EncodingID),
				Language: rec.LanguageID,
				Name:     rec.NameID,
			}
			if !isSupportedNameEncoding(key) {
				continue
			}
			value, err := decodeNameUTF16(rec.Value)
			if err != nil || value == "" {
				continue
			}
			if !yield(key.Name, value) {
				return
			}
		}
	}
}

// Names collects the Unicode names of a font by name ID. If a name ID occurs
// more than once, an English (US) record is preferred, otherwise the first
// record wins.
func Names(otf *ot.Font) map[uint16]string {
	names := make(map[uint16]string)
	english := make(map[uint16]bool)
	if otf == nil || otf.Name == nil {
		return names
	}
	for _, rec := range otf.Name.Records {
		key := nameKey{PlatformID(rec.PlatformID), EncodingID(rec.EncodingID), rec.LanguageID, rec.NameID}
		if !isSupportedNameEncoding(key) || english[key.Name] {
			continue
		}
		value, err := decodeNameUTF16(rec.Value)
		if err != nil || value == "" {
			continue
		}
		isEnglish := key.Platform == PlatformIDWindows && key.Language == 0x409
		if _, ok := names[key.Name]; !ok || isEnglish {
			names[key.Name] = value
			english[key.Name] = isEnglish
		}
	}
	return names
}

func isSupportedNameEncoding(key nameKey) bool {
	switch key.Platform {
	case PlatformIDUnicode:
		return true
	case PlatformIDWindows:
		return key.Encoding == EncodingIDWindowsSymbol || key.Encoding == EncodingIDWindowsBMP ||
			key.Encoding == EncodingIDWindowsFull
	}
	return false
}

func decodeNameUTF16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	s, err := enc.NewDecoder().Bytes(str)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}
