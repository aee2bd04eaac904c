package otsubset

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

// --- Table 'name' ----------------------------------------------------------

// referencedNameIDs returns name IDs which tables 'fvar' and 'STAT' refer to.
// These are retained regardless of the name IDs of the subset input.
func (p *plan) referencedNameIDs() map[uint16]bool {
	ids := make(map[uint16]bool)
	if p.otf.FVar != nil && !(p.inst != nil && p.inst.isFull()) {
		for _, a := range p.otf.FVar.Axes {
			ids[a.NameID] = true
		}
		for _, ni := range p.otf.FVar.Instances {
			ids[ni.SubfamilyNameID] = true
			if ni.PostScriptNameID != 0 && ni.PostScriptNameID != 0xffff {
				ids[ni.PostScriptNameID] = true
			}
		}
	}
	if t := p.otf.Table(ot.T("STAT")); t != nil && p.keepsTable(ot.T("STAT")) {
		for _, id := range statNameIDs(t.Binary()) {
			ids[id] = true
		}
	}
	return ids
}

// statNameIDs collects the name IDs of design axes and axis values of table
// 'STAT'. Malformed parts are skipped.
func statNameIDs(b []byte) []uint16 {
	if len(b) < 18 {
		return nil
	}
	var ids []uint16
	axisSize, axisCount := int(ot.U16(b, 4)), int(ot.U16(b, 6))
	axesAt := int(ot.U32(b, 8))
	for i := 0; i < axisCount; i++ {
		at := axesAt + i*axisSize + 4
		if axisSize < 6 || at+2 > len(b) {
			break
		}
		ids = append(ids, ot.U16(b, at))
	}
	valueCount, valuesAt := int(ot.U16(b, 12)), int(ot.U32(b, 14))
	for i := 0; i < valueCount; i++ {
		at := valuesAt + 2*i
		if at+2 > len(b) {
			break
		}
		value := valuesAt + int(ot.U16(b, at))
		if value+8 > len(b) {
			continue
		}
		// every axis value format has its name ID at the same position
		ids = append(ids, ot.U16(b, value+6))
	}
	if ot.U16(b, 2) >= 1 && len(b) >= 20 {
		ids = append(ids, ot.U16(b, 18))
	}
	return ids
}

// retainsName reports whether a name record is part of the subset.
func (p *plan) retainsName(r ot.NameRecord, referenced map[uint16]bool) bool {
	if !p.nameIDs.has(uint32(r.NameID)) && !referenced[r.NameID] {
		return false
	}
	if !r.IsUnicode() && p.flags&FlagNameLegacy == 0 {
		return false
	}
	if r.PlatformID == 3 && !p.nameLangs.has(uint32(r.LanguageID)) {
		return false
	}
	return true
}

// name writes a format 0 'name' table with the retained records. Records are
// sorted and identical strings are stored once.
func (p *plan) name([]byte) ([]byte, error) {
	if p.otf.Name == nil {
		return nil, fmt.Errorf("name: table not readable")
	}
	referenced := p.referencedNameIDs()
	var records []ot.NameRecord
	for _, r := range p.otf.Name.Records {
		if p.retainsName(r, referenced) {
			records = append(records, r)
		}
	}
	slices.SortStableFunc(records, func(a, b ot.NameRecord) int {
		return cmp.Or(
			cmp.Compare(a.PlatformID, b.PlatformID),
			cmp.Compare(a.EncodingID, b.EncodingID),
			cmp.Compare(a.LanguageID, b.LanguageID),
			cmp.Compare(a.NameID, b.NameID),
		)
	})
	records = slices.CompactFunc(records, func(a, b ot.NameRecord) bool {
		return a.PlatformID == b.PlatformID && a.EncodingID == b.EncodingID &&
			a.LanguageID == b.LanguageID && a.NameID == b.NameID
	})
	storage := parse.NewBinaryWriter([]byte{})
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0)
	w.WriteUint16(uint16(len(records)))
	w.WriteUint16(uint16(6 + 12*len(records)))
	for _, r := range records {
		at := bytes.Index(storage.Bytes(), r.Value)
		if at < 0 || len(r.Value) == 0 {
			at = int(storage.Len())
			storage.WriteBytes(r.Value)
		}
		w.WriteUint16(r.PlatformID)
		w.WriteUint16(r.EncodingID)
		w.WriteUint16(r.LanguageID)
		w.WriteUint16(r.NameID)
		w.WriteUint16(uint16(len(r.Value)))
		w.WriteUint16(uint16(at))
	}
	w.WriteBytes(storage.Bytes())
	tracer().Debugf("name: %d of %d records retained", len(records), len(p.otf.Name.Records))
	return w.Bytes(), nil
}

// --- Table 'post' ----------------------------------------------------------

const (
	postVersion1 = 0x00010000
	postVersion2 = 0x00020000
	postVersion3 = 0x00030000
)

// post writes table 'post'. Glyph names are retained only if asked for and
// if the font has them; otherwise a version 3 table is written.
func (p *plan) post(b []byte) ([]byte, error) {
	if len(b) < ot.PostHeaderSize {
		return nil, fmt.Errorf("post: table too short")
	}
	version := ot.U32(b, 0)
	names := p.flags&FlagGlyphNames != 0 && (version == postVersion1 || version == postVersion2)
	w := parse.NewBinaryWriter([]byte{})
	if !names {
		w.WriteUint32(postVersion3)
		w.WriteBytes(b[4:ot.PostHeaderSize])
		return w.Bytes(), nil
	}
	w.WriteUint32(postVersion2)
	w.WriteBytes(b[4:ot.PostHeaderSize])
	w.WriteUint16(uint16(len(p.order)))
	var custom [][]byte
	index := make(map[string]uint16)
	for _, g := range p.order {
		var inx uint16 // .notdef
		switch {
		case !p.keeps(g):
		case version == postVersion1:
			if g < ot.StandardNames {
				inx = uint16(g)
			}
		default:
			old, _ := p.otf.Post.NameIndex(g)
			if old < ot.StandardNames {
				inx = old
				break
			}
			name, ok := p.otf.Post.CustomName(old)
			if !ok {
				break
			}
			n, seen := index[string(name)]
			if !seen {
				n = uint16(ot.StandardNames + len(custom))
				index[string(name)] = n
				custom = append(custom, name)
			}
			inx = n
		}
		w.WriteUint16(inx)
	}
	for _, name := range custom {
		w.WriteUint8(uint8(len(name)))
		w.WriteBytes(name)
	}
	return w.Bytes(), nil
}

// --- Table 'OS/2' ----------------------------------------------------------

// os2 patches the range of codepoints of the subset and, when instancing, the
// weight and width classes.
func (p *plan) os2(b []byte) ([]byte, error) {
	if len(b) < ot.OS2LastCharIndexOffset+2 {
		return b, nil
	}
	out := append([]byte(nil), b...)
	first, last := rune(0xffff), rune(0)
	for r := range p.unicodes {
		first, last = min(first, r), max(last, r)
	}
	if len(p.unicodes) == 0 {
		first = 0
	}
	binary.BigEndian.PutUint16(out[ot.OS2FirstCharIndexOffset:], uint16(min(first, 0xffff)))
	binary.BigEndian.PutUint16(out[ot.OS2LastCharIndexOffset:], uint16(min(last, 0xffff)))
	if p.inst != nil {
		out = p.inst.os2(out)
	}
	return out, nil
}
