package otquery

import (
	"github.com/jqpe/font-subset/ot"
)

// HeadTableInfo is a typed query view over OpenType table 'head'.
// Values are decoded directly from the raw table bytes.
type HeadTableInfo struct {
	MajorVersion       uint16
	MinorVersion       uint16
	FontRevision       float64
	CheckSumAdjustment uint32
	MagicNumber        uint32
	Flags              uint16
	UnitsPerEm         uint16
	Created            int64 // seconds since 1904-01-01
	Modified           int64
	XMin, YMin         int16
	XMax, YMax         int16
	MacStyle           uint16
	IndexToLocFormat   int16
}

const headTableSize = 54

// HeadInfo decodes table 'head' from raw bytes.
// Returns (info, true) on success, or (zero, false) if the table is missing or too short.
func HeadInfo(otf *ot.Font) (HeadTableInfo, bool) {
	var info HeadTableInfo
	if otf == nil || otf.Head == nil {
		return info, false
	}
	b := otf.Head.Binary()
	if len(b) < headTableSize {
		return info, false
	}
	info.MajorVersion = ot.U16(b, 0)
	info.MinorVersion = ot.U16(b, 2)
	info.FontRevision = ot.Fixed(ot.U32(b, 4))
	info.CheckSumAdjustment = ot.U32(b, ot.HeadCheckSumAdjustmentOffset)
	info.MagicNumber = ot.U32(b, 12)
	info.Flags = ot.U16(b, 16)
	info.UnitsPerEm = ot.U16(b, 18)
	info.Created = int64(uint64(ot.U32(b, 20))<<32 | uint64(ot.U32(b, 24)))
	info.Modified = int64(uint64(ot.U32(b, 28))<<32 | uint64(ot.U32(b, 32)))
	info.XMin, info.YMin = int16(ot.U16(b, 36)), int16(ot.U16(b, 38))
	info.XMax, info.YMax = int16(ot.U16(b, 40)), int16(ot.U16(b, 42))
	info.MacStyle = ot.U16(b, 44)
	info.IndexToLocFormat = int16(ot.U16(b, ot.HeadIndexToLocFormatOffset))
	return info, true
}
