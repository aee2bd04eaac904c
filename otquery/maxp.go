package otquery

import (
	"github.com/jqpe/font-subset/ot"
)

// MaxPTableInfo is a typed query view over OpenType table 'maxp'.
// For version 1.0 tables, the TrueType profile fields relevant for composite
// glyphs are decoded if present.
type MaxPTableInfo struct {
	VersionFixed uint32
	NumGlyphs    uint16

	// TrueType profile fields (version 1.0 only)
	HasExtendedProfile   bool
	MaxPoints            uint16
	MaxContours          uint16
	MaxCompositePoints   uint16
	MaxCompositeContours uint16
	MaxComponentElements uint16
	MaxComponentDepth    uint16
}

const (
	maxpMinSize = 6
	maxpV10Size = 32
)

// MaxPInfo decodes table 'maxp' from raw bytes.
// Returns (info, true) on success, or (zero, false) if the table is missing or too short.
func MaxPInfo(otf *ot.Font) (MaxPTableInfo, bool) {
	var info MaxPTableInfo
	if otf == nil || otf.MaxP == nil {
		return info, false
	}
	b := otf.MaxP.Binary()
	if len(b) < maxpMinSize {
		return info, false
	}
	info.VersionFixed = ot.U32(b, 0)
	info.NumGlyphs = ot.U16(b, 4)
	if info.VersionFixed != 0x00010000 || len(b) < maxpV10Size {
		return info, true
	}
	info.HasExtendedProfile = true
	info.MaxPoints = ot.U16(b, 6)
	info.MaxContours = ot.U16(b, 8)
	info.MaxCompositePoints = ot.U16(b, 10)
	info.MaxCompositeContours = ot.U16(b, 12)
	info.MaxComponentElements = ot.U16(b, 28)
	info.MaxComponentDepth = ot.U16(b, 30)
	return info, true
}
