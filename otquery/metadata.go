package otquery

import (
	"fmt"

	"github.com/jqpe/font-subset/ot"
)

// Metadata is a read-only projection of a font, as needed for reporting and
// for filtering codepoints by font support.
type Metadata struct {
	GlyphCount    int
	Names         map[uint16]string // by name ID
	Italic        bool
	Weight        int // OS/2 weight class, 400 if unknown
	Width         int // OS/2 width class (stretch), 5 if unknown
	UnitsPerEm    int
	Outlines      string // "TrueType" or "CFF"
	Metrics       FontMetricsInfo
	IsVariable    bool
	VariationAxes []Axis
	UnicodeRanges []UnicodeRange // ascending, non-overlapping
}

// Axis is a variation axis of a variable font.
type Axis struct {
	Tag     string
	Min     float64
	Max     float64
	Default float64
}

// UnicodeRange is an inclusive range of codepoints supported by a font.
type UnicodeRange struct {
	Start rune
	End   rune
}

// Contains reports whether r is part of the range.
func (ur UnicodeRange) Contains(r rune) bool {
	return r >= ur.Start && r <= ur.End
}

// DisplayName returns the typographic family name of the font, falling back
// to the family name.
func (md Metadata) DisplayName() string {
	if name, ok := md.Names[NameIDTypographicFamily]; ok {
		return name
	}
	return md.Names[NameIDFamily]
}

// Supports reports whether codepoint r is mapped by the font's cmap.
func (md Metadata) Supports(r rune) bool {
	for _, ur := range md.UnicodeRanges {
		if ur.Contains(r) {
			return true
		}
		if ur.Start > r {
			break
		}
	}
	return false
}

// Axis returns the variation axis with the given tag.
func (md Metadata) Axis(tag string) (Axis, bool) {
	for _, a := range md.VariationAxes {
		if a.Tag == tag {
			return a, true
		}
	}
	return Axis{}, false
}

// ReadMetadata reads the metadata of a single font. raw has to be an sfnt font
// binary; for font collections, the first font with names is used.
func ReadMetadata(raw []byte) (Metadata, error) {
	all, err := ReadAll(raw)
	if err != nil {
		return Metadata{}, err
	}
	if len(all) == 0 {
		return Metadata{}, fmt.Errorf("font has no names")
	}
	return all[0], nil
}

// ReadAll reads the metadata of every font in raw, which may be a single font or
// a font collection. Fonts without any names are skipped.
func ReadAll(raw []byte) ([]Metadata, error) {
	fonts, err := ot.ParseCollection(raw)
	if err != nil {
		return nil, err
	}
	all := make([]Metadata, 0, len(fonts))
	for i, otf := range fonts {
		md := FontInfo(otf)
		if len(md.Names) == 0 {
			tracer().Infof("skipping font %d without names", i)
			continue
		}
		all = append(all, md)
	}
	return all, nil
}

// FontInfo projects a parsed font onto its Metadata.
func FontInfo(otf *ot.Font) Metadata {
	md := Metadata{
		GlyphCount: otf.NumGlyphs(),
		Names:      Names(otf),
		Weight:     400,
		Width:      5,
		IsVariable: otf.IsVariable(),
	}
	if otf.Head != nil {
		md.UnitsPerEm = int(otf.Head.UnitsPerEm)
		md.Metrics = FontMetrics(otf)
	}
	md.Outlines = FontType(otf)
	if otf.OS2 != nil {
		md.Italic = otf.OS2.IsItalic()
		if otf.OS2.WeightClass != 0 {
			md.Weight = int(otf.OS2.WeightClass)
		}
		if otf.OS2.WidthClass != 0 {
			md.Width = int(otf.OS2.WidthClass)
		}
	} else if otf.Head != nil {
		md.Italic = otf.Head.MacStyle&2 != 0
	}
	if md.IsVariable {
		for _, a := range otf.FVar.Axes {
			md.VariationAxes = append(md.VariationAxes, Axis{
				Tag:     a.Tag.String(),
				Min:     a.Min,
				Max:     a.Max,
				Default: a.Default,
			})
		}
	}
	for _, cr := range otf.CMap.Ranges() {
		md.UnicodeRanges = append(md.UnicodeRanges, UnicodeRange{Start: cr.Start, End: cr.End})
	}
	tracer().Debugf("font %q: %d glyphs, %d unicode ranges", md.DisplayName(), md.GlyphCount,
		len(md.UnicodeRanges))
	return md
}
