package otsubset

import (
	"encoding/binary"
	"fmt"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

// glyphMetrics are the horizontal metrics and the bounding box of a glyph of
// the subset.
type glyphMetrics struct {
	advance uint16
	lsb     int16
	bbox    box
	empty   bool
}

// outlines holds the rewritten glyph outlines of a TrueType subset.
type outlines struct {
	glyf    []byte
	loca    []byte
	long    bool
	metrics []glyphMetrics // by new glyph ID
}

// buildOutlines rewrites the glyph outlines and collects the metrics of the
// subset. For fonts without table 'glyf' only metrics are collected.
func (p *plan) buildOutlines() (*outlines, error) {
	out := &outlines{metrics: make([]glyphMetrics, len(p.order))}
	glyf := p.otf.Glyf()
	datas := make([][]byte, len(p.order))
	for n, g := range p.order {
		m := &out.metrics[n]
		m.empty = true
		if !p.keeps(g) {
			continue
		}
		hm, _ := p.otf.HMtx.HMetrics(g)
		m.advance, m.lsb = hm.AdvanceWidth, hm.LeftSideBearing
		if ig := p.instanced[g]; ig != nil {
			m.advance, m.lsb = ig.advance, ig.lsb
		}
		if glyf == nil || p.emptied(g) {
			continue
		}
		data, err := p.glyphData(glyf, g)
		if err != nil {
			return nil, fmt.Errorf("glyph %d: %w", g, err)
		}
		if len(data) >= 10 {
			m.bbox, m.empty = headerBox(data), false
		}
		datas[n] = data
	}
	if glyf == nil {
		return out, nil
	}
	w := parse.NewBinaryWriter([]byte{})
	offsets := make([]uint32, 0, len(datas)+1)
	for _, d := range datas {
		offsets = append(offsets, uint32(w.Len()))
		w.WriteBytes(d)
		if len(d)&1 != 0 {
			w.WriteUint8(0)
		}
	}
	offsets = append(offsets, uint32(w.Len()))
	out.glyf = w.Bytes()
	out.long = w.Len() > 2*0xffff
	lw := parse.NewBinaryWriter(make([]byte, 0, 4*len(offsets)))
	for _, off := range offsets {
		if out.long {
			lw.WriteUint32(off)
		} else {
			lw.WriteUint16(uint16(off / 2))
		}
	}
	out.loca = lw.Bytes()
	tracer().Debugf("glyf: %d bytes, loca: %d entries, long offsets: %v", len(out.glyf), len(offsets), out.long)
	return out, nil
}

// glyphData returns the glyph data of an old glyph for the subset.
func (p *plan) glyphData(glyf *ot.GlyfTable, g ot.GlyphIndex) ([]byte, error) {
	if ig := p.instanced[g]; ig != nil {
		if ig.empty {
			return nil, nil
		}
		return ig.outline.encode(ig.bbox, p.hinting(), p.newGID), nil
	}
	data, err := glyf.Glyph(g)
	if err != nil {
		return nil, err
	}
	return rewriteGlyph(data, p.hinting(), p.newGID)
}

// hmtx writes the horizontal metrics. Trailing glyphs with the advance of
// their predecessor are stored with side bearings only.
func (o *outlines) hmtx() ([]byte, int) {
	ms := o.metrics
	n := len(ms)
	for n > 1 && ms[n-1].advance == ms[n-2].advance {
		n--
	}
	w := parse.NewBinaryWriter(make([]byte, 0, 4*n+2*(len(ms)-n)))
	for i, m := range ms {
		if i < n {
			w.WriteUint16(m.advance)
		}
		w.WriteInt16(m.lsb)
	}
	return w.Bytes(), n
}

// hhea patches the metrics summary of table 'hhea'.
func (o *outlines) hhea(b []byte, numberOfHMetrics int, outlines bool) ([]byte, error) {
	if len(b) < 36 {
		return nil, fmt.Errorf("hhea: table too short")
	}
	out := append([]byte(nil), b...)
	var advMax uint16
	minLSB, minRSB, maxExtent := int16(0x7fff), int16(0x7fff), int16(-0x8000)
	inked := false
	for _, m := range o.metrics {
		advMax = max(advMax, m.advance)
		if m.empty {
			continue
		}
		inked = true
		width := int(m.bbox.xMax) - int(m.bbox.xMin)
		minLSB = min(minLSB, m.lsb)
		minRSB = min(minRSB, int16(int(m.advance)-int(m.lsb)-width))
		maxExtent = max(maxExtent, int16(int(m.lsb)+width))
	}
	binary.BigEndian.PutUint16(out[10:], advMax)
	if outlines {
		if !inked {
			minLSB, minRSB, maxExtent = 0, 0, 0
		}
		binary.BigEndian.PutUint16(out[12:], uint16(minLSB))
		binary.BigEndian.PutUint16(out[14:], uint16(minRSB))
		binary.BigEndian.PutUint16(out[16:], uint16(maxExtent))
	}
	binary.BigEndian.PutUint16(out[ot.HHeaNumberOfHMetricsOffset:], uint16(numberOfHMetrics))
	return out, nil
}

// head patches the font bounding box and the format of table 'loca'.
func (o *outlines) head(b []byte, outlines bool) ([]byte, error) {
	if len(b) < 54 {
		return nil, fmt.Errorf("head: table too short")
	}
	out := append([]byte(nil), b...)
	binary.BigEndian.PutUint32(out[ot.HeadCheckSumAdjustmentOffset:], 0)
	if !outlines {
		return out, nil
	}
	var bb box
	inked := false
	for _, m := range o.metrics {
		if m.empty {
			continue
		}
		if !inked {
			bb, inked = m.bbox, true
		} else {
			bb = bb.union(m.bbox)
		}
	}
	w := parse.NewBinaryWriter(make([]byte, 0, 8))
	bb.write(w)
	copy(out[36:44], w.Bytes())
	var format uint16
	if o.long {
		format = 1
	}
	binary.BigEndian.PutUint16(out[ot.HeadIndexToLocFormatOffset:], format)
	return out, nil
}

// maxp patches the number of glyphs.
func maxp(b []byte, numGlyphs int) ([]byte, error) {
	if len(b) < 6 {
		return nil, fmt.Errorf("maxp: table too short")
	}
	out := append([]byte(nil), b...)
	binary.BigEndian.PutUint16(out[4:], uint16(numGlyphs))
	return out, nil
}
