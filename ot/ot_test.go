package ot

import (
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	tag := Tag(0x636d6170)
	if tag.String() != "cmap" {
		t.Errorf("expected tag 0x636d6170 to be 'cmap', is %s", tag.String())
	}
	if MakeTag([]byte("cmap")) != tag {
		t.Errorf("expected tag MakeTag(cmap) to be 'cmap', is %s", MakeTag([]byte("cmap")))
	}
	if T("cmap") != tag {
		t.Errorf("expected tag T(cmap) to be 'cmap', is %s", T("cmap"))
	}
	if T("CFF").String() != "CFF " {
		t.Errorf("expected short tag to be padded with spaces, is %q", T("CFF").String())
	}
	if T("wght") != Tag(0x77676874) {
		t.Errorf("expected 'wght' to pack big endian, is %x", uint32(T("wght")))
	}
	if !T("OS/2").IsValid() || Tag(0x00010000).IsValid() {
		t.Error("tag validity check failed")
	}
}

func TestTableName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.ot")
	defer teardown()
	//
	tb := tableBase{}
	tb.name = 0x636d6170
	if s := tb.Self().NameTag().String(); s != "cmap" {
		t.Errorf("expected table name to be cmap, is %v", s)
	}
	if tb.Self().AsCMap() != nil {
		t.Error("table without self reference must not convert to cmap")
	}
}

func TestFixed(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 400, 100.5, -12.25, 0.000015} {
		if d := math.Abs(Fixed(ToFixed(f)) - f); d > 1.0/65536 {
			t.Errorf("fixed conversion of %g differs by %g", f, d)
		}
	}
	if ToFixed(400) != 400<<16 {
		t.Errorf("expected 400.0 to be %x, is %x", 400<<16, ToFixed(400))
	}
}

func TestChecksum(t *testing.T) {
	if sum := CalcChecksum([]byte{0, 0, 0, 1, 0, 0, 0, 2}); sum != 3 {
		t.Errorf("expected checksum 3, is %d", sum)
	}
	if sum := CalcChecksum([]byte{1}); sum != 0x01000000 {
		t.Errorf("expected padded checksum 0x01000000, is %x", sum)
	}
}

func TestComponents(t *testing.T) {
	glyph := []byte{
		0xff, 0xff, 0, 0, 0, 0, 0, 0, 0, 0, // header, numberOfContours = -1
		0x00, 0x23, 0x00, 0x05, 0, 0, 0, 0, // words, xy, more components; glyph 5
		0x00, 0x0a, 0x00, 0x07, 0, 0, 0x40, 0x00, // xy, scale; glyph 7
	}
	refs, err := Components(glyph)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 || refs[0].Glyph != 5 || refs[1].Glyph != 7 {
		t.Fatalf("unexpected components %v", refs)
	}
	if refs[1].Offset != 20 {
		t.Errorf("expected offset of second component glyph index to be 20, is %d", refs[1].Offset)
	}
	if refs, _ := Components(glyph[:10]); refs != nil {
		t.Error("truncated glyph should not have components")
	}
	if refs, _ := Components([]byte{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}); refs != nil {
		t.Error("simple glyph should not have components")
	}
}
