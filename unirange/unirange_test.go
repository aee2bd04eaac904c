package unirange

import (
	"errors"
	"math/rand"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/tdewolff/parse/v2"
)

func TestParse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	cases := []struct {
		text string
		want Expression
	}{
		{"", nil},
		{" , ,", nil},
		{"41", Expression{{Lo: 0x41, Hi: 0x41}}},
		{"0-7f", Expression{{Lo: 0, Hi: 0x7f}}},
		{"0000-007F", Expression{{Lo: 0, Hi: 0x7f}}},
		{" 0-0f, ff ,8ff-ffff", Expression{{Lo: 0, Hi: 0xf}, {Lo: 0xff, Hi: 0xff}, {Lo: 0x8ff, Hi: 0xffff}}},
		{"0-7f,!20-2f", Expression{{Lo: 0, Hi: 0x7f}, {Exclude: true, Lo: 0x20, Hi: 0x2f}}},
		{"! 1f600 - 1f64f,", Expression{{Exclude: true, Lo: 0x1f600, Hi: 0x1f64f}}},
		{"10ffff", Expression{{Lo: 0x10ffff, Hi: 0x10ffff}}},
	}
	for _, c := range cases {
		got, err := Parse(c.text)
		if err != nil {
			t.Errorf("parse %q: unexpected error %v", c.text, err)
			continue
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("parse %q mismatch (-want +got):\n%s", c.text, diff)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	cases := []struct {
		text, term, reason string
	}{
		{"zz-10", "zz-10", "bad hex digit"},
		{"41, 7f-20", "7f-20", "interval is inverted"},
		{"110000", "110000", "codepoint beyond U+10FFFF"},
		{"0-1-2", "0-1-2", "more than one separator"},
		{"1234567", "1234567", "more than 6 hex digits"},
		{"20-", "20-", "missing bound"},
		{"!", "!", "missing bound"},
		{"u+41", "u+41", "bad hex digit"},
		{"41 42", "41 42", "unexpected character"},
	}
	for _, c := range cases {
		_, err := Parse(c.text)
		var malformed *MalformedRangeError
		if !errors.As(err, &malformed) {
			t.Errorf("parse %q: expected MalformedRangeError, have %v", c.text, err)
			continue
		}
		if malformed.Term != c.term || malformed.Reason != c.reason {
			t.Errorf("parse %q: expected term %q (%s), have %q (%s)", c.text,
				c.term, c.reason, malformed.Term, malformed.Reason)
		}
		var perr *parse.Error
		if !errors.As(err, &perr) || perr.Line != 1 {
			t.Errorf("parse %q: expected positional error on line 1, have %v", c.text, perr)
		}
	}
}

func TestRender(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	expr := Expression{{Lo: 0, Hi: 0x7f}, {Exclude: true, Lo: 0x20, Hi: 0x2f}, {Lo: 0x1F600, Hi: 0x1F600}}
	if s := Render(expr); s != "0-7f,!20-2f,1f600" {
		t.Errorf("unexpected rendering %q", s)
	}
	if s := expr.Excluding().String(); s != "!0-7f,!20-2f,!1f600" {
		t.Errorf("unexpected rendering of exclusions %q", s)
	}
	if !expr[0].Contains(0x41) || expr[0].IsSingle() || !expr[2].IsSingle() {
		t.Error("term predicates broken")
	}
}

func TestRenderParseIdempotence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	for _, text := range []string{"0-7f", "0000-007F , !0020-002F", "ff,0-f,,!a", "", "1F600-1F64F,!1F610"} {
		once := MustParse(text)
		twice := MustParse(Render(once))
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("parse(render(parse(%q))) mismatch (-want +got):\n%s", text, diff)
		}
	}
}

func TestResolveSetAlgebra(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	set, err := ParseSet("0-7f,!20-2f")
	if err != nil {
		t.Fatal(err)
	}
	for r := rune(0); r <= 0x7f; r++ {
		excluded := r < 0x30 || r == 0x7f // controls and 20-2f
		if set.Contains(r) == excluded {
			t.Errorf("%#U: expected membership %v", r, !excluded)
		}
	}
	if set.Len() != 0x7f-0x30 {
		t.Errorf("expected %d codepoints, have %d", 0x7f-0x30, set.Len())
	}
	// order of terms does not matter
	other := MustParse("!20-2f, 40-7f, 0-3f").Resolve()
	if !set.Equal(other) {
		t.Errorf("expected equal sets, have %s and %s", set, other)
	}
	// surrogates are no codepoints
	if s := MustParse("d7ff-e000").Resolve(); s.Len() != 2 {
		t.Errorf("expected surrogates to be dropped, have %s", s)
	}
	if s := MustParse("!0-10ffff,41").Resolve(); !s.IsEmpty() {
		t.Errorf("expected empty set, have %s", s)
	}
}

func TestCompress(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	expr := Compress(NewSet(0x45, 0x41, 0x43, 0x42, 0x43))
	want := Expression{{Lo: 0x41, Hi: 0x43}, {Lo: 0x45, Hi: 0x45}}
	if diff := cmp.Diff(want, expr); diff != "" {
		t.Errorf("compress mismatch (-want +got):\n%s", diff)
	}
	if expr.String() != "41-43,45" {
		t.Errorf("unexpected rendering %q", expr.String())
	}
	if len(Compress(Set{})) != 0 {
		t.Error("empty set compresses to empty expression")
	}
}

func TestCompressRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		var runes []rune
		for n := rnd.Intn(300); n > 0; n-- {
			r := rune(rnd.Intn(0x3000))
			if isUnwanted(r) {
				continue
			}
			runes = append(runes, r)
			if rnd.Intn(3) == 0 { // make runs
				runes = append(runes, r+1, r+2)
			}
		}
		s := NewSet(runes...).Filter(func(r rune) bool { return !isUnwanted(r) })
		expr := Compress(s)
		if got := expr.Resolve(); !got.Equal(s) {
			t.Fatalf("round trip failed for %s: have %s", s, got)
		}
		for j := 1; j < len(expr); j++ { // one term per maximal run
			if expr[j].Lo <= expr[j-1].Hi+1 {
				t.Fatalf("terms %s and %s should have been merged", expr[j-1], expr[j])
			}
		}
	}
}

func TestSetOperations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	a, b := NewSet('a', 'c', 'e'), NewSet('b', 'c', 'f')
	u := a.Union(b)
	if diff := cmp.Diff([]rune("abcef"), u.Runes()); diff != "" {
		t.Errorf("union mismatch (-want +got):\n%s", diff)
	}
	if u.Text() != "abcef" {
		t.Errorf("unexpected text %q", u.Text())
	}
	table := u.RangeTable()
	if !unicode.Is(table, 'e') || unicode.Is(table, 'd') {
		t.Error("range table does not match set")
	}
	n := 0
	for range u.All() {
		n++
	}
	if n != u.Len() {
		t.Errorf("iterator yields %d runes, set has %d", n, u.Len())
	}
}

func TestAppend(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	frag := Compress(NewSet(0x41, 0x42, 0x44)).Excluding()
	if s := Append("0-7f", frag); s != "0-7f,!41-42,!44" {
		t.Errorf("unexpected result %q", s)
	}
	if s := Append("", frag); s != "!41-42,!44" {
		t.Errorf("unexpected result %q", s)
	}
	if s := Append("0-7f", nil); s != "0-7f" {
		t.Errorf("unexpected result %q", s)
	}
}

func TestExpandEscapes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.unirange")
	defer teardown()
	//
	cases := map[string]string{
		`caf\00e9`:     "café",
		`\1F600!`:      "\U0001F600!",
		`\41`:          `\41`,
		`\d800`:        `\d800`,
		`no escapes`:   "no escapes",
		`\0041\0042xy`: "ABxy",
	}
	for in, want := range cases {
		if got := ExpandEscapes(in); got != want {
			t.Errorf("expand %q: expected %q, have %q", in, want, got)
		}
	}
}
