package chargroup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/unirange"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestClassify(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	cases := map[rune]string{
		'7':     "Numbers",
		'½':     "Numbers",
		'!':     "Punctuation",
		'-':     "Punctuation",
		0x301:   "Marks",
		'$':     "Currency",
		'€':     "Currency",
		'+':     "Math symbols",
		'A':     "Uppercase Letters",
		'Ä':     "Uppercase Letters",
		'a':     "Lowercase Letters",
		'ß':     "Lowercase Letters",
		' ':     Other,
		'^':     Other,
		0x1f600: Other,
		'中':     Other,
	}
	for r, want := range cases {
		for i := 0; i < 2; i++ {
			if got := Classify(r); got != want {
				t.Errorf("classify %#U: expected %q, have %q", r, want, got)
			}
		}
	}
}

func TestGroupCodepoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	set := unirange.MustParse(unirange.DefaultExpression).Resolve()
	groups := GroupCodepoints(set)
	names := make([]string, len(groups))
	total := 0
	for i, g := range groups {
		names[i] = g.Name
		total += len(g.Members)
		for j := 1; j < len(g.Members); j++ {
			if g.Members[j] <= g.Members[j-1] {
				t.Errorf("group %s is not sorted", g.Name)
			}
		}
	}
	want := []string{"Numbers", "Punctuation", "Currency", "Math symbols", "Uppercase Letters", "Lowercase Letters", Other}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}
	if total != set.Len() {
		t.Errorf("groups hold %d codepoints, set has %d", total, set.Len())
	}
	if !groups[0].Contains('5') || groups[0].Contains('A') {
		t.Error("unexpected members of group Numbers")
	}
	if len(GroupCodepoints(unirange.Set{})) != 0 {
		t.Error("expected no groups for empty set")
	}
}

func TestFilterSupported(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	set := unirange.NewSet('1', 'A', 'B', 'Z', 'a', 0x1f600)
	ranges := []otquery.UnicodeRange{{Start: 'A', End: 'B'}, {Start: 'a', End: 'a'}, {Start: 0x1f600, End: 0x1f64f}}
	got := FilterSupported(set, ranges)
	if diff := cmp.Diff([]rune{'A', 'B', 'a', 0x1f600}, got.Runes()); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestSupported(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	ranges := []otquery.UnicodeRange{{Start: 0x1f, End: 0x21}, {Start: 'A', End: 'C'}}
	got := Supported(ranges)
	if diff := cmp.Diff([]rune{' ', '!', 'A', 'B', 'C'}, got.Runes()); diff != "" {
		t.Errorf("supported mismatch (-want +got):\n%s", diff)
	}
}

func TestCaseVariants(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	cases := []struct {
		r, v rune
		ok   bool
	}{
		{'a', 'A', true},
		{'A', 'a', true},
		{'Ä', 'ä', true},
		{'ß', 'S', true},
		{'1', 0, false},
		{'!', 0, false},
	}
	for _, c := range cases {
		v, ok := CaseVariant(c.r)
		if v != c.v || ok != c.ok {
			t.Errorf("case variant of %#U: expected %#U/%v, have %#U/%v", c.r, c.v, c.ok, v, ok)
		}
	}
	if diff := cmp.Diff([]rune("ABC"), CaseVariants('c', 'a', "")); diff != "" {
		t.Errorf("case variants mismatch (-want +got):\n%s", diff)
	}
	if got := CaseVariants('X', 'b', "Lowercase Letters"); string(got) != "AB" {
		t.Errorf("expected variants of lowercase letters only, have %q", string(got))
	}
}

func TestGestureCommit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	var g Gesture
	if g.State() != Idle {
		t.Fatal("zero gesture should be idle")
	}
	if g.Move('B') {
		t.Error("idle gesture should ignore moves")
	}
	if !g.Start('D') || g.State() != Dragging {
		t.Fatal("expected gesture to start dragging")
	}
	if g.Move('1') {
		t.Error("move into another group should be ignored")
	}
	if !g.Move('A') {
		t.Error("move within group should succeed")
	}
	group, anchor, cursor, ok := g.Drag()
	if !ok || group != "Uppercase Letters" || anchor != 'D' || cursor != 'A' {
		t.Errorf("unexpected drag state %s %#U %#U", group, anchor, cursor)
	}
	if diff := cmp.Diff([]rune("ABCD"), g.Selection()); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	expr, ok := g.Commit("0-7f", false)
	if !ok || expr != "0-7f,!41-44" {
		t.Errorf("unexpected commit result %q", expr)
	}
	if g.State() != Idle {
		t.Error("gesture should be idle after commit")
	}
	if expr, ok := g.Commit("0-7f", false); ok || expr != "0-7f" {
		t.Error("commit while idle should not change the expression")
	}
	set := unirange.MustParse("0-7f,!41-44").Resolve()
	if set.Contains('B') || !set.Contains('E') {
		t.Error("committed exclusion does not resolve as expected")
	}
}

func TestGestureGroupLock(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	// drag across '0'-'9' and ':' to 'A': only numbers get selected
	var g Gesture
	g.Start('0')
	g.Move('9')
	g.Move('A')
	expr, _ := g.Commit("", false)
	if expr != "!30-39" {
		t.Errorf("expected numbers only, have %q", expr)
	}
}

func TestGestureCaseVariants(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	var g Gesture
	g.SetUniverse(unirange.NewSet('a', 'b', 'c', 'A', 'C'))
	g.Start('c')
	g.Move('a')
	if diff := cmp.Diff([]rune("AC"), g.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
	expr, ok := g.Commit("0-7f", true)
	if !ok || expr != "0-7f,!41-43,!61-63" {
		t.Errorf("unexpected commit with case variants %q", expr)
	}
}

func TestGestureAbort(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	var g Gesture
	g.Start('a')
	g.Move('z')
	g.Abort()
	if g.State() != Idle || g.Selection() != nil || g.Pending() != nil {
		t.Error("aborted gesture should be idle without selection")
	}
	if _, _, _, ok := g.Drag(); ok {
		t.Error("aborted gesture should not report a drag")
	}
	if g.Start(-1) {
		t.Error("invalid codepoint should not start a drag")
	}
}

func TestSelectionToRangeAppend(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.chargroup")
	defer teardown()
	//
	got := SelectionToRangeAppend("20-7e", []rune{0x45, 0x41, 0x42, 0x43, 0x41})
	if got != "20-7e,!41-43,!45" {
		t.Errorf("unexpected expression %q", got)
	}
	if got := SelectionToRangeAppend("20-7e", nil); got != "20-7e" {
		t.Errorf("empty selection should not change expression, have %q", got)
	}
}
