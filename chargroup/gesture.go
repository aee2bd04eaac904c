package chargroup

import (
	"unicode/utf8"

	"github.com/jqpe/font-subset/unirange"
)

// GestureState is the state of a selection gesture.
type GestureState int8

// A gesture is either idle or in the middle of a drag.
const (
	Idle GestureState = iota
	Dragging
)

func (s GestureState) String() string {
	if s == Dragging {
		return "Dragging"
	}
	return "Idle"
}

// Gesture tracks a drag across a grid of codepoints.
//
// A drag starts at an anchor codepoint and is locked to the anchor's group.
// Moving onto a codepoint of another group does not change the selection.
// Commit turns the selected interval into exclusion terms, Abort drops it.
// Either way the gesture returns to Idle.
//
// The zero value is an idle gesture. A Gesture is not safe for concurrent use.
type Gesture struct {
	state    GestureState
	group    string
	anchor   rune
	cursor   rune
	universe *unirange.Set
}

// State returns the current state of the gesture.
func (g *Gesture) State() GestureState {
	return g.state
}

// Drag returns the group, anchor and cursor of an ongoing drag.
// ok is false if the gesture is idle.
func (g *Gesture) Drag() (group string, anchor, cursor rune, ok bool) {
	if g.state != Dragging {
		return "", 0, 0, false
	}
	return g.group, g.anchor, g.cursor, true
}

// SetUniverse restricts Selection and Pending to the codepoints of set,
// usually the codepoints visible in a grid. Commit is not affected.
func (g *Gesture) SetUniverse(set unirange.Set) {
	g.universe = &set
}

// Start begins a drag at codepoint r, locking the gesture to r's group.
// A drag in progress is discarded. Start returns false for invalid codepoints.
func (g *Gesture) Start(r rune) bool {
	if !utf8.ValidRune(r) {
		return false
	}
	g.state = Dragging
	g.group = Classify(r)
	g.anchor, g.cursor = r, r
	tracer().Debugf("drag started at %#U in group %s", r, g.group)
	return true
}

// Move extends a drag to codepoint r. Moves onto codepoints of another group
// than the drag's, and moves while idle, are ignored and return false.
func (g *Gesture) Move(r rune) bool {
	if g.state != Dragging || Classify(r) != g.group {
		return false
	}
	g.cursor = r
	return true
}

// Abort ends a drag without producing any output.
func (g *Gesture) Abort() {
	g.reset()
}

// Commit ends a drag and appends the selection as exclusion terms to the
// expression text existing. With withCaseVariants set, the case variants of
// the selected codepoints are excluded as well.
// If the gesture is idle, existing is returned unchanged and ok is false.
func (g *Gesture) Commit(existing string, withCaseVariants bool) (expr string, ok bool) {
	if g.state != Dragging {
		return existing, false
	}
	lo, hi := g.interval()
	selected := g.members(lo, hi)
	if withCaseVariants {
		selected = append(selected, CaseVariants(lo, hi, g.group)...)
	}
	g.reset()
	expr = SelectionToRangeAppend(existing, selected)
	tracer().Infof("selection [%#U, %#U] committed: %q", lo, hi, expr)
	return expr, true
}

// Selection returns the codepoints currently selected by a drag.
func (g *Gesture) Selection() []rune {
	if g.state != Dragging {
		return nil
	}
	return g.restrict(g.members(g.interval()))
}

// Pending returns the case variants which a commit with case variants would
// add to the current selection.
func (g *Gesture) Pending() []rune {
	if g.state != Dragging {
		return nil
	}
	lo, hi := g.interval()
	return g.restrict(CaseVariants(lo, hi, ""))
}

func (g *Gesture) interval() (rune, rune) {
	return min(g.anchor, g.cursor), max(g.anchor, g.cursor)
}

// members returns the codepoints in [lo, hi] belonging to the drag's group.
func (g *Gesture) members(lo, hi rune) []rune {
	var rs []rune
	for r := lo; r <= hi; r++ {
		if Classify(r) == g.group {
			rs = append(rs, r)
		}
	}
	return rs
}

func (g *Gesture) restrict(rs []rune) []rune {
	if g.universe == nil {
		return rs
	}
	kept := rs[:0]
	for _, r := range rs {
		if g.universe.Contains(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (g *Gesture) reset() {
	g.state = Idle
	g.group = ""
	g.anchor, g.cursor = 0, 0
}

// SelectionToRangeAppend compresses a selection of codepoints to exclusion
// terms and appends them to the expression text existing.
func SelectionToRangeAppend(existing string, codepoints []rune) string {
	fragment := unirange.Compress(unirange.NewSet(codepoints...)).Excluding()
	return unirange.Append(existing, fragment)
}
