package unirange

import (
	"iter"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// Set is an ordered set of codepoints. The zero value is an empty set.
type Set struct {
	runes []rune // ascending, unique
}

// NewSet creates a set from arbitrary codepoints. Duplicates collapse.
// Control characters are kept; only resolving an expression removes them.
func NewSet(runes ...rune) Set {
	rs := slices.Clone(runes)
	slices.Sort(rs)
	return Set{runes: slices.Compact(rs)}
}

// Len returns the number of codepoints in s.
func (s Set) Len() int {
	return len(s.runes)
}

// IsEmpty reports whether s has no codepoints.
func (s Set) IsEmpty() bool {
	return len(s.runes) == 0
}

// Contains reports whether r is a member of s.
func (s Set) Contains(r rune) bool {
	_, found := slices.BinarySearch(s.runes, r)
	return found
}

// Runes returns the members of s in ascending order.
func (s Set) Runes() []rune {
	return slices.Clone(s.runes)
}

// All iterates over the members of s in ascending order.
func (s Set) All() iter.Seq[rune] {
	return slices.Values(s.runes)
}

// Union returns a set containing the members of both s and other.
func (s Set) Union(other Set) Set {
	rs := make([]rune, 0, len(s.runes)+len(other.runes))
	i, j := 0, 0
	for i < len(s.runes) && j < len(other.runes) {
		switch a, b := s.runes[i], other.runes[j]; {
		case a < b:
			rs = append(rs, a)
			i++
		case a > b:
			rs = append(rs, b)
			j++
		default:
			rs = append(rs, a)
			i++
			j++
		}
	}
	rs = append(rs, s.runes[i:]...)
	rs = append(rs, other.runes[j:]...)
	return Set{runes: rs}
}

// Filter returns the members of s for which keep returns true.
func (s Set) Filter(keep func(rune) bool) Set {
	var rs []rune
	for _, r := range s.runes {
		if keep(r) {
			rs = append(rs, r)
		}
	}
	return Set{runes: rs}
}

// Equal reports whether s and other have the same members.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s.runes, other.runes)
}

// Text returns the members of s as a string, each codepoint once, in ascending
// order. This is the sample text a subsetter is fed with.
func (s Set) Text() string {
	var sb strings.Builder
	sb.Grow(len(s.runes))
	for _, r := range s.runes {
		sb.WriteRune(r)
	}
	return sb.String()
}

// RangeTable converts s to a table usable with package unicode.
func (s Set) RangeTable() *unicode.RangeTable {
	return rangetable.New(s.runes...)
}

func (s Set) String() string {
	return Compress(s).String()
}

// --- Resolving and compressing ---------------------------------------------

// Resolve computes the set of codepoints an expression denotes: the union of
// the included intervals minus the union of the excluded intervals, without
// control characters and surrogates.
func (expr Expression) Resolve() Set {
	var incl, excl []Term
	for _, t := range expr {
		if t.Exclude {
			excl = append(excl, t)
		} else {
			incl = append(incl, t)
		}
	}
	incl, excl = mergeIntervals(incl), mergeIntervals(excl)
	var rs []rune
	j := 0
	for _, t := range incl {
		for r := t.Lo; r <= t.Hi; r++ {
			for j < len(excl) && excl[j].Hi < r {
				j++
			}
			if j < len(excl) && excl[j].Contains(r) {
				r = excl[j].Hi
				continue
			}
			if isUnwanted(r) {
				continue
			}
			rs = append(rs, r)
		}
	}
	tracer().Debugf("expression %s resolves to %d codepoints", expr, len(rs))
	return Set{runes: rs}
}

// Resolve is an alias for expr.Resolve().
func Resolve(expr Expression) Set {
	return expr.Resolve()
}

// Compress turns a set into an include-only expression with exactly one term
// per maximal run of consecutive codepoints, in ascending order.
func Compress(s Set) Expression {
	var expr Expression
	for i := 0; i < len(s.runes); {
		j := i
		for j+1 < len(s.runes) && s.runes[j+1] == s.runes[j]+1 {
			j++
		}
		expr = append(expr, Term{Lo: s.runes[i], Hi: s.runes[j]})
		i = j + 1
	}
	return expr
}

// mergeIntervals sorts terms by their lower bound and merges overlapping or
// adjacent ones. Signs are ignored.
func mergeIntervals(terms []Term) []Term {
	if len(terms) == 0 {
		return nil
	}
	sorted := slices.Clone(terms)
	slices.SortFunc(sorted, func(a, b Term) int { return int(a.Lo - b.Lo) })
	merged := sorted[:1]
	for _, t := range sorted[1:] {
		last := &merged[len(merged)-1]
		if t.Lo <= last.Hi+1 {
			last.Hi = max(last.Hi, t.Hi)
			continue
		}
		merged = append(merged, t)
	}
	return merged
}

func isUnwanted(r rune) bool {
	return unicode.Is(unicode.Cc, r) || (r >= 0xd800 && r <= 0xdfff)
}
