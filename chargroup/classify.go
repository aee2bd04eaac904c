package chargroup

import (
	"unicode"

	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/unirange"
)

// Classifier assigns codepoints of a general category to a named group.
type Classifier struct {
	Name  string
	Table *unicode.RangeTable
}

// Other is the name of the group of codepoints no classifier matches.
const Other = "Other Symbols"

// Classifiers is the ordered list of group classifiers. The order decides
// between categories should a codepoint ever match more than one of them.
var Classifiers = []Classifier{
	{"Numbers", unicode.Number},
	{"Punctuation", unicode.Punct},
	{"Marks", unicode.Mark},
	{"Currency", unicode.Sc},
	{"Math symbols", unicode.Sm},
	{"Uppercase Letters", unicode.Lu},
	{"Lowercase Letters", unicode.Ll},
}

// Classify returns the name of the group codepoint r belongs to.
func Classify(r rune) string {
	for _, c := range Classifiers {
		if unicode.Is(c.Table, r) {
			return c.Name
		}
	}
	return Other
}

// GroupNames returns the names of all groups in classification order,
// including the fallback group.
func GroupNames() []string {
	names := make([]string, 0, len(Classifiers)+1)
	for _, c := range Classifiers {
		names = append(names, c.Name)
	}
	return append(names, Other)
}

// Group is a named group of codepoints. Members are in ascending order.
type Group struct {
	Name    string
	Members []rune
}

// Contains reports whether r is a member of g.
func (g Group) Contains(r rune) bool {
	for _, m := range g.Members {
		if m == r {
			return true
		} else if m > r {
			break
		}
	}
	return false
}

// GroupCodepoints partitions a set of codepoints into groups. Groups are
// returned in classification order; empty groups are omitted.
func GroupCodepoints(set unirange.Set) []Group {
	byName := make(map[string][]rune)
	for r := range set.All() {
		name := Classify(r)
		byName[name] = append(byName[name], r)
	}
	groups := make([]Group, 0, len(byName))
	for _, name := range GroupNames() {
		if members, ok := byName[name]; ok {
			groups = append(groups, Group{Name: name, Members: members})
		}
	}
	tracer().Debugf("%d codepoints in %d groups", set.Len(), len(groups))
	return groups
}

// FilterSupported keeps the codepoints of set which lie within one of the
// Unicode ranges of a font. ranges must be sorted ascending.
func FilterSupported(set unirange.Set, ranges []otquery.UnicodeRange) unirange.Set {
	md := otquery.Metadata{UnicodeRanges: ranges}
	return set.Filter(md.Supports)
}

// Supported returns the codepoints within the Unicode ranges of a font.
func Supported(ranges []otquery.UnicodeRange) unirange.Set {
	expr := make(unirange.Expression, 0, len(ranges))
	for _, ur := range ranges {
		expr = append(expr, unirange.Term{Lo: ur.Start, Hi: ur.End})
	}
	return expr.Resolve()
}
