package chargroup

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// caseMapper maps single codepoints to their opposite case.
// Casers are stateful, so a caseMapper must not be shared between goroutines.
type caseMapper struct {
	upper, lower cases.Caser
}

func newCaseMapper() *caseMapper {
	return &caseMapper{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
}

// variant returns the opposite case of r. If r equals its own upper case
// mapping, this is the lower case mapping, otherwise the upper case mapping.
// Full case mappings may have more than one codepoint; only the first one is
// used. ok is false for codepoints without case.
func (cm *caseMapper) variant(r rune) (rune, bool) {
	s := string(r)
	upper, lower := cm.upper.String(s), cm.lower.String(s)
	if upper == lower {
		return 0, false
	}
	target := upper
	if s == upper {
		target = lower
	}
	v, _ := utf8.DecodeRuneInString(target)
	return v, v != utf8.RuneError
}

// CaseVariant returns the opposite case of codepoint r: its lower case
// mapping if r is upper case, its upper case mapping otherwise.
// ok is false for codepoints without distinct case mappings.
//
//	CaseVariant('a') == 'A'
//	CaseVariant('ß') == 'S'   // full mapping "SS"
func CaseVariant(r rune) (v rune, ok bool) {
	return newCaseMapper().variant(r)
}

// CaseVariants returns the case variants of all codepoints in [lo, hi].
// If group is not empty, only codepoints of that group contribute variants;
// the variants themselves may belong to any group.
func CaseVariants(lo, hi rune, group string) []rune {
	if lo > hi {
		lo, hi = hi, lo
	}
	cm := newCaseMapper()
	var variants []rune
	for r := lo; r <= hi; r++ {
		if group != "" && Classify(r) != group {
			continue
		}
		if v, ok := cm.variant(r); ok {
			variants = append(variants, v)
		}
	}
	return variants
}
