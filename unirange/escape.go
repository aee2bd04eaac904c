package unirange

import (
	"regexp"
	"strconv"
	"unicode/utf8"
)

var escapePattern = regexp.MustCompile(`\\([0-9a-fA-F]{4,6})`)

// ExpandEscapes replaces escapes of the form \XXXX (4 to 6 hex digits) in
// free text with the character they denote. Escapes which do not denote a
// valid character are left alone.
//
//	ExpandEscapes(`caf\00e9`) == "café"
func ExpandEscapes(text string) string {
	return escapePattern.ReplaceAllStringFunc(text, func(esc string) string {
		cp, err := strconv.ParseUint(esc[1:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(cp)) {
			return esc
		}
		return string(rune(cp))
	})
}
