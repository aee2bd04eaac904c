package unirange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
)

// Term is a single item of an expression. Single codepoints have Lo == Hi.
type Term struct {
	Exclude bool
	Lo, Hi  rune
}

// Contains reports whether r lies within the term's interval, regardless of
// the term's sign.
func (t Term) Contains(r rune) bool {
	return r >= t.Lo && r <= t.Hi
}

// IsSingle reports whether the term denotes a single codepoint.
func (t Term) IsSingle() bool {
	return t.Lo == t.Hi
}

func (t Term) String() string {
	var sb strings.Builder
	t.appendTo(&sb)
	return sb.String()
}

func (t Term) appendTo(sb *strings.Builder) {
	if t.Exclude {
		sb.WriteByte('!')
	}
	sb.WriteString(strconv.FormatInt(int64(t.Lo), 16))
	if !t.IsSingle() {
		sb.WriteByte('-')
		sb.WriteString(strconv.FormatInt(int64(t.Hi), 16))
	}
}

// Expression is an ordered list of terms. The order of terms does not change
// the resolved set.
type Expression []Term

// String renders an expression in canonical form: terms joined by commas,
// lowercase hex without leading zeros.
func (expr Expression) String() string {
	var sb strings.Builder
	for i, t := range expr {
		if i > 0 {
			sb.WriteByte(',')
		}
		t.appendTo(&sb)
	}
	return sb.String()
}

// Render is an alias for expr.String().
func Render(expr Expression) string {
	return expr.String()
}

// Excluding returns a copy of expr with every term marked as an exclusion.
func (expr Expression) Excluding() Expression {
	ex := make(Expression, len(expr))
	for i, t := range expr {
		t.Exclude = true
		ex[i] = t
	}
	return ex
}

// Append appends a fragment to the text of an existing expression. The
// fragment is separated by a comma, unless existing is blank.
func Append(existing string, fragment Expression) string {
	if len(fragment) == 0 {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return fragment.String()
	}
	return existing + "," + fragment.String()
}

// --- Errors ----------------------------------------------------------------

// MalformedRangeError is returned by Parse for a term it cannot read.
type MalformedRangeError struct {
	Term   string // the offending term, trimmed
	Reason string
	pos    *parse.Error
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("malformed range %q: %s", e.Term, e.Reason)
}

// Unwrap returns the positional lexer error, which carries line and column
// of the offending character.
func (e *MalformedRangeError) Unwrap() error {
	if e.pos == nil {
		return nil
	}
	return e.pos
}
