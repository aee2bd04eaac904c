package unirange

import (
	"strings"

	"github.com/tdewolff/parse/v2"
)

// maxDigits is the maximum number of hex digits of a bound.
const maxDigits = 6

// Parse reads a range expression. Terms are separated by commas; whitespace
// around terms and around the '-' separator is ignored, and so are empty terms.
// An empty text yields an empty expression.
//
// Parse fails with a *MalformedRangeError if a bound is not a hex number of
// 1 to 6 digits, if a bound exceeds U+10FFFF, if an interval is inverted or
// if a term has more than one separator.
func Parse(text string) (Expression, error) {
	p := &rangeParser{z: parse.NewInputString(text), text: text}
	var expr Expression
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.z.Peek(0) == ',' { // empty term
			p.z.Move(1)
			continue
		}
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		expr = append(expr, t)
	}
	tracer().Debugf("parsed %d terms from %q", len(expr), text)
	return expr, nil
}

// MustParse is like Parse, but panics if the text cannot be parsed.
func MustParse(text string) Expression {
	expr, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return expr
}

// ParseSet parses a range expression and resolves it to a set.
func ParseSet(text string) (Set, error) {
	expr, err := Parse(text)
	if err != nil {
		return Set{}, err
	}
	return expr.Resolve(), nil
}

// --- Lexer -----------------------------------------------------------------

type rangeParser struct {
	z    *parse.Input
	text string
}

func (p *rangeParser) eof() bool {
	return p.z.Err() != nil
}

func (p *rangeParser) skipSpace() {
	for !p.eof() && parse.IsWhitespace(p.z.Peek(0)) {
		p.z.Move(1)
	}
	p.z.Skip()
}

func (p *rangeParser) atTermEnd() bool {
	return p.eof() || p.z.Peek(0) == ','
}

// term reads a single term and the comma following it, if any.
func (p *rangeParser) term() (Term, error) {
	start := p.z.Offset()
	var t Term
	if p.z.Peek(0) == '!' {
		t.Exclude = true
		p.z.Move(1)
		p.skipSpace()
	}
	lo, err := p.bound(start)
	if err != nil {
		return t, err
	}
	t.Lo, t.Hi = lo, lo
	p.skipSpace()
	if p.z.Peek(0) == '-' {
		p.z.Move(1)
		p.skipSpace()
		if t.Hi, err = p.bound(start); err != nil {
			return t, err
		}
		p.skipSpace()
	}
	if !p.atTermEnd() {
		if p.z.Peek(0) == '-' {
			return t, p.malformed(start, "more than one separator")
		}
		return t, p.malformed(start, "unexpected character")
	}
	if t.Lo > t.Hi {
		return t, p.malformed(start, "interval is inverted")
	}
	if !p.eof() {
		p.z.Move(1) // ','
	}
	return t, nil
}

// bound reads a hex number.
func (p *rangeParser) bound(start int) (rune, error) {
	n := 0
	var v rune
	for {
		d, ok := hexDigit(p.z.Peek(0))
		if !ok {
			break
		}
		if n == maxDigits {
			return 0, p.malformed(start, "more than 6 hex digits")
		}
		v = v<<4 | d
		n++
		p.z.Move(1)
	}
	if n == 0 {
		if p.atTermEnd() || p.z.Peek(0) == '-' {
			return 0, p.malformed(start, "missing bound")
		}
		return 0, p.malformed(start, "bad hex digit")
	}
	if v > MaxCodepoint {
		return 0, p.malformed(start, "codepoint beyond U+10FFFF")
	}
	return v, nil
}

func (p *rangeParser) malformed(start int, reason string) *MalformedRangeError {
	err := &MalformedRangeError{
		Reason: reason,
		pos:    parse.NewErrorLexer(p.z, "%s", reason),
	}
	end := strings.IndexByte(p.text[start:], ',')
	if end < 0 {
		end = len(p.text) - start
	}
	err.Term = strings.TrimSpace(p.text[start : start+end])
	tracer().Debugf("malformed range term %q: %s", err.Term, reason)
	return err
}

func hexDigit(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}
