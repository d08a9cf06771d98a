package expr

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokPath
	tokPunct
)

type token struct {
	kind tokenKind
	text string // raw text; unquoted for strings
	pos  int
}

// SyntaxError reports a malformed expression with the byte offset of the
// offending token.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset) }

// punctuators, longest first.
var punctuators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||",
	"<", ">", "!", "+", "-", "*", "%", "?", ":", "(", ")", "[", "]", ",", ".",
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isSegmentChar reports characters allowed inside a path segment. '-' is
// part of the segment ("../first-name"), so subtraction after a path needs
// surrounding spaces.
func isSegmentChar(c byte) bool { return isIdentChar(c) || c == '~' || c == '@' || c == '-' }

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == 'e' || src[i] == 'E' ||
				((src[i] == '+' || src[i] == '-') && (src[i-1] == 'e' || src[i-1] == 'E'))) {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case c == '"' || c == '\'':
			s, n, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i = n
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case startsPath(src, i):
			n, err := lexPath(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokPath, text: src[i:n], pos: i})
			i = n
		default:
			matched := false
			for _, p := range punctuators {
				if strings.HasPrefix(src[i:], p) {
					toks = append(toks, token{kind: tokPunct, text: p, pos: i})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, &SyntaxError{Offset: i, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	b := &strings.Builder{}
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			switch n := src[i+1]; n {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(n)
			}
			i += 2
		case c == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, &SyntaxError{Offset: start, Msg: "unterminated string"}
}

// startsPath reports a path token: "#/", "/", "./" or "../".
func startsPath(src string, i int) bool {
	rest := src[i:]
	return strings.HasPrefix(rest, "#/") || strings.HasPrefix(rest, "/") ||
		strings.HasPrefix(rest, "./") || strings.HasPrefix(rest, "../")
}

// lexPath consumes a path token and returns the offset after it.
func lexPath(src string, start int) (int, error) {
	i := start
	if src[i] == '#' {
		i++
	}
	for {
		// one segment: "..", "." or segment characters
		switch {
		case strings.HasPrefix(src[i:], ".."):
			i += 2
		case strings.HasPrefix(src[i:], "./"):
			i++
		case src[i] == '/':
			// leading separator of an absolute path
		default:
			segStart := i
			for i < len(src) && isSegmentChar(src[i]) {
				i++
			}
			if i == segStart {
				return 0, &SyntaxError{Offset: i, Msg: "empty path segment"}
			}
		}
		if i < len(src) && src[i] == '/' && i+1 < len(src) && (isSegmentChar(src[i+1]) || src[i+1] == '.') {
			i++
			continue
		}
		if i < len(src) && src[i] == '/' {
			return 0, &SyntaxError{Offset: i, Msg: "dangling path separator"}
		}
		return i, nil
	}
}
