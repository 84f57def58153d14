package programtest

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokLBracket
	tokRBracket
)

type token struct {
	kind tokenKind
	text string
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of line"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// lex splits a value into words and brackets.
func lex(s string) []token {
	var toks []token
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, text: "["})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, text: "]"})
			i++
		default:
			end := strings.IndexFunc(s[i:], func(r rune) bool {
				return unicode.IsSpace(r) || r == '[' || r == ']'
			})
			if end < 0 {
				end = len(s) - i
			}
			toks = append(toks, token{kind: tokWord, text: s[i : i+end]})
			i += end
		}
	}
	return toks
}

// scanner walks a token list with one token of lookahead.
type scanner struct {
	toks []token
	pos  int
}

func newScanner(s string) *scanner {
	return &scanner{toks: lex(s)}
}

func (s *scanner) peek() token {
	if s.pos >= len(s.toks) {
		return token{kind: tokEOF}
	}
	return s.toks[s.pos]
}

func (s *scanner) next() token {
	t := s.peek()
	if s.pos < len(s.toks) {
		s.pos++
	}
	return t
}

func (s *scanner) atEOF() bool { return s.peek().kind == tokEOF }

// peekWord reports whether the next token is one of the given keywords.
func (s *scanner) peekWord(words ...string) bool {
	t := s.peek()
	if t.kind != tokWord {
		return false
	}
	for _, w := range words {
		if t.text == w {
			return true
		}
	}
	return false
}

func (s *scanner) expect(kind tokenKind, what string) (token, error) {
	t := s.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s, got %v", what, t)
	}
	return t, nil
}

// literals parses one or more scalar literals, optionally enclosed in
// brackets, up to the end of the line or a stop word.
func (s *scanner) literals(stop ...string) (Array, error) {
	if s.peek().kind == tokLBracket {
		s.next()
		var vs Array
		for s.peek().kind == tokWord {
			v, err := ParseLiteral(s.next().text)
			if err != nil {
				return nil, err
			}
			vs = append(vs, v)
		}
		if _, err := s.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return nil, fmt.Errorf("empty value list")
		}
		return vs, nil
	}
	var vs Array
	for s.peek().kind == tokWord && !s.peekWord(stop...) {
		v, err := ParseLiteral(s.next().text)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("expected value, got %v", s.peek())
	}
	return vs, nil
}
