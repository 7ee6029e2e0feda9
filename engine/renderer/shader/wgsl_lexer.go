package shader

import "strings"

type tokenKind uint8

const (
	tokIdent tokenKind = iota
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits comment-free WGSL into identifiers, numeric literals and single-byte
// punctuation. Template brackets come out one byte at a time so ">>" closes two lists.
func tokenize(src string) []token {
	src = stripComments(src)
	toks := make([]token, 0, len(src)/4)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		default:
			toks = append(toks, token{tokPunct, src[i : i+1]})
			i++
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// stripComments removes line comments and nested block comments. Newlines inside block
// comments are kept so line structure survives.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	depth := 0
	for i := 0; i < len(src); i++ {
		two := ""
		if i+1 < len(src) {
			two = src[i : i+2]
		}
		switch {
		case two == "/*":
			depth++
			i++
		case two == "*/" && depth > 0:
			depth--
			i++
		case depth > 0:
			if src[i] == '\n' {
				sb.WriteByte('\n')
			}
		case two == "//":
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(src[i])
		}
	}
	return sb.String()
}

// cursor walks a token slice.
type cursor struct {
	toks []token
	pos  int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.toks)
}

func (c *cursor) peek() token {
	if c.done() {
		return token{}
	}
	return c.toks[c.pos]
}

func (c *cursor) next() token {
	t := c.peek()
	c.pos++
	return t
}

// accept consumes the next token when its text is s.
func (c *cursor) accept(s string) bool {
	if !c.done() && c.toks[c.pos].text == s {
		c.pos++
		return true
	}
	return false
}

// skipBalanced consumes tokens up to and including the close that matches an already
// consumed open.
func (c *cursor) skipBalanced(open, close string) {
	for depth := 1; !c.done() && depth > 0; {
		switch c.next().text {
		case open:
			depth++
		case close:
			depth--
		}
	}
}
