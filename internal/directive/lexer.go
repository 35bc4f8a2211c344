package directive

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIllegal
	tokIdent
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of annotation"
	case tokIllegal:
		return "illegal character"
	case tokIdent:
		return "identifier"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokColon:
		return "':'"
	case tokComma:
		return "','"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

var punctuation = map[byte]tokenKind{
	'{': tokLBrace, '}': tokRBrace,
	'[': tokLBracket, ']': tokRBracket,
	':': tokColon, ',': tokComma,
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer splits the brace object of a directive into tokens.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string, start int) *lexer {
	return &lexer{input: input, pos: start}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (l *lexer) next() token {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}
	}

	start := l.pos
	c := l.input[l.pos]
	if k, ok := punctuation[c]; ok {
		l.pos++
		return token{kind: k, text: string(c), pos: start}
	}
	if isIdentByte(c) {
		for l.pos < len(l.input) && isIdentByte(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}
	}
	l.pos++
	return token{kind: tokIllegal, text: string(c), pos: start}
}
