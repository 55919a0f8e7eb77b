package engine

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidPattern is wrapped by every lexing and parsing error.
var ErrInvalidPattern = errors.New("invalid pattern")

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLiteral
	TokenHole
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLiteral:
		return "Literal"
	case TokenHole:
		return "Hole"
	default:
		return "Unknown"
	}
}

// Token is a lexical token of a pattern or replacement template.
type Token struct {
	Type     TokenType
	Value    string
	Ellipsis bool // only set on TokenHole
	Line     int
	Col      int
}

type lexer struct {
	input   string
	pos     int
	line    int
	col     int
	tokens  []Token
	literal strings.Builder
	// position of the first byte of the pending literal
	litLine, litCol int
}

// Lex splits input into literal text and :[name] or :[name...] holes.
// A backslash escapes the next byte.
func Lex(input string) ([]Token, error) {
	l := &lexer{input: input, line: 1, col: 1}
	for l.pos < len(l.input) {
		c := l.input[l.pos]

		if c == '\\' {
			if l.pos+1 >= len(l.input) {
				return nil, l.errorf("'\\' escape is at the end of input")
			}
			l.addLiteral(l.input[l.pos+1])
			l.advance(2)
			continue
		}

		if c == ':' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '[' {
			if err := l.lexHole(); err != nil {
				return nil, err
			}
			continue
		}

		l.addLiteral(c)
		l.advance(1)
	}
	l.flush()
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Col: l.col})
	return l.tokens, nil
}

func (l *lexer) lexHole() error {
	l.flush()
	line, col := l.line, l.col
	l.advance(2) // ":["
	l.skipSpace()

	if l.pos >= len(l.input) {
		return l.errorf("hole is not terminated")
	}
	if !isIdentifierStart(l.input[l.pos]) {
		return l.errorf("hole name must start with a letter or '_'")
	}
	start := l.pos
	for l.pos < len(l.input) && isIdentifierChar(l.input[l.pos]) {
		l.advance(1)
	}
	name := l.input[start:l.pos]
	l.skipSpace()

	ellipsis := false
	if strings.HasPrefix(l.input[l.pos:], "...") {
		ellipsis = true
		l.advance(3)
		l.skipSpace()
	}

	if l.pos >= len(l.input) || l.input[l.pos] != ']' {
		return l.errorf("hole termination ']' is missing")
	}
	l.advance(1)

	l.tokens = append(l.tokens, Token{
		Type:     TokenHole,
		Value:    name,
		Ellipsis: ellipsis,
		Line:     line,
		Col:      col,
	})
	return nil
}

func (l *lexer) addLiteral(c byte) {
	if l.literal.Len() == 0 {
		l.litLine, l.litCol = l.line, l.col
	}
	l.literal.WriteByte(c)
}

func (l *lexer) flush() {
	if l.literal.Len() == 0 {
		return
	}
	l.tokens = append(l.tokens, Token{
		Type:  TokenLiteral,
		Value: l.literal.String(),
		Line:  l.litLine,
		Col:   l.litCol,
	})
	l.literal.Reset()
}

// advance moves n bytes forward, tracking line and column.
func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.input); i++ {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && isWhitespace(l.input[l.pos]) {
		l.advance(1)
	}
}

func (l *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d col %d: %s", ErrInvalidPattern, l.line, l.col, fmt.Sprintf(format, args...))
}

func isIdentifierStart(c byte) bool {
	return unicode.IsLetter(rune(c)) || c == '_'
}

func isIdentifierChar(c byte) bool {
	return isIdentifierStart(c) || isDigit(c)
}

func isWhitespace(c byte) bool {
	return unicode.IsSpace(rune(c))
}

func isDigit(c byte) bool {
	return unicode.IsDigit(rune(c))
}
