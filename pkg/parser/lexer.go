package parser

import "github.com/leapstack-labs/leapbf/pkg/token"

// Lexer scans source text into command tokens.
// Bytes outside the command alphabet are skipped as commentary.
type Lexer struct {
	input   []byte
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input []byte) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos > 0 && l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// atEnd reports whether the whole input has been consumed.
func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// Next returns the next command token. The second result is false once the
// input is exhausted.
func (l *Lexer) Next() (token.Token, bool) {
	for !l.atEnd() {
		kind, ok := token.Lookup(l.ch)
		pos := l.currentPos()
		l.readChar()
		if ok {
			return token.Token{Kind: kind, Pos: pos}, true
		}
	}
	return token.Token{}, false
}

// Lex returns every command token in src, in source order. It never fails.
func Lex(src []byte) []token.Token {
	l := NewLexer(src)
	var toks []token.Token
	for {
		tok, ok := l.Next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}
