// Package parser turns source text into a bracket-matched AST.
//
// # Usage
//
//	tree, err := parser.Parse(src)
//	if err != nil {
//	    var perr *parser.ParseError
//	    errors.As(err, &perr) // perr.Kind, perr.Pos
//	}
//
// The AST is an arena (see Tree); loops store the ids of their bodies, so
// neither parsing nor later traversal needs native recursion.
package parser

import "github.com/leapstack-labs/leapbf/pkg/token"

// Parser builds a Tree from a token sequence.
type Parser struct {
	tokens []token.Token
	tree   *Tree
	stack  []openLoop
}

// openLoop is the body accumulator of a '[' that has not been closed yet.
type openLoop struct {
	pos  token.Position
	body []NodeID
}

// NewParser creates a parser over already-lexed tokens.
func NewParser(tokens []token.Token) *Parser {
	return &Parser{
		tokens: tokens,
		tree:   &Tree{},
	}
}

// Parse lexes and parses src.
func Parse(src []byte) (*Tree, error) {
	return NewParser(Lex(src)).Parse()
}

// ParseTokens parses an already-lexed token sequence.
func ParseTokens(tokens []token.Token) (*Tree, error) {
	return NewParser(tokens).Parse()
}

// Parse consumes the tokens and returns the tree, or a *ParseError when the
// brackets are unbalanced.
func (p *Parser) Parse() (*Tree, error) {
	for _, tok := range p.tokens {
		switch tok.Kind {
		case token.LoopStart:
			p.stack = append(p.stack, openLoop{pos: tok.Pos})
		case token.LoopEnd:
			if len(p.stack) == 0 {
				return nil, &ParseError{Kind: UnmatchedLoopEnd, Pos: tok.Pos}
			}
			top := p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			id := p.tree.add(Node{Tag: LoopNode, Kind: token.LoopStart, Pos: top.pos, Body: top.body})
			p.appendNode(id)
		default:
			p.appendNode(p.tree.add(Node{Tag: InstrNode, Kind: tok.Kind, Pos: tok.Pos}))
		}
	}

	if len(p.stack) > 0 {
		// Report the innermost unclosed bracket.
		return nil, &ParseError{Kind: UnmatchedLoopStart, Pos: p.stack[len(p.stack)-1].pos}
	}
	return p.tree, nil
}

// appendNode adds id to the innermost open body, or to the top level.
func (p *Parser) appendNode(id NodeID) {
	if n := len(p.stack); n > 0 {
		p.stack[n-1].body = append(p.stack[n-1].body, id)
		return
	}
	p.tree.Root = append(p.tree.Root, id)
}
