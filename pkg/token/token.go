// Package token defines the command tokens of the tape language.
//
// The language has exactly eight commands. Every other byte in a source file
// is commentary and never becomes a token.
package token

import "fmt"

// Kind represents the kind of a command token.
//
//nolint:revive // Accept stutter as token.Kind reads clearly at call sites
type Kind uint8

const (
	MovePtrRight Kind = iota // >
	MovePtrLeft              // <
	Increment                // +
	Decrement                // -
	Output                   // .
	Input                    // ,
	LoopStart                // [
	LoopEnd                  // ]
)

// String returns the command symbol for the kind.
func (k Kind) String() string {
	if int(k) < len(symbols) {
		return string(symbols[k])
	}
	return fmt.Sprintf("KIND(%d)", k)
}

// Name returns the descriptive name of the kind, used in diagnostics.
func (k Kind) Name() string {
	switch k {
	case MovePtrRight:
		return "MovePtrRight"
	case MovePtrLeft:
		return "MovePtrLeft"
	case Increment:
		return "Increment"
	case Decrement:
		return "Decrement"
	case Output:
		return "Output"
	case Input:
		return "Input"
	case LoopStart:
		return "LoopStart"
	case LoopEnd:
		return "LoopEnd"
	}
	return k.String()
}

// symbols is indexed by Kind.
var symbols = [...]byte{'>', '<', '+', '-', '.', ',', '[', ']'}

// kinds maps a source byte to its kind; bytes outside the alphabet map to ok=false.
var kinds = func() (t [256]struct {
	kind Kind
	ok   bool
}) {
	for k, s := range symbols {
		t[s].kind = Kind(k)
		t[s].ok = true
	}
	return t
}()

// Lookup returns the kind for a source byte.
// The second result is false when the byte is commentary.
func Lookup(b byte) (Kind, bool) {
	e := kinds[b]
	return e.kind, e.ok
}

// Symbol returns the source byte for the kind.
func (k Kind) Symbol() byte {
	return symbols[k]
}

// Token represents a command with its source position.
type Token struct {
	Kind Kind
	Pos  Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%s", t.Kind, t.Pos)
}
