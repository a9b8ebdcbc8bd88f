package parser

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapbf/pkg/token"
)

// ErrorKind classifies a structural parse error.
type ErrorKind uint8

const (
	// UnmatchedLoopStart means a '[' was never closed.
	UnmatchedLoopStart ErrorKind = iota + 1
	// UnmatchedLoopEnd means a ']' had no open '[' to close.
	UnmatchedLoopEnd
)

func (k ErrorKind) String() string {
	switch k {
	case UnmatchedLoopStart:
		return "UnmatchedLoopStart"
	case UnmatchedLoopEnd:
		return "UnmatchedLoopEnd"
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Sentinels for errors.Is matching against a *ParseError.
var (
	ErrUnmatchedLoopStart = errors.New("unmatched '['")
	ErrUnmatchedLoopEnd   = errors.New("unmatched ']'")
)

// ParseError represents a bracket mismatch with position information.
type ParseError struct {
	Kind ErrorKind
	Pos  token.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s (%s)", e.Pos.Line, e.Pos.Column, e.Message(), e.Kind)
}

// Message returns the error text without position information.
func (e *ParseError) Message() string {
	return e.sentinel().Error()
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ParseError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ParseError) sentinel() error {
	if e.Kind == UnmatchedLoopEnd {
		return ErrUnmatchedLoopEnd
	}
	return ErrUnmatchedLoopStart
}
