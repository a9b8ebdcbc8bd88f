// Package tape implements the byte tape shared by both backends' semantics.
//
// The tape has a fixed number of cells. The pointer wraps modulo that size in
// both directions and cells wrap modulo 256. Compiled programs reproduce the
// same policy, so interpreted and compiled runs are observably identical.
package tape

import (
	"fmt"
	"strings"
)

// DefaultSize is the number of cells when no size is configured.
const DefaultSize = 30000

// EOFPolicy decides what Input does when the input stream is exhausted.
type EOFPolicy uint8

const (
	// EOFUnchanged leaves the target cell as it was.
	EOFUnchanged EOFPolicy = iota
	// EOFZero stores 0 in the target cell.
	EOFZero
)

func (p EOFPolicy) String() string {
	if p == EOFZero {
		return "zero"
	}
	return "unchanged"
}

// ParseEOFPolicy parses "unchanged" or "zero".
func ParseEOFPolicy(s string) (EOFPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unchanged":
		return EOFUnchanged, nil
	case "zero":
		return EOFZero, nil
	}
	return EOFUnchanged, fmt.Errorf("unknown eof policy %q (want unchanged or zero)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p EOFPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *EOFPolicy) UnmarshalText(b []byte) error {
	v, err := ParseEOFPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Config fixes the tape policy for one compilation or run.
type Config struct {
	Size int
	EOF  EOFPolicy
}

// DefaultConfig returns the default tape policy.
func DefaultConfig() Config {
	return Config{Size: DefaultSize, EOF: EOFUnchanged}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("tape size must be positive, got %d", c.Size)
	}
	if c.EOF != EOFUnchanged && c.EOF != EOFZero {
		return fmt.Errorf("invalid eof policy %d", c.EOF)
	}
	return nil
}

// Wrap reduces x into [0, size).
func Wrap(x, size int) int {
	x %= size
	if x < 0 {
		x += size
	}
	return x
}

// Normalize reduces a relative offset into the symmetric range
// (-size/2, size/2], so offsets that alias the same cell compare equal.
func Normalize(off, size int) int {
	off = Wrap(off, size)
	if off > size/2 {
		off -= size
	}
	return off
}

// Tape is a fixed-size byte tape with a cursor.
type Tape struct {
	cells []byte
	ptr   int
}

// New returns a zeroed tape of size cells with the cursor at cell 0.
func New(size int) *Tape {
	return &Tape{cells: make([]byte, size)}
}

// Size returns the number of cells.
func (t *Tape) Size() int {
	return len(t.cells)
}

// Pointer returns the cursor position.
func (t *Tape) Pointer() int {
	return t.ptr
}

// Index returns the absolute cell index of the cursor plus off.
func (t *Tape) Index(off int) int {
	return Wrap(t.ptr+off, len(t.cells))
}

// Get returns the cell at cursor plus off.
func (t *Tape) Get(off int) byte {
	return t.cells[t.Index(off)]
}

// Set stores v at cursor plus off.
func (t *Tape) Set(off int, v byte) {
	t.cells[t.Index(off)] = v
}

// Add adds delta to the cell at cursor plus off, wrapping modulo 256.
func (t *Tape) Add(off, delta int) {
	i := t.Index(off)
	t.cells[i] += byte(delta)
}

// Move moves the cursor by delta cells, wrapping at both ends.
func (t *Tape) Move(delta int) {
	t.ptr = Wrap(t.ptr+delta, len(t.cells))
}

// Cell returns the cell at absolute index i.
func (t *Tape) Cell(i int) byte {
	return t.cells[Wrap(i, len(t.cells))]
}

// Cells returns a copy of the cells in [from, to).
func (t *Tape) Cells(from, to int) []byte {
	out := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, t.Cell(i))
	}
	return out
}

// Reset zeroes every cell and returns the cursor to cell 0.
func (t *Tape) Reset() {
	clear(t.cells)
	t.ptr = 0
}
