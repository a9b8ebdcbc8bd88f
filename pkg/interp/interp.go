// Package interp executes IR directly against a tape.
package interp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/tape"
	"github.com/leapstack-labs/leapbf/pkg/token"
)

// RuntimeError reports an I/O fault that aborted execution.
type RuntimeError struct {
	Op   ir.Op
	Node ir.NodeID
	Pos  token.Position
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s (node %d, source %s): %v", e.Op, e.Node, e.Pos, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Interpreter runs programs on one tape. The tape persists across calls to
// Run, which lets a REPL feed it one line at a time.
type Interpreter struct {
	tape *tape.Tape
	eof  tape.EOFPolicy
	in   io.ByteReader
	out  *bufio.Writer
}

// New returns an interpreter with a fresh tape. Input is read from in and
// output is written to out; either may be nil.
func New(cfg tape.Config, in io.Reader, out io.Writer) *Interpreter {
	if cfg.Size <= 0 {
		cfg.Size = tape.DefaultSize
	}
	if in == nil {
		in = eofReader{}
	}
	if out == nil {
		out = io.Discard
	}
	br, ok := in.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Interpreter{
		tape: tape.New(cfg.Size),
		eof:  cfg.EOF,
		in:   br,
		out:  bufio.NewWriter(out),
	}
}

// Tape returns the interpreter's tape.
func (it *Interpreter) Tape() *tape.Tape {
	return it.tape
}

// cancelCheckInterval is the number of loop iterations between checks of the
// run context.
const cancelCheckInterval = 1 << 12

// Run executes p to completion. Output is line buffered and is also flushed
// before every read and before Run returns. An I/O fault aborts execution with a *RuntimeError.
func (it *Interpreter) Run(p *ir.Program) error {
	return it.RunContext(context.Background(), p)
}

// RunContext is Run, except that execution stops with ctx's error once ctx
// is done. The context is tested on loop back-edges and inside scans, so a
// program that never terminates can still be interrupted.
func (it *Interpreter) RunContext(ctx context.Context, p *ir.Program) error {
	type frame struct {
		body []ir.NodeID
		next int
	}

	t := it.tape
	spins := 0
	cancelled := func() error {
		spins++
		if spins%cancelCheckInterval != 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			_ = it.out.Flush()
			return err
		}
		return nil
	}

	stack := []frame{{body: p.Root}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := &stack[top]
		if f.next == len(f.body) {
			// End of a loop body: re-test the condition.
			if top > 0 && t.Get(0) != 0 {
				if err := cancelled(); err != nil {
					return err
				}
				f.next = 0
				continue
			}
			stack = stack[:top]
			continue
		}

		id := f.body[f.next]
		f.next++
		n := p.Node(id)
		switch n.Op {
		case ir.OpAdd:
			t.Add(n.Offset, n.Delta)
		case ir.OpMove:
			t.Move(n.Delta)
		case ir.OpOutput:
			if err := it.write(t.Get(n.Offset)); err != nil {
				return &RuntimeError{Op: n.Op, Node: id, Pos: n.Pos, Err: err}
			}
		case ir.OpInput:
			if err := it.read(n.Offset); err != nil {
				return &RuntimeError{Op: n.Op, Node: id, Pos: n.Pos, Err: err}
			}
		case ir.OpSetZero:
			t.Set(n.Offset, 0)
		case ir.OpScanZero:
			for t.Get(0) != 0 {
				if err := cancelled(); err != nil {
					return err
				}
				t.Move(n.Delta)
			}
		case ir.OpMulAdd:
			t.Add(n.Offset, int(t.Get(n.Src))*n.Factor)
		case ir.OpLoop:
			if t.Get(0) != 0 {
				stack = append(stack, frame{body: n.Body})
			}
		}
	}

	if err := it.out.Flush(); err != nil {
		return &RuntimeError{Op: ir.OpOutput, Node: -1, Err: err}
	}
	return nil
}

// write emits one byte. Output is line buffered.
func (it *Interpreter) write(b byte) error {
	if err := it.out.WriteByte(b); err != nil {
		return err
	}
	if b == '\n' {
		return it.out.Flush()
	}
	return nil
}

// read performs one Input, applying the EOF policy.
func (it *Interpreter) read(off int) error {
	if err := it.out.Flush(); err != nil {
		return fmt.Errorf("flush before read: %w", err)
	}
	b, err := it.in.ReadByte()
	if errors.Is(err, io.EOF) {
		if it.eof == tape.EOFZero {
			it.tape.Set(off, 0)
		}
		return nil
	}
	if err != nil {
		return err
	}
	it.tape.Set(off, b)
	return nil
}

// eofReader is an input source that is always exhausted.
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

func (eofReader) ReadByte() (byte, error) { return 0, io.EOF }
