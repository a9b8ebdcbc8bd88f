// Package optimize rewrites IR into an equivalent, more compact IR.
//
// Passes, in order:
//
//  1. Run-length folding: runs of Add and Move collapse into one counted node.
//  2. Offset coalescing: within straight-line code, Adds (and reads/writes of
//     cells) target offsets relative to a virtual pointer, and the net pointer
//     movement is emitted once before the next loop or at the end of the block.
//  3. Loop-shape recognition: zeroing loops, scan loops and multiply/copy loops
//     are replaced by SetZero, ScanZero and MulAdd.
//
// Passes 1 and 2 are performed together by the block coalescer. Every pass is
// effect-preserving, and Optimize(Optimize(p)) is structurally equal to
// Optimize(p) for the same Options.
package optimize

import (
	"fmt"

	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/tape"
	"github.com/leapstack-labs/leapbf/pkg/token"
)

// Level selects which passes run.
type Level int

const (
	// LevelNone leaves the program unchanged.
	LevelNone Level = 0
	// LevelFold runs folding and offset coalescing.
	LevelFold Level = 1
	// LevelFull additionally replaces recognized loop shapes.
	LevelFull Level = 2

	DefaultLevel = LevelFull
)

// ParseLevel validates a numeric optimization level.
func ParseLevel(n int) (Level, error) {
	if n < int(LevelNone) || n > int(LevelFull) {
		return LevelNone, fmt.Errorf("optimization level must be 0, 1 or 2, got %d", n)
	}
	return Level(n), nil
}

// Options controls an optimization run.
type Options struct {
	Level Level
	// TapeSize is the tape size the program will run with. Offsets are
	// normalized modulo it so aliasing offsets are treated as one cell.
	TapeSize int
}

// DefaultOptions returns the full pipeline for the default tape.
func DefaultOptions() Options {
	return Options{Level: DefaultLevel, TapeSize: tape.DefaultSize}
}

// Optimize returns an optimized copy of p. p itself is not modified.
func Optimize(p *ir.Program, opts Options) *ir.Program {
	if opts.Level <= LevelNone {
		return p
	}
	if opts.TapeSize <= 0 {
		opts.TapeSize = tape.DefaultSize
	}

	type frame struct {
		body []ir.NodeID
		next int
		blk  *block
		pos  token.Position
	}

	b := ir.NewBuilder()
	stack := []frame{{body: p.Root, blk: newBlock(opts.TapeSize)}}
	for {
		top := len(stack) - 1
		f := &stack[top]
		if f.next < len(f.body) {
			n := p.Node(f.body[f.next])
			f.next++
			if n.Op == ir.OpLoop {
				stack = append(stack, frame{body: n.Body, blk: newBlock(opts.TapeSize), pos: n.Pos})
				continue
			}
			f.blk.straight(*n)
			continue
		}

		body := f.blk.finish()
		if top == 0 {
			return b.Finish(b.AddAll(body))
		}
		pos := f.pos
		stack = stack[:top]
		parent := stack[top-1].blk

		if opts.Level >= LevelFull {
			if repl, ok := reduceLoop(body, pos); ok {
				for _, n := range repl {
					parent.straight(n)
				}
				continue
			}
		}
		parent.loop(ir.Loop(b.AddAll(body)).At(pos))
	}
}

// wrapDelta reduces a cell delta or factor to the signed 8-bit range.
func wrapDelta(d int) int {
	return int(int8(d))
}
