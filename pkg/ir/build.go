package ir

import (
	"github.com/leapstack-labs/leapbf/pkg/parser"
	"github.com/leapstack-labs/leapbf/pkg/token"
)

// FromAST translates a parsed tree one-to-one into IR: every command becomes
// a unit Add, Move, Output or Input, and every bracket pair becomes a Loop.
// The result is the unoptimized baseline the optimizer starts from.
func FromAST(t *parser.Tree) *Program {
	type frame struct {
		body []parser.NodeID
		next int
		out  []NodeID
		pos  token.Position
	}

	b := NewBuilder()
	stack := []frame{{body: t.Root}}
	for {
		top := len(stack) - 1
		f := &stack[top]
		if f.next == len(f.body) {
			if top == 0 {
				return b.Finish(f.out)
			}
			id := b.Add(Loop(f.out).At(f.pos))
			stack = stack[:top]
			stack[top-1].out = append(stack[top-1].out, id)
			continue
		}

		n := t.Node(f.body[f.next])
		f.next++
		if n.Tag == parser.LoopNode {
			stack = append(stack, frame{body: n.Body, pos: n.Pos})
			continue
		}
		f.out = append(f.out, b.Add(instr(n.Kind).At(n.Pos)))
	}
}

// instr maps a non-bracket command to its unit IR node.
func instr(k token.Kind) Node {
	switch k {
	case token.MovePtrRight:
		return Move(1)
	case token.MovePtrLeft:
		return Move(-1)
	case token.Increment:
		return Add(1, 0)
	case token.Decrement:
		return Add(-1, 0)
	case token.Output:
		return Output(0)
	case token.Input:
		return Input(0)
	}
	panic("ir: bracket command outside loop structure: " + k.Name())
}
