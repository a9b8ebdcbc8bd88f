// Package ir defines the intermediate representation shared by the
// optimizer, the interpreter and the lowering stage.
//
// A Program is an arena of Nodes addressed by NodeID. Loop nodes hold the ids
// of their bodies, so every consumer walks the tree with an explicit stack
// instead of native recursion. Offsets are relative to the tape pointer at the
// point the node executes.
package ir

import (
	"fmt"

	"github.com/leapstack-labs/leapbf/pkg/token"
)

// NodeID addresses a node in a Program's arena.
type NodeID int32

// Op is the closed set of IR operations.
type Op uint8

const (
	OpAdd      Op = iota + 1 // cell[ptr+Offset] += Delta
	OpMove                   // ptr += Delta
	OpOutput                 // write cell[ptr+Offset]
	OpInput                  // read into cell[ptr+Offset]
	OpSetZero                // cell[ptr+Offset] = 0
	OpScanZero               // while cell[ptr] != 0 { ptr += Delta }
	OpMulAdd                 // cell[ptr+Offset] += cell[ptr+Src] * Factor
	OpLoop                   // while cell[ptr] != 0 { Body }
)

var opNames = map[Op]string{
	OpAdd:      "add",
	OpMove:     "move",
	OpOutput:   "out",
	OpInput:    "in",
	OpSetZero:  "zero",
	OpScanZero: "scan",
	OpMulAdd:   "muladd",
	OpLoop:     "loop",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", o)
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(b []byte) error {
	for op, name := range opNames {
		if name == string(b) {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("unknown op %q", b)
}

// Ops lists every operation in declaration order.
func Ops() []Op {
	return []Op{OpAdd, OpMove, OpOutput, OpInput, OpSetZero, OpScanZero, OpMulAdd, OpLoop}
}

// Node is a single IR operation. Which fields are meaningful depends on Op.
type Node struct {
	Op     Op
	Delta  int // OpAdd value delta, OpMove pointer delta, OpScanZero step
	Offset int // target cell of OpAdd, OpOutput, OpInput, OpSetZero; destination of OpMulAdd
	Src    int // OpMulAdd source cell
	Factor int // OpMulAdd multiplier
	Body   []NodeID
	Pos    token.Position // first source command this node was derived from
}

// Add returns an OpAdd node.
func Add(delta, offset int) Node { return Node{Op: OpAdd, Delta: delta, Offset: offset} }

// Move returns an OpMove node.
func Move(delta int) Node { return Node{Op: OpMove, Delta: delta} }

// Output returns an OpOutput node.
func Output(offset int) Node { return Node{Op: OpOutput, Offset: offset} }

// Input returns an OpInput node.
func Input(offset int) Node { return Node{Op: OpInput, Offset: offset} }

// SetZero returns an OpSetZero node.
func SetZero(offset int) Node { return Node{Op: OpSetZero, Offset: offset} }

// ScanZero returns an OpScanZero node.
func ScanZero(step int) Node { return Node{Op: OpScanZero, Delta: step} }

// MulAdd returns an OpMulAdd node.
func MulAdd(src, dest, factor int) Node {
	return Node{Op: OpMulAdd, Src: src, Offset: dest, Factor: factor}
}

// Loop returns an OpLoop node over body.
func Loop(body []NodeID) Node { return Node{Op: OpLoop, Body: body} }

// At returns n with its source position set.
func (n Node) At(pos token.Position) Node {
	n.Pos = pos
	return n
}

// Program is a finalized IR tree. It is not modified after construction.
type Program struct {
	Nodes []Node
	Root  []NodeID
}

// Node returns the node with the given id.
func (p *Program) Node(id NodeID) *Node {
	return &p.Nodes[id]
}

// Builder appends nodes to a Program arena.
type Builder struct {
	prog *Program
}

// NewBuilder returns a builder over an empty program.
func NewBuilder() *Builder {
	return &Builder{prog: &Program{}}
}

// Add appends n and returns its id.
func (b *Builder) Add(n Node) NodeID {
	b.prog.Nodes = append(b.prog.Nodes, n)
	return NodeID(len(b.prog.Nodes) - 1)
}

// AddAll appends every node and returns their ids in order.
func (b *Builder) AddAll(nodes []Node) []NodeID {
	ids := make([]NodeID, len(nodes))
	for i, n := range nodes {
		ids[i] = b.Add(n)
	}
	return ids
}

// Finish sets the top-level sequence and returns the program.
func (b *Builder) Finish(root []NodeID) *Program {
	b.prog.Root = root
	return b.prog
}
