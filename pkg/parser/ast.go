package parser

import "github.com/leapstack-labs/leapbf/pkg/token"

// NodeID addresses a node in a Tree's arena.
type NodeID int32

// NodeTag distinguishes atomic commands from bracketed loops.
type NodeTag uint8

const (
	// InstrNode is a single command other than a bracket.
	InstrNode NodeTag = iota
	// LoopNode is a matched bracket pair and its body.
	LoopNode
)

// Node is one entry of the AST arena.
//
// An InstrNode carries the command kind; a LoopNode carries the ids of its
// body in source order and the position of its opening bracket.
type Node struct {
	Tag  NodeTag
	Kind token.Kind
	Pos  token.Position
	Body []NodeID
}

// Tree is a parsed program: an arena of nodes plus the top-level sequence.
// Parents reference children by id; children never reference parents.
type Tree struct {
	Nodes []Node
	Root  []NodeID
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// add appends n to the arena and returns its id.
func (t *Tree) add(n Node) NodeID {
	t.Nodes = append(t.Nodes, n)
	return NodeID(len(t.Nodes) - 1)
}
