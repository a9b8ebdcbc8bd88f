package ir

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// String renders the program in the indented text form used by `leapbf ir`.
func (p *Program) String() string {
	var sb strings.Builder
	_ = p.Format(&sb)
	return sb.String()
}

// Format writes the indented text form of the program to w.
func (p *Program) Format(w io.Writer) error {
	return p.Walk(func(_ NodeID, n *Node, depth int, leave bool) error {
		indent := strings.Repeat("  ", depth)
		if leave {
			_, err := fmt.Fprintf(w, "%s}\n", indent)
			return err
		}
		_, err := fmt.Fprintf(w, "%s%s\n", indent, n.describe())
		return err
	})
}

// describe returns a one-line form of the node without its body.
func (n *Node) describe() string {
	switch n.Op {
	case OpAdd:
		return fmt.Sprintf("add %+d @%d", n.Delta, n.Offset)
	case OpMove:
		return fmt.Sprintf("move %+d", n.Delta)
	case OpOutput:
		return fmt.Sprintf("out @%d", n.Offset)
	case OpInput:
		return fmt.Sprintf("in @%d", n.Offset)
	case OpSetZero:
		return fmt.Sprintf("zero @%d", n.Offset)
	case OpScanZero:
		return fmt.Sprintf("scan %+d", n.Delta)
	case OpMulAdd:
		return fmt.Sprintf("muladd @%d += @%d * %d", n.Offset, n.Src, n.Factor)
	case OpLoop:
		return "loop {"
	}
	return n.Op.String()
}

// Equal reports whether a and b describe the same tree. Node ids and source
// positions are ignored.
func Equal(a, b *Program) bool {
	return a.String() == b.String()
}

// dumpNode is the serialized form of a Node.
type dumpNode struct {
	ID     NodeID   `json:"id" yaml:"id"`
	Op     Op       `json:"op" yaml:"op"`
	Delta  int      `json:"delta,omitempty" yaml:"delta,omitempty"`
	Offset int      `json:"offset,omitempty" yaml:"offset,omitempty"`
	Src    int      `json:"src,omitempty" yaml:"src,omitempty"`
	Factor int      `json:"factor,omitempty" yaml:"factor,omitempty"`
	Body   []NodeID `json:"body,omitempty" yaml:"body,omitempty,flow"`
	Pos    int      `json:"pos" yaml:"pos"`
}

// dump is the flat, arena-shaped serialized form of a Program.
type dump struct {
	Root  []NodeID   `json:"root" yaml:"root,flow"`
	Nodes []dumpNode `json:"nodes" yaml:"nodes"`
}

func (p *Program) dump() dump {
	d := dump{Root: p.Root, Nodes: make([]dumpNode, len(p.Nodes))}
	for i, n := range p.Nodes {
		d.Nodes[i] = dumpNode{
			ID:     NodeID(i),
			Op:     n.Op,
			Delta:  n.Delta,
			Offset: n.Offset,
			Src:    n.Src,
			Factor: n.Factor,
			Body:   n.Body,
			Pos:    n.Pos.Offset,
		}
	}
	return d
}

// EncodeJSON writes the arena as indented JSON.
func (p *Program) EncodeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p.dump())
}

// EncodeYAML writes the arena as YAML.
func (p *Program) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p.dump()); err != nil {
		return err
	}
	return enc.Close()
}
