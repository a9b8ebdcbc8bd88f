package ir

// Stats summarizes the shape of a program.
type Stats struct {
	Nodes    int
	MaxDepth int
	ByOp     map[Op]int
}

// Stats counts the reachable nodes of the program by operation.
func (p *Program) Stats() Stats {
	s := Stats{ByOp: make(map[Op]int)}
	_ = p.Walk(func(_ NodeID, n *Node, depth int, leave bool) error {
		if leave {
			return nil
		}
		s.Nodes++
		s.ByOp[n.Op]++
		if n.Op == OpLoop && depth+1 > s.MaxDepth {
			s.MaxDepth = depth + 1
		}
		return nil
	})
	return s
}
