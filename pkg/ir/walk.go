package ir

// VisitFunc is called for every node in pre-order. Loop nodes are visited a
// second time with leave set once their body has been walked. depth is the
// loop nesting level of the node itself.
type VisitFunc func(id NodeID, n *Node, depth int, leave bool) error

// Walk visits the whole program without native recursion. It stops at the
// first error returned by fn.
func (p *Program) Walk(fn VisitFunc) error {
	type frame struct {
		ids  []NodeID
		next int
		loop NodeID // -1 for the top level
	}
	stack := []frame{{ids: p.Root, loop: -1}}
	for len(stack) > 0 {
		depth := len(stack) - 1
		f := stack[depth]
		if f.next == len(f.ids) {
			stack = stack[:depth]
			if f.loop >= 0 {
				if err := fn(f.loop, p.Node(f.loop), depth-1, true); err != nil {
					return err
				}
			}
			continue
		}
		id := f.ids[f.next]
		stack[depth].next++
		n := p.Node(id)
		if err := fn(id, n, depth, false); err != nil {
			return err
		}
		if n.Op == OpLoop {
			stack = append(stack, frame{ids: n.Body, loop: id})
		}
	}
	return nil
}

// Len returns the number of nodes reachable from the root.
func (p *Program) Len() int {
	count := 0
	_ = p.Walk(func(_ NodeID, _ *Node, _ int, leave bool) error {
		if !leave {
			count++
		}
		return nil
	})
	return count
}
