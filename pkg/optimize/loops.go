package optimize

import (
	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/token"
)

// reduceLoop returns the straight-line replacement for a loop whose coalesced
// body matches a known shape. pos is the position of the loop's '['.
func reduceLoop(body []ir.Node, pos token.Position) ([]ir.Node, bool) {
	if len(body) == 1 {
		n := body[0]
		switch {
		case n.Op == ir.OpAdd && n.Offset == 0 && (n.Delta == 1 || n.Delta == -1):
			// [-] and [+]
			return []ir.Node{ir.SetZero(0).At(pos)}, true
		case n.Op == ir.OpSetZero && n.Offset == 0:
			// [[-]]
			return []ir.Node{ir.SetZero(0).At(pos)}, true
		case n.Op == ir.OpMove && (n.Delta == 1 || n.Delta == -1):
			// [>] and [<]
			return []ir.Node{ir.ScanZero(n.Delta).At(pos)}, true
		}
	}
	return reduceMulLoop(body, pos)
}

// reduceMulLoop recognizes loops made only of Adds with no net pointer
// movement, where the counter cell (offset 0) changes by exactly one per
// iteration. A counter of -1 runs x times; a counter of +1 runs 256-x times,
// which is the same as -x times modulo 256, so its factors are negated.
func reduceMulLoop(body []ir.Node, pos token.Position) ([]ir.Node, bool) {
	counter, found := 0, false
	for _, n := range body {
		if n.Op != ir.OpAdd {
			return nil, false
		}
		if n.Offset == 0 {
			if found {
				return nil, false
			}
			counter, found = n.Delta, true
		}
	}
	if !found || (counter != -1 && counter != 1) {
		return nil, false
	}

	repl := make([]ir.Node, 0, len(body))
	for _, n := range body {
		if n.Offset == 0 {
			continue
		}
		factor := n.Delta
		if counter == 1 {
			factor = -factor
		}
		repl = append(repl, ir.MulAdd(0, n.Offset, wrapDelta(factor)).At(n.Pos))
	}
	return append(repl, ir.SetZero(0).At(pos)), true
}
