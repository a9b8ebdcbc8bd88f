package optimize

import (
	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/tape"
	"github.com/leapstack-labs/leapbf/pkg/token"
)

// pendingAdd is a folded, not yet emitted Add.
type pendingAdd struct {
	off   int
	delta int
	pos   token.Position
}

// block coalesces the straight-line nodes of one loop body (or the top level).
//
// ptr is the virtual pointer relative to the block's entry pointer. Adds are
// held in pending, keyed by offset in first-seen order, until an operation
// that observes their cell forces them out. Adds to other cells commute with
// that operation and stay pending.
type block struct {
	size    int
	out     []ir.Node
	ptr     int
	movePos token.Position
	pending []pendingAdd
}

func newBlock(size int) *block {
	return &block{size: size}
}

// rel converts an offset relative to the current virtual pointer into an
// offset relative to the block entry.
func (b *block) rel(off int) int {
	return tape.Normalize(b.ptr+off, b.size)
}

// straight feeds one non-loop node into the block.
func (b *block) straight(n ir.Node) {
	switch n.Op {
	case ir.OpAdd:
		b.add(b.rel(n.Offset), n.Delta, n.Pos)
	case ir.OpMove:
		if b.ptr == 0 {
			b.movePos = n.Pos
		}
		b.ptr = tape.Normalize(b.ptr+n.Delta, b.size)
	case ir.OpOutput:
		off := b.rel(n.Offset)
		b.flush(off)
		b.emit(ir.Output(off).At(n.Pos))
	case ir.OpInput:
		// Input may leave the cell unchanged at end of input, so a pending
		// Add to it is still observable.
		off := b.rel(n.Offset)
		b.flush(off)
		b.emit(ir.Input(off).At(n.Pos))
	case ir.OpSetZero:
		off := b.rel(n.Offset)
		b.drop(off)
		b.emit(ir.SetZero(off).At(n.Pos))
	case ir.OpMulAdd:
		src, dst := b.rel(n.Src), b.rel(n.Offset)
		b.flush(src)
		b.flush(dst)
		b.emit(ir.MulAdd(src, dst, wrapDelta(n.Factor)).At(n.Pos))
	case ir.OpScanZero:
		b.barrier()
		b.emit(ir.ScanZero(n.Delta).At(n.Pos))
	case ir.OpLoop:
		panic("optimize: loop passed as straight-line node")
	}
}

// loop appends a loop that could not be reduced. The loop tests the real
// pointer, so everything pending is emitted first.
func (b *block) loop(n ir.Node) {
	b.barrier()
	b.emit(n)
}

// finish emits everything pending and returns the block's nodes.
func (b *block) finish() []ir.Node {
	b.barrier()
	return b.out
}

func (b *block) emit(n ir.Node) {
	b.out = append(b.out, n)
}

func (b *block) add(off, delta int, pos token.Position) {
	for i := range b.pending {
		if b.pending[i].off == off {
			b.pending[i].delta = wrapDelta(b.pending[i].delta + delta)
			return
		}
	}
	b.pending = append(b.pending, pendingAdd{off: off, delta: wrapDelta(delta), pos: pos})
}

// flush emits the pending Add for off, if any.
func (b *block) flush(off int) {
	for i, p := range b.pending {
		if p.off == off {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			if p.delta != 0 {
				b.emit(ir.Add(p.delta, p.off).At(p.pos))
			}
			return
		}
	}
}

// drop discards the pending Add for off; the cell is about to be overwritten.
func (b *block) drop(off int) {
	for i, p := range b.pending {
		if p.off == off {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return
		}
	}
}

// barrier emits all pending Adds in first-seen order followed by the net
// pointer movement, and resets the virtual pointer.
func (b *block) barrier() {
	for _, p := range b.pending {
		if p.delta != 0 {
			b.emit(ir.Add(p.delta, p.off).At(p.pos))
		}
	}
	b.pending = b.pending[:0]
	if b.ptr != 0 {
		b.emit(ir.Move(b.ptr).At(b.movePos))
	}
	b.ptr = 0
	b.movePos = token.Position{}
}
