// Package lower translates IR into an LLVM IR module.
//
// The module holds one function, main, with no parameters and an i32 return
// code, a zero-initialized tape global, and declarations of the I/O entry
// points supplied by the runtime stub (RuntimeSource). Output is flushed
// before main returns; an output fault, a read error or a failed final flush
// exits with ExitIOError. Lowering is a
// mechanical translation: every idiom optimization already happened in the IR.
package lower

import (
	_ "embed"
	"fmt"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/tape"
)

// Symbols shared with the runtime stub.
const (
	EntrySymbol   = "main"
	PutCharSymbol = "leapbf_putchar"
	GetCharSymbol = "leapbf_getchar"
	FlushSymbol   = "leapbf_flush"
	TapeSymbol    = "leapbf_tape"
)

// Exit codes returned by the generated entry function.
const (
	ExitOK      = 0
	ExitIOError = 1
)

// RuntimeSource is the C source of the I/O stub linked into executables.
//
//go:embed rt/leapbf_rt.c
var RuntimeSource string

// Options controls lowering.
type Options struct {
	Tape       tape.Config
	SourceName string
}

// Lower emits the LLVM module for p.
func Lower(p *ir.Program, opts Options) *llir.Module {
	if opts.Tape.Size <= 0 {
		opts.Tape.Size = tape.DefaultSize
	}
	l := newLowerer(p, opts)
	l.lower()
	return l.m
}

// lowerer carries the state of one lowering. cur is the block instructions
// are appended to; it changes whenever control flow splits.
type lowerer struct {
	prog *ir.Program
	cfg  tape.Config

	m      *llir.Module
	fn     *llir.Func
	tapeTy *types.ArrayType
	tape   *llir.Global
	putc   *llir.Func
	getc   *llir.Func
	flush  *llir.Func

	ptr  value.Value // i64 slot holding the tape index, always in [0, size)
	cur  *llir.Block
	fail *llir.Block
	seq  int
}

func newLowerer(p *ir.Program, opts Options) *lowerer {
	m := llir.NewModule()
	m.SourceFilename = opts.SourceName

	tapeTy := types.NewArray(uint64(opts.Tape.Size), types.I8)
	g := m.NewGlobalDef(TapeSymbol, constant.NewZeroInitializer(tapeTy))
	g.Linkage = enum.LinkageInternal

	return &lowerer{
		prog:   p,
		cfg:    opts.Tape,
		m:      m,
		tapeTy: tapeTy,
		tape:   g,
		putc:   m.NewFunc(PutCharSymbol, types.I32, llir.NewParam("c", types.I32)),
		getc:   m.NewFunc(GetCharSymbol, types.I32),
		flush:  m.NewFunc(FlushSymbol, types.I32),
		fn:     m.NewFunc(EntrySymbol, types.I32),
	}
}

func (l *lowerer) lower() {
	type frame struct {
		body []ir.NodeID
		next int
		cond *llir.Block
		exit *llir.Block
	}

	entry := l.fn.NewBlock("entry")
	l.ptr = entry.NewAlloca(types.I64)
	entry.NewStore(i64(0), l.ptr)
	l.cur = entry

	stack := []frame{{body: l.prog.Root}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := &stack[top]
		if f.next == len(f.body) {
			if top > 0 {
				// Back-edge to the condition block.
				l.cur.NewBr(f.cond)
				l.cur = f.exit
			}
			stack = stack[:top]
			continue
		}

		n := l.prog.Node(f.body[f.next])
		f.next++
		if n.Op != ir.OpLoop {
			l.straight(n)
			continue
		}

		id := l.nextID()
		cond := l.fn.NewBlock(fmt.Sprintf("loop%d.cond", id))
		body := l.fn.NewBlock(fmt.Sprintf("loop%d.body", id))
		exit := l.fn.NewBlock(fmt.Sprintf("loop%d.exit", id))
		l.cur.NewBr(cond)
		l.cur = cond
		l.branchOnCell(body, exit)
		l.cur = body
		stack = append(stack, frame{body: n.Body, cond: cond, exit: exit})
	}

	r := l.cur.NewCall(l.flush)
	done := l.fn.NewBlock("exit")
	l.cur.NewCondBr(l.cur.NewICmp(enum.IPredSLT, r, i32(0)), l.failBlock(), done)
	done.NewRet(i32(ExitOK))
}

// straight lowers one non-loop node into the current block.
func (l *lowerer) straight(n *ir.Node) {
	switch n.Op {
	case ir.OpAdd:
		addr := l.cellAddr(n.Offset)
		sum := l.cur.NewAdd(l.cur.NewLoad(types.I8, addr), i8(n.Delta))
		l.cur.NewStore(sum, addr)
	case ir.OpMove:
		l.move(n.Delta)
	case ir.OpOutput:
		c := l.cur.NewZExt(l.cur.NewLoad(types.I8, l.cellAddr(n.Offset)), types.I32)
		r := l.cur.NewCall(l.putc, c)
		bad := l.cur.NewICmp(enum.IPredSLT, r, i32(0))
		ok := l.fn.NewBlock(fmt.Sprintf("out%d.ok", l.nextID()))
		l.cur.NewCondBr(bad, l.failBlock(), ok)
		l.cur = ok
	case ir.OpInput:
		// getc returns -1 at end of input and -2 on a read error.
		c := l.cur.NewCall(l.getc)
		ok := l.fn.NewBlock(fmt.Sprintf("in%d.ok", l.nextID()))
		l.cur.NewCondBr(l.cur.NewICmp(enum.IPredSLT, c, i32(-1)), l.failBlock(), ok)
		l.cur = ok
		eof := l.cur.NewICmp(enum.IPredEQ, c, i32(-1))
		b := l.cur.NewTrunc(c, types.I8)
		addr := l.cellAddr(n.Offset)
		var keep value.Value = i8(0)
		if l.cfg.EOF == tape.EOFUnchanged {
			keep = l.cur.NewLoad(types.I8, addr)
		}
		l.cur.NewStore(l.cur.NewSelect(eof, keep, b), addr)
	case ir.OpSetZero:
		l.cur.NewStore(i8(0), l.cellAddr(n.Offset))
	case ir.OpScanZero:
		id := l.nextID()
		cond := l.fn.NewBlock(fmt.Sprintf("scan%d.cond", id))
		step := l.fn.NewBlock(fmt.Sprintf("scan%d.step", id))
		done := l.fn.NewBlock(fmt.Sprintf("scan%d.done", id))
		l.cur.NewBr(cond)
		l.cur = cond
		l.branchOnCell(step, done)
		l.cur = step
		l.move(n.Delta)
		l.cur.NewBr(cond)
		l.cur = done
	case ir.OpMulAdd:
		src := l.cur.NewLoad(types.I8, l.cellAddr(n.Src))
		prod := l.cur.NewMul(src, i8(n.Factor))
		addr := l.cellAddr(n.Offset)
		l.cur.NewStore(l.cur.NewAdd(l.cur.NewLoad(types.I8, addr), prod), addr)
	case ir.OpLoop:
		panic("lower: loop passed as straight-line node")
	}
}

// branchOnCell ends the current block with a branch to nonzero when the cell
// under the pointer is not zero, and to zero otherwise.
func (l *lowerer) branchOnCell(nonzero, zero *llir.Block) {
	v := l.cur.NewLoad(types.I8, l.cellAddr(0))
	l.cur.NewCondBr(l.cur.NewICmp(enum.IPredNE, v, i8(0)), nonzero, zero)
}

// index returns the wrapped tape index of pointer+off. The stored pointer is
// in [0, size) and off is reduced to [0, size), so one urem suffices.
func (l *lowerer) index(off int) value.Value {
	p := l.cur.NewLoad(types.I64, l.ptr)
	off = tape.Wrap(off, l.cfg.Size)
	if off == 0 {
		return p
	}
	return l.cur.NewURem(l.cur.NewAdd(p, i64(off)), i64(l.cfg.Size))
}

func (l *lowerer) cellAddr(off int) value.Value {
	return l.cur.NewGetElementPtr(l.tapeTy, l.tape, i64(0), l.index(off))
}

func (l *lowerer) move(delta int) {
	l.cur.NewStore(l.index(delta), l.ptr)
}

// failBlock returns the shared block that exits with ExitIOError.
func (l *lowerer) failBlock() *llir.Block {
	if l.fail == nil {
		l.fail = l.fn.NewBlock("io.fail")
		l.fail.NewRet(i32(ExitIOError))
	}
	return l.fail
}

func (l *lowerer) nextID() int {
	l.seq++
	return l.seq
}

func i8(x int) *constant.Int  { return constant.NewInt(types.I8, int64(x)) }
func i32(x int) *constant.Int { return constant.NewInt(types.I32, int64(x)) }
func i64(x int) *constant.Int { return constant.NewInt(types.I64, int64(x)) }
