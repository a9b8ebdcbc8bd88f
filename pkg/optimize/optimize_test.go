package optimize_test

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapbf/pkg/interp"
	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/optimize"
	"github.com/leapstack-labs/leapbf/pkg/parser"
	"github.com/leapstack-labs/leapbf/pkg/tape"
)

const helloWorld = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."

func naive(t *testing.T, src string) *ir.Program {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	return ir.FromAST(tree)
}

func optimized(t *testing.T, src string, level optimize.Level, size int) *ir.Program {
	t.Helper()
	return optimize.Optimize(naive(t, src), optimize.Options{Level: level, TapeSize: size})
}

func TestParseLevel(t *testing.T) {
	for n := 0; n <= 2; n++ {
		level, err := optimize.ParseLevel(n)
		require.NoError(t, err)
		assert.Equal(t, optimize.Level(n), level)
	}

	_, err := optimize.ParseLevel(3)
	assert.Error(t, err)
	_, err = optimize.ParseLevel(-1)
	assert.Error(t, err)

	assert.Equal(t, optimize.LevelFull, optimize.DefaultOptions().Level)
	assert.Equal(t, tape.DefaultSize, optimize.DefaultOptions().TapeSize)
}

func TestOptimize_LevelNone(t *testing.T) {
	p := naive(t, "+++[-]")
	assert.Same(t, p, optimize.Optimize(p, optimize.Options{Level: optimize.LevelNone}))
}

func TestOptimize_Fold(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: "", want: ""},
		{name: "run of adds", src: "+++", want: "add +3 @0\n"},
		{name: "cancelling adds", src: "+-", want: ""},
		{name: "cancelling moves", src: "><", want: ""},
		{name: "full cell wrap", src: strings.Repeat("+", 256), want: ""},
		{name: "delta wraps to signed byte", src: strings.Repeat("+", 200), want: "add -56 @0\n"},
		{name: "offsets", src: "+++>>--<", want: "add +3 @0\nadd -2 @2\nmove +1\n"},
		{name: "output reads the virtual cell", src: "+>.<", want: "out @1\nadd +1 @0\n"},
		{name: "output flushes its own cell", src: "+>+<.>.", want: "add +1 @0\nout @0\nadd +1 @1\nout @1\nmove +1\n"},
		{name: "input flushes its own cell", src: "+,", want: "add +1 @0\nin @0\n"},
		{name: "loop is a barrier", src: "+>[-]", want: "add +1 @0\nmove +1\nloop {\n  add -1 @0\n}\n"},
		{name: "loop body coalesced", src: "[>>+<<-]", want: "loop {\n  add +1 @2\n  add -1 @0\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := optimized(t, tt.src, optimize.LevelFold, tape.DefaultSize)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestOptimize_Full(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "clear loop", src: "[-]", want: "zero @0\n"},
		{name: "clear loop increment", src: "[+]", want: "zero @0\n"},
		{name: "clear discards pending add", src: "+++[-]", want: "zero @0\n"},
		{name: "nested clear", src: "[[-]]", want: "zero @0\n"},
		{name: "clear at offset", src: ">>[-]", want: "zero @2\nmove +2\n"},
		{name: "add after clear", src: "[-]+++", want: "zero @0\nadd +3 @0\n"},
		{name: "scan right", src: "[>]", want: "scan +1\n"},
		{name: "scan left", src: "+[<]", want: "add +1 @0\nscan -1\n"},
		{name: "move loop", src: "[->+<]", want: "muladd @1 += @0 * 1\nzero @0\n"},
		{name: "multiply loop", src: "[->+>++<<]", want: "muladd @1 += @0 * 1\nmuladd @2 += @0 * 2\nzero @0\n"},
		{name: "negative factor", src: "[->-<]", want: "muladd @1 += @0 * -1\nzero @0\n"},
		{name: "incrementing counter", src: "[+>+<]", want: "muladd @1 += @0 * -1\nzero @0\n"},
		{name: "counter step of two stays a loop", src: "[-->+<]", want: "loop {\n  add -2 @0\n  add +1 @1\n}\n"},
		{name: "loop with output stays a loop", src: "[.-]", want: "loop {\n  out @0\n  add -1 @0\n}\n"},
		{name: "unbalanced movement stays a loop", src: "[->+]", want: "loop {\n  add -1 @0\n  add +1 @1\n  move +1\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := optimized(t, tt.src, optimize.LevelFull, tape.DefaultSize)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestOptimize_AliasingOffsets(t *testing.T) {
	// On a four-cell tape, three steps right and one step left reach the same cell.
	right := optimized(t, ">>>+", optimize.LevelFold, 4)
	left := optimized(t, "<+", optimize.LevelFold, 4)

	assert.Equal(t, "add +1 @-1\nmove -1\n", left.String())
	assert.True(t, ir.Equal(left, right))

	around := optimized(t, ">>>>+", optimize.LevelFold, 4)
	assert.Equal(t, "add +1 @0\n", around.String())
}

func TestOptimize_DoesNotModifyInput(t *testing.T) {
	p := naive(t, "+++[->+<]")
	before := p.String()
	optimize.Optimize(p, optimize.DefaultOptions())
	assert.Equal(t, before, p.String())
}

var corpus = []struct {
	name  string
	src   string
	input string
}{
	{name: "hello world", src: helloWorld},
	{name: "cat", src: ",[.,]", input: "hello, tape"},
	{name: "reverse", src: ">,[>,]<[.<]", input: "stressed"},
	{name: "multiply", src: "+++++[->+++<]>."},
	{name: "nested multiply", src: "++[>+++[>++<-]<-]>>."},
	{name: "incrementing counter", src: "--[+>+<]>."},
	{name: "cell wrap", src: "-.+."},
	{name: "pointer wrap", src: "<+++.>>+[<]>."},
	{name: "scan", src: "+>+>+>>+<<<<[>]>."},
	{name: "clear and reuse", src: "+++++[-]++.>+++[>+++<-]>[-<+>]<."},
}

// run executes p and returns its output and final tape.
func run(t *testing.T, p *ir.Program, cfg tape.Config, input string) (string, []byte, int) {
	t.Helper()
	var out bytes.Buffer
	it := interp.New(cfg, strings.NewReader(input), &out)
	require.NoError(t, it.Run(p))
	return out.String(), it.Tape().Cells(0, cfg.Size), it.Tape().Pointer()
}

func TestOptimize_PreservesBehavior(t *testing.T) {
	cfg := tape.Config{Size: 300, EOF: tape.EOFZero}

	for _, tc := range corpus {
		t.Run(tc.name, func(t *testing.T) {
			wantOut, wantTape, wantPtr := run(t, naive(t, tc.src), cfg, tc.input)

			for _, level := range []optimize.Level{optimize.LevelFold, optimize.LevelFull} {
				p := optimized(t, tc.src, level, cfg.Size)
				out, cells, ptr := run(t, p, cfg, tc.input)
				assert.Equal(t, wantOut, out, "level %d output", level)
				assert.Equal(t, wantTape, cells, "level %d tape", level)
				assert.Equal(t, wantPtr, ptr, "level %d pointer", level)
			}
		})
	}
}

func TestOptimize_HelloWorld(t *testing.T) {
	cfg := tape.Config{Size: tape.DefaultSize}
	out, _, _ := run(t, optimized(t, helloWorld, optimize.LevelFull, cfg.Size), cfg, "")
	assert.Equal(t, "Hello World!\n", out)
}

func TestOptimize_Idempotent(t *testing.T) {
	for _, tc := range corpus {
		for _, level := range []optimize.Level{optimize.LevelFold, optimize.LevelFull} {
			opts := optimize.Options{Level: level, TapeSize: 300}
			once := optimize.Optimize(naive(t, tc.src), opts)
			twice := optimize.Optimize(once, opts)
			assert.True(t, ir.Equal(once, twice), "%s at level %d:\n%s\nvs\n%s", tc.name, level, once, twice)
		}
	}
}

func TestOptimize_ShrinksHelloWorld(t *testing.T) {
	before := naive(t, helloWorld).Len()
	after := optimized(t, helloWorld, optimize.LevelFull, tape.DefaultSize).Len()
	assert.Less(t, after, before)
}

func TestOptimize_RandomStraightLine(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte("+-<>.")

	for _, size := range []int{7, 8, 300} {
		cfg := tape.Config{Size: size}
		for i := 0; i < 200; i++ {
			buf := make([]byte, rng.Intn(60))
			for j := range buf {
				buf[j] = alphabet[rng.Intn(len(alphabet))]
			}
			src := string(buf)

			wantOut, wantTape, wantPtr := run(t, naive(t, src), cfg, "")
			out, cells, ptr := run(t, optimized(t, src, optimize.LevelFull, size), cfg, "")
			assert.Equal(t, wantOut, out, "size %d source %q", size, src)
			assert.Equal(t, wantTape, cells, "size %d source %q", size, src)
			assert.Equal(t, wantPtr, ptr, "size %d source %q", size, src)
		}
	}
}
