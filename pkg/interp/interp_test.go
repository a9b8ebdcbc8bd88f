package interp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/parser"
	"github.com/leapstack-labs/leapbf/pkg/tape"
)

func compile(t *testing.T, src string) *ir.Program {
	t.Helper()
	tree, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	return ir.FromAST(tree)
}

func runSource(t *testing.T, cfg tape.Config, src, input string) string {
	t.Helper()
	var out bytes.Buffer
	it := New(cfg, strings.NewReader(input), &out)
	require.NoError(t, it.Run(compile(t, src)))
	return out.String()
}

var errBroken = errors.New("broken pipe")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errBroken }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

// recordingReader records what had been written to out when each byte was read.
type recordingReader struct {
	input []byte
	out   *bytes.Buffer
	seen  []string
}

func (r *recordingReader) Read(p []byte) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}

func (r *recordingReader) ReadByte() (byte, error) {
	r.seen = append(r.seen, r.out.String())
	if len(r.input) == 0 {
		return 0, io.EOF
	}
	b := r.input[0]
	r.input = r.input[1:]
	return b, nil
}

func TestRun_HelloWorld(t *testing.T) {
	src := "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."
	assert.Equal(t, "Hello World!\n", runSource(t, tape.DefaultConfig(), src, ""))
}

func TestRun_CellWrap(t *testing.T) {
	assert.Equal(t, "\xff\x00", runSource(t, tape.DefaultConfig(), "-.+.", ""))
}

func TestRun_PointerWrap(t *testing.T) {
	it := New(tape.Config{Size: 16}, nil, nil)
	require.NoError(t, it.Run(compile(t, "<++")))

	assert.Equal(t, 15, it.Tape().Pointer())
	assert.Equal(t, byte(2), it.Tape().Cell(15))

	require.NoError(t, it.Run(compile(t, ">+")))
	assert.Equal(t, 0, it.Tape().Pointer())
	assert.Equal(t, byte(1), it.Tape().Cell(0))
}

func TestRun_Input(t *testing.T) {
	cfg := tape.Config{Size: 64, EOF: tape.EOFZero}
	assert.Equal(t, "tape", runSource(t, cfg, ",[.,]", "tape"))
}

func TestRun_EOFPolicy(t *testing.T) {
	tests := []struct {
		name string
		eof  tape.EOFPolicy
		want string
	}{
		{name: "unchanged", eof: tape.EOFUnchanged, want: "\x05"},
		{name: "zero", eof: tape.EOFZero, want: "\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tape.Config{Size: 8, EOF: tt.eof}
			assert.Equal(t, tt.want, runSource(t, cfg, "+++++,.", ""))
		})
	}
}

func TestRun_NilStreams(t *testing.T) {
	it := New(tape.Config{}, nil, nil)
	assert.Equal(t, tape.DefaultSize, it.Tape().Size())
	require.NoError(t, it.Run(compile(t, "+,.")))
	assert.Equal(t, byte(1), it.Tape().Get(0))
}

func TestRun_FlushesBeforeRead(t *testing.T) {
	var out bytes.Buffer
	r := &recordingReader{input: []byte("x"), out: &out}
	it := New(tape.Config{Size: 8}, r, &out)

	require.NoError(t, it.Run(compile(t, "++++++++[>++++++++<-]>+.,.")))
	require.Len(t, r.seen, 1)
	assert.Equal(t, "A", r.seen[0])
	assert.Equal(t, "Ax", out.String())
}

func TestRun_TapePersists(t *testing.T) {
	var out bytes.Buffer
	it := New(tape.Config{Size: 8}, nil, &out)

	require.NoError(t, it.Run(compile(t, "+++")))
	require.NoError(t, it.Run(compile(t, ">")))
	require.NoError(t, it.Run(compile(t, "<.")))
	assert.Equal(t, "\x03", out.String())

	it.Tape().Reset()
	require.NoError(t, it.Run(compile(t, ".")))
	assert.Equal(t, "\x03\x00", out.String())
}

func TestRun_OutputError(t *testing.T) {
	// Ten increments then output: a newline forces a flush.
	p := compile(t, "++++++++++.")
	it := New(tape.Config{Size: 8}, nil, failingWriter{})

	err := it.Run(p)
	require.Error(t, err)

	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ir.OpOutput, rerr.Op)
	assert.Equal(t, ir.NodeID(10), rerr.Node)
	assert.Equal(t, 11, rerr.Pos.Column)
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "runtime error in out")
}

func TestRun_OutputErrorOnFinalFlush(t *testing.T) {
	it := New(tape.Config{Size: 8}, nil, failingWriter{})

	err := it.Run(compile(t, "+."))
	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ir.OpOutput, rerr.Op)
	assert.ErrorIs(t, err, errBroken)
}

func TestRun_InputError(t *testing.T) {
	it := New(tape.Config{Size: 8}, failingReader{}, nil)

	err := it.Run(compile(t, "+,"))
	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ir.OpInput, rerr.Op)
	assert.Equal(t, 2, rerr.Pos.Column)
}

func TestRun_OptimizedOps(t *testing.T) {
	b := ir.NewBuilder()
	p := b.Finish(b.AddAll([]ir.Node{
		ir.Add(3, 0),
		ir.MulAdd(0, 1, -1),
		ir.MulAdd(0, 2, 5),
		ir.SetZero(0),
		ir.Add(1, 4),
		ir.Move(4),
		ir.ScanZero(-1),
	}))

	it := New(tape.Config{Size: 8}, nil, nil)
	require.NoError(t, it.Run(p))

	tp := it.Tape()
	assert.Equal(t, []byte{0, 253, 15, 0, 1, 0, 0, 0}, tp.Cells(0, 8))
	assert.Equal(t, 3, tp.Pointer(), "scan stops at the first zero cell to the left")
}

func TestRun_DeepNesting(t *testing.T) {
	const depth = 50000
	src := "+" + strings.Repeat("[", depth) + "-" + strings.Repeat("]", depth)

	it := New(tape.Config{Size: 8}, nil, nil)
	require.NoError(t, it.Run(compile(t, src)))
	assert.Equal(t, byte(0), it.Tape().Get(0))
}

func TestRun_ClearLoopLeavesZero(t *testing.T) {
	var out bytes.Buffer
	it := New(tape.Config{Size: 8}, nil, &out)
	require.NoError(t, it.Run(compile(t, "+[-]")))
	assert.Equal(t, byte(0), it.Tape().Get(0))
	assert.Empty(t, out.String())
}

func TestRun_256IncrementsWrapToZero(t *testing.T) {
	src := strings.Repeat("+", 256) + "."
	assert.Equal(t, "\x00", runSource(t, tape.DefaultConfig(), src, ""))
}

func TestRunContext_CanceledStopsInfiniteLoop(t *testing.T) {
	// Every cell is non-zero, so the scan never finds a stop.
	b := ir.NewBuilder()
	endlessScan := b.Finish(b.AddAll([]ir.Node{
		ir.Add(1, 0), ir.Add(1, 1), ir.Add(1, 2), ir.Add(1, 3),
		ir.ScanZero(1),
	}))

	tests := []struct {
		name string
		prog *ir.Program
	}{
		{name: "empty body", prog: compile(t, "+[]")},
		{name: "busy body", prog: compile(t, "+[>+<]")},
		{name: "scan", prog: endlessScan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			it := New(tape.Config{Size: 4}, nil, nil)
			assert.ErrorIs(t, it.RunContext(ctx, tt.prog), context.Canceled)
		})
	}
}

func TestRunContext_DeadlineFlushesOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	it := New(tape.DefaultConfig(), nil, &out)
	err := it.RunContext(ctx, compile(t, "++++++++[>++++++++<-]>+.[]"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "A", out.String())
}

func TestRunContext_FinishesBeforeDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var out bytes.Buffer
	it := New(tape.DefaultConfig(), nil, &out)
	require.NoError(t, it.RunContext(ctx, compile(t, "++++++++[>++++++++<-]>+.")))
	assert.Equal(t, "A", out.String())
}
