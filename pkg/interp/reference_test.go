package interp

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/optimize"
	"github.com/leapstack-labs/leapbf/pkg/parser"
	"github.com/leapstack-labs/leapbf/pkg/tape"
)

const referenceStepLimit = 100000

// referenceResult is the observable state after a reference run.
type referenceResult struct {
	out   string
	cells []byte
	ptr   int
}

// reference executes src directly, one source byte per step. It reports
// false when the program has not finished after limit steps.
func reference(src string, cfg tape.Config, input []byte, limit int) (referenceResult, bool) {
	match := make(map[int]int)
	var open []int
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '[':
			open = append(open, i)
		case ']':
			j := open[len(open)-1]
			open = open[:len(open)-1]
			match[i], match[j] = j, i
		}
	}

	cells := make([]byte, cfg.Size)
	ptr := 0
	var out bytes.Buffer
	for pc, steps := 0, 0; pc < len(src); pc, steps = pc+1, steps+1 {
		if steps == limit {
			return referenceResult{}, false
		}
		switch src[pc] {
		case '+':
			cells[ptr]++
		case '-':
			cells[ptr]--
		case '>':
			ptr = (ptr + 1) % cfg.Size
		case '<':
			ptr = (ptr + cfg.Size - 1) % cfg.Size
		case '.':
			out.WriteByte(cells[ptr])
		case ',':
			if len(input) > 0 {
				cells[ptr], input = input[0], input[1:]
			} else if cfg.EOF == tape.EOFZero {
				cells[ptr] = 0
			}
		case '[':
			if cells[ptr] == 0 {
				pc = match[pc]
			}
		case ']':
			if cells[ptr] != 0 {
				pc = match[pc]
			}
		}
	}
	return referenceResult{out: out.String(), cells: cells, ptr: ptr}, true
}

// randomProgram returns a program of roughly n commands whose brackets match.
func randomProgram(rng *rand.Rand, n int) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < n; i++ {
		switch r := rng.Intn(12); {
		case r < 2:
			b.WriteByte('[')
			depth++
		case r < 4 && depth > 0:
			b.WriteByte(']')
			depth--
		default:
			b.WriteByte("+-<>.,"[rng.Intn(6)])
		}
	}
	b.WriteString(strings.Repeat("]", depth))
	return b.String()
}

func TestRun_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sizes := []int{5, 8, 300}
	policies := []tape.EOFPolicy{tape.EOFUnchanged, tape.EOFZero}
	levels := []optimize.Level{optimize.LevelNone, optimize.LevelFold, optimize.LevelFull}

	compared := 0
	for i := 0; i < 1000; i++ {
		src := randomProgram(rng, 1+rng.Intn(40))
		input := make([]byte, rng.Intn(6))
		rng.Read(input)
		cfg := tape.Config{
			Size: sizes[rng.Intn(len(sizes))],
			EOF:  policies[rng.Intn(len(policies))],
		}

		want, finished := reference(src, cfg, input, referenceStepLimit)
		if !finished {
			continue
		}
		compared++

		tree, err := parser.Parse([]byte(src))
		require.NoError(t, err, "source %q", src)
		naive := ir.FromAST(tree)

		for _, level := range levels {
			p := optimize.Optimize(naive, optimize.Options{Level: level, TapeSize: cfg.Size})

			var out bytes.Buffer
			it := New(cfg, bytes.NewReader(input), &out)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := it.RunContext(ctx, p)
			cancel()
			require.NoError(t, err, "source %q at -O%d", src, level)

			assert.Equal(t, want.out, out.String(), "output of %q at -O%d (tape %d, eof %s)", src, level, cfg.Size, cfg.EOF)
			assert.Equal(t, want.cells, it.Tape().Cells(0, cfg.Size), "cells of %q at -O%d", src, level)
			assert.Equal(t, want.ptr, it.Tape().Pointer(), "pointer of %q at -O%d", src, level)
		}
	}
	assert.Greater(t, compared, 100, "too few programs finished within the step limit")
}

func TestReference_Scenarios(t *testing.T) {
	cfg := tape.Config{Size: 8, EOF: tape.EOFZero}

	got, ok := reference("+[-]", cfg, nil, referenceStepLimit)
	require.True(t, ok)
	assert.Equal(t, byte(0), got.cells[0])

	_, ok = reference("+[]", cfg, nil, referenceStepLimit)
	assert.False(t, ok, "an endless loop hits the step limit")

	got, ok = reference(",[.,]", cfg, []byte("ab"), referenceStepLimit)
	require.True(t, ok)
	assert.Equal(t, "ab", got.out)
}
