package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leapstack-labs/leapbf/internal/cli/commands"
	"github.com/leapstack-labs/leapbf/internal/toolchain"
	"github.com/leapstack-labs/leapbf/pkg/interp"
	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/parser"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	parseErr := &parser.ParseError{Kind: parser.UnmatchedLoopStart}
	runtimeErr := &interp.RuntimeError{Op: ir.OpOutput, Err: errors.New("broken pipe")}
	toolErr := &toolchain.ToolError{Tool: "clang", Err: errors.New("exit status 1")}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "parse error", err: parseErr, want: exitParse},
		{name: "reported parse error", err: &commands.ReportedError{Err: parseErr}, want: exitParse},
		{name: "runtime error", err: fmt.Errorf("run: %w", runtimeErr), want: exitRuntime},
		{name: "tool error", err: fmt.Errorf("hello.bf: %w", toolErr), want: exitTool},
		{name: "other error", err: errors.New("open hello.bf: no such file"), want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
