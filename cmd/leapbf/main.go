// Package main provides the CLI for the leapbf tape-language toolchain.
package main

import (
	"errors"
	"os"

	"github.com/leapstack-labs/leapbf/internal/cli"
	"github.com/leapstack-labs/leapbf/internal/toolchain"
	"github.com/leapstack-labs/leapbf/pkg/interp"
	"github.com/leapstack-labs/leapbf/pkg/parser"
)

// Process exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitParse   = 2
	exitRuntime = 3
	exitTool    = 4
)

func main() {
	os.Exit(exitCode(cli.Execute()))
}

// exitCode maps a command error onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var parseErr *parser.ParseError
	var runtimeErr *interp.RuntimeError
	var toolErr *toolchain.ToolError
	switch {
	case errors.As(err, &parseErr):
		return exitParse
	case errors.As(err, &runtimeErr):
		return exitRuntime
	case errors.As(err, &toolErr):
		return exitTool
	default:
		return exitFailure
	}
}
