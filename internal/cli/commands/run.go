package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Input string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Interpret a program",
		Long: `Parse, optimize and interpret a program.

Input is read from stdin unless --input names a file. When the input is
exhausted, ',' follows the configured eof policy.`,
		Example: `  # Run a program
  leapbf run hello.bf

  # Feed input from a file with an unoptimized IR
  leapbf run rot13.bf --input text.txt -O0

  # Store 0 at end of input
  leapbf run cat.bf --eof zero`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read program input from this file instead of stdin")

	return cmd
}

func runRun(cmd *cobra.Command, path string, opts *RunOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	u, err := loadUnit(cc, path)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	start := time.Now()
	if err := cc.Engine.Interpret(cmd.Context(), u, in, cmd.OutOrStdout()); err != nil {
		return err
	}
	cc.Logger.Debug("run complete", slog.String("source", path), slog.Duration("elapsed", time.Since(start)))
	return nil
}
