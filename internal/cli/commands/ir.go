package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapbf/internal/engine"
	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/optimize"
)

// IROptions holds options for the ir command.
type IROptions struct {
	Format string
	Stats  bool
}

// irFormats lists the supported dump formats.
var irFormats = []string{"text", "json", "yaml"}

// NewIRCommand creates the ir command.
func NewIRCommand() *cobra.Command {
	opts := &IROptions{}

	cmd := &cobra.Command{
		Use:   "ir <file>",
		Short: "Show the optimized IR of a program",
		Long: `Print the IR a program compiles to at the selected optimization level.

With --stats, print a table comparing node counts per operation at every
level instead.`,
		Example: `  # Optimized IR as indented text
  leapbf ir hello.bf

  # The naive translation as JSON
  leapbf ir hello.bf -O0 --format json

  # Compare levels
  leapbf ir hello.bf --stats`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIR(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format (text|json|yaml)")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "Print node counts per operation for each level")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return irFormats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runIR(cmd *cobra.Command, path string, opts *IROptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if !opts.Stats {
		u, err := loadUnit(cc, path)
		if err != nil {
			return err
		}
		return writeIR(cc, u.Program, opts.Format)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	levels := []optimize.Level{optimize.LevelNone, optimize.LevelFold, optimize.LevelFull}
	units := make([]*engine.Unit, 0, len(levels))
	for _, level := range levels {
		u, err := compileSource(cc, path, src, level)
		if err != nil {
			return err
		}
		units = append(units, u)
	}
	renderIRStats(cc, levels, units)
	return nil
}

func writeIR(cc *CommandContext, p *ir.Program, format string) error {
	w := cc.Renderer.Writer()
	switch format {
	case "text", "":
		return p.Format(w)
	case "json":
		return p.EncodeJSON(w)
	case "yaml":
		return p.EncodeYAML(w)
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func renderIRStats(cc *CommandContext, levels []optimize.Level, units []*engine.Unit) {
	stats := make([]ir.Stats, len(units))
	for i, u := range units {
		stats[i] = u.Program.Stats()
	}

	t := cc.Renderer.Table()
	header := table.Row{"op"}
	for _, level := range levels {
		header = append(header, fmt.Sprintf("-O%d", level))
	}
	t.AppendHeader(header)

	for _, op := range ir.Ops() {
		row := table.Row{op.String()}
		for _, s := range stats {
			row = append(row, s.ByOp[op])
		}
		t.AppendRow(row)
	}

	total := table.Row{"total"}
	depth := table.Row{"loop depth"}
	for _, s := range stats {
		total = append(total, s.Nodes)
		depth = append(depth, s.MaxDepth)
	}
	t.AppendFooter(total)
	t.AppendFooter(depth)
	t.Render()
}
