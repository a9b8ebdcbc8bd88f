package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapbf/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs and builds",
		Long: `List the most recent interpreter runs and builds recorded in the
history database, newest first.`,
		Example: `  # The last 20 runs
  leapbf history

  # Everything, from a specific database
  leapbf history --limit 0 --state /tmp/leapbf.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc := NewCommandContextWithoutEngine(cmd)
	if !cc.Cfg.History {
		return errors.New("run history is disabled (history: false)")
	}

	store := state.NewSQLiteStore(cc.Logger)
	if err := store.Open(cc.Cfg.StatePath); err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}
	renderHistory(cc, runs)
	return nil
}

func renderHistory(cc *CommandContext, runs []*state.Run) {
	if len(runs) == 0 {
		cc.Renderer.Muted("(no runs recorded)")
		return
	}

	title := cases.Title(language.English)
	styles := cc.Renderer.Styles()

	t := cc.Renderer.Table()
	t.AppendHeader(table.Row{"id", "source", "mode", "target", "level", "nodes", "status", "duration", "started"})
	for _, run := range runs {
		status := title.String(string(run.Status))
		switch run.Status {
		case state.RunStatusSucceeded:
			status = styles.Success.Render(status)
		case state.RunStatusFailed:
			status = styles.Error.Render(status)
		}
		target := run.Target
		if target == "" {
			target = "-"
		}
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Source,
			title.String(string(run.Mode)),
			target,
			fmt.Sprintf("-O%d", run.OptLevel),
			run.IRNodes,
			status,
			run.Duration().Round(time.Microsecond),
			run.StartedAt.Local().Format(time.DateTime),
		})
	}
	t.Render()

	for _, run := range runs {
		if run.Error != "" {
			cc.Renderer.Muted(fmt.Sprintf("%s: %s", shortID(run.ID), run.Error))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
