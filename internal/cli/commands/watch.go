package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapbf/internal/toolchain"
)

// debounceInterval coalesces the burst of events an editor save produces.
const debounceInterval = 100 * time.Millisecond

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Build bool
	Emit  string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-run or rebuild a program whenever it changes",
		Long: `Watch a source file and interpret it again after every change.
With --build, rebuild it instead. Runs see end of input on ','.

Press Ctrl+C to stop.`,
		Example: `  # Re-run on save
  leapbf watch hello.bf

  # Rebuild LLVM IR on save
  leapbf watch hello.bf --build --emit llvm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Build, "build", false, "Rebuild instead of interpreting")
	cmd.Flags().StringVar(&opts.Emit, "emit", string(toolchain.TargetExecutable), "Artifact to emit with --build ("+strings.Join(toolchain.Targets(), "|")+")")

	return cmd
}

func runWatch(cmd *cobra.Command, path string, opts *WatchOptions) error {
	target, err := toolchain.ParseTarget(opts.Emit)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	action := newWatchAction(ctx, cc, path, target, opts)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file on save, so watch its directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	action()
	cc.Renderer.Muted(fmt.Sprintf("watching %s (Ctrl+C to stop)", path))
	watchLoop(ctx, watcher, abs, cc.Logger, action)
	return nil
}

// newWatchAction returns the step run on every change: rebuild or
// reinterpret path and report the outcome. Once ctx is done an interrupted
// run is not reported as a failure.
func newWatchAction(ctx context.Context, cc *CommandContext, path string, target toolchain.Target, opts *WatchOptions) func() {
	return func() {
		u, err := loadUnit(cc, path)
		if err != nil {
			if !IsReported(err) {
				cc.Renderer.Error(err.Error())
			}
			return
		}
		if opts.Build {
			out := target.OutputPath(path)
			if err := cc.Engine.Build(ctx, u, target, out); err != nil {
				if ctx.Err() == nil {
					cc.Renderer.Error(err.Error())
				}
				return
			}
			cc.Renderer.Success(fmt.Sprintf("%s -> %s", path, out))
			return
		}
		err = cc.Engine.Interpret(ctx, u, strings.NewReader(""), cc.Renderer.Writer())
		if err != nil && ctx.Err() == nil {
			cc.Renderer.Error(err.Error())
		}
	}
}

// watchLoop calls action once per debounced burst of changes to file until
// ctx is done or the watcher closes. action runs on the calling goroutine.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, file string, logger *slog.Logger, action func()) {
	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("change detected", slog.String("file", event.Name), slog.String("op", event.Op.String()))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			action()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
