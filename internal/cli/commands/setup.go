package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapbf/internal/cli/config"
	"github.com/leapstack-labs/leapbf/internal/cli/output"
	"github.com/leapstack-labs/leapbf/internal/engine"
	"github.com/leapstack-labs/leapbf/internal/state"
	"github.com/leapstack-labs/leapbf/pkg/optimize"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Color)

	eng, err := createEngine(cfg, logger, openHistory(cfg, logger))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Color),
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger, store state.Store) (*engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		Tape:      cfg.Tape(),
		OptLevel:  cfg.Level(),
		Toolchain: cfg.Toolchain(),
		Jobs:      cfg.Jobs,
		Store:     store,
		Logger:    logger,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return eng, nil
}

// openHistory opens the run history store. History is best effort: when it
// is disabled or cannot be opened, runs proceed without it.
func openHistory(cfg *config.Config, logger *slog.Logger) state.Store {
	if !cfg.History || cfg.StatePath == "" {
		return nil
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		logger.Warn("run history disabled", slog.String("path", cfg.StatePath), slog.String("error", err.Error()))
		return nil
	}
	return store
}

// ReportedError marks an error whose diagnostic has already been written.
// Execute does not print it again but still derives the exit code from it.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }

func (e *ReportedError) Unwrap() error { return e.Err }

// loadUnit reads and compiles path at the configured level, rendering parse
// errors with source context.
func loadUnit(cc *CommandContext, path string) (*engine.Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return compileSource(cc, path, src, cc.Cfg.Level())
}

func compileSource(cc *CommandContext, name string, src []byte, level optimize.Level) (*engine.Unit, error) {
	u, err := cc.Engine.FrontendAt(name, src, level)
	if err != nil {
		cc.Renderer.Diagnostic(name, src, err)
		return nil, &ReportedError{Err: err}
	}
	return u, nil
}

// IsReported reports whether err has already been rendered.
func IsReported(err error) bool {
	var re *ReportedError
	return errors.As(err, &re)
}
