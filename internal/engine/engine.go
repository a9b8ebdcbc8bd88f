// Package engine drives the toolchain: it feeds source through the lexer,
// parser and optimizer, then dispatches the resulting IR to the interpreter or
// to lowering plus the external compiler.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	llir "github.com/llir/llvm/ir"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapbf/internal/state"
	"github.com/leapstack-labs/leapbf/internal/toolchain"
	"github.com/leapstack-labs/leapbf/pkg/interp"
	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/lower"
	"github.com/leapstack-labs/leapbf/pkg/optimize"
	"github.com/leapstack-labs/leapbf/pkg/parser"
	"github.com/leapstack-labs/leapbf/pkg/tape"
)

// Config holds engine configuration.
type Config struct {
	// Tape is the tape policy shared by both backends.
	Tape tape.Config
	// OptLevel selects the optimizer passes.
	OptLevel optimize.Level
	// Toolchain configures the external compiler used by Build.
	Toolchain toolchain.Config
	// Jobs bounds concurrent builds in BuildAll (0 means number of CPUs).
	Jobs int
	// Store records run history (optional, nil disables recording).
	Store state.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Engine orchestrates front end and backends.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	store  state.Store
	tc     *toolchain.Toolchain
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Tape.Size == 0 {
		cfg.Tape.Size = tape.DefaultSize
	}
	if err := cfg.Tape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tape configuration: %w", err)
	}
	if _, err := optimize.ParseLevel(int(cfg.OptLevel)); err != nil {
		return nil, err
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}

	logger.Debug("initializing engine",
		slog.Int("tape_size", cfg.Tape.Size),
		slog.String("eof", cfg.Tape.EOF.String()),
		slog.Int("opt_level", int(cfg.OptLevel)),
	)

	return &Engine{
		cfg:    cfg,
		logger: logger,
		store:  cfg.Store,
		tc:     toolchain.New(cfg.Toolchain, logger),
	}, nil
}

// Close releases the engine's store, if any.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Toolchain returns the external compiler driver.
func (e *Engine) Toolchain() *toolchain.Toolchain {
	return e.tc
}

// Unit is one source file carried through the front end. Tokens and AST are
// discarded once the IR is built.
type Unit struct {
	Name    string
	Hash    string
	Program *ir.Program
}

// Load reads a source file and runs the front end on it.
func (e *Engine) Load(path string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return e.Frontend(path, src)
}

// Frontend lexes, parses and optimizes src at the configured level.
func (e *Engine) Frontend(name string, src []byte) (*Unit, error) {
	return e.FrontendAt(name, src, e.cfg.OptLevel)
}

// FrontendAt is Frontend with an explicit optimization level.
func (e *Engine) FrontendAt(name string, src []byte, level optimize.Level) (*Unit, error) {
	start := time.Now()
	tokens := parser.Lex(src)
	tree, err := parser.ParseTokens(tokens)
	if err != nil {
		return nil, err
	}
	naive := ir.FromAST(tree)
	prog := optimize.Optimize(naive, optimize.Options{Level: level, TapeSize: e.cfg.Tape.Size})

	sum := sha256.Sum256(src)
	e.logger.Debug("front end complete",
		slog.String("source", name),
		slog.Int("tokens", len(tokens)),
		slog.Int("naive_nodes", naive.Len()),
		slog.Int("ir_nodes", prog.Len()),
		slog.Int("opt_level", int(level)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &Unit{Name: name, Hash: hex.EncodeToString(sum[:]), Program: prog}, nil
}

// NewInterpreter returns an interpreter using the engine's tape policy.
func (e *Engine) NewInterpreter(in io.Reader, out io.Writer) *interp.Interpreter {
	return interp.New(e.cfg.Tape, in, out)
}

// Interpret runs u on a fresh tape.
func (e *Engine) Interpret(ctx context.Context, u *Unit, in io.Reader, out io.Writer) (err error) {
	done := e.record(ctx, u, state.ModeInterpret, "")
	defer func() { done(err) }()

	start := time.Now()
	err = e.NewInterpreter(in, out).RunContext(ctx, u.Program)
	e.logger.Debug("interpretation finished", slog.String("source", u.Name), slog.Duration("elapsed", time.Since(start)))
	return err
}

// Lower translates u into an LLVM module.
func (e *Engine) Lower(u *Unit) *llir.Module {
	start := time.Now()
	m := lower.Lower(u.Program, lower.Options{Tape: e.cfg.Tape, SourceName: u.Name})
	e.logger.Debug("lowering complete", slog.String("source", u.Name), slog.Duration("elapsed", time.Since(start)))
	return m
}

// Build lowers u and materializes it as target at outPath.
func (e *Engine) Build(ctx context.Context, u *Unit, target toolchain.Target, outPath string) (err error) {
	done := e.record(ctx, u, state.ModeCompile, string(target))
	defer func() { done(err) }()

	return e.tc.Build(ctx, e.Lower(u), target, outPath)
}

// BuildJob is one source file to build.
type BuildJob struct {
	Source string
	Output string
	Target toolchain.Target
}

// BuildAll builds every job concurrently, at most Jobs at a time. It returns
// the first failure; remaining jobs are cancelled.
func (e *Engine) BuildAll(ctx context.Context, jobs []BuildJob) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Jobs)
	for _, job := range jobs {
		g.Go(func() error {
			u, err := e.Load(job.Source)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Source, err)
			}
			if err := e.Build(gctx, u, job.Target, job.Output); err != nil {
				return fmt.Errorf("%s: %w", job.Source, err)
			}
			e.logger.Info("built", slog.String("source", job.Source), slog.String("output", job.Output))
			return nil
		})
	}
	return g.Wait()
}

// record starts a history entry for u and returns the function that
// completes it. History failures are logged and never fail the run.
func (e *Engine) record(ctx context.Context, u *Unit, mode state.Mode, target string) func(error) {
	if e.store == nil {
		return func(error) {}
	}
	run, err := e.store.CreateRun(ctx, &state.Run{
		Source:     u.Name,
		SourceHash: u.Hash,
		Mode:       mode,
		Target:     target,
		OptLevel:   int(e.cfg.OptLevel),
		IRNodes:    u.Program.Len(),
	})
	if err != nil {
		e.logger.Warn("failed to record run", slog.String("error", err.Error()))
		return func(error) {}
	}
	return func(runErr error) {
		status, msg := state.RunStatusSucceeded, ""
		if runErr != nil {
			status, msg = state.RunStatusFailed, runErr.Error()
		}
		if err := e.store.CompleteRun(context.WithoutCancel(ctx), run.ID, status, msg); err != nil {
			e.logger.Warn("failed to complete run record", slog.String("id", run.ID), slog.String("error", err.Error()))
		}
	}
}
