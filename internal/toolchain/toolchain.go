// Package toolchain drives the external C/LLVM compiler that turns a lowered
// module into an object file, assembly, or a linked executable.
//
// Tool failures are never reinterpreted: a *ToolError carries the tool's own
// output verbatim.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/leapbf/pkg/lower"
)

// DefaultCC is the compiler driver used when none is configured.
const DefaultCC = "clang"

// Target is the kind of artifact to produce.
type Target string

const (
	TargetExecutable Target = "exe"
	TargetObject     Target = "obj"
	TargetAssembly   Target = "asm"
	TargetLLVM       Target = "llvm"
)

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(s)); t {
	case TargetExecutable, TargetObject, TargetAssembly, TargetLLVM:
		return t, nil
	case "":
		return TargetExecutable, nil
	}
	return "", fmt.Errorf("unknown emit target %q (want exe, obj, asm or llvm)", s)
}

// Targets lists every target name.
func Targets() []string {
	return []string{string(TargetExecutable), string(TargetObject), string(TargetAssembly), string(TargetLLVM)}
}

// OutputPath derives the default output path for a source file.
func (t Target) OutputPath(source string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	switch t {
	case TargetObject:
		return base + ".o"
	case TargetAssembly:
		return base + ".s"
	case TargetLLVM:
		return base + ".ll"
	}
	if base == source {
		return source + ".out"
	}
	return base
}

// ToolError reports a failed external tool invocation.
type ToolError struct {
	Tool   string
	Args   []string
	Output []byte
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	if out := bytes.TrimRight(e.Output, "\n"); len(out) > 0 {
		msg += "\n" + string(out)
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Config holds the external compiler settings.
type Config struct {
	CC       string
	Flags    []string
	OptLevel int
}

// Toolchain invokes the external compiler.
type Toolchain struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Toolchain. A nil logger discards log output.
func New(cfg Config, logger *slog.Logger) *Toolchain {
	if cfg.CC == "" {
		cfg.CC = DefaultCC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Toolchain{cfg: cfg, logger: logger}
}

// Available reports whether the configured compiler can be found on PATH.
func (tc *Toolchain) Available() bool {
	_, err := exec.LookPath(tc.cfg.CC)
	return err == nil
}

// Build materializes module as target at outPath. All intermediate files
// live in a scratch directory next to outPath; the result is renamed into
// place only when every step succeeded.
func (tc *Toolchain) Build(ctx context.Context, module io.WriterTo, target Target, outPath string) error {
	scratch, err := os.MkdirTemp(filepath.Dir(outPath), ".leapbf-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	llPath := filepath.Join(scratch, "module.ll")
	if err := writeModule(module, llPath); err != nil {
		return err
	}

	var result string
	switch target {
	case TargetLLVM:
		result = llPath
	case TargetAssembly:
		result = filepath.Join(scratch, "module.s")
		err = tc.run(ctx, "-S", "-x", "ir", llPath, "-o", result)
	case TargetObject:
		result = filepath.Join(scratch, "module.o")
		err = tc.object(ctx, llPath, result)
	case TargetExecutable:
		obj := filepath.Join(scratch, "module.o")
		result = filepath.Join(scratch, "a.out")
		if err = tc.object(ctx, llPath, obj); err == nil {
			err = tc.link(ctx, scratch, obj, result)
		}
	default:
		return fmt.Errorf("unknown emit target %q", target)
	}
	if err != nil {
		return err
	}

	if err := os.Rename(result, outPath); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// object compiles textual LLVM IR into a relocatable object.
func (tc *Toolchain) object(ctx context.Context, llPath, objPath string) error {
	return tc.run(ctx, "-c", "-x", "ir", llPath, "-o", objPath)
}

// link links the object with the runtime stub into an executable.
func (tc *Toolchain) link(ctx context.Context, scratch, objPath, outPath string) error {
	stub := filepath.Join(scratch, "runtime.c")
	if err := os.WriteFile(stub, []byte(lower.RuntimeSource), 0o600); err != nil {
		return fmt.Errorf("failed to write runtime stub: %w", err)
	}
	return tc.run(ctx, objPath, "-x", "c", stub, "-o", outPath)
}

// run invokes the compiler with the configured flags followed by args.
func (tc *Toolchain) run(ctx context.Context, args ...string) error {
	full := append([]string{fmt.Sprintf("-O%d", tc.cfg.OptLevel)}, tc.cfg.Flags...)
	full = append(full, args...)

	start := time.Now()
	cmd := exec.CommandContext(ctx, tc.cfg.CC, full...)
	out, err := cmd.CombinedOutput()
	tc.logger.Debug("toolchain invocation",
		slog.String("cc", tc.cfg.CC),
		slog.String("args", strings.Join(full, " ")),
		slog.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		return &ToolError{Tool: tc.cfg.CC, Args: full, Output: out, Err: err}
	}
	return nil
}

func writeModule(module io.WriterTo, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create module file: %w", err)
	}
	if _, err := module.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write module: %w", err)
	}
	return f.Close()
}
