package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapbf/internal/engine"
	"github.com/leapstack-labs/leapbf/internal/toolchain"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Output string
	Emit   string
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build <file>...",
		Short: "Compile programs to native code",
		Long: `Lower programs to LLVM IR and hand them to the system compiler.

--emit selects the artifact: an executable (exe), an object file (obj),
assembly (asm) or textual LLVM IR (llvm, no compiler needed). Outputs are
written atomically: a failed build leaves no partial file behind.

Several files are built concurrently, at most --jobs at a time.`,
		Example: `  # Build an executable next to the source
  leapbf build hello.bf

  # Name the output
  leapbf build hello.bf -o bin/hello

  # Inspect the generated IR
  leapbf build hello.bf --emit llvm

  # Build a directory of programs, four at a time
  leapbf build examples/*.bf --jobs 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output path (single source only)")
	cmd.Flags().StringVar(&opts.Emit, "emit", string(toolchain.TargetExecutable), "Artifact to emit ("+strings.Join(toolchain.Targets(), "|")+")")
	cmd.Flags().Int("jobs", 0, "Maximum concurrent builds (default: number of CPUs)")
	cmd.Flags().StringSlice("cflags", nil, "Extra flags passed to the compiler")

	_ = cmd.RegisterFlagCompletionFunc("emit", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return toolchain.Targets(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runBuild(cmd *cobra.Command, sources []string, opts *BuildOptions) error {
	target, err := toolchain.ParseTarget(opts.Emit)
	if err != nil {
		return err
	}
	if opts.Output != "" && len(sources) > 1 {
		return errors.New("--output cannot be used with more than one source")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if target != toolchain.TargetLLVM && !cc.Engine.Toolchain().Available() {
		return fmt.Errorf("compiler %q not found on PATH\nHint: install clang, set --cc, or use --emit llvm", cc.Cfg.CC)
	}

	if len(sources) == 1 {
		out := opts.Output
		if out == "" {
			out = target.OutputPath(sources[0])
		}
		u, err := loadUnit(cc, sources[0])
		if err != nil {
			return err
		}
		if err := cc.Engine.Build(cmd.Context(), u, target, out); err != nil {
			return err
		}
		cc.Renderer.Success(fmt.Sprintf("%s -> %s", sources[0], out))
		return nil
	}

	jobs := make([]engine.BuildJob, 0, len(sources))
	for _, src := range sources {
		jobs = append(jobs, engine.BuildJob{Source: src, Output: target.OutputPath(src), Target: target})
	}
	if err := cc.Engine.BuildAll(cmd.Context(), jobs); err != nil {
		return err
	}
	for _, job := range jobs {
		cc.Renderer.Success(fmt.Sprintf("%s -> %s", job.Source, job.Output))
	}
	return nil
}
