package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wsh-project/wsh/internal/config"
	"github.com/wsh-project/wsh/internal/shell"
)

func main() {
	os.Exit(run())
}

// run builds the cobra root command and executes it, returning the
// process exit code: 0 on any clean termination, non-zero only when a
// batch file cannot be opened or the shell cannot set up its own
// process group.
func run() int {
	cfg := &config.Config{}
	exitCode := 0

	root := &cobra.Command{
		Use:   "wsh [file]",
		Short: "A POSIX-like job-control shell",

		// the shell reports its own errors line-by-line on stdout (see
		// internal/shell), so cobra's own error/usage printing would
		// only be noise here.
		SilenceUsage:  true,
		SilenceErrors: true,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = runShell(cmd.Context(), cfg, args)
			return nil
		},
	}
	cfg.Flags(root)

	if err := root.ExecuteContext(context.Background()); err != nil {
		// An invocation with more than one argument is a silent no-op
		// rather than a reported error; cobra's own argument and flag
		// validation are the only sources of this err (RunE always
		// returns nil), and it is swallowed here to match.
		return 0
	}

	return exitCode
}

// runShell picks interactive or batch mode based on whether a file
// argument was given, and drives the shell to completion.
func runShell(ctx context.Context, cfg *config.Config, args []string) int {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sh, err := shell.New(cfg, os.Stdout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if len(args) == 0 {
		return sh.RunInteractive(ctx, os.Stdin)
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintln(os.Stdout, err)
		return 1
	}
	defer f.Close()

	return sh.RunBatch(ctx, f)
}
