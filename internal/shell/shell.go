//go:build unix

// Package shell implements the REPL driver: it owns the shell process
// group and terminal ownership at rest, reads lines via internal/lineio,
// parses them via internal/parser, allocates a Job for every line that
// parses, dispatches to internal/builtin or internal/pipeline, and runs
// internal/reaper after each dispatched line.
package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/builtin"
	"github.com/wsh-project/wsh/internal/config"
	"github.com/wsh-project/wsh/internal/jobtable"
	"github.com/wsh-project/wsh/internal/lineio"
	"github.com/wsh-project/wsh/internal/outcome"
	"github.com/wsh-project/wsh/internal/parser"
	"github.com/wsh-project/wsh/internal/pipeline"
	"github.com/wsh-project/wsh/internal/reaper"
)

const prompt = "wsh> "

// Shell drives the read-parse-execute loop.
type Shell struct {
	table     *jobtable.Table
	out       io.Writer
	shellPgid int
	logger    *slog.Logger
	cfg       *config.Config
}

// New claims the controlling terminal for the current process, installs
// the shell's signal discipline, and returns a Shell ready to drive
// either RunInteractive or RunBatch.
//
// SIGTTOU is ignored outright and SIGINT/SIGTSTP get a no-op handler, so
// the shell itself is never stopped or killed by terminal signals. The
// caught SIGINT/SIGTSTP revert to their default action in children
// across exec; the ignored SIGTTOU stays ignored in them, since
// internal/pipeline does not reset it.
func New(cfg *config.Config, out io.Writer, logger *slog.Logger) (*Shell, error) {
	shellPgid := os.Getpid()
	if err := unix.Setpgid(0, 0); err != nil {
		return nil, fmt.Errorf("setpgid(0,0): %w", err)
	}
	if err := unix.Tcsetpgrp(unix.Stdin, int32(shellPgid)); err != nil { //nolint:gosec
		logger.Debug("tcsetpgrp at startup failed", "shell_pgid", shellPgid, "err", err)
	}

	signal.Ignore(syscall.SIGTTOU)
	signal.Notify(make(chan os.Signal, 1), syscall.SIGINT, syscall.SIGTSTP)

	capacity := cfg.JobTableCapacity
	return &Shell{
		table:     jobtable.New(capacity),
		out:       out,
		shellPgid: shellPgid,
		logger:    logger,
		cfg:       cfg,
	}, nil
}

// RunInteractive drives the REPL against r, printing the prompt before
// every line read, until end-of-stream or the exit built-in.
func (s *Shell) RunInteractive(ctx context.Context, r io.Reader) int {
	return s.run(ctx, r, true)
}

// RunBatch drives the REPL against r with no prompt.
func (s *Shell) RunBatch(ctx context.Context, r io.Reader) int {
	return s.run(ctx, r, false)
}

func (s *Shell) run(ctx context.Context, r io.Reader, interactive bool) int {
	lines := lineio.New(r)

	for {
		select {
		case <-ctx.Done():
			return 0
		default:
		}

		if interactive {
			fmt.Fprint(s.out, prompt)
		}

		line, err := lines.ReadLine()
		if err != nil {
			// end-of-stream, in either mode, is a clean exit.
			return 0
		}

		o := s.runLine(line)
		if o == outcome.OutcomeShellExit {
			return 0
		}
	}
}

// runLine parses and dispatches exactly one input line, returning the
// Outcome the REPL driver reacts to.
func (s *Shell) runLine(line string) outcome.Outcome {
	pl, err := parser.Parse(line)
	if err != nil {
		if err == parser.ErrEmptyCommand && strings.TrimSpace(line) == "" {
			// blank or whitespace-only lines never allocate a job.
			return outcome.OutcomeOK
		}
		fmt.Fprintln(s.out, err)
		return outcome.OutcomeSoftError
	}

	if s.cfg != nil && s.cfg.MaxPipelineStages > 0 && len(pl.Commands) > s.cfg.MaxPipelineStages {
		max := s.cfg.MaxPipelineStages
		fmt.Fprintf(s.out, "wsh: pipeline has %d stages, exceeding the limit of %d\n", len(pl.Commands), max)
		return outcome.OutcomeSoftError
	}

	argvDisplay := flattenDisplay(pl)

	id, err := s.table.Allocate(argvDisplay, len(pl.Commands), pl.Background)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return outcome.OutcomeSoftError
	}

	var o outcome.Outcome
	if len(pl.Commands) == 1 {
		if kind := builtin.Lookup(pl.Commands[0][0]); kind != builtin.KindNone {
			o = builtin.Dispatch(s.table, id, kind, pl.Commands[0][1:], s.out, s.shellPgid, s.logger)
			s.sweep()
			return o
		}
	}

	o = pipeline.Run(s.table, id, pl.Commands, pl.Background, s.shellPgid, s.logger)
	s.sweep()
	return o
}

func (s *Shell) sweep() {
	reaper.Sweep(s.table, s.logger)
}

// flattenDisplay rebuilds the original argv sequence for display,
// including a trailing "&" when the pipeline was parsed as background,
// used verbatim by the jobs built-in.
func flattenDisplay(pl *parser.Pipeline) []string {
	var out []string
	for i, cmd := range pl.Commands {
		if i > 0 {
			out = append(out, "|")
		}
		out = append(out, cmd...)
	}
	if pl.Background {
		out = append(out, "&")
	}
	return out
}
