//go:build unix

// Package builtin implements the commands the REPL driver runs inside
// the shell process itself rather than handing to the pipeline
// executor: exit, cd, jobs, fg and bg. Dispatch is by a tagged Kind
// enumeration resolved once per line, rather than by comparing argv[0]
// strings at each call site.
package builtin

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/job"
	"github.com/wsh-project/wsh/internal/jobtable"
	"github.com/wsh-project/wsh/internal/outcome"
)

// Kind names a built-in; its String method is written by hand.
type Kind int

const (
	// KindNone means argv[0] does not name a built-in; the REPL driver
	// should hand the pipeline to the executor instead.
	KindNone Kind = iota
	KindExit
	KindCd
	KindJobs
	KindFg
	KindBg
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindExit:
		return "Exit"
	case KindCd:
		return "Cd"
	case KindJobs:
		return "Jobs"
	case KindFg:
		return "Fg"
	case KindBg:
		return "Bg"
	default:
		return "Kind(?)"
	}
}

// Lookup returns the Kind matching name, or KindNone if name is not a
// built-in.
func Lookup(name string) Kind {
	switch name {
	case "exit":
		return KindExit
	case "cd":
		return KindCd
	case "jobs":
		return KindJobs
	case "fg":
		return KindFg
	case "bg":
		return KindBg
	default:
		return KindNone
	}
}

// Dispatch runs the built-in named by kind. id is the transient Job
// already allocated for this line by the REPL driver; Dispatch always
// removes it before returning, so that jobs never sees a built-in
// invocation of itself. args is argv[1:] of the sole command.
func Dispatch(t *jobtable.Table, id job.ID, kind Kind, args []string, out io.Writer, shellPgid int, logger *slog.Logger) outcome.Outcome {
	defer t.Kill(id)

	switch kind {
	case KindExit:
		return outcome.OutcomeShellExit
	case KindCd:
		return dispatchCd(args, out)
	case KindJobs:
		return dispatchJobs(t, id, out)
	case KindFg:
		return dispatchFg(t, id, args, out, shellPgid, logger)
	case KindBg:
		return dispatchBg(t, id, args, out)
	default:
		fmt.Fprintf(out, "wsh: not a built-in\n")
		return outcome.OutcomeSoftError
	}
}

func dispatchCd(args []string, out io.Writer) outcome.Outcome {
	if len(args) != 1 {
		fmt.Fprintf(out, "cd: usage: cd <dir>\n")
		return outcome.OutcomeSoftError
	}
	if err := os.Chdir(args[0]); err != nil {
		fmt.Fprintf(out, "cd: %s\n", err)
		return outcome.OutcomeSoftError
	}
	return outcome.OutcomeOK
}

func dispatchJobs(t *jobtable.Table, self job.ID, out io.Writer) outcome.Outcome {
	for _, j := range t.BackgroundAscending() {
		if j.ID == self {
			continue
		}
		fmt.Fprintln(out, j.Display())
	}
	return outcome.OutcomeOK
}

// resolveTarget implements the "0 or 1 numeric argument" selection
// shared by fg and bg: with no argument, pick is used to choose a
// default; with one argument, it must parse as a job ID present in the
// table.
func resolveTarget(t *jobtable.Table, args []string, pick func() (*job.Job, bool)) (*job.Job, error) {
	if len(args) == 0 {
		j, ok := pick()
		if !ok {
			return nil, fmt.Errorf("no such job")
		}
		return j, nil
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: <cmd> [id]")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("not a job id: %s", args[0])
	}
	j, ok := t.Get(job.ID(n))
	if !ok {
		return nil, fmt.Errorf("no such job: %d", n)
	}
	return j, nil
}

func dispatchFg(t *jobtable.Table, self job.ID, args []string, out io.Writer, shellPgid int, logger *slog.Logger) outcome.Outcome {
	target, err := resolveTarget(t, args, t.HighestBackground)
	if err != nil {
		fmt.Fprintf(out, "fg: %s\n", err)
		return outcome.OutcomeSoftError
	}
	if !target.Background {
		fmt.Fprintf(out, "fg: job %s is already in the foreground\n", target.ID)
		return outcome.OutcomeSoftError
	}

	t.SetBackground(target.ID, false)

	if err := unix.Kill(-target.Pgid, unix.SIGCONT); err != nil {
		logger.Debug("fg: SIGCONT failed", "job_id", target.ID, "pgid", target.Pgid, "err", err)
	}
	if err := unix.Tcsetpgrp(unix.Stdin, int32(target.Pgid)); err != nil { //nolint:gosec
		logger.Debug("fg: tcsetpgrp to job failed", "pgid", target.Pgid, "err", err)
	}

	var ws unix.WaitStatus
	_, waitErr := unix.Wait4(-target.Pgid, &ws, unix.WUNTRACED, nil)

	if err := unix.Tcsetpgrp(unix.Stdin, int32(shellPgid)); err != nil { //nolint:gosec
		logger.Debug("fg: tcsetpgrp back to shell failed", "shell_pgid", shellPgid, "err", err)
	}

	// the resumed job is treated as foreground for the remainder of its
	// lifetime, which here is "until this wait returns": it is removed
	// unconditionally, same as a pipeline launched directly in the
	// foreground (see internal/pipeline.waitForeground).
	t.Kill(target.ID)

	if waitErr != nil {
		return outcome.OutcomeSoftError
	}
	if ws.Exited() && ws.ExitStatus() != 0 {
		return outcome.OutcomeSoftError
	}
	if ws.Signaled() {
		return outcome.OutcomeSoftError
	}
	return outcome.OutcomeOK
}

func dispatchBg(t *jobtable.Table, self job.ID, args []string, out io.Writer) outcome.Outcome {
	// the bg invocation's own job is the newest, and so the foreground,
	// job; it is never a default target.
	pick := func() (*job.Job, bool) {
		j, ok := t.HighestForeground()
		if ok && j.ID == self {
			return nil, false
		}
		return j, ok
	}
	target, err := resolveTarget(t, args, pick)
	if err != nil {
		fmt.Fprintf(out, "bg: %s\n", err)
		return outcome.OutcomeSoftError
	}
	if target.Background {
		fmt.Fprintf(out, "bg: job %s is already in the background\n", target.ID)
		return outcome.OutcomeSoftError
	}

	// no SIGCONT is sent here: a job stopped with Ctrl-Z will not
	// actually resume by running bg on it alone; fg is the one that
	// resumes a stopped group.
	t.SetBackground(target.ID, true)
	return outcome.OutcomeOK
}
