//go:build unix

// Package pipeline implements the largest single component in this
// shell: given a parsed command list and a background flag, it forks
// the pipeline, wires pipes between stages, assigns a single process
// group, optionally hands the controlling terminal to that group, and
// either waits (foreground) or returns immediately (background).
//
// Every stage sets its own process group before it can exec (via
// SysProcAttr), and the parent also sets it explicitly right after
// Start; whichever side wins the race, the result is the same group.
// golang.org/x/sys/unix supplies Setpgid/Tcsetpgrp/Wait4, since os/exec
// has no equivalent for any of them.
package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/job"
	"github.com/wsh-project/wsh/internal/jobtable"
	"github.com/wsh-project/wsh/internal/outcome"
)

// Run executes the pipeline cmds as job id, already allocated in t.
// shellPgid is the shell's own process group, used to hand the terminal
// back once a foreground pipeline completes.
func Run(t *jobtable.Table, id job.ID, cmds [][]string, background bool, shellPgid int, logger *slog.Logger) outcome.Outcome {
	k := len(cmds)

	var started []*exec.Cmd
	var prevRead *os.File // nil means "the shell's own stdin"
	var pgid int

	for i := 0; i < k; i++ {
		var pr, pw *os.File

		if i < k-1 {
			var err error
			pr, pw, err = os.Pipe()
			if err != nil {
				logger.Warn("pipe creation failed, aborting remaining stages", "stage", i, "err", err)
				break
			}
		}

		c := exec.Command(cmds[i][0], cmds[i][1:]...)

		if prevRead != nil {
			c.Stdin = prevRead
		} else {
			c.Stdin = os.Stdin
		}

		if i < k-1 {
			c.Stdout = pw
		} else {
			c.Stdout = os.Stdout
		}
		c.Stderr = os.Stderr

		c.SysProcAttr = &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    pgid,
		}

		err := c.Start()
		if err != nil {
			logger.Warn("fork failed", "stage", i, "err", err)
			if pw != nil {
				pw.Close()
			}
			if pr != nil {
				pr.Close()
			}

			if i == 0 {
				t.Kill(id)
				return outcome.OutcomeSoftError
			}
			break
		}

		if i == 0 {
			pgid = c.Process.Pid
			if j, ok := t.Get(id); ok {
				j.Pgid = pgid
			}
		}

		// double-setpgid: the child already placed itself in the group
		// via SysProcAttr before it could exec, but the parent also
		// sets it explicitly to close the race where either side runs
		// first. EACCES means the child won the race and already
		// called setpgid itself; that's fine.
		if err := unix.Setpgid(c.Process.Pid, pgid); err != nil && !errors.Is(err, unix.EACCES) {
			logger.Debug("setpgid race", "pid", c.Process.Pid, "pgid", pgid, "err", err)
		}

		started = append(started, c)

		if prevRead != nil {
			prevRead.Close()
		}
		if pw != nil {
			pw.Close()
		}
		prevRead = pr
	}

	if len(started) == 0 {
		t.Kill(id)
		return outcome.OutcomeSoftError
	}

	if background {
		return outcome.OutcomeOK
	}

	return waitForeground(t, id, pgid, shellPgid, logger)
}

// waitForeground hands the terminal to pgid, waits for the pipeline,
// then restores the terminal to the shell and removes the job record.
// It issues a single WUNTRACED wait on the process group, regardless of
// whether the group exited or merely stopped, followed by unconditional
// job removal. That means a foreground pipeline suspended with Ctrl-Z is
// dropped from the job table rather than tracked as stopped; Job has no
// "stopped" state to hold it in.
func waitForeground(t *jobtable.Table, id job.ID, pgid int, shellPgid int, logger *slog.Logger) outcome.Outcome {
	if err := unix.Tcsetpgrp(unix.Stdin, int32(pgid)); err != nil { //nolint:gosec
		logger.Debug("tcsetpgrp to pipeline failed", "pgid", pgid, "err", err)
	}

	// Wait once on the whole group: this reports on whichever process
	// changes state first, not necessarily the pipeline's last stage,
	// matching the reaper's own "first exit ends the job" policy rather
	// than looping until the last stage specifically has exited.
	var ws unix.WaitStatus
	_, waitErr := unix.Wait4(-pgid, &ws, unix.WUNTRACED, nil)

	if err := unix.Tcsetpgrp(unix.Stdin, int32(shellPgid)); err != nil { //nolint:gosec
		logger.Debug("tcsetpgrp back to shell failed", "shell_pgid", shellPgid, "err", err)
	}

	t.Kill(id)

	if waitErr != nil {
		logger.Warn("waitpid failed", "pgid", pgid, "err", waitErr)
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
