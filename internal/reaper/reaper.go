//go:build unix

// Package reaper implements the shell's non-blocking sweep over the job
// table: it collects terminated background process groups and removes
// their records without ever blocking the REPL.
//
// The reaper considers a Job finished as soon as any process in its
// group reports WIFEXITED, even for a multi-stage pipeline where an
// earlier stage may exit well before a downstream consumer.
package reaper

import (
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/jobtable"
)

// Sweep issues one non-blocking wait per alive job and removes any job
// whose process group has reported a clean exit. It never blocks.
func Sweep(t *jobtable.Table, logger *slog.Logger) {
	for _, j := range t.All() {
		if j.Pgid == 0 {
			continue
		}

		var ws unix.WaitStatus
		wpid, err := unix.Wait4(-j.Pgid, &ws, unix.WNOHANG, nil)

		switch {
		case err != nil:
			if errors.Is(err, unix.ECHILD) {
				// no children left in this group to wait on; treat as
				// finished rather than leak the slot forever.
				logger.Debug("reaper: no children remain, removing job", "job_id", j.ID, "job_uid", j.UID, "pgid", j.Pgid)
				t.Kill(j.ID)
			}
			// EINTR and other transient errors: leave the job for the
			// next sweep.
		case wpid > 0 && ws.Exited():
			logger.Debug("reaper: job group exited", "job_id", j.ID, "job_uid", j.UID, "pgid", j.Pgid, "exit_status", ws.ExitStatus())
			t.Kill(j.ID)
		}
	}
}
