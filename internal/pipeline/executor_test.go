//go:build unix

package pipeline

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/jobtable"
	"github.com/wsh-project/wsh/internal/outcome"
)

func TestRunSingleCommandForegroundRemovesJobOnExit(t *testing.T) {
	t.Parallel()

	table := jobtable.New(4)
	id, err := table.Allocate([]string{"true"}, 1, false)
	require.NoError(t, err)

	got := Run(table, id, [][]string{{"true"}}, false, os.Getpid(), slog.Default())

	assert.Equal(t, outcome.OutcomeOK, got)
	_, alive := table.Get(id)
	assert.False(t, alive)
}

func TestRunForegroundNonZeroExitIsSoftError(t *testing.T) {
	t.Parallel()

	table := jobtable.New(4)
	id, err := table.Allocate([]string{"false"}, 1, false)
	require.NoError(t, err)

	got := Run(table, id, [][]string{{"false"}}, false, os.Getpid(), slog.Default())

	assert.Equal(t, outcome.OutcomeSoftError, got)
}

func TestRunBackgroundReturnsImmediatelyAndLeavesJobAlive(t *testing.T) {
	t.Parallel()

	table := jobtable.New(4)
	id, err := table.Allocate([]string{"sleep", "5", "&"}, 1, true)
	require.NoError(t, err)

	got := Run(table, id, [][]string{{"sleep", "5"}}, true, os.Getpid(), slog.Default())

	assert.Equal(t, outcome.OutcomeOK, got)
	j, alive := table.Get(id)
	require.True(t, alive)

	_ = unix.Kill(-j.Pgid, unix.SIGKILL)
}

func TestRunFailedForkAtFirstStageRemovesJobAndReportsSoftError(t *testing.T) {
	t.Parallel()

	table := jobtable.New(4)
	id, err := table.Allocate([]string{"this-binary-does-not-exist-anywhere"}, 1, false)
	require.NoError(t, err)

	got := Run(table, id, [][]string{{"this-binary-does-not-exist-anywhere"}}, false, os.Getpid(), slog.Default())

	assert.Equal(t, outcome.OutcomeSoftError, got)
	_, alive := table.Get(id)
	assert.False(t, alive)
}

func TestRunPipelineTwoStagesForeground(t *testing.T) {
	t.Parallel()

	table := jobtable.New(4)
	id, err := table.Allocate([]string{"echo", "hi", "|", "cat"}, 2, false)
	require.NoError(t, err)

	got := Run(table, id, [][]string{{"echo", "hi"}, {"cat"}}, false, os.Getpid(), slog.Default())

	assert.Equal(t, outcome.OutcomeOK, got)
}
