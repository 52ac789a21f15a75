//go:build unix

package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsh-project/wsh/internal/config"
	"github.com/wsh-project/wsh/internal/jobtable"
	"github.com/wsh-project/wsh/internal/parser"
)

func newTestTable(t *testing.T) *jobtable.Table {
	t.Helper()
	return jobtable.New(8)
}

func TestFlattenDisplayAppendsBackgroundMarker(t *testing.T) {
	t.Parallel()

	pl, err := parser.Parse("sleep 10 &")
	require.NoError(t, err)

	got := flattenDisplay(pl)
	assert.Equal(t, []string{"sleep", "10", "&"}, got)
}

func TestFlattenDisplayJoinsPipelineStagesWithPipeToken(t *testing.T) {
	t.Parallel()

	pl, err := parser.Parse("ls | wc -l")
	require.NoError(t, err)

	got := flattenDisplay(pl)
	assert.Equal(t, []string{"ls", "|", "wc", "-l"}, got)
}

func TestRunLineOnEmptyInputDoesNotAllocateAJob(t *testing.T) {
	t.Parallel()

	sh := &Shell{
		table: newTestTable(t),
		out:   &bytes.Buffer{},
	}

	o := sh.runLine("   ")
	assert.Equal(t, "OK", o.String())
	assert.Empty(t, sh.table.All())
}

func TestRunLineReportsPipeParseErrorsWithoutExiting(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	sh := &Shell{
		table: newTestTable(t),
		out:   &out,
	}

	o := sh.runLine("ls |")
	assert.Equal(t, "SoftError", o.String())
	assert.True(t, strings.Contains(out.String(), "Pipe has no target"))
}

func TestRunLineRejectsPipelinesExceedingMaxStages(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	sh := &Shell{
		table: newTestTable(t),
		out:   &out,
		cfg:   &config.Config{MaxPipelineStages: 2},
	}

	o := sh.runLine("a | b | c")
	assert.Equal(t, "SoftError", o.String())
	assert.True(t, strings.Contains(out.String(), "exceeding the limit of 2"))
	assert.Empty(t, sh.table.All())
}
