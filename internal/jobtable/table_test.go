package jobtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsh-project/wsh/internal/job"
)

func TestAllocate(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	tbl := New(4)

	id1, err := tbl.Allocate([]string{"vi"}, 1, false)
	require.NoError(err)
	assert.Equal(job.ID(1), id1)

	id2, err := tbl.Allocate([]string{"ls"}, 1, false)
	require.NoError(err)
	assert.Equal(job.ID(2), id2)

	j1, ok := tbl.Get(id1)
	require.True(ok)
	assert.True(j1.Background, "existing foreground job must be demoted when a new job is allocated")

	j2, ok := tbl.Get(id2)
	require.True(ok)
	assert.False(j2.Background)
}

func TestAllocateFillsLowestFreeSlot(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	tbl := New(3)

	id1, err := tbl.Allocate([]string{"a"}, 1, true)
	require.NoError(err)
	id2, err := tbl.Allocate([]string{"b"}, 1, true)
	require.NoError(err)
	_, err = tbl.Allocate([]string{"c"}, 1, true)
	require.NoError(err)

	tbl.Kill(id1)

	id4, err := tbl.Allocate([]string{"d"}, 1, true)
	require.NoError(err)
	assert.Equal(id1, id4, "freed slot 1 must be reused before growing past capacity")

	_, err = tbl.Allocate([]string{"e"}, 1, true)
	assert.ErrorIs(err, ErrTableFull)

	tbl.Kill(id2)
	assert.Len(tbl.All(), 2)
}

func TestBackgroundAscendingAndDefaults(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	tbl := New(DefaultCapacity)

	bg1, err := tbl.Allocate([]string{"sleep", "1", "&"}, 1, true)
	require.NoError(err)
	bg2, err := tbl.Allocate([]string{"sleep", "2", "&"}, 1, true)
	require.NoError(err)
	fg, err := tbl.Allocate([]string{"vi"}, 1, false)
	require.NoError(err)

	list := tbl.BackgroundAscending()
	require.Len(list, 2)
	assert.Equal(bg1, list[0].ID)
	assert.Equal(bg2, list[1].ID)

	highestBG, ok := tbl.HighestBackground()
	require.True(ok)
	assert.Equal(bg2, highestBG.ID)

	highestFG, ok := tbl.HighestForeground()
	require.True(ok)
	assert.Equal(fg, highestFG.ID)
}

func TestKillIsIdempotentSafe(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	tbl := New(DefaultCapacity)
	id, err := tbl.Allocate([]string{"true"}, 1, false)
	require.NoError(err)

	tbl.Kill(id)
	tbl.Kill(id) // must not panic

	_, ok := tbl.Get(id)
	assert.False(ok)
}

func TestDisplayIncludesTrailingAmpersand(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	tbl := New(DefaultCapacity)
	id, err := tbl.Allocate([]string{"sleep", "10", "&"}, 1, true)
	require.NoError(err)

	j, ok := tbl.Get(id)
	require.True(ok)
	assert.Equal("1: sleep 10 &", j.Display())
}
