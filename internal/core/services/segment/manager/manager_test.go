package sm

import (
	"os"
	"testing"

	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestSegments_Preconditions(t *testing.T) {
	state := recoverLog(t, testOptions(t, t.TempDir()))
	segments := state.Segments

	_, err := segments.Rotate(5, 4, 1)
	assert.ErrorIs(t, err, logerrors.ErrInvalidArgument)

	_, err = segments.Truncate(3, 4, 1)
	assert.ErrorIs(t, err, logerrors.ErrInvalidArgument)

	_, err = segments.Skip(5, 4, 1)
	assert.ErrorIs(t, err, logerrors.ErrInvalidArgument)

	assert.Len(t, segments.All(), 1)
}

func TestSegments_RotateAndLookup(t *testing.T) {
	state := recoverLog(t, testOptions(t, t.TempDir()))
	segments := state.Segments

	v0 := segments.Last()
	appendEntries(t, v0, 0, 9, 1)

	v1, err := segments.Rotate(9, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.Version())
	assert.Same(t, v1, segments.Last())
	assert.False(t, v0.Info().Writable)
	assert.False(t, v0.IsMarkedForDisposal())

	seg, limit, ok := segments.GetForIndex(9)
	require.True(t, ok)
	assert.Same(t, v0, seg)
	assert.Equal(t, int64(10), limit)

	seg, _, ok = segments.GetForIndex(10)
	require.True(t, ok)
	assert.Same(t, v1, seg)

	ranges := segments.Ranges()
	require.Len(t, ranges, 2)
	assert.Equal(t, int64(0), ranges[0].Start)
	assert.Equal(t, int64(10), ranges[0].Limit)
}

func TestSegments_TruncateOrphansLaterSegments(t *testing.T) {
	state := recoverLog(t, testOptions(t, t.TempDir()))
	segments := state.Segments

	v0 := segments.Last()
	appendEntries(t, v0, 0, 9, 1)
	v1, err := segments.Rotate(9, 9, 1)
	require.NoError(t, err)
	appendEntries(t, v1, 10, 19, 1)

	v2, err := segments.Truncate(19, 4, 1)
	require.NoError(t, err)

	assert.False(t, v0.IsMarkedForDisposal())
	assert.True(t, v1.IsMarkedForDisposal())
	assert.True(t, v1.IsDisposed())
	assert.True(t, fileExists(t, v1.Path()), "orphans stay on disk until pruned")

	seg, limit, ok := segments.GetForIndex(4)
	require.True(t, ok)
	assert.Same(t, v0, seg)
	assert.Equal(t, int64(5), limit)

	seg, _, ok = segments.GetForIndex(12)
	require.True(t, ok)
	assert.Same(t, v2, seg)
}

func TestSegments_SkipOrphansNothing(t *testing.T) {
	state := recoverLog(t, testOptions(t, t.TempDir()))
	segments := state.Segments

	v0 := segments.Last()
	appendEntries(t, v0, 0, 4, 1)

	v1, err := segments.Skip(4, 100, 3)
	require.NoError(t, err)
	assert.False(t, v0.IsMarkedForDisposal())

	seg, _, ok := segments.GetForIndex(101)
	require.True(t, ok)
	assert.Same(t, v1, seg)
	assert.True(t, v1.Header().IsSkip())
}

func TestSegments_PruneBoundary(t *testing.T) {
	state := recoverLog(t, testOptions(t, t.TempDir()))
	segments := state.Segments

	v0 := segments.Last()
	appendEntries(t, v0, 0, 9, 1)
	v1, err := segments.Rotate(9, 9, 1)
	require.NoError(t, err)
	appendEntries(t, v1, 10, 19, 1)
	v2, err := segments.Rotate(19, 19, 2)
	require.NoError(t, err)
	appendEntries(t, v2, 20, 24, 2)

	header, pruned, err := segments.Prune(8)
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)
	assert.Equal(t, int64(-1), header.PrevIndex)

	header, pruned, err = segments.Prune(15)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, int64(9), header.PrevIndex)
	assert.Equal(t, int64(1), header.PrevTerm)
	assert.False(t, fileExists(t, v0.Path()))

	_, _, ok := segments.GetForIndex(5)
	assert.False(t, ok)

	header, pruned, err = segments.Prune(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, int64(19), header.PrevIndex)
	assert.Same(t, v2, segments.Last())
	assert.Len(t, segments.All(), 1)
	assert.True(t, fileExists(t, v2.Path()))
}

func TestSegments_NoPrematureDisposal(t *testing.T) {
	state := recoverLog(t, testOptions(t, t.TempDir()))
	segments := state.Segments
	store := NewEntryStore(segments)

	v0 := segments.Last()
	appendEntries(t, v0, 0, 9, 1)
	v1, err := segments.Rotate(9, 9, 1)
	require.NoError(t, err)
	appendEntries(t, v1, 10, 19, 1)

	cursor := store.GetEntriesFrom(12)
	require.True(t, cursor.Next())
	assert.Equal(t, int64(12), cursor.Record().Index)

	_, err = segments.Truncate(19, 4, 1)
	require.NoError(t, err)
	assert.True(t, v1.IsMarkedForDisposal())
	assert.False(t, v1.IsDisposed(), "cursor still holds a reader")

	_, _, err = segments.Prune(4)
	require.NoError(t, err)
	assert.False(t, fileExists(t, v0.Path()))
	assert.True(t, fileExists(t, v1.Path()))

	var rest []int64
	for cursor.Next() {
		rest = append(rest, cursor.Record().Index)
	}
	require.NoError(t, cursor.Err())
	assert.Equal(t, span(13, 19), rest)

	// The cursor gives its reader back once it runs off the segment.
	require.NoError(t, cursor.Close())
	assert.True(t, v1.IsDisposed())
	assert.False(t, fileExists(t, v1.Path()))
}

func TestSegments_PrunedFilesDeletedOldestFirst(t *testing.T) {
	dir := t.TempDir()
	state := recoverLog(t, testOptions(t, dir))
	segments := state.Segments
	store := NewEntryStore(segments)

	v0 := segments.Last()
	appendEntries(t, v0, 0, 9, 1)
	v1, err := segments.Rotate(9, 9, 1)
	require.NoError(t, err)
	appendEntries(t, v1, 10, 19, 1)
	v2, err := segments.Rotate(19, 19, 1)
	require.NoError(t, err)
	appendEntries(t, v2, 20, 29, 1)
	v3, err := segments.Rotate(29, 29, 1)
	require.NoError(t, err)
	appendEntries(t, v3, 30, 31, 1)

	cursor := store.GetEntriesFrom(0)
	require.True(t, cursor.Next())

	_, cut, err := segments.Prune(19)
	require.NoError(t, err)
	assert.Equal(t, 2, cut)
	assert.True(t, v1.IsDisposed())
	assert.True(t, fileExists(t, v0.Path()), "held by the cursor")
	assert.True(t, fileExists(t, v1.Path()), "waits behind the older file")

	t.Run("the directory reopens while the cursor is open", func(t *testing.T) {
		opts := testOptions(t, dir)
		opts.ReadOnly = true
		reopened := recoverLog(t, opts)
		assert.Equal(t, int64(-1), reopened.PrevIndex)
		assert.Equal(t, int64(31), reopened.AppendIndex)
		assert.Len(t, reopened.Segments.All(), 4)
	})

	require.NoError(t, cursor.Close())
	assert.False(t, fileExists(t, v0.Path()))
	assert.False(t, fileExists(t, v1.Path()))

	require.NoError(t, segments.Close())
	reopened := recoverLog(t, testOptions(t, dir))
	assert.Equal(t, int64(19), reopened.PrevIndex)
	assert.Equal(t, int64(31), reopened.AppendIndex)
	assert.Equal(t, span(20, 31), collect(t, NewEntryStore(reopened.Segments).GetEntriesFrom(20)))
}

func TestSegments_TruncateAtEndWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	opts := testOptions(t, t.TempDir())
	opts.Logger = zap.New(core).Sugar()

	state := recoverLog(t, opts)
	segments := state.Segments
	appendEntries(t, segments.Last(), 0, 9, 1)

	_, err := segments.Truncate(9, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("truncating at the end of the log").Len())

	_, err = segments.Truncate(9, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("truncating at the end of the log").Len())
}
