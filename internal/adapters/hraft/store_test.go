package hraft

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/raft"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/services/raftlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var appendedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func openStore(t *testing.T, dir string) (*LogStore, *raftlog.SegmentedLog) {
	t.Helper()

	l, err := raftlog.Open(context.Background(), &domain.LogOptions{
		Directory:     dir,
		Marshal:       Marshal(),
		Logger:        zaptest.NewLogger(t).Sugar(),
		PruneStrategy: "keep_none",
		SegmentOptions: &domain.SegmentOptions{
			RotateAtSize:        512,
			PositionCacheStride: 4,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close(context.Background()) })
	return NewLogStore(l), l
}

func raftLogs(from, to, term uint64) []*raft.Log {
	var out []*raft.Log
	for i := from; i <= to; i++ {
		out = append(out, &raft.Log{
			Index:      i,
			Term:       term,
			Type:       raft.LogCommand,
			Data:       []byte(fmt.Sprintf("cmd-%d-%d", term, i)),
			AppendedAt: appendedAt,
		})
	}
	return out
}

func bounds(t *testing.T, s raft.LogStore) (uint64, uint64) {
	t.Helper()

	first, err := s.FirstIndex()
	require.NoError(t, err)
	last, err := s.LastIndex()
	require.NoError(t, err)
	return first, last
}

func requireLog(t *testing.T, s raft.LogStore, index, term uint64) {
	t.Helper()

	var got raft.Log
	require.NoError(t, s.GetLog(index, &got))
	assert.Equal(t, index, got.Index)
	assert.Equal(t, term, got.Term)
	assert.Equal(t, raft.LogCommand, got.Type)
	assert.Equal(t, fmt.Sprintf("cmd-%d-%d", term, index), string(got.Data))
	assert.True(t, appendedAt.Equal(got.AppendedAt))
}

func TestLogStore_Empty(t *testing.T) {
	s, _ := openStore(t, t.TempDir())

	first, last := bounds(t, s)
	assert.Zero(t, first)
	assert.Zero(t, last)

	var l raft.Log
	assert.ErrorIs(t, s.GetLog(1, &l), raft.ErrLogNotFound)
}

func TestLogStore_StoreAndGet(t *testing.T) {
	dir := t.TempDir()
	s, l := openStore(t, dir)

	require.NoError(t, s.StoreLogs(raftLogs(1, 20, 1)))
	require.NoError(t, s.StoreLog(raftLogs(21, 21, 2)[0]))

	first, last := bounds(t, s)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(21), last)
	assert.Equal(t, int64(20), l.AppendIndex())

	requireLog(t, s, 1, 1)
	requireLog(t, s, 20, 1)
	requireLog(t, s, 21, 2)

	var out raft.Log
	assert.ErrorIs(t, s.GetLog(22, &out), raft.ErrLogNotFound)

	require.NoError(t, l.Close(context.Background()))

	reopened, _ := openStore(t, dir)
	requireLog(t, reopened, 7, 1)
	requireLog(t, reopened, 21, 2)
}

// Conflicting entries from a new leader replace the tail, the same way they
// do in raft's in-memory store.
func TestLogStore_OverwritesConflictingTail(t *testing.T) {
	s, _ := openStore(t, t.TempDir())
	mem := raft.NewInmemStore()

	for _, store := range []raft.LogStore{s, mem} {
		require.NoError(t, store.StoreLogs(raftLogs(1, 10, 1)))
		require.NoError(t, store.DeleteRange(7, 10))
		require.NoError(t, store.StoreLogs(raftLogs(7, 12, 2)))
	}

	memFirst, memLast := bounds(t, mem)
	first, last := bounds(t, s)
	assert.Equal(t, memFirst, first)
	assert.Equal(t, memLast, last)

	for i := uint64(1); i <= 12; i++ {
		term := uint64(1)
		if i >= 7 {
			term = 2
		}
		requireLog(t, s, i, term)
	}
}

func TestLogStore_StoreOverlappingWithoutDelete(t *testing.T) {
	s, l := openStore(t, t.TempDir())

	require.NoError(t, s.StoreLogs(raftLogs(1, 10, 1)))
	require.NoError(t, s.StoreLogs(raftLogs(5, 6, 3)))

	_, last := bounds(t, s)
	assert.Equal(t, uint64(6), last)
	assert.Equal(t, int64(3), l.CurrentTerm())
	requireLog(t, s, 4, 1)
	requireLog(t, s, 5, 3)
}

func TestLogStore_StoreAfterGapSkips(t *testing.T) {
	s, l := openStore(t, t.TempDir())

	require.NoError(t, s.StoreLogs(raftLogs(1, 3, 1)))
	require.NoError(t, s.StoreLogs(raftLogs(50, 52, 4)))

	first, last := bounds(t, s)
	assert.Equal(t, uint64(50), first)
	assert.Equal(t, uint64(52), last)
	assert.Equal(t, int64(48), l.PrevIndex())

	var out raft.Log
	assert.ErrorIs(t, s.GetLog(3, &out), raft.ErrLogNotFound)
	requireLog(t, s, 50, 4)
}

func TestLogStore_DeletePrefix(t *testing.T) {
	s, l := openStore(t, t.TempDir())

	for i := uint64(1); i <= 60; i += 10 {
		require.NoError(t, s.StoreLogs(raftLogs(i, i+9, 1)))
	}
	require.Greater(t, len(l.Segments()), 2)

	require.NoError(t, s.DeleteRange(1, 30))

	first, last := bounds(t, s)
	assert.Greater(t, first, uint64(1))
	assert.LessOrEqual(t, first, uint64(31))
	assert.Equal(t, uint64(60), last)

	var out raft.Log
	if first > 1 {
		assert.ErrorIs(t, s.GetLog(first-1, &out), raft.ErrLogNotFound)
	}
	requireLog(t, s, 31, 1)
	requireLog(t, s, 60, 1)

	err := s.StoreLogs(raftLogs(first-1, first-1, 1))
	assert.Error(t, err)
}

func TestLogStore_DeleteEverything(t *testing.T) {
	s, _ := openStore(t, t.TempDir())

	require.NoError(t, s.StoreLogs(raftLogs(1, 5, 1)))
	require.NoError(t, s.DeleteRange(1, 5))

	first, last := bounds(t, s)
	assert.Zero(t, first)
	assert.Zero(t, last)

	require.NoError(t, s.DeleteRange(1, 5))
	require.NoError(t, s.StoreLogs(raftLogs(1, 2, 2)))
	requireLog(t, s, 2, 2)
}

func TestLogStore_RejectsNonConsecutive(t *testing.T) {
	s, _ := openStore(t, t.TempDir())

	logs := raftLogs(1, 3, 1)
	logs[2].Index = 5
	assert.Error(t, s.StoreLogs(logs))
}
