package raftlog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/internal/serialize"
	"github.com/iamNilotpal/raftlog/pkg/fs"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testOptions(t *testing.T, dir string) *domain.LogOptions {
	t.Helper()

	return &domain.LogOptions{
		Directory:     dir,
		Marshal:       serialize.NewStringMarshal(),
		Logger:        zaptest.NewLogger(t).Sugar(),
		PruneStrategy: "keep_none",
		SegmentOptions: &domain.SegmentOptions{
			RotateAtSize:        512,
			PositionCacheStride: 4,
		},
	}
}

func openLog(t *testing.T, opts *domain.LogOptions) *SegmentedLog {
	t.Helper()

	l, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close(context.Background()) })
	return l
}

func closeLog(t *testing.T, l *SegmentedLog) {
	t.Helper()
	require.NoError(t, l.Close(context.Background()))
}

func entries(from, to, term int64) []domain.Entry {
	var out []domain.Entry
	for i := from; i <= to; i++ {
		out = append(out, domain.Entry{Term: term, Content: fmt.Sprintf("entry-%d", i)})
	}
	return out
}

func mustAppend(t *testing.T, l *SegmentedLog, from, to, term int64) {
	t.Helper()

	idx, err := l.Append(entries(from, to, term)...)
	require.NoError(t, err)
	require.Equal(t, to, idx)
}

// readFrom returns index/term pairs from a cursor starting at from.
func readFrom(t *testing.T, l *SegmentedLog, from int64) [][2]int64 {
	t.Helper()

	cursor, err := l.GetEntryCursor(from)
	require.NoError(t, err)
	defer cursor.Close()

	var out [][2]int64
	for cursor.Next() {
		r := cursor.Record()
		require.Equal(t, fmt.Sprintf("entry-%d", r.Index), r.Entry.Content)
		out = append(out, [2]int64{r.Index, r.Entry.Term})
	}
	require.NoError(t, cursor.Err())
	return out
}

func pairs(from, to, term int64) [][2]int64 {
	var out [][2]int64
	for i := from; i <= to; i++ {
		out = append(out, [2]int64{i, term})
	}
	return out
}

var errInjected = errors.New("injected write failure")

// failingFS hands out files whose writes fail once fail is set.
type failingFS struct {
	*fs.LocalFileSystem
	fail atomic.Bool
}

type failingFile struct {
	ports.File
	fs *failingFS
}

func (f *failingFile) Write(p []byte) (int, error) {
	if f.fs.fail.Load() {
		return 0, errInjected
	}
	return f.File.Write(p)
}

func (f *failingFS) CreateFile(path string) (ports.File, error) {
	file, err := f.LocalFileSystem.CreateFile(path)
	if err != nil {
		return nil, err
	}
	return &failingFile{File: file, fs: f}, nil
}

func (f *failingFS) OpenFile(path string) (ports.File, error) {
	file, err := f.LocalFileSystem.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &failingFile{File: file, fs: f}, nil
}

// appendInBatches appends [from, to] in batches of ten so that the small
// test segments rotate every couple of batches.
func appendInBatches(t *testing.T, l *SegmentedLog, from, to, term int64) {
	t.Helper()
	for i := from; i <= to; i += 10 {
		mustAppend(t, l, i, min(i+9, to), term)
	}
}
