package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/services/raftlog"
	"github.com/iamNilotpal/raftlog/internal/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// writeLog leaves v0 holding 0..4, orphans v1 and v2 with a truncation at 3,
// writes 3..4 again at term 2 into v3 and rotates to an empty v4.
func writeLog(t *testing.T, dir string) {
	t.Helper()

	l, err := raftlog.Open(context.Background(), &domain.LogOptions{
		Directory:     dir,
		Marshal:       serialize.NewStringMarshal(),
		Logger:        zaptest.NewLogger(t).Sugar(),
		PruneStrategy: "keep_all",
		SegmentOptions: &domain.SegmentOptions{
			RotateAtSize: 64,
		},
	})
	require.NoError(t, err)

	batch := func(from, to, term int64) {
		var entries []domain.Entry
		for i := from; i <= to; i++ {
			entries = append(entries, domain.Entry{Term: term, Content: fmt.Sprintf("entry-%d", i)})
		}
		_, err := l.Append(entries...)
		require.NoError(t, err)
	}

	batch(0, 4, 1)
	batch(5, 9, 1)
	require.NoError(t, l.Truncate(3))
	batch(3, 4, 2)

	require.NoError(t, l.Close(context.Background()))
}

func dumpOptions(t *testing.T, dir string) *domain.LogOptions {
	return &domain.LogOptions{
		Directory: dir,
		Marshal:   serialize.NewStringMarshal(),
		Logger:    zaptest.NewLogger(t).Sugar(),
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir)

	before, err := os.ReadDir(dir)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, dump(&out, dumpOptions(t, dir)))
	text := out.String()

	assert.Contains(t, text, "prevIndex=-1 prevTerm=-1 appendIndex=4 currentTerm=2")
	assert.Contains(t, text, "raft.log.0.log SegmentHeader{prevFileLastIndex=-1, version=0, prevIndex=-1, prevTerm=-1}")
	assert.Contains(t, text, "raft.log.3.log SegmentHeader{prevFileLastIndex=9, version=3, prevIndex=2, prevTerm=1}")
	assert.Contains(t, text, "0: Entry{term=1, content=entry-0}")
	assert.Contains(t, text, "3: Entry{term=2, content=entry-3}")
	assert.NotContains(t, text, "9: Entry")
	assert.Equal(t, 2, strings.Count(text, "(superseded by a later truncation)"))

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestDump_PartialRecord(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir)

	last := filepath.Join(dir, "raft.log.3.log")
	info, err := os.Stat(last)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(last, info.Size()-3))

	var out bytes.Buffer
	require.NoError(t, dump(&out, dumpOptions(t, dir)))
	assert.Contains(t, out.String(), "(partial record at offset")

	after, err := os.Stat(last)
	require.NoError(t, err)
	assert.Equal(t, info.Size()-3, after.Size())
}

func TestDump_EmptyDirectory(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, dump(&out, dumpOptions(t, t.TempDir())))
	assert.Contains(t, out.String(), "appendIndex=-1")
}

func TestRootCmd(t *testing.T) {
	t.Run("writes one file per directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "node1")
		writeLog(t, dir)
		outDir := t.TempDir()

		cmd := newRootCmd()
		var stdout bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetArgs([]string{"--out-dir", outDir, "--content", "bytes", dir})
		require.NoError(t, cmd.Execute())

		data, err := os.ReadFile(filepath.Join(outDir, "node1.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "raft.log.0.log")
		assert.Contains(t, stdout.String(), "node1.txt")
	})

	t.Run("rejects unknown content kind", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--content", "xml", t.TempDir()})
		assert.ErrorContains(t, cmd.Execute(), "unknown content kind")
	})

	t.Run("requires a directory", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(nil)
		assert.Error(t, cmd.Execute())
	})

	t.Run("custom prefix finds nothing", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir)

		cmd := newRootCmd()
		var stdout bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetArgs([]string{"--prefix", "other.", dir})
		require.NoError(t, cmd.Execute())
		assert.NotContains(t, stdout.String(), "raft.log.0.log")
	})
}
