package sm

import (
	"fmt"
	"testing"

	"github.com/iamNilotpal/raftlog/internal/adapters/checksum"
	"github.com/iamNilotpal/raftlog/internal/adapters/compression"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/domain/config"
	segopts "github.com/iamNilotpal/raftlog/internal/core/services/segment"
	segment "github.com/iamNilotpal/raftlog/internal/core/services/segment/service"
	"github.com/iamNilotpal/raftlog/internal/serialize"
	"github.com/iamNilotpal/raftlog/pkg/fs"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testOptions(t *testing.T, dir string) *domain.LogOptions {
	t.Helper()

	segmentOpts := segopts.DefaultOptions()
	segmentOpts.PositionCacheStride = 4

	return &domain.LogOptions{
		Directory:          dir,
		BufferSize:         4096,
		Payload:            config.DefaultPayloadConfig(),
		ChecksumOptions:    checksum.DefaultOptions(),
		CompressionOptions: compression.DefaultOptions(),
		SegmentOptions:     segmentOpts,
		Marshal:            serialize.NewStringMarshal(),
		FileSystem:         fs.NewLocalFileSystem(),
		Logger:             zaptest.NewLogger(t).Sugar(),
	}
}

func recoverLog(t *testing.T, opts *domain.LogOptions) *State {
	t.Helper()

	state, err := NewRecoveryProtocol(opts).Run(nil)
	require.NoError(t, err)
	t.Cleanup(func() { state.Segments.Close() })
	return state
}

func appendEntries(t *testing.T, seg *segment.SegmentFile, from, to, term int64) {
	t.Helper()

	for i := from; i <= to; i++ {
		_, err := seg.Write(i, domain.Entry{Term: term, Content: fmt.Sprintf("entry-%d", i)})
		require.NoError(t, err)
	}
	require.NoError(t, seg.Flush(false))
}

func collect(t *testing.T, cursor *EntryCursor) []int64 {
	t.Helper()
	defer cursor.Close()

	var indexes []int64
	for cursor.Next() {
		indexes = append(indexes, cursor.Record().Index)
	}
	require.NoError(t, cursor.Err())
	return indexes
}

func span(from, to int64) []int64 {
	var out []int64
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
