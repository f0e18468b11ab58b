package raftlog

import (
	"time"

	"github.com/iamNilotpal/raftlog/internal/adapters/checksum"
	"github.com/iamNilotpal/raftlog/internal/adapters/compression"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/domain/config"
	"github.com/iamNilotpal/raftlog/internal/core/services/segment"
	"github.com/iamNilotpal/raftlog/pkg/fs"
	"go.uber.org/zap"
)

const (
	DefaultMinBufferSize = 4096     // 4KB
	DefaultMaxBufferSize = 16777216 // 16MB
	DefaultBufferSize    = 65536    // 64KB

	DefaultSyncInterval  = time.Second
	DefaultPruneStrategy = "1g size"

	DefaultInFlightCacheEntries = 1024
	DefaultInFlightCacheBytes   = 8 * 1024 * 1024 // 8MB
)

// PrepareDefaults fills zero fields of opts with defaults and returns it.
func PrepareDefaults(opts *domain.LogOptions) *domain.LogOptions {
	if opts.BufferSize == 0 {
		opts.BufferSize = DefaultBufferSize
	}

	if opts.SyncInterval == 0 {
		opts.SyncInterval = DefaultSyncInterval
	}

	if opts.PruneStrategy == "" {
		opts.PruneStrategy = DefaultPruneStrategy
	}

	if opts.InFlightCacheEntries == 0 {
		opts.InFlightCacheEntries = DefaultInFlightCacheEntries
	}

	if opts.InFlightCacheBytes == 0 {
		opts.InFlightCacheBytes = DefaultInFlightCacheBytes
	}

	if opts.Payload == nil {
		opts.Payload = config.DefaultPayloadConfig()
	}

	if opts.ChecksumOptions == nil {
		opts.ChecksumOptions = checksum.DefaultOptions()
	}

	if opts.CompressionOptions == nil {
		opts.CompressionOptions = compression.DefaultOptions()
	}

	opts.SegmentOptions = segment.PrepareDefaults(opts.SegmentOptions)

	if opts.FileSystem == nil {
		opts.FileSystem = fs.NewLocalFileSystem()
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return opts
}
