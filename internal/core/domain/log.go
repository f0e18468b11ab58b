// Package domain defines the core types and configurations for the segmented log.
package domain

import (
	"time"

	"github.com/iamNilotpal/raftlog/internal/core/domain/config"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/internal/metrics"
	"go.uber.org/zap"
)

// LogOptions defines the configuration parameters for a segmented log.
type LogOptions struct {
	// Directory holds the segment files of one log. It is created if missing.
	Directory string

	// BufferSize controls the size of the segment writer's buffer.
	// Every Append flushes the buffer, so this only bounds the size of the
	// individual write calls issued for a batch of entries.
	//
	// Default: 64KB
	BufferSize uint32

	// SyncOnWrite forces an fsync after every Append. When false, the data is
	// handed to the OS on every Append and synced every SyncInterval.
	//
	// Default: false
	SyncOnWrite bool

	// SyncInterval determines how often the current segment is fsynced when
	// SyncOnWrite is off. A negative value disables background syncing.
	//
	// Default: 1 second
	SyncInterval time.Duration

	// PruneStrategy decides how much history Prune keeps before the safe index.
	// Accepted forms: "<n> entries", "<n>[k|m|g] size", "<n> files",
	// "keep_all" (never prune) and "keep_none" (prune up to the safe index).
	//
	// Default: "1g size"
	PruneStrategy string

	// InFlightCacheEntries and InFlightCacheBytes bound the in-memory cache of
	// recently appended entries. A negative entry count disables the cache.
	//
	// Default: 1024 entries, 8MB
	InFlightCacheEntries int
	InFlightCacheBytes   int64

	// ReadOnly opens the log for inspection: recovery never repairs files and
	// every mutating call fails.
	ReadOnly bool

	// Payload bounds the size of a stored entry payload.
	Payload *config.PayloadConfig

	// ChecksumOptions configures record checksums.
	ChecksumOptions *ChecksumOptions

	// CompressionOptions configures payload compression.
	CompressionOptions *CompressionOptions

	// SegmentOptions defines configurable parameters for segments.
	SegmentOptions *SegmentOptions

	// Marshal converts entry content to bytes. Required.
	Marshal ports.ContentMarshal

	// FileSystem defaults to the local file system.
	FileSystem ports.FileSystemPort

	// Logger defaults to a no-op logger.
	Logger *zap.SugaredLogger

	// Metrics is optional.
	Metrics *metrics.Metrics
}
