package segment

import (
	"time"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
)

const (
	DefaultSegmentPrefix = "raft.log."

	DefaultRotateAtSize        = 64 * 1024 * 1024 // 64MB
	DefaultReaderPoolSize      = 8
	DefaultReaderMaxAge        = time.Minute
	DefaultReaderPruneInterval = 30 * time.Second
	DefaultPositionCacheStride = 256

	// MinRotateAtSize keeps a segment large enough to hold its header and at
	// least one record.
	MinRotateAtSize = domain.SegmentHeaderSize + domain.RecordHeaderSize
)

// DefaultOptions returns a SegmentOptions struct with recommended defaults.
func DefaultOptions() *domain.SegmentOptions {
	return &domain.SegmentOptions{
		SegmentPrefix:       DefaultSegmentPrefix,
		RotateAtSize:        DefaultRotateAtSize,
		ReaderPoolSize:      DefaultReaderPoolSize,
		ReaderMaxAge:        DefaultReaderMaxAge,
		ReaderPruneInterval: DefaultReaderPruneInterval,
		PositionCacheStride: DefaultPositionCacheStride,
	}
}

// PrepareDefaults fills zero fields of opts with defaults.
func PrepareDefaults(opts *domain.SegmentOptions) *domain.SegmentOptions {
	if opts == nil {
		return DefaultOptions()
	}

	if opts.SegmentPrefix == "" {
		opts.SegmentPrefix = DefaultSegmentPrefix
	}
	if opts.RotateAtSize == 0 {
		opts.RotateAtSize = DefaultRotateAtSize
	}
	if opts.ReaderPoolSize == 0 {
		opts.ReaderPoolSize = DefaultReaderPoolSize
	}
	if opts.ReaderMaxAge == 0 {
		opts.ReaderMaxAge = DefaultReaderMaxAge
	}
	if opts.ReaderPruneInterval == 0 {
		opts.ReaderPruneInterval = DefaultReaderPruneInterval
	}
	if opts.PositionCacheStride == 0 {
		opts.PositionCacheStride = DefaultPositionCacheStride
	}

	return opts
}
