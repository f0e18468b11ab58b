package domain

import (
	"time"
)

// SegmentOptions defines configurable parameters for log segments.
type SegmentOptions struct {
	// RotateAtSize is the writer position, in bytes, at which the current
	// segment is closed and a new one started. Rotation happens after the
	// append that crosses the threshold, so segments can be slightly larger.
	//
	// Default: 64MB
	RotateAtSize int64

	// SegmentPrefix defines the filename prefix for segment files.
	// Final filename will be: prefix + version + ".log"
	//
	// Default: "raft.log."
	SegmentPrefix string

	// ReaderPoolSize caps the number of idle read handles kept per segment.
	// Handles beyond the cap are closed when their cursor is closed.
	//
	// Default: 8
	ReaderPoolSize int

	// ReaderMaxAge is how long an idle read handle may stay pooled before the
	// background pruner closes it.
	//
	// Default: 1 minute
	ReaderMaxAge time.Duration

	// ReaderPruneInterval is how often idle read handles are checked.
	// Zero disables the background pruner.
	//
	// Default: 30 seconds
	ReaderPruneInterval time.Duration

	// PositionCacheStride records a byte offset checkpoint every N entries so
	// readers can seek near their start index instead of scanning the file.
	//
	// Default: 256
	PositionCacheStride int
}
