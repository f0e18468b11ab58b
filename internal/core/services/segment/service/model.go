package segment

import (
	"github.com/iamNilotpal/raftlog/internal/core/domain"
)

// Config holds the parameters for creating or opening a segment file.
type Config struct {
	// Path is the absolute file path of the segment.
	Path string

	// Version is the version encoded in the file name.
	Version int64

	// Header is written by Create. Open reads it from the file instead.
	Header domain.SegmentHeader

	// Codec encodes and decodes records. Shared by all segments of a log.
	Codec *RecordCodec

	// Options carries the file system, logger, metrics and tuning knobs.
	Options *domain.LogOptions
}

// SegmentInfo holds metadata about a segment, used by pruning strategies and
// the dump tool.
type SegmentInfo struct {
	// Version of the segment, also encoded in its file name.
	Version int64

	// Header written at the start of the file.
	Header domain.SegmentHeader

	// Absolute path to segment file on disk.
	Path string

	// Size of the file in bytes, header included.
	Size int64

	// Number of read handles currently leased and idle.
	Leases int
	Idle   int

	// Whether the segment still owns a writer.
	Writable bool

	// Disposal state.
	MarkedForDisposal bool
	Disposed          bool
}
