package domain

import "fmt"

// SegmentHeaderSize is the on-disk size of a SegmentHeader: four big-endian int64 fields.
const SegmentHeaderSize = 32

// SegmentHeader is written once at the start of every segment file and never changes.
// It places the segment in the logical log: the first entry stored in the file
// has index PrevIndex+1.
type SegmentHeader struct {
	// PrevFileLastIndex is the append index of the log at the moment this
	// segment was created. It differs from PrevIndex when the segment was
	// created by a truncation (greater) or a skip (smaller).
	PrevFileLastIndex int64

	// Version is the segment's position in the creation order, also encoded
	// in the file name.
	Version int64

	// PrevIndex and PrevTerm identify the entry logically preceding the
	// first entry of this segment.
	PrevIndex int64
	PrevTerm  int64
}

// Start returns the index of the first entry this segment holds.
func (h SegmentHeader) Start() int64 {
	return h.PrevIndex + 1
}

// IsTruncation reports whether the segment was created by cutting the log back.
func (h SegmentHeader) IsTruncation() bool {
	return h.PrevFileLastIndex > h.PrevIndex
}

// IsSkip reports whether the segment was created by jumping the log forward.
func (h SegmentHeader) IsSkip() bool {
	return h.PrevFileLastIndex < h.PrevIndex
}

func (h SegmentHeader) String() string {
	return fmt.Sprintf(
		"SegmentHeader{prevFileLastIndex=%d, version=%d, prevIndex=%d, prevTerm=%d}",
		h.PrevFileLastIndex, h.Version, h.PrevIndex, h.PrevTerm,
	)
}
