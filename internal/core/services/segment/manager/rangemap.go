package sm

import (
	"math"
	"sort"

	segment "github.com/iamNilotpal/raftlog/internal/core/services/segment/service"
)

type rangeEntry struct {
	start   int64
	segment *segment.SegmentFile
}

// OpenEndRangeMap maps index ranges to the segment holding them. Each entry
// covers [start, next start); the newest entry is open ended.
type OpenEndRangeMap struct {
	entries []rangeEntry
}

func NewOpenEndRangeMap() *OpenEndRangeMap {
	return &OpenEndRangeMap{}
}

// ReplaceFrom removes every range starting at or after start, then maps
// [start, ∞) to seg. It returns the segments that were removed.
func (m *OpenEndRangeMap) ReplaceFrom(start int64, seg *segment.SegmentFile) []*segment.SegmentFile {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].start >= start })

	var removed []*segment.SegmentFile
	for _, e := range m.entries[i:] {
		removed = append(removed, e.segment)
	}

	m.entries = append(m.entries[:i], rangeEntry{start: start, segment: seg})
	return removed
}

// Lookup returns the segment holding index and the exclusive limit of its
// range. The limit of the newest range is math.MaxInt64.
func (m *OpenEndRangeMap) Lookup(index int64) (*segment.SegmentFile, int64, bool) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].start > index })
	if i == 0 {
		return nil, 0, false
	}
	return m.entries[i-1].segment, m.limitAt(i - 1), true
}

// RangeOf returns the range mapped to seg, if seg is still mapped.
func (m *OpenEndRangeMap) RangeOf(seg *segment.SegmentFile) (int64, int64, bool) {
	for i, e := range m.entries {
		if e.segment == seg {
			return e.start, m.limitAt(i), true
		}
	}
	return 0, 0, false
}

// RemoveBefore drops every range that starts before start.
func (m *OpenEndRangeMap) RemoveBefore(start int64) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].start >= start })
	if i == 0 {
		return
	}
	m.entries = append(m.entries[:0], m.entries[i:]...)
}

// Len returns the number of mapped ranges.
func (m *OpenEndRangeMap) Len() int {
	return len(m.entries)
}

func (m *OpenEndRangeMap) limitAt(i int) int64 {
	if i+1 < len(m.entries) {
		return m.entries[i+1].start
	}
	return math.MaxInt64
}
