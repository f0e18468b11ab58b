package sm

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	segment "github.com/iamNilotpal/raftlog/internal/core/services/segment/service"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
)

// EntryStore reads entries across segment boundaries.
type EntryStore struct {
	segments *Segments
}

func NewEntryStore(segments *Segments) *EntryStore {
	return &EntryStore{segments: segments}
}

// GetEntriesFrom returns a cursor positioned at index. The cursor is empty
// when index is not held by any segment.
func (s *EntryStore) GetEntriesFrom(index int64) *EntryCursor {
	return &EntryCursor{segments: s.segments, next: index}
}

// EntryCursor is a forward-only, single pass iterator over consecutive
// entries. It holds at most one segment reader at a time and must be closed.
//
// A cursor stops cleanly at the end of the written log, at a record still
// being written to the newest segment, and when the segment it reads is
// disposed under it. A record cut short in an older segment is damage and
// is reported by Err.
type EntryCursor struct {
	segments *Segments

	next    int64
	limit   int64
	seg     *segment.SegmentFile
	newest  bool // seg was the newest segment when opened.
	current *segment.RecordCursor

	record domain.EntryRecord
	err    error
	done   bool
}

// Next advances to the next entry.
func (c *EntryCursor) Next() bool {
	for !c.done {
		if c.current == nil && !c.open() {
			return false
		}

		if c.next >= c.limit {
			c.closeCurrent()
			continue
		}

		if c.current.Next() {
			c.record = c.current.Record()
			c.next = c.record.Index + 1
			return true
		}

		err := c.current.Err()
		seg, newest := c.seg, c.newest
		c.closeCurrent()

		switch {
		case err == nil:
			// The segment ended before its range did: either it is the newest
			// segment or the rest of its range was skipped over.
			c.done = true
		case errors.Is(err, io.ErrUnexpectedEOF) && (newest || seg == c.segments.Last()):
			c.done = true
		case errors.Is(err, io.ErrUnexpectedEOF):
			c.err = fmt.Errorf(
				"segment %d ends in a partial record before index %d : %w",
				seg.Version(), c.next, logerrors.ErrDamagedLogStorage,
			)
			c.done = true
		default:
			c.err = err
			c.done = true
		}
	}
	return false
}

func (c *EntryCursor) open() bool {
	seg, limit, ok := c.segments.GetForIndex(c.next)
	if !ok {
		c.done = true
		return false
	}

	cursor, err := seg.GetReader(c.next)
	if err != nil {
		if !logerrors.IsDisposed(err) {
			c.err = err
		}
		c.done = true
		return false
	}

	c.current = cursor
	c.limit = limit
	c.seg = seg
	c.newest = seg == c.segments.Last()
	return true
}

func (c *EntryCursor) closeCurrent() {
	if c.current != nil {
		c.current.Close()
		c.current = nil
		c.seg = nil
		c.limit = math.MaxInt64
	}
}

// Record returns the entry produced by the last successful Next.
func (c *EntryCursor) Record() domain.EntryRecord {
	return c.record
}

// Err returns the error that stopped the cursor, if any.
func (c *EntryCursor) Err() error {
	return c.err
}

// Close releases the segment reader held by the cursor.
func (c *EntryCursor) Close() error {
	c.done = true
	c.closeCurrent()
	return nil
}
