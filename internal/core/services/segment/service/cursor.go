package segment

import (
	"errors"
	"fmt"
	"io"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
)

// RecordCursor iterates the records of one segment from a start index. It
// holds a pooled read handle until Close.
//
//	cursor, err := seg.GetReader(from)
//	if err != nil { ... }
//	defer cursor.Close()
//	for cursor.Next() {
//		rec := cursor.Record()
//	}
//	if err := cursor.Err(); err != nil { ... }
type RecordCursor struct {
	segment *SegmentFile
	reader  *reader

	from   int64
	next   int64
	offset int64

	record domain.EntryRecord
	err    error
	done   bool
	closed bool
}

// Next advances to the next record. It returns false at the end of the
// file or on error; Err tells the two apart.
func (c *RecordCursor) Next() bool {
	if c.done || c.closed {
		return false
	}

	for {
		record, size, err := c.segment.codec.Decode(c.reader)
		if err != nil {
			c.done = true
			if !errors.Is(err, io.EOF) {
				c.err = err
			}
			return false
		}

		if record.Index != c.next {
			c.done = true
			c.err = fmt.Errorf(
				"segment %d: expected index %d, found %d : %w",
				c.segment.version, c.next, record.Index, logerrors.ErrCorruptRecord,
			)
			return false
		}

		c.segment.positions.put(record.Index, c.offset)
		c.offset += size
		c.next++

		if record.Index >= c.from {
			c.record = record
			return true
		}
	}
}

// Record returns the record produced by the last successful Next.
func (c *RecordCursor) Record() domain.EntryRecord {
	return c.record
}

// Err returns the error that stopped iteration, if any. A record cut short
// by the end of the file is reported as io.ErrUnexpectedEOF.
func (c *RecordCursor) Err() error {
	return c.err
}

// Offset returns the byte offset just past the last decoded record.
func (c *RecordCursor) Offset() int64 {
	return c.offset
}

// Close returns the read handle to the segment's pool. Safe to call twice.
func (c *RecordCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.segment.release(c.reader)
	c.reader = nil
	return nil
}
