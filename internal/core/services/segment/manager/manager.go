package sm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	segment "github.com/iamNilotpal/raftlog/internal/core/services/segment/service"
	"github.com/iamNilotpal/raftlog/internal/metrics"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
	"go.uber.org/zap"
)

// Segment creation causes, used in logs and metrics.
const (
	causeRecovery = "recovery"
	causeRotate   = "rotate"
	causeTruncate = "truncate"
	causeSkip     = "skip"
)

// SegmentRange describes a segment that still holds live entries.
type SegmentRange struct {
	segment.SegmentInfo

	// Start is the first index of the range, Limit is exclusive. The newest
	// range has Limit math.MaxInt64.
	Start int64
	Limit int64
}

// Segments owns the ordered set of segment files of one log and the range
// map that routes an index to the segment holding it.
//
// Segments never deletes a file that may still be read. Superseded segments
// are marked for disposal and their files are removed once disposed, and
// only when pruning has passed them. Pruned files are deleted oldest first:
// a file waits until every older pruned file is gone, so the versions left
// on disk are always contiguous.
type Segments struct {
	opts    *domain.LogOptions
	codec   *segment.RecordCodec
	names   *FileNames
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	// Serializes deletion of pruned files. Lock order is deleteMu, mu, then
	// the segment's own mutex.
	deleteMu sync.Mutex

	// Guards the fields below. MarkForDisposal is never called while mu is held.
	mu     sync.Mutex
	all    []*segment.SegmentFile // Ordered by version.
	ranges *OpenEndRangeMap
	doomed []*segment.SegmentFile // Pruned, awaiting deletion. Ordered by version.
	closed bool
}

func newSegments(opts *domain.LogOptions, codec *segment.RecordCodec, names *FileNames) *Segments {
	return &Segments{
		opts:    opts,
		codec:   codec,
		names:   names,
		logger:  opts.Logger.Named("segments"),
		metrics: opts.Metrics,
		ranges:  NewOpenEndRangeMap(),
	}
}

// add appends a recovered segment in version order and splices its range.
func (s *Segments) add(seg *segment.SegmentFile) {
	s.all = append(s.all, seg)
	s.ranges.ReplaceFrom(seg.Header().Start(), seg)
}

// unmapped returns the segments no index routes to any more.
func (s *Segments) unmapped() []*segment.SegmentFile {
	var out []*segment.SegmentFile
	for _, seg := range s.all {
		if _, _, ok := s.ranges.RangeOf(seg); !ok {
			out = append(out, seg)
		}
	}
	return out
}

// Rotate closes the newest segment and starts a new one after it. The new
// segment continues the log, so prevFileLastIndex must equal prevIndex.
func (s *Segments) Rotate(prevFileLastIndex, prevIndex, prevTerm int64) (*segment.SegmentFile, error) {
	if prevFileLastIndex != prevIndex {
		return nil, fmt.Errorf(
			"rotate needs prevFileLastIndex (%d) == prevIndex (%d) : %w",
			prevFileLastIndex, prevIndex, logerrors.ErrInvalidArgument,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextLocked(prevFileLastIndex, prevIndex, prevTerm, causeRotate)
}

// Truncate starts a new segment at prevIndex+1, discarding every entry after
// prevIndex. Segments whose range starts at or after the cut are marked for
// disposal.
func (s *Segments) Truncate(prevFileLastIndex, prevIndex, prevTerm int64) (*segment.SegmentFile, error) {
	if prevFileLastIndex < prevIndex {
		return nil, fmt.Errorf(
			"truncate needs prevFileLastIndex (%d) >= prevIndex (%d) : %w",
			prevFileLastIndex, prevIndex, logerrors.ErrInvalidArgument,
		)
	}
	// Legal but suspicious: nothing is discarded. SegmentedLog never asks for it.
	if prevFileLastIndex == prevIndex {
		s.logger.Warnw("truncating at the end of the log", "index", prevIndex)
	}

	s.mu.Lock()
	seg, err := s.nextLocked(prevFileLastIndex, prevIndex, prevTerm, causeTruncate)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	cut := prevIndex + 1
	var orphans []*segment.SegmentFile
	for _, old := range s.all {
		if old != seg && old.Header().Start() >= cut && !old.IsMarkedForDisposal() {
			orphans = append(orphans, old)
		}
	}
	s.mu.Unlock()

	for _, old := range orphans {
		s.logger.Infow("segment orphaned by truncation", "version", old.Version(), "cut", cut)
		if err := old.MarkForDisposal(func() { s.onDisposed(old) }); err != nil {
			s.logger.Warnw("failed to mark orphan", "version", old.Version(), "error", err)
		}
	}
	return seg, nil
}

// Skip starts a new segment whose first index is prevIndex+1, leaving a hole
// after prevFileLastIndex. Nothing is orphaned.
func (s *Segments) Skip(prevFileLastIndex, prevIndex, prevTerm int64) (*segment.SegmentFile, error) {
	if prevFileLastIndex > prevIndex {
		return nil, fmt.Errorf(
			"skip needs prevFileLastIndex (%d) <= prevIndex (%d) : %w",
			prevFileLastIndex, prevIndex, logerrors.ErrInvalidArgument,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextLocked(prevFileLastIndex, prevIndex, prevTerm, causeSkip)
}

// nextLocked creates the next version, retires the current writer and
// splices the new segment at prevIndex+1.
func (s *Segments) nextLocked(prevFileLastIndex, prevIndex, prevTerm int64, cause string) (*segment.SegmentFile, error) {
	if s.closed {
		return nil, logerrors.ErrLogClosed
	}

	var version int64
	var last *segment.SegmentFile
	if n := len(s.all); n > 0 {
		last = s.all[n-1]
		version = last.Version() + 1
	}

	header := domain.SegmentHeader{
		PrevFileLastIndex: prevFileLastIndex,
		Version:           version,
		PrevIndex:         prevIndex,
		PrevTerm:          prevTerm,
	}

	seg, err := s.create(header, cause)
	if err != nil {
		return nil, err
	}

	if last != nil {
		if err := last.CloseWriter(); err != nil {
			s.logger.Warnw("failed to close previous writer", "version", last.Version(), "error", err)
		}
	}

	s.all = append(s.all, seg)
	s.ranges.ReplaceFrom(header.Start(), seg)
	s.metrics.RecordSegmentCreated(cause, len(s.all))
	return seg, nil
}

func (s *Segments) create(header domain.SegmentHeader, cause string) (*segment.SegmentFile, error) {
	seg, err := segment.Create(&segment.Config{
		Path:    s.names.PathFor(header.Version),
		Version: header.Version,
		Header:  header,
		Codec:   s.codec,
		Options: s.opts,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("segment created", "cause", cause, "header", header.String())
	return seg, nil
}

// GetForIndex returns the segment holding index and the exclusive limit of
// its range.
func (s *Segments) GetForIndex(index int64) (*segment.SegmentFile, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ranges.Lookup(index)
}

// Last returns the newest segment, the only one with a writer. It is nil
// only for an empty read-only log.
func (s *Segments) Last() *segment.SegmentFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.all) == 0 {
		return nil
	}
	return s.all[len(s.all)-1]
}

// All returns every known segment in version order, orphans included.
func (s *Segments) All() []*segment.SegmentFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*segment.SegmentFile(nil), s.all...)
}

// Ranges returns the live segments with their index ranges, oldest first.
func (s *Segments) Ranges() []SegmentRange {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SegmentRange, 0, s.ranges.Len())
	for _, seg := range s.all {
		start, limit, ok := s.ranges.RangeOf(seg)
		if !ok {
			continue
		}
		out = append(out, SegmentRange{SegmentInfo: seg.Info(), Start: start, Limit: limit})
	}
	return out
}

// Prune removes segments from the front of the log while every entry they
// hold is at or before safeIndex. Orphans met on the way are removed too.
// The newest segment always survives. Prune returns the header of the
// oldest surviving segment, which carries the new PrevIndex and PrevTerm,
// and the number of segments removed.
func (s *Segments) Prune(safeIndex int64) (domain.SegmentHeader, int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.SegmentHeader{}, 0, logerrors.ErrLogClosed
	}
	if len(s.all) == 0 {
		s.mu.Unlock()
		return domain.SegmentHeader{}, 0, nil
	}

	var (
		cut    int
		toMark []*segment.SegmentFile
	)

	for cut < len(s.all)-1 {
		seg := s.all[cut]
		if _, limit, ok := s.ranges.RangeOf(seg); ok && limit-1 > safeIndex {
			break
		}

		s.doomed = append(s.doomed, seg)
		if !seg.IsMarkedForDisposal() {
			toMark = append(toMark, seg)
		}
		cut++
	}

	s.all = append(s.all[:0], s.all[cut:]...)
	survivor := s.all[0]
	s.ranges.RemoveBefore(survivor.Header().Start())
	total := len(s.all)
	s.mu.Unlock()

	if cut > 0 {
		s.logger.Infow("segments pruned", "count", cut, "safeIndex", safeIndex, "survivor", survivor.Version())
	}

	for _, seg := range toMark {
		if err := seg.MarkForDisposal(func() { s.onDisposed(seg) }); err != nil {
			s.logger.Warnw("failed to mark pruned segment", "version", seg.Version(), "error", err)
		}
	}

	err := s.deleteDoomed()
	s.metrics.RecordPrune(cut, total, survivor.Header().PrevIndex)
	return survivor.Header(), cut, err
}

// onDisposed runs when any segment is fully released. It may unblock the
// deletion of pruned files queued behind an older one.
func (s *Segments) onDisposed(_ *segment.SegmentFile) {
	if err := s.deleteDoomed(); err != nil {
		s.logger.Errorw("failed to delete pruned segment", "error", err)
	}
}

// deleteDoomed deletes pruned files from the oldest while they are
// disposed. It stops at the first one still read, or still failing to
// delete, which is retried on the next call.
func (s *Segments) deleteDoomed() error {
	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	for {
		s.mu.Lock()
		if len(s.doomed) == 0 || !s.doomed[0].IsDisposed() {
			s.mu.Unlock()
			return nil
		}
		head := s.doomed[0]
		s.mu.Unlock()

		if err := head.Delete(); err != nil {
			return fmt.Errorf("pruned segment %d : %w", head.Version(), err)
		}

		s.mu.Lock()
		s.doomed[0] = nil
		s.doomed = s.doomed[1:]
		s.mu.Unlock()
	}
}

// PruneReaders closes idle read handles older than maxAge on every segment.
func (s *Segments) PruneReaders(maxAge time.Duration) int {
	closed := 0
	for _, seg := range s.All() {
		closed += seg.PruneReaders(maxAge)
	}
	return closed
}

// Close releases every segment's writer and idle readers.
func (s *Segments) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	all := append([]*segment.SegmentFile(nil), s.all...)
	s.mu.Unlock()

	var errs []error
	for _, seg := range all {
		errs = append(errs, seg.Close())
	}
	errs = append(errs, s.codec.Close())
	return errors.Join(errs...)
}
