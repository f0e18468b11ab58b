// Package raftlog implements a durable, segmented log for a Raft replica.
//
// Entries are appended to the newest segment file. Truncation, skipping
// forward after a snapshot install, and rotation each start a new segment
// whose header records where it sits in the logical log, so no existing
// file is ever rewritten. Superseded segments stay readable by open cursors
// and are deleted once released and pruned.
package raftlog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	sm "github.com/iamNilotpal/raftlog/internal/core/services/segment/manager"
	"github.com/iamNilotpal/raftlog/internal/metrics"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
	"github.com/iamNilotpal/raftlog/pkg/system"
	"go.uber.org/zap"
)

// SegmentedLog is the Raft log. One goroutine writes, any number read.
type SegmentedLog struct {
	opts     *domain.LogOptions
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
	strategy PruningStrategy

	segments *sm.Segments
	store    *sm.EntryStore

	mu          sync.RWMutex
	terms       *Terms
	cache       *inflightCache
	prevIndex   int64
	prevTerm    int64
	appendIndex int64
	currentTerm int64
	dirty       bool  // Flushed but not synced.
	failure     error // Set by a failed write. The log must be reopened.
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open recovers the log in opts.Directory and returns it ready for use.
// Recovery errors are returned as is; the log is never half open.
func Open(ctx context.Context, opts *domain.LogOptions) (*SegmentedLog, error) {
	if opts == nil {
		return nil, logerrors.NewValidationError("options", nil, fmt.Errorf("options are required"))
	}

	opts = PrepareDefaults(opts)
	if err := Validate(opts); err != nil {
		return nil, err
	}

	strategy, err := ParseStrategy(opts.PruneStrategy)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := &SegmentedLog{
		opts:     opts,
		logger:   opts.Logger.Named("raftlog"),
		metrics:  opts.Metrics,
		strategy: strategy,
		cache:    newInflightCache(opts.InFlightCacheEntries, opts.InFlightCacheBytes),
	}

	var replayed []domain.EntryRecord
	state, err := sm.NewRecoveryProtocol(opts).Run(func(r domain.EntryRecord) {
		replayed = append(replayed, r)
	})
	if err != nil {
		return nil, err
	}

	l.segments = state.Segments
	l.store = sm.NewEntryStore(state.Segments)
	l.prevIndex, l.prevTerm = state.PrevIndex, state.PrevTerm
	l.appendIndex, l.currentTerm = state.AppendIndex, state.CurrentTerm

	l.terms = NewTerms(state.PrevIndex, state.PrevTerm)
	if last := state.Segments.Last(); last != nil {
		header := last.Header()
		if header.PrevIndex >= state.PrevIndex {
			l.terms.Reset(header.PrevIndex, header.PrevTerm)
		}
	}
	for _, r := range replayed {
		if r.Index > l.prevIndex {
			l.terms.Append(r.Index, r.Entry.Term)
			l.cache.put(r.Index, r.Entry, 0)
		}
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.startMaintenance()

	l.logger.Infow(
		"log opened",
		"directory", opts.Directory,
		"prevIndex", l.prevIndex,
		"appendIndex", l.appendIndex,
		"currentTerm", l.currentTerm,
		"pruneStrategy", strategy.String(),
		"readOnly", opts.ReadOnly,
	)
	return l, nil
}

// writableLocked returns the error every mutation fails with, if any.
func (l *SegmentedLog) writableLocked() error {
	switch {
	case l.closed:
		return logerrors.ErrLogClosed
	case l.opts.ReadOnly:
		return fmt.Errorf("log opened read-only : %w", logerrors.ErrIllegalState)
	case l.failure != nil:
		return fmt.Errorf("%w : %v", logerrors.ErrNeedsRecovery, l.failure)
	}
	return nil
}

// fail latches the log into the needs-recovery state.
func (l *SegmentedLog) fail(op string, err error) error {
	l.failure = err
	l.logger.Errorw("write failed, log needs recovery", "operation", op, "error", err)
	return logerrors.NewLogError(logerrors.ErrorStorage, op, fmt.Errorf("%w : %v", logerrors.ErrNeedsRecovery, err))
}

func contractError(op string, err error) error {
	return logerrors.NewLogError(logerrors.ErrorContract, op, err)
}

// Append writes entries after the current append index and returns the new
// append index. Terms must not decrease. Entries are handed to the OS before
// Append returns, and synced when SyncOnWrite is set.
//
// An entry whose content cannot be encoded is rejected; the entries before
// it in the batch are kept.
func (l *SegmentedLog) Append(entries ...domain.Entry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writableLocked(); err != nil {
		return l.appendIndex, err
	}
	if len(entries) == 0 {
		return l.appendIndex, nil
	}

	term := l.currentTerm
	for i, e := range entries {
		if e.Term < term {
			return l.appendIndex, contractError("append", fmt.Errorf(
				"entry %d has term %d, current term is %d : %w",
				l.appendIndex+int64(i)+1, e.Term, term, logerrors.ErrNonMonotonicTerm,
			))
		}
		term = e.Term
	}

	seg := l.segments.Last()
	index := l.appendIndex
	sizes := make([]int64, 0, len(entries))
	var written int64
	var rejected error

	for _, e := range entries {
		n, err := seg.Write(index+1, e)
		if err != nil {
			if n == 0 && errors.Is(err, logerrors.ErrInvalidArgument) {
				rejected = contractError("append", err)
				break
			}
			return l.appendIndex, l.fail("append", err)
		}
		index++
		written += n
		sizes = append(sizes, n)
	}

	if index == l.appendIndex {
		return l.appendIndex, rejected
	}

	if err := seg.Flush(l.opts.SyncOnWrite); err != nil {
		return l.appendIndex, l.fail("append", err)
	}
	l.dirty = !l.opts.SyncOnWrite

	for i, n := range sizes {
		e := entries[i]
		idx := l.appendIndex + int64(i) + 1
		l.terms.Append(idx, e.Term)
		l.cache.put(idx, e, n)
		l.currentTerm = e.Term
	}
	l.appendIndex = index
	l.metrics.RecordAppend(len(sizes), written, l.appendIndex)

	if seg.Position() >= l.opts.SegmentOptions.RotateAtSize {
		if _, err := l.segments.Rotate(l.appendIndex, l.appendIndex, l.currentTerm); err != nil {
			return l.appendIndex, l.fail("rotate", err)
		}
		l.dirty = false
	}

	return l.appendIndex, rejected
}

// Truncate discards fromIndex and every entry after it. fromIndex must lie
// in (PrevIndex, AppendIndex].
func (l *SegmentedLog) Truncate(fromIndex int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writableLocked(); err != nil {
		return err
	}
	if fromIndex > l.appendIndex || fromIndex <= l.prevIndex {
		return contractError("truncate", fmt.Errorf(
			"index %d outside (%d, %d] : %w", fromIndex, l.prevIndex, l.appendIndex, logerrors.ErrInvalidArgument,
		))
	}

	newTerm, err := l.readEntryTermLocked(fromIndex - 1)
	if err != nil {
		return err
	}

	if _, err := l.segments.Truncate(l.appendIndex, fromIndex-1, newTerm); err != nil {
		return l.fail("truncate", err)
	}

	l.logger.Infow("log truncated", "from", fromIndex, "previousAppendIndex", l.appendIndex, "term", newTerm)
	l.appendIndex = fromIndex - 1
	l.currentTerm = newTerm
	l.terms.Truncate(l.appendIndex, newTerm)
	l.cache.truncateFrom(fromIndex)
	l.dirty = false
	l.metrics.RecordState(l.appendIndex, l.prevIndex)
	return nil
}

// Skip moves the log forward to newIndex, typically after a snapshot was
// installed. Everything up to newIndex is considered discarded. It is a
// no-op unless newIndex is past the append index.
func (l *SegmentedLog) Skip(newIndex, newTerm int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writableLocked(); err != nil {
		return l.appendIndex, err
	}
	if newIndex <= l.appendIndex {
		l.logger.Infow("skip ignored", "newIndex", newIndex, "appendIndex", l.appendIndex)
		return l.appendIndex, nil
	}

	if _, err := l.segments.Skip(l.appendIndex, newIndex, newTerm); err != nil {
		return l.appendIndex, l.fail("skip", err)
	}

	l.logger.Infow("log skipped forward", "from", l.appendIndex, "to", newIndex, "term", newTerm)
	l.prevIndex, l.appendIndex = newIndex, newIndex
	l.prevTerm, l.currentTerm = newTerm, newTerm
	l.terms.Reset(newIndex, newTerm)
	l.cache.reset()
	l.dirty = false
	l.metrics.RecordState(l.appendIndex, l.prevIndex)
	return l.appendIndex, nil
}

// Prune discards old segments whose entries are all at or before safeIndex,
// within the limits of the pruning strategy. It returns the new PrevIndex.
func (l *SegmentedLog) Prune(safeIndex int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writableLocked(); err != nil {
		return l.prevIndex, err
	}

	safeIndex = min(safeIndex, l.appendIndex)
	pruneIndex := min(l.strategy.PruneIndex(safeIndex, l.appendIndex, l.segments.Ranges()), safeIndex)
	if pruneIndex < 0 {
		return l.prevIndex, nil
	}

	header, pruned, err := l.segments.Prune(pruneIndex)
	if errors.Is(err, logerrors.ErrLogClosed) {
		return l.prevIndex, err
	}
	if header.PrevIndex > l.prevIndex {
		l.prevIndex = header.PrevIndex
		l.prevTerm = header.PrevTerm
		l.terms.PruneBefore(l.prevIndex)
	}

	if pruned > 0 {
		l.logger.Infow("log pruned", "safeIndex", safeIndex, "pruneIndex", pruneIndex, "segments", pruned, "prevIndex", l.prevIndex)
	}
	if err != nil {
		l.logger.Warnw("failed to delete pruned segments", "error", err)
		return l.prevIndex, err
	}
	return l.prevIndex, nil
}

// ReadEntryTerm returns the term of the entry at index. It returns PrevTerm
// for PrevIndex and -1 for indexes outside [PrevIndex, AppendIndex].
func (l *SegmentedLog) ReadEntryTerm(index int64) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return -1, logerrors.ErrLogClosed
	}
	return l.readEntryTermLocked(index)
}

func (l *SegmentedLog) readEntryTermLocked(index int64) (int64, error) {
	if index == l.prevIndex {
		return l.prevTerm, nil
	}
	if index < l.prevIndex || index > l.appendIndex {
		return -1, nil
	}

	if entry, ok := l.cachedLocked(index); ok {
		return entry.Term, nil
	}
	if term, ok := l.terms.TermAt(index); ok {
		return term, nil
	}

	entry, err := l.readLocked(index)
	if err != nil {
		return -1, err
	}
	return entry.Term, nil
}

func (l *SegmentedLog) cachedLocked(index int64) (domain.Entry, bool) {
	if !l.cache.enabled() {
		return domain.Entry{}, false
	}
	entry, ok := l.cache.get(index)
	l.metrics.RecordCacheLookup(ok)
	return entry, ok
}

func (l *SegmentedLog) readLocked(index int64) (domain.Entry, error) {
	cursor := l.store.GetEntriesFrom(index)
	defer cursor.Close()

	if cursor.Next() {
		if record := cursor.Record(); record.Index == index {
			return record.Entry, nil
		}
	}
	if err := cursor.Err(); err != nil {
		return domain.Entry{}, err
	}
	return domain.Entry{}, fmt.Errorf("entry %d is missing : %w", index, logerrors.ErrDamagedLogStorage)
}

// Entry returns the entry at index, which must lie in (PrevIndex, AppendIndex].
func (l *SegmentedLog) Entry(index int64) (domain.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return domain.Entry{}, logerrors.ErrLogClosed
	}
	if index <= l.prevIndex {
		return domain.Entry{}, fmt.Errorf("entry %d : %w", index, logerrors.ErrLogCompacted)
	}
	if index > l.appendIndex {
		return domain.Entry{}, fmt.Errorf(
			"entry %d is past append index %d : %w", index, l.appendIndex, logerrors.ErrInvalidArgument,
		)
	}

	if entry, ok := l.cachedLocked(index); ok {
		return entry, nil
	}
	return l.readLocked(index)
}

// GetEntryCursor returns a cursor over the entries from index onwards. The
// cursor must be closed. Reading before the retained prefix fails with
// ErrLogCompacted.
func (l *SegmentedLog) GetEntryCursor(from int64) (*sm.EntryCursor, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, logerrors.ErrLogClosed
	}
	if from <= l.prevIndex {
		return nil, fmt.Errorf("cursor from %d, prefix ends at %d : %w", from, l.prevIndex, logerrors.ErrLogCompacted)
	}
	return l.store.GetEntriesFrom(from), nil
}

// AppendIndex returns the index of the last entry.
func (l *SegmentedLog) AppendIndex() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.appendIndex
}

// PrevIndex returns the index preceding the first retained entry.
func (l *SegmentedLog) PrevIndex() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prevIndex
}

// PrevTerm returns the term of the entry at PrevIndex.
func (l *SegmentedLog) PrevTerm() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prevTerm
}

// CurrentTerm returns the term of the last entry.
func (l *SegmentedLog) CurrentTerm() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentTerm
}

// Segments returns the live segments with their index ranges.
func (l *SegmentedLog) Segments() []sm.SegmentRange {
	return l.segments.Ranges()
}

// Sync fsyncs the newest segment if appends were not synced yet.
func (l *SegmentedLog) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writableLocked(); err != nil {
		return err
	}
	if !l.dirty {
		return nil
	}

	if err := l.segments.Last().Flush(true); err != nil {
		return l.fail("sync", err)
	}
	l.dirty = false
	return nil
}

// Close stops background work and releases every file. It gives up waiting
// when ctx is done.
func (l *SegmentedLog) Close(ctx context.Context) error {
	return system.RunWithContext(ctx, func(context.Context) error {
		l.cancel()
		l.wg.Wait()

		l.mu.Lock()
		defer l.mu.Unlock()

		if l.closed {
			return nil
		}
		l.closed = true

		l.logger.Infow("closing log", "appendIndex", l.appendIndex)
		return l.segments.Close()
	})
}
