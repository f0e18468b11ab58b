package raftlog

import (
	"time"
)

// startMaintenance launches the background loops: idle reader pruning and,
// unless every append syncs, periodic fsync of the newest segment.
func (l *SegmentedLog) startMaintenance() {
	segmentOpts := l.opts.SegmentOptions

	if segmentOpts.ReaderPruneInterval > 0 {
		l.wg.Add(1)
		go l.every(segmentOpts.ReaderPruneInterval, func() {
			if closed := l.segments.PruneReaders(segmentOpts.ReaderMaxAge); closed > 0 {
				l.logger.Debugw("closed idle readers", "count", closed)
			}
		})
	}

	if !l.opts.ReadOnly && !l.opts.SyncOnWrite && l.opts.SyncInterval > 0 {
		l.wg.Add(1)
		go l.every(l.opts.SyncInterval, func() {
			if err := l.Sync(); err != nil {
				l.logger.Errorw("background sync failed", "error", err)
			}
		})
	}
}

func (l *SegmentedLog) every(interval time.Duration, task func()) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			task()
		}
	}
}
