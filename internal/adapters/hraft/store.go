// Package hraft lets hashicorp/raft keep its log in a SegmentedLog.
//
// Raft numbers entries from 1 while the segmented log starts at 0, so raft
// index i is stored at log index i-1.
package hraft

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/raft"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/internal/core/services/raftlog"
	"github.com/iamNilotpal/raftlog/internal/serialize"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
)

// Record is the content stored for each raft log entry. Index and term live
// in the record header.
type Record struct {
	Type       raft.LogType `json:"type"`
	Data       []byte       `json:"data,omitempty"`
	Extensions []byte       `json:"extensions,omitempty"`
	AppendedAt time.Time    `json:"appendedAt"`
}

// Marshal returns the content marshal a log used by LogStore must be opened with.
func Marshal() ports.ContentMarshal {
	return serialize.NewJSONMarshal[Record]()
}

// LogStore implements raft.LogStore.
type LogStore struct {
	log *raftlog.SegmentedLog
}

var _ raft.LogStore = (*LogStore)(nil)

func NewLogStore(log *raftlog.SegmentedLog) *LogStore {
	return &LogStore{log: log}
}

func toRaft(index int64) uint64 {
	return uint64(index + 1)
}

func fromRaft(index uint64) int64 {
	return int64(index) - 1
}

// FirstIndex returns the first raft index held, or 0 for an empty log.
func (s *LogStore) FirstIndex() (uint64, error) {
	prev, last := s.log.PrevIndex(), s.log.AppendIndex()
	if last <= prev {
		return 0, nil
	}
	return toRaft(prev + 1), nil
}

// LastIndex returns the last raft index written, or 0 for an empty log.
func (s *LogStore) LastIndex() (uint64, error) {
	return toRaft(s.log.AppendIndex()), nil
}

// GetLog reads the entry at a raft index.
func (s *LogStore) GetLog(index uint64, out *raft.Log) error {
	entry, err := s.log.Entry(fromRaft(index))
	if err != nil {
		if errors.Is(err, logerrors.ErrLogCompacted) || errors.Is(err, logerrors.ErrInvalidArgument) {
			return raft.ErrLogNotFound
		}
		return err
	}

	record, ok := entry.Content.(Record)
	if !ok {
		return fmt.Errorf("entry %d holds %T, not a raft record : %w", index, entry.Content, logerrors.ErrCorruptRecord)
	}

	*out = raft.Log{
		Index:      index,
		Term:       uint64(entry.Term),
		Type:       record.Type,
		Data:       record.Data,
		Extensions: record.Extensions,
		AppendedAt: record.AppendedAt,
	}
	return nil
}

func (s *LogStore) StoreLog(log *raft.Log) error {
	return s.StoreLogs([]*raft.Log{log})
}

// StoreLogs appends consecutive logs. Logs overlapping the tail replace it;
// logs starting past the tail move the log forward first.
func (s *LogStore) StoreLogs(logs []*raft.Log) error {
	if len(logs) == 0 {
		return nil
	}

	first := fromRaft(logs[0].Index)
	last := s.log.AppendIndex()

	switch {
	case first <= s.log.PrevIndex():
		return fmt.Errorf(
			"raft index %d is already compacted : %w", logs[0].Index, logerrors.ErrLogCompacted,
		)
	case first <= last:
		if err := s.log.Truncate(first); err != nil {
			return err
		}
	case first > last+1:
		if _, err := s.log.Skip(first-1, int64(logs[0].Term)); err != nil {
			return err
		}
	}

	entries := make([]domain.Entry, len(logs))
	for i, l := range logs {
		if fromRaft(l.Index) != first+int64(i) {
			return fmt.Errorf("raft logs are not consecutive at %d : %w", l.Index, logerrors.ErrInvalidArgument)
		}
		entries[i] = domain.Entry{
			Term: int64(l.Term),
			Content: Record{
				Type:       l.Type,
				Data:       l.Data,
				Extensions: l.Extensions,
				AppendedAt: l.AppendedAt,
			},
		}
	}

	_, err := s.log.Append(entries...)
	return err
}

// DeleteRange removes raft indexes [from, to]. Raft deletes either a suffix
// after a conflict or a prefix after a snapshot.
func (s *LogStore) DeleteRange(from, to uint64) error {
	lo, hi := fromRaft(from), fromRaft(to)
	prev, last := s.log.PrevIndex(), s.log.AppendIndex()

	if hi >= last {
		lo = max(lo, prev+1)
		if lo > last {
			return nil
		}
		return s.log.Truncate(lo)
	}

	_, err := s.log.Prune(hi)
	return err
}
