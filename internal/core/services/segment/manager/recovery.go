package sm

import (
	"errors"
	"fmt"
	"time"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	segment "github.com/iamNilotpal/raftlog/internal/core/services/segment/service"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
	"go.uber.org/zap"
)

// State is the log state rebuilt from disk.
type State struct {
	Segments *Segments

	// PrevIndex and PrevTerm identify the entry before the first retained one.
	PrevIndex int64
	PrevTerm  int64

	// AppendIndex and CurrentTerm describe the last entry on disk.
	AppendIndex int64
	CurrentTerm int64
}

// RecoveryProtocol rebuilds a log from its directory. It validates the chain
// of segment headers, completes a segment creation that was interrupted
// before its header reached the disk, and cuts off a partially written tail.
// In read-only mode it repairs nothing.
type RecoveryProtocol struct {
	opts   *domain.LogOptions
	names  *FileNames
	logger *zap.SugaredLogger
}

func NewRecoveryProtocol(opts *domain.LogOptions) *RecoveryProtocol {
	return &RecoveryProtocol{
		opts:   opts,
		names:  NewFileNames(opts.FileSystem, opts.Directory, opts.SegmentOptions.SegmentPrefix),
		logger: opts.Logger.Named("recovery"),
	}
}

type recoveredFile struct {
	VersionedFile
	header domain.SegmentHeader
}

// Run recovers the log. onRecord, if not nil, is called for every entry
// replayed from the newest segment, in index order.
func (r *RecoveryProtocol) Run(onRecord func(domain.EntryRecord)) (*State, error) {
	started := time.Now()

	codec, err := segment.NewRecordCodec(r.opts)
	if err != nil {
		return nil, err
	}

	segments := newSegments(r.opts, codec, r.names)
	state, err := r.run(segments, onRecord)
	if err != nil {
		segments.Close()
		return nil, err
	}

	r.opts.Metrics.ObserveRecovery(time.Since(started).Seconds())
	r.opts.Metrics.RecordState(state.AppendIndex, state.PrevIndex)
	r.logger.Infow(
		"log recovered",
		"directory", r.opts.Directory,
		"segments", len(segments.all),
		"prevIndex", state.PrevIndex,
		"appendIndex", state.AppendIndex,
		"currentTerm", state.CurrentTerm,
		"took", time.Since(started),
	)
	return state, nil
}

func (r *RecoveryProtocol) run(segments *Segments, onRecord func(domain.EntryRecord)) (*State, error) {
	state := &State{Segments: segments, PrevIndex: -1, PrevTerm: -1, AppendIndex: -1, CurrentTerm: -1}

	if !r.opts.ReadOnly {
		if err := r.opts.FileSystem.CreateDir(r.opts.Directory, 0755); err != nil {
			return nil, logerrors.NewLogError(logerrors.ErrorStorage, "recover", err)
		}
	}

	files, err := r.names.List()
	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "recover", err)
	}

	if len(files) == 0 {
		if r.opts.ReadOnly {
			r.logger.Warnw("no segment files found", "directory", r.opts.Directory)
			return state, nil
		}

		header := domain.SegmentHeader{PrevFileLastIndex: -1, Version: 0, PrevIndex: -1, PrevTerm: -1}
		seg, err := segments.create(header, causeRecovery)
		if err != nil {
			return nil, err
		}
		segments.add(seg)
		segments.metrics.RecordSegmentCreated(causeRecovery, 1)
		return state, nil
	}

	if err := checkVersions(files); err != nil {
		return nil, err
	}

	recovered, err := r.loadHeaders(segments.codec, files)
	if err != nil {
		return nil, err
	}
	if len(recovered) == 0 {
		return state, nil
	}

	for _, f := range recovered {
		seg, err := segment.Open(&segment.Config{
			Path:    f.Path,
			Version: f.Version,
			Header:  f.header,
			Codec:   segments.codec,
			Options: r.opts,
		})
		if err != nil {
			return nil, err
		}
		segments.add(seg)
	}

	// The oldest file may be an orphan a reader kept alive through a prune;
	// only segments the range map still routes to describe the prefix.
	mapped := false
	for _, seg := range segments.all {
		if _, _, ok := segments.ranges.RangeOf(seg); !ok {
			continue
		}
		header := seg.Header()
		if !mapped || (header.IsSkip() && header.PrevIndex > state.PrevIndex) {
			state.PrevIndex = header.PrevIndex
			state.PrevTerm = header.PrevTerm
			mapped = true
		}
	}

	last := segments.all[len(segments.all)-1]
	appendIndex, term, offset, err := replay(last, onRecord, r.logger)
	if err != nil {
		return nil, err
	}
	state.AppendIndex = appendIndex
	state.CurrentTerm = term

	if !r.opts.ReadOnly {
		if err := last.OpenWriter(offset); err != nil {
			return nil, err
		}
	}

	// Orphans of an earlier truncation are released now and deleted once a
	// prune passes them.
	for _, seg := range segments.unmapped() {
		if err := seg.MarkForDisposal(func() { segments.onDisposed(seg) }); err != nil {
			return nil, err
		}
	}

	segments.metrics.RecordSegments(len(segments.all))
	return state, nil
}

func checkVersions(files []VersionedFile) error {
	for i := 1; i < len(files); i++ {
		if files[i].Version != files[i-1].Version+1 {
			return logerrors.NewLogError(
				logerrors.ErrorRecovery, "recover",
				fmt.Errorf(
					"segment versions not contiguous: %s follows %s : %w",
					files[i].Path, files[i-1].Path, logerrors.ErrDamagedLogStorage,
				),
			)
		}
	}
	return nil
}

// loadHeaders reads every header. A header cut short on the newest file is
// rebuilt from the previous segment; on any other file it is fatal.
func (r *RecoveryProtocol) loadHeaders(codec *segment.RecordCodec, files []VersionedFile) ([]recoveredFile, error) {
	recovered := make([]recoveredFile, 0, len(files))

	for i, f := range files {
		header, err := segment.LoadHeader(r.opts.FileSystem, f.Path)
		isLast := i == len(files)-1

		switch {
		case err == nil:
		case errors.Is(err, logerrors.ErrUnexpectedEndOfStream) && isLast:
			if r.opts.ReadOnly {
				r.logger.Warnw("skipping segment with unreadable header", "path", f.Path)
				return recovered, nil
			}

			header, err = r.repairHeader(codec, recovered, f)
			if err != nil {
				return nil, err
			}
		case errors.Is(err, logerrors.ErrUnexpectedEndOfStream):
			return nil, logerrors.NewLogError(
				logerrors.ErrorRecovery, "recover",
				fmt.Errorf("%s has an incomplete header : %w", f.Path, logerrors.ErrDamagedLogStorage),
			)
		default:
			return nil, logerrors.NewLogError(logerrors.ErrorStorage, "recover", err)
		}

		if header.Version != f.Version {
			return nil, logerrors.NewLogError(
				logerrors.ErrorRecovery, "recover",
				fmt.Errorf(
					"%s holds header version %d : %w", f.Path, header.Version, logerrors.ErrDamagedLogStorage,
				),
			)
		}

		recovered = append(recovered, recoveredFile{VersionedFile: f, header: header})
	}

	return recovered, nil
}

// repairHeader rewrites the header of a segment whose creation was
// interrupted. The segment continues the log where the previous one ends.
func (r *RecoveryProtocol) repairHeader(
	codec *segment.RecordCodec, previous []recoveredFile, f VersionedFile,
) (domain.SegmentHeader, error) {
	header := domain.SegmentHeader{PrevFileLastIndex: -1, Version: f.Version, PrevIndex: -1, PrevTerm: -1}

	if n := len(previous); n > 0 {
		prev, err := segment.Open(&segment.Config{
			Path:    previous[n-1].Path,
			Version: previous[n-1].Version,
			Header:  previous[n-1].header,
			Codec:   codec,
			Options: r.opts,
		})
		if err != nil {
			return header, err
		}

		appendIndex, term, _, err := replay(prev, nil, r.logger)
		prev.Close()
		if err != nil {
			return header, err
		}

		header.PrevFileLastIndex = appendIndex
		header.PrevIndex = appendIndex
		header.PrevTerm = term
	}

	r.logger.Warnw("rewriting incomplete segment header", "path", f.Path, "header", header.String())
	if err := segment.RewriteHeader(r.opts.FileSystem, f.Path, header); err != nil {
		return header, logerrors.NewLogError(logerrors.ErrorStorage, "recover", err)
	}
	return header, nil
}

// replay reads seg to its last readable record. It returns the index and
// term of that record, or the header's when the segment is empty, and the
// byte offset just past it.
func replay(
	seg *segment.SegmentFile, onRecord func(domain.EntryRecord), logger *zap.SugaredLogger,
) (int64, int64, int64, error) {
	header := seg.Header()
	appendIndex, term := header.PrevIndex, header.PrevTerm

	cursor, err := seg.GetReader(header.Start())
	if err != nil {
		return 0, 0, 0, err
	}
	defer cursor.Close()

	for cursor.Next() {
		record := cursor.Record()
		appendIndex = record.Index
		term = record.Entry.Term
		if onRecord != nil {
			onRecord(record)
		}
	}

	if err := cursor.Err(); err != nil {
		logger.Warnw(
			"segment tail is unreadable",
			"path", seg.Path(), "lastIndex", appendIndex, "offset", cursor.Offset(), "error", err,
		)
	}
	return appendIndex, term, cursor.Offset(), nil
}
