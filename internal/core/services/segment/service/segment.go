package segment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/internal/metrics"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
	"go.uber.org/zap"
)

// SegmentFile is one physical file of the log: a header followed by a run
// of records. It has at most one writer, owned by the log's single writer
// path, and any number of concurrent readers drawn from a pool.
//
// A superseded segment is marked for disposal. It becomes disposed once its
// writer is closed and every reader lease has been returned; only then may
// the file be deleted.
type SegmentFile struct {
	fs      ports.FileSystemPort
	codec   *RecordCodec
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	path      string
	version   int64
	header    domain.SegmentHeader
	positions *positionCache

	// Writer state. Touched only by the single writer.
	file       ports.File
	writer     *bufio.Writer
	bufferSize int
	position   int64

	size atomic.Int64 // Bytes handed to the OS, readable from any goroutine.

	mu                sync.Mutex
	pool              readerPool
	writerClosed      bool
	markedForDisposal bool
	disposed          bool
	onDisposed        func()
}

// Create exclusively creates a segment file and writes its header. It fails
// with ErrSegmentExists if the path is already taken.
func Create(cfg *Config) (*SegmentFile, error) {
	opts := cfg.Options

	file, err := opts.FileSystem.CreateFile(cfg.Path)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%s : %w", cfg.Path, logerrors.ErrSegmentExists)
		}
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "create segment", err)
	}

	s := newSegmentFile(cfg, cfg.Header, 0)
	s.file = file
	s.writer = bufio.NewWriterSize(file, s.bufferSize)

	if err := WriteHeader(s.writer, cfg.Header); err != nil {
		file.Close()
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "create segment", err)
	}
	s.position = domain.SegmentHeaderSize

	if err := s.Flush(true); err != nil {
		file.Close()
		return nil, err
	}

	s.logger.Debugw("segment created", "path", s.path, "header", cfg.Header.String())
	return s, nil
}

// Open wraps an existing segment file whose header was already loaded. The
// segment has no writer until OpenWriter is called.
func Open(cfg *Config) (*SegmentFile, error) {
	file, err := cfg.Options.FileSystem.OpenReadOnly(cfg.Path)
	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "open segment", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "open segment", err)
	}

	s := newSegmentFile(cfg, cfg.Header, stat.Size())
	s.writerClosed = true
	return s, nil
}

// LoadHeader reads the header of the segment file at path.
func LoadHeader(fsys ports.FileSystemPort, path string) (domain.SegmentHeader, error) {
	file, err := fsys.OpenReadOnly(path)
	if err != nil {
		return domain.SegmentHeader{}, fmt.Errorf("failed to open %s : %w", path, err)
	}
	defer file.Close()

	return ReadHeader(file)
}

// RewriteHeader replaces the content of the file at path with a header alone.
// Used by recovery to complete an interrupted segment creation.
func RewriteHeader(fsys ports.FileSystemPort, path string, header domain.SegmentHeader) error {
	file, err := fsys.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open %s : %w", path, err)
	}
	defer file.Close()

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate %s : %w", path, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := WriteHeader(file, header); err != nil {
		return err
	}
	return file.Sync()
}

func newSegmentFile(cfg *Config, header domain.SegmentHeader, size int64) *SegmentFile {
	opts := cfg.Options
	logger := opts.Logger.With("segment", cfg.Version)

	s := &SegmentFile{
		fs:         opts.FileSystem,
		codec:      cfg.Codec,
		logger:     logger,
		metrics:    opts.Metrics,
		path:       cfg.Path,
		version:    cfg.Version,
		header:     header,
		bufferSize: int(opts.BufferSize),
		positions:  newPositionCache(header.Start(), domain.SegmentHeaderSize, opts.SegmentOptions.PositionCacheStride),
		pool: readerPool{
			fs:      opts.FileSystem,
			path:    cfg.Path,
			maxIdle: opts.SegmentOptions.ReaderPoolSize,
			logger:  logger,
			metrics: opts.Metrics,
		},
	}
	s.size.Store(size)
	return s
}

// Returns the segment version.
func (s *SegmentFile) Version() int64 {
	return s.version
}

// Returns the immutable header.
func (s *SegmentFile) Header() domain.SegmentHeader {
	return s.header
}

// Returns the file path.
func (s *SegmentFile) Path() string {
	return s.path
}

// OpenWriter reopens the file for appending at size, discarding anything
// beyond it. Recovery calls this on the newest segment with the offset just
// past the last fully readable record.
func (s *SegmentFile) OpenWriter(size int64) error {
	if s.writer != nil {
		return fmt.Errorf("segment %d already has a writer : %w", s.version, logerrors.ErrIllegalState)
	}

	file, err := s.fs.OpenFile(s.path)
	if err != nil {
		return logerrors.NewLogError(logerrors.ErrorStorage, "open writer", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return logerrors.NewLogError(logerrors.ErrorStorage, "open writer", err)
	}

	if stat.Size() > size {
		s.logger.Warnw("discarding unreadable segment tail", "path", s.path, "from", size, "bytes", stat.Size()-size)
		if err := file.Truncate(size); err != nil {
			file.Close()
			return logerrors.NewLogError(logerrors.ErrorStorage, "open writer", err)
		}
		if err := file.Sync(); err != nil {
			file.Close()
			return logerrors.NewLogError(logerrors.ErrorStorage, "open writer", err)
		}
	}

	if _, err := file.Seek(size, io.SeekStart); err != nil {
		file.Close()
		return logerrors.NewLogError(logerrors.ErrorStorage, "open writer", err)
	}

	s.mu.Lock()
	s.writerClosed = false
	s.mu.Unlock()

	s.file = file
	s.writer = bufio.NewWriterSize(file, s.bufferSize)
	s.position = size
	s.size.Store(size)
	return nil
}

// Write appends one record to the writer's buffer. Call Flush to hand it to
// the OS.
func (s *SegmentFile) Write(index int64, entry domain.Entry) (int64, error) {
	if s.writer == nil {
		return 0, fmt.Errorf("segment %d : %w", s.version, logerrors.ErrWriterClosed)
	}

	if s.positions.wants(index) {
		s.positions.put(index, s.position)
	}

	n, err := s.codec.Encode(s.writer, index, entry)
	s.position += n
	if err != nil {
		return n, err
	}
	return n, nil
}

// Flush pushes buffered records to the OS and fsyncs when sync is true.
func (s *SegmentFile) Flush(sync bool) error {
	if s.writer == nil {
		return nil
	}

	if err := s.writer.Flush(); err != nil {
		return logerrors.NewLogError(logerrors.ErrorStorage, "flush", err)
	}
	s.size.Store(s.position)

	if sync {
		if err := s.file.Sync(); err != nil {
			return logerrors.NewLogError(logerrors.ErrorStorage, "sync", err)
		}
	}
	return nil
}

// Position returns the writer's byte offset, header included.
func (s *SegmentFile) Position() int64 {
	return s.position
}

// Size returns the number of bytes visible to readers.
func (s *SegmentFile) Size() int64 {
	return s.size.Load()
}

// CloseWriter flushes, syncs and releases the writer. Calling it again is a no-op.
func (s *SegmentFile) CloseWriter() error {
	var err error
	if s.writer != nil {
		err = s.Flush(true)
		if cerr := s.file.Close(); cerr != nil && err == nil {
			err = logerrors.NewLogError(logerrors.ErrorStorage, "close writer", cerr)
		}
		s.writer = nil
		s.file = nil
	}

	s.mu.Lock()
	s.writerClosed = true
	fire := s.tryDisposeLocked()
	s.mu.Unlock()

	s.fireDisposal(fire)
	return err
}

// GetReader returns a cursor positioned at fromIndex, which must be greater
// than the header's PrevIndex. It fails with ErrSegmentDisposed once the
// segment is disposed.
func (s *SegmentFile) GetReader(fromIndex int64) (*RecordCursor, error) {
	if fromIndex <= s.header.PrevIndex {
		return nil, fmt.Errorf(
			"segment %d starts after %d, cannot read from %d : %w",
			s.version, s.header.PrevIndex, fromIndex, logerrors.ErrInvalidArgument,
		)
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, logerrors.NewLogError(
			logerrors.ErrorDisposal, "get reader", fmt.Errorf("segment %d : %w", s.version, logerrors.ErrSegmentDisposed),
		)
	}
	r, err := s.pool.acquire()
	s.mu.Unlock()

	if err != nil {
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "get reader", err)
	}

	start := s.positions.lookup(fromIndex)
	if err := r.seek(start.offset); err != nil {
		s.release(r)
		return nil, logerrors.NewLogError(logerrors.ErrorStorage, "get reader", err)
	}

	return &RecordCursor{
		segment: s,
		reader:  r,
		from:    fromIndex,
		next:    start.index,
		offset:  start.offset,
	}, nil
}

func (s *SegmentFile) release(r *reader) {
	s.mu.Lock()
	s.pool.release(r)
	fire := s.tryDisposeLocked()
	s.mu.Unlock()

	s.fireDisposal(fire)
}

// MarkForDisposal registers onDisposed to run once the writer is closed and
// all readers are returned. It may run before MarkForDisposal returns.
// Marking a segment twice returns ErrAlreadyMarked.
func (s *SegmentFile) MarkForDisposal(onDisposed func()) error {
	s.mu.Lock()
	if s.markedForDisposal {
		s.mu.Unlock()
		return fmt.Errorf("segment %d : %w", s.version, logerrors.ErrAlreadyMarked)
	}
	s.markedForDisposal = true
	s.onDisposed = onDisposed
	fire := s.tryDisposeLocked()
	s.mu.Unlock()

	s.fireDisposal(fire)
	return nil
}

// tryDisposeLocked flips the segment to disposed when nothing holds it any
// more. It returns true exactly once.
func (s *SegmentFile) tryDisposeLocked() bool {
	if !s.markedForDisposal || s.disposed || !s.writerClosed || s.pool.leases > 0 {
		return false
	}
	s.disposed = true
	s.pool.close()
	return true
}

func (s *SegmentFile) fireDisposal(fire bool) {
	if !fire {
		return
	}
	s.logger.Debugw("segment disposed", "path", s.path)
	s.metrics.RecordDisposed()
	if s.onDisposed != nil {
		s.onDisposed()
	}
}

// IsMarkedForDisposal reports whether disposal was requested.
func (s *SegmentFile) IsMarkedForDisposal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markedForDisposal
}

// IsDisposed reports whether the segment was released by its writer and all readers.
func (s *SegmentFile) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Delete removes the file. Only legal once the segment is disposed.
func (s *SegmentFile) Delete() error {
	if !s.IsDisposed() {
		return fmt.Errorf("segment %d is still in use : %w", s.version, logerrors.ErrIllegalState)
	}
	if err := s.fs.DeleteFile(s.path); err != nil {
		return logerrors.NewLogError(logerrors.ErrorStorage, "delete segment", err)
	}
	s.logger.Infow("segment deleted", "path", s.path)
	return nil
}

// PruneReaders closes idle read handles unused for longer than maxAge.
func (s *SegmentFile) PruneReaders(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.prune(maxAge)
}

// Close releases the writer and idle readers at shutdown. Readers still
// leased are closed as they are returned.
func (s *SegmentFile) Close() error {
	err := s.CloseWriter()

	s.mu.Lock()
	s.pool.close()
	s.mu.Unlock()

	return err
}

// Info returns a snapshot of the segment's state.
func (s *SegmentFile) Info() SegmentInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SegmentInfo{
		Version:           s.version,
		Header:            s.header,
		Path:              s.path,
		Size:              s.size.Load(),
		Leases:            s.pool.leases,
		Idle:              len(s.pool.idle),
		Writable:          !s.writerClosed,
		MarkedForDisposal: s.markedForDisposal,
		Disposed:          s.disposed,
	}
}

func (s *SegmentFile) String() string {
	return fmt.Sprintf("SegmentFile{path=%s, header=%s}", s.path, s.header)
}
