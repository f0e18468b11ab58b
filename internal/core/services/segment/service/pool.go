package segment

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/internal/metrics"
	"go.uber.org/zap"
)

const readerBufferSize = 32 * 1024

// reader is a pooled read-only handle on a segment file.
type reader struct {
	file     ports.File
	buf      *bufio.Reader
	lastUsed time.Time
}

func (r *reader) seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek reader : %w", err)
	}
	r.buf.Reset(r.file)
	return nil
}

func (r *reader) Read(p []byte) (int, error) {
	return r.buf.Read(p)
}

// readerPool hands out read handles and counts outstanding leases. It is
// not synchronized itself; SegmentFile guards it with its mutex so that
// lease counts and disposal decisions change together.
type readerPool struct {
	fs      ports.FileSystemPort
	path    string
	maxIdle int
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	idle   []*reader
	leases int
	closed bool
}

func (p *readerPool) acquire() (*reader, error) {
	if n := len(p.idle); n > 0 {
		r := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.leases++
		return r, nil
	}

	file, err := p.fs.OpenReadOnly(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reader on %s : %w", p.path, err)
	}
	adviseSequential(file, p.logger)
	p.metrics.ReaderOpened()

	p.leases++
	return &reader{file: file, buf: bufio.NewReaderSize(file, readerBufferSize)}, nil
}

func (p *readerPool) release(r *reader) {
	p.leases--

	if p.closed || len(p.idle) >= p.maxIdle {
		p.closeReader(r)
		return
	}

	r.lastUsed = time.Now()
	p.idle = append(p.idle, r)
}

// prune closes idle handles unused for longer than maxAge and returns how
// many were closed.
func (p *readerPool) prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	kept := p.idle[:0]
	closed := 0

	for _, r := range p.idle {
		if r.lastUsed.Before(cutoff) {
			p.closeReader(r)
			closed++
			continue
		}
		kept = append(kept, r)
	}

	for i := len(kept); i < len(p.idle); i++ {
		p.idle[i] = nil
	}
	p.idle = kept
	return closed
}

// close closes every idle handle and makes future releases close theirs.
func (p *readerPool) close() {
	p.closed = true
	for _, r := range p.idle {
		p.closeReader(r)
	}
	p.idle = nil
}

func (p *readerPool) closeReader(r *reader) {
	if err := r.file.Close(); err != nil {
		p.logger.Warnw("failed to close reader", "path", p.path, "error", err)
	}
	p.metrics.ReaderClosed()
}
