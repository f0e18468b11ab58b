package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
)

// MarshalHeader encodes h into its fixed 32-byte big-endian layout.
func MarshalHeader(h domain.SegmentHeader) []byte {
	buf := make([]byte, domain.SegmentHeaderSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(h.PrevFileLastIndex))
	binary.BigEndian.PutUint64(buf[8:16], uint64(h.Version))
	binary.BigEndian.PutUint64(buf[16:24], uint64(h.PrevIndex))
	binary.BigEndian.PutUint64(buf[24:32], uint64(h.PrevTerm))
	return buf
}

// UnmarshalHeader decodes a header produced by MarshalHeader.
func UnmarshalHeader(buf []byte) (domain.SegmentHeader, error) {
	if len(buf) < domain.SegmentHeaderSize {
		return domain.SegmentHeader{}, fmt.Errorf(
			"header needs %d bytes, got %d : %w", domain.SegmentHeaderSize, len(buf), logerrors.ErrUnexpectedEndOfStream,
		)
	}

	return domain.SegmentHeader{
		PrevFileLastIndex: int64(binary.BigEndian.Uint64(buf[0:8])),
		Version:           int64(binary.BigEndian.Uint64(buf[8:16])),
		PrevIndex:         int64(binary.BigEndian.Uint64(buf[16:24])),
		PrevTerm:          int64(binary.BigEndian.Uint64(buf[24:32])),
	}, nil
}

// WriteHeader writes h in full to w.
func WriteHeader(w io.Writer, h domain.SegmentHeader) error {
	if _, err := w.Write(MarshalHeader(h)); err != nil {
		return fmt.Errorf("failed to write segment header : %w", err)
	}
	return nil
}

// ReadHeader reads a header from r. An empty or short read returns an error
// wrapping ErrUnexpectedEndOfStream so recovery can tell an interrupted
// header write apart from an I/O failure.
func ReadHeader(r io.Reader) (domain.SegmentHeader, error) {
	buf := make([]byte, domain.SegmentHeaderSize)
	if n, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return domain.SegmentHeader{}, fmt.Errorf(
				"segment header truncated after %d bytes : %w", n, logerrors.ErrUnexpectedEndOfStream,
			)
		}
		return domain.SegmentHeader{}, fmt.Errorf("failed to read segment header : %w", err)
	}
	return UnmarshalHeader(buf)
}
