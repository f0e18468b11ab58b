package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compression implements CompressionPort with lz4 frames.
type LZ4Compression struct{}

func NewLZ4Compression() *LZ4Compression {
	return &LZ4Compression{}
}

// Compress returns the original data when it is small or does not shrink.
func (l *LZ4Compression) Compress(data []byte) ([]byte, error) {
	if len(data) < minCompressSize {
		return data, nil
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	if buf.Len() < len(data) {
		return buf.Bytes(), nil
	}
	return data, nil
}

func (l *LZ4Compression) Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	return out, nil
}

// Level is always 0; the codec has no levels.
func (l *LZ4Compression) Level() uint8 {
	return 0
}

func (l *LZ4Compression) Close() error {
	return nil
}
