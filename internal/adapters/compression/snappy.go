package compression

import (
	"fmt"

	snappy "github.com/segmentio/kafka-go/compress/snappy/go-xerial-snappy"
)

// SnappyCompression implements CompressionPort with xerial-framed snappy.
type SnappyCompression struct{}

func NewSnappyCompression() *SnappyCompression {
	return &SnappyCompression{}
}

// Compress returns the original data when it is small or does not shrink.
func (s *SnappyCompression) Compress(data []byte) ([]byte, error) {
	if len(data) < minCompressSize {
		return data, nil
	}

	encoded := snappy.Encode(data)
	if len(encoded) < len(data) {
		return encoded, nil
	}
	return data, nil
}

func (s *SnappyCompression) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	return out, nil
}

// Level is always 0; the codec has no levels.
func (s *SnappyCompression) Level() uint8 {
	return 0
}

func (s *SnappyCompression) Close() error {
	return nil
}
