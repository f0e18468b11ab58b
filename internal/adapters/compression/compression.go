// Package compression provides the payload codecs a record may be stored with.
package compression

import (
	"fmt"
	"runtime"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
)

const (
	Zstd   domain.CompressionAlgorithm = "zstd"
	LZ4    domain.CompressionAlgorithm = "lz4"
	Snappy domain.CompressionAlgorithm = "snappy"
)

// minCompressSize is the payload size below which compression is skipped.
const minCompressSize = 64

var codes = map[domain.CompressionAlgorithm]domain.CompressionCode{
	Zstd:   domain.CompressionZstd,
	LZ4:    domain.CompressionLZ4,
	Snappy: domain.CompressionSnappy,
}

// Returns CompressionOptions struct initialized with
// recommended default values that provide a good balance between compression ratio
// and performance for most use cases.
func DefaultOptions() *domain.CompressionOptions {
	return &domain.CompressionOptions{
		Enable:             false,
		Algorithm:          Zstd,
		Level:              DefaultLevel,
		EncoderConcurrency: uint8(runtime.NumCPU()),
		DecoderConcurrency: uint8(runtime.NumCPU()),
	}
}

// Checks if the compression options are valid and returns an error if any option
// is outside acceptable bounds.
func Validate(input *domain.CompressionOptions) error {
	if _, ok := codes[input.Algorithm]; !ok {
		return fmt.Errorf("unsupported compression algorithm: %s", input.Algorithm)
	}

	if input.Algorithm != Zstd {
		return nil
	}

	if input.Level < FastestLevel || input.Level > BestLevel {
		return fmt.Errorf("compression level must be between %d and %d, got %d", FastestLevel, BestLevel, input.Level)
	}

	if input.EncoderConcurrency > uint8(runtime.NumCPU()) {
		return fmt.Errorf(
			"encoder concurrency must be between 0 and %d, got %d", runtime.NumCPU(), input.EncoderConcurrency,
		)
	}

	if input.DecoderConcurrency > uint8(runtime.NumCPU()) {
		return fmt.Errorf(
			"decoder concurrency must be between 0 and %d, got %d", runtime.NumCPU(), input.DecoderConcurrency,
		)
	}

	return nil
}

// CodeOf returns the on-disk code of an algorithm.
func CodeOf(algorithm domain.CompressionAlgorithm) (domain.CompressionCode, error) {
	code, ok := codes[algorithm]
	if !ok {
		return domain.CompressionNone, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}
	return code, nil
}

// ForCode builds the codec stored under an on-disk code. Options only affect
// zstd; records written with zstd under another configuration use the defaults.
func ForCode(code domain.CompressionCode, opts *domain.CompressionOptions) (ports.CompressionPort, error) {
	switch code {
	case domain.CompressionZstd:
		if opts == nil || opts.Algorithm != Zstd {
			opts = DefaultOptions()
		}
		return NewZstdCompression(opts)
	case domain.CompressionLZ4:
		return NewLZ4Compression(), nil
	case domain.CompressionSnappy:
		return NewSnappyCompression(), nil
	default:
		return nil, fmt.Errorf("unknown compression code: %d", code)
	}
}
