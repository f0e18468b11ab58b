package compression

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/klauspost/compress/zstd"
)

// Zstd levels as exposed in configuration. They map onto zstd.EncoderLevel.
const (
	FastestLevel uint8 = 1
	DefaultLevel uint8 = 3
	BestLevel    uint8 = 4
)

// ZstdCompression compresses payloads with zstd. EncodeAll and DecodeAll are
// safe for concurrent use, so one instance serves every segment of a log.
type ZstdCompression struct {
	level   uint8
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	closed  atomic.Bool
}

// NewZstdCompression validates opts and builds the encoder and decoder pair.
// Zero concurrency means one worker per CPU.
func NewZstdCompression(opts *domain.CompressionOptions) (*ZstdCompression, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}

	encoders, decoders := int(opts.EncoderConcurrency), int(opts.DecoderConcurrency)
	if encoders == 0 {
		encoders = runtime.NumCPU()
	}
	if decoders == 0 {
		decoders = runtime.NumCPU()
	}

	encoder, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.EncoderLevel(opts.Level)),
		zstd.WithEncoderConcurrency(encoders),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder : %w", err)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(decoders))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder : %w", err)
	}

	return &ZstdCompression{level: opts.Level, encoder: encoder, decoder: decoder}, nil
}

// Compress returns data unchanged when it is too small to be worth it or
// does not shrink; the record codec then stores it uncompressed.
func (z *ZstdCompression) Compress(data []byte) ([]byte, error) {
	if z.closed.Load() {
		return nil, fmt.Errorf("zstd compressor is closed")
	}
	if len(data) < minCompressSize {
		return data, nil
	}

	if compressed := z.encoder.EncodeAll(data, nil); len(compressed) < len(data) {
		return compressed, nil
	}
	return data, nil
}

func (z *ZstdCompression) Decompress(data []byte) ([]byte, error) {
	if z.closed.Load() {
		return nil, fmt.Errorf("zstd decompressor is closed")
	}

	out, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed : %w", err)
	}
	return out, nil
}

func (z *ZstdCompression) Level() uint8 {
	return z.level
}

// Close releases the encoder and decoder. Later calls are no-ops.
func (z *ZstdCompression) Close() error {
	if !z.closed.CompareAndSwap(false, true) {
		return nil
	}

	z.decoder.Close()
	if err := z.encoder.Close(); err != nil {
		return fmt.Errorf("error closing zstd encoder : %w", err)
	}
	return nil
}
