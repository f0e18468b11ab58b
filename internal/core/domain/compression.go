package domain

// CompressionAlgorithm names a payload codec.
type CompressionAlgorithm string

// CompressionCode is the on-disk identifier of a payload codec.
type CompressionCode uint8

const (
	CompressionNone CompressionCode = iota
	CompressionZstd
	CompressionLZ4
	CompressionSnappy
)

// CompressionOptions configures how entry payloads are compressed before they
// are written. Payloads that do not shrink are stored as-is.
type CompressionOptions struct {
	// Enable toggles compression of new records.
	Enable bool

	// Algorithm selects the codec: "zstd", "lz4" or "snappy".
	// Default: zstd
	Algorithm CompressionAlgorithm

	// Level defines the compression level for zstd when compression is enabled.
	// Supported levels:
	//   - 1: Fastest compression
	//   - 3: Default balanced compression
	//   - 4: Best compression regardless of CPU cost
	// Ignored by lz4 and snappy.
	Level uint8

	// EncoderConcurrency specifies the number of concurrent zstd encoders.
	// Default is number of CPU cores if set to 0.
	EncoderConcurrency uint8

	// DecoderConcurrency specifies the number of concurrent zstd decoders.
	// Default is number of CPU cores if set to 0.
	DecoderConcurrency uint8
}
