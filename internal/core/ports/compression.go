package ports

// CompressionPort compresses record payloads. Records carry the code of the
// codec that wrote them, so a log can decode segments written under an
// earlier configuration.
type CompressionPort interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)

	// Level reports the configured level, 0 for codecs without levels.
	Level() uint8

	Close() error
}
