package ports

// ChecksumPort calculates and verifies integrity checksums over record bytes.
// Every algorithm reports its value widened to 64 bits so records can store
// a fixed-size trailer regardless of the algorithm in use.
type ChecksumPort interface {
	// Calculate returns the checksum of data.
	Calculate(data []byte) uint64

	// Verify reports whether data matches the expected checksum.
	Verify(data []byte, expected uint64) bool

	// Size returns the natural size of the checksum in bytes.
	Size() uint8

	// Name returns the algorithm name.
	Name() string
}
