package domain

// ChecksumAlgorithm represents supported checksum algorithms
type ChecksumAlgorithm string

// ChecksumCode is the on-disk identifier of a checksum algorithm.
type ChecksumCode uint8

const (
	ChecksumNone ChecksumCode = iota
	ChecksumCRC32IEEE
	ChecksumCRC64ISO
	ChecksumCRC64ECMA
	ChecksumSHA1
	ChecksumSHA256
)

// ChecksumOptions defines configuration for record checksums.
type ChecksumOptions struct {
	// Enable controls whether new records carry a checksum trailer.
	// Records written without one are still readable after enabling it.
	//
	// Default: true
	Enable bool

	// Algorithm specifies which checksum algorithm to use.
	// Defaults to CRC32IEEE if not specified.
	Algorithm ChecksumAlgorithm

	// VerifyOnRead determines if checksums should be verified during read operations.
	// A mismatch ends recovery replay of the newest segment at that record and
	// fails cursors reading older segments.
	//
	// Default: true
	VerifyOnRead bool
}
