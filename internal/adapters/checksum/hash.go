package checksum

import (
	"encoding/binary"
	"hash"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
)

// crcChecksum wraps a table-driven CRC.
type crcChecksum struct {
	name string
	size uint8
	sum  func([]byte) uint64
}

func newCRC(algorithm domain.ChecksumAlgorithm, size int, sum func([]byte) uint64) *crcChecksum {
	return &crcChecksum{name: string(algorithm), size: uint8(size), sum: sum}
}

func (c *crcChecksum) Calculate(data []byte) uint64 {
	return c.sum(data)
}

func (c *crcChecksum) Verify(data []byte, expected uint64) bool {
	return c.sum(data) == expected
}

func (c *crcChecksum) Size() uint8 {
	return c.size
}

func (c *crcChecksum) Name() string {
	return c.name
}

// digestChecksum keeps the first 8 bytes of a cryptographic digest.
type digestChecksum struct {
	name    string
	size    uint8
	newHash func() hash.Hash
}

func newDigest(algorithm domain.ChecksumAlgorithm, size int, newHash func() hash.Hash) *digestChecksum {
	return &digestChecksum{name: string(algorithm), size: uint8(size), newHash: newHash}
}

func (d *digestChecksum) Calculate(data []byte) uint64 {
	h := d.newHash()
	h.Write(data)
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

func (d *digestChecksum) Verify(data []byte, expected uint64) bool {
	return d.Calculate(data) == expected
}

func (d *digestChecksum) Size() uint8 {
	return d.size
}

func (d *digestChecksum) Name() string {
	return d.name
}
