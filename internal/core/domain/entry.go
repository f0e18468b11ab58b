package domain

import "fmt"

// Entry is a single replicated log entry as the consensus layer sees it.
// Content is opaque to the log; a ports.ContentMarshal turns it into bytes.
type Entry struct {
	Term    int64
	Content any
}

// EntryRecord is an Entry together with the index it occupies in the log.
type EntryRecord struct {
	Index int64
	Entry Entry
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{term=%d, content=%v}", e.Term, e.Content)
}

func (r EntryRecord) String() string {
	return fmt.Sprintf("%d: %s", r.Index, r.Entry)
}

// RecordHeaderSize is the fixed prefix of every stored record:
// index (8) + term (8) + flags (1) + payload length (4).
const RecordHeaderSize = 21

// RecordChecksumSize is the size of the optional checksum trailer.
const RecordChecksumSize = 8

// RecordFlags describes how a record's payload is stored. The low nibble holds
// the compression codec and the high nibble the checksum algorithm, so a
// record can always be decoded regardless of the current configuration.
type RecordFlags uint8

// NewRecordFlags packs a compression codec and checksum code into one byte.
func NewRecordFlags(compression CompressionCode, checksum ChecksumCode) RecordFlags {
	return RecordFlags(uint8(compression)&0x0f | uint8(checksum)<<4)
}

// Compression returns the codec the payload was compressed with.
func (f RecordFlags) Compression() CompressionCode {
	return CompressionCode(uint8(f) & 0x0f)
}

// Checksum returns the algorithm of the checksum trailer, or ChecksumNone.
func (f RecordFlags) Checksum() ChecksumCode {
	return ChecksumCode(uint8(f) >> 4)
}
