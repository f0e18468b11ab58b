package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/iamNilotpal/raftlog/internal/adapters/checksum"
	"github.com/iamNilotpal/raftlog/internal/adapters/compression"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/domain/config"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
	"github.com/iamNilotpal/raftlog/pkg/pool"
)

// RecordCodec encodes entries into the record layout
//
//	[index i64][term i64][flags u8][length u32][payload][checksum u64]?
//
// and decodes them back. Decoding honours the codec and checksum named by
// each record's flags, not the current configuration.
type RecordCodec struct {
	marshal      ports.ContentMarshal
	maxPayload   uint32
	compression  domain.CompressionCode
	checksum     domain.ChecksumCode
	verifyOnRead bool
	buffers      *pool.BufferPool

	compressionOpts *domain.CompressionOptions

	mu          sync.Mutex
	compressors map[domain.CompressionCode]ports.CompressionPort
	checksums   map[domain.ChecksumCode]ports.ChecksumPort
}

// NewRecordCodec builds a codec from the log options.
func NewRecordCodec(opts *domain.LogOptions) (*RecordCodec, error) {
	if opts.Marshal == nil {
		return nil, logerrors.NewValidationError("marshal", nil, fmt.Errorf("content marshal is required"))
	}

	c := &RecordCodec{
		marshal:         opts.Marshal,
		maxPayload:      config.DefaultPayloadSize,
		buffers:         pool.NewBufferPool(int(opts.BufferSize)),
		compressionOpts: opts.CompressionOptions,
		compressors:     make(map[domain.CompressionCode]ports.CompressionPort),
		checksums:       make(map[domain.ChecksumCode]ports.ChecksumPort),
	}

	if opts.Payload != nil {
		c.maxPayload = opts.Payload.MaxSize
	}

	if opts.CompressionOptions != nil && opts.CompressionOptions.Enable {
		code, err := compression.CodeOf(opts.CompressionOptions.Algorithm)
		if err != nil {
			return nil, err
		}
		if _, err := c.compressor(code); err != nil {
			return nil, err
		}
		c.compression = code
	}

	if opts.ChecksumOptions != nil {
		c.verifyOnRead = opts.ChecksumOptions.VerifyOnRead
		if opts.ChecksumOptions.Enable {
			code, err := checksum.CodeOf(opts.ChecksumOptions.Algorithm)
			if err != nil {
				return nil, err
			}
			c.checksum = code
		}
	}

	return c, nil
}

// Encode writes one record to w and returns the number of bytes written.
func (c *RecordCodec) Encode(w io.Writer, index int64, entry domain.Entry) (int64, error) {
	payload, err := c.marshal.Marshal(entry.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal entry %d : %v : %w", index, err, logerrors.ErrInvalidArgument)
	}

	compressionCode := domain.CompressionNone
	if c.compression != domain.CompressionNone {
		codec, err := c.compressor(c.compression)
		if err != nil {
			return 0, err
		}
		compressed, err := codec.Compress(payload)
		if err != nil {
			return 0, logerrors.NewLogError(logerrors.ErrorCompression, "encode", err)
		}
		if len(compressed) < len(payload) {
			payload = compressed
			compressionCode = c.compression
		}
	}

	if uint32(len(payload)) > c.maxPayload || len(payload) > config.MaxPayloadSize {
		return 0, fmt.Errorf(
			"payload of %d bytes exceeds limit of %d : %w", len(payload), c.maxPayload, logerrors.ErrInvalidArgument,
		)
	}

	buf := c.buffers.Get(domain.RecordHeaderSize + len(payload) + domain.RecordChecksumSize)
	defer c.buffers.Put(buf)

	var header [domain.RecordHeaderSize]byte
	binary.BigEndian.PutUint64(header[0:8], uint64(index))
	binary.BigEndian.PutUint64(header[8:16], uint64(entry.Term))
	header[16] = byte(domain.NewRecordFlags(compressionCode, c.checksum))
	binary.BigEndian.PutUint32(header[17:21], uint32(len(payload)))

	buf.Write(header[:])
	buf.Write(payload)

	if c.checksum != domain.ChecksumNone {
		sum, err := c.checksummer(c.checksum)
		if err != nil {
			return 0, err
		}
		var trailer [domain.RecordChecksumSize]byte
		binary.BigEndian.PutUint64(trailer[:], sum.Calculate(buf.Bytes()))
		buf.Write(trailer[:])
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("failed to write record %d : %w", index, err)
	}
	return int64(n), nil
}

// Decode reads one record from r and returns it with its size in bytes.
//
// Errors:
//   - io.EOF when r is exhausted exactly at a record boundary.
//   - io.ErrUnexpectedEOF when the record is cut short.
//   - an error wrapping ErrCorruptRecord when the record fails validation.
func (c *RecordCodec) Decode(r io.Reader) (domain.EntryRecord, int64, error) {
	var header [domain.RecordHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return domain.EntryRecord{}, 0, err
	}

	index := int64(binary.BigEndian.Uint64(header[0:8]))
	term := int64(binary.BigEndian.Uint64(header[8:16]))
	flags := domain.RecordFlags(header[16])
	length := binary.BigEndian.Uint32(header[17:21])

	if length > config.MaxPayloadSize {
		return domain.EntryRecord{}, 0, fmt.Errorf(
			"record %d claims %d payload bytes : %w", index, length, logerrors.ErrCorruptRecord,
		)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return domain.EntryRecord{}, 0, unexpected(err)
	}
	size := int64(domain.RecordHeaderSize) + int64(length)

	if code := flags.Checksum(); code != domain.ChecksumNone {
		var trailer [domain.RecordChecksumSize]byte
		if _, err := io.ReadFull(r, trailer[:]); err != nil {
			return domain.EntryRecord{}, 0, unexpected(err)
		}
		size += domain.RecordChecksumSize

		if c.verifyOnRead {
			sum, err := c.checksummer(code)
			if err != nil {
				return domain.EntryRecord{}, 0, fmt.Errorf("record %d : %v : %w", index, err, logerrors.ErrCorruptRecord)
			}
			data := make([]byte, 0, domain.RecordHeaderSize+len(payload))
			data = append(append(data, header[:]...), payload...)
			if !sum.Verify(data, binary.BigEndian.Uint64(trailer[:])) {
				return domain.EntryRecord{}, 0, fmt.Errorf(
					"record %d failed %s verification : %w", index, sum.Name(), logerrors.ErrCorruptRecord,
				)
			}
		}
	}

	if code := flags.Compression(); code != domain.CompressionNone {
		codec, err := c.compressor(code)
		if err != nil {
			return domain.EntryRecord{}, 0, fmt.Errorf("record %d : %v : %w", index, err, logerrors.ErrCorruptRecord)
		}
		if payload, err = codec.Decompress(payload); err != nil {
			return domain.EntryRecord{}, 0, fmt.Errorf("record %d : %v : %w", index, err, logerrors.ErrCorruptRecord)
		}
	}

	content, err := c.marshal.Unmarshal(payload)
	if err != nil {
		return domain.EntryRecord{}, 0, fmt.Errorf("record %d : %v : %w", index, err, logerrors.ErrCorruptRecord)
	}

	return domain.EntryRecord{Index: index, Entry: domain.Entry{Term: term, Content: content}}, size, nil
}

// Close releases the compression codecs.
func (c *RecordCodec) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for code, codec := range c.compressors {
		if err := codec.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.compressors, code)
	}
	return errors.Join(errs...)
}

func (c *RecordCodec) compressor(code domain.CompressionCode) (ports.CompressionPort, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if codec, ok := c.compressors[code]; ok {
		return codec, nil
	}

	codec, err := compression.ForCode(code, c.compressionOpts)
	if err != nil {
		return nil, err
	}
	c.compressors[code] = codec
	return codec, nil
}

func (c *RecordCodec) checksummer(code domain.ChecksumCode) (ports.ChecksumPort, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sum, ok := c.checksums[code]; ok {
		return sum, nil
	}

	sum, err := checksum.ForCode(code)
	if err != nil {
		return nil, err
	}
	c.checksums[code] = sum
	return sum, nil
}

// unexpected maps a clean EOF inside a record to io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
