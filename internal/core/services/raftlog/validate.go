package raftlog

import (
	"fmt"
	"os"
	"strings"

	"github.com/iamNilotpal/raftlog/internal/adapters/checksum"
	"github.com/iamNilotpal/raftlog/internal/adapters/compression"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/iamNilotpal/raftlog/internal/core/services/segment"
	"github.com/iamNilotpal/raftlog/pkg/errors"
)

// Validate checks opts after defaults were applied.
func Validate(opts *domain.LogOptions) error {
	if strings.TrimSpace(opts.Directory) == "" {
		return errors.NewValidationError("directory", opts.Directory, fmt.Errorf("must not be empty"))
	}

	if info, err := os.Stat(opts.Directory); err == nil && !info.IsDir() {
		return errors.NewValidationError("directory", opts.Directory, fmt.Errorf("specified path is not a directory"))
	}

	if opts.Marshal == nil {
		return errors.NewValidationError("marshal", nil, fmt.Errorf("content marshal is required"))
	}

	if err := validateBufferSize(opts.BufferSize); err != nil {
		return err
	}

	if _, err := ParseStrategy(opts.PruneStrategy); err != nil {
		return err
	}

	if opts.InFlightCacheBytes < 0 {
		return errors.NewValidationError("inFlightCacheBytes", opts.InFlightCacheBytes, fmt.Errorf("must not be negative"))
	}

	if err := opts.Payload.Validate(); err != nil {
		return err
	}

	if opts.ChecksumOptions.Enable {
		if err := checksum.Validate(opts.ChecksumOptions); err != nil {
			return err
		}
	}

	if opts.CompressionOptions.Enable {
		if err := compression.Validate(opts.CompressionOptions); err != nil {
			return err
		}
	}

	return segment.Validate(opts.SegmentOptions)
}

func validateBufferSize(size uint32) error {
	if size < DefaultMinBufferSize {
		return errors.NewValidationError(
			"bufferSize", size, fmt.Errorf("must be at least %d bytes", DefaultMinBufferSize),
		)
	}

	if size > DefaultMaxBufferSize {
		return errors.NewValidationError(
			"bufferSize", size, fmt.Errorf("must not exceed %d bytes", DefaultMaxBufferSize),
		)
	}

	if size&(size-1) != 0 {
		return errors.NewValidationError("bufferSize", size, fmt.Errorf("must be a power of 2"))
	}

	return nil
}
