// Package config bounds what a single stored entry may weigh.
package config

import (
	"fmt"

	logerrors "github.com/iamNilotpal/raftlog/pkg/errors"
)

const (
	MinPayloadSize     = 4 * 1024         // 4KB, one page.
	DefaultPayloadSize = 4 * 1024 * 1024  // 4MB.
	MaxPayloadSize     = 64 * 1024 * 1024 // 64MB.
)

// PayloadConfig limits the size of a payload after marshaling and
// compression. Decoding also refuses length prefixes above MaxPayloadSize,
// so a corrupt length never turns into a huge allocation.
type PayloadConfig struct {
	MaxSize uint32
}

type PayloadConfigOption func(*PayloadConfig)

// WithMaxSize sets the payload limit. Values outside
// [MinPayloadSize, MaxPayloadSize] leave the default in place.
func WithMaxSize(size uint32) PayloadConfigOption {
	return func(c *PayloadConfig) {
		if size >= MinPayloadSize && size <= MaxPayloadSize {
			c.MaxSize = size
		}
	}
}

func NewPayloadConfig(opts ...PayloadConfigOption) *PayloadConfig {
	cfg := DefaultPayloadConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *PayloadConfig) Validate() error {
	if c.MaxSize < MinPayloadSize || c.MaxSize > MaxPayloadSize {
		return logerrors.NewValidationError(
			"payload.maxSize", c.MaxSize,
			fmt.Errorf("must be between %d and %d", MinPayloadSize, MaxPayloadSize),
		)
	}
	return nil
}
