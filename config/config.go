// Package config loads log settings from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/iamNilotpal/raftlog/internal/adapters/checksum"
	"github.com/iamNilotpal/raftlog/internal/adapters/compression"
	"github.com/iamNilotpal/raftlog/internal/core/domain"
	payload "github.com/iamNilotpal/raftlog/internal/core/domain/config"
	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/internal/core/services/segment"
	"github.com/iamNilotpal/raftlog/internal/metrics"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a string such as "30s" or "5m".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q : %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Log           LogConfig         `yaml:"log" toml:"log"`
	Segment       SegmentConfig     `yaml:"segment" toml:"segment"`
	Checksum      ChecksumConfig    `yaml:"checksum" toml:"checksum"`
	Compression   CompressionConfig `yaml:"compression" toml:"compression"`
	EnableMetrics bool              `yaml:"enable_metrics" toml:"enable_metrics"` // Register Prometheus metrics
}

// Holds log-level configuration
type LogConfig struct {
	Directory            string   `yaml:"directory" toml:"directory"`                             // Directory holding the segment files
	BufferSize           uint32   `yaml:"buffer_size" toml:"buffer_size"`                         // Size of the segment write buffer
	SyncOnWrite          bool     `yaml:"sync_on_write" toml:"sync_on_write"`                     // Fsync after every append
	SyncInterval         Duration `yaml:"sync_interval" toml:"sync_interval"`                     // Background fsync period
	PruneStrategy        string   `yaml:"prune_strategy" toml:"prune_strategy"`                   // How much history Prune keeps
	InFlightCacheEntries int      `yaml:"in_flight_cache_entries" toml:"in_flight_cache_entries"` // Recent entries kept in memory
	InFlightCacheBytes   int64    `yaml:"in_flight_cache_bytes" toml:"in_flight_cache_bytes"`     // Memory bound of that cache
	MaxPayloadSize       uint32   `yaml:"max_payload_size" toml:"max_payload_size"`               // Largest stored entry payload
	ReadOnly             bool     `yaml:"read_only" toml:"read_only"`                             // Open for inspection only
}

// Holds segment file configuration
type SegmentConfig struct {
	Prefix              string   `yaml:"prefix" toml:"prefix"`
	RotateAtSize        int64    `yaml:"rotate_at_size" toml:"rotate_at_size"`
	ReaderPoolSize      int      `yaml:"reader_pool_size" toml:"reader_pool_size"`
	ReaderMaxAge        Duration `yaml:"reader_max_age" toml:"reader_max_age"`
	ReaderPruneInterval Duration `yaml:"reader_prune_interval" toml:"reader_prune_interval"`
	PositionCacheStride int      `yaml:"position_cache_stride" toml:"position_cache_stride"`
}

type ChecksumConfig struct {
	Enable       bool   `yaml:"enable" toml:"enable"`
	Algorithm    string `yaml:"algorithm" toml:"algorithm"`
	VerifyOnRead bool   `yaml:"verify_on_read" toml:"verify_on_read"`
}

type CompressionConfig struct {
	Enable    bool   `yaml:"enable" toml:"enable"`
	Algorithm string `yaml:"algorithm" toml:"algorithm"`
	Level     uint8  `yaml:"level" toml:"level"`
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		EnableMetrics: true,
		Log: LogConfig{
			Directory:            "/var/lib/raftlog",
			BufferSize:           64 * 1024,       // 64KB
			SyncInterval:         Duration(time.Second),
			PruneStrategy:        "1g size",
			InFlightCacheEntries: 1024,
			InFlightCacheBytes:   8 * 1024 * 1024, // 8MB
			MaxPayloadSize:       payload.DefaultPayloadSize,
		},
		Segment: SegmentConfig{
			Prefix:              segment.DefaultSegmentPrefix,
			RotateAtSize:        segment.DefaultRotateAtSize,
			ReaderPoolSize:      segment.DefaultReaderPoolSize,
			ReaderMaxAge:        Duration(segment.DefaultReaderMaxAge),
			ReaderPruneInterval: Duration(segment.DefaultReaderPruneInterval),
			PositionCacheStride: segment.DefaultPositionCacheStride,
		},
		Checksum: ChecksumConfig{
			Enable:       true,
			VerifyOnRead: true,
			Algorithm:    string(checksum.CRC32IEEE),
		},
		Compression: CompressionConfig{
			Algorithm: string(compression.Zstd),
			Level:     compression.DefaultLevel,
		},
	}
}

// Loads configuration from a YAML (.yaml, .yml) or TOML (.toml) file.
// Settings missing from the file keep their defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".toml":
		_, err = toml.Decode(string(data), config)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Log.Directory) == "" {
		return fmt.Errorf("log.directory is required")
	}

	if config.Log.MaxPayloadSize < payload.MinPayloadSize || config.Log.MaxPayloadSize > payload.MaxPayloadSize {
		return fmt.Errorf(
			"log.max_payload_size must be between %d and %d", payload.MinPayloadSize, payload.MaxPayloadSize,
		)
	}

	if config.Log.InFlightCacheBytes < 0 {
		return fmt.Errorf("log.in_flight_cache_bytes must not be negative")
	}

	if config.Segment.RotateAtSize < segment.MinRotateAtSize {
		return fmt.Errorf("segment.rotate_at_size must be at least %d", segment.MinRotateAtSize)
	}

	if config.Checksum.Enable {
		if _, err := checksum.CodeOf(domain.ChecksumAlgorithm(config.Checksum.Algorithm)); err != nil {
			return fmt.Errorf("checksum: %w", err)
		}
	}

	if config.Compression.Enable {
		if _, err := compression.CodeOf(domain.CompressionAlgorithm(config.Compression.Algorithm)); err != nil {
			return fmt.Errorf("compression: %w", err)
		}
	}

	return nil
}

// ToOptions converts the configuration into log options. The content marshal
// decides how entry content is stored; logger and metrics may be nil.
func (c *Config) ToOptions(
	marshal ports.ContentMarshal, logger *zap.SugaredLogger, m *metrics.Metrics,
) *domain.LogOptions {
	compressionOpts := compression.DefaultOptions()
	compressionOpts.Enable = c.Compression.Enable
	compressionOpts.Algorithm = domain.CompressionAlgorithm(c.Compression.Algorithm)
	compressionOpts.Level = c.Compression.Level

	return &domain.LogOptions{
		Directory:            c.Log.Directory,
		BufferSize:           c.Log.BufferSize,
		SyncOnWrite:          c.Log.SyncOnWrite,
		SyncInterval:         time.Duration(c.Log.SyncInterval),
		PruneStrategy:        c.Log.PruneStrategy,
		InFlightCacheEntries: c.Log.InFlightCacheEntries,
		InFlightCacheBytes:   c.Log.InFlightCacheBytes,
		ReadOnly:             c.Log.ReadOnly,
		Payload:              payload.NewPayloadConfig(payload.WithMaxSize(c.Log.MaxPayloadSize)),
		ChecksumOptions: &domain.ChecksumOptions{
			Enable:       c.Checksum.Enable,
			Algorithm:    domain.ChecksumAlgorithm(c.Checksum.Algorithm),
			VerifyOnRead: c.Checksum.VerifyOnRead,
		},
		CompressionOptions: compressionOpts,
		SegmentOptions: &domain.SegmentOptions{
			SegmentPrefix:       c.Segment.Prefix,
			RotateAtSize:        c.Segment.RotateAtSize,
			ReaderPoolSize:      c.Segment.ReaderPoolSize,
			ReaderMaxAge:        time.Duration(c.Segment.ReaderMaxAge),
			ReaderPruneInterval: time.Duration(c.Segment.ReaderPruneInterval),
			PositionCacheStride: c.Segment.PositionCacheStride,
		},
		Marshal: marshal,
		Logger:  logger,
		Metrics: m,
	}
}
