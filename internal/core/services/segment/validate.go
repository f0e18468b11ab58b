package segment

import (
	"fmt"
	"strings"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
)

// It ensures that all options are within acceptable ranges and
// that there are no conflicts between related options.
// Returns an error with a descriptive message if validation fails.
func Validate(opts *domain.SegmentOptions) error {
	if opts.RotateAtSize < MinRotateAtSize {
		return fmt.Errorf("rotateAtSize must be at least %d bytes, got %d", MinRotateAtSize, opts.RotateAtSize)
	}

	if strings.ContainsAny(opts.SegmentPrefix, `/\*?[`) {
		return fmt.Errorf("segmentPrefix %q must not contain path separators or glob characters", opts.SegmentPrefix)
	}

	if opts.ReaderPoolSize < 0 {
		return fmt.Errorf("readerPoolSize must not be negative, got %d", opts.ReaderPoolSize)
	}

	if opts.ReaderMaxAge < 0 || opts.ReaderPruneInterval < 0 {
		return fmt.Errorf("reader durations must not be negative")
	}

	if opts.PositionCacheStride < 1 {
		return fmt.Errorf("positionCacheStride must be at least 1, got %d", opts.PositionCacheStride)
	}

	return nil
}
