package raftlog

import (
	"fmt"
	"strconv"
	"strings"

	sm "github.com/iamNilotpal/raftlog/internal/core/services/segment/manager"
	"github.com/iamNilotpal/raftlog/pkg/errors"
)

// PruningStrategy decides how much history to keep when the log is pruned.
type PruningStrategy interface {
	// PruneIndex returns the highest index that may be discarded, given that
	// the caller allows discarding up to safeIndex. A negative result keeps
	// everything.
	PruneIndex(safeIndex, appendIndex int64, segments []sm.SegmentRange) int64
	String() string
}

// ParseStrategy parses a pruning strategy from its configuration form:
//
//	"<n> entries"       keep at least n entries
//	"<n>[k|m|g] size"   keep at least n bytes of segment files
//	"<n> files"         keep at least n segment files
//	"keep_all", "true"  never prune
//	"keep_none", "false" prune everything the caller allows
func ParseStrategy(value string) (PruningStrategy, error) {
	value = strings.ToLower(strings.TrimSpace(value))

	switch value {
	case "keep_all", "true":
		return keepAll{}, nil
	case "keep_none", "false":
		return keepNone{}, nil
	}

	fields := strings.Fields(value)
	if len(fields) != 2 {
		return nil, invalidStrategy(value)
	}

	switch fields[1] {
	case "entries", "entry":
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || n < 0 {
			return nil, invalidStrategy(value)
		}
		return keepEntries{n: n}, nil
	case "files", "file":
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 1 {
			return nil, invalidStrategy(value)
		}
		return keepFiles{n: n}, nil
	case "size":
		n, err := parseSize(fields[0])
		if err != nil {
			return nil, invalidStrategy(value)
		}
		return keepSize{bytes: n}, nil
	}

	return nil, invalidStrategy(value)
}

func invalidStrategy(value string) error {
	return errors.NewValidationError("pruneStrategy", value, fmt.Errorf("invalid pruning strategy %q", value))
}

func parseSize(value string) (int64, error) {
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(value, "k"):
		multiplier = 1 << 10
	case strings.HasSuffix(value, "m"):
		multiplier = 1 << 20
	case strings.HasSuffix(value, "g"):
		multiplier = 1 << 30
	}
	if multiplier > 1 {
		value = value[:len(value)-1]
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %d", n)
	}
	return n * multiplier, nil
}

type keepAll struct{}

func (keepAll) PruneIndex(int64, int64, []sm.SegmentRange) int64 { return -1 }
func (keepAll) String() string                                     { return "keep_all" }

type keepNone struct{}

func (keepNone) PruneIndex(safeIndex, _ int64, _ []sm.SegmentRange) int64 { return safeIndex }
func (keepNone) String() string                                         { return "keep_none" }

type keepEntries struct{ n int64 }

func (s keepEntries) PruneIndex(safeIndex, appendIndex int64, _ []sm.SegmentRange) int64 {
	return min(safeIndex, appendIndex-s.n)
}

func (s keepEntries) String() string { return fmt.Sprintf("%d entries", s.n) }

type keepFiles struct{ n int }

func (s keepFiles) PruneIndex(safeIndex, _ int64, segments []sm.SegmentRange) int64 {
	if len(segments) <= s.n {
		return -1
	}
	return min(safeIndex, segments[len(segments)-s.n].Start-1)
}

func (s keepFiles) String() string { return fmt.Sprintf("%d files", s.n) }

type keepSize struct{ bytes int64 }

// PruneIndex keeps the newest segments whose files add up to at least the
// configured size.
func (s keepSize) PruneIndex(safeIndex, _ int64, segments []sm.SegmentRange) int64 {
	var total int64
	for i := len(segments) - 1; i >= 0; i-- {
		total += segments[i].Size
		if total >= s.bytes {
			return min(safeIndex, segments[i].Start-1)
		}
	}
	return -1
}

func (s keepSize) String() string { return fmt.Sprintf("%d size", s.bytes) }
