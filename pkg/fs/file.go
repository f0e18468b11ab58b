package fs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// SegmentExtension is appended to every segment file name.
const SegmentExtension = ".log"

// GenerateSegmentName returns the file name for a segment version.
func GenerateSegmentName(prefix string, version int64) string {
	return fmt.Sprintf("%s%d%s", prefix, version, SegmentExtension)
}

// ParseSegmentVersion extracts the version from a segment file path. The
// second result is false for names that do not follow the segment pattern.
func ParseSegmentVersion(path, prefix string) (int64, bool) {
	_, name := filepath.Split(path)
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, SegmentExtension) {
		return 0, false
	}

	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), SegmentExtension)
	if digits == "" {
		return 0, false
	}

	version, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || version < 0 {
		return 0, false
	}

	return version, true
}
