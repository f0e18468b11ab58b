package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies the failures the log can produce. Callers use it
// to decide whether a failure is fatal to the log instance, a rejected call,
// or a race with segment disposal.
type ErrorCategory int

const (
	// ErrorStorage indicates errors related to underlying storage operations
	// such as file I/O, disk space, permissions, or filesystem issues.
	ErrorStorage ErrorCategory = iota + 1

	// ErrorCompression indicates errors while compressing or decompressing
	// entry payloads.
	ErrorCompression

	// ErrorRecovery indicates errors during startup recovery, such as
	// version gaps or damaged segment headers.
	ErrorRecovery

	// ErrorDisposal indicates an attempt to use a segment that has already
	// been disposed.
	ErrorDisposal

	// ErrorContract indicates a call that violates the log's contract
	// (non-monotonic term, out-of-range truncate). The log stays healthy.
	ErrorContract

	// ErrorCorruption indicates a record that failed its checksum or could
	// not be decoded.
	ErrorCorruption
)

var (
	// ErrUnexpectedEndOfStream is returned when a fixed-size structure is cut
	// short by the end of the file.
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")

	// ErrDamagedLogStorage marks storage damage outside the log's self-healing scope.
	ErrDamagedLogStorage = errors.New("damaged log storage")

	// ErrSegmentDisposed is returned when a reader is requested from a disposed segment.
	ErrSegmentDisposed = errors.New("segment is disposed")

	// ErrSegmentExists is returned when creating a segment over an existing file.
	ErrSegmentExists = errors.New("segment file already exists")

	// ErrAlreadyMarked is returned when a segment is marked for disposal twice.
	ErrAlreadyMarked = errors.New("segment already marked for disposal")

	// ErrWriterClosed is returned when writing to a segment whose writer was released.
	ErrWriterClosed = errors.New("segment writer is closed")

	// ErrNeedsRecovery is returned by every write after a write failure.
	ErrNeedsRecovery = errors.New("log needs recovery")

	// ErrNonMonotonicTerm is returned when an entry's term is lower than the current term.
	ErrNonMonotonicTerm = errors.New("non-monotonic term")

	// ErrInvalidArgument is returned for out-of-range indexes.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalState is returned for calls made in the wrong segment lifecycle state.
	ErrIllegalState = errors.New("illegal state")

	// ErrLogCompacted is returned when reading before the retained prefix of the log.
	ErrLogCompacted = errors.New("log compacted")

	// ErrCorruptRecord is returned when a record fails validation while decoding.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrLogClosed is returned by every operation after Close.
	ErrLogClosed = errors.New("log is closed")
)

// String returns the string representation of the error category.
// This is useful for logging, metrics, and error reporting.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorStorage:
		return "storage"
	case ErrorCompression:
		return "compression"
	case ErrorRecovery:
		return "recovery"
	case ErrorDisposal:
		return "disposal"
	case ErrorContract:
		return "contract"
	case ErrorCorruption:
		return "corruption"
	default:
		return "unknown"
	}
}

// LogError carries the failing operation and its category alongside the cause.
type LogError struct {
	Err       error
	Operation string
	Timestamp time.Time
	Category  ErrorCategory
}

// NewLogError wraps err for the named operation.
func NewLogError(category ErrorCategory, op string, err error) *LogError {
	return &LogError{Err: err, Operation: op, Category: category, Timestamp: time.Now()}
}

func (e *LogError) Error() string {
	return fmt.Sprintf("[%v] %s: %v", e.Category, e.Operation, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

// IsRetryAble returns whether errors of this category can be retried.
// This helps callers decide whether to retry failed operations.
func (e *LogError) IsRetryAble() bool {
	switch e.Category {
	case ErrorStorage:
		// Storage errors might be temporary (e.g., disk full).
		return true
	case ErrorDisposal:
		// The data moved on; a fresh cursor may succeed.
		return true
	case ErrorCompression, ErrorRecovery, ErrorContract, ErrorCorruption:
		return false
	default:
		return false
	}
}

// CategoryOf returns the category of the first LogError in err's chain, or 0.
func CategoryOf(err error) ErrorCategory {
	var le *LogError
	if errors.As(err, &le) {
		return le.Category
	}
	return 0
}

// IsDamaged reports whether err signals unrecoverable storage damage.
func IsDamaged(err error) bool {
	return errors.Is(err, ErrDamagedLogStorage)
}

// IsDisposed reports whether err signals a disposed segment rather than a disk failure.
func IsDisposed(err error) bool {
	return errors.Is(err, ErrSegmentDisposed)
}
