package storage

import "fmt"

// Cause tags a StorageError with the class of failure.
type Cause string

const (
	CauseThrottled     Cause = "throttled"
	CauseUnavailable   Cause = "unavailable"
	CauseMalformedItem Cause = "malformed_item"
	CauseInternal      Cause = "internal"
)

// StorageError is a store-level failure: throttling, connectivity, a rejected
// item, or a missing table/index. It is distinct from a validation error and
// maps to a 5xx.
type StorageError struct {
	Op    string
	Cause Cause
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %s: %v", e.Op, e.Cause, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth retrying with backoff.
func (e *StorageError) Retryable() bool {
	return e.Cause == CauseThrottled || e.Cause == CauseUnavailable
}

// MalformedRecordError reports a persisted record that fails shape validation
// on read. The read path skips and counts these instead of failing the query.
type MalformedRecordError struct {
	ID      string
	Missing string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: missing %s", e.ID, e.Missing)
}
