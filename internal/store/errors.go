package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrBusy                  = errors.New("resource busy")
	ErrInvalidInterval       = errors.New("end time must be after start time")
	ErrAbsenceReasonRequired = errors.New("absence reason required for no-show")

	// ErrSeriesResourceChange rejects a resource move that would cover only
	// part of a recurring series. Occurrences of one series always share a
	// resource, so moves must target the whole series.
	ErrSeriesResourceChange = errors.New("changing the resource of a recurring series requires scope all")
)

// ConflictError rejects a mutation whose interval(s) would overlap active
// bookings on the same resource. It names the offenders so callers can show
// why the slot is unavailable.
type ConflictError struct {
	ConflictingIDs []uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflicts with %d existing booking(s)", len(e.ConflictingIDs))
}

// SnapshotError reports a persistence write that failed after the in-memory
// mutation committed. Durability is uncertain; the mutation itself stands.
type SnapshotError struct {
	Err error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot write failed after commit: %v", e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}
