package domain

import (
	"fmt"
	"time"
)

// BookingStatus is the attendance state of a booking. All states are reached
// from scheduled; attended and no-show are reversible back to scheduled, and
// cancelled is a soft state rather than a deletion.
type BookingStatus string

const (
	StatusScheduled BookingStatus = "scheduled"
	StatusAttended  BookingStatus = "attended"
	StatusNoShow    BookingStatus = "no-show"
	StatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusAttended, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// InvalidTransitionError reports a rejected attendance-status change. The
// booking is left untouched.
type InvalidTransitionError struct {
	From   BookingStatus
	To     BookingStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid status transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// CheckTransition validates an attendance-status change against the
// transition table. Marking attended or no-show requires the booking to have
// started; cross-state moves go through scheduled.
func CheckTransition(from, to BookingStatus, start, now time.Time) error {
	if from == to {
		return &InvalidTransitionError{From: from, To: to, Reason: "booking already has that status"}
	}

	switch to {
	case StatusAttended, StatusNoShow:
		if from != StatusScheduled {
			return &InvalidTransitionError{From: from, To: to, Reason: "must be reset to scheduled first"}
		}
		if start.After(now) {
			return &InvalidTransitionError{From: from, To: to, Reason: "booking has not started yet"}
		}
		return nil
	case StatusScheduled:
		// Reversal from any state, including reactivating a cancellation.
		return nil
	case StatusCancelled:
		if from != StatusScheduled {
			return &InvalidTransitionError{From: from, To: to, Reason: "only scheduled bookings can be cancelled"}
		}
		return nil
	}

	return &InvalidTransitionError{From: from, To: to, Reason: "unknown status"}
}
