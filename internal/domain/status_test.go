package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCheckTransition(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		start   time.Time
		wantErr bool
	}{
		{"scheduled to attended in the past", StatusScheduled, StatusAttended, past, false},
		{"scheduled to attended right now", StatusScheduled, StatusAttended, now, false},
		{"scheduled to attended in the future", StatusScheduled, StatusAttended, future, true},
		{"scheduled to no-show in the past", StatusScheduled, StatusNoShow, past, false},
		{"scheduled to no-show in the future", StatusScheduled, StatusNoShow, future, true},
		{"attended back to scheduled", StatusAttended, StatusScheduled, past, false},
		{"no-show back to scheduled", StatusNoShow, StatusScheduled, past, false},
		{"cancelled back to scheduled", StatusCancelled, StatusScheduled, future, false},
		{"scheduled to cancelled any time", StatusScheduled, StatusCancelled, future, false},
		{"attended to no-show directly", StatusAttended, StatusNoShow, past, true},
		{"no-show to attended directly", StatusNoShow, StatusAttended, past, true},
		{"attended to cancelled", StatusAttended, StatusCancelled, past, true},
		{"cancelled to attended", StatusCancelled, StatusAttended, past, true},
		{"same status", StatusScheduled, StatusScheduled, past, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to, tt.start, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				var tErr *InvalidTransitionError
				if !errors.As(err, &tErr) {
					t.Fatalf("error type = %T, want *InvalidTransitionError", err)
				}
				if tErr.From != tt.from || tErr.To != tt.to {
					t.Fatalf("error states = %s -> %s, want %s -> %s", tErr.From, tErr.To, tt.from, tt.to)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckTransition error: %v", err)
			}
		})
	}
}

func TestBookingStatusValid(t *testing.T) {
	for _, s := range []BookingStatus{StatusScheduled, StatusAttended, StatusNoShow, StatusCancelled} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if BookingStatus("deleted").Valid() {
		t.Fatalf("unknown status should be invalid")
	}
}
