package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBookingJSON_SeriesIDOmittedWhenNotRecurring(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	single := Booking{
		ID:         uuid.Must(uuid.NewV7()),
		ResourceID: "r1",
		LocationID: "loc1",
		Title:      "session",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Status:     StatusScheduled,
	}

	raw, err := json.Marshal(single)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if _, ok := fields["series_id"]; ok {
		t.Fatalf("series_id present on a non-recurring booking: %s", raw)
	}

	recurring := single
	recurring.SeriesID = uuid.Must(uuid.NewV7())
	raw, err = json.Marshal(recurring)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	fields = nil
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if got := fields["series_id"]; got != recurring.SeriesID.String() {
		t.Fatalf("series_id = %v, want %s", got, recurring.SeriesID)
	}
}
