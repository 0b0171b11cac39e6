package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"gymsched/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	s := NewSnapshotStore(path)

	count := 2
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bookings := []domain.Booking{
		{
			ID:         uuid.Must(uuid.NewV7()),
			SeriesID:   uuid.Must(uuid.NewV7()),
			ResourceID: "r1",
			MemberID:   "m1",
			LocationID: "loc1",
			Title:      "spin class",
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
			Status:     domain.StatusScheduled,
			Rule: &domain.RecurrenceRule{
				Frequency: domain.RecurrenceFrequencyWeekly,
				Interval:  1,
				Count:     &count,
			},
			CreatedAt: start,
			UpdatedAt: start,
		},
		{
			ID:              uuid.Must(uuid.NewV7()),
			ResourceID:      "r2",
			LocationID:      "loc1",
			Title:           "pt session",
			StartTime:       start.Add(2 * time.Hour),
			EndTime:         start.Add(3 * time.Hour),
			Status:          domain.StatusNoShow,
			AbsenceReasonID: "ar1",
			CreatedAt:       start,
			UpdatedAt:       start,
		},
	}

	if err := s.SaveSnapshot(context.Background(), bookings); err != nil {
		t.Fatalf("SaveSnapshot error: %v", err)
	}
	got, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot error: %v", err)
	}

	if len(got) != len(bookings) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(bookings))
	}
	for i := range bookings {
		want := bookings[i]
		if got[i].ID != want.ID || got[i].ResourceID != want.ResourceID ||
			got[i].Status != want.Status || got[i].AbsenceReasonID != want.AbsenceReasonID {
			t.Fatalf("booking %d = %+v, want %+v", i, got[i], want)
		}
		if !got[i].StartTime.Equal(want.StartTime) || !got[i].EndTime.Equal(want.EndTime) {
			t.Fatalf("booking %d times differ", i)
		}
	}
	if got[0].Rule == nil || got[0].Rule.Count == nil || *got[0].Rule.Count != count {
		t.Fatalf("rule did not survive the round trip: %+v", got[0].Rule)
	}
}

func TestLoadSnapshot_MissingFileIsEmpty(t *testing.T) {
	s := NewSnapshotStore(filepath.Join(t.TempDir(), "nope.json"))
	got, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(got) = %d, want 0", len(got))
	}
}

func TestSaveSnapshot_OverwritesWholeCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	s := NewSnapshotStore(path)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	first := []domain.Booking{{
		ID: uuid.Must(uuid.NewV7()), ResourceID: "r1", LocationID: "loc1",
		Title: "a", StartTime: start, EndTime: start.Add(time.Hour),
		Status: domain.StatusScheduled,
	}}
	if err := s.SaveSnapshot(context.Background(), first); err != nil {
		t.Fatalf("SaveSnapshot error: %v", err)
	}
	if err := s.SaveSnapshot(context.Background(), nil); err != nil {
		t.Fatalf("SaveSnapshot error: %v", err)
	}

	got, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(got) = %d, want 0", len(got))
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir entries = %d, want 1", len(entries))
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `{
  "resources": [
    {"id": "r1", "location_id": "loc1", "kind": "facility", "capacity": 20},
    {"id": "t1", "location_id": "loc1", "kind": "trainer"}
  ],
  "absence_reasons": [
    {"id": "ar1", "name": "sick"}
  ]
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog error: %v", err)
	}

	resources, err := catalog.ListResources(context.Background(), "loc1")
	if err != nil {
		t.Fatalf("ListResources error: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("len(resources) = %d, want 2", len(resources))
	}
	r, err := catalog.GetResource(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetResource error: %v", err)
	}
	if r.Kind != domain.ResourceKindTrainer {
		t.Fatalf("kind = %s, want trainer", r.Kind)
	}
	if _, err := catalog.GetAbsenceReason(context.Background(), "ar1"); err != nil {
		t.Fatalf("GetAbsenceReason error: %v", err)
	}
}
