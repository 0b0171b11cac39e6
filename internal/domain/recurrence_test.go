package domain

import (
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestExpandRule_Validation(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name    string
		rule    RecurrenceRule
		wantErr error
	}{
		{
			name:    "unsupported frequency",
			rule:    RecurrenceRule{Frequency: "monthly", Count: intPtr(3)},
			wantErr: ErrUnsupportedFrequency,
		},
		{
			name:    "neither count nor until",
			rule:    RecurrenceRule{Frequency: RecurrenceFrequencyDaily},
			wantErr: ErrRuleUnbounded,
		},
		{
			name: "both count and until",
			rule: RecurrenceRule{
				Frequency: RecurrenceFrequencyDaily,
				Count:     intPtr(3),
				Until:     timePtr(start.AddDate(0, 0, 10)),
			},
			wantErr: ErrRuleOverbounded,
		},
		{
			name:    "count over the cap",
			rule:    RecurrenceRule{Frequency: RecurrenceFrequencyDaily, Count: intPtr(MaxSeriesOccurrences + 1)},
			wantErr: ErrTooManyOccurrences,
		},
		{
			name: "until beyond the cap",
			rule: RecurrenceRule{
				Frequency: RecurrenceFrequencyDaily,
				Until:     timePtr(start.AddDate(2, 0, 0)),
			},
			wantErr: ErrTooManyOccurrences,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandRule(start, end, tt.rule)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandRule_DailyCount(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	occs, err := ExpandRule(start, end, RecurrenceRule{
		Frequency: RecurrenceFrequencyDaily,
		Count:     intPtr(3),
	})
	if err != nil {
		t.Fatalf("ExpandRule error: %v", err)
	}
	if len(occs) != 3 {
		t.Fatalf("len(occs) = %d, want 3", len(occs))
	}
	for i, occ := range occs {
		wantStart := start.AddDate(0, 0, i)
		if !occ.StartTime.Equal(wantStart) {
			t.Fatalf("occ[%d].StartTime = %v, want %v", i, occ.StartTime, wantStart)
		}
		if occ.EndTime.Sub(occ.StartTime) != time.Hour {
			t.Fatalf("occ[%d] duration = %v, want 1h", i, occ.EndTime.Sub(occ.StartTime))
		}
	}
}

func TestExpandRule_WeeklyUntilInclusive(t *testing.T) {
	// Monday anchor, until the third Monday: exactly three occurrences.
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	until := start.AddDate(0, 0, 14)

	occs, err := ExpandRule(start, end, RecurrenceRule{
		Frequency: RecurrenceFrequencyWeekly,
		Until:     timePtr(until),
	})
	if err != nil {
		t.Fatalf("ExpandRule error: %v", err)
	}
	if len(occs) != 3 {
		t.Fatalf("len(occs) = %d, want 3", len(occs))
	}
	if !occs[2].StartTime.Equal(until) {
		t.Fatalf("last start = %v, want %v", occs[2].StartTime, until)
	}
}

func TestExpandRule_IntervalSkipsWeeks(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	occs, err := ExpandRule(start, end, RecurrenceRule{
		Frequency: RecurrenceFrequencyWeekly,
		Interval:  2,
		Count:     intPtr(2),
	})
	if err != nil {
		t.Fatalf("ExpandRule error: %v", err)
	}
	if len(occs) != 2 {
		t.Fatalf("len(occs) = %d, want 2", len(occs))
	}
	wantSecond := start.AddDate(0, 0, 14)
	if !occs[1].StartTime.Equal(wantSecond) {
		t.Fatalf("occ[1].StartTime = %v, want %v", occs[1].StartTime, wantSecond)
	}
}

func TestExpandRule_NormalizesToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, loc)
	end := start.Add(time.Hour)

	occs, err := ExpandRule(start, end, RecurrenceRule{
		Frequency: RecurrenceFrequencyDaily,
		Count:     intPtr(1),
	})
	if err != nil {
		t.Fatalf("ExpandRule error: %v", err)
	}
	if occs[0].StartTime.Location() != time.UTC {
		t.Fatalf("expected UTC start, got %v", occs[0].StartTime.Location())
	}
	if !occs[0].StartTime.Equal(start) {
		t.Fatalf("start = %v, want instant %v", occs[0].StartTime, start)
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		aStart, aEnd   time.Time
		bStart, bEnd   time.Time
		want           bool
	}{
		{"partial overlap", base, base.Add(time.Hour), base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"containment", base, base.Add(2 * time.Hour), base.Add(30 * time.Minute), base.Add(time.Hour), true},
		{"identical", base, base.Add(time.Hour), base, base.Add(time.Hour), true},
		{"touching end to start", base, base.Add(time.Hour), base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"disjoint", base, base.Add(time.Hour), base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}
