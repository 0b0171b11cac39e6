package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ResourceKind string

const (
	ResourceKindFacility ResourceKind = "facility"
	ResourceKindTrainer  ResourceKind = "trainer"
)

// Resource is a bookable entity that can host at most one active booking per
// instant. The catalog owning resources is external to this engine.
type Resource struct {
	bun.BaseModel `bun:"table:resources" json:"-"`

	ID         string       `bun:"id,pk" json:"id"`
	LocationID string       `bun:"location_id,notnull" json:"location_id"`
	Kind       ResourceKind `bun:"kind,notnull" json:"kind"`
	Capacity   int          `bun:"capacity" json:"capacity,omitempty"`
}

// AbsenceReason is a read-only reference record attached to no-show bookings.
type AbsenceReason struct {
	bun.BaseModel `bun:"table:absence_reasons" json:"-"`

	ID          string `bun:"id,pk" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description,omitempty"`
}

// Scope is the breadth of a mutation over a recurring series.
type Scope string

const (
	ScopeOne    Scope = "one"
	ScopeFuture Scope = "future"
	ScopeAll    Scope = "all"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeOne, ScopeFuture, ScopeAll:
		return true
	}
	return false
}

// Booking is one occurrence on a resource's calendar. Occurrences of a
// recurring series share SeriesID; the recurrence rule is stored only on the
// series anchor.
type Booking struct {
	bun.BaseModel `bun:"table:bookings" json:"-"`

	ID              uuid.UUID       `bun:"id,pk,type:uuid" json:"id"`
	SeriesID        uuid.UUID       `bun:"series_id,type:uuid,nullzero" json:"series_id,omitzero"`
	ResourceID      string          `bun:"resource_id,notnull" json:"resource_id"`
	MemberID        string          `bun:"member_id" json:"member_id,omitempty"`
	LocationID      string          `bun:"location_id,notnull" json:"location_id"`
	Title           string          `bun:"title,notnull" json:"title"`
	StartTime       time.Time       `bun:"start_time,notnull" json:"start_time"`
	EndTime         time.Time       `bun:"end_time,notnull" json:"end_time"`
	Status          BookingStatus   `bun:"status,notnull" json:"status"`
	AbsenceReasonID string          `bun:"absence_reason_id" json:"absence_reason_id,omitempty"`
	Rule            *RecurrenceRule `bun:"rule,type:jsonb" json:"rule,omitempty"`
	CreatedAt       time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

// Recurring reports whether the booking belongs to a series.
func (b Booking) Recurring() bool {
	return b.SeriesID != uuid.Nil
}

// Active reports whether the booking counts for conflict detection.
func (b Booking) Active() bool {
	return b.Status != StatusCancelled
}

// Overlaps tests two half-open intervals [aStart,aEnd) and [bStart,bEnd).
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
