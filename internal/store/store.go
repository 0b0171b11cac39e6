package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gymsched/internal/domain"
)

// BookingChange carries the fields a scoped update may touch. Title, member
// and resource are overwritten absolutely on every target; start and end are
// read as the targeted occurrence's new interval and re-applied to the rest
// of the target set as a delta.
type BookingChange struct {
	Title      *string
	MemberID   *string
	ResourceID *string
	StartTime  *time.Time
	EndTime    *time.Time
}

// BookingStore is the canonical mutable collection of bookings. Mutations are
// all-or-nothing: a conflict on any target leaves the store untouched.
type BookingStore interface {
	Create(ctx context.Context, actorID string, b domain.Booking, rule *domain.RecurrenceRule) ([]domain.Booking, error)
	Update(ctx context.Context, actorID string, id uuid.UUID, scope domain.Scope, change BookingChange) ([]domain.Booking, error)
	Delete(ctx context.Context, actorID string, id uuid.UUID, scope domain.Scope) error
	SetStatus(ctx context.Context, actorID string, id uuid.UUID, status domain.BookingStatus, reasonID string) (domain.Booking, error)
	Get(ctx context.Context, resourceID string, from, to time.Time) ([]domain.Booking, error)
}

// Snapshotter persists the whole booking collection as one unit. Load runs at
// startup; Save runs after every committed mutation batch.
type Snapshotter interface {
	LoadSnapshot(ctx context.Context) ([]domain.Booking, error)
	SaveSnapshot(ctx context.Context, bookings []domain.Booking) error
}

// ResourceCatalog is the externally supplied registry of bookable resources.
type ResourceCatalog interface {
	ListResources(ctx context.Context, locationID string) ([]domain.Resource, error)
	GetResource(ctx context.Context, id string) (domain.Resource, error)
}

// AbsenceReasonSource supplies the reference set validating no-show requests.
type AbsenceReasonSource interface {
	ListAbsenceReasons(ctx context.Context) ([]domain.AbsenceReason, error)
	GetAbsenceReason(ctx context.Context, id string) (domain.AbsenceReason, error)
}

// AuditEvent is appended after every successful store mutation.
type AuditEvent struct {
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Summary    string    `json:"summary"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditSink consumes audit events. Implementations must never fail the
// mutation that produced the event.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent)
}
