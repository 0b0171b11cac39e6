package bookings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymsched/internal/domain"
	"gymsched/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	store   store.BookingStore
	catalog store.ResourceCatalog
	reasons store.AbsenceReasonSource
}

func NewService(st store.BookingStore, catalog store.ResourceCatalog, reasons store.AbsenceReasonSource) *Service {
	return &Service{store: st, catalog: catalog, reasons: reasons}
}

type RecurrenceRuleInput struct {
	Frequency string
	Interval  int
	Count     *int
	Until     *time.Time
}

type CreateInput struct {
	ActorID    string
	ResourceID string
	MemberID   string
	LocationID string
	Title      string
	StartTime  time.Time
	EndTime    time.Time
	Rule       *RecurrenceRuleInput
}

func (s *Service) CreateBooking(ctx context.Context, in CreateInput) ([]domain.Booking, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if in.ResourceID == "" {
		return nil, validationError("resource_id is required")
	}

	res, err := s.catalog.GetResource(ctx, in.ResourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validationError("unknown resource_id")
		}
		return nil, err
	}

	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if end.Equal(start) || end.Before(start) {
		return nil, validationError("end_time must be after start_time")
	}
	if end.Sub(start) > 24*time.Hour {
		return nil, validationError("duration too long")
	}

	locationID := in.LocationID
	if locationID == "" {
		locationID = res.LocationID
	}

	var rule *domain.RecurrenceRule
	if in.Rule != nil {
		rule, err = normalizeRule(*in.Rule, start)
		if err != nil {
			return nil, err
		}
	}

	b := domain.Booking{
		ResourceID: in.ResourceID,
		MemberID:   in.MemberID,
		LocationID: locationID,
		Title:      title,
		StartTime:  start,
		EndTime:    end,
	}
	return s.store.Create(ctx, in.ActorID, b, rule)
}

func normalizeRule(in RecurrenceRuleInput, start time.Time) (*domain.RecurrenceRule, error) {
	freq := domain.RecurrenceFrequency(strings.ToLower(strings.TrimSpace(in.Frequency)))
	if freq == "" {
		freq = domain.RecurrenceFrequencyWeekly
	}
	if freq != domain.RecurrenceFrequencyDaily && freq != domain.RecurrenceFrequencyWeekly {
		return nil, validationError("unsupported frequency")
	}

	interval := in.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 {
		return nil, validationError("interval must be at least 1")
	}

	if in.Count == nil && in.Until == nil {
		return nil, validationError("until or count is required")
	}
	if in.Count != nil && in.Until != nil {
		return nil, validationError("until and count are mutually exclusive")
	}

	rule := domain.RecurrenceRule{Frequency: freq, Interval: interval}
	if in.Count != nil {
		c := *in.Count
		if c < 1 {
			return nil, validationError("count must be at least 1")
		}
		if c > domain.MaxSeriesOccurrences {
			return nil, validationError("count exceeds the maximum series length")
		}
		rule.Count = &c
	}
	if in.Until != nil {
		u := in.Until.UTC()
		if u.Before(start) {
			return nil, validationError("until must be after start_time")
		}
		rule.Until = &u
	}

	// Reject rules too long to materialize before any store work happens.
	if _, err := domain.ExpandRule(start, start.Add(time.Minute), rule); err != nil {
		if errors.Is(err, domain.ErrTooManyOccurrences) {
			return nil, validationError("recurrence rule produces too many occurrences")
		}
		return nil, err
	}

	return &rule, nil
}

type UpdateInput struct {
	ActorID    string
	BookingID  uuid.UUID
	Scope      string
	Title      *string
	MemberID   *string
	ResourceID *string
	StartTime  *time.Time
	EndTime    *time.Time
}

func (s *Service) UpdateBooking(ctx context.Context, in UpdateInput) ([]domain.Booking, error) {
	if in.BookingID == uuid.Nil {
		return nil, validationError("booking_id is required")
	}
	scope, err := parseScope(in.Scope)
	if err != nil {
		return nil, err
	}
	if in.Title == nil && in.MemberID == nil && in.ResourceID == nil &&
		in.StartTime == nil && in.EndTime == nil {
		return nil, validationError("no fields to update")
	}
	if (in.StartTime == nil) != (in.EndTime == nil) {
		return nil, validationError("start_time and end_time must be provided together")
	}

	change := store.BookingChange{
		Title:    in.Title,
		MemberID: in.MemberID,
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, validationError("title must not be empty")
	}
	if in.ResourceID != nil {
		if _, err := s.catalog.GetResource(ctx, *in.ResourceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, validationError("unknown resource_id")
			}
			return nil, err
		}
		change.ResourceID = in.ResourceID
	}
	if in.StartTime != nil {
		start := in.StartTime.UTC()
		end := in.EndTime.UTC()
		if end.Equal(start) || end.Before(start) {
			return nil, validationError("end_time must be after start_time")
		}
		if end.Sub(start) > 24*time.Hour {
			return nil, validationError("duration too long")
		}
		change.StartTime = &start
		change.EndTime = &end
	}

	return s.store.Update(ctx, in.ActorID, in.BookingID, scope, change)
}

func (s *Service) DeleteBooking(ctx context.Context, actorID string, bookingID uuid.UUID, scopeRaw string) error {
	if bookingID == uuid.Nil {
		return validationError("booking_id is required")
	}
	scope, err := parseScope(scopeRaw)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, actorID, bookingID, scope)
}

func (s *Service) SetStatus(ctx context.Context, actorID string, bookingID uuid.UUID, statusRaw, reasonID string) (domain.Booking, error) {
	if bookingID == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}
	status := domain.BookingStatus(strings.ToLower(strings.TrimSpace(statusRaw)))
	if !status.Valid() {
		return domain.Booking{}, validationError("unknown status")
	}

	if status == domain.StatusNoShow {
		if reasonID == "" {
			return domain.Booking{}, validationError("absence_reason_id is required for no-show")
		}
		if _, err := s.reasons.GetAbsenceReason(ctx, reasonID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Booking{}, validationError("unknown absence_reason_id")
			}
			return domain.Booking{}, err
		}
	} else if reasonID != "" {
		return domain.Booking{}, validationError("absence_reason_id is only valid for no-show")
	}

	return s.store.SetStatus(ctx, actorID, bookingID, status, reasonID)
}

func (s *Service) QueryAvailability(ctx context.Context, resourceID string, from, to time.Time) ([]domain.Booking, error) {
	if resourceID == "" {
		return nil, validationError("resource_id is required")
	}
	if _, err := s.catalog.GetResource(ctx, resourceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validationError("unknown resource_id")
		}
		return nil, err
	}

	from = from.UTC()
	to = to.UTC()
	if to.Equal(from) || to.Before(from) {
		return nil, validationError("window end must be after window start")
	}

	return s.store.Get(ctx, resourceID, from, to)
}

func (s *Service) ListResources(ctx context.Context, locationID string) ([]domain.Resource, error) {
	return s.catalog.ListResources(ctx, locationID)
}

func (s *Service) ListAbsenceReasons(ctx context.Context) ([]domain.AbsenceReason, error) {
	return s.reasons.ListAbsenceReasons(ctx)
}

func parseScope(raw string) (domain.Scope, error) {
	scope := domain.Scope(strings.ToLower(strings.TrimSpace(raw)))
	if scope == "" {
		scope = domain.ScopeOne
	}
	if !scope.Valid() {
		return "", validationError("scope must be one, future or all")
	}
	return scope, nil
}
