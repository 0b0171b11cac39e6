package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gymsched/internal/domain"
	"gymsched/internal/service/bookings"
	"gymsched/internal/store"
)

// bookingsService is the slice of the bookings service this transport needs.
type bookingsService interface {
	CreateBooking(ctx context.Context, in bookings.CreateInput) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, in bookings.UpdateInput) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, actorID string, bookingID uuid.UUID, scope string) error
	SetStatus(ctx context.Context, actorID string, bookingID uuid.UUID, status, reasonID string) (domain.Booking, error)
	QueryAvailability(ctx context.Context, resourceID string, from, to time.Time) ([]domain.Booking, error)
	ListResources(ctx context.Context, locationID string) ([]domain.Resource, error)
	ListAbsenceReasons(ctx context.Context) ([]domain.AbsenceReason, error)
}

type BookingsHandler struct {
	svc bookingsService
	log *slog.Logger
}

func NewBookingsHandler(svc bookingsService, log *slog.Logger) *BookingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.bookings")),
	}
}

// actorID identifies the caller for audit purposes. Authentication is owned
// by the surrounding dashboard; the engine only records what it is told.
func actorID(r *http.Request) string {
	if v := r.Header.Get("X-Actor-ID"); v != "" {
		return v
	}
	return "anonymous"
}

func (h *BookingsHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid request body", nil)
		return
	}
	if vErrs := validateStruct(req); len(vErrs) > 0 {
		respondBadRequest(w, "Validation failed", vErrs)
		return
	}

	in := bookings.CreateInput{
		ActorID:    actorID(r),
		ResourceID: req.ResourceID,
		MemberID:   req.MemberID,
		LocationID: req.LocationID,
		Title:      req.Title,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if req.Rule != nil {
		in.Rule = &bookings.RecurrenceRuleInput{
			Frequency: req.Rule.Frequency,
			Interval:  req.Rule.Interval,
			Count:     req.Rule.Count,
			Until:     req.Rule.Until,
		}
	}

	created, err := h.svc.CreateBooking(r.Context(), in)
	if err != nil {
		h.writeError(w, err, "create booking")
		return
	}
	respondCreated(w, "booking created", created)
}

func (h *BookingsHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondBadRequest(w, "Invalid booking id", nil)
		return
	}

	var req updateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid request body", nil)
		return
	}
	if vErrs := validateStruct(req); len(vErrs) > 0 {
		respondBadRequest(w, "Validation failed", vErrs)
		return
	}

	updated, err := h.svc.UpdateBooking(r.Context(), bookings.UpdateInput{
		ActorID:    actorID(r),
		BookingID:  id,
		Scope:      req.Scope,
		Title:      req.Title,
		MemberID:   req.MemberID,
		ResourceID: req.ResourceID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		h.writeError(w, err, "update booking")
		return
	}
	respondOK(w, "booking updated", updated)
}

func (h *BookingsHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondBadRequest(w, "Invalid booking id", nil)
		return
	}

	if err := h.svc.DeleteBooking(r.Context(), actorID(r), id, r.URL.Query().Get("scope")); err != nil {
		h.writeError(w, err, "delete booking")
		return
	}
	respondOK(w, "booking deleted", nil)
}

func (h *BookingsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondBadRequest(w, "Invalid booking id", nil)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid request body", nil)
		return
	}
	if vErrs := validateStruct(req); len(vErrs) > 0 {
		respondBadRequest(w, "Validation failed", vErrs)
		return
	}

	booking, err := h.svc.SetStatus(r.Context(), actorID(r), id, req.Status, req.AbsenceReasonID)
	if err != nil {
		h.writeError(w, err, "set status")
		return
	}
	respondOK(w, "status updated", booking)
}

func (h *BookingsHandler) QueryAvailability(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "id")
	q := r.URL.Query()

	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		respondBadRequest(w, "Invalid or missing from parameter", nil)
		return
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		respondBadRequest(w, "Invalid or missing to parameter", nil)
		return
	}

	out, err := h.svc.QueryAvailability(r.Context(), resourceID, from, to)
	if err != nil {
		h.writeError(w, err, "query availability")
		return
	}
	respondOK(w, "success", out)
}

func (h *BookingsHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListResources(r.Context(), r.URL.Query().Get("location_id"))
	if err != nil {
		h.writeError(w, err, "list resources")
		return
	}
	respondOK(w, "success", out)
}

func (h *BookingsHandler) ListAbsenceReasons(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListAbsenceReasons(r.Context())
	if err != nil {
		h.writeError(w, err, "list absence reasons")
		return
	}
	respondOK(w, "success", out)
}

func (h *BookingsHandler) writeError(w http.ResponseWriter, err error, op string) {
	var vErr *bookings.ValidationError
	if errors.As(err, &vErr) {
		respondBadRequest(w, vErr.Error(), nil)
		return
	}

	var cErr *store.ConflictError
	if errors.As(err, &cErr) {
		ids := make([]string, len(cErr.ConflictingIDs))
		for i, id := range cErr.ConflictingIDs {
			ids[i] = id.String()
		}
		writeJSON(w, http.StatusConflict, false, "time slot unavailable",
			nil, map[string]any{"conflicting_ids": ids})
		return
	}

	var tErr *domain.InvalidTransitionError
	if errors.As(err, &tErr) {
		writeJSON(w, http.StatusUnprocessableEntity, false, tErr.Error(), nil, nil)
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, false, "booking not found", nil, nil)
		return
	}
	if errors.Is(err, store.ErrAbsenceReasonRequired) || errors.Is(err, store.ErrInvalidInterval) ||
		errors.Is(err, store.ErrSeriesResourceChange) {
		respondBadRequest(w, err.Error(), nil)
		return
	}
	if errors.Is(err, store.ErrBusy) {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, false, "resource busy, retry shortly", nil, nil)
		return
	}

	var sErr *store.SnapshotError
	if errors.As(err, &sErr) {
		h.log.Error("snapshot write failed after commit", slog.String("op", op), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, false,
			"booking applied but persistence is uncertain", nil, nil)
		return
	}

	h.log.Error("internal error", slog.String("op", op), slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, false, "internal error", nil, nil)
}
