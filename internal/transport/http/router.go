package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the booking engine's public surface.
func NewRouter(svc bookingsService, log *slog.Logger) http.Handler {
	h := NewBookingsHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondOK(w, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/bookings", h.CreateBooking)
		r.Patch("/bookings/{id}", h.UpdateBooking)
		r.Delete("/bookings/{id}", h.DeleteBooking)
		r.Post("/bookings/{id}/status", h.SetStatus)

		r.Get("/resources", h.ListResources)
		r.Get("/resources/{id}/availability", h.QueryAvailability)
		r.Get("/absence-reasons", h.ListAbsenceReasons)
	})

	return r
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
