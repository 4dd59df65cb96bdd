package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes builds the router with the global middleware stack. Everything
// except /health requires a bearer token.
func (h *Handler) Routes(auth *Authenticator) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)
			r.Post("/{id}/register", h.Register)
			r.Delete("/{id}/register", h.Cancel)
			r.Put("/{id}/attendance/{userId}", h.MarkAttendance)
			r.Get("/{id}/attendees", h.GetAttendees)
			r.Get("/{id}/registration", h.GetRegistrationStatus)
		})

		r.Get("/users/me/events", h.MyEvents)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Put("/{id}/read", h.MarkNotificationRead)
		})
	})

	return r
}
