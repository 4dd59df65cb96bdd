// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
)

// Handler holds all HTTP handlers for the events API.
type Handler struct {
	registrations *service.Manager
	events        *service.EventService
	inbox         *service.InboxService
}

// New constructs a Handler.
func New(registrations *service.Manager, events *service.EventService, inbox *service.InboxService) *Handler {
	return &Handler{registrations: registrations, events: events, inbox: inbox}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and a client-safe body. Internal causes
// are logged only.
func writeError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		log.Printf("http: internal error: %v", err)
	}
	resp := model.ErrorResponse{Error: apperr.PublicMessage(err), Code: string(e.Code)}
	if q, ok := e.Metadata["question"]; ok {
		resp.Field = q
	} else {
		resp.Field = e.Metadata["field"]
	}
	writeJSON(w, e.Code.HTTPStatus(), resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "invalid request body", err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	err := decodeJSON(w, r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func actorOf(r *http.Request) model.Actor {
	actor, _ := ActorFrom(r.Context())
	return actor
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), actorOf(r), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// MyEvents handles GET /users/me/events
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.MyEvents(r.Context(), actorOf(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// ─── Registration ─────────────────────────────────────────────────────────────

// Register handles POST /events/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	status, err := h.registrations.Register(r.Context(), chi.URLParam(r, "id"), actorOf(r).ID, req.Responses)
	if err != nil {
		writeError(w, err)
		return
	}

	msg := "Successfully registered for event"
	if status == model.StatusWaitlisted {
		msg = "Added to waitlist. You'll be notified if a spot opens up"
	}
	writeJSON(w, http.StatusCreated, model.RegisterResponse{Message: msg, Status: status})
}

// Cancel handles DELETE /events/{id}/register
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.registrations.Cancel(r.Context(), chi.URLParam(r, "id"), actorOf(r).ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ConfirmResponse{Confirmed: true, Message: "Registration cancelled"})
}

// MarkAttendance handles PUT /events/{id}/attendance/{userId}
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	err := h.registrations.MarkAttendance(r.Context(), chi.URLParam(r, "id"), actorOf(r), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ConfirmResponse{Confirmed: true, Message: "Attendance marked"})
}

// GetAttendees handles GET /events/{id}/attendees
func (h *Handler) GetAttendees(w http.ResponseWriter, r *http.Request) {
	list, err := h.registrations.GetAttendees(r.Context(), chi.URLParam(r, "id"), actorOf(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// GetRegistrationStatus handles GET /events/{id}/registration
func (h *Handler) GetRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.registrations.GetRegistrationStatus(r.Context(), chi.URLParam(r, "id"), actorOf(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// ─── Notifications ────────────────────────────────────────────────────────────

// ListNotifications handles GET /notifications?page=N
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.inbox.List(r.Context(), actorOf(r).ID, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UnreadCount handles GET /notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.inbox.UnreadCount(r.Context(), actorOf(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// MarkNotificationRead handles PUT /notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.inbox.MarkRead(r.Context(), actorOf(r).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ConfirmResponse{Confirmed: true})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
