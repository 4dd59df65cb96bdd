package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// MaxCapacity is the largest seat limit an event may declare.
const MaxCapacity = 100_000

// EventService orchestrates event-related business operations.
type EventService struct {
	events EventStore
	assoc  Associations
	now    func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, assoc Associations) *EventService {
	return &EventService{events: events, assoc: assoc, now: time.Now}
}

// CreateEvent validates the request and stores a new event owned by actor.
func (s *EventService) CreateEvent(ctx context.Context, actor model.Actor, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, apperr.New(apperr.CodeValidation, "title is required").WithMeta("field", "title")
	}
	if req.MaxAttendees < 0 {
		return nil, apperr.New(apperr.CodeValidation, "maxAttendees cannot be negative").WithMeta("field", "maxAttendees")
	}
	if req.MaxAttendees > MaxCapacity {
		return nil, apperr.New(apperr.CodeValidation, "maxAttendees cannot exceed 100,000").WithMeta("field", "maxAttendees")
	}
	if req.Date.IsZero() {
		return nil, apperr.New(apperr.CodeValidation, "date is required").WithMeta("field", "date")
	}
	if req.EndDate != nil && req.EndDate.Before(req.Date) {
		return nil, apperr.New(apperr.CodeValidation, "endDate must not be before date").WithMeta("field", "endDate")
	}
	for i := range req.Questions {
		req.Questions[i].Text = strings.TrimSpace(req.Questions[i].Text)
		if req.Questions[i].Kind == "" {
			req.Questions[i].Kind = model.QuestionText
		}
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	allowWaitlist := true
	if req.AllowWaitlist != nil {
		allowWaitlist = *req.AllowWaitlist
	}
	now := s.now().UTC()
	ev := &model.Event{
		ID:            uuid.NewString(),
		CreatorID:     actor.ID,
		Title:         req.Title,
		Description:   strings.TrimSpace(req.Description),
		Location:      strings.TrimSpace(req.Location),
		Category:      strings.TrimSpace(req.Category),
		StartsAt:      req.Date.UTC(),
		EndsAt:        req.EndDate,
		Capacity:      req.MaxAttendees,
		AllowWaitlist: allowWaitlist,
		Questions:     req.Questions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.events.CreateEvent(ctx, ev); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("create event: %w", err))
	}
	log.Printf("events: created event=%s creator=%s capacity=%d", ev.ID, ev.CreatorID, ev.Capacity)
	return ev, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("list events: %w", err))
	}
	return events, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperr.New(apperr.CodeValidation, "event id is required")
	}
	event, err := s.events.FindEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "event not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("get event: %w", err))
	}
	return event, nil
}

// MyEvents returns the events in the user's association set. Ids whose
// event no longer exists are skipped.
func (s *EventService) MyEvents(ctx context.Context, userID string) ([]model.Event, error) {
	ids, err := s.assoc.ListUserEvents(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("list user events: %w", err))
	}
	events := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		ev, err := s.events.FindEvent(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("get event: %w", err))
		}
		events = append(events, *ev)
	}
	return events, nil
}
