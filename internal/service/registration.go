package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/notify"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/userdir"
)

// DefaultMaxAttempts bounds how often a mutation is re-applied after losing
// a version race.
const DefaultMaxAttempts = 5

// DefaultAssociationTries bounds retries of the user→event association
// update that follows a committed change.
const DefaultAssociationTries = 4

const tracerName = "github.com/Shivanand-hulikatti/campus-events/internal/service"

// errUnchanged tells mutate the event needs no write.
var errUnchanged = errors.New("unchanged")

// Manager owns the registration lifecycle of users for events.
type Manager struct {
	events   EventStore
	users    userdir.Directory
	assoc    Associations
	notifier notify.Notifier

	locks       *keyedMutex
	maxAttempts int
	assocTries  uint
	newBackOff  func() backoff.BackOff
	now         func() time.Time
	tracer      trace.Tracer
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxAttempts sets how many times a mutation is tried before the caller
// gets a Conflict error.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithAssociationRetry sets the retry policy for association updates.
func WithAssociationRetry(tries uint, newBackOff func() backoff.BackOff) Option {
	return func(m *Manager) {
		if tries > 0 {
			m.assocTries = tries
		}
		if newBackOff != nil {
			m.newBackOff = newBackOff
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs a Manager. notifier may be nil to disable
// notifications.
func NewManager(events EventStore, users userdir.Directory, assoc Associations, notifier notify.Notifier, opts ...Option) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}
	m := &Manager{
		events:      events,
		users:       users,
		assoc:       assoc,
		notifier:    notifier,
		locks:       newKeyedMutex(),
		maxAttempts: DefaultMaxAttempts,
		assocTries:  DefaultAssociationTries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register signs userID up for the event, on the waitlist when the event is
// full and allows one.
func (m *Manager) Register(ctx context.Context, eventID, userID string, responses map[string]string) (status model.Status, err error) {
	ctx, span := m.startSpan(ctx, "Register", eventID, userID)
	defer func() { endSpan(span, err) }()

	user, err := m.lookupUser(ctx, userID)
	if err != nil {
		return "", err
	}

	ev, err := m.mutate(ctx, eventID, func(ev *model.Event) error {
		status = ""
		if ev.Record(userID) != nil {
			return apperr.New(apperr.CodeAlreadyRegistered, "")
		}
		answers, err := parseResponses(ev.Questions, responses)
		if err != nil {
			return err
		}
		full := ev.IsFull()
		if full && !ev.AllowWaitlist {
			return apperr.New(apperr.CodeCapacityExceeded, "")
		}
		status = model.StatusRegistered
		if full {
			status = model.StatusWaitlisted
		}
		ev.Records = append(ev.Records, model.AttendeeRecord{
			UserID:       userID,
			Status:       status,
			RegisteredAt: m.now().UTC(),
			Responses:    answers,
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("registration.status", string(status)))
	log.Printf("registration: registered event=%s user=%s status=%s", eventID, userID, status)

	after := context.WithoutCancel(ctx)
	m.associate(after, userID, eventID, true)
	if userID != ev.CreatorID {
		m.send(after, model.Notification{
			RecipientID:    ev.CreatorID,
			ActorID:        userID,
			Kind:           model.KindEventRegistration,
			Message:        fmt.Sprintf("%s has registered for your event \"%s\"", user.Name, ev.Title),
			RelatedEventID: ev.ID,
		})
	}
	return status, nil
}

// Cancel withdraws userID's registration or waitlist spot. A freed seat goes
// to the longest-waiting waitlisted user.
func (m *Manager) Cancel(ctx context.Context, eventID, userID string) (err error) {
	ctx, span := m.startSpan(ctx, "Cancel", eventID, userID)
	defer func() { endSpan(span, err) }()

	var promoted string
	ev, err := m.mutate(ctx, eventID, func(ev *model.Event) error {
		promoted = ""
		rec := ev.Record(userID)
		if rec == nil || !rec.Status.Active() {
			return apperr.New(apperr.CodeNotRegistered, "")
		}
		rec.Status = model.StatusCancelled
		ev.RecountAttendees()

		if ev.Capacity > 0 && ev.AttendeeCount < ev.Capacity {
			if next := ev.NextWaitlisted(); next != nil {
				next.Status = model.StatusRegistered
				promoted = next.UserID
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("registration: cancelled event=%s user=%s promoted=%q", eventID, userID, promoted)

	after := context.WithoutCancel(ctx)
	m.associate(after, userID, eventID, false)
	if promoted != "" {
		span.SetAttributes(attribute.String("registration.promoted", promoted))
		m.send(after, model.Notification{
			RecipientID:    promoted,
			ActorID:        ev.CreatorID,
			Kind:           model.KindEventWaitlistPromotion,
			Message:        fmt.Sprintf("You've been moved from the waitlist to registered for \"%s\"", ev.Title),
			RelatedEventID: ev.ID,
		})
	}
	return nil
}

// MarkAttendance records that userID attended. Only the event creator, admins
// and event managers may call it.
func (m *Manager) MarkAttendance(ctx context.Context, eventID string, actor model.Actor, userID string) (err error) {
	ctx, span := m.startSpan(ctx, "MarkAttendance", eventID, userID)
	defer func() { endSpan(span, err) }()

	_, err = m.mutate(ctx, eventID, func(ev *model.Event) error {
		if !actor.CanManage(ev) {
			return apperr.New(apperr.CodeForbidden, "not authorized to manage attendance for this event")
		}
		rec := ev.Record(userID)
		if rec == nil || rec.Status == model.StatusCancelled {
			return apperr.New(apperr.CodeNotRegistered, "user is not registered for this event")
		}
		if rec.Status == model.StatusAttended {
			return errUnchanged
		}
		if rec.Legacy {
			rec.RegisteredAt = m.now().UTC()
			rec.Legacy = false
		}
		rec.Status = model.StatusAttended
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("registration: attended event=%s user=%s by=%s", eventID, userID, actor.ID)
	return nil
}

// GetAttendees lists the event's attendees partitioned by status, oldest
// registration first.
func (m *Manager) GetAttendees(ctx context.Context, eventID string, actor model.Actor) (list *model.AttendeeList, err error) {
	ctx, span := m.startSpan(ctx, "GetAttendees", eventID, actor.ID)
	defer func() { endSpan(span, err) }()

	ev, err := m.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(ev) {
		return nil, apperr.New(apperr.CodeForbidden, "not authorized to view attendees for this event")
	}

	model.SortRecords(ev.Records)
	ids := make([]string, len(ev.Records))
	for i, r := range ev.Records {
		ids[i] = r.UserID
	}
	users, err := m.users.LookupUsers(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("lookup attendees: %w", err))
	}

	list = &model.AttendeeList{
		Registered: []model.Attendee{},
		Waitlisted: []model.Attendee{},
		Cancelled:  []model.Attendee{},
		Attended:   []model.Attendee{},
	}
	for _, r := range ev.Records {
		u := users[r.UserID]
		a := model.Attendee{
			User: model.AttendeeUser{
				ID:             r.UserID,
				Name:           u.Name,
				Email:          u.Email,
				ProfilePicture: u.ProfilePicture,
			},
			Status:       r.Status,
			RegisteredAt: r.RegisteredAt,
			Responses:    formatResponses(r.Responses),
		}
		switch r.Status {
		case model.StatusRegistered:
			list.Registered = append(list.Registered, a)
		case model.StatusWaitlisted:
			list.Waitlisted = append(list.Waitlisted, a)
		case model.StatusCancelled:
			list.Cancelled = append(list.Cancelled, a)
		case model.StatusAttended:
			list.Attended = append(list.Attended, a)
		}
	}
	return list, nil
}

// GetRegistrationStatus reports userID's own registration for the event.
func (m *Manager) GetRegistrationStatus(ctx context.Context, eventID, userID string) (status *model.RegistrationStatus, err error) {
	ctx, span := m.startSpan(ctx, "GetRegistrationStatus", eventID, userID)
	defer func() { endSpan(span, err) }()

	ev, err := m.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	rec := ev.Record(userID)
	if rec == nil {
		return &model.RegistrationStatus{Registered: false}, nil
	}
	registeredAt := rec.RegisteredAt
	return &model.RegistrationStatus{
		Registered:   true,
		Status:       rec.Status,
		RegisteredAt: &registeredAt,
		Responses:    formatResponses(rec.Responses),
	}, nil
}

// mutate applies fn to a fresh copy of the event and saves it, re-reading
// and re-applying on version conflicts. Mutations of one event are
// serialised within the process; the store's version check covers other
// processes. fn must not keep state between calls.
func (m *Manager) mutate(ctx context.Context, eventID string, fn func(ev *model.Event) error) (*model.Event, error) {
	unlock := m.locks.Lock(eventID)
	defer unlock()

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "", err)
		}
		ev, err := m.loadEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		ev.RecountAttendees()

		if err := fn(ev); err != nil {
			if errors.Is(err, errUnchanged) {
				return ev, nil
			}
			return nil, err
		}
		ev.RecountAttendees()

		err = m.events.SaveEvent(ctx, ev)
		switch {
		case err == nil:
			return ev, nil
		case errors.Is(err, repository.ErrVersionConflict):
			log.Printf("registration: version conflict event=%s attempt=%d/%d", eventID, attempt, m.maxAttempts)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.New(apperr.CodeNotFound, "event not found")
		default:
			return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("save event: %w", err))
		}
	}
	return nil, apperr.New(apperr.CodeConflict, "")
}

func (m *Manager) loadEvent(ctx context.Context, eventID string) (*model.Event, error) {
	ev, err := m.events.FindEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "event not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("get event: %w", err))
	}
	return ev, nil
}

func (m *Manager) lookupUser(ctx context.Context, userID string) (model.User, error) {
	users, err := m.users.LookupUsers(ctx, []string{userID})
	if err != nil {
		return model.User{}, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("lookup user: %w", err))
	}
	u, ok := users[userID]
	if !ok {
		return model.User{}, apperr.New(apperr.CodeNotFound, "user not found")
	}
	return u, nil
}

// associate updates the user→event set after a commit. Failures are logged;
// the reconcile command repairs drift.
func (m *Manager) associate(ctx context.Context, userID, eventID string, add bool) {
	op := func() (struct{}, error) {
		if add {
			return struct{}{}, m.assoc.AddUserEvent(ctx, userID, eventID)
		}
		return struct{}{}, m.assoc.RemoveUserEvent(ctx, userID, eventID)
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(m.newBackOff()),
		backoff.WithMaxTries(m.assocTries),
	)
	if err != nil {
		log.Printf("registration: association update failed user=%s event=%s add=%t err=%v", userID, eventID, add, err)
	}
}

func (m *Manager) send(ctx context.Context, n model.Notification) {
	if err := m.notifier.Notify(ctx, n); err != nil {
		log.Printf("registration: notify failed recipient=%s kind=%s err=%v", n.RecipientID, n.Kind, err)
	}
}

func (m *Manager) startSpan(ctx context.Context, op, eventID, userID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "registration."+op, trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
	}
	span.End()
}
