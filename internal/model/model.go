// Package model defines the core domain types for campus event registration.
package model

import (
	"sort"
	"time"
)

// Status is the lifecycle state of one attendee record.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusWaitlisted Status = "waitlisted"
	StatusCancelled  Status = "cancelled"
	StatusAttended   Status = "attended"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusWaitlisted, StatusCancelled, StatusAttended:
		return true
	}
	return false
}

// Counted reports whether a record in this status occupies a seat.
func (s Status) Counted() bool {
	return s == StatusRegistered || s == StatusAttended
}

// Active reports whether the record still holds a registration that can be
// cancelled.
func (s Status) Active() bool {
	return s == StatusRegistered || s == StatusWaitlisted
}

// QuestionKind is the input type of a registration question.
type QuestionKind string

const (
	QuestionText     QuestionKind = "text"
	QuestionSelect   QuestionKind = "select"
	QuestionCheckbox QuestionKind = "checkbox"
)

// Valid reports whether k is a supported kind.
func (k QuestionKind) Valid() bool {
	return k == QuestionText || k == QuestionSelect || k == QuestionCheckbox
}

// Question is one registration question defined by the event creator.
type Question struct {
	Text     string       `json:"questionText"`
	Required bool         `json:"required"`
	Kind     QuestionKind `json:"type"`
	Options  []string     `json:"options,omitempty"`
}

// AttendeeRecord is a single user's registration entry for one event.
type AttendeeRecord struct {
	UserID       string         `json:"user"`
	Status       Status         `json:"status"`
	RegisteredAt time.Time      `json:"registeredAt"`
	Responses    map[int]string `json:"-"`

	// Legacy marks records synthesised from the old simple attendee list.
	// The storage layer writes them back as detailed records on save.
	Legacy bool `json:"-"`
}

// Event is a registrable campus event together with its attendee records.
type Event struct {
	ID            string           `json:"id"`
	CreatorID     string           `json:"creator"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Location      string           `json:"location"`
	Category      string           `json:"category"`
	StartsAt      time.Time        `json:"date"`
	EndsAt        *time.Time       `json:"endDate,omitempty"`
	Capacity      int              `json:"maxAttendees"`
	AllowWaitlist bool             `json:"allowWaitlist"`
	Questions     []Question       `json:"registrationQuestions"`
	Records       []AttendeeRecord `json:"-"`
	AttendeeCount int              `json:"attendeeCount"`
	Version       int64            `json:"-"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// IsFull reports whether every seat is taken. Capacity 0 means unlimited.
func (e *Event) IsFull() bool {
	return e.Capacity > 0 && e.AttendeeCount >= e.Capacity
}

// Remaining returns the number of free seats, or -1 when unlimited.
func (e *Event) Remaining() int {
	if e.Capacity == 0 {
		return -1
	}
	if n := e.Capacity - e.AttendeeCount; n > 0 {
		return n
	}
	return 0
}

// Record returns the record for userID, or nil.
func (e *Event) Record(userID string) *AttendeeRecord {
	for i := range e.Records {
		if e.Records[i].UserID == userID {
			return &e.Records[i]
		}
	}
	return nil
}

// RecountAttendees recomputes AttendeeCount from the records and returns the
// previous cached value.
func (e *Event) RecountAttendees() int {
	prev := e.AttendeeCount
	n := 0
	for _, r := range e.Records {
		if r.Status.Counted() {
			n++
		}
	}
	e.AttendeeCount = n
	return prev
}

// NextWaitlisted returns the longest-waiting waitlisted record, or nil.
// Ties on RegisteredAt go to the record stored first; stores keep records
// in insertion order.
func (e *Event) NextWaitlisted() *AttendeeRecord {
	var next *AttendeeRecord
	for i := range e.Records {
		r := &e.Records[i]
		if r.Status != StatusWaitlisted {
			continue
		}
		if next == nil || r.RegisteredAt.Before(next.RegisteredAt) {
			next = r
		}
	}
	return next
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	if e.EndsAt != nil {
		t := *e.EndsAt
		c.EndsAt = &t
	}
	c.Questions = make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = append([]string(nil), q.Options...)
		c.Questions[i] = q
	}
	c.Records = make([]AttendeeRecord, len(e.Records))
	for i, r := range e.Records {
		if r.Responses != nil {
			resp := make(map[int]string, len(r.Responses))
			for k, v := range r.Responses {
				resp[k] = v
			}
			r.Responses = resp
		}
		c.Records[i] = r
	}
	return &c
}

// SortRecords orders records by registration time, keeping stored order on ties.
func SortRecords(records []AttendeeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RegisteredAt.Before(records[j].RegisteredAt)
	})
}

// Role is a user's platform role.
type Role string

const (
	RoleUser             Role = "user"
	RoleAdmin            Role = "admin"
	RoleCommunityManager Role = "communityManager"
	RoleEventManager     Role = "eventManager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleCommunityManager, RoleEventManager:
		return true
	}
	return false
}

// User is the directory view of a platform user.
type User struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// CanManage reports whether the actor may manage attendees of ev.
func (a Actor) CanManage(ev *Event) bool {
	return a.ID == ev.CreatorID || a.Role == RoleAdmin || a.Role == RoleEventManager
}

// NotificationKind categorises a notification.
type NotificationKind string

const (
	KindEventRegistration      NotificationKind = "eventRegistration"
	KindEventWaitlistPromotion NotificationKind = "eventWaitlistPromotion"
)

// Notification is a user-facing message tied to an event.
type Notification struct {
	ID             string           `json:"_id"`
	RecipientID    string           `json:"recipient"`
	ActorID        string           `json:"sender,omitempty"`
	Kind           NotificationKind `json:"type"`
	Message        string           `json:"content"`
	RelatedEventID string           `json:"relatedItem,omitempty"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"createdAt"`
}
