package model

import "time"

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	Category      string     `json:"category"`
	Date          time.Time  `json:"date"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	MaxAttendees  int        `json:"maxAttendees"`
	AllowWaitlist *bool      `json:"allowWaitlist,omitempty"`
	Questions     []Question `json:"registrationQuestions,omitempty"`
}

// RegisterRequest is the payload for registering for an event.
// Responses are keyed "question_<index>".
type RegisterRequest struct {
	Responses map[string]string `json:"responses,omitempty"`
}

// RegisterResponse reports the outcome of a registration.
type RegisterResponse struct {
	Message string `json:"message"`
	Status  Status `json:"status"`
}

// ConfirmResponse acknowledges a state change.
type ConfirmResponse struct {
	Confirmed bool   `json:"confirmed"`
	Message   string `json:"message,omitempty"`
}

// Attendee is an attendee record enriched with directory fields.
type Attendee struct {
	User         AttendeeUser      `json:"user"`
	Status       Status            `json:"status"`
	RegisteredAt time.Time         `json:"registeredAt"`
	Responses    map[string]string `json:"registrationResponses,omitempty"`
}

// AttendeeUser holds the display fields shown next to an attendee.
type AttendeeUser struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

// AttendeeList partitions an event's attendees by status.
type AttendeeList struct {
	Registered []Attendee `json:"registered"`
	Waitlisted []Attendee `json:"waitlisted"`
	Cancelled  []Attendee `json:"cancelled"`
	Attended   []Attendee `json:"attended"`
}

// RegistrationStatus is a user's view of their own registration.
type RegistrationStatus struct {
	Registered   bool              `json:"registered"`
	Status       Status            `json:"status,omitempty"`
	RegisteredAt *time.Time        `json:"registeredAt,omitempty"`
	Responses    map[string]string `json:"responses,omitempty"`
}

// NotificationPage is one page of a user's inbox.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Page          int            `json:"page"`
	Pages         int            `json:"pages"`
	UnreadCount   int            `json:"unreadCount"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}
