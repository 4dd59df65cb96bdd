// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// EventStore is the persistence the services need for events. SaveEvent
// must fail with repository.ErrVersionConflict when ev.Version is stale and
// bump ev.Version on success.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *model.Event) error
	ListEvents(ctx context.Context) ([]model.Event, error)
	FindEvent(ctx context.Context, id string) (*model.Event, error)
	SaveEvent(ctx context.Context, ev *model.Event) error
}

// Associations is the per-user set of events the user is signed up for.
type Associations interface {
	AddUserEvent(ctx context.Context, userID, eventID string) error
	RemoveUserEvent(ctx context.Context, userID, eventID string) error
	ListUserEvents(ctx context.Context, userID string) ([]string, error)
}

// UserStore writes directory entries and repairs associations.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	ReconcileUserEvents(ctx context.Context) (added, removed int64, err error)
}

// NotificationStore is the read side of the notification inbox.
type NotificationStore interface {
	ListNotifications(ctx context.Context, recipientID string, limit, offset int) ([]model.Notification, int, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	FindNotification(ctx context.Context, id string) (*model.Notification, error)
	MarkRead(ctx context.Context, id string) error
}
