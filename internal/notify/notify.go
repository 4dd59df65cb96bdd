// Package notify delivers user notifications produced by registration
// changes. Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// Notifier delivers a single notification.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Store persists notifications for the inbox.
type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Inbox is a Notifier that writes notifications to a Store.
type Inbox struct {
	store Store
	now   func() time.Time
}

// NewInbox constructs an Inbox writing to store.
func NewInbox(store Store) *Inbox {
	return &Inbox{store: store, now: time.Now}
}

// Notify assigns an id and timestamp when missing and stores n as unread.
func (i *Inbox) Notify(ctx context.Context, n model.Notification) error {
	if n.RecipientID == "" {
		return fmt.Errorf("notification has no recipient")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = i.now().UTC()
	}
	n.Read = false
	if err := i.store.CreateNotification(ctx, &n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n model.Notification) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, n model.Notification) error {
	return f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, model.Notification) error { return nil })
