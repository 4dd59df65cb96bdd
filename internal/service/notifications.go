package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// NotificationPageSize is the number of notifications per inbox page.
const NotificationPageSize = 10

// InboxService serves a user's own notifications.
type InboxService struct {
	store NotificationStore
}

// NewInboxService constructs an InboxService.
func NewInboxService(store NotificationStore) *InboxService {
	return &InboxService{store: store}
}

// List returns page (1-based) of the user's notifications, newest first.
func (s *InboxService) List(ctx context.Context, userID string, page int) (*model.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.store.ListNotifications(ctx, userID, NotificationPageSize, (page-1)*NotificationPageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("list notifications: %w", err))
	}
	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("count unread: %w", err))
	}
	if items == nil {
		items = []model.Notification{}
	}
	return &model.NotificationPage{
		Notifications: items,
		Page:          page,
		Pages:         (total + NotificationPageSize - 1) / NotificationPageSize,
		UnreadCount:   unread,
	}, nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *InboxService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("count unread: %w", err))
	}
	return n, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *InboxService) MarkRead(ctx context.Context, userID, id string) error {
	n, err := s.store.FindNotification(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.CodeNotFound, "notification not found")
		}
		return apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("get notification: %w", err))
	}
	if n.RecipientID != userID {
		return apperr.New(apperr.CodeForbidden, "not authorized to update this notification")
	}
	if err := s.store.MarkRead(ctx, id); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("mark read: %w", err))
	}
	return nil
}
