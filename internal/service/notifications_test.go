package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

func TestInboxPaging(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewInboxService(store)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		require.NoError(t, store.CreateNotification(ctx, &model.Notification{
			ID:          fmt.Sprintf("n%02d", i),
			RecipientID: "u1",
			CreatedAt:   baseTime.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := svc.List(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 12, page.UnreadCount)
	require.Len(t, page.Notifications, NotificationPageSize)
	assert.Equal(t, "n11", page.Notifications[0].ID)

	page, err = svc.List(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)

	page, err = svc.List(ctx, "nobody", 1)
	require.NoError(t, err)
	assert.NotNil(t, page.Notifications)
	assert.Equal(t, 0, page.Pages)
}

func TestInboxMarkRead(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewInboxService(store)
	ctx := context.Background()
	require.NoError(t, store.CreateNotification(ctx, &model.Notification{ID: "n1", RecipientID: "u1"}))

	assert.ErrorIs(t, svc.MarkRead(ctx, "u2", "n1"), apperr.ErrForbidden)
	assert.ErrorIs(t, svc.MarkRead(ctx, "u1", "missing"), apperr.ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, "u1", "n1"))

	n, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
