package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

type recordingStore struct {
	mu    sync.Mutex
	items []model.Notification
}

func (s *recordingStore) CreateNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *n)
	return nil
}

func (s *recordingStore) all() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification(nil), s.items...)
}

func TestInboxAssignsIDAndTime(t *testing.T) {
	store := &recordingStore{}
	inbox := NewInbox(store)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	inbox.now = func() time.Time { return fixed }

	err := inbox.Notify(context.Background(), model.Notification{
		RecipientID: "u1", Kind: model.KindEventRegistration, Message: "hi", Read: true,
	})
	require.NoError(t, err)

	got := store.all()
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, fixed, got[0].CreatedAt)
	assert.False(t, got[0].Read)
}

func TestInboxRequiresRecipient(t *testing.T) {
	err := NewInbox(&recordingStore{}).Notify(context.Background(), model.Notification{Message: "hi"})
	assert.Error(t, err)
}

func TestAsyncDeliversAndDrainsOnClose(t *testing.T) {
	store := &recordingStore{}
	a := NewAsync(NewInbox(store), 16)

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Notify(context.Background(), model.Notification{RecipientID: "u1"}))
	}
	require.NoError(t, a.Close(context.Background()))
	assert.Len(t, store.all(), 10)

	assert.ErrorIs(t, a.Notify(context.Background(), model.Notification{RecipientID: "u1"}), ErrClosed)
	require.NoError(t, a.Close(context.Background()), "second close is a no-op")
}

func TestAsyncDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := Func(func(context.Context, model.Notification) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})
	a := NewAsync(blocking, 1)

	// First is picked up by the worker, second fills the queue.
	require.NoError(t, a.Notify(context.Background(), model.Notification{RecipientID: "a"}))
	<-started
	require.NoError(t, a.Notify(context.Background(), model.Notification{RecipientID: "b"}))
	assert.ErrorIs(t, a.Notify(context.Background(), model.Notification{RecipientID: "c"}), ErrQueueFull)

	close(release)
	require.NoError(t, a.Close(context.Background()))
}

func TestAsyncLogsDeliveryErrors(t *testing.T) {
	var calls int
	var mu sync.Mutex
	failing := Func(func(context.Context, model.Notification) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("boom")
	})
	a := NewAsync(failing, 4)
	require.NoError(t, a.Notify(context.Background(), model.Notification{RecipientID: "u1"}))
	require.NoError(t, a.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}
