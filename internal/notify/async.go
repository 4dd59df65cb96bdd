package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// ErrQueueFull is returned by Async.Notify when the queue has no room.
var ErrQueueFull = errors.New("notification queue full")

// ErrClosed is returned by Async.Notify after Close.
var ErrClosed = errors.New("notifier closed")

// deliverTimeout bounds a single delivery by the worker.
const deliverTimeout = 5 * time.Second

// Async queues notifications on a bounded channel drained by one worker
// goroutine, so callers never wait on delivery.
type Async struct {
	next  Notifier
	queue chan model.Notification

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsync starts a worker delivering to next with room for size pending
// notifications.
func NewAsync(next Notifier, size int) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		next:  next,
		queue: make(chan model.Notification, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for n := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := a.next.Notify(ctx, n); err != nil {
			log.Printf("notify: deliver failed recipient=%s kind=%s err=%v", n.RecipientID, n.Kind, err)
		}
		cancel()
	}
}

// Notify enqueues n. It never blocks: a full queue drops n and returns
// ErrQueueFull.
func (a *Async) Notify(_ context.Context, n model.Notification) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- n:
		return nil
	default:
		log.Printf("notify: queue full, dropping recipient=%s kind=%s", n.RecipientID, n.Kind)
		return ErrQueueFull
	}
}

// Close stops accepting notifications and waits until the queue is drained
// or ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
