package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"pgregory.net/rapid"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// TestRegistrationInvariants drives random Register/Cancel sequences and
// checks the seat invariants after every step.
func TestRegistrationInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		mgr := NewManager(store, store, store, nil,
			WithAssociationRetry(1, func() backoff.BackOff { return &backoff.ZeroBackOff{} }))

		capacity := rapid.IntRange(0, 4).Draw(t, "capacity")
		waitlist := rapid.Bool().Draw(t, "waitlist")
		users := rapid.IntRange(1, 8).Draw(t, "users")
		if err := store.CreateEvent(ctx, &model.Event{ID: "e", CreatorID: "c", Title: "T", Capacity: capacity, AllowWaitlist: waitlist}); err != nil {
			t.Fatalf("create event: %v", err)
		}
		for i := 0; i < users; i++ {
			if err := store.CreateUser(ctx, &model.User{ID: fmt.Sprintf("u%d", i), Name: "n"}); err != nil {
				t.Fatalf("create user: %v", err)
			}
		}

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for s := 0; s < steps; s++ {
			uid := fmt.Sprintf("u%d", rapid.IntRange(0, users-1).Draw(t, "user"))
			before, _ := store.FindEvent(ctx, "e")
			prior := before.Record(uid)

			if rapid.Bool().Draw(t, "register") {
				status, err := mgr.Register(ctx, "e", uid, nil)
				switch {
				case prior != nil:
					if !errors.Is(err, apperr.ErrAlreadyRegistered) {
						t.Fatalf("re-register %s: got %v", uid, err)
					}
				case before.IsFull() && !waitlist:
					if !errors.Is(err, apperr.ErrCapacityExceeded) {
						t.Fatalf("register into full event: got %v", err)
					}
				case err != nil:
					t.Fatalf("register %s: %v", uid, err)
				case before.IsFull() && status != model.StatusWaitlisted:
					t.Fatalf("full event gave status %s", status)
				case !before.IsFull() && status != model.StatusRegistered:
					t.Fatalf("open event gave status %s", status)
				}
			} else {
				err := mgr.Cancel(ctx, "e", uid)
				active := prior != nil && prior.Status.Active()
				if active && err != nil {
					t.Fatalf("cancel %s: %v", uid, err)
				}
				if !active && !errors.Is(err, apperr.ErrNotRegistered) {
					t.Fatalf("cancel inactive %s: got %v", uid, err)
				}
			}

			ev, err := store.FindEvent(ctx, "e")
			if err != nil {
				t.Fatalf("find event: %v", err)
			}
			checkInvariants(t, ev)
		}
	})
}

func checkInvariants(t *rapid.T, ev *model.Event) {
	seen := map[string]bool{}
	for _, r := range ev.Records {
		if seen[r.UserID] {
			t.Fatalf("duplicate record for %s", r.UserID)
		}
		seen[r.UserID] = true
	}
	counted := countStatus(ev, model.StatusRegistered) + countStatus(ev, model.StatusAttended)
	if ev.AttendeeCount != counted {
		t.Fatalf("attendeeCount %d, records say %d", ev.AttendeeCount, counted)
	}
	if ev.Capacity > 0 && counted > ev.Capacity {
		t.Fatalf("%d seats taken of %d", counted, ev.Capacity)
	}
	if waiting := countStatus(ev, model.StatusWaitlisted); waiting > 0 && !ev.IsFull() {
		t.Fatalf("%d waiting while seats are free", waiting)
	}
	if !ev.AllowWaitlist && countStatus(ev, model.StatusWaitlisted) > 0 {
		t.Fatalf("waitlist used while disabled")
	}
}
