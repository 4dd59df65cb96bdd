package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// MemoryStore keeps events, users and notifications in process memory. It
// honours the same contracts as the Postgres repositories, including the
// version check in SaveEvent.
type MemoryStore struct {
	mu            sync.RWMutex
	events        map[string]*model.Event
	legacy        map[string][]string
	users         map[string]model.User
	userEvents    map[string]map[string]time.Time
	notifications []model.Notification
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:     map[string]*model.Event{},
		legacy:     map[string][]string{},
		users:      map[string]model.User{},
		userEvents: map[string]map[string]time.Time{},
	}
}

// CreateEvent stores a copy of ev at version 1.
func (s *MemoryStore) CreateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; ok {
		return ErrAlreadyExists
	}
	ev.Version = 1
	s.events[ev.ID] = ev.Clone()
	return nil
}

// ListEvents returns all events ordered by start time, without records.
// Attendee counts include legacy attendees.
func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, 0, len(s.events))
	for id, ev := range s.events {
		c := ev.Clone()
		settle(c, s.legacy[id])
		c.Records = nil
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

// FindEvent returns a copy of the event with legacy ids folded in.
func (s *MemoryStore) FindEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := ev.Clone()
	settle(c, s.legacy[id])
	return c, nil
}

// SaveEvent replaces the stored event if its version matches.
func (s *MemoryStore) SaveEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.events[ev.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != ev.Version {
		return ErrVersionConflict
	}
	ev.Version++
	ev.UpdatedAt = time.Now().UTC()
	clearLegacy(ev)
	s.events[ev.ID] = ev.Clone()
	delete(s.legacy, ev.ID)
	return nil
}

// AddLegacyAttendees records ids in the legacy simple list of an event.
func (s *MemoryStore) AddLegacyAttendees(_ context.Context, eventID string, userIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return ErrNotFound
	}
	for _, uid := range userIDs {
		if !contains(s.legacy[eventID], uid) {
			s.legacy[eventID] = append(s.legacy[eventID], uid)
		}
	}
	return nil
}

// CreateUser stores u; emails are unique case-insensitively.
func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return ErrAlreadyExists
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrAlreadyExists
		}
	}
	s.users[u.ID] = *u
	return nil
}

// LookupUsers returns the known users among ids.
func (s *MemoryStore) LookupUsers(_ context.Context, ids []string) (map[string]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// AddUserEvent records the association; adding twice is a no-op.
func (s *MemoryStore) AddUserEvent(_ context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.userEvents[userID]
	if !ok {
		set = map[string]time.Time{}
		s.userEvents[userID] = set
	}
	if _, ok := set[eventID]; !ok {
		set[eventID] = time.Now()
	}
	return nil
}

// RemoveUserEvent drops the association if present.
func (s *MemoryStore) RemoveUserEvent(_ context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userEvents[userID], eventID)
	return nil
}

// ListUserEvents returns the user's event ids in insertion order.
func (s *MemoryStore) ListUserEvents(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.userEvents[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := set[ids[i]], set[ids[j]]
		if ti.Equal(tj) {
			return ids[i] < ids[j]
		}
		return ti.Before(tj)
	})
	return ids, nil
}

// ReconcileUserEvents rebuilds the association set from attendee records.
func (s *MemoryStore) ReconcileUserEvents(_ context.Context) (added, removed int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := map[string]map[string]bool{}
	mark := func(uid, eid string) {
		if want[uid] == nil {
			want[uid] = map[string]bool{}
		}
		want[uid][eid] = true
	}
	for eid, ev := range s.events {
		for _, r := range ev.Records {
			if r.Status != model.StatusCancelled {
				mark(r.UserID, eid)
			}
		}
		for _, uid := range s.legacy[eid] {
			mark(uid, eid)
		}
	}

	now := time.Now()
	for uid, eids := range want {
		if s.userEvents[uid] == nil {
			s.userEvents[uid] = map[string]time.Time{}
		}
		for eid := range eids {
			if _, ok := s.userEvents[uid][eid]; !ok {
				s.userEvents[uid][eid] = now
				added++
			}
		}
	}
	for uid, set := range s.userEvents {
		for eid := range set {
			if !want[uid][eid] {
				delete(set, eid)
				removed++
			}
		}
	}
	return added, removed, nil
}

// CreateNotification appends n.
func (s *MemoryStore) CreateNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

// ListNotifications returns one page of the recipient's notifications,
// newest first, and the recipient's total count.
func (s *MemoryStore) ListNotifications(_ context.Context, recipientID string, limit, offset int) ([]model.Notification, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var mine []model.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].RecipientID == recipientID {
			mine = append(mine, s.notifications[i])
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })

	total := len(mine)
	if offset >= total {
		return []model.Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

// CountUnread returns the recipient's unread count.
func (s *MemoryStore) CountUnread(_ context.Context, recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, note := range s.notifications {
		if note.RecipientID == recipientID && !note.Read {
			n++
		}
	}
	return n, nil
}

// FindNotification returns a single notification or ErrNotFound.
func (s *MemoryStore) FindNotification(_ context.Context, id string) (*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notifications {
		if n.ID == id {
			n := n
			return &n, nil
		}
	}
	return nil, ErrNotFound
}

// MarkRead flags the notification as read.
func (s *MemoryStore) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
