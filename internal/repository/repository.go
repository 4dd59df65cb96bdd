// Package repository implements persistence for events, attendee records,
// users and notifications. The Postgres stores use pgx directly (no ORM);
// MemoryStore backs tests and the STORE=memory dev mode.
package repository

import (
	"errors"
	"log"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned by SaveEvent when the stored event changed
// since it was read. Callers re-read and retry.
var ErrVersionConflict = errors.New("event version conflict")

// ErrAlreadyExists is returned when a unique key is already taken.
var ErrAlreadyExists = errors.New("already exists")

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// foldLegacy adapts the legacy simple attendee list into detailed records.
// Ids that already have a detailed record are ignored; the rest become
// registered records dated at the event's creation.
func foldLegacy(ev *model.Event, legacy []string) {
	for _, uid := range legacy {
		if ev.Record(uid) != nil {
			continue
		}
		ev.Records = append(ev.Records, model.AttendeeRecord{
			UserID:       uid,
			Status:       model.StatusRegistered,
			RegisteredAt: ev.CreatedAt,
			Legacy:       true,
		})
	}
}

// settle folds legacy ids into ev and recomputes the cached attendee count,
// so every event handed out by a store agrees with its own records.
func settle(ev *model.Event, legacy []string) {
	foldLegacy(ev, legacy)
	if cached := ev.RecountAttendees(); cached != ev.AttendeeCount {
		log.Printf("repository: attendee count drift event=%s cached=%d actual=%d", ev.ID, cached, ev.AttendeeCount)
	}
}

func clearLegacy(ev *model.Event) {
	for i := range ev.Records {
		ev.Records[i].Legacy = false
	}
}
