package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

const eventColumns = `id, creator_id, title, description, location, category, starts_at, ends_at,
	capacity, allow_waitlist, questions, attendee_count, version, created_at, updated_at`

// listColumns mirrors eventColumns but derives attendee_count from the seat
// holding records plus legacy ids that have no detailed record yet.
const listColumns = `e.id, e.creator_id, e.title, e.description, e.location, e.category, e.starts_at, e.ends_at,
	e.capacity, e.allow_waitlist, e.questions,
	(SELECT count(*) FROM attendee_records r
	  WHERE r.event_id = e.id AND r.status IN ('registered', 'attended'))
	+ (SELECT count(*) FROM legacy_attendees l
	  WHERE l.event_id = e.id
	    AND NOT EXISTS (SELECT 1 FROM attendee_records r WHERE r.event_id = l.event_id AND r.user_id = l.user_id)),
	e.version, e.created_at, e.updated_at`

// EventRepository handles persistence for events and their attendee records.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e         model.Event
		questions []byte
	)
	err := row.Scan(
		&e.ID, &e.CreatorID, &e.Title, &e.Description, &e.Location, &e.Category,
		&e.StartsAt, &e.EndsAt, &e.Capacity, &e.AllowWaitlist, &questions,
		&e.AttendeeCount, &e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &e, nil
}

func scanRecord(row pgx.CollectableRow) (model.AttendeeRecord, error) {
	var (
		rec       model.AttendeeRecord
		responses []byte
	)
	if err := row.Scan(&rec.UserID, &rec.Status, &rec.RegisteredAt, &responses); err != nil {
		return rec, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &rec.Responses); err != nil {
			return rec, fmt.Errorf("decode responses: %w", err)
		}
	}
	if len(rec.Responses) == 0 {
		rec.Responses = nil
	}
	return rec, nil
}

// CreateEvent inserts a new event at version 1.
func (r *EventRepository) CreateEvent(ctx context.Context, ev *model.Event) error {
	questions, err := json.Marshal(nonNilQuestions(ev.Questions))
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	ev.Version = 1

	_, err = r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		ev.ID, ev.CreatorID, ev.Title, ev.Description, ev.Location, ev.Category,
		ev.StartsAt, ev.EndsAt, ev.Capacity, ev.AllowWaitlist, questions,
		ev.AttendeeCount, ev.Version, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns all events ordered by start time, without attendee
// records. Attendee counts are computed from the records, not the cached
// column.
func (r *EventRepository) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+listColumns+` FROM events e ORDER BY e.starts_at ASC, e.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Event, error) {
		e, err := scanEvent(row)
		if err != nil {
			return model.Event{}, err
		}
		return *e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

// FindEvent loads one event with its attendee records from a single
// snapshot. Legacy attendee ids are folded into detailed records.
func (r *EventRepository) FindEvent(ctx context.Context, id string) (*model.Event, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ev, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT user_id, status, registered_at, responses
		 FROM attendee_records
		 WHERE event_id = $1
		 ORDER BY registered_at ASC, seq ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendee records: %w", err)
	}
	ev.Records, err = pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan attendee records: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT user_id FROM legacy_attendees WHERE event_id = $1 ORDER BY user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list legacy attendees: %w", err)
	}
	legacy, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan legacy attendees: %w", err)
	}
	settle(ev, legacy)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit read: %w", err)
	}
	return ev, nil
}

// SaveEvent persists the attendee state of ev if, and only if, the stored
// version still equals ev.Version.
//
// The event row is locked with SELECT … FOR UPDATE for the length of the
// transaction, so two writers that read the same version cannot both pass
// the version check: the second one blocks until the first commits and then
// sees the bumped version. On success ev.Version is advanced.
func (r *EventRepository) SaveEvent(ctx context.Context, ev *model.Event) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var stored int64
	err = tx.QueryRow(ctx, `SELECT version FROM events WHERE id = $1 FOR UPDATE`, ev.ID).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}
	if stored != ev.Version {
		err = ErrVersionConflict
		return err
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	batch.Queue(
		`UPDATE events SET attendee_count = $2, version = version + 1, updated_at = $3 WHERE id = $1`,
		ev.ID, ev.AttendeeCount, now,
	)
	for _, rec := range ev.Records {
		responses, mErr := json.Marshal(nonNilResponses(rec.Responses))
		if mErr != nil {
			err = fmt.Errorf("encode responses: %w", mErr)
			return err
		}
		batch.Queue(
			`INSERT INTO attendee_records (event_id, user_id, status, registered_at, responses)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (event_id, user_id) DO UPDATE
			 SET status = EXCLUDED.status, registered_at = EXCLUDED.registered_at, responses = EXCLUDED.responses`,
			ev.ID, rec.UserID, rec.Status, rec.RegisteredAt, responses,
		)
	}
	// Every legacy id now has a detailed row.
	batch.Queue(`DELETE FROM legacy_attendees WHERE event_id = $1`, ev.ID)

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	ev.Version = stored + 1
	ev.UpdatedAt = now
	clearLegacy(ev)
	return nil
}

// AddLegacyAttendees records ids in the legacy simple list. It exists for
// importing data from the previous system.
func (r *EventRepository) AddLegacyAttendees(ctx context.Context, eventID string, userIDs ...string) error {
	batch := &pgx.Batch{}
	for _, uid := range userIDs {
		batch.Queue(`INSERT INTO legacy_attendees (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, eventID, uid)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert legacy attendees: %w", err)
	}
	return nil
}

func nonNilQuestions(q []model.Question) []model.Question {
	if q == nil {
		return []model.Question{}
	}
	return q
}

func nonNilResponses(r map[int]string) map[int]string {
	if r == nil {
		return map[int]string{}
	}
	return r
}
