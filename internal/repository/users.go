package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// UserRepository is the user directory and the per-user event association
// set.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a directory entry. A taken email yields ErrAlreadyExists.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, name, email, role, profile_picture, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.Role, u.ProfilePicture, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// LookupUsers returns the users with the given ids. Unknown ids are absent
// from the result.
func (r *UserRepository) LookupUsers(ctx context.Context, ids []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, role, profile_picture, created_at FROM users WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.User, error) {
		var u model.User
		err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.ProfilePicture, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// AddUserEvent records the association; adding twice is a no-op.
func (r *UserRepository) AddUserEvent(ctx context.Context, userID, eventID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_events (user_id, event_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("add user event: %w", err)
	}
	return nil
}

// RemoveUserEvent drops the association if present.
func (r *UserRepository) RemoveUserEvent(ctx context.Context, userID, eventID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM user_events WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return fmt.Errorf("remove user event: %w", err)
	}
	return nil
}

// ListUserEvents returns the ids of events the user is associated with, in
// the order they were added.
func (r *UserRepository) ListUserEvents(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event_id FROM user_events WHERE user_id = $1 ORDER BY added_at ASC, event_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan user events: %w", err)
	}
	return ids, nil
}

// ReconcileUserEvents rebuilds the association set from the event side,
// which is the source of truth: every non-cancelled attendee record (or
// legacy entry) has an association and nothing else does.
func (r *UserRepository) ReconcileUserEvents(ctx context.Context) (added, removed int64, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx,
		`INSERT INTO user_events (user_id, event_id)
		 SELECT user_id, event_id FROM attendee_records WHERE status <> 'cancelled'
		 UNION
		 SELECT user_id, event_id FROM legacy_attendees
		 ON CONFLICT DO NOTHING`,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("insert missing associations: %w", err)
	}
	added = tag.RowsAffected()

	tag, err = tx.Exec(ctx,
		`DELETE FROM user_events ue
		 WHERE NOT EXISTS (
		     SELECT 1 FROM attendee_records ar
		     WHERE ar.event_id = ue.event_id AND ar.user_id = ue.user_id AND ar.status <> 'cancelled'
		 )
		 AND NOT EXISTS (
		     SELECT 1 FROM legacy_attendees la
		     WHERE la.event_id = ue.event_id AND la.user_id = ue.user_id
		 )`,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("delete stale associations: %w", err)
	}
	removed = tag.RowsAffected()

	if err = tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit transaction: %w", err)
	}
	return added, removed, nil
}
