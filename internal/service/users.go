package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// UserService maintains directory entries and the association set.
type UserService struct {
	users UserStore
	now   func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: time.Now}
}

// CreateUser validates and stores a directory user.
func (s *UserService) CreateUser(ctx context.Context, name, email string, role model.Role) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return nil, apperr.New(apperr.CodeValidation, "name is required").WithMeta("field", "name")
	}
	if !isValidEmail(email) {
		return nil, apperr.New(apperr.CodeValidation, "email is not a valid email address").WithMeta("field", "email")
	}
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, apperr.New(apperr.CodeValidation, fmt.Sprintf("unknown role %q", role)).WithMeta("field", "role")
	}

	u := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperr.New(apperr.CodeValidation, "email is already in use").WithMeta("field", "email")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "", fmt.Errorf("create user: %w", err))
	}
	return u, nil
}

// Reconcile rebuilds every user's event set from the attendee records.
func (s *UserService) Reconcile(ctx context.Context) (added, removed int64, err error) {
	added, removed, err = s.users.ReconcileUserEvents(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reconcile user events: %w", err)
	}
	log.Printf("users: reconciled associations added=%d removed=%d", added, removed)
	return added, removed, nil
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
