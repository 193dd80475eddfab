package identity

import (
	"context"
	"errors"
)

var (
	// ErrUsernameTaken and ErrEmailTaken surface the store's uniqueness
	// constraints. Concurrent registrations race on these constraints, so
	// Create must report them distinguishably even when the pre-check saw
	// no conflict.
	ErrUsernameTaken = errors.New("identity: username already taken")
	ErrEmailTaken    = errors.New("identity: email already taken")
	ErrDuplicate     = errors.New("identity: duplicate record")
)

// NewUserParams carries the fields persisted for a fresh registration.
// Role assignment and active status come from store defaults.
type NewUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// Store is the persistence contract the auth core depends on.
// Lookups that feed policy checks must return role-joined records.
// A nil user with a nil error means "not found".
type Store interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByIDForManagement(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, p NewUserParams) (int64, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}
