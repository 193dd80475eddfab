package auth

import "errors"

// Terminal conditions of the auth flows. Each is a distinguishable kind so
// the HTTP boundary can map kind to status code without string matching.
var (
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrUserCreationFailed = errors.New("user creation failed")
	ErrAccountNotExists   = errors.New("account does not exist")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccessRevoked      = errors.New("access has been revoked")
	ErrNoSystemAccess     = errors.New("no system access")
)

// AccessError wraps a terminal kind with the complete list of violated
// system-access rules. errors.Is matches the kind; errors.As recovers the
// details for structured responses.
type AccessError struct {
	Kind    error
	Details []string
}

func (e *AccessError) Error() string { return e.Kind.Error() }

func (e *AccessError) Unwrap() error { return e.Kind }
