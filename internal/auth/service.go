package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"staff-portal/internal/audit"
	"staff-portal/internal/identity"
	"staff-portal/internal/rbac"
	"staff-portal/pkg/logger"
)

// Service orchestrates the authentication flows: registration, login,
// token-based identity verification and refresh. It owns no state beyond
// its collaborators; every flow is a synchronous sequence of blocking steps
// that fails fast on the first terminal condition.
type Service struct {
	store  identity.Store
	tokens *Manager
	policy *rbac.Engine
	audit  *audit.Service
	clock  func() time.Time
}

func NewService(store identity.Store, tokens *Manager, policy *rbac.Engine, trail *audit.Service) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		policy: policy,
		audit:  trail,
		clock:  time.Now,
	}
}

// Result is the identity payload for a successful register or login.
// User is always the safe projection; the password hash never leaves
// the service.
type Result struct {
	User           identity.SafeUser `json:"user"`
	Tokens         TokenPair         `json:"tokens"`
	AccessWarnings []string          `json:"accessWarnings,omitempty"`
	AccessLevel    int               `json:"accessLevel,omitempty"`
}

// Register creates an account and signs it in. The store's uniqueness
// constraints back the pre-check, so a racing duplicate still surfaces as
// the right kind.
func (s *Service) Register(ctx context.Context, username, email, password string) (Result, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.store.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		// Username collision wins when both collide.
		if existing.Username == username {
			s.audit.Record(ctx, audit.ActionRegister, 0, username, "username_exists")
			return Result{}, ErrUsernameExists
		}
		s.audit.Record(ctx, audit.ActionRegister, 0, username, "email_exists")
		return Result{}, ErrEmailExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Result{}, err
	}

	id, err := s.store.Create(ctx, identity.NewUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUsernameTaken):
			return Result{}, ErrUsernameExists
		case errors.Is(err, identity.ErrEmailTaken):
			return Result{}, ErrEmailExists
		case errors.Is(err, identity.ErrDuplicate):
			return Result{}, ErrUsernameExists
		}
		return Result{}, err
	}

	created, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if created == nil {
		return Result{}, ErrUserCreationFailed
	}

	access := s.policy.ValidateSystemAccess(created)
	if !access.IsValid {
		s.audit.Record(ctx, audit.ActionRegister, id, username, "no_system_access")
		return Result{}, &AccessError{Kind: ErrNoSystemAccess, Details: access.Errors}
	}

	pair, err := s.tokens.IssuePair(s.clock(), created)
	if err != nil {
		return Result{}, err
	}

	s.audit.Record(ctx, audit.ActionRegister, id, username, audit.OutcomeSuccess)

	warnings := access.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Result{User: created.Safe(), Tokens: pair, AccessWarnings: warnings}, nil
}

// Login authenticates a username/password pair and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (Result, error) {
	username = strings.TrimSpace(username)

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return Result{}, err
	}
	if user == nil {
		s.audit.Record(ctx, audit.ActionLogin, 0, username, "account_not_exists")
		return Result{}, ErrAccountNotExists
	}
	if !user.IsActive {
		s.audit.Record(ctx, audit.ActionLogin, user.ID, username, "account_deactivated")
		return Result{}, ErrAccountDeactivated
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.audit.Record(ctx, audit.ActionLogin, user.ID, username, "invalid_credentials")
		return Result{}, ErrInvalidCredentials
	}

	access := s.policy.ValidateSystemAccess(user)
	if !access.IsValid {
		s.audit.Record(ctx, audit.ActionLogin, user.ID, username, "no_system_access")
		return Result{}, &AccessError{Kind: ErrNoSystemAccess, Details: access.Errors}
	}

	pair, err := s.tokens.IssuePair(s.clock(), user)
	if err != nil {
		return Result{}, err
	}

	// Best-effort; a failed timestamp update must not fail the login.
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.From(ctx).Warn("last-login update failed", "user_id", user.ID, "err", err)
	}

	s.audit.Record(ctx, audit.ActionLogin, user.ID, username, audit.OutcomeSuccess)

	warnings := access.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Result{
		User:           user.Safe(),
		Tokens:         pair,
		AccessWarnings: warnings,
		AccessLevel:    rbac.AccessLevel(user.RoleName()),
	}, nil
}

// VerifyUserToken re-validates an already-resolved account. Permissions may
// have changed since the token was issued, so system access is re-checked.
func (s *Service) VerifyUserToken(ctx context.Context, user *identity.User) (identity.SafeUser, error) {
	if user == nil {
		return identity.SafeUser{}, ErrInvalidToken
	}

	access := s.policy.ValidateSystemAccess(user)
	if !access.IsValid {
		s.audit.Record(ctx, audit.ActionVerify, user.ID, user.Username, "access_revoked")
		return identity.SafeUser{}, &AccessError{Kind: ErrAccessRevoked, Details: access.Errors}
	}

	return user.Safe(), nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The presented
// refresh token stays valid until its natural expiry: tokens are stateless
// and there is no revocation list.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken, s.clock())
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	if user == nil || !user.IsActive {
		s.audit.Record(ctx, audit.ActionRefresh, claims.UserID, "", "invalid_token")
		return TokenPair{}, ErrInvalidToken
	}

	access := s.policy.ValidateSystemAccess(user)
	if !access.IsValid {
		s.audit.Record(ctx, audit.ActionRefresh, user.ID, user.Username, "access_revoked")
		return TokenPair{}, &AccessError{Kind: ErrAccessRevoked, Details: access.Errors}
	}

	pair, err := s.tokens.IssuePair(s.clock(), user)
	if err != nil {
		return TokenPair{}, err
	}

	s.audit.Record(ctx, audit.ActionRefresh, user.ID, user.Username, audit.OutcomeSuccess)
	return pair, nil
}
