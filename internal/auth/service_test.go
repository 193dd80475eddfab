package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"staff-portal/internal/audit"
	"staff-portal/internal/config"
	"staff-portal/internal/identity"
	"staff-portal/internal/rbac"
)

type fakeStore struct {
	users      map[int64]*identity.User
	nextID     int64
	created    []identity.NewUserParams
	createErr  error
	lastLogins []int64
	// When set, FindByID returns nil to simulate a failed reload.
	dropReload bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*identity.User{}, nextID: 100}
}

func (s *fakeStore) add(u *identity.User) *identity.User {
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*identity.User, error) {
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	if s.dropReload {
		return nil, nil
	}
	return s.users[id], nil
}

func (s *fakeStore) FindByIDForManagement(ctx context.Context, id int64) (*identity.User, error) {
	return s.users[id], nil
}

func (s *fakeStore) Create(ctx context.Context, p identity.NewUserParams) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.created = append(s.created, p)
	s.nextID++
	id := s.nextID
	s.users[id] = &identity.User{
		ID:           id,
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		IsActive:     true,
		RoleID:       2,
		Role:         &identity.Role{ID: 2, Name: rbac.RoleStaff},
		Permissions:  []string{"users.read"},
	}
	return id, nil
}

func (s *fakeStore) UpdateLastLogin(ctx context.Context, id int64) error {
	s.lastLogins = append(s.lastLogins, id)
	return nil
}

func newTestService(t *testing.T, store identity.Store) *Service {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return NewService(store, m, rbac.NewEngine("org.com"), audit.NewService(audit.NewMemoryRepo()))
}

func activeUser(id int64) *identity.User {
	hash, _ := HashPassword("Str0ngPass!123")
	return &identity.User{
		ID:           id,
		Username:     "alice",
		Email:        "alice@org.com",
		PasswordHash: hash,
		IsActive:     true,
		RoleID:       2,
		Role:         &identity.Role{ID: 2, Name: rbac.RoleStaff},
		Permissions:  []string{"users.read"},
	}
}

func TestRegister_Success(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	res, err := svc.Register(context.Background(), " alice ", "Alice@ORG.com ", "Str0ngPass!123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one create, got %d", len(store.created))
	}
	p := store.created[0]
	if p.Username != "alice" || p.Email != "alice@org.com" {
		t.Fatalf("expected trimmed/lowercased identifiers, got %+v", p)
	}
	if p.PasswordHash == "Str0ngPass!123" || p.PasswordHash == "" {
		t.Fatalf("expected hashed password, got %q", p.PasswordHash)
	}

	if res.User.Username != "alice" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
	if res.AccessWarnings == nil {
		t.Fatalf("accessWarnings must be an array, possibly empty")
	}

	b, _ := json.Marshal(res)
	if strings.Contains(string(b), p.PasswordHash) {
		t.Fatalf("result leaked password hash: %s", b)
	}
}

func TestRegister_UsernameCollisionWinsOverEmail(t *testing.T) {
	store := newFakeStore()
	store.add(activeUser(1))
	svc := newTestService(t, store)

	// Both username and email collide; username must take priority.
	_, err := svc.Register(context.Background(), "alice", "alice@org.com", "Str0ngPass!123")
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}

	_, err = svc.Register(context.Background(), "bob", "alice@org.com", "Str0ngPass!123")
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegister_StoreDuplicateRaceMapsToKind(t *testing.T) {
	store := newFakeStore()
	store.createErr = identity.ErrEmailTaken
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "carol", "carol@org.com", "Str0ngPass!123")
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists from store race, got %v", err)
	}
}

func TestRegister_FailedReloadIsInternal(t *testing.T) {
	store := newFakeStore()
	store.dropReload = true
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "carol", "carol@org.com", "Str0ngPass!123")
	if !errors.Is(err, ErrUserCreationFailed) {
		t.Fatalf("expected ErrUserCreationFailed, got %v", err)
	}
}

func TestRegister_NoSystemAccessCarriesDetails(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	// Wrong domain blocks system access after creation.
	_, err := svc.Register(context.Background(), "dave", "dave@elsewhere.com", "Str0ngPass!123")
	if !errors.Is(err, ErrNoSystemAccess) {
		t.Fatalf("expected ErrNoSystemAccess, got %v", err)
	}
	var accessErr *AccessError
	if !errors.As(err, &accessErr) || len(accessErr.Details) == 0 {
		t.Fatalf("expected structured details, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	store := newFakeStore()
	store.add(activeUser(1))
	svc := newTestService(t, store)

	res, err := svc.Login(context.Background(), "alice", "Str0ngPass!123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessLevel != rbac.LevelStaff {
		t.Fatalf("expected computed access level %d, got %d", rbac.LevelStaff, res.AccessLevel)
	}
	if len(store.lastLogins) != 1 || store.lastLogins[0] != 1 {
		t.Fatalf("expected last-login update for user 1, got %v", store.lastLogins)
	}
}

func TestLogin_UnknownAccount(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	_, err := svc.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, ErrAccountNotExists) {
		t.Fatalf("expected ErrAccountNotExists, got %v", err)
	}
}

func TestLogin_DeactivatedAccountGetsNoTokens(t *testing.T) {
	store := newFakeStore()
	u := activeUser(1)
	u.IsActive = false
	store.add(u)
	svc := newTestService(t, store)

	res, err := svc.Login(context.Background(), "alice", "Str0ngPass!123")
	if !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
	if res.Tokens.AccessToken != "" || res.Tokens.RefreshToken != "" {
		t.Fatalf("no token pair may be returned: %+v", res.Tokens)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newFakeStore()
	store.add(activeUser(1))
	svc := newTestService(t, store)

	_, err := svc.Login(context.Background(), "alice", "WrongPass!123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(store.lastLogins) != 0 {
		t.Fatalf("failed login must not touch last-login")
	}
}

func TestVerifyUserToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	if _, err := svc.VerifyUserToken(context.Background(), nil); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for nil user, got %v", err)
	}

	u := activeUser(1)
	safe, err := svc.VerifyUserToken(context.Background(), u)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if safe.ID != 1 {
		t.Fatalf("unexpected safe user: %+v", safe)
	}

	// Access revoked since issuance.
	u.Role = nil
	_, err = svc.VerifyUserToken(context.Background(), u)
	if !errors.Is(err, ErrAccessRevoked) {
		t.Fatalf("expected ErrAccessRevoked, got %v", err)
	}
}

func TestRefresh_Success(t *testing.T) {
	store := newFakeStore()
	u := store.add(activeUser(1))
	svc := newTestService(t, store)

	pair, err := svc.tokens.IssuePair(time.Now(), u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Fatalf("expected fresh pair")
	}
}

func TestRefresh_InactiveUserIsInvalidTokenNotRevoked(t *testing.T) {
	store := newFakeStore()
	u := store.add(activeUser(1))
	svc := newTestService(t, store)

	pair, _ := svc.tokens.IssuePair(time.Now(), u)

	// The existence+active check precedes system-access validation, so a
	// deactivated account must surface as an invalid token.
	u.IsActive = false
	_, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if errors.Is(err, ErrAccessRevoked) {
		t.Fatalf("must not be ErrAccessRevoked")
	}
}

func TestRefresh_RevokedAccessCarriesDetails(t *testing.T) {
	store := newFakeStore()
	u := store.add(activeUser(1))
	svc := newTestService(t, store)

	pair, _ := svc.tokens.IssuePair(time.Now(), u)

	u.Role = nil
	_, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, ErrAccessRevoked) {
		t.Fatalf("expected ErrAccessRevoked, got %v", err)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	_, err := svc.Refresh(context.Background(), "garbage")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
