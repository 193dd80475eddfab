package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"staff-portal/internal/config"
	"staff-portal/internal/identity"
)

// Verification failures are tagged, not stringly typed: an expired token
// must be distinguishable from a malformed one so clients know when to
// refresh.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// Manager signs and verifies the stateless token pair. Refresh tokens use
// their own secret, falling back to the access secret when none is set.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.AccessSecret
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        cfg.Issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IssuePair signs an access token carrying the user's identity, role name
// and permission set, and a minimal refresh token. Signing has no side
// effects; nothing is stored.
func (m *Manager) IssuePair(now time.Time, u *identity.User) (TokenPair, error) {
	perms, _ := u.PermissionList()
	if perms == nil {
		perms = []string{}
	}

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: m.registered(now, m.accessTTL),
		UserID:           u.ID,
		Username:         u.Username,
		Role:             u.RoleName(),
		Permissions:      perms,
	})
	accessStr, err := access.SignedString(m.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: m.registered(now, m.refreshTTL),
		UserID:           u.ID,
	})
	refreshStr, err := refresh.SignedString(m.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessStr, RefreshToken: refreshStr}, nil
}

// VerifyAccess validates an access token against the access secret.
func (m *Manager) VerifyAccess(token string, now time.Time) (AccessClaims, error) {
	var claims AccessClaims
	if err := m.verify(token, &claims, m.accessSecret, now); err != nil {
		return AccessClaims{}, err
	}
	if claims.UserID <= 0 {
		return AccessClaims{}, ErrTokenMalformed
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token against the refresh secret.
func (m *Manager) VerifyRefresh(token string, now time.Time) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := m.verify(token, &claims, m.refreshSecret, now); err != nil {
		return RefreshClaims{}, err
	}
	if claims.UserID <= 0 {
		return RefreshClaims{}, ErrTokenMalformed
	}
	return claims, nil
}

func (m *Manager) verify(token string, claims jwt.Claims, secret []byte, now time.Time) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}
	return nil
}

func (m *Manager) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

const bearerScheme = "Bearer"

// ExtractBearerToken parses an "Authorization: Bearer <token>" header value.
// Any other shape yields "" rather than an error.
func ExtractBearerToken(headerValue string) string {
	parts := strings.Fields(headerValue)
	if len(parts) != 2 || parts[0] != bearerScheme {
		return ""
	}
	return parts[1]
}
