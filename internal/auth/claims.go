package auth

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the only supported access-token claims shape. Validity is
// purely cryptographic plus expiry; nothing here is persisted server-side.
type AccessClaims struct {
	jwt.RegisteredClaims

	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// RefreshClaims carry the minimum needed to re-resolve the account.
// Refresh tokens deliberately carry no role or permissions.
type RefreshClaims struct {
	jwt.RegisteredClaims

	UserID int64 `json:"user_id"`
}
