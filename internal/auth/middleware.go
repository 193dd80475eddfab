package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staff-portal/internal/identity"
	"staff-portal/pkg/logger"
)

const authorizationHeader = "Authorization"

// RequireAuthentication verifies the bearer token, resolves the account
// from the store and attaches it to the request context. It performs no
// policy checks; those belong to internal/rbac.
//
// Expired tokens are flagged so a client can distinguish "refresh now"
// from other 401s.
func RequireAuthentication(m *Manager, store identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearerToken(c.GetHeader(authorizationHeader))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token not provided"})
			return
		}

		claims, err := m.VerifyAccess(token, time.Now())
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":        "token expired",
					"tokenExpired": true,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := store.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.FromGin(c).Error("authenticated user lookup failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "system error"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account does not exist"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account is deactivated"})
			return
		}

		ctx := identity.WithUser(c.Request.Context(), user)
		ctx = identity.WithToken(ctx, token)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuthentication attaches the account when a valid token is
// presented and silently proceeds otherwise. It never blocks a request.
func OptionalAuthentication(m *Manager, store identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearerToken(c.GetHeader(authorizationHeader))
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.VerifyAccess(token, time.Now())
		if err != nil {
			c.Next()
			return
		}

		user, err := store.FindByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil || !user.IsActive {
			c.Next()
			return
		}

		ctx := identity.WithUser(c.Request.Context(), user)
		ctx = identity.WithToken(ctx, token)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
