package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"staff-portal/internal/auth"
	"staff-portal/internal/identity"
	"staff-portal/internal/rbac"
	"staff-portal/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth   *auth.Service
	Policy *rbac.Engine
	Store  identity.Store
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account and signs it in. Password policy runs at
// the boundary so the service only ever sees acceptable passwords.
func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username, email, password required"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}
	if strength := h.Policy.ValidatePasswordStrength(req.Password); !strength.IsValid {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "password does not meet requirements",
			"details": strength.Errors,
		})
		return
	}

	res, err := h.Auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":        "user registered successfully",
		"user":           res.User,
		"accessToken":    res.Tokens.AccessToken,
		"refreshToken":   res.Tokens.RefreshToken,
		"accessWarnings": res.AccessWarnings,
	})
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "login successful",
		"user":           res.User,
		"accessToken":    res.Tokens.AccessToken,
		"refreshToken":   res.Tokens.RefreshToken,
		"accessLevel":    res.AccessLevel,
		"accessWarnings": res.AccessWarnings,
	})
}

// Refresh exchanges a refresh token for a fresh pair. The old pair stays
// technically valid until expiry; revocation is a documented gap.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refreshToken required"})
		return
	}

	pair, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Verify re-checks the authenticated account's standing and returns the
// safe projection. The heavy lifting happened in RequireAuthentication.
func (h Handlers) Verify(c *gin.Context) {
	user, ok := identity.UserFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	safe, err := h.Auth.VerifyUserToken(c.Request.Context(), user)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": safe})
}

// Logout acknowledges the client's intent. Tokens are stateless and stay
// valid until expiry; clients must discard their copies.
func (h Handlers) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h Handlers) Me(c *gin.Context) {
	user, ok := identity.UserFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Safe()})
}

// GetUser returns a user's safe projection. The self-or-admin gate runs
// before this handler.
func (h Handlers) GetUser(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	target, err := h.Store.FindByID(c.Request.Context(), id)
	if err != nil {
		logger.FromGin(c).Error("user lookup failed", "user_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "system error"})
		return
	}
	if target == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": target.Safe()})
}

// DepartmentSummary reports the actor's standing within a department.
// The department gate has already vetted the actor's membership.
func (h Handlers) DepartmentSummary(c *gin.Context) {
	user, ok := identity.UserFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	id, ok := pathID(c, "department_id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid department id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"departmentId": id,
		"viewer":       user.Safe(),
		"accessLevel":  rbac.AccessLevel(user.RoleName()),
	})
}

// AdminGetUser serves the management view of a user. The management gate
// already loaded and authorized the target.
func (h Handlers) AdminGetUser(c *gin.Context) {
	target, ok := rbac.TargetUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "system error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": target.Safe()})
}

// writeAuthError maps service error kinds to statuses and the response
// flags clients key off of.
func writeAuthError(c *gin.Context, err error) {
	var accessErr *auth.AccessError
	if errors.As(err, &accessErr) {
		body := gin.H{"error": accessErr.Error(), "details": accessErr.Details}
		switch {
		case errors.Is(err, auth.ErrNoSystemAccess):
			body["noSystemAccess"] = true
		default:
			body["isAccessError"] = true
		}
		c.AbortWithStatusJSON(http.StatusForbidden, body)
		return
	}

	switch {
	case errors.Is(err, auth.ErrUsernameExists), errors.Is(err, auth.ErrEmailExists):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrAccountNotExists),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrAccountDeactivated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":                 err.Error(),
			"requireAuthentication": true,
		})
	case errors.Is(err, auth.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("auth request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "system error"})
	}
}

func pathID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
