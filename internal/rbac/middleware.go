package rbac

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"staff-portal/internal/identity"
	"staff-portal/pkg/logger"
)

// Gatekeepers for route chains. Every gate expects the authentication layer
// to have resolved the account already (401 otherwise), delegates the actual
// decision to the policy engine, and answers 403 with the check's message on
// denial. Internal failures become 500 denials; a gate never panics the
// pipeline.

const (
	msgAuthenticationRequired = "authentication required"
	msgSystemError            = "system error"
	msgTooManyRequests        = "too many requests, please try again later"
)

func currentUser(c *gin.Context) (*identity.User, bool) {
	return identity.UserFromContext(c.Request.Context())
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgAuthenticationRequired})
}

// RequireRole allows only callers whose role name is in allowed.
func RequireRole(e *Engine, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		if res := e.ValidateRole(user, allowed...); !res.IsValid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": res.Error})
			return
		}
		c.Next()
	}
}

// RequirePermission allows only callers holding the exact permission.
func RequirePermission(e *Engine, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		if res := e.ValidatePermission(user, permission); !res.IsValid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": res.Error})
			return
		}
		c.Next()
	}
}

// RequireAccessLevel allows only callers whose derived level is >= level.
func RequireAccessLevel(e *Engine, level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		if res := e.ValidateAccessLevel(user, level); !res.IsValid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": res.Error})
			return
		}
		c.Next()
	}
}

// RequireSystemAccess re-runs the aggregate access check and attaches the
// full result (including warnings) for downstream handlers.
func RequireSystemAccess(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		res := e.ValidateSystemAccess(user)
		if !res.IsValid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":          "no system access",
				"details":        res.Errors,
				"noSystemAccess": true,
			})
			return
		}
		c.Set("userAccess", res)
		c.Next()
	}
}

// RequireDepartmentAccess gates on the department id named by param.
func RequireDepartmentAccess(e *Engine, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		deptID, ok := idFromRequest(c, param)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "department id is required"})
			return
		}
		if res := e.ValidateDepartmentAccess(user, deptID); !res.IsValid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": res.Error})
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin allows the account itself, or an admin, through.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		targetID, ok := idFromRequest(c, param)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
			return
		}
		if user.ID == targetID || IsAdmin(user.RoleName()) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no access to this data"})
	}
}

// RequireUserManagementAccess loads the target account and gates on the
// management hierarchy. The loaded target is attached for the handler.
func RequireUserManagementAccess(e *Engine, store identity.Store, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		targetID, ok := idFromRequest(c, param)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "target user id is required"})
			return
		}

		target, err := store.FindByIDForManagement(c.Request.Context(), targetID)
		if err != nil {
			logger.FromGin(c).Error("management target lookup failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgSystemError})
			return
		}
		if target == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user does not exist"})
			return
		}

		if res := e.ValidateUserManagementAccess(user, target); !res.IsValid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": res.Error})
			return
		}

		c.Set("targetUser", target)
		c.Next()
	}
}

// TargetUser returns the account loaded by RequireUserManagementAccess.
func TargetUser(c *gin.Context) (*identity.User, bool) {
	v, ok := c.Get("targetUser")
	if !ok {
		return nil, false
	}
	u, ok := v.(*identity.User)
	return u, ok && u != nil
}

// RateLimitByUser throttles per authenticated user id, falling back to the
// client address for anonymous callers.
func RateLimitByUser(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if user, ok := currentUser(c); ok {
			key = "user:" + strconv.FormatInt(user.ID, 10)
		}

		allowed, err := l.Allow(c.Request.Context(), key, time.Now())
		if err != nil {
			logger.FromGin(c).Error("rate limit check failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgSystemError})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": msgTooManyRequests})
			return
		}
		c.Next()
	}
}

func idFromRequest(c *gin.Context, param string) (int64, bool) {
	raw := c.Param(param)
	if raw == "" {
		raw = c.Query(param)
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
