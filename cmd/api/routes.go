package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staff-portal/internal/httpapi"
	"staff-portal/internal/identity"
	"staff-portal/internal/rbac"
	"staff-portal/pkg/utils"
)

type routeDeps struct {
	Handlers httpapi.Handlers
	AuthMW   gin.HandlerFunc
	Policy   *rbac.Engine
	Store    identity.Store
	Limiter  rbac.Limiter
	DB       *sql.DB
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), d.DB, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// Unauthenticated auth flows are limited by client IP.
	authGroup := v1.Group("/auth")
	authGroup.Use(rbac.RateLimitByUser(d.Limiter))
	{
		authGroup.POST("/register", d.Handlers.Register)
		authGroup.POST("/login", d.Handlers.Login)
		authGroup.POST("/refresh", d.Handlers.Refresh)

		authGroup.GET("/verify", d.AuthMW, d.Handlers.Verify)
		authGroup.POST("/logout", d.AuthMW, d.Handlers.Logout)
	}

	// protected API group
	protected := v1.Group("")
	protected.Use(d.AuthMW)
	protected.Use(rbac.RateLimitByUser(d.Limiter))
	{
		protected.GET("/me", d.Handlers.Me)

		protected.GET("/users/:user_id",
			rbac.RequireSelfOrAdmin("user_id"),
			d.Handlers.GetUser)

		protected.GET("/departments/:department_id/summary",
			rbac.RequireDepartmentAccess(d.Policy, "department_id"),
			d.Handlers.DepartmentSummary)

		// ADMIN routes
		admin := protected.Group("/admin")
		admin.Use(rbac.RequireRole(d.Policy, rbac.RoleAdmin))
		admin.Use(rbac.RequireSystemAccess(d.Policy))
		{
			admin.GET("/users/:target_user_id",
				rbac.RequireUserManagementAccess(d.Policy, d.Store, "target_user_id"),
				d.Handlers.AdminGetUser)
		}
	}
}
