package handlers

import (
	"github.com/gin-gonic/gin"

	"sheetdesk/internal/authz"
	"sheetdesk/internal/middleware"
	"sheetdesk/internal/models"
)

// Routes bundles everything needed to mount the v1 API.
type Routes struct {
	Auth   *AuthHandler
	Files  *FileHandler
	Admin  *AdminHandler
	Issuer *middleware.TokenIssuer
	Gate   authz.Authorizer
}

// Register mounts the v1 API on the given group.
func (r Routes) Register(v1 *gin.RouterGroup) {
	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", r.Auth.Register)
	auth.POST("/login", r.Auth.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(r.Issuer))

	protected.GET("/profile", r.Auth.GetProfile)

	protected.POST("/upload", r.Files.Upload)
	protected.GET("/files", r.Files.ListFiles)
	protected.GET("/files/:id", r.Files.GetFile)
	protected.DELETE("/files/:id", r.Files.DeleteFile)

	// Admin routes; every route states the capabilities it needs
	admin := protected.Group("/admin")
	require := func(caps ...models.Capability) gin.HandlerFunc {
		return middleware.RequireCapabilities(r.Gate, caps...)
	}

	admin.GET("/users", require(models.CapViewUsers), r.Admin.ListUsers)
	admin.GET("/users/:id", require(models.CapViewUsers), r.Admin.GetUser)
	admin.PATCH("/users/:id/status", require(models.CapManageUsers), r.Admin.UpdateUserStatus())
	admin.DELETE("/users/:id", require(models.CapManageUsers), r.Admin.DeleteUser())

	admin.GET("/files", require(models.CapViewData), r.Admin.ListFiles)
	admin.GET("/files/:id", require(models.CapViewData), r.Admin.GetFile)
	admin.DELETE("/files/:id", require(models.CapManageData), r.Admin.DeleteFile())

	admin.GET("/audit-logs", require(models.CapViewAuditLogs), r.Admin.ListAuditLogs)
	admin.GET("/stats", require(models.CapViewAnalytics), r.Admin.GetStats)
}
