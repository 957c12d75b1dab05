package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sheetdesk/internal/audit"
	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/pagination"
	"sheetdesk/internal/services"
)

// AdminHandler handles the capability-gated admin routes.
type AdminHandler struct {
	adminService services.AdminServicer
	auditService services.AuditServicer
	statsService services.StatsServicer
	recorder     *audit.Recorder
	logger       *zap.SugaredLogger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	adminService services.AdminServicer,
	auditService services.AuditServicer,
	statsService services.StatsServicer,
	recorder *audit.Recorder,
	logger *zap.SugaredLogger,
) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		auditService: auditService,
		statsService: statsService,
		recorder:     recorder,
		logger:       logger,
	}
}

// UpdateUserStatusRequest represents the request payload for changing a user's status.
type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" binding:"required,user_status"`
}

// AuditLogQuery holds the audit log filters parsed from the query string.
type AuditLogQuery struct {
	pagination.PageRequest
	Action     models.AuditAction     `form:"action" binding:"omitempty,audit_action"`
	TargetType models.AuditTargetType `form:"targetType" binding:"omitempty,target_type"`
	StartDate  string                 `form:"startDate"`
	EndDate    string                 `form:"endDate"`
}

// ListUsers handles listing every user.
// @Summary     List users
// @Description List all users, newest first
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.User "Users"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser handles fetching a single user.
// @Summary     Get user
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} models.User "User"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.adminService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUserStatus returns the audited handler for changing a user's status.
// @Summary     Update user status
// @Description Set a user's status to active, inactive or suspended. Successful calls are audited.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "User ID"
// @Param       request body UpdateUserStatusRequest true "New status"
// @Success     200 {object} models.User "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id}/status [patch]
func (h *AdminHandler) UpdateUserStatus() gin.HandlerFunc {
	return audited(h.recorder, h.logger, models.AuditUserStatusUpdate, models.AuditTargetUser, h.updateUserStatus)
}

func (h *AdminHandler) updateUserStatus(c *gin.Context) audit.Outcome {
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return audit.Failed(apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
	}

	user, err := h.adminService.UpdateUserStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		return audit.Failed(err)
	}
	return audit.OK(http.StatusOK, user, map[string]any{"status": string(req.Status)})
}

// DeleteUser returns the audited handler for deleting a user.
// @Summary     Delete user
// @Description Delete a user together with their datasets and admin profile. Successful calls are audited.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser() gin.HandlerFunc {
	return audited(h.recorder, h.logger, models.AuditUserDelete, models.AuditTargetUser, h.deleteUser)
}

func (h *AdminHandler) deleteUser(c *gin.Context) audit.Outcome {
	if err := h.adminService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		return audit.Failed(err)
	}
	return audit.OK(http.StatusOK, MessageResponse{Message: "User deleted successfully"}, nil)
}

// ListFiles handles listing every dataset.
// @Summary     List all files
// @Description List summaries of every dataset with owner details, newest first
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.DatasetSummary "Dataset summaries"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Router      /admin/files [get]
func (h *AdminHandler) ListFiles(c *gin.Context) {
	files, err := h.adminService.ListFiles(c.Request.Context())
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// GetFile handles fetching any dataset.
// @Summary     Get any file
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Dataset ID"
// @Success     200 {object} models.Dataset "Dataset"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Failure     404 {object} ErrorResponse "File not found"
// @Router      /admin/files/{id} [get]
func (h *AdminHandler) GetFile(c *gin.Context) {
	ds, err := h.adminService.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// DeleteFile returns the audited handler for deleting any dataset.
// @Summary     Delete any file
// @Description Delete a dataset regardless of owner. Successful calls are audited.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Dataset ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Failure     404 {object} ErrorResponse "File not found"
// @Router      /admin/files/{id} [delete]
func (h *AdminHandler) DeleteFile() gin.HandlerFunc {
	return audited(h.recorder, h.logger, models.AuditFileDelete, models.AuditTargetFile, h.deleteFile)
}

func (h *AdminHandler) deleteFile(c *gin.Context) audit.Outcome {
	if err := h.adminService.DeleteFile(c.Request.Context(), c.Param("id")); err != nil {
		return audit.Failed(err)
	}
	return audit.OK(http.StatusOK, MessageResponse{Message: "File deleted successfully"}, nil)
}

// ListAuditLogs handles the audit log query.
// @Summary     Query audit logs
// @Description Page through audit entries, newest first. Dates are RFC 3339 or YYYY-MM-DD (midnight UTC).
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       action     query string false "Action filter"
// @Param       targetType query string false "Target type filter (user/file)"
// @Param       startDate  query string false "Inclusive lower bound"
// @Param       endDate    query string false "Inclusive upper bound"
// @Param       page       query int    false "Page number (default 1)"
// @Param       limit      query int    false "Items per page (default 50, max 200)"
// @Success     200 {object} services.AuditLogPage "Audit log page"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Router      /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	var q AuditLogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, h.logger, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.AuditLogFilter{Action: q.Action, TargetType: q.TargetType}
	var err error
	if filter.StartDate, err = parseDateParam("startDate", q.StartDate); err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	if filter.EndDate, err = parseDateParam("endDate", q.EndDate); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	page, err := h.auditService.ListAuditLogs(c.Request.Context(), filter, q.PageRequest)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetStats handles the dashboard statistics.
// @Summary     Platform statistics
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Stats "Statistics"
// @Failure     403 {object} ErrorResponse "Admin profile or capability missing"
// @Router      /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.ComputeStats(c.Request.Context())
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// parseDateParam accepts RFC 3339 timestamps and plain dates. A plain date
// means midnight UTC of that day. An empty value yields nil.
func parseDateParam(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+name+": expected RFC 3339 or YYYY-MM-DD")
}
