package services

import (
	"context"
	"io"
	"time"

	"sheetdesk/internal/models"
	"sheetdesk/internal/pagination"
	"sheetdesk/internal/sheet"
)

// UserServicer defines the contract for the credential adapter.
type UserServicer interface {
	CreateUser(ctx context.Context, username, password, name, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AttemptLogin(ctx context.Context, username, password string) (*models.User, error)
}

// DatasetSummary is the list projection of a dataset. Rows are never loaded
// for summaries.
type DatasetSummary struct {
	ID          string        `json:"id"`
	FileName    string        `json:"fileName"`
	UploadDate  time.Time     `json:"uploadDate"`
	HeaderCount int           `json:"headerCount"`
	RowCount    int           `json:"rowCount"`
	Owner       *models.Owner `json:"owner,omitempty"`
}

// DatasetStore persists datasets. It performs no authorization of its own:
// callers must scope lookups by owner (FileServicer) or pass the permission
// gate (admin routes) before reaching it.
type DatasetStore interface {
	Create(ctx context.Context, ownerID, fileName string, headers []string, rows []sheet.Row) (*models.Dataset, error)
	GetByID(ctx context.Context, id string) (*models.Dataset, error)
	ListByOwner(ctx context.Context, ownerID string) ([]DatasetSummary, error)
	ListAll(ctx context.Context) ([]DatasetSummary, error)
	DeleteByID(ctx context.Context, id string) error
}

// UploadResult is returned after a spreadsheet has been parsed and stored.
type UploadResult struct {
	FileID   string   `json:"fileId"`
	FileName string   `json:"fileName"`
	Headers  []string `json:"headers"`
	RowCount int      `json:"rowCount"`
}

// FileServicer is the owner-scoped view of the dataset store. A dataset that
// belongs to someone else is reported exactly like a missing one.
type FileServicer interface {
	Upload(ctx context.Context, ownerID, fileName string, r io.Reader) (*UploadResult, error)
	ListFiles(ctx context.Context, ownerID string) ([]DatasetSummary, error)
	GetFile(ctx context.Context, ownerID, id string) (*models.Dataset, error)
	DeleteFile(ctx context.Context, ownerID, id string) error
}

// AdminServicer defines the administrative operations over users and datasets.
// Authorization happens before these are called.
type AdminServicer interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListFiles(ctx context.Context) ([]DatasetSummary, error)
	GetFile(ctx context.Context, id string) (*models.Dataset, error)
	DeleteFile(ctx context.Context, id string) error
}

// AuditLogFilter narrows an audit log query. Zero values mean "any".
type AuditLogFilter struct {
	Action     models.AuditAction
	TargetType models.AuditTargetType
	StartDate  *time.Time
	EndDate    *time.Time
}

// AuditLogView is an audit entry with the acting admin's display fields.
type AuditLogView struct {
	models.AuditLog
	AdminInfo *models.Owner `json:"admin,omitempty"`
}

// AuditLogPage is one page of audit log entries.
type AuditLogPage struct {
	Logs        []AuditLogView `json:"logs"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

// AuditServicer persists and queries audit entries. There is no
// update or delete operation.
type AuditServicer interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, filter AuditLogFilter, page pagination.PageRequest) (*AuditLogPage, error)
}

// UploaderActivity aggregates one owner's uploads.
type UploaderActivity struct {
	Owner       *models.Owner `json:"owner"`
	UploadCount int           `json:"uploadCount"`
	LastUpload  time.Time     `json:"lastUpload"`
}

// Stats is the platform-wide summary shown on the admin dashboard.
type Stats struct {
	TotalUsers    int64              `json:"totalUsers"`
	TotalFiles    int64              `json:"totalFiles"`
	TotalStorage  int64              `json:"totalStorage"`
	RecentUploads []DatasetSummary   `json:"recentUploads"`
	TopUploaders  []UploaderActivity `json:"topUploaders"`
}

// StatsServicer computes admin dashboard statistics.
type StatsServicer interface {
	ComputeStats(ctx context.Context) (*Stats, error)
}

// AdminProfileServicer manages admin profiles. It is used by the operator
// CLI only; the HTTP API never grants privileges.
type AdminProfileServicer interface {
	Grant(ctx context.Context, userID string, role models.AdminRole, perms models.CapabilitySet) (*models.AdminProfile, error)
	Revoke(ctx context.Context, userID string) error
	List(ctx context.Context) ([]models.AdminProfile, error)
}
