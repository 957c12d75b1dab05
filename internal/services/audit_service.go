package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/pagination"
)

// auditService stores and queries audit log entries.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Create appends an entry. It is the sink used by the background recorder,
// so errors are returned to the recorder, not to any request.
func (s *auditService) Create(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListAuditLogs returns one page of entries matching filter, newest first,
// with the acting admin resolved.
func (s *auditService) ListAuditLogs(ctx context.Context, filter AuditLogFilter, page pagination.PageRequest) (*AuditLogPage, error) {
	page.Defaults()

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.StartDate != nil {
		query = query.Where("audit_logs.timestamp >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query = query.Where("audit_logs.timestamp <= ?", filter.EndDate.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	err := query.
		Preload("Admin").
		Order("audit_logs.timestamp DESC, audit_logs.id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logs := make([]AuditLogView, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, AuditLogView{AuditLog: e, AdminInfo: models.OwnerOf(e.Admin)})
	}

	return &AuditLogPage{
		Logs:        logs,
		TotalPages:  pagination.TotalPages(total, page.Limit),
		CurrentPage: page.Page,
		Total:       total,
	}, nil
}
