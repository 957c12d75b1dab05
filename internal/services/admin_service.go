package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/uuid"
)

// adminService handles the administrative user and dataset operations.
type adminService struct {
	db     *gorm.DB
	store  DatasetStore
	stats  *StatsCache
	logger *zap.SugaredLogger
}

// NewAdminService creates a new AdminServicer.
func NewAdminService(db *gorm.DB, store DatasetStore, stats *StatsCache, logger *zap.SugaredLogger) AdminServicer {
	return &adminService{db: db, store: store, stats: stats, logger: logger}
}

// ListUsers returns every user, newest first.
func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// GetUser loads a single user.
func (s *adminService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return findUser(ctx, s.db, id)
}

// UpdateUserStatus sets the account status of a user.
func (s *adminService) UpdateUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	switch status {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be one of active, inactive, suspended")
	}

	user, err := findUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Update("status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.Status = status
	return user, nil
}

// DeleteUser removes a user together with their datasets and admin profile.
// Audit entries written by the user are kept.
func (s *adminService) DeleteUser(ctx context.Context, id string) error {
	if !uuid.IsValid(id) {
		return apperrors.ErrUserNotFound
	}

	var removedDatasets int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("owner_id = ?", id).Delete(&models.Dataset{})
		if result.Error != nil {
			return result.Error
		}
		removedDatasets = result.RowsAffected

		if err := tx.Where("user_id = ?", id).Delete(&models.AdminProfile{}).Error; err != nil {
			return err
		}

		result = tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.stats.Invalidate(ctx)
	s.logger.Infow("deleted user", "user_id", id, "datasets_removed", removedDatasets)
	return nil
}

// ListFiles returns every dataset summary with owner fields, newest first.
func (s *adminService) ListFiles(ctx context.Context) ([]DatasetSummary, error) {
	return s.store.ListAll(ctx)
}

// GetFile loads any dataset regardless of owner.
func (s *adminService) GetFile(ctx context.Context, id string) (*models.Dataset, error) {
	return s.store.GetByID(ctx, id)
}

// DeleteFile removes any dataset regardless of owner.
func (s *adminService) DeleteFile(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// findUser loads a user by id; malformed ids are reported as not found.
func findUser(ctx context.Context, db *gorm.DB, id string) (*models.User, error) {
	if !uuid.IsValid(id) {
		return nil, apperrors.ErrUserNotFound
	}

	var user models.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}
