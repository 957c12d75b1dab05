package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
)

// adminProfileService manages admin profiles for the operator CLI.
type adminProfileService struct {
	db *gorm.DB
}

// NewAdminProfileService creates a new AdminProfileServicer.
func NewAdminProfileService(db *gorm.DB) AdminProfileServicer {
	return &adminProfileService{db: db}
}

// Grant creates the user's admin profile or replaces its role and permissions.
// The user's role tag is raised to admin in the same transaction.
func (s *adminProfileService) Grant(ctx context.Context, userID string, role models.AdminRole, perms models.CapabilitySet) (*models.AdminProfile, error) {
	if role != models.AdminRoleAdmin && role != models.AdminRoleSuperAdmin {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be admin or super_admin")
	}

	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.AdminProfile{UserID: user.ID, Role: role, Permissions: perms}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "permissions"}),
		}).Create(profile).Error; err != nil {
			return err
		}
		return tx.Model(user).Update("role", models.UserRoleAdmin).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.AdminProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// Revoke removes the user's admin profile and resets the role tag.
func (s *adminProfileService) Revoke(ctx context.Context, userID string) error {
	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return err
	}

	var removed int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", user.ID).Delete(&models.AdminProfile{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return tx.Model(user).Update("role", models.UserRoleUser).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if removed == 0 {
		return apperrors.WithMessage(apperrors.ErrNotFound, "user has no admin profile")
	}
	return nil
}

// List returns every admin profile, oldest first.
func (s *adminProfileService) List(ctx context.Context) ([]models.AdminProfile, error) {
	var profiles []models.AdminProfile
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&profiles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if profiles == nil {
		profiles = []models.AdminProfile{}
	}
	return profiles, nil
}
