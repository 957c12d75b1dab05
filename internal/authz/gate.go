// Package authz decides whether a caller may invoke an administrative
// operation, based on the caller's admin profile and its capability set.
package authz

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/uuid"
)

// Authorizer resolves the admin profile of a caller and checks it against a
// required capability set.
type Authorizer interface {
	Authorize(ctx context.Context, callerID string, required models.CapabilitySet) (*models.AdminProfile, error)
}

// Gate is the database-backed Authorizer. It only reads.
type Gate struct {
	db *gorm.DB
}

// NewGate creates a gate over the admin_profiles table.
func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// Authorize returns the caller's admin profile when it holds every capability
// in required. An empty caller id fails with ErrUnauthenticated, a caller
// without a profile with ErrAdminRequired, and a profile missing any
// required capability with ErrInsufficientPermissions.
func (g *Gate) Authorize(ctx context.Context, callerID string, required models.CapabilitySet) (*models.AdminProfile, error) {
	if callerID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if !uuid.IsValid(callerID) {
		return nil, apperrors.ErrAdminRequired
	}

	var profile models.AdminProfile
	err := g.db.WithContext(ctx).Where("user_id = ?", callerID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAdminRequired
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !profile.Permissions.Contains(required) {
		return nil, apperrors.ErrInsufficientPermissions
	}
	return &profile, nil
}
