package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
)

// userService handles registration and login.
type userService struct {
	db    *gorm.DB
	stats *StatsCache
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, stats *StatsCache) UserServicer {
	return &userService{db: db, stats: stats}
}

// CreateUser registers a new ordinary user. Admin privileges are never
// granted here.
func (s *userService) CreateUser(ctx context.Context, username, password, name, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Role:     models.UserRoleUser,
		Status:   models.UserStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.stats.Invalidate(ctx)
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findUser(ctx, s.db, id)
}

// AttemptLogin verifies the credentials and returns the user. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *userService) AttemptLogin(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.CanSignIn() {
		return nil, apperrors.ErrAccountDisabled
	}
	return &user, nil
}
