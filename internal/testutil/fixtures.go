package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"sheetdesk/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates an active user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Password: string(hash),
		Name:     "Test " + username,
		Email:    username + "@test.com",
		Role:     models.UserRoleUser,
		Status:   models.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates a user with an admin profile holding caps.
func CreateTestAdmin(t *testing.T, db *gorm.DB, caps ...models.Capability) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("role", models.UserRoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote test user: %v", err)
	}
	user.Role = models.UserRoleAdmin
	GrantTestProfile(t, db, user.ID, models.NewCapabilitySet(caps...))
	return user
}

// GrantTestProfile attaches an admin profile with the given permissions to userID.
func GrantTestProfile(t *testing.T, db *gorm.DB, userID string, perms models.CapabilitySet) *models.AdminProfile {
	t.Helper()

	profile := &models.AdminProfile{
		UserID:      userID,
		Role:        models.AdminRoleAdmin,
		Permissions: perms,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test admin profile: %v", err)
	}
	return profile
}

// CreateTestDataset creates a dataset owned by ownerID with rowCount simple rows.
func CreateTestDataset(t *testing.T, db *gorm.DB, ownerID string, rowCount int) *models.Dataset {
	t.Helper()
	return CreateTestDatasetAt(t, db, ownerID, rowCount, time.Now())
}

// CreateTestDatasetAt is CreateTestDataset with an explicit upload date.
func CreateTestDatasetAt(t *testing.T, db *gorm.DB, ownerID string, rowCount int, uploaded time.Time) *models.Dataset {
	t.Helper()

	rows := make([]map[string]any, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		rows = append(rows, map[string]any{"name": fmt.Sprintf("row%d", i), "value": float64(i)})
	}

	ds := &models.Dataset{
		OwnerID:    ownerID,
		FileName:   fmt.Sprintf("sheet%d.xlsx", nextID()),
		Headers:    datatypes.JSONSlice[string]{"name", "value"},
		Rows:       datatypes.JSONSlice[map[string]any](rows),
		RowCount:   rowCount,
		UploadDate: uploaded.UTC(),
	}
	if err := db.Create(ds).Error; err != nil {
		t.Fatalf("failed to create test dataset: %v", err)
	}
	return ds
}

// CreateTestAuditLog inserts an audit entry directly.
func CreateTestAuditLog(t *testing.T, db *gorm.DB, adminID string, action models.AuditAction, target models.AuditTargetType, at time.Time) *models.AuditLog {
	t.Helper()

	entry := &models.AuditLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: target,
		TargetID:   fmt.Sprintf("target-%d", nextID()),
		Details:    datatypes.JSONMap{"statusCode": 200},
		Timestamp:  at.UTC(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test audit log: %v", err)
	}
	return entry
}
