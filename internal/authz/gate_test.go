package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/testutil"
)

func TestGate_Authorize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	gate := NewGate(db)
	ctx := context.Background()

	plain := testutil.CreateTestUser(t, db)
	viewer := testutil.CreateTestAdmin(t, db, models.CapViewUsers, models.CapViewData)
	bare := testutil.CreateTestAdmin(t, db)

	tests := []struct {
		name     string
		callerID string
		required models.CapabilitySet
		wantCode string
	}{
		{"empty caller", "", 0, "UNAUTHENTICATED"},
		{"malformed caller id", "not-a-uuid", 0, "ADMIN_REQUIRED"},
		{"no profile", plain.ID, 0, "ADMIN_REQUIRED"},
		{"no profile with requirement", plain.ID, models.NewCapabilitySet(models.CapViewUsers), "ADMIN_REQUIRED"},
		{"missing one capability", viewer.ID, models.NewCapabilitySet(models.CapViewUsers, models.CapManageUsers), "INSUFFICIENT_PERMISSIONS"},
		{"empty profile with requirement", bare.ID, models.NewCapabilitySet(models.CapViewData), "INSUFFICIENT_PERMISSIONS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := gate.Authorize(ctx, tt.callerID, tt.required)
			require.Nil(t, profile)
			testutil.AssertAppError(t, err, tt.wantCode)
		})
	}
}

func TestGate_AuthorizeGranted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	gate := NewGate(db)
	viewer := testutil.CreateTestAdmin(t, db, models.CapViewUsers, models.CapViewData)
	bare := testutil.CreateTestAdmin(t, db)

	profile, err := gate.Authorize(context.Background(), viewer.ID, models.NewCapabilitySet(models.CapViewUsers, models.CapViewData))
	require.NoError(t, err)
	require.Equal(t, viewer.ID, profile.UserID)

	// The empty requirement passes for any caller holding a profile,
	// even one with no capabilities at all.
	profile, err = gate.Authorize(context.Background(), bare.ID, 0)
	require.NoError(t, err)
	require.Equal(t, bare.ID, profile.UserID)
}

func TestGate_AuthorizeIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	gate := NewGate(db)
	viewer := testutil.CreateTestAdmin(t, db, models.CapViewData)
	required := models.NewCapabilitySet(models.CapManageData)

	for i := 0; i < 3; i++ {
		_, err := gate.Authorize(context.Background(), viewer.ID, required)
		require.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
	}

	var count int64
	require.NoError(t, db.Model(&models.AdminProfile{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
