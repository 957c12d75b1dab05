package testutil_test

import (
	"testing"
	"time"

	"sheetdesk/internal/errors"
	"sheetdesk/internal/models"
	"sheetdesk/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "admin_profiles", "datasets", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	if err := second.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("expected an empty second database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	admin := testutil.CreateTestAdmin(t, db, models.CapViewUsers, models.CapManageData)
	var profile models.AdminProfile
	if err := db.Where("user_id = ?", admin.ID).First(&profile).Error; err != nil {
		t.Fatalf("admin profile not found: %v", err)
	}
	if !profile.Permissions.Has(models.CapManageData) || profile.Permissions.Has(models.CapManageUsers) {
		t.Errorf("unexpected permissions %v", profile.Permissions.Names())
	}

	ds := testutil.CreateTestDataset(t, db, user.ID, 3)
	var loaded models.Dataset
	if err := db.First(&loaded, "id = ?", ds.ID).Error; err != nil {
		t.Fatalf("dataset not found: %v", err)
	}
	if loaded.RowCount != 3 || len(loaded.Rows) != 3 {
		t.Errorf("expected 3 rows, got rowCount=%d len=%d", loaded.RowCount, len(loaded.Rows))
	}
	if len(loaded.Headers) != 2 || loaded.Headers[0] != "name" {
		t.Errorf("unexpected headers %v", loaded.Headers)
	}

	entry := testutil.CreateTestAuditLog(t, db, admin.ID, models.AuditFileDelete, models.AuditTargetFile, time.Now())
	if entry.ID == "" {
		t.Fatal("audit entry should have an ID")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrDatasetNotFound, "custom message")
	testutil.AssertAppError(t, err, "DATASET_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
