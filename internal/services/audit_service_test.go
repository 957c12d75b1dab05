package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sheetdesk/internal/audit"
	"sheetdesk/internal/models"
	"sheetdesk/internal/pagination"
	"sheetdesk/internal/testutil"
)

func TestAuditService_ListAuditLogs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	admin := testutil.CreateTestAdmin(t, db, models.CapViewAuditLogs)
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		action, target := models.AuditFileDelete, models.AuditTargetFile
		if i%3 == 0 {
			action, target = models.AuditUserStatusUpdate, models.AuditTargetUser
		}
		testutil.CreateTestAuditLog(t, db, admin.ID, action, target, base.Add(time.Duration(i)*time.Hour))
	}

	t.Run("default page", func(t *testing.T) {
		page, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.Total != 120 || page.TotalPages != 3 || page.CurrentPage != 1 {
			t.Errorf("unexpected metadata total=%d pages=%d current=%d", page.Total, page.TotalPages, page.CurrentPage)
		}
		if len(page.Logs) != 50 {
			t.Fatalf("expected 50 logs, got %d", len(page.Logs))
		}
		if !page.Logs[0].Timestamp.After(page.Logs[1].Timestamp) {
			t.Error("expected timestamp-descending order")
		}
		if page.Logs[0].AdminInfo == nil || page.Logs[0].AdminInfo.Username != admin.Username {
			t.Errorf("expected admin info to be resolved, got %+v", page.Logs[0].AdminInfo)
		}
	})

	t.Run("last partial page", func(t *testing.T) {
		page, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{}, pagination.PageRequest{Page: 3, Limit: 50})
		testutil.AssertNoError(t, err)
		if len(page.Logs) != 20 {
			t.Errorf("expected 20 logs, got %d", len(page.Logs))
		}
	})

	t.Run("beyond the end", func(t *testing.T) {
		page, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{}, pagination.PageRequest{Page: 9, Limit: 50})
		testutil.AssertNoError(t, err)
		if len(page.Logs) != 0 || page.Logs == nil {
			t.Errorf("expected empty non-nil logs, got %v", page.Logs)
		}
		if page.Total != 120 || page.CurrentPage != 9 {
			t.Errorf("expected total 120 on page 9, got total=%d current=%d", page.Total, page.CurrentPage)
		}
	})

	t.Run("action filter", func(t *testing.T) {
		page, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{Action: models.AuditUserStatusUpdate}, pagination.PageRequest{Limit: 200})
		testutil.AssertNoError(t, err)
		if page.Total != 40 {
			t.Errorf("expected 40 status updates, got %d", page.Total)
		}
		for _, l := range page.Logs {
			if l.Action != models.AuditUserStatusUpdate {
				t.Fatalf("unexpected action %s", l.Action)
			}
		}
	})

	t.Run("target type filter", func(t *testing.T) {
		page, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{TargetType: models.AuditTargetFile}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.Total != 80 {
			t.Errorf("expected 80 file entries, got %d", page.Total)
		}
	})

	t.Run("inclusive date range", func(t *testing.T) {
		start := base.Add(10 * time.Hour)
		end := base.Add(19 * time.Hour)
		page, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{StartDate: &start, EndDate: &end}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.Total != 10 {
			t.Errorf("expected 10 entries in range, got %d", page.Total)
		}
	})
}

func TestAuditService_CreateFeedsRecorder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	admin := testutil.CreateTestAdmin(t, db, models.CapManageData)

	rec := audit.NewRecorder(svc, zap.NewNop().Sugar(), time.Second)
	inv := audit.Invocation{
		AdminID:    admin.ID,
		Action:     models.AuditFileDelete,
		TargetType: models.AuditTargetFile,
		TargetID:   "0190b5a0-0000-7000-8000-0000000000aa",
	}
	rec.Observe(inv, audit.OK(http.StatusOK, nil, map[string]any{"fileName": "q1.xlsx"}))
	rec.Observe(inv, audit.Failed(fmt.Errorf("not found")))
	rec.Wait()

	var entries []models.AuditLog
	db.Find(&entries)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
	if entries[0].Details["fileName"] != "q1.xlsx" {
		t.Errorf("expected input in details, got %v", entries[0].Details)
	}
	if fmt.Sprint(entries[0].Details["statusCode"]) != "200" {
		t.Errorf("expected statusCode 200 in details, got %v", entries[0].Details["statusCode"])
	}
}

func TestAuditService_WriteFailureIsSwallowed(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).WillReturnError(fmt.Errorf("relation audit_logs does not exist"))
	mock.ExpectExec(`INSERT INTO "audit_logs"`).WillReturnError(fmt.Errorf("relation audit_logs does not exist"))

	core, logs := observer.New(zapcore.ErrorLevel)
	rec := audit.NewRecorder(NewAuditService(db), zap.New(core).Sugar(), time.Second)

	dispatched := rec.Observe(audit.Invocation{
		AdminID:    "0190b5a0-0000-7000-8000-000000000001",
		Action:     models.AuditUserDelete,
		TargetType: models.AuditTargetUser,
		TargetID:   "0190b5a0-0000-7000-8000-000000000002",
	}, audit.OK(http.StatusOK, nil, nil))
	rec.Wait()

	if !dispatched {
		t.Fatal("expected the successful outcome to be dispatched")
	}
	if n := logs.FilterMessage("failed to write audit log").Len(); n != 1 {
		t.Errorf("expected one logged write failure, got %d", n)
	}
}
