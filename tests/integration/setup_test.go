package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sheetdesk/internal/audit"
	"sheetdesk/internal/authz"
	"sheetdesk/internal/handlers"
	"sheetdesk/internal/middleware"
	"sheetdesk/internal/models"
	"sheetdesk/internal/services"
	"sheetdesk/internal/sheet"
	"sheetdesk/internal/testutil"
	"sheetdesk/internal/validator"
)

// testMaxUpload keeps oversize tests cheap.
const testMaxUpload = 64 << 10

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Recorder *audit.Recorder
	Profiles services.AdminProfileServicer
}

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite and a miniredis stats cache.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	log := zap.NewNop().Sugar()

	// Stats cache
	redisServer := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	statsCache := services.NewStatsCache(redisClient, time.Minute, log)

	// Services
	store := services.NewDatasetStore(db)
	userService := services.NewUserService(db, statsCache)
	fileService := services.NewFileService(store, sheet.NewParser(testMaxUpload), statsCache, log)
	adminService := services.NewAdminService(db, store, statsCache, log)
	auditService := services.NewAuditService(db)
	statsService := services.NewStatsService(db, statsCache, log)
	recorder := audit.NewRecorder(auditService, log, 5*time.Second)
	issuer := middleware.NewTokenIssuer("integration-secret", time.Hour)
	t.Cleanup(func() {
		recorder.Wait()
		_ = redisClient.Close()
		testutil.TeardownTestDB(t, db)
	})

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler(log))

	handlers.Routes{
		Auth:   handlers.NewAuthHandler(userService, issuer, log),
		Files:  handlers.NewFileHandler(fileService, testMaxUpload, log),
		Admin:  handlers.NewAdminHandler(adminService, auditService, statsService, recorder, log),
		Issuer: issuer,
		Gate:   authz.NewGate(db),
	}.Register(router.Group("/api/v1"))

	return &testApp{
		DB:       db,
		Router:   router,
		Recorder: recorder,
		Profiles: services.NewAdminProfileService(db),
	}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// upload posts content as the multipart "file" part.
func (app *testApp) upload(t *testing.T, token, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// auditEntries waits for background audit writes and returns every stored entry.
func (app *testApp) auditEntries(t *testing.T) []models.AuditLog {
	t.Helper()
	app.Recorder.Wait()
	var entries []models.AuditLog
	if err := app.DB.Order("audit_logs.timestamp ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load audit entries: %v", err)
	}
	return entries
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// parseJSONArray parses the response body into a slice.
func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var result []interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode returns the error code of an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := parseJSON(t, rec)["error"].(string)
	return code
}

// registerUser registers a new user and returns its ID.
func (app *testApp) registerUser(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q,"name":"Test User","email":"%s@test.com"}`, username, password, username)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	return user["id"].(string)
}

// loginUser logs in and returns the access token.
func (app *testApp) loginUser(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// registerAndLogin registers a user and returns its ID and token.
func (app *testApp) registerAndLogin(t *testing.T, username string) (string, string) {
	t.Helper()
	id := app.registerUser(t, username, "password123")
	return id, app.loginUser(t, username, "password123")
}

// createAdmin registers a user, grants caps the way the operator CLI does
// and returns its ID and token.
func (app *testApp) createAdmin(t *testing.T, username string, caps ...models.Capability) (string, string) {
	t.Helper()
	id := app.registerUser(t, username, "password123")
	if _, err := app.Profiles.Grant(context.Background(), id, models.AdminRoleAdmin, models.NewCapabilitySet(caps...)); err != nil {
		t.Fatalf("grant admin profile: %v", err)
	}
	return id, app.loginUser(t, username, "password123")
}
