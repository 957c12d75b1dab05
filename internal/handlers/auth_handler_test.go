package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/middleware"
	"sheetdesk/internal/models"
	"sheetdesk/internal/services"
	"sheetdesk/internal/validator"
)

const (
	testUserID  = "0190b5a0-0000-7000-8000-000000000001"
	testAdminID = "0190b5a0-0000-7000-8000-0000000000ad"
	testFileID  = "0190b5a0-0000-7000-8000-0000000000f1"
)

// --- mock services ---

type mockUserService struct {
	createUserFn   func(username, password, name, email string) (*models.User, error)
	getUserByIDFn  func(id string) (*models.User, error)
	attemptLoginFn func(username, password string) (*models.User, error)
}

func (m *mockUserService) CreateUser(_ context.Context, username, password, name, email string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(username, password, name, email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) AttemptLogin(_ context.Context, username, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(username, password)
	}
	return &models.User{}, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func testIssuer() *middleware.TokenIssuer {
	return middleware.NewTokenIssuer("handler-test-secret", time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	r.GET("/anonymous-profile", handler.GetProfile)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var result []interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	if result["error"] != code {
		t.Errorf("expected error code %q, got %v", code, result["error"])
	}
	if msg, _ := result["message"].(string); msg == "" {
		t.Errorf("expected a message alongside error code %q, got: %v", code, result)
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(username, _, name, email string) (*models.User, error) {
				return &models.User{
					Base:     models.Base{ID: testUserID},
					Username: username,
					Name:     name,
					Email:    email,
					Role:     models.UserRoleUser,
				}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/register",
			`{"username":"ada","password":"password123","name":"Ada","email":"ada@example.com"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		user := result["user"].(map[string]interface{})
		if user["username"] != "ada" {
			t.Errorf("expected username ada, got %v", user["username"])
		}
		if user["role"] != "user" {
			t.Errorf("expected role user, got %v", user["role"])
		}
		if _, ok := user["password"]; ok {
			t.Error("password hash must never be serialized")
		}
	})

	t.Run("ignores a requested role", func(t *testing.T) {
		var called bool
		userSvc := &mockUserService{
			createUserFn: func(username, _, _, _ string) (*models.User, error) {
				called = true
				return &models.User{Base: models.Base{ID: testUserID}, Username: username, Role: models.UserRoleUser}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"mallory","password":"password123","role":"admin"}`)

		if rec.Code != http.StatusCreated || !called {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["role"] != "user" {
			t.Errorf("expected role user, got %v", user["role"])
		}
	})

	t.Run("returns 400 on missing username", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/register", `{"password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid email format", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"ada","password":"password123","email":"nope"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate username", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateUsername
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"ada","password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_USERNAME")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns token and role on success", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(username, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Username: username, Role: models.UserRoleAdmin}, nil
			},
		}
		issuer := testIssuer()
		r := setupAuthRouter(NewAuthHandler(userSvc, issuer, zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/login", `{"username":"ada","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["role"] != "admin" {
			t.Errorf("expected role admin, got %v", result["role"])
		}
		token, _ := result["token"].(string)
		claims, err := issuer.Verify(token)
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if claims.UserID != testUserID || claims.Subject != testUserID {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/login", `{"username":"ada","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 403 for a disabled account", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrAccountDisabled
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/login", `{"username":"ada","password":"password123"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_DISABLED")
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "POST", "/auth/login", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns the caller", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Username: "ada"}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != testUserID {
			t.Errorf("expected id %s, got %v", testUserID, user["id"])
		}
	})

	t.Run("returns 401 without an identity", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "GET", "/anonymous-profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHENTICATED")
	})

	t.Run("returns 404 when the user is gone", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, testIssuer(), zap.NewNop().Sugar()))

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
