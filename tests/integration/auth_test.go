package integration

import (
	"net/http"
	"testing"

	"sheetdesk/internal/models"
)

func TestAuthFlow_RegisterLoginProfile(t *testing.T) {
	app := setupApp(t)

	// Step 1: Register
	userID := app.registerUser(t, "ada", "password123")
	if userID == "" {
		t.Fatal("expected a user ID")
	}

	// Step 2: Login returns token and role
	rec := app.request("POST", "/api/v1/auth/login", `{"username":"ada","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	login := parseJSON(t, rec)
	if login["role"] != "user" {
		t.Errorf("expected role user, got %v", login["role"])
	}
	token := login["token"].(string)

	// Step 3: Access profile with the token
	rec = app.request("GET", "/api/v1/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["id"] != userID || user["username"] != "ada" {
		t.Errorf("unexpected profile: %v", user)
	}
}

func TestAuthFlow_RegisterCannotClaimAdmin(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/v1/auth/register",
		`{"username":"mallory","password":"password123","role":"admin"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}

	var user models.User
	if err := app.DB.Where("username = ?", "mallory").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Role != models.UserRoleUser {
		t.Errorf("expected role user, got %s", user.Role)
	}
}

func TestAuthFlow_RegisterDuplicateUsername(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "dup", "password123")

	rec := app.request("POST", "/api/v1/auth/register", `{"username":"dup","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "DUPLICATE_USERNAME" {
		t.Errorf("expected DUPLICATE_USERNAME, got %v", code)
	}
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "ada", "password123")

	rec := app.request("POST", "/api/v1/auth/login", `{"username":"ada","password":"wrongpassword"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", code)
	}

	// Unknown usernames look the same as wrong passwords
	rec = app.request("POST", "/api/v1/auth/login", `{"username":"nobody","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", rec.Code)
	}
}

func TestAuthFlow_SuspendedUserCannotLogin(t *testing.T) {
	app := setupApp(t)

	_, adminToken := app.createAdmin(t, "root", models.CapManageUsers)
	userID := app.registerUser(t, "ada", "password123")

	rec := app.request("PATCH", "/api/v1/admin/users/"+userID+"/status", `{"status":"suspended"}`, adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("suspend failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/auth/login", `{"username":"ada","password":"password123"}`, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "ACCOUNT_DISABLED" {
		t.Errorf("expected ACCOUNT_DISABLED, got %v", code)
	}
}

func TestAuthFlow_ProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/files", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNAUTHENTICATED" {
		t.Errorf("expected UNAUTHENTICATED, got %v", code)
	}

	rec = app.request("GET", "/api/v1/files", "", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_TOKEN" {
		t.Errorf("expected INVALID_TOKEN, got %v", code)
	}
}
