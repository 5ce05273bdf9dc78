package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/ecobazaar-auth/internal/api/http"
	"github.com/spec-kit/ecobazaar-auth/internal/api/http/handlers"
	"github.com/spec-kit/ecobazaar-auth/internal/api/dto"
	"github.com/spec-kit/ecobazaar-auth/internal/auth"
	"github.com/spec-kit/ecobazaar-auth/internal/config"
	"github.com/spec-kit/ecobazaar-auth/internal/events"
	"github.com/spec-kit/ecobazaar-auth/internal/observability"
	"github.com/spec-kit/ecobazaar-auth/internal/repository"
	"github.com/spec-kit/ecobazaar-auth/internal/service"
)

func newTestApp(t *testing.T) (*fiber.App, *service.AuthService) {
	t.Helper()

	repo := repository.NewMemoryUserRepository()
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:            "handler-test-secret",
		AccessTokenTTLHours:  24,
		RefreshTokenTTLHours: 168,
		BcryptCost:           bcrypt.MinCost,
	}, repo, events.NewInMemoryDispatcher())

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Auth:           handlers.NewAuthHandler(authService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager()),
	})
	return app, authService
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeAuthResponse(t *testing.T, resp *http.Response) dto.AuthResponse {
	t.Helper()
	defer resp.Body.Close()

	var decoded dto.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func registerAndLogin(t *testing.T, app *fiber.App) dto.AuthResponse {
	t.Helper()

	resp := postJSON(t, app, "/auth/register", dto.RegisterRequest{
		Name:            "Jane",
		Email:           "jane@x.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		Role:            "CUSTOMER",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	login := decodeAuthResponse(t, postJSON(t, app, "/auth/login", dto.LoginRequest{
		Email:    "jane@x.com",
		Password: "password123",
		Role:     "CUSTOMER",
	}, nil))
	if !login.Success || login.AccessToken == "" || login.RefreshToken == "" {
		t.Fatalf("login did not issue tokens: %+v", login)
	}
	return login
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	login := registerAndLogin(t, app)
	if login.Role != "CUSTOMER" {
		t.Fatalf("expected CUSTOMER role, got %q", login.Role)
	}
	if login.UserID == "" {
		t.Fatal("expected userId in login response")
	}
}

func TestRegisterValidationReturnsBadRequest(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/auth/register", dto.RegisterRequest{
		Name:            "",
		Email:           "a@b.com",
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
		Role:            "CUSTOMER",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	decoded := decodeAuthResponse(t, resp)
	if decoded.Success {
		t.Fatal("expected success=false")
	}
	if decoded.Message != "Name is required" {
		t.Fatalf("unexpected message: %q", decoded.Message)
	}
}

func TestRegisterDuplicateEmailReturnsConflict(t *testing.T) {
	app, _ := newTestApp(t)
	registerAndLogin(t, app)

	resp := postJSON(t, app, "/auth/register", dto.RegisterRequest{
		Name:            "Jane Again",
		Email:           "jane@x.com",
		Password:        "password456",
		ConfirmPassword: "password456",
		Role:            "CUSTOMER",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	decoded := decodeAuthResponse(t, resp)
	if decoded.Success {
		t.Fatal("expected success=false on duplicate email")
	}
}

func TestLoginFailureUsesGenericMessage(t *testing.T) {
	app, _ := newTestApp(t)
	registerAndLogin(t, app)

	cases := []dto.LoginRequest{
		{Email: "nobody@x.com", Password: "password123", Role: "CUSTOMER"},
		{Email: "jane@x.com", Password: "wrongpass", Role: "CUSTOMER"},
		{Email: "jane@x.com", Password: "password123", Role: "ADMIN"},
	}

	for _, req := range cases {
		resp := postJSON(t, app, "/auth/login", req, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
		decoded := decodeAuthResponse(t, resp)
		if decoded.Success {
			t.Fatal("expected success=false")
		}
		if decoded.Message != "Invalid email, password, or role" {
			t.Fatalf("expected generic failure message, got %q", decoded.Message)
		}
		if decoded.AccessToken != "" || decoded.RefreshToken != "" {
			t.Fatal("no tokens may be issued on failure")
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	login := registerAndLogin(t, app)

	resp := postJSON(t, app, "/auth/validate", nil, map[string]string{
		"Authorization": "Bearer " + login.AccessToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	var decoded dto.ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !decoded.Valid {
		t.Fatalf("expected valid=true, got error %q", decoded.Error)
	}
	if decoded.Role != "CUSTOMER" || decoded.Email != "jane@x.com" {
		t.Fatalf("unexpected claims: %+v", decoded)
	}

	// A refresh token must never pass the validator.
	resp = postJSON(t, app, "/auth/validate", nil, map[string]string{
		"Authorization": "Bearer " + login.RefreshToken,
	})
	defer resp.Body.Close()
	var refreshDecoded dto.ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshDecoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if refreshDecoded.Valid {
		t.Fatal("refresh token validated as access token")
	}
}

func TestRefreshEndpointRotatesPair(t *testing.T) {
	app, _ := newTestApp(t)
	login := registerAndLogin(t, app)

	resp := postJSON(t, app, "/auth/refresh", nil, map[string]string{
		"Authorization": "Bearer " + login.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decoded := decodeAuthResponse(t, resp)
	if !decoded.Success || decoded.AccessToken == "" || decoded.RefreshToken == "" {
		t.Fatalf("expected rotated pair, got %+v", decoded)
	}
}

func TestRefreshEndpointRejectsAccessToken(t *testing.T) {
	app, _ := newTestApp(t)
	login := registerAndLogin(t, app)

	resp := postJSON(t, app, "/auth/refresh", nil, map[string]string{
		"Authorization": "Bearer " + login.AccessToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	decoded := decodeAuthResponse(t, resp)
	if decoded.Message != "Invalid token type" {
		t.Fatalf("unexpected message: %q", decoded.Message)
	}
}

func TestLogoutAcknowledges(t *testing.T) {
	app, _ := newTestApp(t)
	login := registerAndLogin(t, app)

	resp := postJSON(t, app, "/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + login.AccessToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	var decoded dto.MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !decoded.Success {
		t.Fatal("expected success=true")
	}

	// Stateless design: the token still works after logout.
	validate := postJSON(t, app, "/auth/validate", nil, map[string]string{
		"Authorization": "Bearer " + login.AccessToken,
	})
	defer validate.Body.Close()
	var stillValid dto.ValidateResponse
	if err := json.NewDecoder(validate.Body).Decode(&stillValid); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !stillValid.Valid {
		t.Fatal("logout must not invalidate tokens server-side")
	}
}

func TestResetPasswordEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	registerAndLogin(t, app)

	resp := postJSON(t, app, "/auth/reset-password", dto.ResetPasswordRequest{Email: "jane@x.com"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, app, "/auth/reset-password", dto.ResetPasswordRequest{Email: "ghost@x.com"}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMeRequiresAccessToken(t *testing.T) {
	app, _ := newTestApp(t)
	login := registerAndLogin(t, app)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.RefreshToken)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh token on protected route: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminMetricsRequiresAdminRole(t *testing.T) {
	app, _ := newTestApp(t)
	customer := registerAndLogin(t, app)

	resp := postJSON(t, app, "/auth/register", dto.RegisterRequest{
		Name:            "Ada",
		Email:           "ada@x.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		Role:            "ADMIN",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin register: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	admin := decodeAuthResponse(t, postJSON(t, app, "/auth/login", dto.LoginRequest{
		Email:    "ada@x.com",
		Password: "password123",
		Role:     "ADMIN",
	}, nil))
	if !admin.Success {
		t.Fatalf("admin login failed: %+v", admin)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+customer.AccessToken)
	got, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got.StatusCode != http.StatusForbidden {
		t.Fatalf("customer on admin route: expected 403, got %d", got.StatusCode)
	}
	got.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+admin.AccessToken)
	got, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got.StatusCode != http.StatusOK {
		t.Fatalf("admin on admin route: expected 200, got %d", got.StatusCode)
	}
	got.Body.Close()
}
