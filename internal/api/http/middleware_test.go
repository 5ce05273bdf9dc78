package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/ecobazaar-auth/internal/api/http"
	"github.com/spec-kit/ecobazaar-auth/internal/api/http/handlers"
	"github.com/spec-kit/ecobazaar-auth/internal/auth"
	"github.com/spec-kit/ecobazaar-auth/internal/config"
	"github.com/spec-kit/ecobazaar-auth/internal/domain"
	"github.com/spec-kit/ecobazaar-auth/internal/events"
	"github.com/spec-kit/ecobazaar-auth/internal/observability"
	"github.com/spec-kit/ecobazaar-auth/internal/repository"
	"github.com/spec-kit/ecobazaar-auth/internal/service"
)

// deadlineRecordingRepo captures the context handed to lookups so tests can
// verify the request timeout survives the handler and service layers.
type deadlineRecordingRepo struct {
	*repository.MemoryUserRepository
	deadline    time.Time
	hadDeadline bool
}

func (r *deadlineRecordingRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.deadline, r.hadDeadline = ctx.Deadline()
	return r.MemoryUserRepository.GetByEmail(ctx, email)
}

func newMiddlewareTestApp(t *testing.T, repo repository.UserRepository, timeout time.Duration) (*fiber.App, *service.AuthService, *observability.Metrics) {
	t.Helper()

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:            "middleware-test-secret",
		AccessTokenTTLHours:  24,
		RefreshTokenTTLHours: 168,
		BcryptCost:           bcrypt.MinCost,
	}, repo, events.NewInMemoryDispatcher())

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, timeout)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Auth:           handlers.NewAuthHandler(authService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager()),
	})
	return app, authService, metrics
}

func TestRequestTimeoutReachesRepository(t *testing.T) {
	repo := &deadlineRecordingRepo{MemoryUserRepository: repository.NewMemoryUserRepository()}
	app, authService, _ := newMiddlewareTestApp(t, repo, 5*time.Second)

	if _, err := authService.Register(context.Background(), service.RegisterInput{
		Name:            "Jane",
		Email:           "jane@x.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		Role:            "CUSTOMER",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"jane@x.com","password":"password123","role":"CUSTOMER"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	if !repo.hadDeadline {
		t.Fatal("repository context carried no deadline")
	}
	if remaining := time.Until(repo.deadline); remaining <= 0 || remaining > 5*time.Second {
		t.Fatalf("deadline outside the configured window: %v remaining", remaining)
	}
}

func TestRequestLogRecordsFinalStatus(t *testing.T) {
	app, _, metrics := newMiddlewareTestApp(t, repository.NewMemoryUserRepository(), 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	requests, _ := metrics.Snapshot()
	if requests["/auth/me|GET|401"] != 1 {
		t.Fatalf("rejected request not counted under its final status: %v", requests)
	}
	if requests["/auth/me|GET|200"] != 0 {
		t.Fatalf("rejected request counted as 200: %v", requests)
	}
}
