package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erwinalamdev/secure-login/config"
	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	"github.com/erwinalamdev/secure-login/internal/auth/handler"
	"github.com/erwinalamdev/secure-login/internal/auth/service"
	"github.com/erwinalamdev/secure-login/internal/mocks"
	"github.com/erwinalamdev/secure-login/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testDeps struct {
	accounts *mocks.MockAccountRepository
	attempts *mocks.MockAttemptLedger
	hasher   *mocks.MockPasswordHasher
	tokens   *mocks.MockTokenGenerator
}

// newTestApp mounts every route on a fresh fiber app backed by real
// services and mocked dependencies.
func newTestApp(t *testing.T) (*fiber.App, testDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)

	deps := testDeps{
		accounts: mocks.NewMockAccountRepository(ctrl),
		attempts: mocks.NewMockAttemptLedger(ctrl),
		hasher:   mocks.NewMockPasswordHasher(ctrl),
		tokens:   mocks.NewMockTokenGenerator(ctrl),
	}

	cfg := &config.Config{
		BcryptCost:             bcrypt.MinCost,
		LoginMaxAttempts:       5,
		LoginWindowMinutes:     15,
		LockoutThreshold:       5,
		LockoutDurationMinutes: 15,
		LoginHistoryLimit:      20,
		RecentLoginDays:        7,
	}

	authService := service.NewAuthService(deps.accounts, deps.attempts, deps.hasher, deps.tokens, cfg)
	accountService := service.NewAccountService(deps.accounts, deps.attempts, deps.hasher, cfg)
	v := validation.New()

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	handler.RegisterRoutes(app, handler.NewAuthHandler(authService, v), handler.NewAccountHandler(accountService, v))
	return app, deps
}

func testAccount() *domain.Account {
	return &domain.Account{
		ID:           42,
		Email:        "test@example.com",
		PasswordHash: "stored-hash",
		FullName:     "Test User",
		CreatedAt:    time.Now().Add(-24 * time.Hour),
		IsActive:     true,
	}
}

// expectAuthenticated lets "good-token" through RequireAuth as testAccount.
func expectAuthenticated(deps testDeps) {
	claims := &service.JWTCustomClaims{AccountID: 42, Email: "test@example.com"}
	deps.tokens.EXPECT().VerifyAccessToken("good-token").Return(claims, nil)
	deps.accounts.EXPECT().GetByID(gomock.Any(), int64(42)).Return(testAccount(), nil)
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authedRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	req := jsonRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer good-token")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
