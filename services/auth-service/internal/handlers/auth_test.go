package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elitebarber/bookingd/libs/httpx"
	"golang.org/x/crypto/bcrypt"
)

func testAuthHandler(t *testing.T, attempts int) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewMemoryLimiter(httpx.NewRateLimiter(attempts, 15*time.Minute))
	return NewAuthHandler(Config{
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
	}, nil, limiter, logger)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := testAuthHandler(t, 5)
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"password":"guess"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogin_MissingPassword(t *testing.T) {
	h := testAuthHandler(t, 5)
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	h := testAuthHandler(t, 3)
	var last int
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"password":"guess"}`))
		req.RemoteAddr = "203.0.113.9:4242"
		h.Login(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting attempts, got %d", last)
	}
}

func TestVerify_MissingToken(t *testing.T) {
	h := testAuthHandler(t, 5)
	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest(http.MethodGet, "/verify", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVerify_BadToken(t *testing.T) {
	h := testAuthHandler(t, 5)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/verify", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	h.Verify(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/verify", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")
	if got := tokenFromRequest(r); got != "cookie-token" {
		t.Fatalf("cookie should win, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/verify", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := tokenFromRequest(r); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/verify", nil)
	if got := tokenFromRequest(r); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
