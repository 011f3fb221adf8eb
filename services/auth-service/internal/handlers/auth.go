package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elitebarber/bookingd/libs/auth"
	"github.com/elitebarber/bookingd/libs/httpx"
	"github.com/elitebarber/bookingd/services/auth-service/internal/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "admin_token"

// LoginLimiter throttles login attempts per client. Successful logins reset
// the window so a legitimate admin is not locked out by their own typos.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type memoryLimiter struct{ rl *httpx.RateLimiter }

func (m memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return m.rl.Allow(key), nil
}

func (m memoryLimiter) Reset(_ context.Context, key string) error {
	m.rl.Reset(key)
	return nil
}

func NewMemoryLimiter(rl *httpx.RateLimiter) LoginLimiter {
	return memoryLimiter{rl: rl}
}

type redisLimiter struct{ rl *httpx.RedisRateLimiter }

func (r redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return r.rl.Allow(ctx, key)
}

func (r redisLimiter) Reset(ctx context.Context, key string) error {
	return r.rl.Reset(ctx, key)
}

func NewRedisLimiter(rl *httpx.RedisRateLimiter) LoginLimiter {
	return redisLimiter{rl: rl}
}

type AuthHandler struct {
	passwordHash string
	secret       string
	tokenTTL     time.Duration
	sessions     *sessions.Repository
	limiter      LoginLimiter
	logger       *slog.Logger
	secureCookie bool
}

type Config struct {
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
}

func NewAuthHandler(cfg Config, sessionRepo *sessions.Repository, limiter LoginLimiter, logger *slog.Logger) *AuthHandler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	return &AuthHandler{
		passwordHash: cfg.PasswordHash,
		secret:       cfg.JWTSecret,
		tokenTTL:     cfg.TokenTTL,
		sessions:     sessionRepo,
		limiter:      limiter,
		logger:       logger,
		secureCookie: cfg.SecureCookie,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type verifyResponse struct {
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientKey := httpx.ClientKey(r)
	allowed, err := h.limiter.Allow(r.Context(), clientKey)
	if err != nil {
		h.logger.Warn("login limiter error", "err", err)
	} else if !allowed {
		http.Error(w, "too many login attempts, try again later", http.StatusTooManyRequests)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		http.Error(w, "password required", http.StatusBadRequest)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	expiresAt := now.Add(h.tokenTTL)
	token, err := auth.SignHS256(auth.Claims{
		Sub:  "admin",
		Role: "admin",
		Iat:  now.Unix(),
		Exp:  expiresAt.Unix(),
	}, h.secret)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	if _, err := h.sessions.Create(r.Context(), token, clientKey, expiresAt); err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	if err := h.limiter.Reset(r.Context(), clientKey); err != nil {
		h.logger.Warn("login limiter reset failed", "err", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := tokenFromRequest(r)
	if token != "" {
		session, err := h.sessions.GetByHash(r.Context(), sessions.HashToken(token))
		if err == nil && session.RevokedAt == nil {
			if err := h.sessions.Revoke(r.Context(), session.ID); err != nil {
				http.Error(w, "failed to revoke session", http.StatusInternalServerError)
				return
			}
		} else if err != nil && !sessions.IsNotFound(err) {
			http.Error(w, "failed to lookup session", http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Verify checks the caller's token: the signature must hold and the session
// row must still be live. The dashboard calls this on load to decide whether
// to show the login form.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ParseAndVerifyHS256(token, h.secret)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.GetByHash(r.Context(), sessions.HashToken(token))
	if err != nil {
		if sessions.IsNotFound(err) {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}
		http.Error(w, "failed to lookup session", http.StatusInternalServerError)
		return
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now()) {
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Role:      claims.Role,
		ExpiresAt: time.Unix(claims.Exp, 0).UTC().Format(time.RFC3339),
	})
}

// tokenFromRequest accepts the session cookie or a bearer header. The
// dashboard uses the cookie; API clients use the header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
