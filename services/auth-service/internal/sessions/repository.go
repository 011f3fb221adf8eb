package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/elitebarber/bookingd/libs/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Session is one admin login. The dashboard token is only honored while a
// matching unrevoked, unexpired session row exists, so logout and forced
// revocation take effect before the JWT itself expires.
type Session struct {
	ID        string
	TokenHash string
	ClientIP  string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, rawToken, clientIP string, expiresAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_sessions (id, token_hash, client_ip, expires_at)
		VALUES ($1, $2, $3, $4)
	`, id, HashToken(rawToken), clientIP, expiresAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) GetByHash(ctx context.Context, hash string) (Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
		SELECT id, token_hash, COALESCE(client_ip, ''), expires_at, revoked_at
		FROM admin_sessions
		WHERE token_hash = $1
	`, hash).Scan(&s.ID, &s.TokenHash, &s.ClientIP, &s.ExpiresAt, &s.RevokedAt)
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *Repository) Revoke(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE admin_sessions
		SET revoked_at = now()
		WHERE id = $1
	`, id)
	return err
}

func IsNotFound(err error) bool {
	return err == pgx.ErrNoRows
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
