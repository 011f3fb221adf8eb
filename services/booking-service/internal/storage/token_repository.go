package storage

import (
	"context"
	"time"

	"github.com/elitebarber/bookingd/libs/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TokenRepository issues manage tokens: opaque links customers use to view
// or cancel a booking without an account. At most one token per booking is
// active, and a token dies when the appointment starts.
type TokenRepository struct {
	pool *db.Pool
}

func NewTokenRepository(pool *db.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// CreateForBooking deactivates any earlier tokens for the booking and issues
// a fresh one expiring at the appointment start.
func (r *TokenRepository) CreateForBooking(ctx context.Context, tx pgx.Tx, bookingID string, expiresAt time.Time) (string, error) {
	_, err := tx.Exec(ctx, `
		UPDATE manage_tokens
		SET active = false
		WHERE booking_id = $1 AND active
	`, bookingID)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO manage_tokens (token, booking_id, expires_at, active)
		VALUES ($1, $2, $3, true)
	`, token, bookingID, expiresAt)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetActiveBookingID resolves a token to its booking id. Expired tokens are
// deactivated on the way out and reported as not found.
func (r *TokenRepository) GetActiveBookingID(ctx context.Context, token string) (string, error) {
	var bookingID string
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT booking_id::text, expires_at
		FROM manage_tokens
		WHERE token = $1 AND active
	`, token).Scan(&bookingID, &expiresAt)
	if err != nil {
		return "", err
	}
	if time.Now().After(expiresAt) {
		_, _ = r.pool.Exec(ctx, `
			UPDATE manage_tokens SET active = false WHERE token = $1
		`, token)
		return "", pgx.ErrNoRows
	}
	return bookingID, nil
}

func (r *TokenRepository) DeactivateForBooking(ctx context.Context, tx pgx.Tx, bookingID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE manage_tokens
		SET active = false
		WHERE booking_id = $1 AND active
	`, bookingID)
	return err
}
