package storage

import (
	"context"
	"encoding/json"

	"github.com/elitebarber/bookingd/libs/db"
)

// Notification is one delivery attempt recorded for audit.
type Notification struct {
	BookingID string
	Kind      string // confirmation, cancellation, followup
	Channel   string // email, sms
	Recipient string
	Payload   map[string]any
	Status    string // sent, failed
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (booking_id, kind, channel, recipient, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.BookingID, n.Kind, n.Channel, n.Recipient, payload, n.Status)
	return err
}
