package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/elitebarber/bookingd/libs/otel"
)

// Job is one pending thank-you message, due a short while after the
// appointment ends. One job per booking; rebooking the same slot is a new
// booking id and therefore a new job.
type Job struct {
	ID           int64
	BookingID    string
	Recipient    string
	CustomerName string
	Services     []string
	Date         string
	Time         string
	DueAt        time.Time
	Traceparent  string
	Tracestate   string
	Attempts     int
	MaxAttempts  int
	NextRunAt    time.Time
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, job Job) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO followup_jobs (booking_id, recipient, customer_name, services, date, start_time, due_at, next_run_at, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $9)
		ON CONFLICT (booking_id) DO NOTHING
	`, job.BookingID, job.Recipient, job.CustomerName, job.Services, job.Date, job.Time, job.DueAt, traceparent, tracestate)
	return err
}

// CancelForBooking drops a pending followup when the booking is cancelled.
func (r *Repository) CancelForBooking(ctx context.Context, tx pgx.Tx, bookingID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE followup_jobs
		SET status = 'cancelled', updated_at = now()
		WHERE booking_id = $1 AND status = 'pending'
	`, bookingID)
	return err
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, booking_id, recipient, customer_name, services, to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), due_at, traceparent, tracestate, attempts, max_attempts, next_run_at
		FROM followup_jobs
		WHERE status = 'pending' AND next_run_at <= now()
		ORDER BY next_run_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.BookingID, &j.Recipient, &j.CustomerName, &j.Services, &j.Date, &j.Time, &j.DueAt, &j.Traceparent, &j.Tracestate, &j.Attempts, &j.MaxAttempts, &j.NextRunAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE followup_jobs
		SET status = 'processed', updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := tx.Exec(ctx, `
		UPDATE followup_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}
