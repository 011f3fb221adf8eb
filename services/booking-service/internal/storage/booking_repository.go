package storage

import (
	"context"
	"errors"

	"github.com/elitebarber/bookingd/libs/db"
	"github.com/elitebarber/bookingd/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// BookingRepository persists bookings. The bookings table carries an
// exclusion constraint over (date, buffered time range) for confirmed rows,
// so two overlapping inserts cannot both commit; callers map that failure
// through IsConflict.
type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const bookingColumns = `
	id::text,
	customer_name,
	phone,
	email,
	to_char(date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'),
	duration_minutes,
	services,
	price,
	COALESCE(notes, ''),
	status,
	created_at`

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings
			(customer_name, phone, email, date, start_time, duration_minutes, services, price, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text
	`, b.CustomerName, b.Phone, b.Email, b.Date, b.Time, b.Duration, b.Services, b.Price, b.Notes, b.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (model.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Booking, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanBooking(row)
}

func (r *BookingRepository) Update(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET customer_name = $2,
			phone = $3,
			email = $4,
			date = $5,
			start_time = $6,
			duration_minutes = $7,
			services = $8,
			price = $9,
			notes = $10,
			status = $11
		WHERE id = $1
	`, b.ID, b.CustomerName, b.Phone, b.Email, b.Date, b.Time, b.Duration, b.Services, b.Price, b.Notes, b.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Cancel flips a confirmed booking to cancelled. Rows are never deleted.
func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'confirmed'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) ListConfirmedOnDate(ctx context.Context, date string) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, confirmedOnDateSQL, date)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ListConfirmedOnDateTx is the in-transaction fresh read used by the final
// pre-insert conflict check.
func (r *BookingRepository) ListConfirmedOnDateTx(ctx context.Context, tx pgx.Tx, date string) ([]model.Booking, error) {
	rows, err := tx.Query(ctx, confirmedOnDateSQL, date)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

const confirmedOnDateSQL = `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE date = $1 AND status = 'confirmed'
	ORDER BY start_time ASC`

// ListRange returns confirmed bookings with date in [from, to], for calendar
// month rendering.
func (r *BookingRepository) ListRange(ctx context.Context, from, to string) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE date >= $1 AND date <= $2 AND status = 'confirmed'
		ORDER BY date ASC, start_time ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *BookingRepository) ListRecent(ctx context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.CustomerName,
		&b.Phone,
		&b.Email,
		&b.Date,
		&b.Time,
		&b.Duration,
		&b.Services,
		&b.Price,
		&b.Notes,
		&b.Status,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

func scanBookings(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}
