package storage

import (
	"context"

	"github.com/elitebarber/bookingd/libs/db"
	"github.com/elitebarber/bookingd/services/booking-service/internal/availability"
)

type HoursRepository struct {
	pool *db.Pool
}

func NewHoursRepository(pool *db.Pool) *HoursRepository {
	return &HoursRepository{pool: pool}
}

// GetSchedule loads the weekly business hours, keyed by lowercase weekday
// name. Weekdays without a row are treated as closed by callers.
func (r *HoursRepository) GetSchedule(ctx context.Context) (availability.WeekSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday,
			enabled,
			to_char(open_time, 'HH24:MI'),
			to_char(close_time, 'HH24:MI'),
			overtime_buffer_minutes
		FROM business_hours
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sched := availability.WeekSchedule{}
	for rows.Next() {
		var weekday string
		var h availability.DayHours
		if err := rows.Scan(&weekday, &h.Enabled, &h.Open, &h.Close, &h.OvertimeBufferMinutes); err != nil {
			return nil, err
		}
		sched[weekday] = h
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sched, nil
}

func (r *HoursRepository) UpdateDay(ctx context.Context, weekday string, h availability.DayHours) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO business_hours (weekday, enabled, open_time, close_time, overtime_buffer_minutes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (weekday) DO UPDATE
		SET enabled = EXCLUDED.enabled,
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			overtime_buffer_minutes = EXCLUDED.overtime_buffer_minutes
	`, weekday, h.Enabled, h.Open, h.Close, h.OvertimeBufferMinutes)
	return err
}

func (r *HoursRepository) UpdateSchedule(ctx context.Context, sched availability.WeekSchedule) error {
	for weekday, h := range sched {
		if err := r.UpdateDay(ctx, weekday, h); err != nil {
			return err
		}
	}
	return nil
}
