package model

import (
	"time"

	"github.com/elitebarber/bookingd/services/booking-service/internal/availability"
)

type Booking struct {
	ID           string
	CustomerName string
	Phone        string
	Email        string
	Date         string // "2006-01-02"
	Time         string // "HH:MM"
	Duration     int
	Services     []string
	Price        int
	Notes        string
	Status       string
	CreatedAt    time.Time
}

// Slot projects the booking down to the fields conflict checks care about.
func (b Booking) Slot() availability.Booking {
	return availability.Booking{
		ID:       b.ID,
		Date:     b.Date,
		Time:     b.Time,
		Duration: b.Duration,
		Status:   b.Status,
	}
}

// Slots converts a list of bookings for conflict checks.
func Slots(bookings []Booking) []availability.Booking {
	out := make([]availability.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Slot())
	}
	return out
}

type ManageToken struct {
	Token     string
	BookingID string
	ExpiresAt time.Time
	Active    bool
	CreatedAt time.Time
}
