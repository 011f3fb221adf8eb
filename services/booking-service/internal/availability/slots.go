// Package availability decides whether appointments fit: interval-overlap
// conflict detection against confirmed bookings, plus whole-day slot
// enumeration bounded by business hours. Everything here is pure and
// stateless; callers supply bookings and hours read from storage.
package availability

import (
	"strings"
	"time"
)

const (
	// DefaultBufferMinutes is the cleanup window appended after every
	// confirmed booking before the next one may start.
	DefaultBufferMinutes = 15

	// DefaultSlotStepMinutes is the granularity at which candidate start
	// times are enumerated.
	DefaultSlotStepMinutes = 30

	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is the subset of a stored booking the engine needs.
// Only confirmed bookings occupy calendar time.
type Booking struct {
	ID       string
	Date     string // "2006-01-02"
	Time     string // "HH:MM"
	Duration int    // minutes
	Status   string
}

// DayHours is the shop schedule for one weekday. An appointment's end may
// run up to OvertimeBufferMinutes past Close and still be accepted.
type DayHours struct {
	Enabled               bool
	Open                  string // "HH:MM"
	Close                 string // "HH:MM"
	OvertimeBufferMinutes int
}

// WeekSchedule maps lowercase weekday names ("sunday".."saturday") to hours.
type WeekSchedule map[string]DayHours

// ForDate resolves the schedule entry for a "2006-01-02" date.
func (s WeekSchedule) ForDate(date string) (DayHours, bool) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return DayHours{}, false
	}
	h, ok := s[strings.ToLower(d.Weekday().String())]
	return h, ok
}

// IsSlotAvailable reports whether a candidate (date, start, duration) avoids
// every confirmed booking on that date. The buffer trails the existing
// booking's end only; no gap is required before one. Half-open intervals:
// [newStart,newEnd) conflicts with [existingStart,existingEnd+buffer) iff
// newStart < existingEnd+buffer && newEnd > existingStart.
func IsSlotAvailable(date, start string, duration int, bookings []Booking, buffer int) bool {
	newStart := TimeToMinutes(start)
	newEnd := newStart + duration
	for _, b := range bookings {
		if b.Date != date || b.Status != StatusConfirmed {
			continue
		}
		existingStart := TimeToMinutes(b.Time)
		existingEnd := existingStart + b.Duration
		if newStart < existingEnd+buffer && newEnd > existingStart {
			return false
		}
	}
	return true
}

// HasAvailableSlotOnDay reports whether any start time on date can still fit
// a service of the given duration. A zero or negative duration means nothing
// is being scheduled yet, so the day is never full.
func HasAvailableSlotOnDay(date string, duration int, hours DayHours, bookings []Booking, step int, now time.Time) bool {
	if duration <= 0 {
		return true
	}
	acceptOne := false
	scanDay(date, duration, hours, bookings, step, now, func(string) bool {
		acceptOne = true
		return false
	})
	return acceptOne
}

// AvailableStartTimes returns every accepted start time on date for the given
// duration, in ascending order. It shares its acceptance predicate with
// HasAvailableSlotOnDay so the calendar and the time picker cannot disagree.
func AvailableStartTimes(date string, duration int, hours DayHours, bookings []Booking, step int, now time.Time) []string {
	if duration <= 0 {
		return nil
	}
	var starts []string
	scanDay(date, duration, hours, bookings, step, now, func(start string) bool {
		starts = append(starts, start)
		return true
	})
	return starts
}

// scanDay enumerates candidate starts from open (inclusive) to close
// (exclusive) and calls accept for each one that passes. accept returns
// false to stop early.
func scanDay(date string, duration int, hours DayHours, bookings []Booking, step int, now time.Time, accept func(start string) bool) {
	if !hours.Enabled {
		return
	}
	if step <= 0 {
		step = DefaultSlotStepMinutes
	}
	open := TimeToMinutes(hours.Open)
	close := TimeToMinutes(hours.Close)
	cutoff := close + hours.OvertimeBufferMinutes
	today := date == now.Format(dateLayout)
	nowMinutes := minuteOfDay(now)

	for s := open; s < close; s += step {
		if today && s <= nowMinutes {
			continue
		}
		if s+duration > cutoff {
			continue
		}
		start := minutesToTime(s)
		if !IsSlotAvailable(date, start, duration, bookings, DefaultBufferMinutes) {
			continue
		}
		if !accept(start) {
			return
		}
	}
}

// CanBook is the single-candidate check run server-side immediately before
// the insert, against freshly read bookings: the candidate must fall inside
// business hours (end may overrun by the overtime buffer), must not be in
// the past, and must not conflict.
func CanBook(date, start string, duration int, hours DayHours, bookings []Booking, now time.Time, buffer int) bool {
	if duration <= 0 {
		return false
	}
	if !hours.Enabled {
		return false
	}
	s := TimeToMinutes(start)
	open := TimeToMinutes(hours.Open)
	close := TimeToMinutes(hours.Close)
	if s < open || s >= close {
		return false
	}
	if s+duration > close+hours.OvertimeBufferMinutes {
		return false
	}
	if date == now.Format(dateLayout) && s <= minuteOfDay(now) {
		return false
	}
	return IsSlotAvailable(date, start, duration, bookings, buffer)
}

// ExcludeBooking filters out the booking with the given id, so an edited
// booking is not treated as conflicting with itself.
func ExcludeBooking(bookings []Booking, id string) []Booking {
	if id == "" {
		return bookings
	}
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID == id {
			continue
		}
		out = append(out, b)
	}
	return out
}
