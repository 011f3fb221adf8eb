package availability

import (
	"testing"
	"time"
)

// 2026-03-02 is a Monday.
const monday = "2026-03-02"

func mondayHours() DayHours {
	return DayHours{Enabled: true, Open: "09:00", Close: "18:00"}
}

// A fixed clock well before the test dates so the past-slot skip never fires.
func clock() time.Time {
	return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
}

func TestTimeToMinutes(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:05": 545,
		"18:00": 1080,
		"23:59": 1439,
	}
	for in, want := range cases {
		if got := TimeToMinutes(in); got != want {
			t.Fatalf("TimeToMinutes(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestAddMinutes(t *testing.T) {
	if got := AddMinutes("09:00", 45); got != "09:45" {
		t.Fatalf("expected 09:45, got %s", got)
	}
	if got := AddMinutes("09:30", 45); got != "10:15" {
		t.Fatalf("expected 10:15, got %s", got)
	}
	// No midnight wrap: the hour component runs past 23.
	if got := AddMinutes("23:30", 60); got != "24:30" {
		t.Fatalf("expected 24:30, got %s", got)
	}
}

func TestIsSlotAvailable_SelfOverlap(t *testing.T) {
	b := Booking{ID: "b1", Date: monday, Time: "10:00", Duration: 30, Status: StatusConfirmed}
	if IsSlotAvailable(b.Date, b.Time, b.Duration, []Booking{b}, DefaultBufferMinutes) {
		t.Fatal("a booking must conflict with itself")
	}
}

func TestIsSlotAvailable_BufferTrailsExisting(t *testing.T) {
	existing := []Booking{{ID: "b1", Date: monday, Time: "09:00", Duration: 45, Status: StatusConfirmed}}

	// 09:45 starts inside the 15-minute cleanup window after 09:00-09:45.
	if IsSlotAvailable(monday, "09:45", 30, existing, DefaultBufferMinutes) {
		t.Fatal("candidate inside trailing buffer must be rejected")
	}
	if !IsSlotAvailable(monday, "10:00", 30, existing, DefaultBufferMinutes) {
		t.Fatal("candidate at buffered end must be accepted")
	}
	// No buffer is required before an existing booking: 08:15+45 ends 09:00.
	if !IsSlotAvailable(monday, "08:15", 45, existing, DefaultBufferMinutes) {
		t.Fatal("candidate ending exactly at existing start must be accepted")
	}
}

func TestIsSlotAvailable_IgnoresOtherDatesAndCancelled(t *testing.T) {
	bookings := []Booking{
		{ID: "b1", Date: "2026-03-03", Time: "10:00", Duration: 30, Status: StatusConfirmed},
		{ID: "b2", Date: monday, Time: "10:00", Duration: 30, Status: StatusCancelled},
	}
	if !IsSlotAvailable(monday, "10:00", 30, bookings, DefaultBufferMinutes) {
		t.Fatal("other-date and cancelled bookings must not conflict")
	}
}

func TestHasAvailableSlotOnDay_Disabled(t *testing.T) {
	hours := DayHours{Enabled: false, Open: "09:00", Close: "18:00"}
	if HasAvailableSlotOnDay(monday, 30, hours, nil, DefaultSlotStepMinutes, clock()) {
		t.Fatal("disabled day must never have slots")
	}
}

func TestHasAvailableSlotOnDay_ZeroDuration(t *testing.T) {
	hours := DayHours{Enabled: false}
	if !HasAvailableSlotOnDay(monday, 0, hours, nil, DefaultSlotStepMinutes, clock()) {
		t.Fatal("zero duration means nothing to schedule, day is never full")
	}
}

func TestHasAvailableSlotOnDay_OvertimeClipping(t *testing.T) {
	// Fill 09:00-17:30 solid so 17:30 is the only free start. With no
	// overtime buffer a 45-minute service ends 18:15 > 18:00 and the day
	// is full; with a 20-minute buffer it ends 18:15 <= 18:20 and fits.
	var bookings []Booking
	for s := TimeToMinutes("09:00"); s < TimeToMinutes("17:30"); s += 30 {
		bookings = append(bookings, Booking{
			Date: monday, Time: AddMinutes("00:00", s), Duration: 15, Status: StatusConfirmed,
		})
	}

	hours := mondayHours()
	if HasAvailableSlotOnDay(monday, 45, hours, bookings, DefaultSlotStepMinutes, clock()) {
		t.Fatal("45-minute service ending past close must be rejected")
	}

	hours.OvertimeBufferMinutes = 20
	if !HasAvailableSlotOnDay(monday, 45, hours, bookings, DefaultSlotStepMinutes, clock()) {
		t.Fatal("overtime buffer must admit an end shortly past close")
	}
}

func TestHasAvailableSlotOnDay_SkipsPast(t *testing.T) {
	hours := mondayHours()
	now := time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC)

	// Every remaining candidate today is at or before 17:30.
	if HasAvailableSlotOnDay(monday, 30, hours, nil, DefaultSlotStepMinutes, now) {
		t.Fatal("past and current starts must be skipped on today's date")
	}
	// Earlier in the day 17:30 is still ahead.
	beforeNoon := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	if !HasAvailableSlotOnDay(monday, 30, hours, nil, DefaultSlotStepMinutes, beforeNoon) {
		t.Fatal("future starts today must remain available")
	}
}

func TestAvailableStartTimes_MatchesDayScan(t *testing.T) {
	hours := DayHours{Enabled: true, Open: "09:00", Close: "11:00"}
	bookings := []Booking{
		{ID: "b1", Date: monday, Time: "09:30", Duration: 30, Status: StatusConfirmed},
	}

	starts := AvailableStartTimes(monday, 30, hours, bookings, DefaultSlotStepMinutes, clock())
	// 09:00 ends 09:30, fine. 09:30 and 10:00 collide with the booking or
	// its buffer (ends 10:00, buffered 10:15). 10:30 ends 11:00, fine.
	want := []string{"09:00", "10:30"}
	if len(starts) != len(want) {
		t.Fatalf("expected %v, got %v", want, starts)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, starts)
		}
	}
	if !HasAvailableSlotOnDay(monday, 30, hours, bookings, DefaultSlotStepMinutes, clock()) {
		t.Fatal("day-scan must agree with a non-empty picker")
	}
}

func TestCanBook_BusinessHoursBounds(t *testing.T) {
	hours := mondayHours()
	now := clock()

	if CanBook(monday, "08:30", 30, hours, nil, now, DefaultBufferMinutes) {
		t.Fatal("start before open must be rejected")
	}
	if CanBook(monday, "17:30", 45, hours, nil, now, DefaultBufferMinutes) {
		t.Fatal("end past close with no overtime buffer must be rejected")
	}
	hours.OvertimeBufferMinutes = 20
	if !CanBook(monday, "17:30", 45, hours, nil, now, DefaultBufferMinutes) {
		t.Fatal("end within overtime buffer must be accepted")
	}
	if CanBook(monday, "10:00", 0, hours, nil, now, DefaultBufferMinutes) {
		t.Fatal("non-positive duration is never bookable")
	}
}

func TestCanBook_RejectsPastStart(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if CanBook(monday, "10:00", 30, mondayHours(), nil, now, DefaultBufferMinutes) {
		t.Fatal("a start at or before the current minute must be rejected")
	}
	if !CanBook(monday, "10:30", 30, mondayHours(), nil, now, DefaultBufferMinutes) {
		t.Fatal("a future start today must be accepted")
	}
}

func TestExcludeBooking(t *testing.T) {
	bookings := []Booking{
		{ID: "b1", Date: monday, Time: "10:00", Duration: 30, Status: StatusConfirmed},
		{ID: "b2", Date: monday, Time: "12:00", Duration: 30, Status: StatusConfirmed},
	}
	// Rescheduling b1 within its own old span must not self-conflict.
	rest := ExcludeBooking(bookings, "b1")
	if len(rest) != 1 || rest[0].ID != "b2" {
		t.Fatalf("expected only b2 to remain, got %v", rest)
	}
	if !IsSlotAvailable(monday, "10:00", 30, rest, DefaultBufferMinutes) {
		t.Fatal("edited booking must not conflict with itself")
	}
}

func TestWeekSchedule_ForDate(t *testing.T) {
	sched := WeekSchedule{"monday": mondayHours()}
	h, ok := sched.ForDate(monday)
	if !ok || !h.Enabled {
		t.Fatalf("expected monday hours, got %+v ok=%v", h, ok)
	}
	if _, ok := sched.ForDate("2026-03-03"); ok {
		t.Fatal("tuesday has no schedule entry")
	}
	if _, ok := sched.ForDate("not-a-date"); ok {
		t.Fatal("malformed date must not resolve")
	}
}

func TestEndToEndMonday(t *testing.T) {
	hours := mondayHours()
	existing := []Booking{{ID: "b1", Date: monday, Time: "10:00", Duration: 30, Status: StatusConfirmed}}

	if CanBook(monday, "10:30", 30, hours, existing, clock(), DefaultBufferMinutes) {
		t.Fatal("10:30 starts inside the buffered end 10:45, must be rejected")
	}
	if !CanBook(monday, "10:45", 30, hours, existing, clock(), DefaultBufferMinutes) {
		t.Fatal("10:45 must be accepted")
	}
	if HasAvailableSlotOnDay(monday, 600, hours, existing, DefaultSlotStepMinutes, clock()) {
		t.Fatal("600-minute service exceeds the open-to-close span")
	}
}
