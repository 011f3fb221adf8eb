// Package calendarlink builds "add to calendar" artifacts for a confirmed
// appointment: a Google Calendar template URL and an iCalendar (.ics) body.
package calendarlink

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Shop describes the venue placed into calendar entries.
type Shop struct {
	Name     string
	Address  string
	Phone    string
	Timezone string
	Domain   string
}

// Event is the appointment being exported.
type Event struct {
	BookingID string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	Duration  int
	Services  []string
	Price     int
}

// GoogleURL returns a calendar.google.com render URL prefilled with the
// appointment.
func GoogleURL(shop Shop, ev Event) string {
	start := stamp(ev.Date, ev.Time)
	end := stamp(ev.Date, endClock(ev.Time, ev.Duration))

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", "Appointment at "+shop.Name)
	q.Set("dates", start+"/"+end)
	q.Set("details", description(shop, ev, "\n"))
	q.Set("location", shop.Name+", "+shop.Address)
	if shop.Timezone != "" {
		q.Set("ctz", shop.Timezone)
	}
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

// ICS returns the event as an iCalendar document. now feeds DTSTAMP.
func ICS(shop Shop, ev Event, now time.Time) string {
	start := stamp(ev.Date, ev.Time)
	end := stamp(ev.Date, endClock(ev.Time, ev.Duration))
	tzid := shop.Timezone
	if tzid == "" {
		tzid = "UTC"
	}

	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//" + shop.Name + "//Booking System//EN\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	b.WriteString("UID:" + ev.BookingID + "@" + shop.Domain + "\r\n")
	b.WriteString("DTSTAMP:" + now.UTC().Format("20060102T150405Z") + "\r\n")
	b.WriteString("DTSTART;TZID=" + tzid + ":" + start + "\r\n")
	b.WriteString("DTEND;TZID=" + tzid + ":" + end + "\r\n")
	b.WriteString("SUMMARY:Appointment at " + shop.Name + "\r\n")
	b.WriteString("DESCRIPTION:" + description(shop, ev, "\\n") + "\r\n")
	b.WriteString("LOCATION:" + shop.Name + "\\, " + shop.Address + "\r\n")
	b.WriteString("BEGIN:VALARM\r\n")
	b.WriteString("ACTION:DISPLAY\r\n")
	b.WriteString("DESCRIPTION:Reminder: Appointment at " + shop.Name + " tomorrow\r\n")
	b.WriteString("TRIGGER:-P1D\r\n")
	b.WriteString("END:VALARM\r\n")
	b.WriteString("END:VEVENT\r\n")
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func description(shop Shop, ev Event, nl string) string {
	parts := []string{
		"Services: " + strings.Join(ev.Services, ", "),
		"Duration: " + strconv.Itoa(ev.Duration) + " minutes",
		"Total: $" + strconv.Itoa(ev.Price),
		"",
		"Please arrive 5 minutes early.",
		"",
		shop.Name,
		shop.Address,
		"Phone: " + shop.Phone,
	}
	return strings.Join(parts, nl)
}

// stamp renders YYYYMMDDTHHMMSS from the stored date and clock strings.
func stamp(date, clock string) string {
	d := strings.ReplaceAll(date, "-", "")
	c := strings.ReplaceAll(clock, ":", "")
	return d + "T" + c + "00"
}

func endClock(clock string, duration int) string {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return clock
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil {
		return clock
	}
	total := h*60 + m + duration
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
