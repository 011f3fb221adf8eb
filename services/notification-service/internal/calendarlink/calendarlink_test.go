package calendarlink

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

var testShop = Shop{
	Name:     "Elite Barber Studio",
	Address:  "123 Main Street, Downtown, NY 10001",
	Phone:    "+1 (234) 567-890",
	Timezone: "America/New_York",
	Domain:   "elitebarberstudio.com",
}

var testEvent = Event{
	BookingID: "b-42",
	Date:      "2026-03-02",
	Time:      "09:30",
	Duration:  45,
	Services:  []string{"Premium Haircut"},
	Price:     35,
}

func TestGoogleURL(t *testing.T) {
	raw := GoogleURL(testShop, testEvent)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "calendar.google.com" {
		t.Fatalf("host = %s", u.Host)
	}

	q := u.Query()
	if got := q.Get("dates"); got != "20260302T093000/20260302T101500" {
		t.Errorf("dates = %s", got)
	}
	if got := q.Get("text"); got != "Appointment at Elite Barber Studio" {
		t.Errorf("text = %s", got)
	}
	if got := q.Get("ctz"); got != "America/New_York" {
		t.Errorf("ctz = %s", got)
	}
	if details := q.Get("details"); !strings.Contains(details, "Services: Premium Haircut") {
		t.Errorf("details missing services: %s", details)
	}
	if details := q.Get("details"); !strings.Contains(details, "Total: $35") {
		t.Errorf("details missing total: %s", details)
	}
}

func TestICS(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	body := ICS(testShop, testEvent, now)

	wantLines := []string{
		"BEGIN:VCALENDAR",
		"UID:b-42@elitebarberstudio.com",
		"DTSTAMP:20260220T120000Z",
		"DTSTART;TZID=America/New_York:20260302T093000",
		"DTEND;TZID=America/New_York:20260302T101500",
		"SUMMARY:Appointment at Elite Barber Studio",
		"TRIGGER:-P1D",
		"END:VCALENDAR",
	}
	for _, line := range wantLines {
		if !strings.Contains(body, line+"\r\n") {
			t.Errorf("missing line %q", line)
		}
	}
	if strings.Contains(body, "\n\n") {
		t.Error("bare LF line endings")
	}
}

func TestEndClockCrossesHour(t *testing.T) {
	if got := endClock("23:30", 45); got != "24:15" {
		t.Fatalf("endClock = %s", got)
	}
}
