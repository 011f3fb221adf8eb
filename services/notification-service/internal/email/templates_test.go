package email

import (
	"strings"
	"testing"
)

func sampleData() TemplateData {
	return TemplateData{
		ShopName:     "Elite Barber Studio",
		ShopAddress:  "123 Main Street, Downtown, NY 10001",
		ShopPhone:    "+1 (234) 567-890",
		BookingID:    "17",
		CustomerName: "Alex Doe",
		Date:         "2026-03-02",
		Time:         "09:30",
		EndTime:      "10:15",
		Services:     []string{"Premium Haircut"},
		Price:        35,
		ManageURL:    "https://shop.example/manage.html?token=abc",
		CalendarURL:  "https://calendar.google.com/calendar/render?x=1",
		BookingURL:   "https://shop.example/booking.html",
	}
}

func TestConfirmation(t *testing.T) {
	msg := Confirmation(sampleData())

	if msg.Subject != "Booking Confirmed - Appointment #17" {
		t.Errorf("subject = %s", msg.Subject)
	}
	for _, want := range []string{
		"Hi Alex Doe,",
		"Monday, March 2, 2026",
		"09:30 - 10:15",
		"Premium Haircut",
		"Total: $35",
		"https://shop.example/manage.html?token=abc",
		"https://calendar.google.com/calendar/render?x=1",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestConfirmationOmitsEmptyLinks(t *testing.T) {
	d := sampleData()
	d.ManageURL = ""
	d.CalendarURL = ""
	d.Price = 0
	msg := Confirmation(d)

	if strings.Contains(msg.Body, "Manage your booking") {
		t.Error("manage link rendered without url")
	}
	if strings.Contains(msg.Body, "Add to your calendar") {
		t.Error("calendar link rendered without url")
	}
	if strings.Contains(msg.Body, "Total:") {
		t.Error("total rendered for zero price")
	}
}

func TestCancellation(t *testing.T) {
	msg := Cancellation(sampleData())

	if msg.Subject != "Booking Cancelled - Appointment #17" {
		t.Errorf("subject = %s", msg.Subject)
	}
	if !strings.Contains(msg.Body, "cancelled your appointment #17") {
		t.Errorf("body = %s", msg.Body)
	}
}

func TestFollowUp(t *testing.T) {
	msg := FollowUp(sampleData())

	if msg.Subject != "Thank You for Visiting Elite Barber Studio!" {
		t.Errorf("subject = %s", msg.Subject)
	}
	if !strings.Contains(msg.Body, "https://shop.example/booking.html") {
		t.Error("body missing booking url")
	}
}

func TestLongDateFallback(t *testing.T) {
	if got := longDate("not-a-date"); got != "not-a-date" {
		t.Fatalf("longDate = %s", got)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("a@x.test", "b@y.test", "Hello", "Body line")
	if !strings.HasPrefix(msg, "From: a@x.test\r\n") {
		t.Errorf("msg = %q", msg)
	}
	if !strings.Contains(msg, "\r\n\r\nBody line\r\n") {
		t.Errorf("msg = %q", msg)
	}
}
