package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testHandler() *BookingHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBookingHandler(nil, nil, nil, nil, logger, nil)
}

func TestValidateBookRequest(t *testing.T) {
	valid := bookRequest{
		CustomerName: "Jordan Reyes",
		Phone:        "555-0142",
		Email:        "jordan@example.com",
		Date:         "2026-03-02",
		Time:         "10:30",
		Services:     []string{"premium-haircut"},
	}
	if msg := validateBookRequest(&valid); msg != "" {
		t.Fatalf("expected valid request, got %q", msg)
	}

	cases := []struct {
		name   string
		mutate func(*bookRequest)
	}{
		{"missing name", func(r *bookRequest) { r.CustomerName = "  " }},
		{"missing email", func(r *bookRequest) { r.Email = "" }},
		{"email without at sign", func(r *bookRequest) { r.Email = "jordan.example.com" }},
		{"bad date", func(r *bookRequest) { r.Date = "03/02/2026" }},
		{"bad time", func(r *bookRequest) { r.Time = "10:30pm" }},
		{"no services", func(r *bookRequest) { r.Services = nil }},
	}
	for _, tc := range cases {
		req := valid
		tc.mutate(&req)
		if msg := validateBookRequest(&req); msg == "" {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}
}

func TestDurationFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/slots?services=premium-haircut,beard-trim", nil)
	d, err := durationFromQuery(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 75 {
		t.Fatalf("expected duration 75, got %d", d)
	}

	r = httptest.NewRequest(http.MethodGet, "/slots?duration=45", nil)
	if d, err = durationFromQuery(r); err != nil || d != 45 {
		t.Fatalf("expected 45, got %d err=%v", d, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/slots", nil)
	if d, err = durationFromQuery(r); err != nil || d != 0 {
		t.Fatalf("expected 0 for no selection, got %d err=%v", d, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/slots?services=unknown", nil)
	if _, err = durationFromQuery(r); err == nil {
		t.Fatal("expected error for unknown service")
	}

	r = httptest.NewRequest(http.MethodGet, "/slots?duration=-5", nil)
	if _, err = durationFromQuery(r); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestAppointmentStart(t *testing.T) {
	start := appointmentStart("2026-03-02", "10:30")
	if start.Year() != 2026 || start.Month() != time.March || start.Day() != 2 {
		t.Fatalf("unexpected date: %s", start)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Fatalf("unexpected clock: %s", start)
	}
	if !appointmentStart("garbage", "10:30").IsZero() {
		t.Fatal("expected zero time for malformed input")
	}
}

func TestBook_RejectsBeforeStorage(t *testing.T) {
	h := testHandler()

	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodGet, "/book", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/book", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body := `{"customer_name":"Jordan","email":"jordan@example.com","date":"2026-03-02","time":"10:30","services":[]}`
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/book", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty services, got %d", rec.Code)
	}
}

func TestSlots_RequiresDate(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	h.Slots(rec, httptest.NewRequest(http.MethodGet, "/slots", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDays_RequiresMonth(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	h.Days(rec, httptest.NewRequest(http.MethodGet, "/days?month=March", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestManage_RequiresToken(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	h.Manage(rec, httptest.NewRequest(http.MethodGet, "/manage", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestValidateHoursEntry(t *testing.T) {
	good := hoursEntry{Enabled: true, Open: "09:00", Close: "18:00", OvertimeBufferMinutes: 20}
	if msg := validateHoursEntry("monday", good); msg != "" {
		t.Fatalf("expected valid entry, got %q", msg)
	}
	if msg := validateHoursEntry("funday", good); msg == "" {
		t.Fatal("expected rejection of unknown weekday")
	}
	if msg := validateHoursEntry("monday", hoursEntry{Open: "18:00", Close: "09:00"}); msg == "" {
		t.Fatal("expected rejection when open is after close")
	}
	if msg := validateHoursEntry("monday", hoursEntry{Open: "09:00", Close: "18:00", OvertimeBufferMinutes: -1}); msg == "" {
		t.Fatal("expected rejection of negative overtime buffer")
	}
}
