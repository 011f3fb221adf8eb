package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elitebarber/bookingd/services/booking-service/internal/availability"
	"github.com/elitebarber/bookingd/services/booking-service/internal/catalog"
	"github.com/elitebarber/bookingd/services/booking-service/internal/model"
	"github.com/elitebarber/bookingd/services/booking-service/internal/outbox"
	"github.com/elitebarber/bookingd/services/booking-service/internal/storage"
)

// AdminList returns bookings for the dashboard: a date range when from/to
// are given, otherwise the most recent ones.
func (h *BookingHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	var bookings []model.Booking
	var err error
	if from != "" || to != "" {
		if !isValidDate(from) || !isValidDate(to) {
			http.Error(w, "from and to must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		bookings, err = h.bookings.ListRange(r.Context(), from, to)
	} else {
		limit := 50
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		bookings, err = h.bookings.ListRecent(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}

	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, toBookingItem(b))
	}
	writeJSON(w, http.StatusOK, items)
}

// AdminCreate books on behalf of a walk-in or phone customer. Same conflict
// rules as the public flow.
func (h *BookingHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if msg := validateBookRequest(&req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	h.createBooking(w, r, req)
}

type adminUpdateRequest struct {
	BookingID    string   `json:"booking_id"`
	CustomerName string   `json:"customer_name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Services     []string `json:"services"`
	Notes        string   `json:"notes"`
}

// AdminUpdate reschedules or edits a booking. The booking's own slot is
// excluded from the conflict check so it can keep or shift its time.
func (h *BookingHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req adminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		http.Error(w, "booking_id is required", http.StatusBadRequest)
		return
	}
	fields := bookRequest{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		Date:         req.Date,
		Time:         req.Time,
		Services:     req.Services,
		Notes:        req.Notes,
	}
	if msg := validateBookRequest(&fields); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	sel, err := catalog.Resolve(fields.Services)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sched, err := h.loadSchedule(r.Context())
	if err != nil {
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}
	day, ok := sched.ForDate(fields.Date)
	if !ok || !day.Enabled {
		http.Error(w, "the shop is closed on that day", http.StatusUnprocessableEntity)
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.bookings.GetForUpdate(ctx, tx, req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if booking.Status != availability.StatusConfirmed {
		http.Error(w, "cancelled bookings cannot be edited", http.StatusConflict)
		return
	}

	fresh, err := h.bookings.ListConfirmedOnDateTx(ctx, tx, fields.Date)
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}
	others := availability.ExcludeBooking(model.Slots(fresh), booking.ID)
	if !availability.CanBook(fields.Date, fields.Time, sel.TotalDuration, day, others, time.Now(), availability.DefaultBufferMinutes) {
		if !availability.IsSlotAvailable(fields.Date, fields.Time, sel.TotalDuration, others, availability.DefaultBufferMinutes) {
			http.Error(w, "this time slot conflicts with an existing booking", http.StatusConflict)
			return
		}
		http.Error(w, "requested time is outside business hours", http.StatusUnprocessableEntity)
		return
	}

	booking.CustomerName = fields.CustomerName
	booking.Phone = fields.Phone
	booking.Email = fields.Email
	booking.Date = fields.Date
	booking.Time = fields.Time
	booking.Duration = sel.TotalDuration
	booking.Services = fields.Services
	booking.Price = sel.TotalPrice
	booking.Notes = fields.Notes

	if err := h.bookings.Update(ctx, tx, &booking); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "this time slot conflicts with an existing booking", http.StatusConflict)
			return
		}
		http.Error(w, "failed to update booking", http.StatusInternalServerError)
		return
	}

	// Reissue the manage token: the old link expires at the old start time.
	token, err := h.tokens.CreateForBooking(ctx, tx, booking.ID, appointmentStart(booking.Date, booking.Time))
	if err != nil {
		http.Error(w, "failed to issue manage token", http.StatusInternalServerError)
		return
	}
	if err := h.insertBookingEvent(ctx, tx, outbox.EventBookingUpdated, &booking, token); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(booking))
}

type adminCancelRequest struct {
	BookingID string `json:"booking_id"`
}

func (h *BookingHandler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req adminCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		http.Error(w, "booking_id is required", http.StatusBadRequest)
		return
	}
	h.cancelBooking(r.Context(), w, req.BookingID)
}

type hoursEntry struct {
	Enabled               bool   `json:"enabled"`
	Open                  string `json:"open"`
	Close                 string `json:"close"`
	OvertimeBufferMinutes int    `json:"overtime_buffer_minutes"`
}

func (h *BookingHandler) GetHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sched, err := h.hours.GetSchedule(r.Context())
	if err != nil {
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}
	out := make(map[string]hoursEntry, len(sched))
	for weekday, d := range sched {
		out[weekday] = hoursEntry{
			Enabled:               d.Enabled,
			Open:                  d.Open,
			Close:                 d.Close,
			OvertimeBufferMinutes: d.OvertimeBufferMinutes,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingHandler) UpdateHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req map[string]hoursEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	sched := availability.WeekSchedule{}
	for weekday, entry := range req {
		weekday = strings.ToLower(strings.TrimSpace(weekday))
		if msg := validateHoursEntry(weekday, entry); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		sched[weekday] = availability.DayHours{
			Enabled:               entry.Enabled,
			Open:                  entry.Open,
			Close:                 entry.Close,
			OvertimeBufferMinutes: entry.OvertimeBufferMinutes,
		}
	}
	if len(sched) == 0 {
		http.Error(w, "no weekday entries provided", http.StatusBadRequest)
		return
	}
	if err := h.hours.UpdateSchedule(r.Context(), sched); err != nil {
		http.Error(w, "failed to update business hours", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

func validateHoursEntry(weekday string, e hoursEntry) string {
	if !weekdays[weekday] {
		return "unknown weekday " + strconv.Quote(weekday)
	}
	if !isValidClock(e.Open) || !isValidClock(e.Close) {
		return "open and close must be HH:MM"
	}
	if availability.TimeToMinutes(e.Open) >= availability.TimeToMinutes(e.Close) {
		return "open must be before close"
	}
	if e.OvertimeBufferMinutes < 0 {
		return "overtime_buffer_minutes must be non-negative"
	}
	return ""
}
