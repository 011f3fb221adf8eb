package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elitebarber/bookingd/services/booking-service/internal/availability"
	"github.com/elitebarber/bookingd/services/booking-service/internal/catalog"
	"github.com/elitebarber/bookingd/services/booking-service/internal/model"
	"github.com/elitebarber/bookingd/services/booking-service/internal/outbox"
	"github.com/elitebarber/bookingd/services/booking-service/internal/shopconfig"
	"github.com/elitebarber/bookingd/services/booking-service/internal/storage"
	"github.com/jackc/pgx/v5"
)

var errInvalidDuration = errors.New("invalid duration")

type BookingHandler struct {
	bookings   *storage.BookingRepository
	hours      *storage.HoursRepository
	tokens     *storage.TokenRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	shopcfg    shopconfig.Provider
}

func NewBookingHandler(
	bookings *storage.BookingRepository,
	hours *storage.HoursRepository,
	tokens *storage.TokenRepository,
	outboxRepo *outbox.Repository,
	logger *slog.Logger,
	shopcfgProvider shopconfig.Provider,
) *BookingHandler {
	return &BookingHandler{
		bookings:   bookings,
		hours:      hours,
		tokens:     tokens,
		outboxRepo: outboxRepo,
		logger:     logger,
		shopcfg:    shopcfgProvider,
	}
}

type bookRequest struct {
	CustomerName string   `json:"customer_name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Services     []string `json:"services"`
	Notes        string   `json:"notes"`
}

type bookResponse struct {
	BookingID   string `json:"booking_id"`
	ManageToken string `json:"manage_token"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type dayItem struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

type bookingItem struct {
	BookingID    string   `json:"booking_id"`
	CustomerName string   `json:"customer_name"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	EndTime      string   `json:"end_time"`
	Duration     int      `json:"duration"`
	Services     []string `json:"services"`
	Price        int      `json:"price"`
	Notes        string   `json:"notes,omitempty"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"created_at"`
}

func toBookingItem(b model.Booking) bookingItem {
	return bookingItem{
		BookingID:    b.ID,
		CustomerName: b.CustomerName,
		Phone:        b.Phone,
		Email:        b.Email,
		Date:         b.Date,
		Time:         b.Time,
		EndTime:      availability.AddMinutes(b.Time, b.Duration),
		Duration:     b.Duration,
		Services:     b.Services,
		Price:        b.Price,
		Notes:        b.Notes,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *BookingHandler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, catalog.All())
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if !isValidDate(date) {
		http.Error(w, "date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	duration, err := durationFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sched, err := h.loadSchedule(r.Context())
	if err != nil {
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}
	day, ok := sched.ForDate(date)
	if !ok || !day.Enabled {
		writeJSON(w, http.StatusOK, []slotItem{})
		return
	}

	booked, err := h.bookings.ListConfirmedOnDate(r.Context(), date)
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}

	starts := availability.AvailableStartTimes(date, duration, day, model.Slots(booked), availability.DefaultSlotStepMinutes, time.Now())
	items := make([]slotItem, 0, len(starts))
	for _, s := range starts {
		items = append(items, slotItem{
			StartTime: s,
			EndTime:   availability.AddMinutes(s, duration),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Days(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	first, err := time.Parse("2006-01", month)
	if err != nil {
		http.Error(w, "month is required (YYYY-MM)", http.StatusBadRequest)
		return
	}
	duration, err := durationFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sched, err := h.loadSchedule(r.Context())
	if err != nil {
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}

	last := first.AddDate(0, 1, -1)
	booked, err := h.bookings.ListRange(r.Context(), first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}
	byDate := make(map[string][]availability.Booking)
	for _, b := range booked {
		byDate[b.Date] = append(byDate[b.Date], b.Slot())
	}

	now := time.Now()
	var items []dayItem
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		day, ok := sched.ForDate(date)
		open := ok && availability.HasAvailableSlotOnDay(date, duration, day, byDate[date], availability.DefaultSlotStepMinutes, now)
		items = append(items, dayItem{Date: date, Available: open})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
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

// createBooking is the shared core of the public and admin booking flows.
func (h *BookingHandler) createBooking(w http.ResponseWriter, r *http.Request, req bookRequest) {
	sel, err := catalog.Resolve(req.Services)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sched, err := h.loadSchedule(r.Context())
	if err != nil {
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}
	day, ok := sched.ForDate(req.Date)
	if !ok || !day.Enabled {
		http.Error(w, "the shop is closed on that day", http.StatusUnprocessableEntity)
		return
	}

	booking := &model.Booking{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		Date:         req.Date,
		Time:         req.Time,
		Duration:     sel.TotalDuration,
		Services:     req.Services,
		Price:        sel.TotalPrice,
		Notes:        req.Notes,
		Status:       availability.StatusConfirmed,
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Fresh read inside the transaction: the availability shown to the client
	// may be stale by the time the form is submitted.
	fresh, err := h.bookings.ListConfirmedOnDateTx(ctx, tx, req.Date)
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}
	slots := model.Slots(fresh)
	if !availability.CanBook(req.Date, req.Time, sel.TotalDuration, day, slots, time.Now(), availability.DefaultBufferMinutes) {
		if !availability.IsSlotAvailable(req.Date, req.Time, sel.TotalDuration, slots, availability.DefaultBufferMinutes) {
			http.Error(w, "this time slot conflicts with an existing booking", http.StatusConflict)
			return
		}
		http.Error(w, "requested time is outside business hours", http.StatusUnprocessableEntity)
		return
	}

	id, err := h.bookings.Create(ctx, tx, booking)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "this time slot conflicts with an existing booking", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	booking.ID = id

	token, err := h.tokens.CreateForBooking(ctx, tx, id, appointmentStart(req.Date, req.Time))
	if err != nil {
		http.Error(w, "failed to issue manage token", http.StatusInternalServerError)
		return
	}

	if err := h.insertBookingEvent(ctx, tx, outbox.EventBookingConfirmed, booking, token); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, bookResponse{BookingID: id, ManageToken: token})
}

func (h *BookingHandler) Manage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	bookingID, err := h.tokens.GetActiveBookingID(r.Context(), token)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "invalid or expired token", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to resolve token", http.StatusInternalServerError)
		return
	}

	booking, err := h.bookings.GetByID(r.Context(), bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(booking))
}

type manageCancelRequest struct {
	Token string `json:"token"`
}

func (h *BookingHandler) ManageCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req manageCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	bookingID, err := h.tokens.GetActiveBookingID(r.Context(), req.Token)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "invalid or expired token", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to resolve token", http.StatusInternalServerError)
		return
	}

	h.cancelBooking(r.Context(), w, bookingID)
}

type manageTokenRequest struct {
	BookingID string `json:"booking_id"`
	Email     string `json:"email"`
}

type manageTokenResponse struct {
	ManageToken string `json:"manage_token"`
}

// ManageToken reissues a manage link for customers who lost theirs. The
// email on file must match, and the appointment must still be ahead.
func (h *BookingHandler) ManageToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req manageTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.Email = strings.TrimSpace(req.Email)
	if req.BookingID == "" || req.Email == "" {
		http.Error(w, "booking_id and email required", http.StatusBadRequest)
		return
	}

	booking, err := h.bookings.GetByID(r.Context(), req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if !strings.EqualFold(booking.Email, req.Email) {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}
	start := appointmentStart(booking.Date, booking.Time)
	if booking.Status != availability.StatusConfirmed || !start.After(time.Now()) {
		http.Error(w, "booking can no longer be managed", http.StatusConflict)
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	token, err := h.tokens.CreateForBooking(ctx, tx, booking.ID, start)
	if err != nil {
		http.Error(w, "failed to issue manage token", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, manageTokenResponse{ManageToken: token})
}

// cancelBooking flips a booking to cancelled, retires its manage tokens,
// and emits the cancellation event. Already-cancelled bookings succeed.
func (h *BookingHandler) cancelBooking(ctx context.Context, w http.ResponseWriter, bookingID string) {
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.bookings.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if booking.Status == availability.StatusCancelled {
		writeJSON(w, http.StatusOK, map[string]string{"booking_id": booking.ID, "status": availability.StatusCancelled})
		return
	}

	if err := h.bookings.Cancel(ctx, tx, booking.ID); err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}
	if err := h.tokens.DeactivateForBooking(ctx, tx, booking.ID); err != nil {
		http.Error(w, "failed to retire manage tokens", http.StatusInternalServerError)
		return
	}
	booking.Status = availability.StatusCancelled
	if err := h.insertBookingEvent(ctx, tx, outbox.EventBookingCancelled, &booking, ""); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"booking_id": booking.ID, "status": availability.StatusCancelled})
}

func (h *BookingHandler) loadSchedule(ctx context.Context) (availability.WeekSchedule, error) {
	if h.shopcfg != nil {
		reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		sched, err := h.shopcfg.GetWeekSchedule(reqCtx, "")
		if err == nil && len(sched) > 0 {
			return sched, nil
		}
		if err != nil {
			h.logger.Warn("remote schedule fetch failed; using local hours", "err", err)
		}
	}
	return h.hours.GetSchedule(ctx)
}

type bookingEventPayload struct {
	BookingID    string   `json:"booking_id"`
	CustomerName string   `json:"customer_name"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	EndTime      string   `json:"end_time"`
	Duration     int      `json:"duration"`
	Services     []string `json:"services"`
	Price        int      `json:"price"`
	ManageToken  string   `json:"manage_token,omitempty"`
}

func (h *BookingHandler) insertBookingEvent(ctx context.Context, tx pgx.Tx, eventType string, b *model.Booking, token string) error {
	payload, err := json.Marshal(bookingEventPayload{
		BookingID:    b.ID,
		CustomerName: b.CustomerName,
		Phone:        b.Phone,
		Email:        b.Email,
		Date:         b.Date,
		Time:         b.Time,
		EndTime:      availability.AddMinutes(b.Time, b.Duration),
		Duration:     b.Duration,
		Services:     b.Services,
		Price:        b.Price,
		ManageToken:  token,
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func validateBookRequest(req *bookRequest) string {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Notes = strings.TrimSpace(req.Notes)

	switch {
	case req.CustomerName == "":
		return "customer_name is required"
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return "a valid email is required"
	case !isValidDate(req.Date):
		return "date must be YYYY-MM-DD"
	case !isValidClock(req.Time):
		return "time must be HH:MM"
	case len(req.Services) == 0:
		return "at least one service is required"
	}
	return ""
}

func isValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isValidClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// appointmentStart combines the stored date and time into a local wall-clock
// instant.
func appointmentStart(date, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// durationFromQuery resolves the requested duration from either a services
// list or an explicit duration parameter. Both absent means no services are
// selected yet, which callers treat as duration zero.
func durationFromQuery(r *http.Request) (int, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("services")); raw != "" {
		sel, err := catalog.Resolve(strings.Split(raw, ","))
		if err != nil {
			return 0, err
		}
		return sel.TotalDuration, nil
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("duration")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 8*60 {
			return 0, errInvalidDuration
		}
		return n, nil
	}
	return 0, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
