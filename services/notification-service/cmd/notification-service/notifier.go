package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/elitebarber/bookingd/libs/db"
	"github.com/elitebarber/bookingd/services/notification-service/internal/calendarlink"
	"github.com/elitebarber/bookingd/services/notification-service/internal/email"
	"github.com/elitebarber/bookingd/services/notification-service/internal/outbox"
	"github.com/elitebarber/bookingd/services/notification-service/internal/sms"
	"github.com/elitebarber/bookingd/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type bookingEvent struct {
	BookingID    string   `json:"booking_id"`
	CustomerName string   `json:"customer_name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	EndTime      string   `json:"end_time"`
	Duration     int      `json:"duration"`
	Services     []string `json:"services"`
	Price        int      `json:"price"`
	ManageToken  string   `json:"manage_token"`
}

type followupEvent struct {
	BookingID    string   `json:"booking_id"`
	Recipient    string   `json:"recipient"`
	CustomerName string   `json:"customer_name"`
	Services     []string `json:"services"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	DueAt        string   `json:"due_at"`
}

// notifier turns booking lifecycle events into customer email and SMS.
type notifier struct {
	logger        *slog.Logger
	pool          *db.Pool
	notifications *storage.Repository
	outbox        *outbox.Repository
	email         email.Sender
	sms           sms.Sender
	smsEnabled    bool
	failSuffix    string
	baseURL       string
	shop          calendarlink.Shop
}

func (n *notifier) handleConfirmed(ctx context.Context, msg kafka.Message) error {
	var evt bookingEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		n.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if evt.BookingID == "" || evt.Email == "" {
		n.logger.Error("missing required event fields", "topic", msg.Topic)
		return nil
	}

	data := n.templateData(evt)
	data.CalendarURL = calendarlink.GoogleURL(n.shop, calendarlink.Event{
		BookingID: evt.BookingID,
		Date:      evt.Date,
		Time:      evt.Time,
		Duration:  evt.Duration,
		Services:  evt.Services,
		Price:     evt.Price,
	})
	if evt.ManageToken != "" && n.baseURL != "" {
		data.ManageURL = n.baseURL + "/manage.html?token=" + evt.ManageToken
	}

	if err := n.deliverEmail(ctx, evt.BookingID, "confirmation", evt.Email, email.Confirmation(data)); err != nil {
		return err
	}

	if n.smsEnabled && evt.Phone != "" {
		body := sms.ShortConfirmation(n.shop.Name, evt.Date, evt.Time)
		if err := n.deliverSMS(ctx, evt.BookingID, "confirmation", evt.Phone, body); err != nil {
			return err
		}
	}
	return nil
}

func (n *notifier) handleCancelled(ctx context.Context, msg kafka.Message) error {
	var evt bookingEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		n.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if evt.BookingID == "" || evt.Email == "" {
		n.logger.Error("missing required event fields", "topic", msg.Topic)
		return nil
	}

	return n.deliverEmail(ctx, evt.BookingID, "cancellation", evt.Email, email.Cancellation(n.templateData(evt)))
}

func (n *notifier) handleFollowupDue(ctx context.Context, msg kafka.Message) error {
	var evt followupEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		n.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if evt.BookingID == "" || evt.Recipient == "" {
		n.logger.Error("missing required event fields", "topic", msg.Topic)
		return nil
	}

	data := email.TemplateData{
		ShopName:     n.shop.Name,
		ShopAddress:  n.shop.Address,
		ShopPhone:    n.shop.Phone,
		BookingID:    evt.BookingID,
		CustomerName: evt.CustomerName,
		Date:         evt.Date,
		Time:         evt.Time,
		Services:     evt.Services,
	}
	if n.baseURL != "" {
		data.BookingURL = n.baseURL + "/booking.html"
	}

	return n.deliverEmail(ctx, evt.BookingID, "followup", evt.Recipient, email.FollowUp(data))
}

func (n *notifier) templateData(evt bookingEvent) email.TemplateData {
	return email.TemplateData{
		ShopName:     n.shop.Name,
		ShopAddress:  n.shop.Address,
		ShopPhone:    n.shop.Phone,
		BookingID:    evt.BookingID,
		CustomerName: evt.CustomerName,
		Date:         evt.Date,
		Time:         evt.Time,
		EndTime:      evt.EndTime,
		Services:     evt.Services,
		Price:        evt.Price,
	}
}

func (n *notifier) deliverEmail(ctx context.Context, bookingID, kind, recipient string, msg email.Message) error {
	status := "sent"
	failureReason := ""
	if n.failSuffix != "" && strings.HasSuffix(recipient, n.failSuffix) {
		status = "failed"
		failureReason = "simulated failure"
	}

	if status == "sent" {
		if err := n.email.Send(recipient, msg.Subject, msg.Body); err != nil {
			status = "failed"
			failureReason = err.Error()
			n.logger.Error("email send failed", "err", err, "recipient", recipient, "kind", kind)
		}
	}

	return n.record(ctx, storage.Notification{
		BookingID: bookingID,
		Kind:      kind,
		Channel:   "email",
		Recipient: recipient,
		Payload:   map[string]any{"subject": msg.Subject},
		Status:    status,
	}, "smtp", failureReason)
}

func (n *notifier) deliverSMS(ctx context.Context, bookingID, kind, recipient, body string) error {
	status := "sent"
	failureReason := ""
	if n.failSuffix != "" && strings.HasSuffix(recipient, n.failSuffix) {
		status = "failed"
		failureReason = "simulated failure"
	}

	if status == "sent" {
		if err := n.sms.Send(ctx, recipient, body); err != nil {
			status = "failed"
			failureReason = err.Error()
			n.logger.Error("sms send failed", "err", err, "recipient", recipient, "kind", kind)
		}
	}

	return n.record(ctx, storage.Notification{
		BookingID: bookingID,
		Kind:      kind,
		Channel:   "sms",
		Recipient: recipient,
		Payload:   map[string]any{"body": body},
		Status:    status,
	}, n.sms.ProviderID(), failureReason)
}

// record persists the attempt and enqueues the matching lifecycle event.
func (n *notifier) record(ctx context.Context, note storage.Notification, providerID, failureReason string) error {
	if err := n.notifications.Insert(ctx, note); err != nil {
		n.logger.Error("failed to persist notification", "err", err)
		return err
	}

	tx, err := n.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventType := outbox.EventNotificationSent
	fields := map[string]any{
		"booking_id": note.BookingID,
		"kind":       note.Kind,
		"channel":    note.Channel,
	}
	if note.Status == "failed" {
		eventType = outbox.EventNotificationFailed
		fields["error_reason"] = failureReason
		fields["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	} else {
		fields["provider_id"] = providerID
		fields["sent_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	if err := n.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   note.BookingID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		n.logger.Error("failed to enqueue notification event", "err", err)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	n.logger.Info("notification processed", "booking_id", note.BookingID, "kind", note.Kind, "channel", note.Channel, "status", note.Status)
	return nil
}
