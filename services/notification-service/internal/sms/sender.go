package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Sender interface {
	Send(ctx context.Context, to string, body string) error
	ProviderID() string
}

// ShortConfirmation is the SMS variant of the confirmation email, kept
// under a single segment where possible.
func ShortConfirmation(shopName, date, clock string) string {
	return fmt.Sprintf("%s: your appointment on %s at %s is confirmed. Reply is not monitored.", shopName, date, clock)
}

// WebhookSender forwards messages to a provider-agnostic HTTP webhook, so
// the actual SMS gateway stays a deployment concern.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhookSender(url string, token string) *WebhookSender {
	return &WebhookSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookSender) ProviderID() string {
	return "sms-webhook"
}

func (s *WebhookSender) Send(ctx context.Context, to string, body string) error {
	if s.url == "" {
		return errors.New("sms webhook url not configured")
	}
	raw, err := json.Marshal(map[string]string{
		"to":      to,
		"message": body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("sms webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopSender accepts every message without delivering it. Default for local
// development.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "sms-noop"
}

func (s *NoopSender) Send(_ context.Context, _ string, _ string) error {
	return nil
}
