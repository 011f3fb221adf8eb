package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookSender(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "secret")
	if err := s.Send(context.Background(), "+15550001111", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["to"] != "+15550001111" || got["message"] != "hello" {
		t.Errorf("payload = %v", got)
	}
	if auth != "Bearer secret" {
		t.Errorf("auth = %s", auth)
	}
}

func TestWebhookSenderRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "")
	if err := s.Send(context.Background(), "+15550001111", "hello"); err == nil {
		t.Fatal("want error for 502 response")
	}
}

func TestWebhookSenderRequiresURL(t *testing.T) {
	s := NewWebhookSender("", "")
	if err := s.Send(context.Background(), "+15550001111", "hello"); err == nil {
		t.Fatal("want error for missing url")
	}
}

func TestShortConfirmation(t *testing.T) {
	body := ShortConfirmation("Elite Barber Studio", "2026-03-02", "09:30")
	for _, want := range []string{"Elite Barber Studio", "2026-03-02", "09:30"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
}
