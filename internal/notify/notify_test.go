package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRenderUsesVariantCopy(t *testing.T) {
	msg, err := Render("information-findability", "https://site/verify/abc", "24 hours")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Subject != "Verify your email - Get instant access to any information" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, `href="https://site/verify/abc"`) || !strings.Contains(msg.Text, "https://site/verify/abc") {
		t.Fatalf("verification url missing from bodies")
	}
	if !strings.Contains(msg.Text, "expire in 24 hours") {
		t.Fatalf("validity window missing from text body")
	}
}

func TestRenderFallsBackForUnknownVariant(t *testing.T) {
	msg, err := Render("something-else", "https://site/verify/x", "24 hours")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Subject != fallbackCopy.Subject {
		t.Fatalf("expected fallback subject, got %q", msg.Subject)
	}
}

func TestResendNotifierPostsEmail(t *testing.T) {
	var got resendEmail
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	n := NewResendNotifier(ResendConfig{APIKey: "re_test", BaseURL: srv.URL, From: "LocalSphere <hi@x.com>", Timeout: time.Second})
	if err := n.SendVerificationEmail(context.Background(), "john@x.com", "unified-productivity", "https://site/verify/t"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer re_test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if len(got.To) != 1 || got.To[0] != "john@x.com" || got.Subject != "Verify your email - Unify your team's workflow" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestResendNotifierReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	n := NewResendNotifier(ResendConfig{APIKey: "re_test", BaseURL: srv.URL})
	err := n.SendVerificationEmail(context.Background(), "john@x.com", "timezone-freedom", "https://site/verify/t")
	if err == nil || !strings.Contains(err.Error(), "invalid from address") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestHumanDuration(t *testing.T) {
	if got := humanDuration(24 * time.Hour); got != "24 hours" {
		t.Fatalf("got %q", got)
	}
	if got := humanDuration(time.Hour); got != "1 hour" {
		t.Fatalf("got %q", got)
	}
	if got := humanDuration(90 * time.Minute); got != "1h30m0s" {
		t.Fatalf("got %q", got)
	}
}
