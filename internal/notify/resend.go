package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"localsphere/internal/observability/middleware"
)

type ResendConfig struct {
	APIKey   string
	BaseURL  string // default https://api.resend.com
	From     string
	Timeout  time.Duration
	ValidFor time.Duration
}

// ResendNotifier sends verification emails through the Resend HTTP API.
type ResendNotifier struct {
	cfg ResendConfig
	hc  *http.Client
}

func NewResendNotifier(cfg ResendConfig) *ResendNotifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.resend.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ValidFor <= 0 {
		cfg.ValidFor = 24 * time.Hour
	}
	return &ResendNotifier{
		cfg: cfg,
		hc: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (n *ResendNotifier) SendVerificationEmail(ctx context.Context, email, variant, verificationURL string) error {
	msg, err := Render(variant, verificationURL, humanDuration(n.cfg.ValidFor))
	if err != nil {
		return err
	}
	body, err := json.Marshal(resendEmail{
		From:    n.cfg.From,
		To:      []string{email},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if rid := middleware.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := n.hc.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out resendResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&out)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend: status %d: %s", resp.StatusCode, out.Message)
	}

	slog.Info("verification email sent",
		"email_id", out.ID,
		"variant", variant,
		"duration", time.Since(start),
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return nil
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}
