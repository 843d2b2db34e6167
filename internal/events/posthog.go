package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PostHogPublisher forwards events to the PostHog capture endpoint.
type PostHogPublisher struct {
	apiKey string
	host   string
	hc     *http.Client
}

func NewPostHogPublisher(apiKey, host string, timeout time.Duration) *PostHogPublisher {
	if host == "" {
		host = "https://us.i.posthog.com"
	}
	return &PostHogPublisher{
		apiKey: apiKey,
		host:   strings.TrimRight(host, "/"),
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

type posthogCapture struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties"`
	Timestamp  time.Time      `json:"timestamp"`
}

func (p *PostHogPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(posthogCapture{
		APIKey:     p.apiKey,
		Event:      ev.Name,
		DistinctID: ev.DistinctID,
		Properties: ev.Properties,
		Timestamp:  ev.At,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/capture/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("posthog capture: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
