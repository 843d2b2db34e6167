package events

import (
	"context"
	"time"
)

// Event is the sink-neutral shape handed to every publisher.
type Event struct {
	Name       string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	At         time.Time      `json:"timestamp"`
	Properties map[string]any `json:"properties"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

const (
	NameVariantAssigned = "variant_assigned"
	NameEmailCaptured   = "email_captured"
	NameEmailVerified   = "email_verified"
)

type VariantAssigned struct {
	SessionID string    `json:"sessionId"`
	Variant   string    `json:"variant"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	At        time.Time `json:"at"`
}

func (v VariantAssigned) Event() Event {
	return Event{
		Name:       NameVariantAssigned,
		DistinctID: v.SessionID,
		At:         v.At,
		Properties: map[string]any{
			"localsphere_variant": v.Variant,
			"session_id":          v.SessionID,
			"validation_test":     true,
			"$ip":                 v.IP,
			"$user_agent":         v.UserAgent,
		},
	}
}

type EmailCaptured struct {
	CaptureID   string    `json:"captureId"`
	SessionID   string    `json:"sessionId"`
	Variant     string    `json:"variant"`
	Section     string    `json:"section"`
	CTAText     string    `json:"ctaText"`
	EmailDomain string    `json:"emailDomain"`
	At          time.Time `json:"at"`
}

// Event keys the capture on the session when one is known so funnels join
// with the assignment event; the email itself is never forwarded.
func (c EmailCaptured) Event() Event {
	distinct := c.SessionID
	if distinct == "" {
		distinct = c.CaptureID
	}
	return Event{
		Name:       NameEmailCaptured,
		DistinctID: distinct,
		At:         c.At,
		Properties: map[string]any{
			"localsphere_variant": c.Variant,
			"capture_id":          c.CaptureID,
			"section":             c.Section,
			"cta_text":            c.CTAText,
			"email_domain":        c.EmailDomain,
			"session_id":          c.SessionID,
		},
	}
}

type EmailVerified struct {
	CaptureID string    `json:"captureId"`
	SessionID string    `json:"sessionId"`
	Variant   string    `json:"variant"`
	Section   string    `json:"section"`
	At        time.Time `json:"at"`
}

func (v EmailVerified) Event() Event {
	distinct := v.SessionID
	if distinct == "" {
		distinct = v.CaptureID
	}
	return Event{
		Name:       NameEmailVerified,
		DistinctID: distinct,
		At:         v.At,
		Properties: map[string]any{
			"localsphere_variant": v.Variant,
			"capture_id":          v.CaptureID,
			"section":             v.Section,
			"session_id":          v.SessionID,
		},
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
