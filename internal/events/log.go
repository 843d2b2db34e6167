package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. Useful locally when no
// broker or analytics key is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (l LogPublisher) Publish(ctx context.Context, ev Event) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "analytics event",
		"event", ev.Name,
		"distinct_id", ev.DistinctID,
		"at", ev.At,
		"properties", ev.Properties,
	)
	return nil
}
