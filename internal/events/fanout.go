package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"localsphere/internal/observability/metrics"
	"localsphere/internal/observability/middleware"

	"golang.org/x/sync/errgroup"
)

// Fanout publishes every event to all sinks concurrently. It waits for all of
// them and returns the first error.
type Fanout struct {
	sinks map[string]Publisher
	// Timeout bounds one Publish call across all sinks; zero means no bound.
	Timeout time.Duration
}

func NewFanout() *Fanout {
	return &Fanout{sinks: map[string]Publisher{}}
}

func (f *Fanout) Add(name string, p Publisher) {
	f.sinks[name] = p
}

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	// A plain group: one failing sink must not cancel the others.
	var g errgroup.Group
	for name, sink := range f.sinks {
		g.Go(func() error {
			result := "success"
			defer func() {
				metrics.EventsPublishedTotal.WithLabelValues(name, ev.Name, result).Inc()
			}()
			if err := sink.Publish(ctx, ev); err != nil {
				result = "failure"
				slog.Warn("event publish failed",
					"sink", name,
					"event", ev.Name,
					"error", err,
					"request_id", middleware.RequestIDFromContext(ctx),
					"trace_id", middleware.TraceIDFromContext(ctx),
				)
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
